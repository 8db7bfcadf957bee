package predict

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand/v2"
)

// Jitter perturbs a predicted accuracy. Implementations must be pure: the
// same inputs always give the same offset.
type Jitter interface {
	Offset(learnerID, subject string, difficulty float64) float64
}

// NoJitter adds nothing.
type NoJitter struct{}

func (NoJitter) Offset(string, string, float64) float64 { return 0 }

// HashJitter draws an offset in [-Amplitude, Amplitude] from a PCG stream
// seeded by Seed and a hash of the inputs.
type HashJitter struct {
	Seed      uint64
	Amplitude float64
}

func (h HashJitter) Offset(learnerID, subject string, difficulty float64) float64 {
	if h.Amplitude == 0 {
		return 0
	}
	f := fnv.New64a()
	f.Write([]byte(learnerID))
	f.Write([]byte{0})
	f.Write([]byte(subject))
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(difficulty))
	f.Write(buf[:])

	r := rand.New(rand.NewPCG(h.Seed, f.Sum64()))
	return (2*r.Float64() - 1) * h.Amplitude
}
