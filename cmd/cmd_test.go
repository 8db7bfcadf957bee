package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prepcoach/internal/engine"
	"github.com/abhisek/prepcoach/internal/predict"
)

const recordsJSON = `[
  {"learner_id": "ana", "subject_area": "PU",  "accuracy": 50, "time_spent_seconds": 60, "difficulty": 3, "attempts": 1},
  {"learner_id": "ana", "subject_area": "PU",  "accuracy": 55, "time_spent_seconds": 60, "difficulty": 3, "attempts": 1},
  {"learner_id": "ana", "subject_area": "PU",  "accuracy": 60, "time_spent_seconds": 60, "difficulty": 3, "attempts": 1},
  {"learner_id": "ana", "subject_area": "PK",  "accuracy": 85, "time_spent_seconds": 45, "difficulty": 3, "attempts": 1},
  {"learner_id": "ana", "subject_area": "PK",  "accuracy": 88, "time_spent_seconds": 45, "difficulty": 3, "attempts": 1},
  {"learner_id": "ana", "subject_area": "PK",  "accuracy": 90, "time_spent_seconds": 45, "difficulty": 3, "attempts": 1},
  {"learner_id": "ana", "subject_area": "LBI", "accuracy": 70, "time_spent_seconds": 50, "difficulty": 3, "attempts": 1},
  {"learner_id": "ana", "subject_area": "LBI", "accuracy": 72, "time_spent_seconds": 50, "difficulty": 3, "attempts": 1},
  {"learner_id": "ana", "subject_area": "LBI", "accuracy": 74, "time_spent_seconds": 50, "difficulty": 3, "attempts": 1}
]`

const ratingsJSON = `[
  {"learner_id": "ana",  "item_id": "m1", "rating": 5},
  {"learner_id": "ana",  "item_id": "m2", "rating": 4},
  {"learner_id": "bob",  "item_id": "m1", "rating": 5},
  {"learner_id": "bob",  "item_id": "m2", "rating": 4},
  {"learner_id": "bob",  "item_id": "m3", "rating": 5},
  {"learner_id": "cara", "item_id": "m1", "rating": 4},
  {"learner_id": "cara", "item_id": "m3", "rating": 4},
  {"learner_id": "cara", "item_id": "m4", "rating": 5}
]`

// resetFlags clears values left on the shared command tree by earlier runs.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

type cli struct {
	t  *testing.T
	db string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("PREPCOACH_DB", "")
	t.Setenv("PREPCOACH_CONFIG", "")
	t.Setenv("PREPCOACH_LLM_PROVIDER", "")
	return &cli{t: t, db: filepath.Join(t.TempDir(), "test.db")}
}

func (c *cli) run(args ...string) (string, string, error) {
	c.t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--db", c.db, "--log-level", "disabled"}, args...))
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func (c *cli) file(name, body string) string {
	c.t.Helper()
	path := filepath.Join(c.t.TempDir(), name)
	require.NoError(c.t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func (c *cli) seed() {
	c.t.Helper()
	_, _, err := c.run("import", "records", c.file("records.json", recordsJSON))
	require.NoError(c.t, err)
	_, _, err = c.run("import", "ratings", c.file("ratings.json", ratingsJSON))
	require.NoError(c.t, err)
}

func TestImport_ReportsCounts(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run("import", "records", c.file("records.json", recordsJSON))
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 9 record(s), skipped 0.")

	out, _, err = c.run("import", "ratings", c.file("ratings.json", ratingsJSON))
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 8 rating(s), skipped 0.")
}

func TestImport_SkipsInvalidRows(t *testing.T) {
	c := newCLI(t)
	path := c.file("bad.json", `[
  {"learner_id": "ana", "subject_area": "PU", "accuracy": 50, "difficulty": 3},
  {"learner_id": "ana", "subject_area": "PU", "accuracy": 150, "difficulty": 3},
  {"learner_id": "", "subject_area": "PU", "accuracy": 50, "difficulty": 3}
]`)

	out, errOut, err := c.run("import", "records", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 record(s), skipped 2.")
	assert.Contains(t, errOut, "skipping row 1")
	assert.Contains(t, errOut, "skipping row 2")
}

func TestImport_MalformedFile(t *testing.T) {
	c := newCLI(t)
	_, _, err := c.run("import", "ratings", c.file("bad.json", `{not json`))
	assert.Error(t, err)
}

func TestRecommend_JSON(t *testing.T) {
	c := newCLI(t)
	c.seed()

	out, _, err := c.run("recommend", "ana", "--json")
	require.NoError(t, err)

	var b engine.Bundle
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Equal(t, "ana", b.LearnerID)
	assert.False(t, b.Degraded)
	assert.Equal(t, []string{"PU", "LBI", "PK"}, b.LearningPath)
	assert.Empty(t, b.Summary)
	require.NotEmpty(t, b.ContentRecommendations)
	for _, r := range b.ContentRecommendations {
		assert.Contains(t, []string{"m3", "m4"}, r.ItemID, "already rated items must not be recommended")
	}
	for _, code := range engine.DefaultSubjectAreas {
		assert.Contains(t, b.DifficultyAdjustments, code)
	}
}

func TestRecommend_CountFlag(t *testing.T) {
	c := newCLI(t)
	c.seed()

	out, _, err := c.run("recommend", "ana", "--json", "--count", "1")
	require.NoError(t, err)

	var b engine.Bundle
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Len(t, b.ContentRecommendations, 1)
}

func TestRecommend_ZeroCountUsesDefault(t *testing.T) {
	c := newCLI(t)
	c.seed()

	out, _, err := c.run("recommend", "ana", "--json", "--count", "0")
	require.NoError(t, err)

	var b engine.Bundle
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.NotEmpty(t, b.ContentRecommendations)

	_, _, err = c.run("recommend", "ana", "--count", "-1")
	assert.Error(t, err)
}

func TestRecommend_Text(t *testing.T) {
	c := newCLI(t)
	c.seed()

	out, _, err := c.run("recommend", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "Study plan for ana")
	assert.Contains(t, out, "Learning path")
	assert.Contains(t, out, "Insights")
}

func TestRecommend_NoHistory(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run("recommend", "zoe", "--json")
	require.NoError(t, err)

	var b engine.Bundle
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Empty(t, b.LearningPath)
	assert.Equal(t, []string{engine.InsufficientDataInsight}, b.Insights)
}

func TestPredict_JSON(t *testing.T) {
	c := newCLI(t)
	c.seed()

	out, _, err := c.run("predict", "ana", "PK", "--json")
	require.NoError(t, err)

	var p predict.Prediction
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.False(t, p.Baseline)
	assert.Equal(t, "PK", p.SubjectArea)
	assert.Greater(t, p.PredictedAccuracy, 70.0)
}

func TestPredict_Baseline(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run("predict", "zoe", "PU", "--json", "--difficulty", "2")
	require.NoError(t, err)

	var p predict.Prediction
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.True(t, p.Baseline)
	assert.Equal(t, 70.0, p.PredictedAccuracy)
	assert.Equal(t, 2.0, p.RecommendedDifficulty)
}

func TestPredict_DifficultyOutOfRange(t *testing.T) {
	c := newCLI(t)
	_, _, err := c.run("predict", "ana", "PU", "--difficulty", "7")
	assert.Error(t, err)
}

func TestPredict_Text(t *testing.T) {
	c := newCLI(t)
	c.seed()

	out, _, err := c.run("predict", "ana", "PU")
	require.NoError(t, err)
	assert.Contains(t, out, "Predicted accuracy")
	assert.Contains(t, out, "Next difficulty")
}

func TestRate(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run("rate", "ana", "m9", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Rated m9 4.0 for ana.")

	_, _, err = c.run("rate", "ana", "m9", "6")
	assert.Error(t, err)

	_, _, err = c.run("rate", "ana", "m9", "lots")
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run("path", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "No practice history yet.")

	c.seed()
	out, _, err = c.run("path", "ana")
	require.NoError(t, err)
	assert.Equal(t, "1. PU\n2. LBI\n3. PK\n", out)
}

func TestStats(t *testing.T) {
	c := newCLI(t)
	c.seed()

	out, _, err := c.run("stats", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "Consistency")
	assert.Contains(t, out, "LBI")
}

func TestLLMCheck_Disabled(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run("llm", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "No LLM provider configured")
}

func TestLLMCheck_Mock(t *testing.T) {
	c := newCLI(t)
	t.Setenv("PREPCOACH_LLM_PROVIDER", "mock")

	out, _, err := c.run("llm", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "Provider:  mock")
	assert.Contains(t, out, "Model:     mock")
}

func TestInvalidLogLevel(t *testing.T) {
	c := newCLI(t)
	resetFlags(rootCmd)
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"--db", c.db, "--log-level", "loud", "version"})
	assert.Error(t, rootCmd.Execute())
}

func TestVersion(t *testing.T) {
	c := newCLI(t)
	out, _, err := c.run("version")
	require.NoError(t, err)
	assert.Equal(t, "prepcoach (devel)\n", out)
}
