package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"entgo.io/ent/schema/mixin"
)

// FactMixin provides the base fields shared by every stored fact: a global
// sequence for insertion order and the time the fact was observed.
type FactMixin struct {
	mixin.Schema
}

func (FactMixin) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("sequence").
			Unique().
			Comment("Monotonically increasing global sequence number"),
		field.Time("observed_at").
			Default(time.Now).
			Comment("UTC time the fact was observed"),
	}
}

func (FactMixin) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("observed_at"),
	}
}
