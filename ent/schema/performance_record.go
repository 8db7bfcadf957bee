package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// PerformanceRecord is one scored result of a learner in a subject area.
type PerformanceRecord struct {
	ent.Schema
}

func (PerformanceRecord) Mixin() []ent.Mixin {
	return []ent.Mixin{FactMixin{}}
}

func (PerformanceRecord) Fields() []ent.Field {
	return []ent.Field{
		field.String("learner_id").
			NotEmpty().
			Comment("Learner the result belongs to"),
		field.String("subject_area").
			NotEmpty().
			Comment("Subject area code, e.g. PU or PK"),
		field.Float("accuracy").
			Min(0).
			Max(100).
			Comment("Percent correct"),
		field.Float("time_spent_seconds").
			Min(0).
			Comment("Average seconds per item"),
		field.Float("difficulty").
			Min(1).
			Max(5).
			Comment("Difficulty level the items were served at"),
		field.Int("attempts").
			NonNegative().
			Comment("Attempts taken"),
	}
}

func (PerformanceRecord) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("learner_id", "observed_at"),
		index.Fields("subject_area"),
	}
}
