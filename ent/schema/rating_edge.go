package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// RatingEdge is a learner's rating of a content item. There is at most one
// edge per learner and item; a new rating replaces the old one.
type RatingEdge struct {
	ent.Schema
}

func (RatingEdge) Mixin() []ent.Mixin {
	return []ent.Mixin{FactMixin{}}
}

func (RatingEdge) Fields() []ent.Field {
	return []ent.Field{
		field.String("learner_id").
			NotEmpty(),
		field.String("item_id").
			NotEmpty().
			Comment("Content item identifier"),
		field.Float("rating").
			Min(1).
			Max(5).
			Comment("1-5 affinity"),
	}
}

func (RatingEdge) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("learner_id", "item_id").Unique(),
		index.Fields("item_id"),
	}
}
