package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table definitions in the shape ent's migrator expects. They mirror the
// declarations in ent/schema; TestTablesMatchEntSchema keeps the two in step.
var (
	performanceRecordsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "observed_at", Type: field.TypeTime},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "subject_area", Type: field.TypeString},
		{Name: "accuracy", Type: field.TypeFloat64},
		{Name: "time_spent_seconds", Type: field.TypeFloat64},
		{Name: "difficulty", Type: field.TypeFloat64},
		{Name: "attempts", Type: field.TypeInt},
	}
	performanceRecordsTable = &schema.Table{
		Name:       tablePerformanceRecords,
		Columns:    performanceRecordsColumns,
		PrimaryKey: []*schema.Column{performanceRecordsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "performancerecord_observed_at",
				Columns: []*schema.Column{performanceRecordsColumns[2]},
			},
			{
				Name:    "performancerecord_learner_id_observed_at",
				Columns: []*schema.Column{performanceRecordsColumns[3], performanceRecordsColumns[2]},
			},
			{
				Name:    "performancerecord_subject_area",
				Columns: []*schema.Column{performanceRecordsColumns[4]},
			},
		},
	}

	ratingEdgesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "observed_at", Type: field.TypeTime},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "item_id", Type: field.TypeString},
		{Name: "rating", Type: field.TypeFloat64},
	}
	ratingEdgesTable = &schema.Table{
		Name:       tableRatingEdges,
		Columns:    ratingEdgesColumns,
		PrimaryKey: []*schema.Column{ratingEdgesColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "ratingedge_observed_at",
				Columns: []*schema.Column{ratingEdgesColumns[2]},
			},
			{
				Name:    "ratingedge_learner_id_item_id",
				Unique:  true,
				Columns: []*schema.Column{ratingEdgesColumns[3], ratingEdgesColumns[4]},
			},
			{
				Name:    "ratingedge_item_id",
				Columns: []*schema.Column{ratingEdgesColumns[4]},
			},
		},
	}

	tables = []*schema.Table{performanceRecordsTable, ratingEdgesTable}
)

const (
	tablePerformanceRecords = "performance_records"
	tableRatingEdges        = "rating_edges"
)

// migrate creates or upgrades the fact tables.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
