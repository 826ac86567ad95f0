package store

import (
	"context"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// UsersColumns holds the columns for the "users" table.
	UsersColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeInt64},
		{Name: "display_name", Type: field.TypeString, Default: ""},
		{Name: "grade", Type: field.TypeInt, Default: 9},
		{Name: "streak_count", Type: field.TypeInt, Default: 0},
		{Name: "last_activity", Type: field.TypeTime, Nullable: true},
		{Name: "total_xp", Type: field.TypeInt, Default: 0},
		{Name: "weekly_xp", Type: field.TypeInt, Default: 0},
		{Name: "week_start", Type: field.TypeTime, Nullable: true},
		{Name: "level", Type: field.TypeInt, Default: 1},
		{Name: "created_at", Type: field.TypeTime},
	}
	// UsersTable holds the schema information for the "users" table.
	UsersTable = &schema.Table{
		Name:       "users",
		Columns:    UsersColumns,
		PrimaryKey: []*schema.Column{UsersColumns[0]},
		Indexes: []*schema.Index{
			{Name: "users_total_xp", Columns: []*schema.Column{UsersColumns[5]}},
			{Name: "users_week_start_weekly_xp", Columns: []*schema.Column{UsersColumns[7], UsersColumns[6]}},
		},
	}

	// ProgressColumns holds the columns for the "user_progress" table.
	ProgressColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeInt64},
		{Name: "unit_id", Type: field.TypeString},
		{Name: "subject", Type: field.TypeString},
		{Name: "grade", Type: field.TypeInt},
		{Name: "current_phase", Type: field.TypeString, Default: "BASELINE"},
		{Name: "baseline_accuracy", Type: field.TypeFloat64, Default: 0},
		{Name: "balanced_accuracy", Type: field.TypeFloat64, Default: 0},
		{Name: "exam_accuracy", Type: field.TypeFloat64, Default: 0},
		{Name: "questions_attempted", Type: field.TypeInt, Default: 0},
		{Name: "questions_correct", Type: field.TypeInt, Default: 0},
		{Name: "completion_percent", Type: field.TypeFloat64, Default: 0},
		{Name: "unlocked_balanced", Type: field.TypeBool, Default: false},
		{Name: "unlocked_exam", Type: field.TypeBool, Default: false},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// ProgressTable holds the schema information for the "user_progress" table.
	ProgressTable = &schema.Table{
		Name:       "user_progress",
		Columns:    ProgressColumns,
		PrimaryKey: []*schema.Column{ProgressColumns[0], ProgressColumns[1]},
	}

	// SessionsColumns holds the columns for the "user_sessions" table.
	SessionsColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeInt64},
		{Name: "current_screen", Type: field.TypeString},
		{Name: "current_param", Type: field.TypeString, Default: ""},
		{Name: "nav_stack", Type: field.TypeString, Size: 4096, Default: "[]"},
		{Name: "last_message_id", Type: field.TypeInt64, Default: 0},
		{Name: "quiz_state", Type: field.TypeString, Size: 1 << 20, Nullable: true},
		{Name: "game_setup", Type: field.TypeString, Nullable: true},
		{Name: "version", Type: field.TypeInt64, Default: 1},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// SessionsTable holds the schema information for the "user_sessions" table.
	SessionsTable = &schema.Table{
		Name:       "user_sessions",
		Columns:    SessionsColumns,
		PrimaryKey: []*schema.Column{SessionsColumns[0]},
	}

	// ReviewItemsColumns holds the columns for the "review_items" table.
	ReviewItemsColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeInt64},
		{Name: "question_id", Type: field.TypeString},
		{Name: "status", Type: field.TypeString},
		{Name: "subject", Type: field.TypeString, Default: ""},
		{Name: "grade", Type: field.TypeInt, Default: 0},
		{Name: "unit", Type: field.TypeString, Default: ""},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// ReviewItemsTable holds the schema information for the "review_items" table.
	ReviewItemsTable = &schema.Table{
		Name:       "review_items",
		Columns:    ReviewItemsColumns,
		PrimaryKey: []*schema.Column{ReviewItemsColumns[0], ReviewItemsColumns[1]},
		Indexes: []*schema.Index{
			{Name: "review_items_user_id_status", Columns: []*schema.Column{ReviewItemsColumns[0], ReviewItemsColumns[2]}},
		},
	}

	// LocksColumns holds the columns for the "system_locks" table.
	LocksColumns = []*schema.Column{
		{Name: "lock_type", Type: field.TypeString},
		{Name: "target", Type: field.TypeString},
		{Name: "is_locked", Type: field.TypeBool, Default: true},
		{Name: "locked_by", Type: field.TypeInt64, Default: 0},
		{Name: "locked_at", Type: field.TypeTime},
		{Name: "reason", Type: field.TypeString, Default: ""},
	}
	// LocksTable holds the schema information for the "system_locks" table.
	LocksTable = &schema.Table{
		Name:       "system_locks",
		Columns:    LocksColumns,
		PrimaryKey: []*schema.Column{LocksColumns[0], LocksColumns[1]},
	}

	// ChallengesColumns holds the columns for the "challenges" table.
	ChallengesColumns = []*schema.Column{
		{Name: "challenge_id", Type: field.TypeString},
		{Name: "creator_id", Type: field.TypeInt64},
		{Name: "subject", Type: field.TypeString},
		{Name: "grade", Type: field.TypeInt},
		{Name: "questions", Type: field.TypeString, Size: 1 << 20},
		{Name: "created_at", Type: field.TypeTime},
	}
	// ChallengesTable holds the schema information for the "challenges" table.
	ChallengesTable = &schema.Table{
		Name:       "challenges",
		Columns:    ChallengesColumns,
		PrimaryKey: []*schema.Column{ChallengesColumns[0]},
	}

	// FlagsColumns holds the columns for the "flagged_questions" table.
	FlagsColumns = []*schema.Column{
		{Name: "question_id", Type: field.TypeString},
		{Name: "flag_count", Type: field.TypeInt, Default: 0},
		{Name: "reasons", Type: field.TypeString, Size: 65536, Default: "[]"},
		{Name: "last_flagged_by", Type: field.TypeInt64, Default: 0},
		{Name: "last_flagged", Type: field.TypeTime},
	}
	// FlagsTable holds the schema information for the "flagged_questions" table.
	FlagsTable = &schema.Table{
		Name:       "flagged_questions",
		Columns:    FlagsColumns,
		PrimaryKey: []*schema.Column{FlagsColumns[0]},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		UsersTable,
		ProgressTable,
		SessionsTable,
		ReviewItemsTable,
		LocksTable,
		ChallengesTable,
		FlagsTable,
	}
)

// migrate creates missing tables, columns and indexes.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv, schema.WithForeignKeys(false))
	if err != nil {
		return err
	}
	return m.Create(ctx, Tables...)
}
