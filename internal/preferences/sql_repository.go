package preferences

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS user_preferences (
		id                %[1]s PRIMARY KEY,
		user_id           %[2]s,
		languages         %[2]s,
		importance        %[2]s,
		location          %[2]s,
		easily_distracted %[2]s,
		study_methods     %[2]s,
		special_attention %[2]s,
		time_goal         %[2]s,
		reasons           %[2]s,
		pronouns          %[2]s,
		identity          %[2]s,
		created_at        %[3]s NOT NULL
	)`

const insertSQL = `
	INSERT INTO user_preferences (
		id, user_id, languages, importance, location, easily_distracted,
		study_methods, special_attention, time_goal, reasons, pronouns,
		identity, created_at
	) VALUES (
		:id, :user_id, :languages, :importance, :location, :easily_distracted,
		:study_methods, :special_attention, :time_goal, :reasons, :pronouns,
		:identity, :created_at
	)`

const selectSQL = `
	SELECT id, user_id, languages, importance, location, easily_distracted,
		   study_methods, special_attention, time_goal, reasons, pronouns,
		   identity, created_at
	FROM user_preferences`

// SQLRepository implements Repository with hand-written SQL on sqlx.
// It works against postgres (lib/pq) and sqlite (go-sqlite3).
type SQLRepository struct {
	db *sqlx.DB
}

// NewSQLRepository creates a new sqlx-backed preference store
func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// EnsureSchema creates the user_preferences table when it does not exist
func (r *SQLRepository) EnsureSchema(ctx context.Context) error {
	timeType, dialect := "TIMESTAMP", "sqlite"
	if sqlx.BindType(r.db.DriverName()) == sqlx.DOLLAR {
		timeType, dialect = "TIMESTAMPTZ", "postgres"
	}

	ddl := fmt.Sprintf(createTableSQL, "UUID", answerColumnType(dialect), timeType)
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create preferences table: %w", err)
	}
	return nil
}

func (r *SQLRepository) FindMany(ctx context.Context) ([]PreferenceRecord, error) {
	records := []PreferenceRecord{}
	if err := r.db.SelectContext(ctx, &records, selectSQL); err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	return records, nil
}

func (r *SQLRepository) Create(ctx context.Context, record *PreferenceRecord) error {
	record.fillNulls()
	if _, err := r.db.NamedExecContext(ctx, insertSQL, record); err != nil {
		return fmt.Errorf("failed to create preferences: %w", err)
	}
	return nil
}
