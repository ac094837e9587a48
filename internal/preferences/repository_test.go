package preferences

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newGormRepository(t *testing.T) *GormRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	repo := NewGormRepository(db)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func newSQLRepository(t *testing.T) *SQLRepository {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	repo := NewSQLRepository(db)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func sampleRecord(userID string) *PreferenceRecord {
	return &PreferenceRecord{
		ID:               uuid.New(),
		UserID:           Answer(`"` + userID + `"`),
		Languages:        Answer(`["en","nl"]`),
		Importance:       Answer(`5`),
		Location:         Answer(`{"city":"Utrecht"}`),
		EasilyDistracted: Answer(`true`),
		StudyMethods:     Answer(`["pomodoro"]`),
		SpecialAttention: Answer(`null`),
		TimeGoal:         Answer(`"2h"`),
		Reasons:          Answer(`["exams"]`),
		Pronouns:         Answer(`"she/her"`),
		Identity:         Answer(`null`),
		CreatedAt:        time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
	}
}

// repositoryContract runs the same behaviour checks against every store.
func repositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	t.Run("empty store", func(t *testing.T) {
		repo := newRepo(t)

		records, err := repo.FindMany(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("create then find", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first := sampleRecord("u1")
		second := sampleRecord("u2")
		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Create(ctx, second))

		records, err := repo.FindMany(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, first.ID, records[0].ID)
		assert.Equal(t, second.ID, records[1].ID)

		got := records[0]
		assert.JSONEq(t, `"u1"`, string(got.UserID))
		assert.JSONEq(t, `["en","nl"]`, string(got.Languages))
		assert.JSONEq(t, `5`, string(got.Importance))
		assert.JSONEq(t, `{"city":"Utrecht"}`, string(got.Location))
		assert.JSONEq(t, `true`, string(got.EasilyDistracted))
		assert.JSONEq(t, `null`, string(got.SpecialAttention))
		assert.JSONEq(t, `"she/her"`, string(got.Pronouns))
		assert.True(t, first.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("missing fields are stored as null", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		record := &PreferenceRecord{ID: uuid.New(), UserID: Answer(`"u3"`), CreatedAt: time.Now().UTC()}
		require.NoError(t, repo.Create(ctx, record))
		assert.Equal(t, "null", string(record.Languages))

		records, err := repo.FindMany(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.JSONEq(t, `null`, string(records[0].Languages))
		assert.JSONEq(t, `null`, string(records[0].Identity))
	})

	t.Run("numbers keep their posted text", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		record := sampleRecord("u4")
		record.UserID = Answer(`42`)
		record.Importance = Answer(`12345678901234567890`)
		record.TimeGoal = Answer(`1.50`)
		require.NoError(t, repo.Create(ctx, record))

		records, err := repo.FindMany(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "42", string(records[0].UserID))
		assert.Equal(t, "12345678901234567890", string(records[0].Importance))
		assert.Equal(t, "1.50", string(records[0].TimeGoal))
		assert.JSONEq(t, `["en","nl"]`, string(records[0].Languages))
	})

	t.Run("identical answers are not deduplicated", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for i := 0; i < 2; i++ {
			record := sampleRecord("u1")
			require.NoError(t, repo.Create(ctx, record))
		}

		records, err := repo.FindMany(ctx)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("duplicate id fails", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		record := sampleRecord("u1")
		require.NoError(t, repo.Create(ctx, record))

		dup := sampleRecord("u2")
		dup.ID = record.ID
		err := repo.Create(ctx, dup)
		assert.ErrorContains(t, err, "failed to create preferences")
	})
}

func TestGormRepository(t *testing.T) {
	repositoryContract(t, func(t *testing.T) Repository { return newGormRepository(t) })
}

func TestSQLRepository(t *testing.T) {
	repositoryContract(t, func(t *testing.T) Repository { return newSQLRepository(t) })
}

func TestSQLRepositoryEnsureSchemaIsIdempotent(t *testing.T) {
	repo := newSQLRepository(t)
	assert.NoError(t, repo.EnsureSchema(context.Background()))
}

func TestSQLRepositoryReadsNumericColumns(t *testing.T) {
	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	// JSON-declared columns have numeric affinity in sqlite.
	_, err = db.Exec(fmt.Sprintf(createTableSQL, "UUID", "JSON", "TIMESTAMP"))
	require.NoError(t, err)

	repo := NewSQLRepository(db)
	require.NoError(t, repo.Create(context.Background(), sampleRecord("u1")))

	records, err := repo.FindMany(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "5", string(records[0].Importance))
	assert.JSONEq(t, `"u1"`, string(records[0].UserID))
}

func columnTypes(t *testing.T, db *sqlx.DB) map[string]string {
	t.Helper()

	var columns []struct {
		CID     int            `db:"cid"`
		Name    string         `db:"name"`
		Type    string         `db:"type"`
		NotNull int            `db:"notnull"`
		Default sql.NullString `db:"dflt_value"`
		PK      int            `db:"pk"`
	}
	require.NoError(t, db.Select(&columns, "PRAGMA table_info(user_preferences)"))

	types := make(map[string]string, len(columns))
	for _, c := range columns {
		types[c.Name] = strings.ToUpper(c.Type)
	}
	return types
}

func TestBackendsAgreeOnSchema(t *testing.T) {
	gormRepo := newGormRepository(t)
	gormSQL, err := gormRepo.db.DB()
	require.NoError(t, err)
	fromGorm := columnTypes(t, sqlx.NewDb(gormSQL, "sqlite3"))

	fromSQLX := columnTypes(t, newSQLRepository(t).db)

	assert.Equal(t, "UUID", fromGorm["id"])
	assert.Equal(t, "UUID", fromSQLX["id"])
	for _, column := range []string{"user_id", "languages", "importance", "identity"} {
		assert.Equal(t, "TEXT", fromGorm[column], column)
		assert.Equal(t, "TEXT", fromSQLX[column], column)
	}
}

func TestAnswerColumnType(t *testing.T) {
	assert.Equal(t, "JSONB", answerColumnType("postgres"))
	assert.Equal(t, "TEXT", answerColumnType("sqlite"))
}

func TestAnswerScan(t *testing.T) {
	var a Answer
	require.NoError(t, a.Scan(int64(7)))
	assert.Equal(t, "7", string(a))

	require.NoError(t, a.Scan(2.5))
	assert.Equal(t, "2.5", string(a))

	require.NoError(t, a.Scan(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, string(a))

	require.NoError(t, a.Scan([]byte(`null`)))
	assert.Equal(t, "null", string(a))
}

func TestRepositoriesFailWithoutTable(t *testing.T) {
	ctx := context.Background()

	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = NewSQLRepository(db).FindMany(ctx)
	assert.ErrorContains(t, err, "failed to list preferences")

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	_, err = NewGormRepository(gdb).FindMany(ctx)
	assert.ErrorContains(t, err, "failed to list preferences")
}
