package preferences

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Answer is one raw JSON survey answer. Its columns are jsonb on postgres and
// text elsewhere, so sqlite hands back the posted bytes instead of coercing
// numbers.
type Answer datatypes.JSON

func (a Answer) MarshalJSON() ([]byte, error) { return datatypes.JSON(a).MarshalJSON() }

func (a *Answer) UnmarshalJSON(b []byte) error { return (*datatypes.JSON)(a).UnmarshalJSON(b) }

func (a Answer) Value() (driver.Value, error) { return datatypes.JSON(a).Value() }

// Scan also accepts the numeric values sqlite returns for tables created with
// a JSON column type.
func (a *Answer) Scan(value interface{}) error {
	switch v := value.(type) {
	case int64:
		*a = Answer(strconv.FormatInt(v, 10))
		return nil
	case float64:
		*a = Answer(strconv.FormatFloat(v, 'g', -1, 64))
		return nil
	}
	return (*datatypes.JSON)(a).Scan(value)
}

func (Answer) GormDataType() string { return "json" }

func (Answer) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return answerColumnType(db.Dialector.Name())
}

func answerColumnType(dialect string) string {
	if dialect == "postgres" {
		return "JSONB"
	}
	return "TEXT"
}

// PreferenceRecord is one user's stored survey answers about how they study.
// The survey fields are raw JSON and are stored exactly as they were posted.
type PreferenceRecord struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	UserID           Answer    `gorm:"column:user_id" db:"user_id" json:"userId"`
	Languages        Answer    `db:"languages" json:"languages"`
	Importance       Answer    `db:"importance" json:"importance"`
	Location         Answer    `db:"location" json:"location"`
	EasilyDistracted Answer    `db:"easily_distracted" json:"easily_distracted"`
	StudyMethods     Answer    `db:"study_methods" json:"study_methods"`
	SpecialAttention Answer    `db:"special_attention" json:"special_attention"`
	TimeGoal         Answer    `db:"time_goal" json:"time_goal"`
	Reasons          Answer    `db:"reasons" json:"reasons"`
	Pronouns         Answer    `db:"pronouns" json:"pronouns"`
	Identity         Answer    `db:"identity" json:"identity"`
	CreatedAt        time.Time `gorm:"not null" db:"created_at" json:"created_at"`
}

func (PreferenceRecord) TableName() string { return "user_preferences" }

// CreatePreferencesRequest carries the survey answers accepted on POST.
// Keys outside these eleven are dropped during binding.
type CreatePreferencesRequest struct {
	UserID           Answer `json:"userId"`
	Languages        Answer `json:"languages"`
	Importance       Answer `json:"importance"`
	Location         Answer `json:"location"`
	EasilyDistracted Answer `json:"easily_distracted"`
	StudyMethods     Answer `json:"study_methods"`
	SpecialAttention Answer `json:"special_attention"`
	TimeGoal         Answer `json:"time_goal"`
	Reasons          Answer `json:"reasons"`
	Pronouns         Answer `json:"pronouns"`
	Identity         Answer `json:"identity"`
}

// ExportFormat names a rendering of the record listing
type ExportFormat string

const (
	ExportFormatCSV   ExportFormat = "csv"
	ExportFormatExcel ExportFormat = "xlsx"
	ExportFormatPDF   ExportFormat = "pdf"
)

// ExportResult is a rendered listing ready to be sent as an attachment
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// exportColumns is the column order shared by every export format.
var exportColumns = []string{
	"id", "userId", "languages", "importance", "location", "easily_distracted",
	"study_methods", "special_attention", "time_goal", "reasons", "pronouns",
	"identity", "created_at",
}

// nullJSON stands in for any survey field the client left out.
var nullJSON = Answer("null")

func orNull(v Answer) Answer {
	if len(v) == 0 {
		return nullJSON
	}
	return v
}

func (r *PreferenceRecord) fillNulls() {
	for _, field := range r.surveyFields() {
		*field = orNull(*field)
	}
}

func (r *PreferenceRecord) surveyFields() []*Answer {
	return []*Answer{
		&r.UserID, &r.Languages, &r.Importance, &r.Location, &r.EasilyDistracted,
		&r.StudyMethods, &r.SpecialAttention, &r.TimeGoal, &r.Reasons, &r.Pronouns,
		&r.Identity,
	}
}

func (r *PreferenceRecord) exportRow() map[string]interface{} {
	return map[string]interface{}{
		"id":                r.ID.String(),
		"userId":            cellText(r.UserID),
		"languages":         cellText(r.Languages),
		"importance":        cellText(r.Importance),
		"location":          cellText(r.Location),
		"easily_distracted": cellText(r.EasilyDistracted),
		"study_methods":     cellText(r.StudyMethods),
		"special_attention": cellText(r.SpecialAttention),
		"time_goal":         cellText(r.TimeGoal),
		"reasons":           cellText(r.Reasons),
		"pronouns":          cellText(r.Pronouns),
		"identity":          cellText(r.Identity),
		"created_at":        r.CreatedAt,
	}
}

// cellText flattens a raw JSON value for a table cell: null is empty,
// strings lose their quotes, everything else is compact JSON.
func cellText(v Answer) interface{} {
	raw := bytes.TrimSpace(v)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
