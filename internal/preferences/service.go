package preferences

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"study-buddy/preferences-backend/internal/preferences/export"
)

// ErrUnsupportedFormat is returned for an export format the service cannot render
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Service provides preference business logic
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new preferences service
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// ListPreferences returns every stored record, unfiltered
func (s *Service) ListPreferences(ctx context.Context) ([]PreferenceRecord, error) {
	records, err := s.repo.FindMany(ctx)
	if err != nil {
		s.logger.Error("Failed to list preferences", zap.Error(err))
		return nil, err
	}
	if records == nil {
		records = []PreferenceRecord{}
	}

	s.logger.Debug("Listed preferences", zap.Int("count", len(records)))
	return records, nil
}

// CreatePreferences shapes the request into a new record and stores it.
// Nothing is validated and identical requests produce separate records.
func (s *Service) CreatePreferences(ctx context.Context, req *CreatePreferencesRequest) (*PreferenceRecord, error) {
	record := &PreferenceRecord{
		ID:               uuid.New(),
		UserID:           orNull(req.UserID),
		Languages:        orNull(req.Languages),
		Importance:       orNull(req.Importance),
		Location:         orNull(req.Location),
		EasilyDistracted: orNull(req.EasilyDistracted),
		StudyMethods:     orNull(req.StudyMethods),
		SpecialAttention: orNull(req.SpecialAttention),
		TimeGoal:         orNull(req.TimeGoal),
		Reasons:          orNull(req.Reasons),
		Pronouns:         orNull(req.Pronouns),
		Identity:         orNull(req.Identity),
		CreatedAt:        s.now().UTC(),
	}

	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Error("Failed to create preferences", zap.Error(err))
		return nil, err
	}

	s.logger.Debug("Created preferences", zap.String("id", record.ID.String()))
	return record, nil
}

// ExportPreferences renders every stored record in the requested format
func (s *Service) ExportPreferences(ctx context.Context, format ExportFormat) (*ExportResult, error) {
	switch format {
	case ExportFormatCSV, ExportFormatExcel, ExportFormatPDF:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	records, err := s.ListPreferences(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]interface{}, len(records))
	for i := range records {
		rows[i] = records[i].exportRow()
	}

	generatedAt := s.now()
	base := fmt.Sprintf("preferences_%s", generatedAt.Format("20060102_150405"))

	var buf bytes.Buffer
	result := &ExportResult{}

	switch format {
	case ExportFormatCSV:
		exporter := export.NewCSVExporter(&buf, export.DefaultCSVOptions())
		if err := exporter.WriteMapRows(rows, exportColumns); err != nil {
			return nil, fmt.Errorf("failed to export csv: %w", err)
		}
		if err := exporter.Flush(); err != nil {
			return nil, fmt.Errorf("failed to export csv: %w", err)
		}
		result.Filename = base + ".csv"
		result.ContentType = "text/csv"

	case ExportFormatExcel:
		exporter := export.NewExcelExporter(export.DefaultExcelOptions())
		defer exporter.Close()
		if err := exporter.WriteRows(rows, exportColumns); err != nil {
			return nil, fmt.Errorf("failed to export excel: %w", err)
		}
		if err := exporter.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("failed to export excel: %w", err)
		}
		result.Filename = base + ".xlsx"
		result.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	case ExportFormatPDF:
		options := export.DefaultPDFOptions()
		options.GeneratedAt = generatedAt
		generator := export.NewPDFGenerator(options)
		if err := generator.WriteTable(rows, exportColumns); err != nil {
			return nil, fmt.Errorf("failed to export pdf: %w", err)
		}
		if err := generator.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("failed to export pdf: %w", err)
		}
		result.Filename = base + ".pdf"
		result.ContentType = "application/pdf"
	}

	s.logger.Info("Exported preferences",
		zap.String("format", string(format)),
		zap.Int("records", len(records)),
	)

	result.Data = buf.Bytes()
	return result, nil
}
