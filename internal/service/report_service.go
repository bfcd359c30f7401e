package service

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/learnflow/learnflow-backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const resultsSheet = "Results"

// ReportService builds grade reports from persisted attempts.
type ReportService struct {
	assessments AssessmentSource
	attempts    AttemptStore
	log         zerolog.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(assessments AssessmentSource, attempts AttemptStore, log zerolog.Logger) *ReportService {
	return &ReportService{
		assessments: assessments,
		attempts:    attempts,
		log:         log.With().Str("component", "report_service").Logger(),
	}
}

// AssessmentReport is every attempt at one assessment plus summary figures.
type AssessmentReport struct {
	AssessmentID string          `json:"assessment_id"`
	Title        string          `json:"title"`
	Attempts     []model.Attempt `json:"attempts"`
	AttemptCount int             `json:"attempt_count"`
	PassedCount  int             `json:"passed_count"`
	AverageScore int             `json:"average_score"`
}

// Results gathers the report for an assessment.
func (s *ReportService) Results(ctx context.Context, assessmentID string) (*AssessmentReport, error) {
	a, err := s.assessments.Get(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	attempts, err := s.attempts.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}

	report := &AssessmentReport{
		AssessmentID: a.ID,
		Title:        a.Title,
		Attempts:     attempts,
		AttemptCount: len(attempts),
	}
	total := 0
	for _, at := range attempts {
		total += at.Score
		if at.Passed {
			report.PassedCount++
		}
	}
	if len(attempts) > 0 {
		report.AverageScore = int(math.Round(float64(total) / float64(len(attempts))))
	}
	return report, nil
}

// ExportXLSX writes the report as a single-sheet workbook.
func (s *ReportService) ExportXLSX(ctx context.Context, assessmentID string, w io.Writer) error {
	report, err := s.Results(ctx, assessmentID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to close workbook")
		}
	}()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := []any{"Student", "User ID", "Score", "Passed", "Correct", "Total", "Reason", "Submitted At"}
	if err := f.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	if err := f.SetCellStyle(resultsSheet, "A1", "H1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, at := range report.Attempts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			at.UserName,
			at.UserID,
			at.Score,
			passLabel(at.Passed),
			at.CorrectCount,
			at.TotalQuestions,
			string(at.Reason),
			at.SubmittedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := f.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(resultsSheet, "A", "A", 28)
	_ = f.SetColWidth(resultsSheet, "H", "H", 22)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	s.log.Info().
		Str("assessment_id", assessmentID).
		Int("rows", len(report.Attempts)).
		Msg("Results exported")
	return nil
}

func passLabel(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}
