package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/learnflow/learnflow-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newReportFixture(t *testing.T) *ReportService {
	t.Helper()
	_, rdb := newTestRedis(t)
	submitted := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	attempts := &fakeAttemptStore{attempts: []model.Attempt{
		{ID: uuid.New(), AssessmentID: "1", UserID: 1, UserName: "John Student", Score: 67, Passed: false,
			CorrectCount: 2, TotalQuestions: 3, Reason: model.SubmitReasonManual, SubmittedAt: submitted},
		{ID: uuid.New(), AssessmentID: "1", UserID: 4, UserName: "Mary Student", Score: 100, Passed: true,
			CorrectCount: 3, TotalQuestions: 3, Reason: model.SubmitReasonTimeout, SubmittedAt: submitted},
		{ID: uuid.New(), AssessmentID: "2", UserID: 1, UserName: "John Student", Score: 100, Passed: true,
			CorrectCount: 1, TotalQuestions: 1, Reason: model.SubmitReasonManual, SubmittedAt: submitted},
	}}
	assessments := NewAssessmentService(newFakeAssessmentStore(webMidterm(), reactAdvanced()), rdb, 0, nopLog)
	return NewReportService(assessments, attempts, nopLog)
}

func TestReportResults(t *testing.T) {
	svc := newReportFixture(t)

	report, err := svc.Results(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, "Web Development Midterm", report.Title)
	assert.Equal(t, 2, report.AttemptCount)
	assert.Equal(t, 1, report.PassedCount)
	assert.Equal(t, 84, report.AverageScore)
}

func TestReportResults_NoAttempts(t *testing.T) {
	_, rdb := newTestRedis(t)
	assessments := NewAssessmentService(newFakeAssessmentStore(webMidterm()), rdb, 0, nopLog)
	svc := NewReportService(assessments, &fakeAttemptStore{}, nopLog)

	report, err := svc.Results(context.Background(), "1")
	require.NoError(t, err)
	assert.NotNil(t, report.Attempts)
	assert.Zero(t, report.AverageScore)
}

func TestReportResults_UnknownAssessment(t *testing.T) {
	svc := newReportFixture(t)

	_, err := svc.Results(context.Background(), "404")
	assert.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestExportXLSX(t *testing.T) {
	svc := newReportFixture(t)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportXLSX(context.Background(), "1", &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(resultsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Student", "User ID", "Score", "Passed", "Correct", "Total", "Reason", "Submitted At"}, rows[0])
	assert.Equal(t, []string{"John Student", "1", "67", "FAIL", "2", "3", "MANUAL", "2026-03-15 10:00:00"}, rows[1])
	assert.Equal(t, "Mary Student", rows[2][0])
	assert.Equal(t, "TIMEOUT", rows[2][6])
}
