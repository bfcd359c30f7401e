package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole(t *testing.T) {
	tests := []struct {
		role  Role
		valid bool
		path  string
	}{
		{RoleStudent, true, "/student/dashboard"},
		{RoleTeacher, true, "/teacher/dashboard"},
		{RoleAdmin, true, "/admin/dashboard"},
		{Role("Student"), false, "/auth"},
		{Role(""), false, "/auth"},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.role.Valid())
			assert.Equal(t, tt.path, tt.role.DashboardPath())
		})
	}
}

func TestAssessmentPaperHidesAnswers(t *testing.T) {
	a := &Assessment{
		ID:              "1",
		Title:           "Web Development Midterm",
		DurationMinutes: 60,
		Questions: []Question{
			{ID: "q1", Prompt: "What does HTML stand for?", Options: []string{"a", "b"}, CorrectOption: 0},
			{ID: "q2", Prompt: "Which CSS property changes text color?", Options: []string{"a", "b", "c"}, CorrectOption: 2},
		},
	}

	paper := a.Paper()
	require.Len(t, paper.Questions, 2)
	assert.Equal(t, 2, paper.Questions[1].OrderNum)

	raw, err := json.Marshal(paper)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "correct_option")
}

func TestAssessmentQuestionLookup(t *testing.T) {
	a := &Assessment{Questions: []Question{{ID: "q1"}, {ID: "q2"}}}

	q, ok := a.Question("q2")
	require.True(t, ok)
	assert.Equal(t, "q2", q.ID)
	assert.True(t, a.HasQuestion("q1"))
	assert.False(t, a.HasQuestion("q3"))
}

func TestCreateAssessmentRequest_ToAssessment(t *testing.T) {
	one := 1
	req := CreateAssessmentRequest{
		ID:              "react",
		Title:           "React Advanced Concepts",
		DurationMinutes: 90,
		Questions: []CreateQuestionRequest{
			{ID: "q1", Prompt: "useEffect?", Options: []string{"state", "side effects"}, CorrectOption: &one},
		},
	}

	a := req.ToAssessment()
	assert.Equal(t, "react", a.ID)
	assert.Equal(t, 90, a.DurationMinutes)
	require.Len(t, a.Questions, 1)
	assert.Equal(t, 1, a.Questions[0].CorrectOption)
}
