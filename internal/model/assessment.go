package model

import "time"

// PassThreshold is the minimum score (percent) counted as a pass.
const PassThreshold = 70

// Assessment is a fixed set of scored multiple-choice questions with a time limit.
type Assessment struct {
	ID              string     `json:"id"`
	CourseID        string     `json:"course_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DurationMinutes int        `json:"duration_minutes"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	Questions       []Question `json:"questions"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Question is a single multiple-choice question.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
}

// HasQuestion reports whether the assessment contains the question id.
func (a *Assessment) HasQuestion(id string) bool {
	_, ok := a.Question(id)
	return ok
}

// Question looks up a question by id.
func (a *Assessment) Question(id string) (*Question, bool) {
	for i := range a.Questions {
		if a.Questions[i].ID == id {
			return &a.Questions[i], true
		}
	}
	return nil, false
}

// Paper strips correct answers so the assessment can be shown to a student.
func (a *Assessment) Paper() AssessmentPaper {
	questions := make([]QuestionForStudent, len(a.Questions))
	for i, q := range a.Questions {
		questions[i] = QuestionForStudent{
			ID:       q.ID,
			Prompt:   q.Prompt,
			Options:  q.Options,
			OrderNum: i + 1,
		}
	}
	return AssessmentPaper{
		AssessmentID:    a.ID,
		Title:           a.Title,
		DurationMinutes: a.DurationMinutes,
		Questions:       questions,
	}
}

// AssessmentPaper is the student-facing view of an assessment (no answers).
type AssessmentPaper struct {
	AssessmentID    string               `json:"assessment_id"`
	Title           string               `json:"title"`
	DurationMinutes int                  `json:"duration_minutes"`
	Questions       []QuestionForStudent `json:"questions"`
}

// QuestionForStudent is a question without its correct option.
type QuestionForStudent struct {
	ID       string   `json:"id"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
	OrderNum int      `json:"order_num"`
}

// CreateAssessmentRequest is the payload for creating a new assessment.
type CreateAssessmentRequest struct {
	ID              string                  `json:"id" binding:"required,min=1,max=64"`
	CourseID        string                  `json:"course_id" binding:"omitempty,max=64"`
	Title           string                  `json:"title" binding:"required,min=3,max=255"`
	Description     string                  `json:"description" binding:"omitempty,max=2000"`
	DurationMinutes int                     `json:"duration_minutes" binding:"required,min=1,max=480"`
	StartDate       *time.Time              `json:"start_date" binding:"omitempty"`
	Questions       []CreateQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

// CreateQuestionRequest is one question inside CreateAssessmentRequest.
type CreateQuestionRequest struct {
	ID            string   `json:"id" binding:"required,min=1,max=64"`
	Prompt        string   `json:"prompt" binding:"required,min=1,max=2000"`
	Options       []string `json:"options" binding:"required,min=2,max=10,dive,required"`
	CorrectOption *int     `json:"correct_option" binding:"required,min=0"`
}

// ToAssessment converts the request into a domain value.
func (r *CreateAssessmentRequest) ToAssessment() *Assessment {
	questions := make([]Question, len(r.Questions))
	for i, q := range r.Questions {
		questions[i] = Question{
			ID:            q.ID,
			Prompt:        q.Prompt,
			Options:       q.Options,
			CorrectOption: *q.CorrectOption,
		}
	}
	return &Assessment{
		ID:              r.ID,
		CourseID:        r.CourseID,
		Title:           r.Title,
		Description:     r.Description,
		DurationMinutes: r.DurationMinutes,
		StartDate:       r.StartDate,
		Questions:       questions,
	}
}
