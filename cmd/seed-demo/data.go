package main

import (
	"time"

	"github.com/learnflow/learnflow-backend/internal/model"
)

const demoPassword = "123456"

var demoUsers = []model.User{
	{Email: "student@test.com", Name: "John Student", Role: model.RoleStudent},
	{Email: "teacher@test.com", Name: "Jane Teacher", Role: model.RoleTeacher},
	{Email: "admin@test.com", Name: "Admin User", Role: model.RoleAdmin},
}

func demoAssessments() []*model.Assessment {
	midterm := time.Date(2024, 12, 28, 10, 0, 0, 0, time.UTC)
	react := time.Date(2025, 1, 5, 14, 0, 0, 0, time.UTC)

	return []*model.Assessment{
		{
			ID:              "1",
			CourseID:        "1",
			Title:           "Web Development Midterm",
			Description:     "Test your knowledge of HTML, CSS, and JavaScript basics",
			DurationMinutes: 60,
			StartDate:       &midterm,
			Questions: []model.Question{
				{
					ID:     "q1",
					Prompt: "What does HTML stand for?",
					Options: []string{
						"HyperText Markup Language",
						"High Tech Modern Language",
						"Home Tool Markup Language",
						"Hyperlink and Text Markup Language",
					},
					CorrectOption: 0,
				},
				{
					ID:            "q2",
					Prompt:        "Which CSS property is used to change the text color?",
					Options:       []string{"font-color", "text-color", "color", "text-style"},
					CorrectOption: 2,
				},
				{
					ID:     "q3",
					Prompt: "How do you declare a JavaScript variable?",
					Options: []string{
						"variable myVar;",
						"var myVar;",
						"v myVar;",
						"declare myVar;",
					},
					CorrectOption: 1,
				},
			},
		},
		{
			ID:              "2",
			CourseID:        "2",
			Title:           "React Advanced Concepts",
			Description:     "Assessment on React hooks, context, and performance",
			DurationMinutes: 90,
			StartDate:       &react,
			Questions: []model.Question{
				{
					ID:     "q1",
					Prompt: "What is the purpose of useEffect hook?",
					Options: []string{
						"To manage component state",
						"To perform side effects in functional components",
						"To create reusable logic",
						"To handle events",
					},
					CorrectOption: 1,
				},
			},
		},
	}
}
