package main

import (
	"testing"

	"github.com/learnflow/learnflow-backend/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestDemoAssessmentsAreValid(t *testing.T) {
	for _, a := range demoAssessments() {
		assert.NoError(t, service.ValidateAssessment(a), a.ID)
	}
}

func TestDemoUsersCoverEveryRole(t *testing.T) {
	seen := map[string]bool{}
	for _, u := range demoUsers {
		assert.True(t, u.Role.Valid(), u.Email)
		seen[string(u.Role)] = true
	}
	assert.Len(t, seen, 3)
}
