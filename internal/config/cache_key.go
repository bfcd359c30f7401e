package config

import "fmt"

type CacheKeyStruct struct{}

// LoginSessionKey holds the JWT id of a user's current login.
func (CacheKeyStruct) LoginSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// AssessmentPayloadKey holds the full assessment (answer key included).
// Never served to students as-is.
func (CacheKeyStruct) AssessmentPayloadKey(assessmentID string) string {
	return fmt.Sprintf("assessment:%s:payload", assessmentID)
}

// AssessmentIndexKey is the set of cached assessment ids.
func (CacheKeyStruct) AssessmentIndexKey() string {
	return "assessment:index"
}

// RateLimitKey counts requests from one client within the current window.
func (CacheKeyStruct) RateLimitKey(scope, clientIP string) string {
	return fmt.Sprintf("ratelimit:%s:%s", scope, clientIP)
}

var CacheKey = CacheKeyStruct{}
