package exam

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_RemainingNeverIncreases(t *testing.T) {
	a := webMidterm()
	a.DurationMinutes = 2
	s := NewSession(a, time.Now())

	last := s.Remaining()
	for i := 0; i < 200; i++ {
		s.tick()
		require.LessOrEqual(t, s.Remaining(), last)
		require.GreaterOrEqual(t, s.Remaining(), 0)
		last = s.Remaining()
	}
}

func TestSession_SubmitFreezesAnswers(t *testing.T) {
	s := NewSession(webMidterm(), time.Now())
	require.NoError(t, s.selectAnswer("q2", 2))

	assert.True(t, s.submit("MANUAL", time.Now()))
	assert.False(t, s.submit("TIMEOUT", time.Now()))

	res, err := s.result()
	require.NoError(t, err)
	assert.Equal(t, "MANUAL", string(res.Reason))
	assert.Equal(t, map[string]int{"q2": 2}, res.Answers())
}

func TestSnapshot_JSON(t *testing.T) {
	s := NewSession(webMidterm(), time.Now())
	require.NoError(t, s.selectAnswer("q1", 3))

	raw, err := json.Marshal(s.snapshot())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "IN_PROGRESS", decoded["status"])
	assert.EqualValues(t, 3600, decoded["remaining_seconds"])
	assert.NotContains(t, decoded, "score")
}
