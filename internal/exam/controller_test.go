package exam

import (
	"sync"
	"testing"
	"time"

	"github.com/learnflow/learnflow-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func webMidterm() *model.Assessment {
	return &model.Assessment{
		ID:              "1",
		CourseID:        "1",
		Title:           "Web Development Midterm",
		DurationMinutes: 60,
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
				ID:            "q3",
				Prompt:        "How do you declare a JavaScript variable?",
				Options:       []string{"variable myVar;", "var myVar;", "v myVar;", "declare myVar;"},
				CorrectOption: 1,
			},
		},
	}
}

// startManual starts a controller whose clock only moves when the test says so.
func startManual(t *testing.T, a *model.Assessment, opts ...Option) (*Controller, *ManualTicker) {
	t.Helper()
	ticker, factory := NewManualTicker()
	c := Start(a, append([]Option{WithTicker(factory)}, opts...)...)
	t.Cleanup(c.Close)
	return c, ticker
}

func TestStart_InitialState(t *testing.T) {
	c, ticker := startManual(t, webMidterm())

	snap := c.Snapshot()
	assert.Equal(t, StatusInProgress, snap.Status)
	assert.Equal(t, 3600, snap.RemainingSeconds)
	assert.Empty(t, snap.Answers)
	assert.Equal(t, 3, snap.TotalQuestions)
	assert.Nil(t, snap.Score)
	assert.False(t, ticker.Stopped())
}

func TestSubmit_UnansweredScoresZero(t *testing.T) {
	c, _ := startManual(t, webMidterm())

	res, err := c.Submit()
	require.NoError(t, err)

	assert.Equal(t, 0, res.Score)
	assert.False(t, res.Passed)
	for _, q := range res.Questions {
		assert.False(t, q.Correct)
		assert.Equal(t, Unanswered, q.Answer)
		assert.Nil(t, q.SelectedOption)
		assert.NotEmpty(t, q.CorrectAnswer)
	}
}

func TestSubmit_AllCorrectScoresHundred(t *testing.T) {
	a := webMidterm()
	c, _ := startManual(t, a)

	for _, q := range a.Questions {
		_, err := c.SelectAnswer(q.ID, q.CorrectOption)
		require.NoError(t, err)
	}

	res, err := c.Submit()
	require.NoError(t, err)
	assert.Equal(t, 100, res.Score)
	assert.True(t, res.Passed)
	assert.Equal(t, 3, res.CorrectCount)
	for _, q := range res.Questions {
		assert.True(t, q.Correct)
		assert.Empty(t, q.CorrectAnswer)
	}
}

func TestSubmit_PartialScoreIsRounded(t *testing.T) {
	c, _ := startManual(t, webMidterm())

	_, err := c.SelectAnswer("q1", 0)
	require.NoError(t, err)
	_, err = c.SelectAnswer("q2", 2)
	require.NoError(t, err)
	_, err = c.SelectAnswer("q3", 0)
	require.NoError(t, err)

	res, err := c.Submit()
	require.NoError(t, err)
	assert.Equal(t, 67, res.Score)
	assert.Equal(t, 2, res.CorrectCount)
	assert.False(t, res.Passed)

	wrong := res.Questions[2]
	assert.False(t, wrong.Correct)
	assert.Equal(t, "variable myVar;", wrong.Answer)
	assert.Equal(t, "var myVar;", wrong.CorrectAnswer)
}

func TestSubmit_Idempotent(t *testing.T) {
	var calls int
	c, ticker := startManual(t, webMidterm(), WithOnSubmit(func(*Result) { calls++ }))

	_, err := c.SelectAnswer("q1", 0)
	require.NoError(t, err)

	first, err := c.Submit()
	require.NoError(t, err)
	before := c.Snapshot()

	second, err := c.Submit()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, c.Snapshot())
	assert.Equal(t, 1, calls)
	assert.True(t, ticker.Stopped())
	assert.Equal(t, model.SubmitReasonManual, second.Reason)
}

func TestSelectAnswer_AfterSubmitFails(t *testing.T) {
	c, _ := startManual(t, webMidterm())

	_, err := c.SelectAnswer("q1", 1)
	require.NoError(t, err)
	_, err = c.Submit()
	require.NoError(t, err)

	_, err = c.SelectAnswer("q1", 0)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, map[string]int{"q1": 1}, c.Snapshot().Answers)
}

func TestSelectAnswer_UnknownQuestion(t *testing.T) {
	c, _ := startManual(t, webMidterm())

	_, err := c.SelectAnswer("q42", 0)
	assert.ErrorIs(t, err, ErrInvalidQuestion)

	_, err = c.SelectAnswer("q1", 4)
	assert.ErrorIs(t, err, ErrInvalidQuestion)

	_, err = c.SelectAnswer("q1", -1)
	assert.ErrorIs(t, err, ErrInvalidQuestion)

	assert.Empty(t, c.Snapshot().Answers)
}

func TestSelectAnswer_LastWriteWins(t *testing.T) {
	c, _ := startManual(t, webMidterm())

	_, err := c.SelectAnswer("q2", 0)
	require.NoError(t, err)
	snap, err := c.SelectAnswer("q2", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.AnsweredCount)

	res, err := c.Submit()
	require.NoError(t, err)
	assert.Equal(t, 1, res.CorrectCount)
	assert.Equal(t, 33, res.Score)
	assert.Equal(t, "color", res.Questions[1].Answer)
}

func TestTick_TimeoutSubmitsAutomatically(t *testing.T) {
	a := webMidterm()
	a.DurationMinutes = 1

	var submitted *Result
	c, ticker := startManual(t, a, WithOnSubmit(func(r *Result) { submitted = r }))

	_, err := c.SelectAnswer("q1", 0)
	require.NoError(t, err)

	for i := 0; i < 59; i++ {
		snap := c.Tick()
		require.Equal(t, StatusInProgress, snap.Status)
		require.Equal(t, 59-i, snap.RemainingSeconds)
	}

	snap := c.Tick()
	assert.Equal(t, StatusSubmitted, snap.Status)
	assert.Equal(t, 0, snap.RemainingSeconds)
	require.NotNil(t, snap.Score)
	assert.Equal(t, 33, *snap.Score)

	require.NotNil(t, submitted)
	assert.Equal(t, model.SubmitReasonTimeout, submitted.Reason)
	assert.True(t, ticker.Stopped())

	after := c.Tick()
	assert.Equal(t, 0, after.RemainingSeconds)
	assert.Equal(t, StatusSubmitted, after.Status)
}

func TestTick_DrivenByTicker(t *testing.T) {
	a := webMidterm()
	a.DurationMinutes = 1
	c, ticker := startManual(t, a)

	for i := 0; i < 60; i++ {
		require.True(t, ticker.Fire(), "tick %d not delivered", i)
	}

	require.Eventually(t, func() bool {
		return c.Snapshot().Status == StatusSubmitted
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, c.Snapshot().RemainingSeconds)
	assert.False(t, ticker.Fire())
}

func TestResult_BeforeSubmit(t *testing.T) {
	c, _ := startManual(t, webMidterm())

	_, err := c.Result()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestClose_ReleasesTickerWithoutScoring(t *testing.T) {
	var calls int
	c, ticker := startManual(t, webMidterm(), WithOnSubmit(func(*Result) { calls++ }))

	c.Close()

	assert.True(t, ticker.Stopped())
	assert.True(t, c.Done())
	assert.Equal(t, StatusInProgress, c.Snapshot().Status)

	_, err := c.Submit()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = c.SelectAnswer("q1", 0)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Zero(t, calls)

	c.Close()
}

func TestSubscribe_ReceivesUpdatesUntilSubmit(t *testing.T) {
	c, _ := startManual(t, webMidterm())

	feed, cancel := c.Subscribe()
	defer cancel()

	_, err := c.SelectAnswer("q1", 0)
	require.NoError(t, err)
	c.Tick()
	_, err = c.Submit()
	require.NoError(t, err)

	var got []Snapshot
	for snap := range feed {
		got = append(got, snap)
	}

	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].AnsweredCount)
	assert.Equal(t, 3599, got[1].RemainingSeconds)
	assert.Equal(t, StatusSubmitted, got[2].Status)

	late, _ := c.Subscribe()
	final, ok := <-late
	require.True(t, ok)
	assert.Equal(t, StatusSubmitted, final.Status)
	_, ok = <-late
	assert.False(t, ok)
}

func TestConcurrentSubmitAtZero(t *testing.T) {
	a := webMidterm()
	a.DurationMinutes = 1

	var mu sync.Mutex
	var calls int
	c, _ := startManual(t, a, WithOnSubmit(func(*Result) {
		mu.Lock()
		calls++
		mu.Unlock()
	}))

	for i := 0; i < 59; i++ {
		c.Tick()
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); c.Tick() }()
	go func() { defer wg.Done(); _, _ = c.Submit() }()
	wg.Wait()

	assert.Equal(t, 1, calls)
	assert.Equal(t, StatusSubmitted, c.Snapshot().Status)
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0, Score(0, 0))
	assert.Equal(t, 67, Score(2, 3))
	assert.Equal(t, 33, Score(1, 3))
	assert.Equal(t, 50, Score(1, 2))
	assert.Equal(t, 100, Score(4, 4))
}

func TestStatus_Text(t *testing.T) {
	b, err := StatusSubmitted.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "SUBMITTED", string(b))

	var s Status
	require.NoError(t, s.UnmarshalText([]byte("IN_PROGRESS")))
	assert.Equal(t, StatusInProgress, s)

	assert.Error(t, s.UnmarshalText([]byte("completed")))
	_, err = Status(9).MarshalText()
	assert.Error(t, err)
}
