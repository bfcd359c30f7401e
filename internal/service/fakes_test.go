package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/learnflow/learnflow-backend/internal/config"
	"github.com/learnflow/learnflow-backend/internal/exam"
	"github.com/learnflow/learnflow-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		JWTExpiry:          time.Hour,
		BcryptCost:         4,
		TickInterval:       time.Second,
		SessionRetention:   30 * time.Minute,
		AssessmentCacheTTL: time.Hour,
	}
}

var nopLog = zerolog.Nop()

func webMidterm() *model.Assessment {
	start := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	return &model.Assessment{
		ID:              "1",
		CourseID:        "1",
		Title:           "Web Development Midterm",
		Description:     "Covers HTML, CSS, and JavaScript fundamentals",
		DurationMinutes: 60,
		StartDate:       &start,
		Questions: []model.Question{
			{ID: "q1", Prompt: "What does HTML stand for?", Options: []string{
				"HyperText Markup Language", "High Tech Modern Language",
				"Home Tool Markup Language", "Hyperlink and Text Markup Language",
			}, CorrectOption: 0},
			{ID: "q2", Prompt: "Which CSS property is used to change the text color?",
				Options: []string{"font-color", "text-color", "color", "text-style"}, CorrectOption: 2},
			{ID: "q3", Prompt: "How do you declare a JavaScript variable?",
				Options: []string{"variable myVar;", "var myVar;", "v myVar;", "declare myVar;"}, CorrectOption: 1},
		},
	}
}

func reactAdvanced() *model.Assessment {
	return &model.Assessment{
		ID:              "2",
		CourseID:        "2",
		Title:           "React Advanced Concepts",
		DurationMinutes: 90,
		Questions: []model.Question{
			{ID: "q1", Prompt: "What is the purpose of useEffect?", Options: []string{
				"To manage state", "To handle side effects",
				"To create components", "To style components",
			}, CorrectOption: 1},
		},
	}
}

// ─── Stores ─────────────────────────────────────────────────────────

type fakeUserStore struct {
	users map[string]*model.User
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := f.users[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserStore) GetByID(_ context.Context, id int) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeAssessmentStore struct {
	mu        sync.Mutex
	items     map[string]*model.Assessment
	getCalls  int
	createErr error
}

func newFakeAssessmentStore(list ...*model.Assessment) *fakeAssessmentStore {
	f := &fakeAssessmentStore{items: make(map[string]*model.Assessment)}
	for _, a := range list {
		f.items[a.ID] = a
	}
	return f
}

func (f *fakeAssessmentStore) GetByID(_ context.Context, id string) (*model.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if a, ok := f.items[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAssessmentStore) List(_ context.Context) ([]model.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Assessment, 0, len(f.items))
	for _, a := range f.items {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAssessmentStore) Create(_ context.Context, a *model.Assessment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.items[a.ID] = a
	return nil
}

func (f *fakeAssessmentStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

type fakeAttemptStore struct {
	attempts []model.Attempt
}

func (f *fakeAttemptStore) ListByUser(_ context.Context, userID int) ([]model.Attempt, error) {
	var out []model.Attempt
	for _, a := range f.attempts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAttemptStore) ListByAssessment(_ context.Context, assessmentID string) ([]model.Attempt, error) {
	var out []model.Attempt
	for _, a := range f.attempts {
		if a.AssessmentID == assessmentID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ─── Tickers ────────────────────────────────────────────────────────

// tickerBank hands out a fresh ManualTicker per session.
type tickerBank struct {
	mu      sync.Mutex
	tickers []*exam.ManualTicker
}

func (b *tickerBank) factory(time.Duration) exam.Ticker {
	m, _ := exam.NewManualTicker()
	b.mu.Lock()
	b.tickers = append(b.tickers, m)
	b.mu.Unlock()
	return m
}

func (b *tickerBank) last() *exam.ManualTicker {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tickers[len(b.tickers)-1]
}
