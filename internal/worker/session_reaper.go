package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const ReapInterval = time.Minute

// Reaper is satisfied by *service.SessionService.
type Reaper interface {
	Reap() int
}

// SessionReaper periodically evicts submitted sessions from memory.
type SessionReaper struct {
	sessions Reaper
	interval time.Duration
	log      zerolog.Logger
}

func NewSessionReaper(sessions Reaper, log zerolog.Logger) *SessionReaper {
	return &SessionReaper{
		sessions: sessions,
		interval: ReapInterval,
		log:      log.With().Str("component", "session_reaper").Logger(),
	}
}

func (r *SessionReaper) Start(ctx context.Context) {
	r.log.Info().Dur("interval", r.interval).Msg("SessionReaper started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("SessionReaper stopped")
			return
		case <-ticker.C:
			if n := r.sessions.Reap(); n > 0 {
				r.log.Debug().Int("reaped", n).Msg("Evicted finished sessions")
			}
		}
	}
}
