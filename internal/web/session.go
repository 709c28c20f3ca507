package web

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jwulff/glucotrack/internal/session"
	"github.com/jwulff/glucotrack/internal/storage"
)

const sessionLocal = "sessionID"

// sessionMiddleware makes sure every request carries a session ID, issuing a
// new cookie when the request has none or an unrecognizable one.
func (s *Server) sessionMiddleware(c *fiber.Ctx) error {
	id := c.Cookies(s.cookie)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
		s.setSessionCookie(c, id)
		s.log.Debug().Str("session", id).Msg("new session")
	}
	c.Locals(sessionLocal, id)
	return c.Next()
}

func (s *Server) setSessionCookie(c *fiber.Ctx, id string) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cookie,
		Value:    id,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func sessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(sessionLocal).(string)
	return id
}

// loadLog returns the caller's log. A session the store does not know yet is
// an empty log.
func (s *Server) loadLog(ctx context.Context, id string) (*session.Log, error) {
	log, err := s.store.Load(ctx, id)
	if storage.IsNotFound(err) {
		return session.NewLog(), nil
	}
	return log, err
}

// appendReading runs one calculation against the session's stored log.
// The store serializes updates per session, so concurrent posts with the same
// cookie each append exactly once.
func (s *Server) appendReading(ctx context.Context, id string, r session.Reading) (session.Result, *session.Log, error) {
	var result session.Result
	log, err := s.store.Update(ctx, id, func(current *session.Log) (*session.Log, error) {
		var updated *session.Log
		result, updated = session.Calculate(current, r, s.now())
		return updated, nil
	})
	if err != nil {
		return session.Result{}, nil, err
	}

	s.log.Info().
		Str("session", id).
		Int("fasting", r.Fasting).
		Int("postprandial", r.Postprandial).
		Float64("hba1c", result.Entry.HbA1c).
		Str("advice", string(result.Advice)).
		Int("entries", log.Len()).
		Msg("reading recorded")

	s.mirrorLog(id, log.Snapshot())
	return result, log, nil
}

type pushJob struct {
	sessionID string
	entries   []session.Entry
}

// mirrorLog queues the chart for the configured display. A push still waiting
// is replaced, so bursts of appends collapse into one push of the newest log.
func (s *Server) mirrorLog(id string, entries []session.Entry) {
	if s.mirror == nil {
		return
	}
	s.pushMu.Lock()
	s.nextPush = &pushJob{sessionID: id, entries: entries}
	s.pushMu.Unlock()

	select {
	case s.pushWake <- struct{}{}:
	default:
	}
}

// runMirror sends queued charts one at a time until ctx is done. A failed
// push is only logged.
func (s *Server) runMirror(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.pushWake:
		}

		s.pushMu.Lock()
		job := s.nextPush
		s.nextPush = nil
		s.pushMu.Unlock()
		if job == nil {
			continue
		}

		pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
		err := s.mirror.Push(pushCtx, job.entries)
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Str("session", job.sessionID).Msg("failed to mirror chart")
		}
		if s.pushed != nil {
			s.pushed <- err
		}
	}
}
