// Package web serves the glucose form, results, trend chart and recorded
// data table over HTTP. Each browser gets its own session log, keyed by a
// cookie and kept in a storage.SessionStore.
package web

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/jwulff/glucotrack/internal/session"
	"github.com/jwulff/glucotrack/internal/storage"
)

// DefaultCookieName is the session cookie used when Options leaves it empty.
const DefaultCookieName = "glucotrack_session"

// Chart PNG geometry. The frame is small and scaled up so pixels stay sharp.
const (
	ChartWidth  = 160
	ChartHeight = 96
	ChartScale  = 4
)

// pushTimeout bounds one mirror push to the display.
const pushTimeout = 5 * time.Second

// Pusher mirrors a session's entries somewhere else, such as a Pixoo display.
type Pusher interface {
	Push(ctx context.Context, entries []session.Entry) error
}

// Options configures a Server.
type Options struct {
	Store      storage.SessionStore
	Mirror     Pusher // optional
	CookieName string
	SessionTTL time.Duration
	Logger     zerolog.Logger
}

// Server is the HTTP adapter around the calculation core.
type Server struct {
	app    *fiber.App
	store  storage.SessionStore
	mirror Pusher
	cookie string
	ttl    time.Duration
	log    zerolog.Logger
	now    func() time.Time

	// Mirror pushes go through one worker so the display never ends up on
	// an older chart. Only the newest pending push is kept.
	pushMu   sync.Mutex
	nextPush *pushJob
	pushWake chan struct{}
	stopPush context.CancelFunc

	// pushed is signalled after every mirror push attempt; tests use it.
	pushed chan error
}

// New creates a server with all routes registered.
func New(opts Options) *Server {
	s := &Server{
		store:  opts.Store,
		mirror: opts.Mirror,
		cookie: opts.CookieName,
		ttl:    opts.SessionTTL,
		log:    opts.Logger.With().Str("component", "web").Logger(),
		now:    time.Now,
	}
	if s.cookie == "" {
		s.cookie = DefaultCookieName
	}
	if s.ttl <= 0 {
		s.ttl = 30 * time.Minute
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "glucotrack",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	if s.mirror != nil {
		ctx, cancel := context.WithCancel(context.Background())
		s.pushWake = make(chan struct{}, 1)
		s.stopPush = cancel
		go s.runMirror(ctx)
	}

	s.app.Use(recover.New())
	s.app.Use(s.requestLogger)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", s.handleHealth)

	s.app.Use(s.sessionMiddleware)
	s.app.Get("/", s.handleIndex)
	s.app.Post("/calculate", s.handleCalculateForm)
	s.app.Get("/chart.png", s.handleChart)
	s.app.Post("/session/end", s.handleEndSession)

	api := s.app.Group("/api")
	api.Get("/log", s.handleGetLog)
	api.Post("/calculate", s.handleCalculateJSON)
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves HTTP on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.log.Info().Str("addr", addr).Msg("listening")
	return s.app.Listen(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones. A pending
// mirror push is abandoned.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopMirror()
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) stopMirror() {
	if s.stopPush != nil {
		s.stopPush()
	}
}

// RunJanitor discards sessions idle longer than the TTL, checking every
// interval until ctx is done. Expiry is how web sessions end when the
// browser never posts /session/end.
func (s *Server) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.expireIdle(ctx)
		}
	}
}

func (s *Server) expireIdle(ctx context.Context) {
	removed, err := s.store.Expire(ctx, s.now().Add(-s.ttl))
	if err != nil {
		s.log.Error().Err(err).Msg("failed to expire sessions")
		return
	}
	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("expired idle sessions")
	}
}

// requestLogger logs one line per request.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	// The error handler has not written the response yet, so derive the
	// status it is about to send.
	status := c.Response().StatusCode()
	if err != nil {
		status = fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}
	}

	event := s.log.Debug()
	if status >= fiber.StatusInternalServerError {
		event = s.log.Error()
	}
	event.
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("latency", time.Since(start)).
		Msg("request")
	return err
}

// handleError renders unhandled errors as JSON for the API and plain text elsewhere.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		msg = e.Message
	} else {
		s.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
	return c.Status(code).SendString(msg)
}
