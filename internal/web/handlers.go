package web

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jwulff/glucotrack/internal/render"
	"github.com/jwulff/glucotrack/internal/session"
)

// Form field names.
const (
	fieldFasting      = "fasting_glucose"
	fieldPostprandial = "postprandial_glucose"
)

// LogResponse is the JSON view of a session log.
type LogResponse struct {
	State   session.State   `json:"state"`
	Entries []session.Entry `json:"entries"`
}

// CalculateResponse is the JSON answer to POST /api/calculate.
type CalculateResponse struct {
	Result session.Result `json:"result"`
	Log    LogResponse    `json:"log"`
}

func logResponse(log *session.Log) LogResponse {
	return LogResponse{State: log.State(), Entries: log.Snapshot()}
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	count, err := s.store.Count(c.UserContext())
	if err != nil {
		return fmt.Errorf("failed to count sessions: %w", err)
	}
	return c.JSON(fiber.Map{"status": "ok", "sessions": count})
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	log, err := s.loadLog(c.UserContext(), sessionID(c))
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	return s.sendPage(c, fiber.StatusOK, pageData{Entries: log.Snapshot()})
}

func (s *Server) handleCalculateForm(c *fiber.Ctx) error {
	id := sessionID(c)
	data := pageData{
		Fasting:      c.FormValue(fieldFasting),
		Postprandial: c.FormValue(fieldPostprandial),
	}

	reading, err := session.ParseReading(data.Fasting, data.Postprandial)
	if err != nil {
		if !errors.Is(err, session.ErrInvalidReading) {
			return err
		}
		log, loadErr := s.loadLog(c.UserContext(), id)
		if loadErr != nil {
			return fmt.Errorf("failed to load session: %w", loadErr)
		}
		data.Error = err.Error()
		data.Entries = log.Snapshot()
		return s.sendPage(c, fiber.StatusBadRequest, data)
	}

	result, log, err := s.appendReading(c.UserContext(), id, reading)
	if err != nil {
		return fmt.Errorf("failed to record reading: %w", err)
	}

	data.Result = &result
	data.Entries = log.Snapshot()
	return s.sendPage(c, fiber.StatusOK, data)
}

func (s *Server) handleChart(c *fiber.Ctx) error {
	log, err := s.loadLog(c.UserContext(), sessionID(c))
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if log.State() == session.StateEmpty {
		return fiber.NewError(fiber.StatusNotFound, "No readings recorded yet")
	}

	frame := render.ComposeTrendFrame(log.Snapshot(), ChartWidth, ChartHeight)

	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, frame, ChartScale); err != nil {
		return err
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Type("png")
	return c.Send(buf.Bytes())
}

func (s *Server) handleEndSession(c *fiber.Ctx) error {
	id := sessionID(c)
	if err := s.store.Delete(c.UserContext(), id); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	s.log.Info().Str("session", id).Msg("session ended")

	c.ClearCookie(s.cookie)
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (s *Server) handleGetLog(c *fiber.Ctx) error {
	log, err := s.loadLog(c.UserContext(), sessionID(c))
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	return c.JSON(logResponse(log))
}

func (s *Server) handleCalculateJSON(c *fiber.Ctx) error {
	var reading session.Reading
	if err := c.BodyParser(&reading); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := reading.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	result, log, err := s.appendReading(c.UserContext(), sessionID(c), reading)
	if err != nil {
		return fmt.Errorf("failed to record reading: %w", err)
	}

	return c.JSON(CalculateResponse{Result: result, Log: logResponse(log)})
}

func (s *Server) sendPage(c *fiber.Ctx, status int, data pageData) error {
	body, err := renderPage(data)
	if err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(body)
}
