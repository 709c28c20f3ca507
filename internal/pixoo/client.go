package pixoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/jwulff/glucotrack/internal/domain"
	"github.com/jwulff/glucotrack/internal/render"
	"github.com/jwulff/glucotrack/internal/session"
)

// DefaultPort is the default Pixoo HTTP API port.
const DefaultPort = 80

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 5 * time.Second

// Client is an HTTP client for one Pixoo device.
type Client struct {
	IP         string
	Port       int
	HTTPClient *http.Client
	testURL    string // For testing with httptest

	mu    sync.Mutex
	picID int
}

// NewClient creates a new Pixoo client. A port of 0 means DefaultPort.
func NewClient(ip string, port int) *Client {
	if port == 0 {
		port = DefaultPort
	}
	return &Client{
		IP:   ip,
		Port: port,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Endpoint returns the full API endpoint URL.
func (c *Client) Endpoint() string {
	if c.testURL != "" {
		return c.testURL
	}
	return fmt.Sprintf("http://%s:%d/post", c.IP, c.Port)
}

// sendCommand posts a command and checks the device's error_code.
func (c *Client) sendCommand(ctx context.Context, command any) ([]byte, error) {
	data, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var envelope Response
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.ErrorCode != 0 {
		return nil, fmt.Errorf("device returned error_code %d", envelope.ErrorCode)
	}

	return body, nil
}

// SendFrame sends a 64x64 frame to the device.
func (c *Client) SendFrame(ctx context.Context, frame *domain.Frame) error {
	if frame.Width != domain.Pixoo64Size || frame.Height != domain.Pixoo64Size {
		return fmt.Errorf("frame is %dx%d, device needs %dx%d",
			frame.Width, frame.Height, domain.Pixoo64Size, domain.Pixoo64Size)
	}

	c.mu.Lock()
	c.picID++
	picID := c.picID
	c.mu.Unlock()

	_, err := c.sendCommand(ctx, CreatePixooFrameCommand(frame, picID))
	return err
}

// ResetGifID resets the device's picture counter, which it needs before the
// first frame after a restart.
func (c *Client) ResetGifID(ctx context.Context) error {
	if _, err := c.sendCommand(ctx, CreateResetGifIDCommand()); err != nil {
		return err
	}
	c.mu.Lock()
	c.picID = 0
	c.mu.Unlock()
	return nil
}

// SetBrightness sets the display brightness (0-100).
func (c *Client) SetBrightness(ctx context.Context, brightness int) error {
	_, err := c.sendCommand(ctx, CreateBrightnessCommand(brightness))
	return err
}

// IsReachable checks if the device answers a time query.
func (c *Client) IsReachable(ctx context.Context) bool {
	_, err := c.sendCommand(ctx, CreateDeviceTimeCommand())
	return err == nil
}

// FrameSender is the part of Client the mirror needs.
type FrameSender interface {
	SendFrame(ctx context.Context, frame *domain.Frame) error
}

// Mirror pushes the trend chart of a session log to a display.
type Mirror struct {
	sender FrameSender
}

// NewMirror creates a mirror that sends through sender.
func NewMirror(sender FrameSender) *Mirror {
	return &Mirror{sender: sender}
}

// Push renders the entries as a 64x64 trend frame and sends it.
func (m *Mirror) Push(ctx context.Context, entries []session.Entry) error {
	frame := render.ComposeTrendFrame(entries, domain.Pixoo64Size, domain.Pixoo64Size)
	if err := m.sender.SendFrame(ctx, frame); err != nil {
		return fmt.Errorf("failed to push trend chart: %w", err)
	}
	return nil
}
