package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/glucotrack/internal/bloodsugar"
	"github.com/jwulff/glucotrack/internal/session"
	"github.com/jwulff/glucotrack/internal/storage/memory"
)

func newTestServer(t *testing.T, mirror Pusher) *Server {
	t.Helper()
	store := memory.NewStore()
	t.Cleanup(func() { _ = store.Close() })

	s := New(Options{
		Store:      store,
		Mirror:     mirror,
		SessionTTL: time.Hour,
		Logger:     zerolog.Nop(),
	})
	t.Cleanup(s.stopMirror)
	return s
}

func do(t *testing.T, s *Server, req *http.Request, cookie *http.Cookie) *http.Response {
	t.Helper()
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func formRequest(fasting, postprandial string) *http.Request {
	form := url.Values{}
	form.Set(fieldFasting, fasting)
	form.Set(fieldPostprandial, postprandial)
	req := httptest.NewRequest(http.MethodPost, "/calculate", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/calculate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == DefaultCookieName {
			return c
		}
	}
	t.Fatalf("response has no %s cookie", DefaultCookieName)
	return nil
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func getLog(t *testing.T, s *Server, cookie *http.Cookie) LogResponse {
	t.Helper()
	resp := do(t, s, httptest.NewRequest(http.MethodGet, "/api/log", nil), cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out LogResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestIndexNewSession(t *testing.T) {
	s := newTestServer(t, nil)

	resp := do(t, s, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	cookie := sessionCookie(t, resp)
	_, err := uuid.Parse(cookie.Value)
	assert.NoError(t, err)
	assert.True(t, cookie.HttpOnly)

	body := readBody(t, resp)
	assert.Contains(t, body, "Blood Glucose &amp; HbA1c Tracker")
	assert.Contains(t, body, "Enter Your Glucose Levels")
	assert.Contains(t, body, `name="fasting_glucose" type="number" min="0" step="1"`)
	assert.Contains(t, body, "Calculate HbA1c")
	assert.NotContains(t, body, "Results")
	assert.NotContains(t, body, "Glucose Level Trends")
	assert.NotContains(t, body, "Recorded Data")
}

func TestIndexReplacesInvalidCookie(t *testing.T) {
	s := newTestServer(t, nil)

	resp := do(t, s, httptest.NewRequest(http.MethodGet, "/", nil), &http.Cookie{Name: DefaultCookieName, Value: "not-a-uuid"})
	cookie := sessionCookie(t, resp)
	assert.NotEqual(t, "not-a-uuid", cookie.Value)
}

func TestCalculateForm(t *testing.T) {
	s := newTestServer(t, nil)

	resp := do(t, s, formRequest("90", "120"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookie := sessionCookie(t, resp)

	body := readBody(t, resp)
	assert.Contains(t, body, "Results")
	assert.Contains(t, body, "5.29%")
	assert.Contains(t, body, bloodsugar.AdviceNormal.Message())
	assert.Contains(t, body, "Glucose Level Trends")
	assert.Contains(t, body, "Recorded Data")
	assert.Contains(t, body, `src="/chart.png?n=1"`)

	log := getLog(t, s, cookie)
	assert.Equal(t, session.StateNonEmpty, log.State)
	require.Len(t, log.Entries, 1)
	assert.Equal(t, 90, log.Entries[0].Fasting)
	assert.Equal(t, 120, log.Entries[0].Postprandial)
	assert.InDelta(t, 5.29, log.Entries[0].HbA1c, 0.005)
}

func TestCalculateFormLowAdvice(t *testing.T) {
	s := newTestServer(t, nil)

	resp := do(t, s, formRequest("60", "300"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "Your fasting glucose is low. Consider consulting a doctor.")
	assert.Contains(t, body, "7.90%")
}

func TestCalculateFormAppendsInOrder(t *testing.T) {
	s := newTestServer(t, nil)

	resp := do(t, s, formRequest("90", "120"), nil)
	cookie := sessionCookie(t, resp)
	do(t, s, formRequest("110", "150"), cookie)
	resp = do(t, s, formRequest("130", "50"), cookie)

	body := readBody(t, resp)
	assert.Contains(t, body, bloodsugar.AdviceHigh.Message())
	assert.Contains(t, body, `src="/chart.png?n=3"`)

	log := getLog(t, s, cookie)
	require.Len(t, log.Entries, 3)
	assert.Equal(t, []int{90, 110, 130}, []int{log.Entries[0].Fasting, log.Entries[1].Fasting, log.Entries[2].Fasting})
}

func TestCalculateFormEmptyFieldsCountAsZero(t *testing.T) {
	s := newTestServer(t, nil)

	resp := do(t, s, formRequest("", ""), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "1.63%")
	assert.Contains(t, body, bloodsugar.AdviceLow.Message())
}

func TestCalculateFormInvalidInput(t *testing.T) {
	tests := []struct {
		name, fasting, postprandial string
	}{
		{"negative fasting", "-5", "120"},
		{"negative postprandial", "90", "-1"},
		{"not a number", "abc", "120"},
		{"decimal", "90.5", "120"},
		{"above max reading", "9223372036854775807", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)

			resp := do(t, s, formRequest(tt.fasting, tt.postprandial), nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			cookie := sessionCookie(t, resp)

			body := readBody(t, resp)
			assert.Contains(t, body, `class="error"`)
			assert.NotContains(t, body, "Results")

			log := getLog(t, s, cookie)
			assert.Equal(t, session.StateEmpty, log.State)
			assert.Empty(t, log.Entries)
		})
	}
}

func TestCalculateFormInvalidKeepsExistingLog(t *testing.T) {
	s := newTestServer(t, nil)

	cookie := sessionCookie(t, do(t, s, formRequest("90", "120"), nil))
	resp := do(t, s, formRequest("-1", "120"), cookie)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Recorded Data")
	assert.Len(t, getLog(t, s, cookie).Entries, 1)
}

func TestSessionsAreIsolated(t *testing.T) {
	s := newTestServer(t, nil)

	alice := sessionCookie(t, do(t, s, formRequest("90", "120"), nil))
	bob := sessionCookie(t, do(t, s, formRequest("150", "220"), nil))
	do(t, s, formRequest("95", "130"), alice)

	assert.NotEqual(t, alice.Value, bob.Value)
	assert.Len(t, getLog(t, s, alice).Entries, 2)

	bobLog := getLog(t, s, bob)
	require.Len(t, bobLog.Entries, 1)
	assert.Equal(t, 150, bobLog.Entries[0].Fasting)
}

func TestConcurrentPostsSameSession(t *testing.T) {
	s := newTestServer(t, nil)
	cookie := sessionCookie(t, do(t, s, httptest.NewRequest(http.MethodGet, "/", nil), nil))

	const posts = 10
	var wg sync.WaitGroup
	for i := 0; i < posts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := jsonRequest(`{"fasting":90,"postprandial":120}`)
			req.AddCookie(cookie)
			resp, err := s.App().Test(req, -1)
			if assert.NoError(t, err) {
				assert.Equal(t, http.StatusOK, resp.StatusCode)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, getLog(t, s, cookie).Entries, posts)
}

func TestChartPNG(t *testing.T) {
	s := newTestServer(t, nil)

	resp := do(t, s, httptest.NewRequest(http.MethodGet, "/chart.png", nil), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "Empty log has no chart")
	cookie := sessionCookie(t, resp)

	do(t, s, formRequest("90", "120"), cookie)
	do(t, s, formRequest("100", "150"), cookie)

	resp = do(t, s, httptest.NewRequest(http.MethodGet, "/chart.png", nil), cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, ChartWidth*ChartScale, img.Bounds().Dx())
	assert.Equal(t, ChartHeight*ChartScale, img.Bounds().Dy())
}

func TestAPILogEmpty(t *testing.T) {
	s := newTestServer(t, nil)

	resp := do(t, s, httptest.NewRequest(http.MethodGet, "/api/log", nil), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Equal(t, "empty", raw["state"])
	assert.Equal(t, []any{}, raw["entries"], "Entries is an empty array, not null")
}

func TestAPICalculate(t *testing.T) {
	s := newTestServer(t, nil)

	resp := do(t, s, jsonRequest(`{"fasting":100,"postprandial":150}`), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out CalculateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, bloodsugar.AdvicePrediabetes, out.Result.Advice)
	assert.Equal(t, bloodsugar.AdvicePrediabetes.Message(), out.Result.Message)
	assert.Equal(t, "5.98%", out.Result.Formatted)
	assert.Equal(t, session.StateNonEmpty, out.Log.State)
	assert.Len(t, out.Log.Entries, 1)
}

func TestAPICalculateInvalid(t *testing.T) {
	tests := []struct {
		name, body string
	}{
		{"negative", `{"fasting":-1,"postprandial":120}`},
		{"malformed", `{"fasting":`},
		{"wrong type", `{"fasting":"ninety","postprandial":120}`},
		{"above max reading", `{"fasting":100000,"postprandial":120}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)

			resp := do(t, s, jsonRequest(tt.body), nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var out map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			assert.NotEmpty(t, out["error"])

			assert.Empty(t, getLog(t, s, sessionCookie(t, resp)).Entries)
		})
	}
}

func TestEndSession(t *testing.T) {
	s := newTestServer(t, nil)

	cookie := sessionCookie(t, do(t, s, formRequest("90", "120"), nil))
	require.Len(t, getLog(t, s, cookie).Entries, 1)

	resp := do(t, s, httptest.NewRequest(http.MethodPost, "/session/end", nil), cookie)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	count, err := s.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// A stale cookie starts over with an empty log
	log := getLog(t, s, cookie)
	assert.Equal(t, session.StateEmpty, log.State)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	do(t, s, formRequest("90", "120"), nil)

	resp := do(t, s, httptest.NewRequest(http.MethodGet, "/health", nil), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Cookies(), "Health checks do not create sessions")

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, float64(1), out["sessions"])
}

func TestExpireIdleSessions(t *testing.T) {
	s := newTestServer(t, nil)

	cookie := sessionCookie(t, do(t, s, formRequest("90", "120"), nil))

	s.expireIdle(context.Background())
	assert.Len(t, getLog(t, s, cookie).Entries, 1, "Fresh sessions survive")

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	s.expireIdle(context.Background())

	count, err := s.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRunJanitorStopsOnCancel(t *testing.T) {
	s := newTestServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunJanitor(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

type brokenStore struct {
	*memory.Store
}

func (brokenStore) Count(context.Context) (int, error) {
	return 0, errors.New("disk gone")
}

func TestRequestLoggerReportsHandlerErrorsAs500(t *testing.T) {
	var buf bytes.Buffer
	s := New(Options{
		Store:  brokenStore{memory.NewStore()},
		Logger: zerolog.New(&buf),
	})

	resp := do(t, s, httptest.NewRequest(http.MethodGet, "/health", nil), nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["message"] != "request" {
			continue
		}
		found = true
		assert.Equal(t, "error", entry["level"])
		assert.Equal(t, float64(http.StatusInternalServerError), entry["status"])
		assert.Equal(t, "/health", entry["path"])
	}
	assert.True(t, found, "no request log line in %q", buf.String())
}

type fakePusher struct {
	mu      sync.Mutex
	entries [][]session.Entry
	err     error
}

func (p *fakePusher) Push(_ context.Context, entries []session.Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entries)
	return p.err
}

func waitPush(t *testing.T, s *Server) error {
	t.Helper()
	select {
	case err := <-s.pushed:
		return err
	case <-time.After(time.Second):
		t.Fatal("mirror push did not happen")
		return nil
	}
}

func TestMirrorPushedAfterAppend(t *testing.T) {
	pusher := &fakePusher{}
	s := newTestServer(t, pusher)
	s.pushed = make(chan error, 4)

	cookie := sessionCookie(t, do(t, s, formRequest("90", "120"), nil))
	require.NoError(t, waitPush(t, s))
	do(t, s, jsonRequest(`{"fasting":100,"postprandial":150}`), cookie)
	require.NoError(t, waitPush(t, s))

	pusher.mu.Lock()
	defer pusher.mu.Unlock()
	require.Len(t, pusher.entries, 2)
	assert.Len(t, pusher.entries[0], 1)
	assert.Len(t, pusher.entries[1], 2)
}

// gatedPusher holds every push until release is closed.
type gatedPusher struct {
	fakePusher
	started chan struct{}
	release chan struct{}
}

func (p *gatedPusher) Push(ctx context.Context, entries []session.Entry) error {
	p.started <- struct{}{}
	<-p.release
	return p.fakePusher.Push(ctx, entries)
}

func TestMirrorPushesInOrderAndKeepsNewest(t *testing.T) {
	pusher := &gatedPusher{
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
	s := newTestServer(t, pusher)
	s.pushed = make(chan error, 8)

	cookie := sessionCookie(t, do(t, s, formRequest("90", "120"), nil))
	select {
	case <-pusher.started:
	case <-time.After(time.Second):
		t.Fatal("first push did not start")
	}

	// These arrive while the first push is still on the wire.
	do(t, s, formRequest("95", "130"), cookie)
	do(t, s, formRequest("100", "140"), cookie)
	do(t, s, formRequest("105", "150"), cookie)

	close(pusher.release)
	require.NoError(t, waitPush(t, s))
	require.NoError(t, waitPush(t, s))

	select {
	case <-s.pushed:
		t.Fatal("stale chart pushed after the newest one")
	case <-time.After(50 * time.Millisecond):
	}

	pusher.mu.Lock()
	defer pusher.mu.Unlock()
	require.Len(t, pusher.entries, 2)
	assert.Len(t, pusher.entries[0], 1)
	assert.Len(t, pusher.entries[1], 4)
}

func TestMirrorFailureDoesNotFailCalculation(t *testing.T) {
	pusher := &fakePusher{err: errors.New("device offline")}
	s := newTestServer(t, pusher)
	s.pushed = make(chan error, 1)

	resp := do(t, s, formRequest("90", "120"), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Error(t, waitPush(t, s))
}

func TestMirrorNotPushedForInvalidInput(t *testing.T) {
	pusher := &fakePusher{}
	s := newTestServer(t, pusher)

	do(t, s, formRequest("-1", "120"), nil)
	time.Sleep(20 * time.Millisecond)

	pusher.mu.Lock()
	defer pusher.mu.Unlock()
	assert.Empty(t, pusher.entries)
}
