package fiber_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopalparivar/dhenu-mahima/internal/logger"
	adapter "github.com/gopalparivar/dhenu-mahima/internal/logger/adapter/fiber"
)

// accessLine is the json written per request.
type accessLine struct {
	Level  string `json:"level"`
	IP     string `json:"ip"`
	Status int    `json:"status"`
	URI    string `json:"uri"`
	Route  string `json:"route"`
	Method string `json:"method"`
	Host   string `json:"host"`
	UserID uint64 `json:"user_id"`
	Error  string `json:"error"`
}

func testConfig(out *bytes.Buffer) adapter.Config {
	return adapter.Config{
		Output: out,
		Config: logger.Log{
			ServiceName: "api",
			Metrics:     logger.Metrics{Namespace: "dhenu", Registerer: prometheus.NewRegistry()},
		},
		UserID: func(c fiber.Ctx) uint64 {
			id, _ := c.Locals("user").(uint64)
			return id
		},
	}
}

func newTestApp(cfg adapter.Config) *fiber.App {
	app := fiber.New(fiber.Config{CaseSensitive: true, Immutable: true})
	app.Use(adapter.New(cfg))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Jai Gau Mata")
	})
	app.Get("/checkalive", func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/api/books/:id", func(c fiber.Ctx) error {
		c.Locals("user", uint64(42))
		return c.SendString(c.Params("id"))
	})
	app.Get("/fail", func(_ fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "broken input")
	})
	app.Get("/down", func(_ fiber.Ctx) error {
		return fiber.NewError(fiber.StatusServiceUnavailable, "gateway down")
	})
	app.Get("/slow", func(c fiber.Ctx) error {
		time.Sleep(20 * time.Millisecond)
		return c.SendStatus(fiber.StatusOK)
	})

	return app
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		targetPath string
		wantStatus int
		wantURI    string
		wantRoute  string
		wantLevel  string
		wantUser   uint64
		wantError  string
	}{
		{name: "root", targetPath: "/", wantStatus: fiber.StatusOK, wantURI: "/", wantRoute: "/"},
		{
			name: "query string is kept", targetPath: "/?page=2&limit=6",
			wantStatus: fiber.StatusOK, wantURI: "/?page=2&limit=6", wantRoute: "/",
		},
		{
			name: "route pattern and user", targetPath: "/api/books/7",
			wantStatus: fiber.StatusOK, wantURI: "/api/books/7", wantRoute: "/api/books/:id", wantUser: 42,
		},
		{
			name: "unknown route", targetPath: "/api/nothing",
			wantStatus: fiber.StatusNotFound, wantURI: "/api/nothing", wantRoute: "unmatched",
		},
		{
			name: "client error", targetPath: "/fail",
			wantStatus: fiber.StatusBadRequest, wantURI: "/fail", wantRoute: "/fail", wantError: "broken input",
		},
		{
			name: "server error", targetPath: "/down",
			wantStatus: fiber.StatusServiceUnavailable, wantURI: "/down", wantRoute: "/down",
			wantLevel: "error", wantError: "gateway down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			app := newTestApp(testConfig(&out))

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, tt.targetPath, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.True(t, strings.HasPrefix(resp.Header.Get(adapter.HeaderServerTiming), "app;dur="))

			var line accessLine
			require.NoError(t, json.Unmarshal(out.Bytes(), &line), out.String())

			assert.Equal(t, tt.wantLevel, line.Level)
			assert.Equal(t, tt.wantStatus, line.Status)
			assert.Equal(t, tt.wantURI, line.URI)
			assert.Equal(t, tt.wantRoute, line.Route)
			assert.Equal(t, fiber.MethodGet, line.Method)
			assert.Equal(t, "example.com", line.Host)
			assert.Equal(t, tt.wantUser, line.UserID)
			assert.Contains(t, line.Error, tt.wantError)
		})
	}
}

func TestNewSlowRequest(t *testing.T) {
	var out bytes.Buffer

	cfg := testConfig(&out)
	cfg.SlowThreshold = time.Millisecond

	_, err := newTestApp(cfg).Test(httptest.NewRequest(fiber.MethodGet, "/slow", nil))
	require.NoError(t, err)

	var line accessLine
	require.NoError(t, json.Unmarshal(out.Bytes(), &line), out.String())
	assert.Equal(t, "warn", line.Level)
}

func TestNewQuietPaths(t *testing.T) {
	var out bytes.Buffer

	cfg := testConfig(&out)
	cfg.QuietPaths = []string{"/checkalive", "/down"}
	app := newTestApp(cfg)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/checkalive", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, out.String())

	_, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/down", nil))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "gateway down")
}

func TestNewNext(t *testing.T) {
	var out bytes.Buffer

	cfg := testConfig(&out)
	cfg.Next = func(c fiber.Ctx) bool { return c.Path() == "/" }

	_, err := newTestApp(cfg).Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Empty(t, out.String())
}

func TestNewObservesDuration(t *testing.T) {
	var out bytes.Buffer

	reg := prometheus.NewRegistry()
	cfg := testConfig(&out)
	cfg.Config.Metrics.Registerer = reg
	app := newTestApp(cfg)

	for _, target := range []string{"/api/books/1", "/api/books/2", "/api/nothing"} {
		_, err := app.Test(httptest.NewRequest(fiber.MethodGet, target, nil))
		require.NoError(t, err)
	}

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]uint64{}
	for _, mf := range families {
		if mf.GetName() != "dhenu_http_request_duration_seconds" {
			continue
		}

		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "route" {
					counts[lp.GetValue()] += m.GetHistogram().GetSampleCount()
				}
			}
		}
	}

	assert.Equal(t, map[string]uint64{"/api/books/:id": 2, "unmatched": 1}, counts)
}
