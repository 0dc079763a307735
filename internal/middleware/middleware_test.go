package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/clinic-records-api/internal/monitoring"
	"github.com/harentsoaR/clinic-records-api/internal/utils"
	dto "github.com/prometheus/client_model/go"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTokens(t *testing.T) *utils.TokenManager {
	t.Helper()
	m, err := utils.NewTokenManager("middleware-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	return m
}

func TestAuthMiddleware(t *testing.T) {
	tokens := newTokens(t)
	valid, _ := tokens.Generate("507f1f77bcf86cd799439011", "doctor")

	r := gin.New()
	r.GET("/private", AuthMiddleware(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetString(UserIDKey), "role": c.GetString(UserRoleKey)})
	})

	testCases := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
	}{
		{"Valid", "Bearer " + valid, http.StatusOK, ""},
		{"Missing", "", http.StatusUnauthorized, "Authorization header required"},
		{"WrongScheme", "Basic " + valid, http.StatusUnauthorized, "Invalid authorization header"},
		{"EmptyToken", "Bearer ", http.StatusUnauthorized, "Invalid authorization header"},
		{"BadToken", "Bearer nope", http.StatusUnauthorized, "Invalid token"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("Expected status %d, got %d. Body: %s", tc.wantStatus, w.Code, w.Body.String())
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("Failed to decode body: %v", err)
			}
			if tc.wantStatus == http.StatusOK {
				if body["user"] != "507f1f77bcf86cd799439011" || body["role"] != "doctor" {
					t.Errorf("Expected caller identity in context, got %v", body)
				}
				return
			}
			if body["success"] != false || body["message"] != tc.wantMsg {
				t.Errorf("Expected failure message %q, got %v", tc.wantMsg, body)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	t.Run("Generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		id := w.Header().Get(RequestIDHeader)
		if len(id) != 36 {
			t.Errorf("Expected a generated uuid, got %q", id)
		}
		if w.Body.String() != id {
			t.Errorf("Expected context id %q to match header %q", w.Body.String(), id)
		}
	})

	t.Run("Propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
			t.Errorf("Expected propagated id, got %q", got)
		}
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestID(), Logger(logger))
	r.GET("/clients/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/clients/42", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected one JSON log line, got %q", buf.String())
	}
	if entry["level"] != "WARN" {
		t.Errorf("Expected WARN for a 404, got %v", entry["level"])
	}
	if entry["route"] != "/clients/:id" || entry["path"] != "/clients/42" {
		t.Errorf("Expected route and path to be logged, got %v", entry)
	}
	if entry["status"] != float64(http.StatusNotFound) || entry["request_id"] != "req-1" {
		t.Errorf("Expected status and request id to be logged, got %v", entry)
	}
}

func TestPrometheusMetrics(t *testing.T) {
	r := gin.New()
	r.Use(PrometheusMetrics())
	r.GET("/metrics-test", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	counter := monitoring.RequestsTotal.WithLabelValues(http.MethodGet, "/metrics-test", "418")
	before := counterValue(t, counter)

	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics-test", nil))
	}

	if got := counterValue(t, counter) - before; got != 3 {
		t.Errorf("Expected 3 requests counted, got %v", got)
	}

	unmatched := monitoring.RequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	before = counterValue(t, unmatched)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if got := counterValue(t, unmatched) - before; got != 1 {
		t.Errorf("Expected unmatched route to be counted once, got %v", got)
	}
}

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Failed to read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestSafeHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer secret")
	h.Set("Cookie", "session=1")
	h.Set("Accept", "application/json")

	safe := safeHeaders(h)
	for _, k := range []string{"Authorization", "Cookie"} {
		if safe[k] != "[FILTERED]" {
			t.Errorf("Expected %s to be filtered, got %v", k, safe[k])
		}
	}
	if v, ok := safe["Accept"].([]string); !ok || !strings.Contains(v[0], "json") {
		t.Errorf("Expected Accept to pass through, got %v", safe["Accept"])
	}
}

func TestSentry_NoClient(t *testing.T) {
	r := gin.New()
	r.Use(Sentry())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected the chain to run without a Sentry client, got %d", w.Code)
	}
}
