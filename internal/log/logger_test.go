package log

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Output: &buf, Component: ComponentExport})

	l.Info("report rendered", FieldCount, 3)
	out := buf.String()
	if !strings.Contains(out, "component=export") || !strings.Contains(out, "count=3") {
		t.Fatalf("unexpected log line: %s", out)
	}

	buf.Reset()
	l.WithComponent(ComponentBackup).Warn("month empty")
	if !strings.Contains(buf.String(), "component=backup") {
		t.Fatalf("unexpected log line: %s", buf.String())
	}
	if strings.Count(buf.String(), "component=") != 1 {
		t.Fatalf("component must appear once: %s", buf.String())
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Output: &buf, Format: "json"})
	l.Debug("hello")
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"component":"app"`) {
		t.Fatalf("unexpected json line: %s", buf.String())
	}
}

func TestMiddlewareAndRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Output: &buf})

	var seen *Logger
	h := middleware.RequestID(Middleware(base)(RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	}))))

	req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen == nil || seen.Component() != ComponentHTTP {
		t.Fatalf("expected http logger in context, got %+v", seen)
	}
	out := buf.String()
	for _, want := range []string{"level=WARN", "status_code=404", "path=/api/expenses", "request_id="} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
}

func TestFromContextFallsBack(t *testing.T) {
	l := FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	if l == nil || l.Component() != "unknown" {
		t.Fatalf("unexpected fallback logger %+v", l)
	}
}

func TestLogFieldsBuilders(t *testing.T) {
	f := NewFields().
		WithOperation(OpExport).
		WithRequestID("").
		WithError(nil).
		WithReport("2025년12월_내역", 2, 20000)
	if _, ok := f[FieldRequestID]; ok {
		t.Errorf("empty request id must be left out: %v", f)
	}
	if _, ok := f[FieldError]; ok {
		t.Errorf("nil error must be left out: %v", f)
	}
	if f[FieldOperation] != OpExport || f[FieldCount] != 2 || f[FieldTotal] != int64(20000) {
		t.Errorf("unexpected fields: %v", f)
	}

	f = NewFields().WithRequestID("req-1").WithError(errors.New("smtp down"))
	if f[FieldRequestID] != "req-1" || f[FieldError] != "smtp down" {
		t.Errorf("unexpected fields: %v", f)
	}
	if got := len(f.ToSlice()); got != 4 {
		t.Errorf("ToSlice returned %d values, want 4", got)
	}
}
