package lgr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/mdobak/go-xerrors"
	"go.opentelemetry.io/otel/trace"

	"github.com/khaledhikmat/vs-blink/model"
)

func TestPrettyHandler(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	logger.Debug("hidden")
	logger.With(slog.String("source", "phone")).Info("frame sampled", slog.Int("frame", 3))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record should be filtered at info level: %q", out)
	}
	for _, want := range []string{"INFO:", "frame sampled", `"source": "phone"`, `"frame": 3`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestPrettyHandlerError(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, nil))
	logger.Error("notify failed", slog.Any("error", errors.New("i/o timeout")))

	if !strings.Contains(buf.String(), `"msg": "i/o timeout"`) {
		t.Errorf("error attribute not expanded: %q", buf.String())
	}
}

func TestErrorStackTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{ReplaceAttr: replaceAttr}))

	cause := xerrors.New("calling http://esp/blink", errors.New("i/o timeout"))
	logger.Error("notify failed", slog.Any("error", model.GenError("sampler", cause, nil, "notify failed")))

	var rec struct {
		Error struct {
			Msg   string       `json:"msg"`
			Trace []stackFrame `json:"trace"`
		} `json:"error"`
	}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !strings.Contains(rec.Error.Msg, "calling http://esp/blink: i/o timeout") {
		t.Errorf("msg = %q", rec.Error.Msg)
	}
	if len(rec.Error.Trace) == 0 {
		t.Fatalf("no trace group in %s", buf.String())
	}
	if got := rec.Error.Trace[0]; !strings.HasSuffix(got.Func, "TestErrorStackTrace") || got.Source != "lgr/lgr_test.go" {
		t.Errorf("first frame = %+v, want this test", got)
	}
}

func TestPlainErrorHasNoTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{ReplaceAttr: replaceAttr}))
	logger.Error("notify failed", slog.Any("error", errors.New("boom")))

	if strings.Contains(buf.String(), `"trace"`) {
		t.Errorf("unexpected trace in %s", buf.String())
	}
}

func TestTraceHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&traceHandler{Handler: slog.NewJSONHandler(&buf, nil)})

	runID := uuid.New()
	ctx := WithSpan(WithRun(context.Background(), runID))
	logger.InfoContext(ctx, "sample frame")

	var rec map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got, want := rec["trace_id"], trace.TraceID(runID).String(); got != want {
		t.Errorf("trace_id = %v, want %v", got, want)
	}
	if rec["span_id"] == "" || rec["span_id"] == nil {
		t.Error("expected a span_id")
	}
}

func TestWithSpanKeepsTrace(t *testing.T) {
	ctx := WithRun(context.Background(), uuid.New())
	parent := trace.SpanContextFromContext(ctx)
	child := trace.SpanContextFromContext(WithSpan(ctx))

	if parent.TraceID() != child.TraceID() {
		t.Error("child span must keep the run trace id")
	}
	if parent.SpanID() == child.SpanID() {
		t.Error("child span must get a new span id")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
