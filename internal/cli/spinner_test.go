package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/seafoam/pkg/observability"
)

func testSpinner(ctx context.Context, out io.Writer, message string) (*Spinner, *bytes.Buffer) {
	var term bytes.Buffer
	s := newSpinnerWithContext(ctx, out, message)
	s.term = &term
	return s, &term
}

func TestSpinnerDrawsMessage(t *testing.T) {
	s, term := testSpinner(context.Background(), io.Discard, "Opening fib.bgv:0...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(term.String(), "Opening fib.bgv:0...") {
		t.Errorf("terminal output missing message: %q", term.String())
	}
	if !strings.HasSuffix(term.String(), "\r") {
		t.Error("Stop() should leave the cursor at the start of a cleared line")
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s, _ := testSpinner(ctx, io.Discard, "Opening fib.bgv:0...")
	s.Start()
	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s, _ := testSpinner(context.Background(), io.Discard, "Opening fib.bgv:0...")
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithResult(t *testing.T) {
	var buf bytes.Buffer
	s, _ := testSpinner(context.Background(), &buf, "Rendering SVG...")
	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.StopWithSuccess("Rendered fib.svg")

	s, _ = testSpinner(context.Background(), &buf, "Rendering SVG...")
	s.Start()
	s.StopWithError("render failed")

	out := buf.String()
	for _, want := range []string{"Rendered fib.svg", "render failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

type countingPipelineHooks struct {
	observability.NoopPipelineHooks
	decodes, renders int
}

func (h *countingPipelineHooks) OnDecodeStart(context.Context, string, int) { h.decodes++ }
func (h *countingPipelineHooks) OnRenderStart(context.Context, string)      { h.renders++ }

func TestSpinnerTracksStages(t *testing.T) {
	observability.Reset()
	t.Cleanup(observability.Reset)

	prev := &countingPipelineHooks{}
	observability.SetPipelineHooks(prev)

	ctx := context.Background()
	s, _ := testSpinner(ctx, io.Discard, "Opening fib.bgv:2...")
	restore := s.trackStages()

	hooks := observability.Pipeline()
	steps := []struct {
		emit func()
		want string
	}{
		{func() { hooks.OnDecodeStart(ctx, "/tmp/dumps/fib.bgv", 2) }, "Decoding graph 2 of fib.bgv..."},
		{func() { hooks.OnAnnotate(ctx, []string{"graal", "fallback"}, 4) }, "Annotating (graal, fallback)..."},
		{func() { hooks.OnRenderStart(ctx, "svg") }, "Rendering SVG..."},
	}
	for _, step := range steps {
		step.emit()
		if got := s.Message(); got != step.want {
			t.Errorf("Message() = %q, want %q", got, step.want)
		}
	}

	if prev.decodes != 1 || prev.renders != 1 {
		t.Errorf("previous hooks saw %d decodes and %d renders, want 1 each", prev.decodes, prev.renders)
	}

	restore()
	if observability.Pipeline() != observability.PipelineHooks(prev) {
		t.Error("restore() should reinstall the previous hooks")
	}
}
