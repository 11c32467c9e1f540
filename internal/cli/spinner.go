package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/seafoam/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows which pipeline stage a render is in. Frames are drawn on
// term (stderr unless a test swaps it); results are printed to out.
type Spinner struct {
	out     io.Writer
	term    io.Writer
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}

	mu      sync.Mutex
	message string
	width   int
}

func newSpinner(out io.Writer, message string) *Spinner {
	return newSpinnerWithContext(context.Background(), out, message)
}

// newSpinnerWithContext creates a spinner that stops when ctx is cancelled.
func newSpinnerWithContext(ctx context.Context, out io.Writer, message string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		out:     out,
		term:    os.Stderr,
		ctx:     spinnerCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		message: message,
		width:   len(message),
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.mu.Lock()
				frame := spinnerFrames[i%len(spinnerFrames)]
				fmt.Fprintf(s.term, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
				s.mu.Unlock()
			}
		}
	}()
}

// SetMessage replaces the text shown next to the spinner.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// pad over the previous, possibly longer, message
	fmt.Fprintf(s.term, "\r%s", strings.Repeat(" ", s.width+4))
	s.message = message
	s.width = max(s.width, len(message))
}

// Message returns the text currently shown.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Stop stops the spinner and clears the line. It is safe to call twice.
func (s *Spinner) Stop() {
	s.cancel()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	<-s.stopped
	s.clearLine()
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.term, "\r%s\r", strings.Repeat(" ", s.width+4))
}

// StopWithSuccess stops the spinner and prints a success line.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess(s.out, "%s", message)
}

// StopWithError stops the spinner and prints an error line.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError(s.out, "%s", message)
}

// Cancelled reports whether the spinner stopped because its context ended.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

// =============================================================================
// Stage Tracking
// =============================================================================

// stageHooks moves the spinner through the decode and render stages and
// forwards every event to the hooks that were registered before it.
type stageHooks struct {
	observability.PipelineHooks
	spinner *Spinner
}

// trackStages installs stage hooks for s and returns a function that
// restores the previous pipeline hooks.
func (s *Spinner) trackStages() (restore func()) {
	prev := observability.Pipeline()
	observability.SetPipelineHooks(&stageHooks{PipelineHooks: prev, spinner: s})
	return func() { observability.SetPipelineHooks(prev) }
}

func (h *stageHooks) OnDecodeStart(ctx context.Context, file string, index int) {
	h.spinner.SetMessage(fmt.Sprintf("Decoding graph %d of %s...", index, filepath.Base(file)))
	h.PipelineHooks.OnDecodeStart(ctx, file, index)
}

func (h *stageHooks) OnAnnotate(ctx context.Context, applied []string, hidden int) {
	h.spinner.SetMessage(fmt.Sprintf("Annotating (%s)...", strings.Join(applied, ", ")))
	h.PipelineHooks.OnAnnotate(ctx, applied, hidden)
}

func (h *stageHooks) OnRenderStart(ctx context.Context, format string) {
	h.spinner.SetMessage(fmt.Sprintf("Rendering %s...", strings.ToUpper(format)))
	h.PipelineHooks.OnRenderStart(ctx, format)
}
