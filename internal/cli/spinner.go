package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// spinnerFrames is the braille animation cycle shared by all spinners.
var spinnerFrames = [...]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner animates a one-line progress indicator on stderr while a capture
// or render runs. It stops on its own when the parent context is cancelled;
// all drawing happens on the spinner's goroutine, so stop must be called
// before writing other output to stderr.
type spinner struct {
	msg      string
	ctx      context.Context
	cancel   context.CancelFunc
	finished chan struct{}
}

// startSpinner begins animating msg and returns the running spinner.
func startSpinner(ctx context.Context, msg string) *spinner {
	ctx, cancel := context.WithCancel(ctx)
	s := &spinner{
		msg:      msg,
		ctx:      ctx,
		cancel:   cancel,
		finished: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *spinner) run() {
	defer close(s.finished)
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-s.ctx.Done():
			// Blank the line so the next print starts clean.
			fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", len(s.msg)+4))
			return
		case <-ticker.C:
			glyph := spinnerFrames[frame%len(spinnerFrames)]
			fmt.Fprintf(os.Stderr, "\r%s %s", styleIconSpinner.Render(glyph), StyleDim.Render(s.msg))
		}
	}
}

// stop ends the animation and waits for the line to be cleared. Safe to
// call more than once.
func (s *spinner) stop() {
	s.cancel()
	<-s.finished
}

// fail stops the animation and prints msg as an error.
func (s *spinner) fail(msg string) {
	s.stop()
	printError("%s", msg)
}
