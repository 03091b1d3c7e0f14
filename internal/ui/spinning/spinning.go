// Package spinning shows a spinning symbol on the terminal while the program is busy, and handles
// interruptions (Ctrl+C) gracefully.
package spinning

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"k8s.io/klog/v2"
)

var (
	ThemeAscii = []rune(`|/-\`)
	ThemeDisc  = []rune("◐◓◑◒")

	// Theme defaults to ThemeDisc, but it can be set to anything else before calling New.
	Theme = ThemeDisc
)

// Tick is the interval between symbols.
var Tick = 250 * time.Millisecond

// Spinner displays the spinning symbol on a separate goroutine, until Done is called.
type Spinner struct {
	wg     sync.WaitGroup
	cancel func()
}

// SafeInterrupt captures SIGINT (Ctrl+C) and SIGTERM, and calls onInterrupt.
// If the program hasn't exited after gracePeriod, it resets the terminal and exits.
func SafeInterrupt(onInterrupt func(), gracePeriod time.Duration) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigChan
		fmt.Println()
		klog.Errorf("Interrupted (signal %q), shutting down within %s", s, gracePeriod)
		if onInterrupt != nil {
			go onInterrupt()
		}
		time.Sleep(gracePeriod)
		Reset(os.Stdout)
		klog.Fatalf("Grace period of %s expired, exiting.", gracePeriod)
	}()
}

// Reset terminal: make cursor visible, restore default colors.
func Reset(out io.Writer) {
	_, _ = fmt.Fprint(out, "\033[?25h\033[39;49;0m\n")
}

// New starts a spinner writing to out (os.Stdout if nil). It stops when ctx is done or Done is called.
func New(ctx context.Context, out io.Writer) *Spinner {
	if out == nil {
		out = os.Stdout
	}
	theme := Theme
	s := &Spinner{}
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(Tick)
		defer ticker.Stop()
		_, _ = fmt.Fprint(out, "\033[?25l ") // Hide cursor.
		for idx := 0; ; idx = (idx + 1) % len(theme) {
			_, _ = fmt.Fprintf(out, "\b%c", theme[idx])
			select {
			case <-ctx.Done():
				_, _ = fmt.Fprint(out, "\b \b\033[?25h") // Erase symbol, restore cursor.
				return
			case <-ticker.C:
			}
		}
	}()
	return s
}

// Done stops the spinner and waits for it to clean up. It can be called more than once.
func (s *Spinner) Done() {
	s.cancel()
	s.wg.Wait()
}
