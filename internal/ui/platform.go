package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/x/ansi"
)

// copyToClipboardFn and openURLFn are the active implementations for clipboard
// and browser operations. Tests replace them via StubPlatformActions.
var (
	copyToClipboardFn = copyToClipboardImpl
	openURLFn         = openURLImpl

	// osc52Out receives the OSC 52 sequence when no system clipboard works.
	osc52Out io.Writer = os.Stdout
)

// CopyToClipboard copies text to the system clipboard.
func CopyToClipboard(text string) error { return copyToClipboardFn(text) }

// OpenURL opens a URL in the default browser.
func OpenURL(url string) error { return openURLFn(url) }

// StubPlatformActions replaces clipboard and browser functions with no-ops
// and returns a restore function.
func StubPlatformActions() (restore func()) {
	origCopy := copyToClipboardFn
	origOpen := openURLFn
	copyToClipboardFn = func(string) error { return nil }
	openURLFn = func(string) error { return nil }
	return func() {
		copyToClipboardFn = origCopy
		openURLFn = origOpen
	}
}

// SystemClipboard writes through CopyToClipboard. It satisfies
// formatpage.Clipboard.
type SystemClipboard struct{}

// WriteText copies text, giving up when ctx ends first.
func (SystemClipboard) WriteText(ctx context.Context, text string) error {
	done := make(chan error, 1)
	go func() { done <- CopyToClipboard(text) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("clipboard: %w", ctx.Err())
	}
}

// copyToClipboardImpl tries the platform clipboard, then asks the terminal
// to set it with OSC 52, which also works over SSH.
func copyToClipboardImpl(text string) error {
	if !clipboard.Unsupported {
		if err := clipboard.WriteAll(text); err == nil {
			return nil
		}
	}
	if _, err := io.WriteString(osc52Out, ansi.SetSystemClipboard(text)); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	return nil
}

// openURLImpl starts the platform browser. The child outlives the caller.
func openURLImpl(url string) error {
	ctx := context.Background()

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	case "linux":
		if _, err := exec.LookPath("xdg-open"); err != nil {
			return fmt.Errorf("xdg-open not found (install xdg-utils)")
		}
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
