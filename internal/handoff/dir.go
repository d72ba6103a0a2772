package handoff

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/ggonsajang/comcard/internal/artifact"
)

// Opener opens a URL with the desktop's default handler.
type Opener func(ctx context.Context, link string) error

// SystemOpener starts xdg-open, open or the Windows URL handler.
func SystemOpener(ctx context.Context, link string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", link)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", link)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", link)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", cmd.Path, err)
	}
	return cmd.Process.Release()
}

// Dir writes artifacts into a directory. Links are opened with Opener, or
// only logged when Opener is nil. Notices go to Out when set.
type Dir struct {
	Path   string
	Opener Opener
	Out    io.Writer
	Logger *slog.Logger

	mu      sync.Mutex
	written []string
}

var _ Handoff = (*Dir)(nil)

func NewDir(path string, opener Opener, out io.Writer, logger *slog.Logger) *Dir {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dir{Path: path, Opener: opener, Out: out, Logger: logger}
}

func (d *Dir) Deliver(ctx context.Context, a artifact.Artifact) error {
	if err := os.MkdirAll(d.Path, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(d.Path, filepath.Base(a.Name))
	if err := os.WriteFile(path, a.Data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", a.Name, err)
	}

	d.mu.Lock()
	d.written = append(d.written, path)
	d.mu.Unlock()

	d.Logger.InfoContext(ctx, "Artifact written", "path", path, "bytes", len(a.Data))
	return nil
}

func (d *Dir) Open(ctx context.Context, link string, after time.Duration) error {
	if err := Sleep(ctx, after); err != nil {
		return err
	}
	if d.Opener == nil {
		d.Logger.InfoContext(ctx, "Mail draft ready", "link", link)
		if d.Out != nil {
			fmt.Fprintln(d.Out, link)
		}
		return nil
	}
	if err := d.Opener(ctx, link); err != nil {
		return fmt.Errorf("open mail link: %w", err)
	}
	return nil
}

func (d *Dir) Notify(ctx context.Context, msg string) {
	d.Logger.InfoContext(ctx, "Notice", "message", msg)
	if d.Out != nil {
		fmt.Fprintln(d.Out, msg)
	}
}

// Written returns the paths delivered so far.
func (d *Dir) Written() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.written...)
}
