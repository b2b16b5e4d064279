package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/warp/opsreport/blob"
	"github.com/warp/opsreport/notify"
	"github.com/warp/opsreport/report"
)

// ErrSurfaceUnavailable is returned by surfaces that cannot show a document.
var ErrSurfaceUnavailable = errors.New("print surface unavailable")

// Surface shows a document interactively (a browser tab with a print dialog).
type Surface interface {
	Open(ctx context.Context, name string, doc []byte) error
}

// Method says how a document reached the user.
type Method string

const (
	MethodPrint    Method = "print"
	MethodDownload Method = "download"
)

// Delivery describes a published document.
type Delivery struct {
	Method   Method `json:"method"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// FileName is the download name of a report's HTML document.
func FileName(date string) string {
	return fmt.Sprintf("IT_Report_%s.html", date)
}

// Publisher renders reports and hands them to a print surface, falling
// back to the archive when the surface cannot be opened.
type Publisher struct {
	Surface  Surface
	Archive  blob.Store
	Notifier notify.Notifier
	Logger   *log.Logger
	Now      func() time.Time
}

// Publish renders rec and delivers it.
func (p *Publisher) Publish(ctx context.Context, rec report.Record) (Delivery, error) {
	doc, err := HTML(rec, HTMLOptions{AutoPrint: true, GeneratedAt: p.now()})
	if err != nil {
		return Delivery{}, fmt.Errorf("failed to render report: %w", err)
	}
	name := FileName(rec.Date)

	if p.Surface != nil {
		err := p.Surface.Open(ctx, name, doc)
		if err == nil {
			return Delivery{Method: MethodPrint, Name: name}, nil
		}
		p.logf("print surface failed, falling back to download: %v", err)
	}

	info, err := p.Download(ctx, name, doc)
	if err != nil {
		return Delivery{}, err
	}
	notify.Send(p.Notifier, notify.LevelInfo, "HTML downloaded (print view unavailable)")
	return Delivery{Method: MethodDownload, Name: name, Location: info.Location}, nil
}

// Download stores doc in the archive under name.
func (p *Publisher) Download(ctx context.Context, name string, doc []byte) (blob.Info, error) {
	if p.Archive == nil {
		return blob.Info{}, fmt.Errorf("no download target configured for %s", name)
	}
	info, err := p.Archive.Put(ctx, name, bytes.NewReader(doc), "text/html; charset=utf-8")
	if err != nil {
		return blob.Info{}, fmt.Errorf("failed to store %s: %w", name, err)
	}
	return info, nil
}

func (p *Publisher) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Publisher) logf(format string, args ...any) {
	if p.Logger != nil {
		p.Logger.Printf(format, args...)
	}
}

// =============================================================================
// COMMAND SURFACE - open the document with the desktop's default handler
// =============================================================================

// CommandSurface writes the document to a temp dir and opens it with an
// external command (xdg-open, open, ...).
type CommandSurface struct {
	// Command and Args run with the file path appended. Empty Command uses
	// the platform default.
	Command string
	Args    []string
	Dir     string
}

// Open implements Surface.
func (c CommandSurface) Open(ctx context.Context, name string, doc []byte) error {
	command, args := c.Command, c.Args
	if command == "" {
		command, args = defaultOpener()
	}
	if command == "" {
		return fmt.Errorf("%w: no opener for %s", ErrSurfaceUnavailable, runtime.GOOS)
	}
	if _, err := exec.LookPath(command); err != nil {
		return fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}

	dir := c.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}

	cmd := exec.CommandContext(ctx, command, append(append([]string{}, args...), path)...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}
	return nil
}

func defaultOpener() (string, []string) {
	switch runtime.GOOS {
	case "darwin":
		return "open", nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", nil
	}
	return "", nil
}
