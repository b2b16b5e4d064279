package export_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/opsreport/blob"
	"github.com/warp/opsreport/export"
	"github.com/warp/opsreport/notify"
)

type fakeSurface struct {
	err    error
	opened []string
	doc    []byte
}

func (f *fakeSurface) Open(_ context.Context, name string, doc []byte) error {
	f.opened = append(f.opened, name)
	f.doc = doc
	return f.err
}

func TestPublish_PrintSurface(t *testing.T) {
	surface := &fakeSurface{}
	archive := blob.NewMemory()
	p := &export.Publisher{Surface: surface, Archive: archive}

	d, err := p.Publish(context.Background(), sampleRecord())

	require.NoError(t, err)
	assert.Equal(t, export.Delivery{Method: export.MethodPrint, Name: "IT_Report_2024-03-01.html"}, d)
	assert.Contains(t, string(surface.doc), "window.print()")
	stored, _ := archive.List(context.Background(), "")
	assert.Empty(t, stored, "nothing downloaded when printing works")
}

func TestPublish_FallsBackToDownload(t *testing.T) {
	// GIVEN: A print surface that cannot open
	// WHEN: A report is published
	// THEN: The document is stored under its download name and the user is told

	surface := &fakeSurface{err: export.ErrSurfaceUnavailable}
	archive := blob.NewMemory()
	notes := notify.NewBuffer(5)
	p := &export.Publisher{Surface: surface, Archive: archive, Notifier: notes}

	d, err := p.Publish(context.Background(), sampleRecord())

	require.NoError(t, err)
	assert.Equal(t, export.MethodDownload, d.Method)
	assert.Equal(t, "memory://IT_Report_2024-03-01.html", d.Location)

	_, rc, err := archive.Get(context.Background(), "IT_Report_2024-03-01.html")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Contains(t, string(body), "b-crit")

	n, ok := notes.Latest()
	require.True(t, ok)
	assert.Equal(t, notify.LevelInfo, n.Level)
	assert.Equal(t, "HTML downloaded (print view unavailable)", n.Message)
}

func TestPublish_NoSurfaceDownloads(t *testing.T) {
	p := &export.Publisher{Archive: blob.NewMemory()}

	d, err := p.Publish(context.Background(), sampleRecord())

	require.NoError(t, err)
	assert.Equal(t, export.MethodDownload, d.Method)
}

func TestPublish_NoTargetIsAnError(t *testing.T) {
	p := &export.Publisher{Surface: &fakeSurface{err: errors.New("blocked")}}

	_, err := p.Publish(context.Background(), sampleRecord())

	assert.ErrorContains(t, err, "no download target")
}

func TestCommandSurface_MissingCommand(t *testing.T) {
	s := export.CommandSurface{Command: "opsreport-no-such-opener", Dir: t.TempDir()}

	err := s.Open(context.Background(), "x.html", []byte("<p>"))

	assert.ErrorIs(t, err, export.ErrSurfaceUnavailable)
}

func TestCommandSurface_RunsCommand(t *testing.T) {
	s := export.CommandSurface{Command: "true", Dir: t.TempDir()}

	err := s.Open(context.Background(), "x.html", []byte("<p>"))

	assert.NoError(t, err)
}
