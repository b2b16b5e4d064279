/*
handlers.go - HTTP API handlers for the report dashboard

PURPOSE:
  Exposes the synchronization policy and the exporters to the dashboard
  UI. Handles HTTP request/response and JSON serialization, and delegates
  everything else to the syncer and export packages.

ENDPOINTS:
  Reports:
    GET    /api/reports                     LoadAll (remote wins when non-empty)
    POST   /api/reports                     Save (local first, then remote)
    GET    /api/reports/{date}              One report from the local list
    DELETE /api/reports/{date}              Delete locally, then remotely
    GET    /api/reports/{date}/issues       Flagged rows

  Export:
    GET    /api/reports/{date}/print        Printable HTML (auto print)
    GET    /api/reports/{date}/download     HTML attachment, archived
    GET    /api/reports/{date}/export.xlsx  Workbook attachment
    POST   /api/reports/{date}/publish      Print surface, download fallback

  Dashboard:
    GET    /api/stats                       Totals and issue rate
    GET    /api/schema                      Column headers per category
    GET    /api/notifications               Recent toasts (?level=error)
    GET    /api/sync/log                    Recent remote interactions
    GET    /api/remote                      Remote endpoint settings
    PUT    /api/remote                      Change the remote endpoint

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call the syncer / exporter
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid body, missing date
  - 404: Report not found locally
  - 500: Local store or export failures

  A failed remote write is not an HTTP error: the record is saved locally
  and the response carries the remote result.

SECURITY NOTE:
  No authentication. The server binds to localhost by default.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - syncer/syncer.go: Policy
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/opsreport/export"
	"github.com/warp/opsreport/notify"
	"github.com/warp/opsreport/remote"
	"github.com/warp/opsreport/report"
	"github.com/warp/opsreport/syncer"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Syncer        *syncer.Syncer
	Publisher     *export.Publisher
	Notifications *notify.Buffer
	Hub           *notify.Hub
	Logger        *log.Logger

	// Now is used for default dates and export timestamps.
	Now func() time.Time

	mu        sync.RWMutex
	remoteCfg remote.Config
}

// NewHandler creates a handler. publisher and notifications may be nil.
func NewHandler(s *syncer.Syncer, publisher *export.Publisher, notifications *notify.Buffer) *Handler {
	if notifications == nil {
		notifications = notify.NewBuffer(50)
	}
	return &Handler{
		Syncer:        s,
		Publisher:     publisher,
		Notifications: notifications,
		Logger:        log.New(os.Stderr, "[api] ", log.LstdFlags),
		Now:           time.Now,
	}
}

// ApplyRemoteConfig builds a client for cfg and swaps it into the syncer.
// Used by PUT /api/remote and by config hot reload.
func (h *Handler) ApplyRemoteConfig(cfg remote.Config) {
	client := remote.New(cfg, remote.WithLogger(log.New(h.Logger.Writer(), "[remote] ", log.LstdFlags)))
	h.Syncer.SetRemote(client)

	h.mu.Lock()
	h.remoteCfg = cfg
	h.mu.Unlock()

	if client.Configured() {
		h.Logger.Printf("remote endpoint set (%s mode)", orDefault(string(cfg.WriteMode), string(remote.WriteModeConfirm)))
	} else {
		h.Logger.Printf("remote endpoint cleared, saving locally only")
	}
}

func (h *Handler) remoteSettings() remote.Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.remoteCfg
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// ListReports loads all reports, preferring the remote when it has any.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	records, source := h.Syncer.LoadAll(r.Context())
	writeJSON(w, http.StatusOK, ReportListResponse{
		Source:  source,
		Count:   len(records),
		Reports: toReportDTOs(records),
	})
}

// SaveReport saves a report locally, then pushes it to the remote.
func (h *Handler) SaveReport(w http.ResponseWriter, r *http.Request) {
	var rec report.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.Syncer.Save(r.Context(), rec, nil)
	if err != nil {
		if errors.Is(err, report.ErrMissingDate) {
			writeError(w, http.StatusBadRequest, "Report date is required", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save report", err)
		return
	}

	writeJSON(w, http.StatusOK, SaveReportResponse{
		Date:      result.Date,
		Remote:    result.Remote,
		Progress:  result.Progress,
		HasIssues: report.HasIssues(rec),
	})
}

// GetReport returns one report from the local list.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(rec))
}

// DeleteReport removes a report locally and asks the remote to do the same.
func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if err := h.Syncer.Delete(r.Context(), date); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete report", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetIssues lists the flagged rows of a report.
func (h *Handler) GetIssues(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	issues := report.Issues(rec)
	if issues == nil {
		issues = []report.Issue{}
	}
	writeJSON(w, http.StatusOK, IssuesResponse{Date: rec.Date, Count: len(issues), Issues: issues})
}

// =============================================================================
// EXPORT HANDLERS
// =============================================================================

// PrintReport renders the printable document inline. ?autoprint=false
// suppresses the print dialog script.
func (h *Handler) PrintReport(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	autoPrint := true
	if v := r.URL.Query().Get("autoprint"); v != "" {
		autoPrint, _ = strconv.ParseBool(v)
	}
	doc, err := export.HTML(rec, export.HTMLOptions{AutoPrint: autoPrint, GeneratedAt: h.Now()})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render report", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// DownloadReport serves the document as an attachment and keeps a copy in
// the archive. An archive failure is logged; the download still succeeds.
func (h *Handler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	doc, err := export.HTML(rec, export.HTMLOptions{GeneratedAt: h.Now()})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render report", err)
		return
	}
	name := export.FileName(rec.Date)
	if h.Publisher != nil && h.Publisher.Archive != nil {
		info, err := h.Publisher.Download(r.Context(), name, doc)
		if err != nil {
			h.Logger.Printf("WARNING: %v", err)
		} else {
			w.Header().Set("X-Archive-Location", info.Location)
		}
	}
	writeAttachment(w, name, "text/html; charset=utf-8", doc)
}

// ExportXLSX serves the report as a workbook.
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build workbook", err)
		return
	}
	writeAttachment(w, export.XLSXName(rec.Date),
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// PublishReport opens the print surface on the server host, falling back
// to the archive when it is unavailable.
func (h *Handler) PublishReport(w http.ResponseWriter, r *http.Request) {
	if h.Publisher == nil {
		writeError(w, http.StatusServiceUnavailable, "Publishing is not configured", nil)
		return
	}
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	delivery, err := h.Publisher.Publish(r.Context(), rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to publish report", err)
		return
	}
	writeJSON(w, http.StatusOK, delivery)
}

// =============================================================================
// DASHBOARD HANDLERS
// =============================================================================

// GetStats summarizes the local list.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, report.Summarize(h.Syncer.List(r.Context())))
}

// GetSchema returns the column layout of every category.
func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, report.Schemas())
}

// ListNotifications returns recent notifications, newest last.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	var levels []notify.Level
	for _, l := range r.URL.Query()["level"] {
		levels = append(levels, notify.Level(l))
	}
	entries := h.Notifications.Entries(levels...)
	if entries == nil {
		entries = []notify.Notification{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// ListSyncLog returns recent remote interactions, newest first.
func (h *Handler) ListSyncLog(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}
	entries, err := h.Syncer.History(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read sync log", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetRemote shows the remote endpoint settings.
func (h *Handler) GetRemote(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toRemoteSettings(h.remoteSettings()))
}

// UpdateRemote changes the endpoint without a restart.
func (h *Handler) UpdateRemote(w http.ResponseWriter, r *http.Request) {
	var req UpdateRemoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	cfg := h.remoteSettings()
	cfg.Endpoint = req.Endpoint
	if req.WriteMode != "" {
		mode := remote.WriteMode(req.WriteMode)
		if mode != remote.WriteModeConfirm && mode != remote.WriteModeDispatch {
			writeError(w, http.StatusBadRequest, "writeMode must be confirm or dispatch", nil)
			return
		}
		cfg.WriteMode = mode
	}
	h.ApplyRemoteConfig(cfg)
	writeJSON(w, http.StatusOK, toRemoteSettings(cfg))
}

// Health reports liveness plus a few counters.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:       "ok",
		LocalReports: len(h.Syncer.List(r.Context())),
		Remote:       h.remoteSettings().Endpoint != "",
	}
	if h.Hub != nil {
		resp.Clients = h.Hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

// lookup finds the {date} report or writes a 404.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (report.Record, bool) {
	date := chi.URLParam(r, "date")
	rec, err := h.Syncer.Get(r.Context(), date)
	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Report not found", err)
		} else {
			writeError(w, http.StatusInternalServerError, "Failed to read report", err)
		}
		return report.Record{}, false
	}
	return rec, true
}

func toRemoteSettings(cfg remote.Config) RemoteSettingsDTO {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = remote.DefaultTimeout
	}
	return RemoteSettingsDTO{
		Configured: cfg.Endpoint != "",
		Endpoint:   cfg.Endpoint,
		WriteMode:  orDefault(string(cfg.WriteMode), string(remote.WriteModeConfirm)),
		Timeout:    timeout.String(),
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeAttachment(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
