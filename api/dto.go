/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON shapes exchanged with the dashboard UI. Reports travel in their
  wire form (rows as string arrays), the same form the remote endpoint and
  the local store use, so the UI can bind tables by column index.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

SEE ALSO:
  - handlers.go: Uses these types
  - report/types.go: Record
*/
package api

import (
	"github.com/warp/opsreport/remote"
	"github.com/warp/opsreport/report"
	"github.com/warp/opsreport/syncer"
)

// =============================================================================
// REPORTS
// =============================================================================

// ReportDTO is a report plus the display fields the list view needs.
type ReportDTO struct {
	report.Record
	DisplayDate string `json:"displayDate"`
	HasIssues   bool   `json:"hasIssues"`
}

// ReportListResponse is returned by GET /api/reports.
type ReportListResponse struct {
	Source  syncer.Source `json:"source"`
	Count   int           `json:"count"`
	Reports []ReportDTO   `json:"reports"`
}

// SaveReportResponse is returned by POST /api/reports.
type SaveReportResponse struct {
	Date      string            `json:"date"`
	Remote    remote.Result     `json:"remote"`
	Progress  []syncer.Progress `json:"progress"`
	HasIssues bool              `json:"hasIssues"`
}

// IssuesResponse lists the flagged rows of one report.
type IssuesResponse struct {
	Date   string         `json:"date"`
	Count  int            `json:"count"`
	Issues []report.Issue `json:"issues"`
}

// =============================================================================
// REMOTE SETTINGS
// =============================================================================

// RemoteSettingsDTO shows the remote endpoint configuration.
type RemoteSettingsDTO struct {
	Configured bool   `json:"configured"`
	Endpoint   string `json:"endpoint"`
	WriteMode  string `json:"writeMode"`
	Timeout    string `json:"timeout"`
}

// UpdateRemoteRequest changes the remote endpoint at runtime.
// An empty endpoint disables remote sync.
type UpdateRemoteRequest struct {
	Endpoint  string `json:"endpoint"`
	WriteMode string `json:"writeMode,omitempty"`
}

// =============================================================================
// OPERATIONS
// =============================================================================

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status       string `json:"status"`
	LocalReports int    `json:"localReports"`
	Remote       bool   `json:"remoteConfigured"`
	Clients      int    `json:"wsClients"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toReportDTO(r report.Record) ReportDTO {
	return ReportDTO{
		Record:      r,
		DisplayDate: report.FormatDateShort(r.Date),
		HasIssues:   report.HasIssues(r),
	}
}

func toReportDTOs(records []report.Record) []ReportDTO {
	dtos := make([]ReportDTO, len(records))
	for i, r := range records {
		dtos[i] = toReportDTO(r)
	}
	return dtos
}
