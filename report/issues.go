/*
issues.go - Issue detection and status classification

PURPOSE:
  Flags reports that need attention and classifies status cells into
  badge levels for the printable export.

ISSUE RULES:
  - Server row status in {Warning, Critical, Offline}
  - Network row status in {Warning, Critical, Offline}
  - Backup row status == Failed
  Matching is exact; these values come from fixed select options.

BADGES (case-insensitive):
  ok:   normal, completed, verified, confirmed
  warn: warning, partial
  crit: critical, offline, failed
*/
package report

import "strings"

var (
	uptimeIssueStatuses = map[string]bool{"Warning": true, "Critical": true, "Offline": true}
	backupIssueStatuses = map[string]bool{"Failed": true}
)

// Issue is a flagged row.
type Issue struct {
	Category Category `json:"category"`
	Row      int      `json:"row"`
	Status   string   `json:"status"`
	Cells    []string `json:"cells"`
}

// Issues returns every flagged row of the record, in category order.
func Issues(r Record) []Issue {
	var flags []Issue
	for i, s := range r.Servers {
		if uptimeIssueStatuses[s.Status] {
			flags = append(flags, Issue{Category: CategoryServers, Row: i, Status: s.Status, Cells: s.Cells()})
		}
	}
	for i, b := range r.Backups {
		if backupIssueStatuses[b.Status] {
			flags = append(flags, Issue{Category: CategoryBackups, Row: i, Status: b.Status, Cells: b.Cells()})
		}
	}
	for i, n := range r.Network {
		if uptimeIssueStatuses[n.Status] {
			flags = append(flags, Issue{Category: CategoryNetwork, Row: i, Status: n.Status, Cells: n.Cells()})
		}
	}
	return flags
}

// HasIssues reports whether any row of the record is flagged.
func HasIssues(r Record) bool {
	return len(Issues(r)) > 0
}

// Badge is the display class of a status value.
type Badge string

const (
	BadgeNone Badge = ""
	BadgeOK   Badge = "ok"
	BadgeWarn Badge = "warn"
	BadgeCrit Badge = "crit"
)

var badges = map[string]Badge{
	"normal":    BadgeOK,
	"completed": BadgeOK,
	"verified":  BadgeOK,
	"confirmed": BadgeOK,
	"warning":   BadgeWarn,
	"partial":   BadgeWarn,
	"critical":  BadgeCrit,
	"offline":   BadgeCrit,
	"failed":    BadgeCrit,
}

// Classify maps a cell value to its badge. Unrecognized values get BadgeNone.
func Classify(value string) Badge {
	return badges[strings.ToLower(value)]
}
