/*
types.go - Core report types

PURPOSE:
  Defines the daily IT-operations report: one Record per calendar date,
  with typed rows for each category. The storage and sync layers treat
  rows as opaque sequences of string cells; the types here give the
  editor and the exporter compile-time shape checking.

KEY TYPES:
  Record:          One day's report (primary key: Date)
  ServerRow:       Location / Uptime Status / Notes
  BackupRow:       Task / Status / Notes
  SecurityRow:     Location / Notes
  NetworkRow:      Task / Location / Status / Notes
  SurveillanceRow: Location / Notes

WIRE FORMAT:
  Rows are encoded as JSON string arrays in column order, e.g.
    "servers": [["DC1", "Normal", "-"]]
  which is what the spreadsheet proxy and the persisted list carry.

SEE ALSO:
  - codec.go: Row JSON encoding
  - schema.go: Column headers per category
  - issues.go: Issue detection
*/
package report

// Record is one day's IT status report. Date is the primary key.
type Record struct {
	Date         string            `json:"date"`
	PreparedBy   string            `json:"preparedBy"`
	Servers      []ServerRow       `json:"servers"`
	Backups      []BackupRow       `json:"backups"`
	Security     []SecurityRow     `json:"security"`
	Network      []NetworkRow      `json:"network"`
	Surveillance []SurveillanceRow `json:"surveillance"`
	SummaryNotes string            `json:"summaryNotes"`
	NextActions  string            `json:"nextActions"`
}

// ServerRow is a row of the server status table.
type ServerRow struct {
	Location string
	Status   string
	Notes    string
}

// BackupRow is a row of the backup task table.
type BackupRow struct {
	Task   string
	Status string
	Notes  string
}

// SecurityRow is a row of the security alerts table.
type SecurityRow struct {
	Location string
	Notes    string
}

// NetworkRow is a row of the network & infrastructure table.
type NetworkRow struct {
	Task     string
	Location string
	Status   string
	Notes    string
}

// SurveillanceRow is a row of the surveillance table.
type SurveillanceRow struct {
	Location string
	Notes    string
}

// Cells returns the row in column order.
func (r ServerRow) Cells() []string { return []string{r.Location, r.Status, r.Notes} }

// Cells returns the row in column order.
func (r BackupRow) Cells() []string { return []string{r.Task, r.Status, r.Notes} }

// Cells returns the row in column order.
func (r SecurityRow) Cells() []string { return []string{r.Location, r.Notes} }

// Cells returns the row in column order.
func (r NetworkRow) Cells() []string { return []string{r.Task, r.Location, r.Status, r.Notes} }

// Cells returns the row in column order.
func (r SurveillanceRow) Cells() []string { return []string{r.Location, r.Notes} }

// Row is implemented by every category row type.
type Row interface {
	Cells() []string
}

// Table returns the rows of a category as cell slices, in order.
// Unknown categories return nil.
func (r Record) Table(c Category) [][]string {
	switch c {
	case CategoryServers:
		return cellsOf(r.Servers)
	case CategoryBackups:
		return cellsOf(r.Backups)
	case CategorySecurity:
		return cellsOf(r.Security)
	case CategoryNetwork:
		return cellsOf(r.Network)
	case CategorySurveillance:
		return cellsOf(r.Surveillance)
	}
	return nil
}

func cellsOf[T Row](rows []T) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = row.Cells()
	}
	return out
}
