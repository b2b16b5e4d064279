package report

// Category names a report table.
type Category string

const (
	CategoryServers      Category = "servers"
	CategoryBackups      Category = "backups"
	CategorySecurity     Category = "security"
	CategoryNetwork      Category = "network"
	CategorySurveillance Category = "surveillance"
)

// Categories lists report tables in document order.
var Categories = []Category{
	CategoryServers,
	CategoryBackups,
	CategorySecurity,
	CategoryNetwork,
	CategorySurveillance,
}

// NoStatus marks a category without a status column.
const NoStatus = -1

// TableSchema describes the fixed column layout of one category.
type TableSchema struct {
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Headers     []string `json:"headers"`
	StatusIndex int      `json:"status_index"`
	Options     []string `json:"options,omitempty"` // allowed status values
}

var (
	uptimeOptions = []string{"Normal", "Warning", "Critical", "Offline"}
	backupOptions = []string{"Completed", "Partial", "Failed"}
)

var schemas = map[Category]TableSchema{
	CategoryServers: {
		Category:    CategoryServers,
		Title:       "1A. Server Status",
		Headers:     []string{"Location", "Uptime Status", "Notes / Actions"},
		StatusIndex: 1,
		Options:     uptimeOptions,
	},
	CategoryBackups: {
		Category:    CategoryBackups,
		Title:       "1B. Backup Tasks",
		Headers:     []string{"Location / Task", "Status", "Notes"},
		StatusIndex: 1,
		Options:     backupOptions,
	},
	CategorySecurity: {
		Category:    CategorySecurity,
		Title:       "1C. Security Alerts",
		Headers:     []string{"Location", "Notes / Alerts"},
		StatusIndex: NoStatus,
	},
	CategoryNetwork: {
		Category:    CategoryNetwork,
		Title:       "2. Network & Infrastructure",
		Headers:     []string{"Task", "Location", "Status", "Notes"},
		StatusIndex: 2,
		Options:     uptimeOptions,
	},
	CategorySurveillance: {
		Category:    CategorySurveillance,
		Title:       "3. Surveillance",
		Headers:     []string{"Location", "Notes / Alerts"},
		StatusIndex: NoStatus,
	},
}

// Schema returns the column layout for a category.
func Schema(c Category) (TableSchema, bool) {
	s, ok := schemas[c]
	return s, ok
}

// Schemas returns all layouts in document order.
func Schemas() []TableSchema {
	out := make([]TableSchema, 0, len(Categories))
	for _, c := range Categories {
		out = append(out, schemas[c])
	}
	return out
}
