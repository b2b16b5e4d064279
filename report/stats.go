package report

import "github.com/shopspring/decimal"

// Stats summarizes a list of reports.
type Stats struct {
	Total      int              `json:"total"`
	WithIssues int              `json:"with_issues"`
	IssueRate  decimal.Decimal  `json:"issue_rate"` // percent, one decimal place
	Latest     string           `json:"latest,omitempty"`
	ByCategory map[Category]int `json:"by_category"`
}

// Summarize counts flagged reports and flagged rows per category.
// Latest is the first record's date, since lists are most-recent-first.
func Summarize(records []Record) Stats {
	s := Stats{
		Total:      len(records),
		IssueRate:  decimal.Zero,
		ByCategory: make(map[Category]int),
	}
	for _, r := range records {
		flags := Issues(r)
		if len(flags) > 0 {
			s.WithIssues++
		}
		for _, f := range flags {
			s.ByCategory[f.Category]++
		}
	}
	if s.Total > 0 {
		s.Latest = records[0].Date
		s.IssueRate = decimal.NewFromInt(int64(s.WithIssues)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(s.Total))).
			Round(1)
	}
	return s
}
