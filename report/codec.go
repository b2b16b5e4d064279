package report

import (
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// ROW ENCODING - rows travel as JSON string arrays
// =============================================================================

// decodeCells reads a JSON array and pads it to width.
// Missing cells decode as empty strings and extra cells are dropped, which
// keeps older payloads (fewer columns) readable. Spreadsheet proxies send
// numeric-looking cells as numbers, so non-string scalars keep their JSON
// text and null becomes "".
func decodeCells(data []byte, width int) ([]string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("row must be an array: %w", err)
	}
	out := make([]string, width)
	for i := 0; i < len(raw) && i < width; i++ {
		out[i] = cellText(raw[i])
	}
	return out, nil
}

func cellText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}

func (r ServerRow) MarshalJSON() ([]byte, error) { return json.Marshal(r.Cells()) }

func (r *ServerRow) UnmarshalJSON(data []byte) error {
	c, err := decodeCells(data, 3)
	if err != nil {
		return err
	}
	*r = ServerRow{Location: c[0], Status: c[1], Notes: c[2]}
	return nil
}

func (r BackupRow) MarshalJSON() ([]byte, error) { return json.Marshal(r.Cells()) }

func (r *BackupRow) UnmarshalJSON(data []byte) error {
	c, err := decodeCells(data, 3)
	if err != nil {
		return err
	}
	*r = BackupRow{Task: c[0], Status: c[1], Notes: c[2]}
	return nil
}

func (r SecurityRow) MarshalJSON() ([]byte, error) { return json.Marshal(r.Cells()) }

func (r *SecurityRow) UnmarshalJSON(data []byte) error {
	c, err := decodeCells(data, 2)
	if err != nil {
		return err
	}
	*r = SecurityRow{Location: c[0], Notes: c[1]}
	return nil
}

func (r NetworkRow) MarshalJSON() ([]byte, error) { return json.Marshal(r.Cells()) }

func (r *NetworkRow) UnmarshalJSON(data []byte) error {
	c, err := decodeCells(data, 4)
	if err != nil {
		return err
	}
	*r = NetworkRow{Task: c[0], Location: c[1], Status: c[2], Notes: c[3]}
	return nil
}

func (r SurveillanceRow) MarshalJSON() ([]byte, error) { return json.Marshal(r.Cells()) }

func (r *SurveillanceRow) UnmarshalJSON(data []byte) error {
	c, err := decodeCells(data, 2)
	if err != nil {
		return err
	}
	*r = SurveillanceRow{Location: c[0], Notes: c[1]}
	return nil
}

// =============================================================================
// LIST ENCODING - the persisted form of the local store
// =============================================================================

// EncodeList encodes records in the persisted JSON form.
func EncodeList(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	return json.Marshal(records)
}

// DecodeList decodes the persisted JSON form. Empty input is an empty list.
func DecodeList(data []byte) ([]Record, error) {
	if len(data) == 0 {
		return []Record{}, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}
