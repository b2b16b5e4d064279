package report_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/opsreport/report"
)

func TestRecord_EncodesRowsAsStringArrays(t *testing.T) {
	rec := sampleRecord("2024-03-01")

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "2024-03-01", raw["date"])
	assert.Equal(t, "Sam", raw["preparedBy"])
	assert.Equal(t, []any{[]any{"HQ DC1", "Normal", "Patched"}}, raw["servers"])
	assert.Equal(t, []any{[]any{"WAN link", "Branch B", "Normal", ""}}, raw["network"])
	assert.Equal(t, "Quiet day.", raw["summaryNotes"])
	assert.Equal(t, "Replace UPS battery.", raw["nextActions"])
}

func TestRecord_RoundTrip(t *testing.T) {
	// GIVEN: A record with every category populated
	// WHEN: It is encoded and decoded
	// THEN: The decoded record equals the original

	rec := sampleRecord("2024-03-01")
	rec.Network = append(rec.Network, report.NetworkRow{Task: "Switch", Location: "HQ", Status: "Offline", Notes: "PSU"})

	data, err := report.EncodeList([]report.Record{rec})
	require.NoError(t, err)
	out, err := report.DecodeList(data)
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, rec, out[0])
}

func TestRow_ShortArrayPaddedAndExtraCellsDropped(t *testing.T) {
	payload := `{
		"date": "2024-03-01",
		"servers": [["HQ"]],
		"network": [["WAN", "HQ", "Normal", "ok", "extra", "more"]]
	}`

	var rec report.Record
	require.NoError(t, json.Unmarshal([]byte(payload), &rec))

	assert.Equal(t, []report.ServerRow{{Location: "HQ"}}, rec.Servers)
	assert.Equal(t, []report.NetworkRow{{Task: "WAN", Location: "HQ", Status: "Normal", Notes: "ok"}}, rec.Network)
}

func TestRow_NonStringCellsKeepTheirText(t *testing.T) {
	// GIVEN: A proxy payload where numeric-looking cells arrive as numbers
	// WHEN: The record is decoded
	// THEN: Numbers and bools keep their JSON text and null is empty

	payload := `{
		"date": "2024-03-01",
		"servers": [["DC1", "Normal", 42]],
		"network": [["WAN", null, true, 99.5]]
	}`

	var rec report.Record
	require.NoError(t, json.Unmarshal([]byte(payload), &rec))

	assert.Equal(t, []report.ServerRow{{Location: "DC1", Status: "Normal", Notes: "42"}}, rec.Servers)
	assert.Equal(t, []report.NetworkRow{{Task: "WAN", Location: "", Status: "true", Notes: "99.5"}}, rec.Network)
}

func TestRow_RejectsNonArray(t *testing.T) {
	var rec report.Record
	err := json.Unmarshal([]byte(`{"date":"2024-03-01","servers":[{"location":"HQ"}]}`), &rec)
	assert.Error(t, err)
}

func TestDecodeList_EmptyInput(t *testing.T) {
	out, err := report.DecodeList(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NotNil(t, out)

	out, err = report.DecodeList([]byte("null"))
	require.NoError(t, err)
	assert.NotNil(t, out)
}

func TestEncodeList_NilIsEmptyArray(t *testing.T) {
	data, err := report.EncodeList(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestRecord_Table(t *testing.T) {
	rec := sampleRecord("2024-03-01")

	assert.Equal(t, [][]string{{"HQ DC1", "Normal", "Patched"}}, rec.Table(report.CategoryServers))
	assert.Equal(t, [][]string{{"Warehouse", "Cam 3 dirty lens"}}, rec.Table(report.CategorySurveillance))
	assert.Nil(t, rec.Table(report.Category("unknown")))
}

func TestSchemas_MatchRowWidths(t *testing.T) {
	// Every table's header count matches the width of its row type.
	rec := sampleRecord("2024-03-01")
	for _, s := range report.Schemas() {
		rows := rec.Table(s.Category)
		require.NotEmpty(t, rows, s.Category)
		assert.Len(t, rows[0], len(s.Headers), s.Category)
		if s.StatusIndex != report.NoStatus {
			assert.Less(t, s.StatusIndex, len(s.Headers))
		}
	}
	assert.Len(t, report.Schemas(), len(report.Categories))
}
