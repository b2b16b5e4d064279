package report

// MaxRecords is the local retention cap.
const MaxRecords = 60

// =============================================================================
// LIST OPERATIONS - shared by every local store implementation
// =============================================================================

// Upsert returns records with rec applied: a record with the same date is
// replaced at its index, otherwise rec is inserted at the front. The result
// is truncated to limit entries. The input slice is not modified.
func Upsert(records []Record, rec Record, limit int) []Record {
	out := make([]Record, 0, len(records)+1)
	idx := IndexOf(records, rec.Date)
	if idx >= 0 {
		out = append(out, records...)
		out[idx] = rec
	} else {
		out = append(out, rec)
		out = append(out, records...)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Remove returns records without the entry for date, and whether one was removed.
func Remove(records []Record, date string) ([]Record, bool) {
	out := make([]Record, 0, len(records))
	removed := false
	for _, r := range records {
		if r.Date == date {
			removed = true
			continue
		}
		out = append(out, r)
	}
	return out, removed
}

// IndexOf returns the index of the record for date, or -1.
func IndexOf(records []Record, date string) int {
	for i, r := range records {
		if r.Date == date {
			return i
		}
	}
	return -1
}

// Find returns the record for date.
func Find(records []Record, date string) (Record, bool) {
	if i := IndexOf(records, date); i >= 0 {
		return records[i], true
	}
	return Record{}, false
}
