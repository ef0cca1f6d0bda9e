package agent

import "sort"

// History is the append-only round log. The round controller is the single
// writer; records are never modified after append.
type History struct {
	records []RoundRecord
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// Append assigns the next index to the record, stores it, and returns the
// assigned index.
func (h *History) Append(rec RoundRecord) int {
	rec.Index = len(h.records)
	h.records = append(h.records, rec)
	return rec.Index
}

// Len returns the number of recorded rounds.
func (h *History) Len() int { return len(h.records) }

// Records returns a copy of all records, oldest first.
func (h *History) Records() []RoundRecord {
	out := make([]RoundRecord, len(h.records))
	copy(out, h.records)
	return out
}

// LatestMode returns the mode at the start of the most recent round, or
// web browsing for an empty history.
func (h *History) LatestMode() Mode {
	for i := len(h.records) - 1; i >= 0; i-- {
		if h.records[i].ModeAtStart != "" {
			return h.records[i].ModeAtStart
		}
	}
	return ModeWebBrowsing
}

// AsContext returns the records to feed the model, oldest first, truncated
// to at most maxRounds. Truncation drops the oldest rounds first; the newest
// round is always kept, then round 0, then the most recent round carrying a
// system notice, so the model never loses its last outcome, the task
// opening, or a pending correction. maxRounds <= 0 means no limit.
func (h *History) AsContext(maxRounds int) []RoundRecord {
	if maxRounds <= 0 || len(h.records) <= maxRounds {
		return h.Records()
	}

	last := len(h.records) - 1
	keep := make(map[int]struct{}, maxRounds)
	keep[last] = struct{}{}
	if len(keep) < maxRounds {
		keep[0] = struct{}{}
	}
	if idx := h.latestNoticeIndex(); idx >= 0 && len(keep) < maxRounds {
		keep[idx] = struct{}{}
	}
	for i := last; i >= 0 && len(keep) < maxRounds; i-- {
		keep[i] = struct{}{}
	}

	indices := make([]int, 0, len(keep))
	for i := range keep {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	out := make([]RoundRecord, 0, len(indices))
	for _, i := range indices {
		out = append(out, h.records[i])
	}
	return out
}

func (h *History) latestNoticeIndex() int {
	for i := len(h.records) - 1; i >= 0; i-- {
		if h.records[i].SystemNotice != "" {
			return i
		}
	}
	return -1
}
