package agent

import "testing"

func record(mode Mode, notice string) RoundRecord {
	return RoundRecord{ModeAtStart: mode, SystemNotice: notice}
}

func TestHistory_AppendAssignsSequentialIndices(t *testing.T) {
	h := NewHistory()
	for i := 0; i < 5; i++ {
		if idx := h.Append(record(ModeWebBrowsing, "")); idx != i {
			t.Fatalf("append %d returned index %d", i, idx)
		}
	}
	recs := h.Records()
	for i, r := range recs {
		if r.Index != i {
			t.Fatalf("record %d has index %d", i, r.Index)
		}
	}
}

func TestHistory_LatestMode(t *testing.T) {
	h := NewHistory()
	if h.LatestMode() != ModeWebBrowsing {
		t.Fatal("empty history must report web browsing")
	}
	h.Append(record(ModeWebBrowsing, ""))
	h.Append(record(ModeLocalFileProcessing, ""))
	if h.LatestMode() != ModeLocalFileProcessing {
		t.Fatalf("latest mode wrong: %s", h.LatestMode())
	}
}

func TestHistory_AsContextNoTruncation(t *testing.T) {
	h := NewHistory()
	h.Append(record(ModeWebBrowsing, ""))
	h.Append(record(ModeWebBrowsing, ""))
	if got := h.AsContext(0); len(got) != 2 {
		t.Fatalf("unlimited context truncated: %d", len(got))
	}
	if got := h.AsContext(5); len(got) != 2 {
		t.Fatalf("oversized window truncated: %d", len(got))
	}
}

func TestHistory_AsContextKeepsRoundZeroAndLatestNotice(t *testing.T) {
	h := NewHistory()
	h.Append(record(ModeWebBrowsing, ""))               // 0
	h.Append(record(ModeWebBrowsing, "switched modes")) // 1
	for i := 0; i < 6; i++ {
		h.Append(record(ModeLocalFileProcessing, "")) // 2..7
	}

	got := h.AsContext(4)
	if len(got) != 4 {
		t.Fatalf("window not honored: %d records", len(got))
	}
	if got[0].Index != 0 {
		t.Fatalf("round 0 dropped, first is %d", got[0].Index)
	}
	foundNotice := false
	for _, r := range got {
		if r.Index == 1 {
			foundNotice = true
		}
	}
	if !foundNotice {
		t.Fatal("most recent notice round dropped")
	}
	for i := 1; i < len(got); i++ {
		if got[i].Index <= got[i-1].Index {
			t.Fatalf("context out of order: %d then %d", got[i-1].Index, got[i].Index)
		}
	}
	if got[len(got)-1].Index != 7 {
		t.Fatalf("most recent round dropped, last is %d", got[len(got)-1].Index)
	}
}

func TestHistory_AsContextNewestBeatsOlderNotice(t *testing.T) {
	h := NewHistory()
	h.Append(record(ModeWebBrowsing, ""))               // 0
	h.Append(record(ModeWebBrowsing, "switched modes")) // 1
	for i := 0; i < 6; i++ {
		h.Append(record(ModeLocalFileProcessing, "")) // 2..7
	}

	// A tight window must never push out the model's own latest outcome.
	got := h.AsContext(2)
	if len(got) != 2 || got[0].Index != 0 || got[1].Index != 7 {
		t.Fatalf("window 2 wrong: %v", indicesOf(got))
	}

	got = h.AsContext(1)
	if len(got) != 1 || got[0].Index != 7 {
		t.Fatalf("window 1 must keep the newest round: %v", indicesOf(got))
	}
}

func indicesOf(recs []RoundRecord) []int {
	out := make([]int, len(recs))
	for i, r := range recs {
		out[i] = r.Index
	}
	return out
}
