package agent

import "testing"

func TestTracker_FirstDownloadFlips(t *testing.T) {
	tr := NewTracker()
	if tr.CurrentMode() != ModeWebBrowsing {
		t.Fatalf("fresh tracker must start web browsing, got %s", tr.CurrentMode())
	}

	if !tr.RegisterDownloadedFile("reports/report.pdf") {
		t.Fatal("first download must flip the mode")
	}
	if tr.CurrentMode() != ModeLocalFileProcessing {
		t.Fatalf("mode not flipped: %s", tr.CurrentMode())
	}

	if tr.RegisterDownloadedFile("reports/annex.pdf") {
		t.Fatal("second download must not flip again")
	}
	if got := tr.KnownFiles(); len(got) != 2 || got[0] != "reports/report.pdf" || got[1] != "reports/annex.pdf" {
		t.Fatalf("known files wrong: %v", got)
	}
}

func TestTracker_DuplicateAndEmptyPaths(t *testing.T) {
	tr := NewTracker()
	if tr.RegisterDownloadedFile("") {
		t.Fatal("empty path must not flip the mode")
	}
	tr.RegisterDownloadedFile("a.pdf")
	tr.RegisterDownloadedFile("a.pdf")
	if got := tr.KnownFiles(); len(got) != 1 {
		t.Fatalf("duplicate path registered twice: %v", got)
	}
	if !tr.IsLocalFile("a.pdf") || tr.IsLocalFile("b.pdf") {
		t.Fatal("IsLocalFile lookup wrong")
	}
}
