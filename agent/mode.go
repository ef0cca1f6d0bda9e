package agent

// Mode is the session's operating regime. It starts as web browsing and
// flips to local-file processing on the first successful download. The flip
// is monotonic: no tool outcome reverts it within a session.
type Mode string

const (
	ModeWebBrowsing         Mode = "web_browsing"
	ModeLocalFileProcessing Mode = "local_file_processing"
)

// Tracker owns the context mode and the set of downloaded artifact paths.
// The round controller is the sole writer; tools only report outcomes.
type Tracker struct {
	mode       Mode
	knownFiles []string
	knownSet   map[string]struct{}
}

// NewTracker creates a tracker in web-browsing mode with no known files.
func NewTracker() *Tracker {
	return &Tracker{
		mode:     ModeWebBrowsing,
		knownSet: make(map[string]struct{}),
	}
}

// CurrentMode returns the mode for the upcoming round.
func (t *Tracker) CurrentMode() Mode { return t.mode }

// RegisterDownloadedFile records a downloaded artifact path and reports
// whether this call flipped the mode. Only the first registration while web
// browsing flips; later calls just extend the known-file set.
func (t *Tracker) RegisterDownloadedFile(path string) bool {
	if path == "" {
		return false
	}
	if _, seen := t.knownSet[path]; !seen {
		t.knownSet[path] = struct{}{}
		t.knownFiles = append(t.knownFiles, path)
	}
	if t.mode == ModeWebBrowsing {
		t.mode = ModeLocalFileProcessing
		return true
	}
	return false
}

// IsLocalFile reports whether a path was downloaded this session.
func (t *Tracker) IsLocalFile(path string) bool {
	_, ok := t.knownSet[path]
	return ok
}

// KnownFiles returns the downloaded paths in insertion order.
func (t *Tracker) KnownFiles() []string {
	out := make([]string, len(t.knownFiles))
	copy(out, t.knownFiles)
	return out
}
