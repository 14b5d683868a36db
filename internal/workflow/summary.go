package workflow

import (
	"fmt"

	"github.com/k-tsurumaki/quilldeck-cli/internal/api"
)

// Length is the requested summary length preference.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// Valid reports whether l is one of the supported preferences.
func (l Length) Valid() bool {
	switch l {
	case LengthShort, LengthMedium, LengthLong:
		return true
	}
	return false
}

// Next cycles through the preferences in order.
func (l Length) Next() Length {
	switch l {
	case LengthShort:
		return LengthMedium
	case LengthMedium:
		return LengthLong
	default:
		return LengthShort
	}
}

// SummaryPhase tracks one document's generation lifecycle.
type SummaryPhase int

const (
	SummaryIdle SummaryPhase = iota
	SummaryGenerating
	SummaryDone
	SummaryFailed
)

func (p SummaryPhase) String() string {
	switch p {
	case SummaryGenerating:
		return "generating"
	case SummaryDone:
		return "done"
	case SummaryFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Summary is the generation state for a single document handle. Each
// handle owns its own Summary; generations across documents are fully
// independent. Invariant: done implies content present and no error,
// failed implies the reverse.
type Summary struct {
	Length   Length
	Phase    SummaryPhase
	Content  string
	Keywords []string
	Err      *api.Error
}

// NewSummary starts idle with the short preference.
func NewSummary() *Summary {
	return &Summary{Length: LengthShort, Keywords: []string{}}
}

// SetLength updates the preference. Pure state change, no network.
func (s *Summary) SetLength(l Length) *api.Error {
	if !l.Valid() {
		return api.Validation(fmt.Sprintf("unsupported summary length %q", l))
	}
	s.Length = l
	return nil
}

// Begin starts a generation, clearing any previous result or error so
// stale content is never visible while a new one is in flight. A
// second Begin while one is already generating is rejected.
func (s *Summary) Begin() *api.Error {
	if s.Phase == SummaryGenerating {
		return api.Validation("a summary is already being generated for this document")
	}
	s.Phase = SummaryGenerating
	s.Content = ""
	s.Keywords = []string{}
	s.Err = nil
	return nil
}

// Complete records a successful result. Nil keywords normalize to an
// empty slice.
func (s *Summary) Complete(content string, keywords []string) {
	if keywords == nil {
		keywords = []string{}
	}
	s.Phase = SummaryDone
	s.Content = content
	s.Keywords = keywords
	s.Err = nil
}

// Fail records the classified error. Recovery is an explicit re-Begin.
func (s *Summary) Fail(err *api.Error) {
	s.Phase = SummaryFailed
	s.Content = ""
	s.Keywords = []string{}
	s.Err = err
}
