package workflow

import (
	"testing"

	"github.com/k-tsurumaki/quilldeck-cli/internal/api"
)

func TestLengthCycle(t *testing.T) {
	t.Parallel()

	if got := LengthShort.Next(); got != LengthMedium {
		t.Fatalf("short.Next() = %v", got)
	}
	if got := LengthMedium.Next(); got != LengthLong {
		t.Fatalf("medium.Next() = %v", got)
	}
	if got := LengthLong.Next(); got != LengthShort {
		t.Fatalf("long.Next() = %v", got)
	}
}

func TestSetLength(t *testing.T) {
	t.Parallel()

	s := NewSummary()
	if s.Length != LengthShort {
		t.Fatalf("default length = %v, want short", s.Length)
	}
	if cerr := s.SetLength(LengthLong); cerr != nil {
		t.Fatalf("SetLength(long): %v", cerr)
	}
	if s.Length != LengthLong {
		t.Fatalf("length = %v, want long", s.Length)
	}

	cerr := s.SetLength(Length("verbose"))
	if cerr == nil || cerr.Kind != api.KindValidation {
		t.Fatalf("SetLength(verbose) = %v, want validation error", cerr)
	}
}

func TestBeginClearsStaleResult(t *testing.T) {
	t.Parallel()

	s := NewSummary()
	s.Begin()
	s.Complete("old summary", []string{"old"})

	if cerr := s.Begin(); cerr != nil {
		t.Fatalf("Begin after done: %v", cerr)
	}
	if s.Content != "" || len(s.Keywords) != 0 || s.Err != nil {
		t.Fatalf("stale result visible during generation: %+v", s)
	}
	if s.Phase != SummaryGenerating {
		t.Fatalf("phase = %v, want generating", s.Phase)
	}
}

func TestBeginClearsStaleError(t *testing.T) {
	t.Parallel()

	s := NewSummary()
	s.Begin()
	s.Fail(api.ServerError(500))

	if cerr := s.Begin(); cerr != nil {
		t.Fatalf("Begin after failure: %v", cerr)
	}
	if s.Err != nil {
		t.Fatal("previous error still visible during new generation")
	}
}

func TestBeginRejectsWhileGenerating(t *testing.T) {
	t.Parallel()

	s := NewSummary()
	if cerr := s.Begin(); cerr != nil {
		t.Fatalf("first Begin: %v", cerr)
	}
	cerr := s.Begin()
	if cerr == nil || cerr.Kind != api.KindValidation {
		t.Fatalf("re-entrant Begin = %v, want busy validation error", cerr)
	}
}

func TestCompleteInvariant(t *testing.T) {
	t.Parallel()

	s := NewSummary()
	s.Begin()
	s.Complete("the gist", []string{"ai", "summary"})

	if s.Phase != SummaryDone {
		t.Fatalf("phase = %v, want done", s.Phase)
	}
	if s.Content == "" || s.Err != nil {
		t.Fatalf("done requires content and no error: %+v", s)
	}
	if len(s.Keywords) != 2 {
		t.Fatalf("keywords = %v", s.Keywords)
	}
}

func TestCompleteNormalizesNilKeywords(t *testing.T) {
	t.Parallel()

	s := NewSummary()
	s.Begin()
	s.Complete("the gist", nil)
	if s.Keywords == nil {
		t.Fatal("keywords must never be nil")
	}
	if len(s.Keywords) != 0 {
		t.Fatalf("keywords = %v, want empty", s.Keywords)
	}
}

func TestFailInvariant(t *testing.T) {
	t.Parallel()

	s := NewSummary()
	s.Begin()
	s.Fail(api.Application("document not found"))

	if s.Phase != SummaryFailed {
		t.Fatalf("phase = %v, want failed", s.Phase)
	}
	if s.Content != "" || s.Err == nil {
		t.Fatalf("failed requires error and no content: %+v", s)
	}
}
