// Package workflow holds the pure state machines behind the upload and
// summary-generation lifecycles. They do no I/O themselves; the TUI
// layer drives them from job results.
package workflow

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/k-tsurumaki/quilldeck-cli/internal/api"
)

// MaxFileSize mirrors the server's multipart ceiling. Enforcing it
// before the transfer saves a doomed round trip; the server's own
// rejection still surfaces as an application error if it disagrees.
const MaxFileSize = 10 << 20

var allowedExtensions = []string{".txt", ".md"}

// UploadPhase tracks one upload attempt.
type UploadPhase int

const (
	UploadIdle UploadPhase = iota
	UploadTransferring
	UploadDone
	UploadFailed
)

func (p UploadPhase) String() string {
	switch p {
	case UploadTransferring:
		return "transferring"
	case UploadDone:
		return "done"
	case UploadFailed:
		return "failed"
	default:
		return "idle"
	}
}

// SelectedFile is a validated upload candidate.
type SelectedFile struct {
	Path string
	Name string
	Size int64
}

// Upload is the state of the current upload attempt. Progress is
// monotonically non-decreasing within an attempt: it only reaches 100
// on confirmed success and resets to 0 on failure.
type Upload struct {
	File     *SelectedFile
	Phase    UploadPhase
	Progress int
	Err      *api.Error
}

// AllowedFileName checks the candidate name against the extension
// allow-list, case-insensitively.
func AllowedFileName(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range allowedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Select validates a candidate and makes it the selected file,
// resetting the attempt state. On rejection no file stays selected.
func (u *Upload) Select(path string, size int64) *api.Error {
	u.File = nil
	u.Phase = UploadIdle
	u.Progress = 0
	u.Err = nil

	name := filepath.Base(strings.TrimSpace(path))
	if name == "" || name == "." {
		return api.Validation("choose a file to upload")
	}
	if !AllowedFileName(name) {
		return api.Validation("only .txt and .md files are supported")
	}
	if size > MaxFileSize {
		return api.Validation(fmt.Sprintf("%s exceeds the 10 MB upload limit", name))
	}
	u.File = &SelectedFile{Path: path, Name: name, Size: size}
	return nil
}

// Begin moves the attempt into the transferring phase. Uploads are not
// retried automatically, but a failed attempt may be restarted.
func (u *Upload) Begin() *api.Error {
	if u.File == nil {
		return api.Validation("select a file before uploading")
	}
	if u.Phase == UploadTransferring {
		return api.Validation("an upload is already in flight")
	}
	u.Phase = UploadTransferring
	u.Progress = 0
	u.Err = nil
	return nil
}

// SetProgress records transfer progress. Regressions and values at or
// past 100 are ignored; only Complete may report 100.
func (u *Upload) SetProgress(percent int) {
	if u.Phase != UploadTransferring {
		return
	}
	if percent <= u.Progress || percent >= 100 {
		return
	}
	u.Progress = percent
}

// Complete marks the attempt done with full progress.
func (u *Upload) Complete() {
	u.Phase = UploadDone
	u.Progress = 100
	u.Err = nil
}

// Fail records the classified error and resets progress.
func (u *Upload) Fail(err *api.Error) {
	u.Phase = UploadFailed
	u.Progress = 0
	u.Err = err
}

// Reset returns the state to idle with no file selected, ready for the
// next attempt.
func (u *Upload) Reset() {
	*u = Upload{}
}
