// Package session owns the process-wide authentication state and the
// collection of uploaded documents it gates. The Controller is
// event-loop-confined: every method is called from the Bubble Tea
// update loop, so no locking is needed, and logout invalidates all
// dependent state in a single transition.
package session

import (
	"strings"

	"github.com/k-tsurumaki/quilldeck-cli/internal/api"
)

// Session records which user, if any, is authenticated.
type Session struct {
	UserID string
}

// Authenticated reports whether the session identifies a user.
func (s Session) Authenticated() bool { return s.UserID != "" }

// Document is an opaque handle to a successfully uploaded document.
type Document struct {
	ID       string
	FileName string
}

// Controller guards the session lifecycle: single-flight auth
// requests, the append-only document collection, and an epoch counter
// that stamps in-flight work so completions arriving after logout can
// be discarded instead of mutating torn-down state.
type Controller struct {
	client *api.Client

	session     Session
	documents   []Document
	authPending bool
	epoch       uint64
}

// NewController builds an anonymous controller around the API client.
func NewController(client *api.Client) *Controller {
	return &Controller{client: client, epoch: 1}
}

// Client exposes the backend client the controller was built with.
func (c *Controller) Client() *api.Client { return c.client }

// Session returns the current session value.
func (c *Controller) Session() Session { return c.session }

// Epoch is the liveness token for in-flight work. Results stamped with
// an older epoch must be dropped by the caller.
func (c *Controller) Epoch() uint64 { return c.epoch }

// AuthPending reports whether an auth request is outstanding.
func (c *Controller) AuthPending() bool { return c.authPending }

// ValidateCredentials applies the local checks that run before any
// network request. Deeper validation is the server's job.
func ValidateCredentials(email, password string) *api.Error {
	if strings.TrimSpace(email) == "" {
		return api.Validation("email is required")
	}
	if password == "" {
		return api.Validation("password is required")
	}
	return nil
}

// BeginAuth claims the single auth slot. At most one outstanding
// request may drive the session transition; a re-entrant call gets a
// busy validation error. On success it returns the epoch token the
// eventual FinishAuth must present.
func (c *Controller) BeginAuth() (uint64, *api.Error) {
	if c.authPending {
		return 0, api.Validation("an auth request is already in flight")
	}
	c.authPending = true
	return c.epoch, nil
}

// FinishAuth applies the outcome of the request started by BeginAuth.
// A stale token (logout happened meanwhile) is ignored entirely. A
// failure leaves the session exactly as it was.
func (c *Controller) FinishAuth(token uint64, userID string, failure *api.Error) {
	if token != c.epoch {
		return
	}
	c.authPending = false
	if failure != nil || userID == "" {
		return
	}
	c.session = Session{UserID: userID}
	c.documents = nil
	c.epoch++
}

// AddDocument appends a handle to the session's collection. There is
// no dedup by name: uploading the same file twice yields two handles.
func (c *Controller) AddDocument(id, fileName string) (Document, *api.Error) {
	if !c.session.Authenticated() {
		return Document{}, api.Validation("sign in before uploading documents")
	}
	doc := Document{ID: id, FileName: fileName}
	c.documents = append(c.documents, doc)
	return doc, nil
}

// Documents returns a copy of the handle collection.
func (c *Controller) Documents() []Document {
	out := make([]Document, len(c.documents))
	copy(out, c.documents)
	return out
}

// Logout clears the session and everything it owns in one transition:
// the document collection, and, via the epoch bump, every in-flight
// upload or summary result.
func (c *Controller) Logout() {
	c.session = Session{}
	c.documents = nil
	c.authPending = false
	c.epoch++
}
