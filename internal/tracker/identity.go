package tracker

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

const (
	sessionIDKey      = "sitepulse_session_id"
	visitorIDKey      = "sitepulse_visitor_id"
	firstVisitDateKey = "sitepulse_first_visit_date"
)

// Identity resolves session and first-visit state from the two stores.
// Session ids live in the session-scoped store; the visitor marker is
// durable so it survives session boundaries.
type Identity struct {
	session Store
	visitor Store
	now     func() time.Time
}

func NewIdentity(session, visitor Store, now func() time.Time) *Identity {
	if now == nil {
		now = time.Now
	}
	return &Identity{session: session, visitor: visitor, now: now}
}

// SessionID returns the current session id, generating and persisting a
// fresh one when the session store has none. Store failures fall back to a
// generated id so tracking never stops.
func (i *Identity) SessionID() string {
	if id, err := i.session.Get(sessionIDKey); err == nil && id != "" {
		return id
	}

	id := newSessionID(i.now())
	_ = i.session.Set(sessionIDKey, id)
	return id
}

// RegisterVisit reports whether this is the first visit ever seen from this
// visitor. The first call plants a durable marker and the first-visit date;
// every later call, in any session, reports false.
func (i *Identity) RegisterVisit() bool {
	if id, err := i.visitor.Get(visitorIDKey); err == nil && id != "" {
		return false
	}

	_ = i.visitor.Set(visitorIDKey, uuid.NewString())
	_ = i.visitor.Set(firstVisitDateKey, i.now().UTC().Format(time.RFC3339))
	return true
}

const base36Chars = "0123456789abcdefghijklmnopqrstuvwxyz"

// newSessionID builds a session id in the form
// session_<epoch-millis>_<random-base36>.
func newSessionID(now time.Time) string {
	return fmt.Sprintf("session_%d_%s", now.UnixMilli(), randomBase36(9))
}

func randomBase36(length int) string {
	chars := make([]byte, length)
	for i := range chars {
		chars[i] = base36Chars[rand.IntN(len(base36Chars))]
	}
	return string(chars)
}
