package service

import "errors"

var (
	// ErrServiceUnavailable marks a failed store read. Callers must abort
	// the attempt; availability is never assumed.
	ErrServiceUnavailable = errors.New("availability store unavailable")

	// ErrInvalidDraft is returned for drafts missing resources, dates or a
	// positive occupant count.
	ErrInvalidDraft = errors.New("invalid draft")

	// ErrSessionNotFound is returned when a resolution session does not
	// exist or has expired.
	ErrSessionNotFound = errors.New("resolution session not found")

	// ErrSessionClosed is returned when acting on a committed or abandoned
	// session.
	ErrSessionClosed = errors.New("resolution session closed")

	// ErrUnresolvedConflicts is returned when a retry is requested while a
	// conflicted day still lacks an explicit, non-empty substitution.
	ErrUnresolvedConflicts = errors.New("unresolved conflicts remain")

	// ErrDateNotInSession is returned when a substitution targets a day the
	// session does not cover.
	ErrDateNotInSession = errors.New("date not part of resolution session")
)
