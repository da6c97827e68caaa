package session

import "errors"

var (
	// ErrUnknownSession is returned when a required lookup finds no session for the key.
	ErrUnknownSession = errors.New("unknown session")
	// ErrInvalidSession is returned when a session fails validation for any reason.
	ErrInvalidSession = errors.New("invalid session")
	// ErrExpiredSession is returned when a session has breached its idle or absolute timeout.
	ErrExpiredSession = errors.New("session has expired")
	// ErrStoppedSession is returned when a session has been explicitly stopped.
	ErrStoppedSession = errors.New("session has been stopped")
	// ErrSessionNotFound is returned by Store.Update when the session no longer exists in the store.
	ErrSessionNotFound = errors.New("session not found in store")
	// ErrSessionCreation is returned when the store fails to assign an id to a new session.
	ErrSessionCreation = errors.New("failed to create session")
	// ErrSessionEvent is returned when a lifecycle event cannot be published.
	ErrSessionEvent = errors.New("failed to publish session event")
	// ErrInvalidArgument is returned when a combination of arguments is not allowed.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrIllegalState is returned when a collaborator or precondition assumed present is missing.
	ErrIllegalState = errors.New("illegal state")

	ErrSchedulerNotRunning = errors.New("validation scheduler is not running")
	ErrShutdownTimeout     = errors.New("validation scheduler shutdown timeout exceeded")
	ErrSchedulerDraining   = errors.New("validation scheduler is still draining a previous sweep")
	ErrHealthcheckFailed   = errors.New("healthcheck failed")
)
