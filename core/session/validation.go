package session

import "errors"

// ValidationKind classifies the outcome of a session self-check.
type ValidationKind int

const (
	ValidationValid ValidationKind = iota
	ValidationExpired
	ValidationInvalid
)

// Validation is the closed result of Session.Validate.
// Reason is set only for ValidationInvalid.
type Validation struct {
	Kind   ValidationKind
	Reason error
}

func expired() Validation {
	return Validation{Kind: ValidationExpired}
}

func invalid(reason error) Validation {
	return Validation{Kind: ValidationInvalid, Reason: reason}
}

// Valid reports whether the session passed validation.
func (v Validation) Valid() bool { return v.Kind == ValidationValid }

// Err returns the failure the validation represents, or nil when valid.
// Every failure matches ErrInvalidSession; expirations also match ErrExpiredSession.
func (v Validation) Err() error {
	switch v.Kind {
	case ValidationValid:
		return nil
	case ValidationExpired:
		return errors.Join(ErrInvalidSession, ErrExpiredSession)
	default:
		if v.Reason == nil {
			return ErrInvalidSession
		}
		return errors.Join(ErrInvalidSession, v.Reason)
	}
}
