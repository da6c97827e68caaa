package session

import (
	"context"
	"time"
)

// DelegatingSession is the handle returned to callers. It holds only a key;
// every call re-enters the Manager, so a handle never observes stale data.
type DelegatingSession struct {
	manager *Manager
	key     Key
}

func newDelegatingSession(m *Manager, key Key) *DelegatingSession {
	return &DelegatingSession{manager: m, key: key}
}

// ID returns the bound session id.
func (d *DelegatingSession) ID() string { return d.key.SessionID }

// Key returns the bound session key.
func (d *DelegatingSession) Key() Key { return d.key }

// Stop stops the session on behalf of identifiers.
func (d *DelegatingSession) Stop(ctx context.Context, identifiers any) error {
	return d.manager.Stop(ctx, d.key, identifiers)
}

func (d *DelegatingSession) IsValid(ctx context.Context) bool {
	return d.manager.IsValid(ctx, d.key)
}

func (d *DelegatingSession) CheckValid(ctx context.Context) error {
	return d.manager.CheckValid(ctx, d.key)
}

func (d *DelegatingSession) Touch(ctx context.Context) error {
	return d.manager.Touch(ctx, d.key)
}

func (d *DelegatingSession) StartTimestamp(ctx context.Context) (time.Time, error) {
	return d.manager.StartTimestamp(ctx, d.key)
}

func (d *DelegatingSession) LastAccessTime(ctx context.Context) (time.Time, error) {
	return d.manager.LastAccessTime(ctx, d.key)
}

func (d *DelegatingSession) IdleTimeout(ctx context.Context) (time.Duration, error) {
	return d.manager.IdleTimeout(ctx, d.key)
}

func (d *DelegatingSession) SetIdleTimeout(ctx context.Context, timeout time.Duration) error {
	return d.manager.SetIdleTimeout(ctx, d.key, timeout)
}

func (d *DelegatingSession) AbsoluteTimeout(ctx context.Context) (time.Duration, error) {
	return d.manager.AbsoluteTimeout(ctx, d.key)
}

func (d *DelegatingSession) SetAbsoluteTimeout(ctx context.Context, timeout time.Duration) error {
	return d.manager.SetAbsoluteTimeout(ctx, d.key, timeout)
}

func (d *DelegatingSession) Host(ctx context.Context) (string, error) {
	return d.manager.Host(ctx, d.key)
}

func (d *DelegatingSession) AttributeKeys(ctx context.Context) ([]string, error) {
	return d.manager.AttributeKeys(ctx, d.key)
}

func (d *DelegatingSession) Attribute(ctx context.Context, name string) (any, error) {
	return d.manager.Attribute(ctx, d.key, name)
}

// SetAttribute stores value; a nil value removes the attribute.
func (d *DelegatingSession) SetAttribute(ctx context.Context, name string, value any) error {
	return d.manager.SetAttribute(ctx, d.key, name, value)
}

func (d *DelegatingSession) RemoveAttribute(ctx context.Context, name string) (any, error) {
	return d.manager.RemoveAttribute(ctx, d.key, name)
}

func (d *DelegatingSession) InternalAttributeKeys(ctx context.Context) ([]string, error) {
	return d.manager.InternalAttributeKeys(ctx, d.key)
}

func (d *DelegatingSession) InternalAttribute(ctx context.Context, name string) (any, error) {
	return d.manager.InternalAttribute(ctx, d.key, name)
}

// SetInternalAttribute stores value; a nil value removes the attribute.
func (d *DelegatingSession) SetInternalAttribute(ctx context.Context, name string, value any) error {
	return d.manager.SetInternalAttribute(ctx, d.key, name, value)
}

func (d *DelegatingSession) RemoveInternalAttribute(ctx context.Context, name string) (any, error) {
	return d.manager.RemoveInternalAttribute(ctx, d.key, name)
}
