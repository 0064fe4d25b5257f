// Package project guards operations that must run against a specific active
// project.
//
// A PIX session has at most one active project, and the item, feed, and
// media endpoints implicitly target it. Context wraps that protocol detail:
// Do activates the guarded project when the session currently points
// elsewhere (exactly one activation per guarded call, none when already
// active) and then runs the operation. An activation failure aborts the call
// before the operation runs.
//
// The active check is lazy. A Context tracks no state of its own; it asks
// the session each time, so another guard moving the session elsewhere is
// noticed on the next call. Guards on the same session do not serialize each
// other: interleave them from multiple goroutines only with external
// locking, or give each goroutine its own session.
package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/gopix/internal/metrics"
	"github.com/fyrsmithlabs/gopix/pkg/transport"
)

// Errors for project guards.
var (
	ErrNoProjectID = errors.New("project has no id")
)

// ActivationError reports a failed active-project switch. The guarded
// operation was never started.
type ActivationError struct {
	Project string
	Err     error
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("activate project %q: %v", e.Project, e.Err)
}

func (e *ActivationError) Unwrap() error { return e.Err }

// Context guards operations that need one specific project active.
type Context struct {
	id      string
	ref     *transport.Ref
	metrics *metrics.Metrics
}

// New builds a guard for the project with the given id, executing through
// the session behind ref.
func New(id string, ref *transport.Ref) *Context {
	return &Context{id: id, ref: ref, metrics: metrics.New()}
}

// ProjectID returns the guarded project's id.
func (c *Context) ProjectID() string { return c.id }

// Active reports whether the guarded project is the session's active one.
// False when the session is gone.
func (c *Context) Active() bool {
	if c.ref == nil {
		return false
	}
	t, err := c.ref.Get()
	if err != nil {
		return false
	}
	return t.CurrentProject() == c.id
}

// Ensure makes the guarded project active. It touches the server only when
// the session currently points elsewhere; at most one activation call is
// made. A failed activation is returned as *ActivationError with the
// transport failure intact underneath.
func (c *Context) Ensure(ctx context.Context) error {
	if c.id == "" {
		return ErrNoProjectID
	}
	if c.ref == nil {
		return transport.ErrDetached
	}
	t, err := c.ref.Get()
	if err != nil {
		return err
	}
	if t.CurrentProject() == c.id {
		return nil
	}
	if err := t.ActivateProject(ctx, c.id); err != nil {
		return &ActivationError{Project: c.id, Err: err}
	}
	c.metrics.RecordActivation()
	return nil
}

// Do runs op with the guarded project active. On activation failure op
// never runs and the failure propagates.
func (c *Context) Do(ctx context.Context, op func(context.Context) error) error {
	if err := c.Ensure(ctx); err != nil {
		return err
	}
	return op(ctx)
}

// Exec runs op with the guarded project active and returns its result.
func Exec[T any](ctx context.Context, c *Context, op func(context.Context) (T, error)) (T, error) {
	if err := c.Ensure(ctx); err != nil {
		var zero T
		return zero, err
	}
	return op(ctx)
}
