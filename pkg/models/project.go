// pkg/models/project.go
package models

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fyrsmithlabs/gopix/pkg/object"
	"github.com/fyrsmithlabs/gopix/pkg/project"
)

// Project is the extension bound to PIXProject objects.
//
// What the server returns for item and feed endpoints depends on the
// session's active project, so every method here runs behind an activation
// guard: it flips the session to this project first if some other project is
// active, and the guard failure surfaces as *project.ActivationError without
// the operation running.
type Project struct {
	object.Base
	guard *project.Context
}

// Bind captures the activation guard once the object's fields are in place.
func (p *Project) Bind(o *object.Object) {
	p.Base.Bind(o)
	p.guard = project.New(o.ID(), o.Ref())
}

// Guard returns the activation guard for this project. Useful for callers
// composing their own operations against the project.
func (p *Project) Guard() *project.Context {
	return p.guard
}

// LoadItem fetches a single item by id.
func (p *Project) LoadItem(ctx context.Context, itemID string) (*object.Object, error) {
	return project.Exec(ctx, p.guard, func(ctx context.Context) (*object.Object, error) {
		v, err := fetchValue(ctx, p.Object(), "/items/"+itemID, nil)
		if err != nil {
			return nil, err
		}
		item, ok := v.(*object.Object)
		if !ok {
			return nil, fmt.Errorf("item %s: unexpected response type %T", itemID, v)
		}
		return item, nil
	})
}

// Inbox loads the logged-in user's incoming feed entries. A limit of 0
// means no limit.
func (p *Project) Inbox(ctx context.Context, limit int) ([]*object.Object, error) {
	return project.Exec(ctx, p.guard, func(ctx context.Context) ([]*object.Object, error) {
		params := url.Values{}
		if limit > 0 {
			params.Set("limit", strconv.Itoa(limit))
		}
		return fetchObjects(ctx, p.Object(), "/feeds/incoming", params)
	})
}

// MarkAsRead flags an inbox item as viewed.
func (p *Project) MarkAsRead(ctx context.Context, item *object.Object) error {
	return p.guard.Do(ctx, func(ctx context.Context) error {
		return markItemRead(ctx, p.Object(), item.ID())
	})
}

// DeleteInboxItem removes an item from the logged-in user's inbox.
func (p *Project) DeleteInboxItem(ctx context.Context, item *object.Object) error {
	return p.guard.Do(ctx, func(ctx context.Context) error {
		id := item.ID()
		if id == "" {
			return fmt.Errorf("delete inbox item: %w: %q", object.ErrMissingField, "id")
		}
		w, err := writer(p.Object())
		if err != nil {
			return err
		}
		if _, err := w.Delete(ctx, "/messages/inbox/"+id, nil); err != nil {
			return fmt.Errorf("failed to delete inbox item %s: %w", id, err)
		}
		return nil
	})
}
