// pkg/models/models.go
package models

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fyrsmithlabs/gopix/pkg/object"
	"github.com/fyrsmithlabs/gopix/pkg/registry"
	"github.com/fyrsmithlabs/gopix/pkg/transport"
)

// RegisterBuiltins installs the packaged PIX models into reg.
func RegisterBuiltins(reg *registry.Registry) {
	reg.Register("PIXProject", func() object.Extension { return &Project{} })
	reg.Register("PIXUser", func() object.Extension { return &User{} })
	reg.Register("PIXPlaylist", func() object.Extension { return &Container{} })
	reg.Register("PIXFolder", func() object.Extension { return &Container{} })
	reg.Register("PIXShareFeedEntry", func() object.Extension { return &FeedEntry{} })
	reg.Register("PIXClip", func() object.Extension { return &Clip{} })
	reg.Register("PIXImage", func() object.Extension { return &Image{} })
	reg.Register("PIXNote", func() object.Extension { return &Note{} })
}

// User is the extension bound to PIXUser objects.
type User struct {
	object.Base
}

// Name returns the user's display label, or "" when the payload has none.
func (u *User) Name() string {
	name, _ := u.Object().FieldString("label")
	return name
}

// fetchValue GETs path through the object's session and objectifies the
// response with the factory that built the object.
func fetchValue(ctx context.Context, o *object.Object, path string, params url.Values) (any, error) {
	t, err := o.Transport()
	if err != nil {
		return nil, err
	}
	b := o.Builder()
	if b == nil {
		return nil, fmt.Errorf("object %s has no builder for follow-up fetches", o)
	}

	data, err := t.Request(ctx, http.MethodGet, path, params)
	if err != nil {
		return nil, err
	}
	return b.BuildJSON("", data)
}

// fetchObjects GETs path and returns the object elements of the decoded
// list. Non-object elements are dropped.
func fetchObjects(ctx context.Context, o *object.Object, path string, params url.Values) ([]*object.Object, error) {
	v, err := fetchValue(ctx, o, path, params)
	if err != nil {
		return nil, err
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected response type %T", path, v)
	}

	out := make([]*object.Object, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(*object.Object); ok {
			out = append(out, obj)
		}
	}
	return out, nil
}

// writer upgrades the object's transport to the JSON-body capability.
func writer(o *object.Object) (transport.Writer, error) {
	t, err := o.Transport()
	if err != nil {
		return nil, err
	}
	w, ok := t.(transport.Writer)
	if !ok {
		return nil, fmt.Errorf("transport %T does not support JSON writes", t)
	}
	return w, nil
}

// markItemRead flags an inbox item viewed. The flag value is the string
// "true"; that is the wire form PIX expects, not a boolean.
func markItemRead(ctx context.Context, o *object.Object, itemID string) error {
	if itemID == "" {
		return fmt.Errorf("mark as read: %w: %q", object.ErrMissingField, "id")
	}
	w, err := writer(o)
	if err != nil {
		return err
	}
	payload := map[string]any{"flags": map[string]string{"viewed": "true"}}
	if _, err := w.Put(ctx, "/items/"+itemID, payload); err != nil {
		return fmt.Errorf("failed to mark item %s read: %w", itemID, err)
	}
	return nil
}
