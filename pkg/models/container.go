// pkg/models/container.go
package models

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/gopix/pkg/factory"
	"github.com/fyrsmithlabs/gopix/pkg/object"
)

// Container is the extension bound to PIXPlaylist and PIXFolder objects.
// The payload for these types does not carry their contents; an extra call
// fetches them.
type Container struct {
	object.Base
}

// Contents fetches the items inside this playlist or folder. Elements are
// whatever the server returns, objectified: typed objects for entity
// payloads, plain values otherwise.
func (c *Container) Contents(ctx context.Context) ([]any, error) {
	o := c.Object()
	v, err := fetchValue(ctx, o, "/items/"+o.ID()+"/contents", nil)
	if err != nil {
		return nil, err
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("contents of %s: unexpected response type %T", o, v)
	}
	return list, nil
}

// Children returns all objects downstream of this container: each fetched
// content item and, recursively, the objects nested inside it. Unlike
// Object.Children this needs the extra contents call.
func (c *Container) Children(ctx context.Context) ([]*object.Object, error) {
	contents, err := c.Contents(ctx)
	if err != nil {
		return nil, err
	}

	var children []*object.Object
	for _, item := range contents {
		children = append(children, factory.Children(item, true)...)
	}
	return children, nil
}
