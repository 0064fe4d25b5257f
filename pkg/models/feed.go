// pkg/models/feed.go
package models

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/gopix/pkg/object"
)

// FeedEntry is the extension bound to PIXShareFeedEntry objects. A feed
// entry is an inbox item much like an email message: it carries the message
// text, sender and recipients, and optionally attachments.
type FeedEntry struct {
	object.Base
}

// Sender returns the user the entry came from.
func (e *FeedEntry) Sender() (*object.Object, error) {
	from, err := e.Object().GetObject("from")
	if err != nil {
		return nil, err
	}
	list, err := from.GetList("list")
	if err != nil {
		return nil, err
	}
	if len(list) != 1 {
		return nil, fmt.Errorf("feed entry %s has %d senders, want 1", e.Object().Identifier(), len(list))
	}
	sender, ok := list[0].(*object.Object)
	if !ok {
		return nil, fmt.Errorf("feed entry sender: unexpected type %T", list[0])
	}
	return sender, nil
}

// Recipients returns the users the entry was shared with.
func (e *FeedEntry) Recipients() ([]*object.Object, error) {
	to, err := e.Object().GetObject("to")
	if err != nil {
		return nil, err
	}
	list, err := to.GetList("list")
	if err != nil {
		return nil, err
	}

	users := make([]*object.Object, 0, len(list))
	for _, item := range list {
		if u, ok := item.(*object.Object); ok {
			users = append(users, u)
		}
	}
	return users, nil
}

// Message returns the entry's text body, or "" when there is none.
func (e *FeedEntry) Message() string {
	text, _ := e.Object().FieldString("text")
	return text
}

// MarkAsRead flags this entry as viewed in the logged-in user's inbox.
func (e *FeedEntry) MarkAsRead(ctx context.Context) error {
	return markItemRead(ctx, e.Object(), e.Object().ID())
}

// Attachments returns the items attached to this entry. Containers among
// the attachments are flattened through their fetched contents; attachments
// of other types are skipped.
func (e *FeedEntry) Attachments(ctx context.Context) ([]*object.Object, error) {
	att, err := e.Object().GetObject("attachments")
	if err != nil {
		return nil, err
	}
	list, err := att.GetList("list")
	if err != nil {
		return nil, err
	}

	var results []*object.Object
	for _, item := range list {
		obj, ok := item.(*object.Object)
		if !ok {
			continue
		}
		switch ext := obj.Extension().(type) {
		case *Container:
			contents, err := ext.Contents(ctx)
			if err != nil {
				return nil, err
			}
			for _, c := range contents {
				if co, ok := c.(*object.Object); ok {
					results = append(results, co)
				}
			}
		case Notable:
			results = append(results, obj)
		}
	}
	return results, nil
}
