// pkg/models/attachment.go
package models

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fyrsmithlabs/gopix/pkg/object"
)

// notePageSize is how many notes one page of /items/{id}/notes returns.
const notePageSize = 50

// Notable is satisfied by attachment-backed extensions (Clip, Image).
type Notable interface {
	object.Extension
	HasNotes() bool
	Notes(ctx context.Context) ([]*object.Object, error)
}

// Attachment is the shared behavior of items that can carry review notes.
// Concrete attachment types (Clip, Image) embed it.
type Attachment struct {
	object.Base
}

// HasNotes reports whether the server flagged this item as having notes.
// The flag arrives as a bool or its string form depending on the endpoint.
func (a *Attachment) HasNotes() bool {
	notes, err := a.Object().GetObject("notes")
	if err != nil {
		return false
	}
	v, ok := notes.Lookup("has_notes")
	if !ok {
		return false
	}
	switch flag := v.(type) {
	case bool:
		return flag
	case string:
		return flag == "true"
	default:
		return false
	}
}

// Notes fetches every note on this item, paging through
// /items/{id}/notes until a short page. Returns nil without a request when
// the item is not flagged as having notes.
func (a *Attachment) Notes(ctx context.Context) ([]*object.Object, error) {
	if !a.HasNotes() {
		return nil, nil
	}

	o := a.Object()
	var notes []*object.Object
	for offset := 0; ; offset += notePageSize {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(notePageSize))
		params.Set("offset", strconv.Itoa(offset))

		v, err := fetchValue(ctx, o, "/items/"+o.ID()+"/notes", params)
		if err != nil {
			return nil, fmt.Errorf("fetching notes for %s: %w", o.Identifier(), err)
		}
		page, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("fetching notes for %s: unexpected response type %T", o.Identifier(), v)
		}
		for _, item := range page {
			if n, ok := item.(*object.Object); ok {
				notes = append(notes, n)
			}
		}
		// A short page, counted before filtering, ends the listing.
		if len(page) < notePageSize {
			return notes, nil
		}
	}
}

// Clip is the extension bound to PIXClip objects.
type Clip struct {
	Attachment
}

// Image is the extension bound to PIXImage objects.
type Image struct {
	Attachment
}

// Interface guards.
var (
	_ Notable = (*Clip)(nil)
	_ Notable = (*Image)(nil)
)
