// pkg/models/note.go
package models

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/gopix/pkg/object"
	"github.com/fyrsmithlabs/gopix/pkg/transport"
)

// MediaKind selects which rendition of a note's media to download.
type MediaKind string

const (
	// MediaOriginal is the frame or image the note was drawn over.
	MediaOriginal MediaKind = "original"
	// MediaMarkup is the drawn annotation layer on its own.
	MediaMarkup MediaKind = "markup"
	// MediaComposite is the original with the markup burned in.
	MediaComposite MediaKind = "composite"
)

// Note is the extension bound to PIXNote objects.
type Note struct {
	object.Base
}

// Media downloads the requested rendition of this note's media.
//
// Notes placed on a clip frame carry fields.start_frame; for those,
// MediaOriginal resolves to the parent clip's frame endpoint and comes back
// as PNG. Every other fetch goes to the note's own media endpoint.
func (n *Note) Media(ctx context.Context, kind MediaKind) ([]byte, error) {
	o := n.Object()
	t, err := o.Transport()
	if err != nil {
		return nil, err
	}
	raw, ok := t.(transport.RawGetter)
	if !ok {
		return nil, fmt.Errorf("transport %T does not support raw fetches", t)
	}

	path := "/media/" + o.ID() + "/" + string(kind)
	accept := "text/xml"

	if kind == MediaOriginal {
		if fields, err := o.GetObject("fields"); err == nil {
			if start, ok := fields.FieldString("start_frame"); ok {
				parent, _ := fields.FieldString("parent_id")
				path = "/media/" + parent + "/frame/" + start
				accept = "image/png"
			}
		}
	}

	data, err := raw.GetRaw(ctx, path, accept)
	if err != nil {
		return nil, fmt.Errorf("fetching %s media for note %s: %w", kind, o.Identifier(), err)
	}
	return data, nil
}
