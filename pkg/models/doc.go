// Package models ships the built-in extensions for the PIX entity types.
//
// RegisterBuiltins installs them into a registry under the server's type
// names:
//
//	PIXProject        -> Project
//	PIXUser           -> User
//	PIXPlaylist       -> Container
//	PIXFolder         -> Container
//	PIXShareFeedEntry -> FeedEntry
//	PIXClip           -> Clip
//	PIXImage          -> Image
//	PIXNote           -> Note
//
// Sessions do this by default; later registrations for the same names
// override the built-ins, so callers can swap in their own behavior.
//
// Every remote call routes through the bound object's session handle and
// fails with transport.ErrDetached once that session is closed. Nothing is
// cached: each call asks the server again.
package models
