package transport

import "sync/atomic"

// Ref is a revocable, non-owning handle to a Transport.
//
// The factory stamps every object it builds with the session's Ref rather
// than the session itself, so objects never keep a dead connection alive.
// Tearing the session down revokes the handle; later calls through Get fail
// with ErrDetached.
type Ref struct {
	t atomic.Pointer[holder]
}

// holder boxes the interface so it fits an atomic.Pointer.
type holder struct {
	t Transport
}

// NewRef returns a live handle to t.
func NewRef(t Transport) *Ref {
	r := &Ref{}
	r.t.Store(&holder{t: t})
	return r
}

// Get returns the Transport, or ErrDetached once the handle is revoked.
func (r *Ref) Get() (Transport, error) {
	h := r.t.Load()
	if h == nil {
		return nil, ErrDetached
	}
	return h.t, nil
}

// Alive reports whether the handle has not been revoked.
func (r *Ref) Alive() bool {
	return r.t.Load() != nil
}

// Invalidate revokes the handle. Revocation is one-way and safe to call
// multiple times.
func (r *Ref) Invalidate() {
	r.t.Store(nil)
}
