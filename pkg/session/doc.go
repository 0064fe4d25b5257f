// Package session provides the authenticated REST transport for a PIX
// server.
//
// A Session owns the HTTP connection state: login cookies, the session
// expiry, the client-side rate limiter, and the retry policy for transient
// server failures. It implements transport.Transport (plus the optional
// transport.Writer and transport.RawGetter capabilities), so objects built
// from its responses can issue follow-up calls through their session handle.
//
// Logging in is lazy. The first request after construction, or after the
// server-reported expiry passes, performs PUT /session/ with the configured
// credentials and reseeds the expiry from GET /session/time_remaining.
// Closing the session logs out and revokes the handle shared with every
// object built from it; those objects then fail with transport.ErrDetached.
//
// Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		return err
//	}
//	sess, err := session.New(cfg)
//	if err != nil {
//		return err
//	}
//	defer sess.Close(ctx)
//
//	project, err := sess.LoadProject(ctx, "Show Alpha")
//	if err != nil {
//		return err
//	}
//
// A Session is safe for concurrent use, but the active project is
// server-side session state: goroutines working against different projects
// need separate sessions.
package session
