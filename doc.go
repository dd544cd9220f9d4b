// Package memberauth implements the session and credential lifecycle for the
// community site backend: password hashing and strength policy, typed JWT
// issuance, Redis-backed opaque sessions, request authentication middleware,
// and composable authorization guards.
//
// Identity resolution:
//   - Browser clients carry an opaque session cookie. The middleware resolves
//     it against the session store, loads the active user, slides the session
//     TTL forward, and attaches a Principal to the request context.
//   - API clients send an access token via the Authorization header. Tokens
//     are signed with a shared secret and carry an explicit type claim; a
//     refresh or verify_email token is never accepted where access is
//     required.
//
// Guards:
//   - A Guard is a predicate over the resolved Principal. Guards compose
//     through Chain and reject with one of two typed errors: not
//     authenticated (the caller should re-login) or insufficient privilege
//     (the caller should see an access-denied page). Protect adapts a chain
//     into route middleware.
//
// All external store calls are bounded by explicit timeouts, and store
// unavailability is reported as a retryable infrastructure error, never as an
// absent session.
package memberauth
