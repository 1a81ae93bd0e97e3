// Package users provides stateless JWT authentication for user accounts plus
// lifecycle event propagation for downstream notification consumers.
//
// Token core:
//   - TokenService issues and validates HS256 JWTs carrying a subject and a
//     roles claim. Validation is a pure function of (token, key, clock) so the
//     clock can be injected for deterministic tests. Verification failures are
//     classified as malformed, bad signature, or expired.
//
// Request identity:
//   - The tokenware middleware extracts a bearer credential, validates it, and
//     resolves the subject against an IdentityProvider. The authoritative roles
//     always come from that lookup, never from the token payload. On any
//     failure the request proceeds anonymously; guard middlewares and the
//     Requires predicate enforce authorization and emit the 401 payload.
//
// Lifecycle events:
//   - UserManager mutations (create, update, delete, enable/disable, password
//     change) emit UserEvents through an EventPublisher. Publication is
//     best-effort and asynchronous: a publish failure never rolls back the
//     mutation, it is logged and dropped. The stream package provides a Redis
//     Streams publisher/consumer pair and the notify package maps consumed
//     events to email notifications.
package users
