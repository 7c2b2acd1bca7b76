// Package auth implements the two-step admin authentication handshake.
//
// # Credential Gate
//
// The admin UI path is protected by HTTP Basic Auth. Credentials are checked
// against the configured admin identity (username match plus bcrypt password
// compare). A successful login issues a fresh admin token and sets it as a
// Secure, HttpOnly "jwt" cookie scoped to the admin UI path, so the browser
// presents it on the subsequent admin WebSocket handshake.
//
// # Token Store
//
// Tokens are HS256-signed JWTs carrying sub/iat/exp/jti claims. The store
// remembers the jti of the most recently issued token and only that token
// validates: issuing a new token invalidates the previous one even though its
// signature would still verify. State is in-process and volatile; a process
// restart invalidates everything outstanding.
//
// Token validity is checked once, when a WebSocket connection binds to it.
// Established admin connections are session-scoped and are not re-validated
// per message.
package auth
