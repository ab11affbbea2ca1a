// Package middleware groups the HTTP middleware of the fake tracker.
//
// # Components
//
//   - auth: accepts a request carrying the API key or a live session token.
//   - rayid: assigns every request a ray id, stored in the fiber locals and
//     echoed in X-Request-ID for tracing.
package middleware
