// Package httpapi exposes the registration, session and roster services as a
// JSON API over HTTP.
//
// Service errors are mapped onto status codes by WriteError. Calls that fail
// with a transient store error are retried with backoff before a 503 with
// Retry-After is returned.
package httpapi
