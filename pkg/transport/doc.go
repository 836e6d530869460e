// Package transport is the HTTP collaborator of the content management
// client: it turns a Request into a fully read Response and classifies
// failures into *StatusError (non-2xx) and *RequestError (no response).
//
// # Retries
//
// Only idempotent reads (GET, HEAD) are retried, with exponential backoff, on
// network errors, 429 and 5xx responses. Writes are sent exactly once; version
// conflicts are always surfaced to the caller.
//
// # Authentication
//
// The access token is attached by an oauth2 transport as a Bearer token. The
// token is never logged, and recorded request headers on errors are redacted.
package transport
