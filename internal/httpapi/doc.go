// Package httpapi exposes the office coordinator to UI collaborators as
// a JSON command API plus a server-sent-events notification stream. It is
// deliberately thin plumbing: every rule lives in the office package, and
// this layer only decodes requests, resolves the session principal, and
// translates typed errors into status codes.
package httpapi
