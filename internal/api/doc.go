// Package api exposes the task lifecycle over HTTP. Handlers decode and
// validate submissions, hand them to the dispatcher and translate status
// snapshots and internal errors into JSON responses.
package api
