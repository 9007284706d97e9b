// Package task manages the asynchronous task lifecycle: issuing task
// identifiers, queuing jobs for background workers, publishing progress
// snapshots while a job runs, and answering status queries by identifier.
// Work never runs on the request path; callers poll for the outcome.
package task
