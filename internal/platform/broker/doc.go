// Package broker moves jobs between the Dispatcher and the workers through
// Redis using asynq, so submissions survive a process restart and workers
// can run in a separate process from the HTTP API.
package broker
