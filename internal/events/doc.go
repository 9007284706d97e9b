// Package events carries task lifecycle notifications between the task
// core and observers such as the metrics recorder.
//
// The primary components are:
// - TaskEvent: a point-in-time lifecycle notification for one task
// - EventHandler: interface for components that react to events
// - EventEmitter: interface for components that publish events
package events
