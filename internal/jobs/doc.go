// Package jobs provides the job handlers executed by the task workers: the
// SQL query job, which runs a statement against an external backend through
// the QueryExecutor boundary, and the simulated long-running job that
// publishes step-by-step progress. Handlers are registered with a
// task.Executor under their job type.
package jobs
