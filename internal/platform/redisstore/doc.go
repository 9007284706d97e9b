// Package redisstore implements task.TaskStore on Redis, so that workers in
// several processes can share task records. Each task is a hash holding its
// state and the JSON-encoded record; writes go through a Lua script that
// refuses to overwrite terminal records. Terminal records expire through
// key TTLs instead of a sweep.
package redisstore
