// Package ratelimit provides per-identity sliding-window rate limiting for
// the gateway's protected routes, plus an optional process-wide throttle.
//
// The Store interface is the admit/reject contract: the in-memory Limiter
// serves single-process deployments, RedisStore shares window state across
// processes. Both count requests in the trailing window ending at "now" and
// report, on rejection, how long until the oldest counted request ages out.
//
// Routes without a configured rule are never limited.
package ratelimit
