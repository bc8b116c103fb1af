// Package http provides the HTTP surface of the media gateway.
//
// Two routes carry the interesting behavior:
//
//   - GET /files/* serves immutable objects from storage with conditional
//     caching: a matching If-None-Match validator is answered 304 with no
//     storage fetch, everything else is fetched and served with the
//     category's Cache-Control directive and, for cacheable categories, a
//     quoted ETag derived from the path.
//
//   - POST /login verifies credentials and issues a bearer session token.
//     The route sits behind a per-identity sliding-window rate limit;
//     rejected requests get 429 with a Retry-After hint, never a bare
//     denial.
//
// # Middleware
//
// RateLimitMiddleware guards a route group with a ratelimit.Store;
// ThrottleMiddleware applies the optional process-wide throttle;
// MetricsMiddleware records request counts when monitoring is enabled.
// Client identity is the peer address, or the first X-Forwarded-For hop
// when the deployment fronts the gateway with a trusted proxy.
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{CORS: corsCfg}, deps)
//	srv := &nethttp.Server{Addr: ":8080", Handler: handler.Router()}
//
// Storage errors pass through unchanged in kind: a missing object is 404, an
// unreachable backend is 502. Neither is ever reinterpreted as a cache
// decision.
package http
