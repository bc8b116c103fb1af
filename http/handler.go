package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"mediagate"
	"mediagate/credentials"
	"mediagate/monitoring"
	"mediagate/ratelimit"
)

// Route keys shared by the limiter configuration and the metrics labels.
const (
	RouteFiles  = "files"
	RouteLogin  = "login"
	RouteHealth = "healthz"
)

// maxLoginBody bounds the login request body; credentials never need more.
const maxLoginBody = 64 << 10

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	CORS CORSConfig

	// TrustForwardedFor uses the first X-Forwarded-For hop as the client
	// identity. Enable only behind a proxy that overwrites the header.
	TrustForwardedFor bool

	// ProtectFiles requires a bearer session on the file route.
	ProtectFiles bool
}

// Deps are the collaborators the handler dispatches to. Cache, Storage,
// Limits, Verifier and Sessions are required; Throttle and Metrics are
// optional.
type Deps struct {
	Cache    *mediagate.CacheGateway
	Storage  mediagate.Storage
	Limits   ratelimit.Store
	Throttle *ratelimit.Throttle
	Verifier *credentials.Verifier
	Sessions *credentials.SessionStore
	Metrics  *monitoring.Metrics
}

// Handler provides the gateway's HTTP handlers.
type Handler struct {
	config HandlerConfig
	deps   Deps
}

// NewHandler creates a new Handler with the given configuration and
// collaborators.
func NewHandler(config *HandlerConfig, deps Deps) *Handler {
	return &Handler{
		config: *config,
		deps:   deps,
	}
}

// Router returns the configured http.Handler.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	if h.deps.Throttle != nil {
		r.Use(ThrottleMiddleware(h.deps.Throttle, h.deps.Metrics))
	}

	identity := ClientIdentity(h.config.TrustForwardedFor)

	r.With(MetricsMiddleware(h.deps.Metrics, RouteHealth)).
		Get("/healthz", h.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(MetricsMiddleware(h.deps.Metrics, RouteLogin))
		r.Use(RateLimitMiddleware(h.deps.Limits, RouteLogin, identity, h.deps.Metrics))
		r.Post("/login", h.handleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(MetricsMiddleware(h.deps.Metrics, RouteFiles))
		r.Use(RateLimitMiddleware(h.deps.Limits, RouteFiles, identity, h.deps.Metrics))
		if h.config.ProtectFiles {
			r.Use(SessionMiddleware(h.deps.Sessions))
		}
		r.Get("/files/*", h.handleGetFile)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleGetFile(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	if path == "" {
		WriteError(w, http.StatusBadRequest, "invalid_path", "Invalid path")
		return
	}

	dec := h.evaluate(path, r.Header.Get("If-None-Match"))

	if dec.NotModified {
		if h.deps.Metrics != nil {
			h.deps.Metrics.ConditionalHitsTotal.WithLabelValues(string(dec.Category)).Inc()
		}
		w.WriteHeader(http.StatusNotModified)
		return
	}

	start := time.Now()
	content, err := h.deps.Storage.Fetch(r.Context(), path)
	if err != nil {
		if h.deps.Metrics != nil && !errors.Is(err, mediagate.ErrNotFound) {
			h.deps.Metrics.StorageErrorsTotal.Inc()
		}
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	if h.deps.Metrics != nil {
		h.deps.Metrics.FetchDuration.Observe(time.Since(start).Seconds())
		h.deps.Metrics.ConditionalMissesTotal.WithLabelValues(string(dec.Category)).Inc()
	}

	w.Header().Set("Cache-Control", dec.Policy.CacheControl)
	if dec.Policy.Cacheable {
		w.Header().Set("ETag", `"`+dec.Token+`"`)
	}
	w.Header().Set("Content-Type", detectContentType(path))

	if _, err := io.Copy(w, content); err != nil {
		slog.Warn("failed to stream object", "path", path, "err", err)
	}
}

// evaluate runs the conditional-cache decision against each strong validator
// the client sent. Weak validators never match: the fingerprint asserts
// byte-for-byte identity, so weak comparison has nothing to add.
func (h *Handler) evaluate(path, ifNoneMatch string) mediagate.Decision {
	dec := h.deps.Cache.Evaluate(path, "")

	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" || strings.HasPrefix(candidate, "W/") {
			continue
		}
		candidate = strings.Trim(candidate, `"`)

		if d := h.deps.Cache.Evaluate(path, candidate); d.NotModified {
			return d
		}
	}

	return dec
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBody)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "invalid_body", "Username and password are required")
		return
	}

	if err := h.deps.Verifier.Verify(req.Username, req.Password); err != nil {
		HandleError(w, err)
		return
	}

	sess := h.deps.Sessions.Issue(req.Username, time.Now())

	_ = WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: sess.Token,
		TokenType:   "bearer",
		ExpiresIn:   int(h.deps.Sessions.TTL().Seconds()),
	})
}

func detectContentType(path string) string {
	ext := filepath.Ext(path)
	contentType := mime.TypeByExtension(ext)

	if contentType == "" {
		return "application/octet-stream"
	}

	return contentType
}
