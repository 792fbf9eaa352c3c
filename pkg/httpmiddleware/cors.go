package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures cross-origin resource sharing.
type CORSConfig struct {
	// AllowOrigins lists origins permitted to make cross-origin requests.
	// Empty, or a single "*", permits every origin.
	AllowOrigins []string

	// AllowMethods lists permitted methods for actual requests. Empty means
	// "GET, POST, PUT, DELETE, OPTIONS".
	AllowMethods []string

	// AllowHeaders lists permitted request headers. Empty echoes whatever the
	// preflight asked for.
	AllowHeaders []string

	// ExposeHeaders lists response headers scripts may read.
	ExposeHeaders []string

	// AllowCredentials permits cookies and Authorization on cross-origin
	// requests. The wildcard origin cannot carry credentials, so enabling
	// this forces per-origin echo.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Zero omits the
	// header, negative sends "0".
	MaxAge int
}

// corsPolicy is CORSConfig resolved into the exact header values to emit.
type corsPolicy struct {
	allowAll    bool
	origins     map[string]string // lowercased origin -> configured casing
	methods     string
	headers     string
	expose      string
	credentials bool
	maxAge      string
}

func buildPolicy(cfg CORSConfig) corsPolicy {
	p := corsPolicy{
		allowAll:    len(cfg.AllowOrigins) == 0,
		origins:     make(map[string]string, len(cfg.AllowOrigins)),
		methods:     strings.Join(cfg.AllowMethods, ", "),
		headers:     strings.Join(cfg.AllowHeaders, ", "),
		expose:      strings.Join(cfg.ExposeHeaders, ", "),
		credentials: cfg.AllowCredentials,
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			p.allowAll = true
			break
		}
		p.origins[strings.ToLower(o)] = o
	}
	if p.credentials {
		// "*" with credentials is rejected by browsers.
		p.allowAll = false
	}
	if p.methods == "" {
		p.methods = "GET, POST, PUT, DELETE, OPTIONS"
	}
	switch {
	case cfg.MaxAge > 0:
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	case cfg.MaxAge < 0:
		p.maxAge = "0"
	}
	return p
}

// allowOrigin resolves the Access-Control-Allow-Origin value for a request
// origin, or "" when the origin is not permitted. Matching is
// case-insensitive but the configured casing is echoed.
func (p corsPolicy) allowOrigin(origin string) string {
	if p.allowAll {
		return "*"
	}
	return p.origins[strings.ToLower(origin)]
}

// CORS handles cross-origin request headers and OPTIONS preflights. Vary is
// set on every origin-dependent response so shared caches do not serve one
// origin's response to another.
func CORS(cfg CORSConfig) Middleware {
	p := buildPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				if !p.allowAll {
					w.Header().Add("Vary", "Origin")
				}
				next.ServeHTTP(w, r)
				return
			}

			if isPreflight(r) {
				p.servePreflight(w, r, origin)
				return
			}

			if !p.allowAll {
				w.Header().Add("Vary", "Origin")
			}
			if allowed := p.allowOrigin(origin); allowed != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowed)
				if p.credentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				if p.expose != "" {
					w.Header().Set("Access-Control-Expose-Headers", p.expose)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions &&
		r.Header.Get("Access-Control-Request-Method") != ""
}

func (p corsPolicy) servePreflight(w http.ResponseWriter, r *http.Request, origin string) {
	w.Header().Add("Vary", "Origin")
	w.Header().Add("Vary", "Access-Control-Request-Method")
	w.Header().Add("Vary", "Access-Control-Request-Headers")

	allowed := p.allowOrigin(origin)
	if allowed == "" {
		// Disallowed origins get a bare 204; the browser enforces the rest.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", allowed)
	w.Header().Set("Access-Control-Allow-Methods", p.methods)

	if p.headers != "" {
		w.Header().Set("Access-Control-Allow-Headers", p.headers)
	} else if rh := r.Header.Get("Access-Control-Request-Headers"); rh != "" {
		w.Header().Set("Access-Control-Allow-Headers", rh)
	}
	if p.credentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	if p.maxAge != "" {
		w.Header().Set("Access-Control-Max-Age", p.maxAge)
	}

	w.WriteHeader(http.StatusNoContent)
}
