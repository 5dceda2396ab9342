package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// Browser-facing defaults for this API. Status transitions go over PATCH, so
// it must be preflightable; X-Actor-Role and X-API-Key are the credentials
// the dashboard sends; X-Request-ID is exposed so support tooling can show
// the correlation id for a failed call.
var (
	defaultAllowMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions,
	}
	defaultAllowHeaders = []string{
		"Content-Type", "Authorization", "X-Actor-Role", "X-API-Key",
	}
	defaultExposeHeaders = []string{"X-Request-ID"}
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists the origins permitted to call the API from a
	// browser. Empty, or the single entry "*", allows every origin.
	AllowOrigins []string

	// AllowMethods lists the methods permitted in actual requests.
	// Empty means defaultAllowMethods.
	AllowMethods []string

	// AllowHeaders lists the request headers permitted in actual requests.
	// Empty means defaultAllowHeaders.
	AllowHeaders []string

	// ExposeHeaders lists the response headers scripts may read.
	// Empty means defaultExposeHeaders.
	ExposeHeaders []string

	// AllowCredentials permits cookies and Authorization headers on
	// cross-origin calls. Incompatible with a wildcard origin, so when set
	// the middleware always echoes the specific matched origin.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Zero omits the
	// header; a negative value sends "0" to disable caching.
	MaxAge int
}

// CORS returns a middleware answering preflight requests and stamping
// cross-origin response headers. Origins are matched case-insensitively and
// the configured spelling is echoed back. Vary headers are always set on
// origin-dependent responses so shared caches do not serve one origin's
// response to another.
func CORS(cfg CORSConfig) Middleware {
	allowAll := len(cfg.AllowOrigins) == 0
	allowed := make(map[string]string, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			allowAll = true
			break
		}
		allowed[strings.ToLower(o)] = o
	}
	if cfg.AllowCredentials {
		allowAll = false
	}

	allowMethods := headerList(cfg.AllowMethods, defaultAllowMethods)
	allowHeaders := headerList(cfg.AllowHeaders, defaultAllowHeaders)
	exposeHeaders := headerList(cfg.ExposeHeaders, defaultExposeHeaders)

	maxAge := ""
	switch {
	case cfg.MaxAge > 0:
		maxAge = strconv.Itoa(cfg.MaxAge)
	case cfg.MaxAge < 0:
		maxAge = "0"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Same-origin request. Still vary on Origin when responses
				// differ per origin, so caches keep the variants apart.
				if !allowAll {
					w.Header().Add("Vary", "Origin")
				}
				next.ServeHTTP(w, r)
				return
			}

			allowOrigin := ""
			if allowAll {
				allowOrigin = "*"
			} else if o, ok := allowed[strings.ToLower(origin)]; ok {
				allowOrigin = o
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Add("Vary", "Origin")
				w.Header().Add("Vary", "Access-Control-Request-Method")
				w.Header().Add("Vary", "Access-Control-Request-Headers")

				if allowOrigin != "" {
					w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
					w.Header().Set("Access-Control-Allow-Methods", allowMethods)
					w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
					if cfg.AllowCredentials {
						w.Header().Set("Access-Control-Allow-Credentials", "true")
					}
					if maxAge != "" {
						w.Header().Set("Access-Control-Max-Age", maxAge)
					}
				}

				// A disallowed origin gets 204 with no CORS headers; the
				// browser enforces the denial.
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if !allowAll {
				w.Header().Add("Vary", "Origin")
			}
			if allowOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
				w.Header().Set("Access-Control-Expose-Headers", exposeHeaders)
				if cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// headerList joins values for a comma-separated header, falling back to
// fallback when nothing was configured.
func headerList(values, fallback []string) string {
	if len(values) == 0 {
		values = fallback
	}
	return strings.Join(values, ", ")
}
