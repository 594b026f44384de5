package middleware

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/cors"
)

// CORS guards the JSON API under /api and /admin. Downloads expose their
// file name through Content-Disposition.
func CORS(origins []string) func(http.Handler) http.Handler {
	origins = normalizeOrigins(origins)
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: credentialsAllowed(origins),
		MaxAge:           300,
	})
}

// FileCORS guards /uploads. Stored media is read-only and players seek
// with Range requests.
func FileCORS(origins []string) func(http.Handler) http.Handler {
	origins = normalizeOrigins(origins)
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Range"},
		ExposedHeaders:   []string{"Content-Length", "Content-Range", "Accept-Ranges"},
		AllowCredentials: credentialsAllowed(origins),
		MaxAge:           3600,
	})
}

// normalizeOrigins lowercases scheme and host, drops paths and trailing
// slashes, and removes duplicates. Entries that are not http(s) origins are
// skipped. An empty result allows any origin.
func normalizeOrigins(origins []string) []string {
	seen := make(map[string]bool, len(origins))
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			return []string{"*"}
		}
		u, err := url.Parse(o)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			if o != "" {
				log.Printf("[cors] ignoring origin %q", o)
			}
			continue
		}
		o = strings.ToLower(u.Scheme + "://" + u.Host)
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// Credentials are never allowed together with a wildcard origin.
func credentialsAllowed(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return false
		}
	}
	return true
}
