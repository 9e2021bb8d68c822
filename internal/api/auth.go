package api

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"github.com/AaronLay10/SentientSignals/internal/config"
)

// Role represents an authorization role.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEngineer Role = "engineer"
	RoleViewer   Role = "viewer"
)

type credentials struct {
	user string
	pass string
	role Role
}

// authConfig holds credentials loaded from environment variables.
type authConfig struct {
	creds   []credentials
	enabled bool
}

var auth *authConfig

// InitAuth loads auth credentials from environment variables or files.
// Supports *_FILE convention: if SIGNAL_ADMIN_USER_FILE is set, reads from that file.
// If admin credentials are not set, authentication is disabled.
func InitAuth() {
	roles := []Role{RoleAdmin, RoleEngineer, RoleViewer}
	names := make([]string, 0, 2*len(roles))
	for _, role := range roles {
		prefix := "SIGNAL_" + strings.ToUpper(string(role))
		names = append(names, prefix+"_USER", prefix+"_PASS")
	}

	secrets, err := config.ResolveSecrets(names...)
	if err != nil {
		log.Fatalf("failed to resolve auth credentials: %v", err)
	}

	cfg := &authConfig{}
	for i, role := range roles {
		user, pass := secrets[names[2*i]], secrets[names[2*i+1]]
		if user == "" || pass == "" {
			continue
		}
		cfg.creds = append(cfg.creds, credentials{user: user, pass: pass, role: role})
		if role == RoleAdmin {
			cfg.enabled = true
		}
	}
	auth = cfg
}

// IsAuthEnabled returns true if authentication is configured.
func IsAuthEnabled() bool {
	return auth != nil && auth.enabled
}

// authenticate checks basic auth credentials and returns the role if valid.
// Returns empty string if credentials are invalid.
func authenticate(r *http.Request) Role {
	if auth == nil || !auth.enabled {
		return RoleAdmin // No auth configured = full access
	}

	user, pass, ok := r.BasicAuth()
	if !ok {
		return ""
	}

	for _, c := range auth.creds {
		if secureCompare(user, c.user) && secureCompare(pass, c.pass) {
			return c.role
		}
	}
	return ""
}

// secureCompare performs constant-time string comparison to prevent timing attacks.
func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// requireAuth returns 401 Unauthorized with WWW-Authenticate header.
func requireAuth(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="Sentient Signals"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// RequireRole wraps a handler and requires one of the specified roles.
func RequireRole(handler http.HandlerFunc, allowedRoles ...Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := authenticate(r)
		if role == "" {
			requireAuth(w)
			return
		}

		for _, allowed := range allowedRoles {
			if role == allowed {
				handler(w, r)
				return
			}
		}

		http.Error(w, "Forbidden", http.StatusForbidden)
	}
}

// RequireAnyRole wraps a handler accepting any authenticated role.
func RequireAnyRole(handler http.HandlerFunc) http.HandlerFunc {
	return RequireRole(handler, RoleAdmin, RoleEngineer, RoleViewer)
}

// RequireEngineer wraps a handler requiring engineer or admin role.
func RequireEngineer(handler http.HandlerFunc) http.HandlerFunc {
	return RequireRole(handler, RoleAdmin, RoleEngineer)
}
