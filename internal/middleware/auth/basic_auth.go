package auth

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

const DefaultRealm = "Admin Area"

// BasicAuth guards the admin router with a single login. When the login or password is not
// configured the router stays closed.
func BasicAuth(realm, username, password string) func(http.Handler) http.Handler {
	if realm == "" {
		realm = DefaultRealm
	}

	if username == "" || password == "" {
		return func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requireAuth(w, realm)
			})
		}
	}

	// chi сравнивает пароль через subtle.ConstantTimeCompare
	return middleware.BasicAuth(realm, map[string]string{username: password})
}

func requireAuth(w http.ResponseWriter, realm string) {
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Basic realm="%s"`, realm))
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
