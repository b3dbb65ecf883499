package httptransport

import (
	"encoding/json"
	"net/http"
	"net/url"

	"vismooc/internal/auth"
	"vismooc/internal/passport"
)

// AuthHandler owns the login and logout endpoints. The OAuth legs themselves
// are middleware produced by the authenticator; see NewRouter.
type AuthHandler struct {
	provider *auth.Provider
}

func NewAuthHandler(provider *auth.Provider) *AuthHandler {
	return &AuthHandler{provider: provider}
}

// handleLogin captures where the user wanted to go and hands off to the
// provider flow. Already authenticated users go straight back.
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	pc := passport.FromRequest(r)
	returnTo := loginReturnTo(r)

	if pc != nil && pc.IsAuthenticated() {
		http.Redirect(w, r, returnTo, http.StatusFound)
		return
	}
	if pc != nil && pc.Session != nil {
		pc.Session.Set("returnTo", returnTo)
	}
	http.Redirect(w, r, "/oauth", http.StatusFound)
}

// loginReturnTo picks the post-login target: an explicit returnTo parameter,
// else the page the user came from. Only same-site paths are accepted.
func loginReturnTo(r *http.Request) string {
	target := r.URL.Query().Get("returnTo")
	if target == "" && r.Referer() != "" {
		if ref, err := url.Parse(r.Referer()); err == nil && (ref.Host == "" || ref.Host == r.Host) {
			target = ref.RequestURI()
		}
	}
	if target == "" || target[0] != '/' {
		return "/"
	}
	return target
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	pc := passport.FromRequest(r)
	if pc != nil {
		h.provider.Logout(pc)
		pc.Logout()
		if pc.Session != nil {
			pc.Session.Destroy()
		}
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleSessionInfo reports the logged-in user so the frontend can render
// its account chrome.
func (h *AuthHandler) handleSessionInfo(w http.ResponseWriter, r *http.Request) {
	pc := passport.FromRequest(r)
	if pc == nil || !pc.IsAuthenticated() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthenticated"})
		return
	}
	writeJSON(w, map[string]any{"user": pc.User()})
}
