package server

import (
	"net/http"
	"time"

	"github.com/Yocrita/Yocrify/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

// userCookie carries the authenticated user's id between requests. The core
// does not depend on any richer session model.
const userCookie = "yocrify_user"

// TokenSink receives tokens obtained by the callback handler, keyed by the
// user the flow authenticated.
type TokenSink interface {
	Save(userID string, token *oauth2.Token) error
}

// ProfileFunc resolves the authenticated user's id for a freshly exchanged
// token (typically a /me call against the remote API).
type ProfileFunc func(r *http.Request, token *oauth2.Token) (string, error)

// OAuthHandler implements the login/callback pair of the authorization code
// flow, persisting the exchanged token per user. It is a thin shim around
// the credential store; the sync core only ever sees a TokenProvider.
type OAuthHandler struct {
	config  *oauth2.Config
	tokens  TokenSink
	profile ProfileFunc
	logger  *log.Logger
	state   string
}

// NewOAuthHandler creates an OAuth handler. A fresh random state token is
// generated per handler for CSRF protection.
func NewOAuthHandler(config *oauth2.Config, tokens TokenSink, profile ProfileFunc, logger *log.Logger) *OAuthHandler {
	return &OAuthHandler{
		config:  config,
		tokens:  tokens,
		profile: profile,
		logger:  logger,
		state:   shared.GenerateID(),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/login", "/callback", "/logout"}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/login":
		h.login(w, r)
	case "/callback":
		h.callback(w, r)
	case "/logout":
		h.logout(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *OAuthHandler) login(w http.ResponseWriter, r *http.Request) {
	url := h.config.AuthCodeURL(h.state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *OAuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("state") != h.state {
		writeError(w, http.StatusBadRequest, "invalid state parameter")
		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		writeError(w, http.StatusBadRequest, "authorization failed: %s", errParam)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("token exchange failed", "error", err)
		writeError(w, http.StatusInternalServerError, "token exchange failed")
		return
	}

	userID, err := h.profile(r, token)
	if err != nil {
		h.logger.Error("profile lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve user")
		return
	}

	if err := h.tokens.Save(userID, token); err != nil {
		h.logger.Error("token persistence failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store credentials")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     userCookie,
		Value:    userID,
		Path:     "/",
		Expires:  time.Now().Add(30 * 24 * time.Hour),
		HttpOnly: true,
	})

	http.Redirect(w, r, "/playlists", http.StatusFound)
}

func (h *OAuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: userCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	http.Redirect(w, r, "/login", http.StatusFound)
}

// currentUser resolves the authenticated user id from the session cookie.
func currentUser(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(userCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
