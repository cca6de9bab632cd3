package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/gorilla/sessions"

	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/settings"
)

const (
	sessionName  = "linkedin-post"
	stateKey     = "linkedin_oauth_state"
	authorizeURL = "https://www.linkedin.com/oauth/v2/authorization"

	// DefaultScope is the LinkedIn scope needed to share on the member's behalf.
	DefaultScope = "w_member_social"
)

// Handler implements the LinkedIn OAuth begin and callback legs. The state
// token is a one-time anti-forgery value held in a short-lived cookie
// session; the callback never exchanges the code for a token, so the
// connected flag is a client-local approximation.
type Handler struct {
	store       *settings.Store
	sessions    sessions.Store
	redirectURI string
	scope       string
	randState   func() (string, error)
}

// NewHandler creates an OAuth handler redirecting back to redirectURI.
func NewHandler(store *settings.Store, redirectURI, scope string) *Handler {
	if scope == "" {
		scope = DefaultScope
	}

	cookies := sessions.NewCookieStore(randomBytes(32))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &Handler{
		store:       store,
		sessions:    cookies,
		redirectURI: redirectURI,
		scope:       scope,
		randState:   randomState,
	}
}

// HandleBegin stashes a fresh anti-forgery state token and redirects the
// browser to LinkedIn's authorization page.
func (h *Handler) HandleBegin(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.Load()
	if err != nil {
		redirectWithError(w, r, "Could not load settings.")
		return
	}
	if st.ClientID == "" {
		redirectWithError(w, r, "Save a LinkedIn Client ID before connecting.")
		return
	}

	state, err := h.randState()
	if err != nil {
		redirectWithError(w, r, "Could not generate a state token.")
		return
	}

	session, _ := h.sessions.Get(r, sessionName)
	session.Values[stateKey] = state
	if err := session.Save(r, w); err != nil {
		redirectWithError(w, r, "Could not persist the state token.")
		return
	}

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", st.ClientID)
	q.Set("redirect_uri", h.redirectURI)
	q.Set("state", state)
	q.Set("scope", h.scope)
	http.Redirect(w, r, authorizeURL+"?"+q.Encode(), http.StatusFound)
}

// HandleCallback interprets the provider's return navigation. A matching
// state marks the account connected; a provider error or state mismatch is
// surfaced in the settings view with the connection state untouched. Either
// way the one-time token is cleared and the query parameters are stripped by
// redirecting to the settings view.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	session, _ := h.sessions.Get(r, sessionName)
	stored, _ := session.Values[stateKey].(string)
	delete(session.Values, stateKey)
	if err := session.Save(r, w); err != nil {
		log.Printf("Clearing OAuth state token: %v", err)
	}

	if errCode := q.Get("error"); errCode != "" {
		desc := q.Get("error_description")
		if desc == "" {
			desc = "An unknown error occurred during LinkedIn authentication."
		}
		redirectWithError(w, r, "Connection Failed: "+desc)
		return
	}

	code := q.Get("code")
	state := q.Get("state")
	if code == "" || state == "" || stored == "" || state != stored {
		redirectWithError(w, r, "Connection Failed: state token mismatch.")
		return
	}

	// A real deployment would exchange the code server-side; here a matching
	// state is treated as a successful connection.
	if err := h.store.SetConnected(true); err != nil {
		redirectWithError(w, r, "Could not persist connection state.")
		return
	}
	http.Redirect(w, r, "/settings?connected=1", http.StatusFound)
}

func redirectWithError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/settings?err="+url.QueryEscape(msg), http.StatusFound)
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		log.Printf("Generating session key: %v", err)
	}
	return b
}
