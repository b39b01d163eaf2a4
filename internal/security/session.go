package security

import (
	"encoding/gob"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/histolab/msinet-go/internal/conf"
)

func init() {
	// Flash payloads ride the cookie via gob encoding.
	gob.Register(flashMessage{})
}

const (
	// SessionName is the cookie name for the login session.
	SessionName = "msinet-session"

	userIDKey = "user_id"
)

// flashMessage carries one user-facing notice across a redirect.
type flashMessage struct {
	Category string
	Message  string
}

// SessionManager wraps a gorilla cookie store and provides login state and
// flash message handling for the web layer.
type SessionManager struct {
	store *sessions.CookieStore
}

// buildSessionOptions creates session options with standard security settings.
// The secure parameter controls whether cookies require HTTPS.
// The maxAge parameter sets the session duration in seconds.
func buildSessionOptions(secure bool, maxAge int) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewSessionManager creates a session manager from application settings.
func NewSessionManager(settings *conf.Settings) *SessionManager {
	store := sessions.NewCookieStore([]byte(settings.Security.SessionSecret))

	maxAge := 0 // session cookie by default
	if settings.Security.SessionDuration > 0 {
		maxAge = int(settings.Security.SessionDuration.Seconds())
	}
	store.Options = buildSessionOptions(settings.Security.RedirectToHTTPS, maxAge)

	return &SessionManager{store: store}
}

// session fetches the request session, falling back to a fresh one when the
// cookie fails to decode (e.g. after a secret rotation).
func (sm *SessionManager) session(c echo.Context) *sessions.Session {
	session, err := sm.store.Get(c.Request(), SessionName)
	if err != nil {
		session, _ = sm.store.New(c.Request(), SessionName)
	}
	return session
}

// LoginUser establishes a persistent session identity for the given user.
func (sm *SessionManager) LoginUser(c echo.Context, userID uint) error {
	session := sm.session(c)
	session.Values[userIDKey] = userID
	if err := session.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("saving login session: %w", err)
	}
	return nil
}

// LogoutUser destroys the current session.
func (sm *SessionManager) LogoutUser(c echo.Context) error {
	session := sm.session(c)
	delete(session.Values, userIDKey)
	session.Options.MaxAge = -1 // ensure cookie deletion on client
	if err := session.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("clearing login session: %w", err)
	}
	return nil
}

// CurrentUserID returns the authenticated user's id and whether a session
// identity is present.
func (sm *SessionManager) CurrentUserID(c echo.Context) (uint, bool) {
	session := sm.session(c)
	id, ok := session.Values[userIDKey].(uint)
	return id, ok
}

// Flash queues a user-facing message of the given category ("success" or
// "error") for display on the next rendered page.
func (sm *SessionManager) Flash(c echo.Context, category, message string) {
	session := sm.session(c)
	session.AddFlash(flashMessage{Category: category, Message: message})
	// A failed save only loses the notice, not the request.
	_ = session.Save(c.Request(), c.Response())
}

// Flashes drains and returns all queued flash messages.
func (sm *SessionManager) Flashes(c echo.Context) []FlashView {
	session := sm.session(c)
	raw := session.Flashes()
	if len(raw) > 0 {
		_ = session.Save(c.Request(), c.Response())
	}

	views := make([]FlashView, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(flashMessage); ok {
			views = append(views, FlashView{Category: msg.Category, Message: msg.Message})
		}
	}
	return views
}

// FlashView is the template-facing shape of a flash message.
type FlashView struct {
	Category string
	Message  string
}
