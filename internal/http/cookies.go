package httpx

import (
	"net/http"
	"strings"
	"time"

	domainauth "github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/auth"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/service"
)

// Cookie names. The marker cookie name is fixed by service.MarkerCookieName;
// a live install may have outstanding attempts keyed by it.
const (
	sessionCookieName   = "session_id"
	assertionCookieName = "cas_assertion_id"
)

// cookieWriter centralizes cookie attributes so set and clear agree on
// Path/Domain/SameSite.
type cookieWriter struct {
	Domain string
	Secure bool
}

func (c cookieWriter) secure(r *http.Request) bool {
	return c.Secure || r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func (c cookieWriter) set(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// clear expires a cookie immediately, mirroring the attributes used when
// setting it.
func (c cookieWriter) clear(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.secure(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (c cookieWriter) setSession(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	c.set(w, r, sessionCookieName, s.ID, int(time.Until(s.ExpiresAt).Seconds()))
}

func (c cookieWriter) setAssertion(w http.ResponseWriter, r *http.Request, a domainauth.Assertion) {
	c.set(w, r, assertionCookieName, a.ID, int(time.Until(a.ExpiresAt).Seconds()))
}

// setMarker starts the attempt clock: the value is the epoch second the
// attempt began, bounded by the marker TTL.
func (c cookieWriter) setMarker(w http.ResponseWriter, r *http.Request, now time.Time) {
	c.set(w, r, service.MarkerCookieName, service.NewMarkerValue(now), int(service.MarkerTTL.Seconds()))
}

func cookieValue(r *http.Request, name string) string {
	if cookie, err := r.Cookie(name); err == nil {
		return cookie.Value
	}
	return ""
}
