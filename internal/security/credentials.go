package security

import (
	"net/http"
	"strings"
)

// QueryTokenParam carries a token on media URLs, where browsers cannot set headers.
const QueryTokenParam = "t"

// ExtractCredential finds the raw session token for media requests.
// Precedence: session cookie, then the "t" query parameter, then the Authorization header.
func ExtractCredential(r *http.Request, cookieName string) (string, bool) {
	if token := cookieToken(r, cookieName); token != "" {
		return token, true
	}
	if token := strings.TrimSpace(r.URL.Query().Get(QueryTokenParam)); token != "" {
		return token, true
	}
	if token := bearerToken(r); token != "" {
		return token, true
	}
	return "", false
}

// apiCredential is the API flavour: Authorization header first, session cookie as fallback.
func apiCredential(r *http.Request, cookieName string) (string, bool) {
	if token := bearerToken(r); token != "" {
		return token, true
	}
	if token := cookieToken(r, cookieName); token != "" {
		return token, true
	}
	return "", false
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func cookieToken(r *http.Request, cookieName string) string {
	if cookieName == "" {
		return ""
	}
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}
