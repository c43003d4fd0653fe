package handler

import (
	"net/http"
	"time"

	"github.com/lightwaver/gallerix/config"
	"github.com/lightwaver/gallerix/internal/model/requestresponse"
	"github.com/lightwaver/gallerix/internal/ports"
	"github.com/lightwaver/gallerix/internal/security"
	"github.com/lightwaver/gallerix/internal/util"
)

type AuthenticationHandler struct {
	ports.AuthenticationService
	cookie   config.CookieConfig
	tokenTTL time.Duration
}

func NewAuthenticationHandler(authenticationService ports.AuthenticationService, cookie *config.CookieConfig, tokenTTL time.Duration) *AuthenticationHandler {
	return &AuthenticationHandler{
		AuthenticationService: authenticationService,
		cookie:                *cookie,
		tokenTTL:              tokenTTL,
	}
}

// Login godoc
// @Summary Log in
// @Description Checks username and password, returns a session token and sets it as an HTTP-only cookie.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LoginRequest true "Credentials"
// @Success 200 {object} requestresponse.LoginResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Malformed body or empty fields"
// @Failure 401 {object} requestresponse.ErrorResponse "invalid credentials"
// @Failure 429 {object} requestresponse.ErrorResponse "Too many attempts"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/login [post]
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.AuthenticationService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(result.Token, int(h.tokenTTL.Seconds())))
	util.WriteJSON(w, http.StatusOK, requestresponse.LoginResponse{
		Token: result.Token,
		User:  *result.User,
	})
}

// Logout godoc
// @Summary Log out
// @Description Clears the session cookie. Tokens are stateless and stay valid until they expire.
// @Tags Authentication
// @Produce json
// @Success 200 {object} requestresponse.SuccessResponse
// @Router /api/logout [post]
func (h *AuthenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1))
	util.WriteJSON(w, http.StatusOK, requestresponse.SuccessResponse{OK: true})
}

// Me godoc
// @Summary Current user
// @Tags Authentication
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} requestresponse.CurrentUserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Router /api/me [get]
func (h *AuthenticationHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := security.PrincipalFromContext(r.Context())
	if !ok {
		util.HandleError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	util.WriteJSON(w, http.StatusOK, requestresponse.CurrentUserResponse{User: *principal})
}

func (h *AuthenticationHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
