package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lightwaver/gallerix/internal/model"
	"github.com/lightwaver/gallerix/internal/model/requestresponse"
	"github.com/lightwaver/gallerix/internal/ports"
	"github.com/lightwaver/gallerix/internal/util"
)

// AdminHandler exposes CRUD over users.json, roles.json and galleries.json.
// Routes are mounted behind RequireAuth and RequireAdmin.
type AdminHandler struct {
	ports.AdminService
}

func NewAdminHandler(adminService ports.AdminService) *AdminHandler {
	return &AdminHandler{adminService}
}

// ListUsers godoc
// @Summary List users
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} requestresponse.ListUsersResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Router /api/admin/users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.AdminService.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := requestresponse.ListUsersResponse{Users: make([]requestresponse.UserResponse, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, requestresponse.UserResponseFromModel(u))
	}
	util.WriteJSON(w, http.StatusOK, resp)
}

// UpsertUser godoc
// @Summary Create or update a user
// @Description The password is hashed before it is stored. On update an empty password keeps the current one.
// @Tags Admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body requestresponse.UpsertUserRequest true "User"
// @Success 200 {object} requestresponse.UserResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Router /api/admin/users [post]
func (h *AdminHandler) UpsertUser(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.UpsertUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.AdminService.UpsertUser(r.Context(), req.Username, req.Password, req.Roles)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, requestresponse.UserResponseFromModel(*user))
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param username path string true "Username"
// @Success 200 {object} requestresponse.SuccessResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Router /api/admin/users/{username} [delete]
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.AdminService.DeleteUser(r.Context(), chi.URLParam(r, "username")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, requestresponse.SuccessResponse{OK: true})
}

// GetRoles godoc
// @Summary Global role requirements
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} model.RolesDocument
// @Router /api/admin/roles [get]
func (h *AdminHandler) GetRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.AdminService.GetRoles(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, roles)
}

// SetRoles godoc
// @Summary Replace global role requirements
// @Tags Admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body model.RolesDocument true "Roles document"
// @Success 200 {object} model.RolesDocument
// @Failure 400 {object} requestresponse.ErrorResponse
// @Router /api/admin/roles [put]
func (h *AdminHandler) SetRoles(w http.ResponseWriter, r *http.Request) {
	var roles model.RolesDocument
	if !decodeJSON(w, r, &roles) {
		return
	}
	if err := h.AdminService.SetRoles(r.Context(), &roles); err != nil {
		writeServiceError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, roles)
}

// ListGalleries godoc
// @Summary All gallery definitions
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} requestresponse.ListAdminGalleriesResponse
// @Router /api/admin/galleries [get]
func (h *AdminHandler) ListGalleries(w http.ResponseWriter, r *http.Request) {
	galleries, err := h.AdminService.ListGalleries(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, requestresponse.ListAdminGalleriesResponse{Galleries: galleries})
}

// UpsertGallery godoc
// @Summary Create or replace a gallery definition
// @Tags Admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body model.Gallery true "Gallery"
// @Success 200 {object} model.Gallery
// @Failure 400 {object} requestresponse.ErrorResponse
// @Router /api/admin/galleries [post]
func (h *AdminHandler) UpsertGallery(w http.ResponseWriter, r *http.Request) {
	var gallery model.Gallery
	if !decodeJSON(w, r, &gallery) {
		return
	}

	saved, err := h.AdminService.UpsertGallery(r.Context(), gallery)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, saved)
}

// DeleteGallery godoc
// @Summary Delete a gallery definition
// @Description Media objects are kept.
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "Gallery name"
// @Success 200 {object} requestresponse.SuccessResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Router /api/admin/galleries/{name} [delete]
func (h *AdminHandler) DeleteGallery(w http.ResponseWriter, r *http.Request) {
	if err := h.AdminService.DeleteGallery(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, requestresponse.SuccessResponse{OK: true})
}
