package model

import "slices"

// Permission is the closed set of actions role requirements are declared for.
type Permission string

const (
	PermissionView          Permission = "view"
	PermissionUpload        Permission = "upload"
	PermissionAdmin         Permission = "admin"
	PermissionCreateGallery Permission = "createGallery"
)

// PublicRole in a gallery's view requirements opens the gallery to anonymous readers.
const PublicRole = "public"

// RoleRequirements lists, per permission, the roles that grant it.
type RoleRequirements struct {
	View          []string `json:"view,omitempty"`
	Upload        []string `json:"upload,omitempty"`
	Admin         []string `json:"admin,omitempty"`
	CreateGallery []string `json:"createGallery,omitempty"`
}

// Required returns the roles declared for p. Undeclared permissions yield nil.
func (r RoleRequirements) Required(p Permission) []string {
	switch p {
	case PermissionView:
		return r.View
	case PermissionUpload:
		return r.Upload
	case PermissionAdmin:
		return r.Admin
	case PermissionCreateGallery:
		return r.CreateGallery
	default:
		return nil
	}
}

// RolesDocument is the content of roles.json.
type RolesDocument struct {
	Global RoleRequirements `json:"global"`
}

// Gallery is one entry of galleries.json.
type Gallery struct {
	Name        string           `json:"name"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Roles       RoleRequirements `json:"roles"`
}

func (g *Gallery) IsPublic() bool {
	return g != nil && slices.Contains(g.Roles.View, PublicRole)
}

// DisplayTitle falls back to the name when no title is set.
func (g *Gallery) DisplayTitle() string {
	if g.Title == "" {
		return g.Name
	}
	return g.Title
}
