package security

import "github.com/lightwaver/gallerix/internal/model"

// AdminRole grants the admin permission everywhere.
const AdminRole = "admin"

// Can decides whether principal holds permission. The admin permission is
// decided by the admin role alone. Otherwise the gallery's requirements apply
// when a gallery is given, and the global ones when it is not. An empty
// requirement list grants nothing.
func Can(principal *model.Principal, permission model.Permission, gallery *model.Gallery, global model.RoleRequirements) bool {
	if principal == nil {
		return false
	}
	if permission == model.PermissionAdmin {
		return principal.HasRole(AdminRole)
	}

	required := global.Required(permission)
	if gallery != nil {
		required = gallery.Roles.Required(permission)
	}
	return principal.HasAnyRole(required)
}

// IsPublic reports whether anonymous viewers may read gallery.
func IsPublic(gallery *model.Gallery) bool {
	return gallery.IsPublic()
}
