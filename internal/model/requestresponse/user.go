package requestresponse

import "github.com/lightwaver/gallerix/internal/model"

// UpsertUserRequest : admin create or update of a user. Password is optional on update.
type UpsertUserRequest struct {
	Username string   `json:"username" example:"alice"`
	Password string   `json:"password,omitempty" example:"P@ssw0rd!"`
	Roles    []string `json:"roles" example:"viewer,family"`
}

// UserResponse : user without the password hash
type UserResponse struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// UserResponseFromModel : strips the password hash
func UserResponseFromModel(u model.User) UserResponse {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return UserResponse{Username: u.Username, Roles: roles}
}

// ListUsersResponse : all users
type ListUsersResponse struct {
	Users []UserResponse `json:"users"`
}

// ListAdminGalleriesResponse : full gallery definitions
type ListAdminGalleriesResponse struct {
	Galleries []model.Gallery `json:"galleries"`
}
