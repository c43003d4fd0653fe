package model

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string     `json:"token"`
	User  *Principal `json:"user"`
}
