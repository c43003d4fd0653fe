package model

import "strings"

// User is one entry of users.json. PasswordHash is persisted, never returned by the API.
type User struct {
	Username     string   `json:"username"`
	PasswordHash string   `json:"passwordHash"`
	Roles        []string `json:"roles"`
}

// SameUsername compares usernames case-insensitively.
func SameUsername(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
