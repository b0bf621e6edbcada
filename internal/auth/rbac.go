package auth

import (
	"strings"

	"github.com/Shivanand-hulikatti/smartevent/internal/model"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func NormalizeRole(role string) Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case string(RoleAdmin):
		return RoleAdmin
	default:
		return RoleUser
	}
}

// RoleFor derives the token role from the stored user record.
func RoleFor(u *model.User) Role {
	if u != nil && u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}
