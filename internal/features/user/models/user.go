package models

import "time"

// Role is the closed set of membership roles. Role checks are exhaustive
// switches on this type, never string prefix matching at call sites.
type Role string

const (
	RoleUser      Role = "user"
	RoleTechnical Role = "technical"
	RoleAdmin     Role = "admin"
)

// ParseRole maps a stored string to a Role, degrading unknown values to the
// least-privileged role.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleTechnical:
		return RoleTechnical
	default:
		return RoleUser
	}
}

// Staff reports whether the role can author official content.
func (r Role) Staff() bool {
	switch r {
	case RoleAdmin, RoleTechnical:
		return true
	case RoleUser:
		return false
	default:
		return false
	}
}

// User is the stored member profile.
type User struct {
	UID             string   `json:"uid"`
	PhoneNumber     string   `json:"phone_number,omitempty"`
	Email           string   `json:"email"`
	PasswordHash    string   `json:"password_hash,omitempty"`
	Role            Role     `json:"role"`
	ActivatedCode   string   `json:"activated_code"`
	DisplayName     string   `json:"display_name,omitempty"`
	AllowedChannels []string `json:"allowed_channels"`
	LastSpinTime    int64    `json:"last_spin_time,omitempty"`
	CreatedAt       int64    `json:"created_at"`
	UpdatedAt       int64    `json:"updated_at"`
}

// UserResponse is the public view of a profile.
type UserResponse struct {
	UID             string   `json:"uid"`
	PhoneNumber     string   `json:"phone_number,omitempty"`
	Email           string   `json:"email"`
	Role            Role     `json:"role"`
	DisplayName     string   `json:"display_name,omitempty"`
	AllowedChannels []string `json:"allowed_channels"`
	CreatedAt       int64    `json:"created_at"`
}

// Access is the resolved {role, allow-list} pair for a session. It is
// derived per request, never stored.
type Access struct {
	Role            Role     `json:"role"`
	AllowedChannels []string `json:"allowed_channels"`
}

func (u *User) Response() *UserResponse {
	return &UserResponse{
		UID:             u.UID,
		PhoneNumber:     u.PhoneNumber,
		Email:           u.Email,
		Role:            u.Role,
		DisplayName:     u.DisplayName,
		AllowedChannels: u.AllowedChannels,
		CreatedAt:       u.CreatedAt,
	}
}

// NowMillis is the creation timestamp convention used across collections.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
