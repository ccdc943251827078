package models

import (
	usermodels "agrihub-backend/internal/features/user/models"
)

// Identity is the authenticated caller as carried by a session token. Role
// is populated only for lightweight sessions (no backing profile record);
// for regular accounts the role is resolved from the profile store per
// request.
type Identity struct {
	UID         string          `json:"uid"`
	Email       string          `json:"email,omitempty"`
	DisplayName string          `json:"display_name,omitempty"`
	Role        usermodels.Role `json:"role,omitempty"`
	Lightweight bool            `json:"lightweight,omitempty"`
}

// ProductCode is a single-use activation code printed on product packaging.
type ProductCode struct {
	Code      string `json:"code"`
	IsUsed    bool   `json:"is_used"`
	UsedBy    string `json:"used_by,omitempty"`
	UsedAt    int64  `json:"used_at,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// SessionRecord is the cached fallback session for identities without a
// backing profile record (telegram mini-app logins). It carries an explicit
// role and allow-list the resolver can use without a profile fetch.
type SessionRecord struct {
	UID             string          `json:"uid"`
	Role            usermodels.Role `json:"role"`
	AllowedChannels []string        `json:"allowed_channels"`
	DisplayName     string          `json:"display_name,omitempty"`
	CreatedAt       int64           `json:"created_at"`
}

type RegisterRequest struct {
	Identifier  string `json:"identifier" binding:"required"` // phone number or email
	Password    string `json:"password" binding:"required"`
	ProductCode string `json:"product_code" binding:"required"`
	DisplayName string `json:"display_name"`
}

type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type TelegramLoginRequest struct {
	InitData string `json:"init_data" binding:"required"`
}

type ResetRequest struct {
	Identifier string `json:"identifier" binding:"required"`
}

type ResetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

type AuthResponse struct {
	Token string                    `json:"token"`
	User  *usermodels.UserResponse  `json:"user,omitempty"`
}
