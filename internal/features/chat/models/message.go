package models

import (
	usermodels "agrihub-backend/internal/features/user/models"
)

// ChatMessage is one append-only channel message. Author name and role are
// denormalized at send time and never re-resolved on read.
type ChatMessage struct {
	ID        string          `json:"id"`
	ChannelID string          `json:"channel_id"`
	UserID    string          `json:"user_id"`
	UserName  string          `json:"user_name"`
	UserRole  usermodels.Role `json:"user_role"`
	Text      string          `json:"text"`
	CreatedAt int64           `json:"created_at"`
}

type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}
