package models

import (
	usermodels "agrihub-backend/internal/features/user/models"
)

type Answer struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	UserName  string          `json:"user_name"`
	UserRole  usermodels.Role `json:"user_role"`
	Text      string          `json:"text"`
	CreatedAt int64           `json:"created_at"`
}

// Question is a forum thread. Answers are embedded and carry the answerer's
// role as written at answer time, so expert badges survive later role changes.
type Question struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	AuthorID   string          `json:"author_id"`
	AuthorName string          `json:"author_name"`
	Tags       []string        `json:"tags,omitempty"`
	Likes      []string        `json:"likes"`
	Answers    []Answer        `json:"answers"`
	Resolved   bool            `json:"resolved"`
	CreatedAt  int64           `json:"created_at"`
}

type CreateQuestionRequest struct {
	Title   string   `json:"title" binding:"required"`
	Content string   `json:"content" binding:"required"`
	Tags    []string `json:"tags"`
}

type AddAnswerRequest struct {
	Text string `json:"text" binding:"required"`
}
