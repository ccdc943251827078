package models

import (
	usermodels "agrihub-backend/internal/features/user/models"
)

type ArticleCategory string

const (
	CategoryNews       ArticleCategory = "news"
	CategoryTechnical  ArticleCategory = "technical"
	CategoryGuide      ArticleCategory = "guide"
	CategoryCaseStudy  ArticleCategory = "case_study"
	CategoryExperience ArticleCategory = "experience"
	CategoryMarket     ArticleCategory = "market"
)

type ArticleType string

const (
	TypeOfficial   ArticleType = "official"
	TypeExperience ArticleType = "experience"
	TypeMarketSell ArticleType = "market_sell"
	TypeMarketBuy  ArticleType = "market_buy"
)

type ArticleStatus string

const (
	StatusPending  ArticleStatus = "pending"
	StatusApproved ArticleStatus = "approved"
	StatusRejected ArticleStatus = "rejected"
)

type Comment struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
}

// Article is a news or marketplace post. Likes hold user ids; comments are
// embedded, mirroring the single-document shape of the store.
type Article struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Category   ArticleCategory `json:"category"`
	Type       ArticleType     `json:"type,omitempty"`
	Summary    string          `json:"summary"`
	Content    string          `json:"content"`
	ImageURL   string          `json:"image_url,omitempty"`
	Author     string          `json:"author"`
	AuthorID   string          `json:"author_id"`
	AuthorRole usermodels.Role `json:"author_role"`
	Views      int64           `json:"views"`
	Date       string          `json:"date"`
	Tags       []string        `json:"tags,omitempty"`
	Likes      []string        `json:"likes"`
	Comments   []Comment       `json:"comments"`

	// Marketplace fields.
	Price        float64       `json:"price,omitempty"`
	Location     string        `json:"location,omitempty"`
	ContactPhone string        `json:"contact_phone,omitempty"`
	Status       ArticleStatus `json:"status"`

	CreatedAt int64 `json:"created_at"`
}

type CreateArticleRequest struct {
	Title        string          `json:"title" binding:"required"`
	Category     ArticleCategory `json:"category" binding:"required"`
	Type         ArticleType     `json:"type"`
	Summary      string          `json:"summary"`
	Content      string          `json:"content" binding:"required"`
	ImageURL     string          `json:"image_url"`
	Tags         []string        `json:"tags"`
	Price        float64         `json:"price"`
	Location     string          `json:"location"`
	ContactPhone string          `json:"contact_phone"`
}

type UpdateArticleRequest struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Content  string   `json:"content"`
	ImageURL string   `json:"image_url"`
	Tags     []string `json:"tags"`
}

type AddCommentRequest struct {
	Text string `json:"text" binding:"required"`
}
