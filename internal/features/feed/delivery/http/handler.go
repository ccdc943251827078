package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "agrihub-backend/internal/common/errors"
	"agrihub-backend/internal/common/middleware"
	"agrihub-backend/internal/features/feed/models"
	"agrihub-backend/internal/features/feed/service"
)

type FeedHandler struct {
	service service.FeedService
}

func NewFeedHandler(service service.FeedService) *FeedHandler {
	return &FeedHandler{
		service: service,
	}
}

func (h *FeedHandler) RegisterRoutes(router *gin.RouterGroup) {
	articles := router.Group("/articles")
	articles.Use(middleware.RequireAuth())
	{
		articles.GET("", h.list)
		articles.GET("/:id", h.get)
		articles.POST("", h.create)
		articles.PUT("/:id", h.update)
		articles.DELETE("/:id", h.delete)
		articles.POST("/:id/like", h.toggleLike)
		articles.POST("/:id/comments", h.addComment)
		articles.DELETE("/:id/comments/:commentId", h.deleteComment)
	}

	admin := router.Group("/admin/articles")
	admin.Use(middleware.RequireAdmin())
	{
		admin.PUT("/:id/status", h.setStatus)
	}
}

func (h *FeedHandler) author(c *gin.Context) service.Author {
	id, _ := middleware.CurrentIdentity(c)
	access := middleware.CurrentAccess(c)
	return service.Author{
		UID:         id.UID,
		DisplayName: id.DisplayName,
		Role:        access.Role,
	}
}

// @Summary List articles
// @Description Approved news and marketplace posts, newest first. Staff see unapproved posts too.
// @Tags articles
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Article
// @Router /articles [get]
func (h *FeedHandler) list(c *gin.Context) {
	access := middleware.CurrentAccess(c)

	articles, err := h.service.List(c.Request.Context(), access.Role.Staff())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, articles)
}

// @Summary Get article
// @Tags articles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Article ID"
// @Success 200 {object} models.Article
// @Failure 404 {object} middleware.ErrorResponse "Unknown article"
// @Router /articles/{id} [get]
func (h *FeedHandler) get(c *gin.Context) {
	article, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	h.service.IncrementViews(c.Request.Context(), article.ID)
	c.JSON(http.StatusOK, article)
}

// @Summary Create article
// @Description Staff publish directly; members may only create marketplace listings, which start pending
// @Tags articles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateArticleRequest true "Article data"
// @Success 201 {object} models.Article
// @Failure 403 {object} middleware.ErrorResponse "Members cannot post news"
// @Router /articles [post]
func (h *FeedHandler) create(c *gin.Context) {
	var req models.CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	article, err := h.service.Create(c.Request.Context(), h.author(c), &req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

// @Summary Update article
// @Tags articles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Article ID"
// @Param request body models.UpdateArticleRequest true "Changed fields"
// @Success 200 {object} models.Article
// @Failure 403 {object} middleware.ErrorResponse "Not the author"
// @Router /articles/{id} [put]
func (h *FeedHandler) update(c *gin.Context) {
	var req models.UpdateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	article, err := h.service.Update(c.Request.Context(), c.Param("id"), h.author(c), &req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// @Summary Delete article
// @Tags articles
// @Security BearerAuth
// @Param id path string true "Article ID"
// @Success 204 "Article removed"
// @Failure 403 {object} middleware.ErrorResponse "Not the author"
// @Router /articles/{id} [delete]
func (h *FeedHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), h.author(c)); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Toggle like
// @Description Add or remove the caller's like on an article
// @Tags articles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Article ID"
// @Success 200 {object} models.Article
// @Failure 404 {object} middleware.ErrorResponse "Unknown article"
// @Router /articles/{id}/like [post]
func (h *FeedHandler) toggleLike(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)

	article, err := h.service.ToggleLike(c.Request.Context(), c.Param("id"), id.UID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// @Summary Add comment
// @Tags articles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Article ID"
// @Param request body models.AddCommentRequest true "Comment text"
// @Success 201 {object} models.Article
// @Router /articles/{id}/comments [post]
func (h *FeedHandler) addComment(c *gin.Context) {
	var req models.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	article, err := h.service.AddComment(c.Request.Context(), c.Param("id"), h.author(c), req.Text)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

// @Summary Delete comment
// @Tags articles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Article ID"
// @Param commentId path string true "Comment ID"
// @Success 200 {object} models.Article
// @Failure 403 {object} middleware.ErrorResponse "Not the author"
// @Router /articles/{id}/comments/{commentId} [delete]
func (h *FeedHandler) deleteComment(c *gin.Context) {
	article, err := h.service.DeleteComment(c.Request.Context(), c.Param("id"), c.Param("commentId"), h.author(c))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// @Summary Moderate article
// @Description Approve or reject a pending marketplace listing
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Article ID"
// @Param request body setStatusRequest true "New status"
// @Success 200 {object} models.Article
// @Failure 400 {object} middleware.ErrorResponse "Unknown status"
// @Router /admin/articles/{id}/status [put]
func (h *FeedHandler) setStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	article, err := h.service.SetStatus(c.Request.Context(), c.Param("id"), models.ArticleStatus(req.Status))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}
