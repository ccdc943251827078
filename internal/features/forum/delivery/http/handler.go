package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "agrihub-backend/internal/common/errors"
	"agrihub-backend/internal/common/middleware"
	"agrihub-backend/internal/features/forum/models"
	"agrihub-backend/internal/features/forum/service"
)

type ForumHandler struct {
	service service.ForumService
}

func NewForumHandler(service service.ForumService) *ForumHandler {
	return &ForumHandler{
		service: service,
	}
}

func (h *ForumHandler) RegisterRoutes(router *gin.RouterGroup) {
	questions := router.Group("/questions")
	questions.Use(middleware.RequireAuth())
	{
		questions.GET("", h.list)
		questions.GET("/:id", h.get)
		questions.POST("", h.create)
		questions.DELETE("/:id", h.delete)
		questions.POST("/:id/answers", h.addAnswer)
		questions.DELETE("/:id/answers/:answerId", h.deleteAnswer)
		questions.POST("/:id/like", h.toggleLike)
		questions.PUT("/:id/resolve", h.resolve)
	}
}

func (h *ForumHandler) participant(c *gin.Context) service.Participant {
	id, _ := middleware.CurrentIdentity(c)
	access := middleware.CurrentAccess(c)
	return service.Participant{
		UID:         id.UID,
		DisplayName: id.DisplayName,
		Role:        access.Role,
	}
}

// @Summary List questions
// @Description All forum questions, newest first
// @Tags forum
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Question
// @Router /questions [get]
func (h *ForumHandler) list(c *gin.Context) {
	questions, err := h.service.List(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

// @Summary Get question
// @Tags forum
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Success 200 {object} models.Question
// @Failure 404 {object} middleware.ErrorResponse "Unknown question"
// @Router /questions/{id} [get]
func (h *ForumHandler) get(c *gin.Context) {
	question, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// @Summary Ask question
// @Tags forum
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateQuestionRequest true "Question data"
// @Success 201 {object} models.Question
// @Router /questions [post]
func (h *ForumHandler) create(c *gin.Context) {
	var req models.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	question, err := h.service.Create(c.Request.Context(), h.participant(c), &req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

// @Summary Delete question
// @Tags forum
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Success 204 "Question removed"
// @Failure 403 {object} middleware.ErrorResponse "Not the asker"
// @Router /questions/{id} [delete]
func (h *ForumHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), h.participant(c)); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Answer question
// @Description Add an answer; the answerer's role is recorded with the answer
// @Tags forum
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Param request body models.AddAnswerRequest true "Answer text"
// @Success 201 {object} models.Question
// @Router /questions/{id}/answers [post]
func (h *ForumHandler) addAnswer(c *gin.Context) {
	var req models.AddAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	question, err := h.service.AddAnswer(c.Request.Context(), c.Param("id"), h.participant(c), req.Text)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

// @Summary Delete answer
// @Tags forum
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Param answerId path string true "Answer ID"
// @Success 200 {object} models.Question
// @Failure 403 {object} middleware.ErrorResponse "Not the author"
// @Router /questions/{id}/answers/{answerId} [delete]
func (h *ForumHandler) deleteAnswer(c *gin.Context) {
	question, err := h.service.DeleteAnswer(c.Request.Context(), c.Param("id"), c.Param("answerId"), h.participant(c))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// @Summary Toggle question like
// @Tags forum
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Success 200 {object} models.Question
// @Router /questions/{id}/like [post]
func (h *ForumHandler) toggleLike(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)

	question, err := h.service.ToggleLike(c.Request.Context(), c.Param("id"), id.UID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// @Summary Resolve question
// @Description Mark a question answered; asker or admin only
// @Tags forum
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Success 200 {object} models.Question
// @Failure 403 {object} middleware.ErrorResponse "Not the asker"
// @Router /questions/{id}/resolve [put]
func (h *ForumHandler) resolve(c *gin.Context) {
	question, err := h.service.Resolve(c.Request.Context(), c.Param("id"), h.participant(c))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}
