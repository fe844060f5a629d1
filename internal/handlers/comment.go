package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tasknest/tasknest-api/internal/dto"
	apierrors "github.com/tasknest/tasknest-api/internal/errors"
	"github.com/tasknest/tasknest-api/internal/middleware"
	"github.com/tasknest/tasknest-api/internal/services"
)

// CommentHandler coordinates comment-related HTTP handlers.
type CommentHandler struct {
	commentService *services.CommentService
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// AddComment posts a comment on a task.
func (h *CommentHandler) AddComment(c *gin.Context) {
	type AddCommentRequest struct {
		Body string `json:"body" binding:"required"`
	}

	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.NotFound(c, "Task not found")
		return
	}

	author, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.commentService.AddComment(task.ID, author, req.Body)
	if err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

// ListComments lists a task's comments.
func (h *CommentHandler) ListComments(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.NotFound(c, "Task not found")
		return
	}

	comments, err := h.commentService.ListComments(task.ID)
	if err != nil {
		respondCommentError(c, err)
		return
	}

	items := make([]dto.CommentDTO, 0, len(comments))
	for _, comment := range comments {
		items = append(items, dto.ToCommentDTO(comment))
	}

	c.JSON(http.StatusOK, gin.H{"comments": items})
}

// DeleteComment removes a comment.
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.NotFound(c, "Task not found")
		return
	}

	actor, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	commentID, ok := parseID(c, "comment_id")
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(task.ID, commentID, actor); err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}

func respondCommentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrCommentNotFound):
		apierrors.NotFound(c, "Comment not found")
	case errors.Is(err, services.ErrCommentEmpty):
		apierrors.BadRequest(c, "Comment body cannot be empty")
	case errors.Is(err, services.ErrNotCommentAuthor), errors.Is(err, services.ErrTaskAccessForbidden):
		apierrors.Forbidden(c, "")
	default:
		apierrors.InternalError(c, "")
	}
}
