package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tasknest/tasknest-api/internal/dto"
	apierrors "github.com/tasknest/tasknest-api/internal/errors"
	"github.com/tasknest/tasknest-api/internal/middleware"
	"github.com/tasknest/tasknest-api/internal/models"
	"github.com/tasknest/tasknest-api/internal/services"
)

// ReminderHandler coordinates reminder-related HTTP handlers.
type ReminderHandler struct {
	reminderService *services.ReminderService
}

// NewReminderHandler creates a new ReminderHandler.
func NewReminderHandler(reminderService *services.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminderService: reminderService}
}

// AddReminder attaches a reminder to a task.
func (h *ReminderHandler) AddReminder(c *gin.Context) {
	type AddReminderRequest struct {
		Type    string    `json:"type"`
		Time    time.Time `json:"time" binding:"required"`
		Message string    `json:"message"`
	}

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

	var req AddReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	reminder, err := h.reminderService.AddReminder(actor, services.AddReminderInput{
		TaskID:  task.ID,
		Type:    models.ReminderType(req.Type),
		Time:    req.Time,
		Message: req.Message,
	})
	if err != nil {
		respondReminderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToReminderDTO(*reminder))
}

// DeleteReminder removes a reminder from a task.
func (h *ReminderHandler) DeleteReminder(c *gin.Context) {
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

	reminderID, ok := parseID(c, "reminder_id")
	if !ok {
		return
	}

	if err := h.reminderService.DeleteReminder(task.ID, reminderID, actor); err != nil {
		respondReminderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reminder deleted"})
}

func respondReminderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrReminderNotFound), errors.Is(err, services.ErrReminderTaskMismatch):
		apierrors.NotFound(c, "Reminder not found")
	case errors.Is(err, services.ErrReminderTimeRequired):
		apierrors.BadRequest(c, "Reminder time is required")
	case errors.Is(err, services.ErrTaskAccessForbidden):
		apierrors.Forbidden(c, "")
	default:
		apierrors.InternalError(c, "")
	}
}
