package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tasknest/tasknest-api/internal/dto"
	apierrors "github.com/tasknest/tasknest-api/internal/errors"
	"github.com/tasknest/tasknest-api/internal/middleware"
	"github.com/tasknest/tasknest-api/internal/models"
	"github.com/tasknest/tasknest-api/internal/services"
	"github.com/tasknest/tasknest-api/internal/utils"
)

// TaskHandler coordinates task-related HTTP handlers.
type TaskHandler struct {
	taskService      *services.TaskService
	lifecycleService *services.LifecycleService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService, lifecycleService *services.LifecycleService) *TaskHandler {
	return &TaskHandler{
		taskService:      taskService,
		lifecycleService: lifecycleService,
	}
}

// ListTasks returns tasks matching the query filters.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	pagination := utils.GetPaginationParams(c)

	input := services.ListTasksInput{
		UserID:        userID,
		AssignedToMe:  c.Query("assigned_to_me") == "true",
		Trashed:       c.Query("trashed") == "true",
		Search:        c.Query("search"),
		DueToday:      c.Query("due_today") == "true",
		SortByDueDate: c.Query("sort") == "due_date",
		Page:          pagination.Page,
		PageSize:      pagination.Limit,
	}

	if stageParam := c.Query("stage"); stageParam != "" {
		stage := models.TaskStage(stageParam)
		input.Stage = &stage
	}

	tasks, total, err := h.taskService.ListTasks(input)
	if err != nil {
		apierrors.InternalError(c, "Failed to list tasks")
		return
	}

	items := make([]dto.TaskListItemDTO, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, dto.ToTaskListItemDTO(task))
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": items,
		"pagination": utils.PaginationResponse{
			Page:  pagination.Page,
			Limit: pagination.Limit,
			Total: total,
		},
	})
}

// CreateTask creates a new task managed by the authenticated user.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	type CreateTaskRequest struct {
		Title         string     `json:"title" binding:"required"`
		Description   string     `json:"description"`
		Priority      string     `json:"priority"`
		StartDate     *time.Time `json:"start_date"`
		DueDate       *time.Time `json:"due_date"`
		TeamIDs       []uint64   `json:"team_ids"`
		DependencyIDs []uint64   `json:"dependency_ids"`
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      models.TaskPriority(req.Priority),
		StartDate:     req.StartDate,
		DueDate:       req.DueDate,
		ManagerID:     userID,
		TeamIDs:       req.TeamIDs,
		DependencyIDs: req.DependencyIDs,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// GetTask returns one task with its relations.
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.NotFound(c, "Task not found")
		return
	}

	full, err := h.taskService.GetTask(task.ID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*full))
}

// UpdateTask applies field-level updates. Stage changes are rejected here;
// they go through ChangeStage.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	type UpdateTaskRequest struct {
		Title         *string    `json:"title"`
		Description   *string    `json:"description"`
		Priority      *string    `json:"priority"`
		StartDate     *time.Time `json:"start_date"`
		DueDate       *time.Time `json:"due_date"`
		ClearDueDate  bool       `json:"clear_due_date"`
		TeamIDs       []uint64   `json:"team_ids"`
		DependencyIDs []uint64   `json:"dependency_ids"`
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

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		StartDate:     req.StartDate,
		DueDate:       req.DueDate,
		ClearDueDate:  req.ClearDueDate,
		TeamIDs:       req.TeamIDs,
		DependencyIDs: req.DependencyIDs,
	}
	if req.Priority != nil {
		priority := models.TaskPriority(*req.Priority)
		input.Priority = &priority
	}

	updated, err := h.taskService.UpdateTask(task.ID, actor, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// ChangeStage requests a stage transition for a task.
func (h *TaskHandler) ChangeStage(c *gin.Context) {
	type ChangeStageRequest struct {
		Stage string `json:"stage" binding:"required"`
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

	var req ChangeStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.lifecycleService.ChangeStage(task.ID, actor, models.TaskStage(req.Stage))
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// DuplicateTask creates a copy of the task with its team and dependencies.
func (h *TaskHandler) DuplicateTask(c *gin.Context) {
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

	dup, err := h.taskService.DuplicateTask(task.ID, actor)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*dup))
}

// TrashTask moves a task to the trash.
func (h *TaskHandler) TrashTask(c *gin.Context) {
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

	if err := h.taskService.TrashTask(task.ID, actor); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task moved to trash"})
}

// RestoreTask brings a task back from the trash.
func (h *TaskHandler) RestoreTask(c *gin.Context) {
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

	if err := h.taskService.RestoreTask(task.ID, actor); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task restored"})
}

// DeleteTask permanently removes a trashed task.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
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

	if err := h.taskService.DeleteTask(task.ID, actor); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// AssignTeam replaces the task's team.
func (h *TaskHandler) AssignTeam(c *gin.Context) {
	type AssignTeamRequest struct {
		UserIDs []uint64 `json:"user_ids" binding:"required"`
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

	var req AssignTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.taskService.AssignTeam(task.ID, actor, req.UserIDs)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// parseID reads a uint64 path parameter.
func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func respondTaskError(c *gin.Context, err error) {
	var transitionErr *apierrors.InvalidTransitionError

	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrTitleRequired), errors.Is(err, services.ErrTitleEmpty):
		apierrors.BadRequest(c, "Title is required")
	case errors.Is(err, services.ErrInvalidTeamMember):
		apierrors.BadRequest(c, "One or more team members do not exist")
	case errors.Is(err, services.ErrSelfDependency):
		apierrors.BadRequest(c, "A task cannot depend on itself")
	case errors.Is(err, services.ErrInvalidDependency):
		apierrors.BadRequest(c, "One or more dependency tasks do not exist")
	case errors.Is(err, services.ErrUnknownStage):
		apierrors.BadRequest(c, "Unknown stage")
	case errors.Is(err, services.ErrNotTaskManager),
		errors.Is(err, services.ErrStageChangeForbidden),
		errors.Is(err, services.ErrTaskAccessForbidden):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTaskNotTrashed):
		apierrors.Conflict(c, "Task must be trashed first")
	case errors.Is(err, services.ErrStageConflict):
		apierrors.Conflict(c, "Task stage was changed concurrently, retry")
	case errors.As(err, &transitionErr):
		apierrors.InvalidTransition(c, transitionErr.Error(), gin.H{
			"from":                    transitionErr.From,
			"to":                      transitionErr.To,
			"incomplete_dependencies": transitionErr.IncompleteDependencies,
		})
	default:
		apierrors.InternalError(c, "")
	}
}
