package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"tasks-edge-api/internal/middleware"
	"tasks-edge-api/internal/models"
	"tasks-edge-api/internal/services"
	"tasks-edge-api/pkg/lambda"

	"github.com/sirupsen/logrus"
)

// TaskEnvelope is the get-one response
type TaskEnvelope struct {
	Task *models.Task `json:"task"`
}

// TaskListEnvelope is the list response
type TaskListEnvelope struct {
	Tasks []*models.Task `json:"tasks"`
}

// StatusEnvelope is the create and update response
type StatusEnvelope struct {
	Status string `json:"status"`
}

// TaskHandler serves the tasks function
type TaskHandler struct {
	tasks  services.TaskService
	logger *logrus.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks services.TaskService, logger *logrus.Logger) *TaskHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &TaskHandler{tasks: tasks, logger: logger}
}

// @Summary Task resource
// @Description Lists (GET /tasks), reads (GET /tasks/{id}), creates (POST /tasks), updates (PUT /tasks/{id}) and deletes (DELETE /tasks/{id}) tasks of the caller named by the bearer token
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string false "Task ID"
// @Param task body models.TaskInput false "Task fields (POST, PUT)"
// @Success 200 {object} TaskListEnvelope
// @Failure 400 {object} middleware.ErrorBody
// @Failure 401 {object} middleware.ErrorBody
// @Failure 404 {object} middleware.ErrorBody
// @Router /tasks/{id} [get]
func (h *TaskHandler) Handle(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	route := MatchTaskRoute(req.Path)
	if !route.IsTaskResource {
		return nil, routeNotFound(req.Path, ErrInvalidURL)
	}

	authorization := req.Header("Authorization")
	claims, err := middleware.ExtractUnverifiedClaims(authorization)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": middleware.RequestIDFromContext(ctx),
			"reason":     err.Error(),
		}).Debug("Rejected task request credential")
		return nil, err
	}
	caller := services.Caller{Email: claims.Email, Authorization: authorization}

	var input *models.TaskInput
	if req.Method == http.MethodPost || req.Method == http.MethodPut {
		if err := json.Unmarshal(req.Body, &input); err != nil {
			return nil, badRequest(err)
		}
	}

	op := ResolveOperation(route.HasInstance(), req.Method)
	h.logger.WithFields(logrus.Fields{
		"request_id": middleware.RequestIDFromContext(ctx),
		"operation":  op.String(),
		"task_id":    route.InstanceID,
	}).Debug("Dispatching task operation")

	switch op {
	case OperationGet:
		task, err := h.tasks.GetTask(ctx, caller, route.InstanceID)
		if err != nil {
			return nil, storeFailure(err)
		}
		return middleware.JSONResponse(http.StatusOK, TaskEnvelope{Task: task}), nil

	case OperationUpdate:
		if err := h.tasks.UpdateTask(ctx, caller, route.InstanceID, input); err != nil {
			return nil, storeFailure(err)
		}
		return middleware.JSONResponse(http.StatusOK, StatusEnvelope{Status: "Updated"}), nil

	case OperationDelete:
		if err := h.tasks.DeleteTask(ctx, caller, route.InstanceID); err != nil {
			return nil, storeFailure(err)
		}
		return middleware.JSONResponse(http.StatusOK, struct{}{}), nil

	case OperationCreate:
		if _, err := h.tasks.CreateTask(ctx, caller, input); err != nil {
			return nil, storeFailure(err)
		}
		return middleware.JSONResponse(http.StatusOK, StatusEnvelope{Status: "Created"}), nil

	default:
		tasks, err := h.tasks.ListTasks(ctx, caller)
		if err != nil {
			return nil, storeFailure(err)
		}
		if tasks == nil {
			tasks = []*models.Task{}
		}
		return middleware.JSONResponse(http.StatusOK, TaskListEnvelope{Tasks: tasks}), nil
	}
}
