package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/pranshh/library-management-mad2/internal/scheduler"
	"github.com/pranshh/library-management-mad2/internal/tasks"
)

// TasksController handles task queue management endpoints.
type TasksController struct {
	queue     tasks.Queue
	scheduler JobScheduler
}

// NewTasksController creates a new TasksController. sched may be nil.
func NewTasksController(queue tasks.Queue, sched JobScheduler) *TasksController {
	return &TasksController{queue: queue, scheduler: sched}
}

// RunTaskRequest is the optional request body for running a task.
type RunTaskRequest struct {
	// Month selects the monthly_report period as YYYY-MM. Defaults to last month.
	Month string `json:"month,omitempty" form:"month"`
}

// ListTaskTypes handles GET /api/tasks/types
// Returns the list of available task types that can be triggered.
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"task_types": tasks.Types(),
	})
}

// GetTaskStatus handles GET /api/tasks/:id
// Returns the status of a specific task.
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTask handles POST /api/tasks/:type/run
// Manually triggers a task of the specified type.
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindingError(c, err)
			return
		}
	}
	if month := c.Query("month"); month != "" {
		req.Month = month
	}

	task, err := tasks.NewTask(taskType, req.Month)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, tasks.ErrUnknownTaskType) {
			status = http.StatusNotFound
		}
		c.JSON(status, ErrorResponse{Message: err.Error(), Code: "invalid_task"})
		return
	}

	ids, err := tc.queue.Enqueue(c.Request.Context(), task)
	if err != nil {
		if len(ids) == 0 {
			respondInternalError(c, err, "run task "+taskType)
			return
		}
		// Inline runs return an ID even when the task fails.
		c.JSON(http.StatusOK, gin.H{
			"task_id": ids[0],
			"type":    taskType,
			"status":  taskStatusToString(backlite.TaskStatusFailure),
			"message": "task failed",
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task_id": ids[0],
		"type":    taskType,
		"message": "task enqueued",
	})
}

// ListJobs handles GET /api/scheduler/jobs
// Returns the periodic jobs with their schedules and next run times.
func (tc *TasksController) ListJobs(c *gin.Context) {
	jobs := []scheduler.JobStatus{}
	if tc.scheduler != nil {
		jobs = tc.scheduler.Status()
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// RunJob handles POST /api/scheduler/jobs/:name/run
// Fires a periodic job now, outside its schedule.
func (tc *TasksController) RunJob(c *gin.Context) {
	if tc.scheduler == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "scheduler is disabled", Code: "not_found"})
		return
	}
	name := c.Param("name")
	if err := tc.scheduler.RunNow(c.Request.Context(), name); err != nil {
		if errors.Is(err, scheduler.ErrUnknownJob) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error(), Code: "not_found"})
			return
		}
		respondInternalError(c, err, "run job "+name)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": name, "message": "job triggered"})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
