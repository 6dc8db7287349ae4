package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/alaya/internal/tasks"
)

// TasksController handles task queue endpoints.
type TasksController struct {
	queue       TaskQueue
	libraryPath string
}

// NewTasksController creates a new TasksController.
func NewTasksController(queue TaskQueue, libraryPath string) *TasksController {
	return &TasksController{queue: queue, libraryPath: libraryPath}
}

// ScanLibrary handles POST /api/library/scan
// Enqueues a scan of the library directory.
func (tc *TasksController) ScanLibrary(c *gin.Context) {
	id, err := tc.queue.Enqueue(c.Request.Context(), tasks.ScanLibraryTask{Dir: tc.libraryPath})
	if err != nil {
		respondInternalError(c, err, "enqueue library scan")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task_id": id,
		"type":    "scan_library",
		"message": "task enqueued",
	})
}

// GetTaskStatus handles GET /api/tasks/:id
// Returns the status of a specific task.
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == backlite.TaskStatusNotFound {
		respondNotFound(c, "task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
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
