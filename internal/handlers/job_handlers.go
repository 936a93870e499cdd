package handlers

import (
	"net/http"

	"firmbill/internal/common"
	"firmbill/internal/jobs/background"

	"github.com/labstack/echo/v4"
)

// JobRunner exposes the background scheduler to the API
type JobRunner interface {
	GetJobStatus() []background.JobStatus
	RunNow(name string) error
}

type JobHandlers struct {
	scheduler JobRunner
}

func NewJobHandlers(scheduler JobRunner) *JobHandlers {
	return &JobHandlers{scheduler: scheduler}
}

// ListJobs handles GET /jobs
func (h *JobHandlers) ListJobs(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"jobs": h.scheduler.GetJobStatus(),
	})
}

// RunJob handles POST /jobs/:name/run. The job runs in the background.
func (h *JobHandlers) RunJob(c echo.Context) error {
	name := c.Param("name")
	if err := h.scheduler.RunNow(name); err != nil {
		return common.SendNotFoundError(c, "job")
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"job":    name,
		"status": "triggered",
	})
}
