package job

import (
	"github.com/gin-gonic/gin"

	"github.com/ozlabs/forge/common"
	"github.com/ozlabs/forge/internal/dto"
	"github.com/ozlabs/forge/middleware"
)

type JobHandler struct {
	service JobServiceInterface
}

func NewJobHandler(service JobServiceInterface) *JobHandler {
	return &JobHandler{service: service}
}

var _ JobHandlerInterface = (*JobHandler)(nil)

// Create handles POST /api/v1/jobs.
func (h *JobHandler) Create(c *gin.Context) (any, error) {
	var req dto.JobCreateDTO
	if err := middleware.Bind(c, &req); err != nil {
		return nil, err
	}
	return h.service.CreateJob(c.Request.Context(), &req)
}

// Get handles GET /api/v1/jobs/:id.
func (h *JobHandler) Get(c *gin.Context) (any, error) {
	id := c.Param("id")
	if id == "" {
		return nil, common.NewValidationError(map[string][]string{
			"id": {"required"},
		})
	}
	return h.service.GetJobByID(c.Request.Context(), id)
}

// List handles GET /api/v1/users/:id/jobs.
func (h *JobHandler) List(c *gin.Context) (any, error) {
	userID := c.Param("id")
	if userID == "" {
		return nil, common.NewValidationError(map[string][]string{
			"id": {"required"},
		})
	}
	return h.service.ListJobsByUser(c.Request.Context(), userID)
}
