package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/appraisily/appraisals-backend/internal/pkg/logger"
	"github.com/appraisily/appraisals-backend/internal/services"
	"github.com/appraisily/appraisals-backend/internal/types"
)

// UpdatePendingHandler is the response gateway for machine-triggered
// updates. It validates, acknowledges immediately, and hands the work
// to the pipeline in a detached goroutine. The caller never learns the
// pipeline outcome from this endpoint.
type UpdatePendingHandler struct {
	log      *logger.Logger
	pipeline services.PipelineService
	timeout  time.Duration
}

func NewUpdatePendingHandler(log *logger.Logger, pipeline services.PipelineService, timeout time.Duration) *UpdatePendingHandler {
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &UpdatePendingHandler{
		log:      log.With("handler", "UpdatePendingHandler"),
		pipeline: pipeline,
		timeout:  timeout,
	}
}

func (h *UpdatePendingHandler) Update(c *gin.Context) {
	var req types.UpdatePendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.SessionID == "" || req.CustomerEmail == "" || req.PostID <= 0 ||
		req.PostEditURL == "" || req.MainImage() == "" {
		RespondError(c, http.StatusBadRequest, "Missing required fields.")
		return
	}

	RespondOK(c, Ack{Success: true, Message: "Appraisal status update initiated."})

	h.spawn(req)
}

// spawn runs the pipeline detached from the request cycle, with its
// own deadline and error boundary. A panic or failure here must never
// reach the (already answered) caller.
func (h *UpdatePendingHandler) spawn(req types.UpdatePendingRequest) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				h.log.Error("Pending update pipeline panicked", "session_id", req.SessionID, "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()
		if err := h.pipeline.ProcessPendingUpdate(ctx, req); err != nil {
			h.log.Error("Pending update pipeline failed",
				"session_id", req.SessionID,
				"post_id", req.PostID,
				"error", err,
			)
		}
	}()
}
