package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/appraisily/appraisals-backend/internal/pkg/errors"
	"github.com/appraisily/appraisals-backend/internal/services"
)

type AppraisalHandler struct {
	appraisalService services.AppraisalService
}

func NewAppraisalHandler(appraisalService services.AppraisalService) *AppraisalHandler {
	return &AppraisalHandler{appraisalService: appraisalService}
}

func (h *AppraisalHandler) List(c *gin.Context) {
	appraisals, err := h.appraisalService.List(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "Failed to fetch appraisals.")
		return
	}
	RespondOK(c, appraisals)
}

func (h *AppraisalHandler) Get(c *gin.Context) {
	row, ok := rowParam(c)
	if !ok {
		return
	}
	appraisal, err := h.appraisalService.Get(c.Request.Context(), row)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "Appraisal not found.")
			return
		}
		RespondError(c, http.StatusInternalServerError, "Failed to fetch appraisal.")
		return
	}
	RespondOK(c, appraisal)
}

type setValueRequest struct {
	AppraisalValue string `json:"appraisalValue"`
	Description    string `json:"description"`
}

func (h *AppraisalHandler) SetValue(c *gin.Context) {
	row, ok := rowParam(c)
	if !ok {
		return
	}
	var req setValueRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AppraisalValue == "" {
		RespondError(c, http.StatusBadRequest, "Appraisal value is required.")
		return
	}
	if err := h.appraisalService.SetValue(c.Request.Context(), row, req.AppraisalValue, req.Description); err != nil {
		RespondError(c, http.StatusInternalServerError, "Failed to update appraisal.")
		return
	}
	RespondOK(c, Ack{Success: true, Message: "Appraisal updated."})
}

func (h *AppraisalHandler) Complete(c *gin.Context) {
	row, ok := rowParam(c)
	if !ok {
		return
	}
	var req setValueRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AppraisalValue == "" {
		RespondError(c, http.StatusBadRequest, "Appraisal value is required.")
		return
	}
	if err := h.appraisalService.Complete(c.Request.Context(), row, req.AppraisalValue, req.Description); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "Appraisal not found.")
			return
		}
		RespondError(c, http.StatusInternalServerError, "Failed to complete appraisal.")
		return
	}
	RespondOK(c, Ack{Success: true, Message: "Appraisal completed."})
}

func rowParam(c *gin.Context) (int, bool) {
	row, err := strconv.Atoi(c.Param("id"))
	if err != nil || row < 2 {
		RespondError(c, http.StatusBadRequest, "Invalid appraisal id.")
		return 0, false
	}
	return row, true
}
