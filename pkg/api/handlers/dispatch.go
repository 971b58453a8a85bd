package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/castellan-home/castellan/pkg/api/types"
	"github.com/castellan-home/castellan/pkg/gateway"
)

// DispatchHandler routes action requests into the gateway dispatcher.
type DispatchHandler struct {
	dispatcher *gateway.Dispatcher
}

// NewDispatchHandler creates a new dispatch handler
func NewDispatchHandler(dispatcher *gateway.Dispatcher) *DispatchHandler {
	return &DispatchHandler{dispatcher: dispatcher}
}

// Dispatch handles POST /dispatch
// @Summary      Execute a device action
// @Description  Validates and executes one (tool, action) call against a registered device. Failures come back as a normalized result, not an HTTP error: the HTTP layer reports transport problems only.
// @Tags         dispatch
// @Accept       json
// @Produce      json
// @Param        request  body      types.DispatchRequest  true  "Action to execute"
// @Success      200      {object}  types.DispatchResponse
// @Failure      400      {object}  types.ErrorResponse  "Malformed request body"
// @Router       /dispatch [post]
func (h *DispatchHandler) Dispatch(c *gin.Context) {
	var req types.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "tool, action and device are required",
		})
		return
	}

	result := h.dispatcher.Dispatch(c.Request.Context(), gateway.ActionRequest{
		Tool:       req.Tool,
		Action:     req.Action,
		Device:     req.Device,
		Parameters: req.Parameters,
	})

	c.JSON(http.StatusOK, types.DispatchResponse{Result: result})
}
