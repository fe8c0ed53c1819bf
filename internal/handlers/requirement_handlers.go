package handlers

import (
	"net/http"
	"strconv"

	"fabworks/internal/common"
	"fabworks/internal/services"

	"github.com/labstack/echo/v4"
)

// RequirementHandlers serves the derived requirement views.
type RequirementHandlers struct {
	requirementService services.RequirementService
}

func NewRequirementHandlers(requirementService services.RequirementService) *RequirementHandlers {
	return &RequirementHandlers{requirementService: requirementService}
}

// GetRequirements handles GET /v1/orders/:id/requirements.
// The optional ?coverage=true|false query overrides the stored preference.
func (h *RequirementHandlers) GetRequirements(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	orderID, err := common.ValidateUUID(c.Param("id"), "order_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var applyOverride *bool
	if raw := c.QueryParam("coverage"); raw != "" {
		apply, parseErr := strconv.ParseBool(raw)
		if parseErr != nil {
			return common.SendValidationError(c, "coverage", "must be true or false")
		}
		applyOverride = &apply
	}

	view, err := h.requirementService.GetView(ctx, tenantID, orderID, userID, applyOverride)
	if err != nil {
		return sendServiceError(c, err, "Order")
	}
	return c.JSON(http.StatusOK, view)
}

// GetFlatRequirements handles GET /v1/orders/:id/requirements/flat and
// returns only the per-component aggregation used by issuance screens.
func (h *RequirementHandlers) GetFlatRequirements(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	orderID, err := common.ValidateUUID(c.Param("id"), "order_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	view, err := h.requirementService.GetView(ctx, tenantID, orderID, userID, nil)
	if err != nil {
		return sendServiceError(c, err, "Order")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"order_id":         view.OrderID,
		"applied_coverage": view.AppliedCoverage,
		"components":       view.Components,
	})
}

// GetComponentStatus handles GET /v1/components/:id/status.
func (h *RequirementHandlers) GetComponentStatus(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	componentID, err := common.ValidateUUID(c.Param("id"), "component_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	status, err := h.requirementService.ComponentStatus(ctx, tenantID, componentID)
	if err != nil {
		return sendServiceError(c, err, "Component")
	}
	if status == nil {
		return common.SendNotFoundError(c, "Component")
	}
	return c.JSON(http.StatusOK, status)
}

// SetCoveragePreference handles PUT /v1/preferences/coverage.
func (h *RequirementHandlers) SetCoveragePreference(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req struct {
		ApplyCoverage *bool `json:"apply_coverage"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.ApplyCoverage == nil {
		return common.SendValidationError(c, "apply_coverage", "apply_coverage is required")
	}

	if err := h.requirementService.SetCoveragePreference(ctx, tenantID, userID, *req.ApplyCoverage); err != nil {
		return sendServiceError(c, err, "Preference")
	}
	return c.JSON(http.StatusOK, map[string]bool{"apply_coverage": *req.ApplyCoverage})
}
