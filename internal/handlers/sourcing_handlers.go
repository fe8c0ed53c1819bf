package handlers

import (
	"net/http"

	"fabworks/internal/common"
	"fabworks/internal/models"
	"fabworks/internal/services"

	"github.com/labstack/echo/v4"
)

// SourcingHandlers serves supplier grouping and purchase-order creation.
type SourcingHandlers struct {
	sourcingService services.SourcingService
}

func NewSourcingHandlers(sourcingService services.SourcingService) *SourcingHandlers {
	return &SourcingHandlers{sourcingService: sourcingService}
}

// GetSourcing handles GET /v1/orders/:id/sourcing.
func (h *SourcingHandlers) GetSourcing(c echo.Context) error {
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

	view, err := h.sourcingService.BuildGroups(ctx, tenantID, orderID, userID)
	if err != nil {
		return sendServiceError(c, err, "Order")
	}
	return c.JSON(http.StatusOK, view)
}

// CreatePurchaseOrders handles POST /v1/orders/:id/purchase-orders.
func (h *SourcingHandlers) CreatePurchaseOrders(c echo.Context) error {
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

	var req struct {
		Notes      *string `json:"notes"`
		Components []struct {
			ComponentID      string  `json:"component_id"`
			SupplierOptionID string  `json:"supplier_option_id"`
			OrderQuantity    float64 `json:"order_quantity"`
			ForThisOrder     float64 `json:"for_this_order"`
			ForStock         float64 `json:"for_stock"`
		} `json:"components"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if len(req.Components) == 0 {
		return common.SendValidationError(c, "components", "at least one component is required")
	}

	selection := &models.SourcingSelection{Notes: req.Notes}
	for _, line := range req.Components {
		componentID, err := common.ValidateUUID(line.ComponentID, "component_id")
		if err != nil {
			return common.SendClientError(c, err.Error())
		}
		optionID, err := common.ValidateUUID(line.SupplierOptionID, "supplier_option_id")
		if err != nil {
			return common.SendClientError(c, err.Error())
		}
		if err := common.ValidatePositiveQuantity(line.OrderQuantity, "order_quantity"); err != nil {
			return common.SendValidationError(c, "order_quantity", err.Error())
		}
		selection.Components = append(selection.Components, &models.SourcingSelectionLine{
			ComponentID:      componentID,
			SupplierOptionID: optionID,
			OrderQuantity:    line.OrderQuantity,
			Allocation: models.Allocation{
				ForThisOrder: line.ForThisOrder,
				ForStock:     line.ForStock,
			},
		})
	}

	result, err := h.sourcingService.CreatePurchaseOrders(ctx, tenantID, orderID, userID, selection)
	if err != nil {
		return sendServiceError(c, err, "Order")
	}

	status := http.StatusCreated
	if len(result.Created) == 0 {
		status = http.StatusUnprocessableEntity
	} else if len(result.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	return c.JSON(status, result)
}
