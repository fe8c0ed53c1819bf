package handlers

import (
	"net/http"

	"fabworks/internal/common"
	"fabworks/internal/services"

	"github.com/labstack/echo/v4"
)

// ReservationHandlers handles the finished-goods reservation lifecycle.
type ReservationHandlers struct {
	reservationService services.ReservationService
}

func NewReservationHandlers(reservationService services.ReservationService) *ReservationHandlers {
	return &ReservationHandlers{reservationService: reservationService}
}

// ListReservations handles GET /v1/orders/:id/reservations.
func (h *ReservationHandlers) ListReservations(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	orderID, err := common.ValidateUUID(c.Param("id"), "order_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	reservations, err := h.reservationService.ListByOrder(ctx, tenantID, orderID)
	if err != nil {
		return sendServiceError(c, err, "Order")
	}
	return c.JSON(http.StatusOK, reservations)
}

// Reserve handles POST /v1/orders/:id/reservations.
func (h *ReservationHandlers) Reserve(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	orderID, err := common.ValidateUUID(c.Param("id"), "order_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		ProductID string  `json:"product_id"`
		Quantity  float64 `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	productID, err := common.ValidateUUID(req.ProductID, "product_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	if err := common.ValidatePositiveQuantity(req.Quantity, "quantity"); err != nil {
		return common.SendValidationError(c, "quantity", err.Error())
	}

	reservation, err := h.reservationService.Reserve(ctx, tenantID, orderID, productID, req.Quantity)
	if err != nil {
		return sendServiceError(c, err, "Order")
	}
	return c.JSON(http.StatusCreated, reservation)
}

// Release handles POST /v1/reservations/:id/release.
func (h *ReservationHandlers) Release(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	reservationID, err := common.ValidateUUID(c.Param("id"), "reservation_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.reservationService.Release(ctx, tenantID, reservationID); err != nil {
		return sendServiceError(c, err, "Reservation")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "released"})
}

// Consume handles POST /v1/reservations/:id/consume.
func (h *ReservationHandlers) Consume(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	reservationID, err := common.ValidateUUID(c.Param("id"), "reservation_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.reservationService.Consume(ctx, tenantID, reservationID); err != nil {
		return sendServiceError(c, err, "Reservation")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "consumed"})
}
