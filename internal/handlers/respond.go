package handlers

import (
	"errors"
	"net/http"

	"fabworks/internal/common"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// sendServiceError maps a service error onto the response envelope:
// business rejections keep their code and surface as 422, a missing row
// is 404, everything else is an opaque 500.
func sendServiceError(c echo.Context, err error, resource string) error {
	if be, ok := common.AsBusinessError(err); ok {
		return c.JSON(http.StatusUnprocessableEntity, common.CreateErrorResponse(be.Code, be.Message, nil))
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return common.SendNotFoundError(c, resource)
	}
	c.Logger().Errorf("%s request failed: %v", resource, err)
	return common.SendServerError(c, "Internal server error")
}
