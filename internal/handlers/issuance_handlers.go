package handlers

import (
	"net/http"
	"path"
	"time"

	"fabworks/internal/common"
	"fabworks/internal/models"
	"fabworks/internal/services"

	"github.com/labstack/echo/v4"
)

const presignedURLExpiry = 15 * time.Minute

// IssuanceHandlers serves the issuance ledger: issue, reverse, history
// and document attachments.
type IssuanceHandlers struct {
	issuanceService   services.IssuanceService
	attachmentService services.AttachmentService
}

func NewIssuanceHandlers(issuanceService services.IssuanceService, attachmentService services.AttachmentService) *IssuanceHandlers {
	return &IssuanceHandlers{
		issuanceService:   issuanceService,
		attachmentService: attachmentService,
	}
}

// GetIssuances handles GET /v1/orders/:id/issuances.
func (h *IssuanceHandlers) GetIssuances(c echo.Context) error {
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

	view, err := h.issuanceService.GetView(ctx, tenantID, orderID, userID)
	if err != nil {
		return sendServiceError(c, err, "Order")
	}
	return c.JSON(http.StatusOK, view)
}

// Issue handles POST /v1/orders/:id/issuances. A mid-batch failure still
// returns 200 with the failed entry in the body: earlier entries are
// committed and the caller must reconcile from the ledger.
func (h *IssuanceHandlers) Issue(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	staffID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	orderID, err := common.ValidateUUID(c.Param("id"), "order_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		Notes   *string `json:"notes"`
		Entries []struct {
			ComponentID string  `json:"component_id"`
			Quantity    float64 `json:"quantity"`
		} `json:"entries"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if len(req.Entries) == 0 {
		return common.SendValidationError(c, "entries", "at least one entry is required")
	}

	batch := &models.IssueBatch{Notes: req.Notes}
	for _, entry := range req.Entries {
		componentID, err := common.ValidateUUID(entry.ComponentID, "component_id")
		if err != nil {
			return common.SendClientError(c, err.Error())
		}
		if err := common.ValidatePositiveQuantity(entry.Quantity, "quantity"); err != nil {
			return common.SendValidationError(c, "quantity", err.Error())
		}
		batch.Entries = append(batch.Entries, models.IssueEntry{
			ComponentID: componentID,
			Quantity:    entry.Quantity,
		})
	}

	result, err := h.issuanceService.Issue(ctx, tenantID, orderID, staffID, batch)
	if err != nil {
		return sendServiceError(c, err, "Order")
	}
	return c.JSON(http.StatusOK, result)
}

// Reverse handles POST /v1/issuances/:id/reverse.
func (h *IssuanceHandlers) Reverse(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	staffID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	issuanceID, err := common.ValidateUUID(c.Param("id"), "issuance_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		Quantity float64 `json:"quantity"`
		Reason   *string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidatePositiveQuantity(req.Quantity, "quantity"); err != nil {
		return common.SendValidationError(c, "quantity", err.Error())
	}

	reversal, err := h.issuanceService.Reverse(ctx, tenantID, issuanceID, staffID, req.Quantity, req.Reason)
	if err != nil {
		return sendServiceError(c, err, "Issuance")
	}
	return c.JSON(http.StatusCreated, reversal)
}

// ListReversals handles GET /v1/issuances/:id/reversals.
func (h *IssuanceHandlers) ListReversals(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	issuanceID, err := common.ValidateUUID(c.Param("id"), "issuance_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	reversals, err := h.issuanceService.ListReversals(ctx, tenantID, issuanceID)
	if err != nil {
		return sendServiceError(c, err, "Issuance")
	}
	return c.JSON(http.StatusOK, reversals)
}

// UploadDocument handles POST /v1/issuances/:id/documents (multipart).
func (h *IssuanceHandlers) UploadDocument(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	issuanceID, err := common.ValidateUUID(c.Param("id"), "issuance_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return common.SendValidationError(c, "file", "file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return common.SendServerError(c, "Failed to read uploaded file")
	}
	defer file.Close()

	name := path.Base(fileHeader.Filename)
	contentType := fileHeader.Header.Get("Content-Type")
	if err := h.attachmentService.Upload(ctx, tenantID, issuanceID, name, contentType, file, fileHeader.Size); err != nil {
		c.Logger().Errorf("Document upload failed for issuance %s: %v", issuanceID.String(), err)
		return common.SendServerError(c, "Failed to store document")
	}
	return c.JSON(http.StatusCreated, map[string]string{"name": name})
}

// GetDocumentURL handles GET /v1/issuances/:id/documents/:name/url.
func (h *IssuanceHandlers) GetDocumentURL(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	issuanceID, err := common.ValidateUUID(c.Param("id"), "issuance_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	name := path.Base(c.Param("name"))
	if name == "" || name == "." || name == "/" {
		return common.SendValidationError(c, "name", "document name is required")
	}

	url, err := h.attachmentService.GetPresignedURL(tenantID, issuanceID, name, presignedURLExpiry)
	if err != nil {
		c.Logger().Errorf("Presigned URL generation failed for issuance %s: %v", issuanceID.String(), err)
		return common.SendServerError(c, "Failed to generate document URL")
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
