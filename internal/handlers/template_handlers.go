package handlers

import (
	"net/http"

	"invoicegen/internal/common"
	"invoicegen/internal/services"

	"github.com/labstack/echo/v4"
)

// TemplateHandlers handles HTTP requests for invoice templates
type TemplateHandlers struct {
	templateService services.TemplateService
}

// NewTemplateHandlers creates a new template handlers instance
func NewTemplateHandlers(templateService services.TemplateService) *TemplateHandlers {
	return &TemplateHandlers{templateService: templateService}
}

// CreateTemplate handles POST /templates
func (h *TemplateHandlers) CreateTemplate(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req services.TemplateInput
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	template, err := h.templateService.CreateTemplate(ctx, userID, req)
	if err != nil {
		return common.RespondError(c, "template", err)
	}

	return c.JSON(http.StatusCreated, template)
}

// GetTemplate handles GET /templates/:id
func (h *TemplateHandlers) GetTemplate(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	templateID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	template, err := h.templateService.GetTemplateByID(ctx, userID, templateID)
	if err != nil {
		return common.RespondError(c, "template", err)
	}

	return c.JSON(http.StatusOK, template)
}

// ListTemplates handles GET /templates
func (h *TemplateHandlers) ListTemplates(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	templates, err := h.templateService.ListTemplates(ctx, userID)
	if err != nil {
		return common.RespondError(c, "template", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"templates": templates})
}

// UpdateTemplate handles PUT /templates/:id
func (h *TemplateHandlers) UpdateTemplate(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	templateID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req services.TemplateInput
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	template, err := h.templateService.UpdateTemplate(ctx, userID, templateID, req)
	if err != nil {
		return common.RespondError(c, "template", err)
	}

	return c.JSON(http.StatusOK, template)
}

// DeleteTemplate handles DELETE /templates/:id
func (h *TemplateHandlers) DeleteTemplate(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	templateID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.templateService.DeleteTemplate(ctx, userID, templateID); err != nil {
		return common.RespondError(c, "template", err)
	}

	return c.NoContent(http.StatusNoContent)
}
