package handlers

import (
	"net/http"
	"strconv"

	"invoicegen/internal/common"
	"invoicegen/internal/services"

	"github.com/labstack/echo/v4"
)

// ClientHandlers handles HTTP requests for clients
type ClientHandlers struct {
	clientService services.ClientService
}

// NewClientHandlers creates a new client handlers instance
func NewClientHandlers(clientService services.ClientService) *ClientHandlers {
	return &ClientHandlers{clientService: clientService}
}

// parseIDParam parses a numeric path parameter.
func parseIDParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

// CreateClient handles POST /clients
func (h *ClientHandlers) CreateClient(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req services.ClientInput
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	client, err := h.clientService.CreateClient(ctx, userID, req)
	if err != nil {
		return common.RespondError(c, "client", err)
	}

	return c.JSON(http.StatusCreated, client)
}

// GetClient handles GET /clients/:id
func (h *ClientHandlers) GetClient(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	clientID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	client, err := h.clientService.GetClientByID(ctx, userID, clientID)
	if err != nil {
		return common.RespondError(c, "client", err)
	}

	return c.JSON(http.StatusOK, client)
}

// ListClients handles GET /clients
func (h *ClientHandlers) ListClients(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	clients, total, err := h.clientService.ListClients(ctx, userID, limit, offset)
	if err != nil {
		return common.RespondError(c, "client", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"clients": clients,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// UpdateClient handles PUT /clients/:id
func (h *ClientHandlers) UpdateClient(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	clientID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req services.ClientInput
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	client, err := h.clientService.UpdateClient(ctx, userID, clientID, req)
	if err != nil {
		return common.RespondError(c, "client", err)
	}

	return c.JSON(http.StatusOK, client)
}

// DeleteClient handles DELETE /clients/:id
func (h *ClientHandlers) DeleteClient(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	clientID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.clientService.DeleteClient(ctx, userID, clientID); err != nil {
		return common.RespondError(c, "client", err)
	}

	return c.NoContent(http.StatusNoContent)
}
