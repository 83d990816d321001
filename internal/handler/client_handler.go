package handler

import (
	"net/http"
	"time"

	"printerp-service/internal/model"
	"printerp-service/pkg/database"
	"printerp-service/pkg/logger"
	"printerp-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ClientRequest defines the structure for client creation/update requests
type ClientRequest struct {
	Name          string `json:"name" validate:"required"`
	CompanyName   string `json:"company_name"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	Notes         string `json:"notes"`
	IsActive      bool   `json:"is_active"`
}

// CreateClient creates a new client
func CreateClient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("client", "create")

	var req ClientRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "name is required",
		})
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "authentication required",
		})
	}

	client := model.Client{
		Name:          req.Name,
		CompanyName:   req.CompanyName,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		Notes:         req.Notes,
		IsActive:      req.IsActive,
		CreatedBy:     userID,
		UpdatedBy:     userID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := database.GetDB().Create(&client).Error; err != nil {
		log.Error("Failed to create client", zap.String("name", req.Name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create client",
		})
	}

	log.Info("Client created successfully",
		zap.Uint("id", client.ID),
		zap.String("name", client.Name))
	return c.JSON(http.StatusCreated, client)
}

// GetClient retrieves a client by ID
func GetClient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("client", "get")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid client ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid client ID",
		})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var client model.Client
	if err := database.GetDB().First(&client, id).Error; err != nil {
		log.Warn("Client not found", zap.Uint("client_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Client not found",
		})
	}

	return c.JSON(http.StatusOK, client)
}

// ListClients retrieves all clients
func ListClients(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("client", "list")

	query := database.GetDB().Order("name asc")
	if isActive := c.QueryParam("is_active"); isActive != "" {
		query = query.Where("is_active = ?", isActive == "true")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var clients []model.Client
	if err := query.Find(&clients).Error; err != nil {
		log.Error("Failed to retrieve clients", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve clients",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"clients": clients,
		"count":   len(clients),
	})
}

// UpdateClient updates an existing client
func UpdateClient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("client", "update")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid client ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid client ID",
		})
	}

	var req ClientRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint("client_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "authentication required",
		})
	}

	var client model.Client
	if err := database.GetDB().First(&client, id).Error; err != nil {
		log.Warn("Client not found for update", zap.Uint("client_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Client not found",
		})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	client.Name = req.Name
	client.CompanyName = req.CompanyName
	client.ContactPerson = req.ContactPerson
	client.Email = req.Email
	client.Phone = req.Phone
	client.Address = req.Address
	client.Notes = req.Notes
	client.IsActive = req.IsActive
	client.UpdatedBy = userID

	if err := database.GetDB().Save(&client).Error; err != nil {
		log.Error("Failed to update client", zap.Uint("client_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update client",
		})
	}

	log.Info("Client updated successfully", zap.Uint("client_id", id))
	return c.JSON(http.StatusOK, client)
}

// DeleteClient handles deleting a client (soft delete)
func DeleteClient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("client", "delete")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid client ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid client ID",
		})
	}

	var client model.Client
	if err := database.GetDB().First(&client, id).Error; err != nil {
		log.Warn("Client not found for delete", zap.Uint("client_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Client not found",
		})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	if err := database.GetDB().Delete(&client).Error; err != nil {
		log.Error("Failed to delete client", zap.Uint("client_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete client",
		})
	}

	log.Info("Client deleted successfully", zap.Uint("client_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Client deleted successfully",
	})
}
