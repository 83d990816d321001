package handler

import (
	"net/http"
	"time"

	"printerp-service/internal/model"
	"printerp-service/pkg/cache"
	"printerp-service/pkg/database"
	"printerp-service/pkg/logger"
	"printerp-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SupplierRequest defines the structure for supplier creation/update requests
type SupplierRequest struct {
	Name          string `json:"name" validate:"required"`
	Code          string `json:"code"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	PaymentTerms  string `json:"payment_terms"`
	Notes         string `json:"notes"`
	IsActive      bool   `json:"is_active"`
}

// CreateSupplier creates a new supplier
func CreateSupplier(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new supplier")
	prometheus.RecordOperation("supplier", "create")

	var req SupplierRequest
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

	// Supplier codes are unique among live rows
	if req.Code != "" {
		var count int64
		database.GetDB().Model(&model.Supplier{}).
			Where("code = ?", req.Code).
			Count(&count)
		if count > 0 {
			log.Warn("Supplier with this code already exists", zap.String("code", req.Code))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Supplier with this code already exists",
			})
		}
	}

	supplier := model.Supplier{
		Name:          req.Name,
		Code:          req.Code,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		PaymentTerms:  req.PaymentTerms,
		Notes:         req.Notes,
		IsActive:      req.IsActive,
		CreatedBy:     userID,
		UpdatedBy:     userID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := database.GetDB().Create(&supplier).Error; err != nil {
		log.Error("Failed to create supplier",
			zap.String("name", req.Name),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create supplier",
		})
	}

	cache.Invalidate(c.Request().Context(), cache.SuppliersKey)

	log.Info("Supplier created successfully",
		zap.Uint("id", supplier.ID),
		zap.String("name", supplier.Name))
	return c.JSON(http.StatusCreated, supplier)
}

// GetSupplier retrieves a supplier by ID
func GetSupplier(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("supplier", "get")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid supplier ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid supplier ID",
		})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var supplier model.Supplier
	if err := database.GetDB().First(&supplier, id).Error; err != nil {
		log.Warn("Supplier not found", zap.Uint("supplier_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Supplier not found",
		})
	}

	return c.JSON(http.StatusOK, supplier)
}

// ListSuppliers retrieves suppliers, serving the unfiltered listing from
// cache when available.
func ListSuppliers(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("supplier", "list")

	isActive := c.QueryParam("is_active")
	cacheable := cache.Enabled() && isActive == ""

	if cacheable {
		var cached []model.Supplier
		if cache.GetJSON(c.Request().Context(), cache.SuppliersKey, &cached) {
			log.Debug("Serving suppliers from cache", zap.Int("count", len(cached)))
			return c.JSON(http.StatusOK, echo.Map{
				"suppliers": cached,
				"count":     len(cached),
			})
		}
	}

	query := database.GetDB().Order("name asc")
	if isActive != "" {
		query = query.Where("is_active = ?", isActive == "true")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var suppliers []model.Supplier
	if err := query.Find(&suppliers).Error; err != nil {
		log.Error("Failed to retrieve suppliers", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve suppliers",
		})
	}

	if cacheable {
		cache.SetJSON(c.Request().Context(), cache.SuppliersKey, suppliers)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"suppliers": suppliers,
		"count":     len(suppliers),
	})
}

// UpdateSupplier updates an existing supplier
func UpdateSupplier(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("supplier", "update")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid supplier ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid supplier ID",
		})
	}

	var req SupplierRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint("supplier_id", id), zap.Error(err))
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

	var supplier model.Supplier
	if err := database.GetDB().First(&supplier, id).Error; err != nil {
		log.Warn("Supplier not found for update", zap.Uint("supplier_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Supplier not found",
		})
	}

	if req.Code != "" && req.Code != supplier.Code {
		var count int64
		database.GetDB().Model(&model.Supplier{}).
			Where("code = ? AND id != ?", req.Code, id).
			Count(&count)
		if count > 0 {
			log.Warn("Supplier with this code already exists", zap.String("code", req.Code))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Supplier with this code already exists",
			})
		}
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	supplier.Name = req.Name
	supplier.Code = req.Code
	supplier.ContactPerson = req.ContactPerson
	supplier.Email = req.Email
	supplier.Phone = req.Phone
	supplier.Address = req.Address
	supplier.PaymentTerms = req.PaymentTerms
	supplier.Notes = req.Notes
	supplier.IsActive = req.IsActive
	supplier.UpdatedBy = userID

	if err := database.GetDB().Save(&supplier).Error; err != nil {
		log.Error("Failed to update supplier", zap.Uint("supplier_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update supplier",
		})
	}

	cache.Invalidate(c.Request().Context(), cache.SuppliersKey)

	log.Info("Supplier updated successfully",
		zap.Uint("supplier_id", id),
		zap.String("name", supplier.Name))
	return c.JSON(http.StatusOK, supplier)
}

// DeleteSupplier handles deleting a supplier (soft delete)
func DeleteSupplier(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("supplier", "delete")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid supplier ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid supplier ID",
		})
	}

	var supplier model.Supplier
	if err := database.GetDB().First(&supplier, id).Error; err != nil {
		log.Warn("Supplier not found for delete", zap.Uint("supplier_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Supplier not found",
		})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	if err := database.GetDB().Delete(&supplier).Error; err != nil {
		log.Error("Failed to delete supplier", zap.Uint("supplier_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete supplier",
		})
	}

	cache.Invalidate(c.Request().Context(), cache.SuppliersKey)

	log.Info("Supplier deleted successfully",
		zap.Uint("supplier_id", id),
		zap.String("name", supplier.Name))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Supplier deleted successfully",
	})
}
