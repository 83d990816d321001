package handler

import (
	"net/http"
	"time"

	"printerp-service/internal/model"
	"printerp-service/internal/service"
	"printerp-service/pkg/cache"
	"printerp-service/pkg/database"
	"printerp-service/pkg/logger"
	"printerp-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InventoryItemRequest defines the structure for inventory item
// creation/update requests
type InventoryItemRequest struct {
	Name          string          `json:"name" validate:"required"`
	SKU           string          `json:"sku" validate:"required"`
	ItemType      string          `json:"item_type"`
	Quantity      int             `json:"quantity"`
	MinStockLevel int             `json:"min_stock_level"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	SupplierID    *uint           `json:"supplier_id"`
}

// StockMovementRequest defines the structure for manual stock in/out requests
type StockMovementRequest struct {
	Quantity  int    `json:"quantity" validate:"required"`
	Reference string `json:"reference"`
	Notes     string `json:"notes"`
}

// CreateInventoryItem creates a new inventory item
func CreateInventoryItem(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("inventory", "create")

	var req InventoryItemRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if req.Name == "" || req.SKU == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "name and sku are required",
		})
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "authentication required",
		})
	}

	var count int64
	database.GetDB().Model(&model.InventoryItem{}).
		Where("sku = ?", req.SKU).
		Count(&count)
	if count > 0 {
		log.Warn("Inventory item with this SKU already exists", zap.String("sku", req.SKU))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Inventory item with this SKU already exists",
		})
	}

	item := model.InventoryItem{
		Name:          req.Name,
		SKU:           req.SKU,
		ItemType:      req.ItemType,
		Quantity:      req.Quantity,
		MinStockLevel: req.MinStockLevel,
		UnitPrice:     req.UnitPrice,
		SupplierID:    req.SupplierID,
		CreatedBy:     userID,
		UpdatedBy:     userID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := database.GetDB().Create(&item).Error; err != nil {
		log.Error("Failed to create inventory item",
			zap.String("sku", req.SKU),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create inventory item",
		})
	}

	cache.Invalidate(c.Request().Context(), cache.InventoryKey)

	log.Info("Inventory item created successfully",
		zap.Uint("id", item.ID),
		zap.String("sku", item.SKU))
	return c.JSON(http.StatusCreated, item)
}

// GetInventoryItem retrieves an inventory item by ID
func GetInventoryItem(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("inventory", "get")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid item ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid item ID",
		})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var item model.InventoryItem
	if err := database.GetDB().Preload("Supplier").First(&item, id).Error; err != nil {
		log.Warn("Inventory item not found", zap.Uint("item_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Inventory item not found",
		})
	}

	return c.JSON(http.StatusOK, item)
}

// ListInventoryItems retrieves inventory items, serving the unfiltered
// listing from cache when available.
func ListInventoryItems(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("inventory", "list")

	itemType := c.QueryParam("item_type")
	cacheable := cache.Enabled() && itemType == ""

	if cacheable {
		var cached []model.InventoryItem
		if cache.GetJSON(c.Request().Context(), cache.InventoryKey, &cached) {
			log.Debug("Serving inventory from cache", zap.Int("count", len(cached)))
			return c.JSON(http.StatusOK, echo.Map{
				"items": cached,
				"count": len(cached),
			})
		}
	}

	query := database.GetDB().Order("name asc")
	if itemType != "" {
		query = query.Where("item_type = ?", itemType)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var items []model.InventoryItem
	if err := query.Find(&items).Error; err != nil {
		log.Error("Failed to retrieve inventory items", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve inventory items",
		})
	}

	if cacheable {
		cache.SetJSON(c.Request().Context(), cache.InventoryKey, items)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
		"count": len(items),
	})
}

// ListLowStockItems retrieves items at or below their minimum stock level
func ListLowStockItems(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("inventory", "low_stock")

	defer prometheus.TrackDBOperation("query")(time.Now())

	var items []model.InventoryItem
	err := database.GetDB().
		Where("quantity <= min_stock_level").
		Order("quantity asc").
		Find(&items).Error
	if err != nil {
		log.Error("Failed to retrieve low stock items", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve low stock items",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
		"count": len(items),
	})
}

// UpdateInventoryItem updates item metadata. Quantity is deliberately not
// editable here; stock levels only move through stock movements.
func UpdateInventoryItem(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("inventory", "update")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid item ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid item ID",
		})
	}

	var req InventoryItemRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint("item_id", id), zap.Error(err))
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

	var item model.InventoryItem
	if err := database.GetDB().First(&item, id).Error; err != nil {
		log.Warn("Inventory item not found for update", zap.Uint("item_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Inventory item not found",
		})
	}

	if req.SKU != "" && req.SKU != item.SKU {
		var count int64
		database.GetDB().Model(&model.InventoryItem{}).
			Where("sku = ? AND id != ?", req.SKU, id).
			Count(&count)
		if count > 0 {
			log.Warn("Inventory item with this SKU already exists", zap.String("sku", req.SKU))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Inventory item with this SKU already exists",
			})
		}
		item.SKU = req.SKU
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	item.Name = req.Name
	item.ItemType = req.ItemType
	item.MinStockLevel = req.MinStockLevel
	item.UnitPrice = req.UnitPrice
	item.SupplierID = req.SupplierID
	item.UpdatedBy = userID

	if err := database.GetDB().Save(&item).Error; err != nil {
		log.Error("Failed to update inventory item", zap.Uint("item_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update inventory item",
		})
	}

	cache.Invalidate(c.Request().Context(), cache.InventoryKey)

	log.Info("Inventory item updated successfully", zap.Uint("item_id", id))
	return c.JSON(http.StatusOK, item)
}

// DeleteInventoryItem handles deleting an inventory item (soft delete)
func DeleteInventoryItem(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("inventory", "delete")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid item ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid item ID",
		})
	}

	var item model.InventoryItem
	if err := database.GetDB().First(&item, id).Error; err != nil {
		log.Warn("Inventory item not found for delete", zap.Uint("item_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Inventory item not found",
		})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	if err := database.GetDB().Delete(&item).Error; err != nil {
		log.Error("Failed to delete inventory item", zap.Uint("item_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete inventory item",
		})
	}

	cache.Invalidate(c.Request().Context(), cache.InventoryKey)

	log.Info("Inventory item deleted successfully", zap.Uint("item_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Inventory item deleted successfully",
	})
}

// StockIn records a manual stock-in movement
func StockIn(c echo.Context) error {
	return handleStockMovement(c, model.TransactionStockIn)
}

// StockOut records a manual stock-out movement
func StockOut(c echo.Context) error {
	return handleStockMovement(c, model.TransactionStockOut)
}

func handleStockMovement(c echo.Context, movementType string) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("inventory", movementType)

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid item ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid item ID",
		})
	}

	var req StockMovementRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint("item_id", id), zap.Error(err))
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

	defer prometheus.TrackDBOperation("update")(time.Now())

	svc := service.NewInventoryService(database.GetDB())
	in := service.StockInput{
		Quantity:  req.Quantity,
		ActorKind: model.ActorEmployee,
		Reference: req.Reference,
		Notes:     req.Notes,
		UserID:    userID,
	}

	var trx *model.InventoryTransaction
	if movementType == model.TransactionStockIn {
		trx, err = svc.StockIn(id, in)
	} else {
		trx, err = svc.StockOut(id, in)
	}
	if err != nil {
		log.Warn("Stock movement refused",
			zap.Uint("item_id", id),
			zap.String("type", movementType),
			zap.Error(err))
		return serviceErrorResponse(c, err, "Failed to record stock movement")
	}

	cache.Invalidate(c.Request().Context(), cache.InventoryKey)

	log.Info("Stock movement recorded",
		zap.Uint("item_id", id),
		zap.String("type", movementType),
		zap.Int("quantity", req.Quantity))
	return c.JSON(http.StatusCreated, trx)
}

// ListInventoryTransactions retrieves the movement ledger for an item
func ListInventoryTransactions(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("inventory", "transactions")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid item ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid item ID",
		})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var transactions []model.InventoryTransaction
	err = database.GetDB().
		Where("inventory_item_id = ?", id).
		Order("created_at desc").
		Find(&transactions).Error
	if err != nil {
		log.Error("Failed to retrieve transactions", zap.Uint("item_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve transactions",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"transactions": transactions,
		"count":        len(transactions),
	})
}
