package handler

import (
	"net/http"
	"time"

	"printerp-service/internal/model"
	"printerp-service/internal/service"
	"printerp-service/pkg/database"
	"printerp-service/pkg/logger"
	"printerp-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// QuotationItemRequest is one line of a quotation create/update request
type QuotationItemRequest struct {
	ID              uint            `json:"id"`
	InventoryItemID uint            `json:"inventory_item_id" validate:"required"`
	ItemName        string          `json:"item_name"`
	Quantity        int             `json:"quantity" validate:"required"`
	ExpectedPrice   decimal.Decimal `json:"expected_price"`
	Notes           string          `json:"notes"`
}

// QuotationRequestBody defines the structure for quotation creation/update
// requests
type QuotationRequestBody struct {
	SupplierID  uint                   `json:"supplier_id" validate:"required"`
	RequestDate string                 `json:"request_date"`
	Notes       string                 `json:"notes"`
	Items       []QuotationItemRequest `json:"items"`
}

// QuotationStatusRequest defines the structure for status change requests
type QuotationStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func quotationItemInputs(items []QuotationItemRequest) []service.QuotationItemInput {
	if items == nil {
		return nil
	}
	inputs := make([]service.QuotationItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, service.QuotationItemInput{
			ID:              item.ID,
			InventoryItemID: item.InventoryItemID,
			ItemName:        item.ItemName,
			Quantity:        item.Quantity,
			ExpectedPrice:   item.ExpectedPrice,
			Notes:           item.Notes,
		})
	}
	return inputs
}

// CreateQuotation creates a new quotation request with its items
func CreateQuotation(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("quotation", "create")

	var req QuotationRequestBody
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if req.SupplierID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "supplier_id is required",
		})
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "authentication required",
		})
	}

	requestDate, err := parseDate(req.RequestDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request_date",
		})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	svc := service.NewQuotationService(database.GetDB())
	quotation, err := svc.Create(service.CreateQuotationInput{
		SupplierID:  req.SupplierID,
		RequestDate: requestDate,
		Notes:       req.Notes,
		Items:       quotationItemInputs(req.Items),
		UserID:      userID,
	})
	if err != nil {
		log.Warn("Quotation creation refused", zap.Error(err))
		return serviceErrorResponse(c, err, "Failed to create quotation")
	}

	log.Info("Quotation created successfully",
		zap.Uint("id", quotation.ID),
		zap.String("request_number", quotation.RequestNumber))
	return c.JSON(http.StatusCreated, quotation)
}

// GetQuotation retrieves a quotation by ID with its items
func GetQuotation(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("quotation", "get")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid quotation ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid quotation ID",
		})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	svc := service.NewQuotationService(database.GetDB())
	quotation, err := svc.Get(id)
	if err != nil {
		log.Warn("Quotation not found", zap.Uint("quotation_id", id))
		return serviceErrorResponse(c, err, "Failed to retrieve quotation")
	}

	return c.JSON(http.StatusOK, quotation)
}

// ListQuotations retrieves quotations with optional status/supplier filters
func ListQuotations(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("quotation", "list")

	query := database.GetDB().Preload("Items").Order("created_at desc")
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if supplierID := c.QueryParam("supplier_id"); supplierID != "" {
		query = query.Where("supplier_id = ?", supplierID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var quotations []model.QuotationRequest
	if err := query.Find(&quotations).Error; err != nil {
		log.Error("Failed to retrieve quotations", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve quotations",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"quotations": quotations,
		"count":      len(quotations),
	})
}

// UpdateQuotation edits quotation fields and items
func UpdateQuotation(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("quotation", "update")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid quotation ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid quotation ID",
		})
	}

	var req QuotationRequestBody
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint("quotation_id", id), zap.Error(err))
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

	in := service.UpdateQuotationInput{
		Items:  quotationItemInputs(req.Items),
		UserID: userID,
	}
	if req.RequestDate != "" {
		requestDate, err := parseDate(req.RequestDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Invalid request_date",
			})
		}
		in.RequestDate = &requestDate
	}
	if req.Notes != "" {
		in.Notes = &req.Notes
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	svc := service.NewQuotationService(database.GetDB())
	quotation, err := svc.Update(id, in)
	if err != nil {
		log.Warn("Quotation update refused", zap.Uint("quotation_id", id), zap.Error(err))
		return serviceErrorResponse(c, err, "Failed to update quotation")
	}

	log.Info("Quotation updated successfully", zap.Uint("quotation_id", id))
	return c.JSON(http.StatusOK, quotation)
}

// ChangeQuotationStatus applies a status edit. Approving converts the
// quotation into a purchase order; the response then carries both documents.
func ChangeQuotationStatus(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("quotation", "status")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid quotation ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid quotation ID",
		})
	}

	var req QuotationStatusRequest
	if err := c.Bind(&req); err != nil || req.Status == "" {
		log.Error("Invalid request data", zap.Uint("quotation_id", id))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "status is required",
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

	svc := service.NewQuotationService(database.GetDB())
	quotation, order, err := svc.ChangeStatus(id, req.Status, userID)
	if err != nil {
		log.Warn("Quotation status change refused",
			zap.Uint("quotation_id", id),
			zap.String("status", req.Status),
			zap.Error(err))
		return serviceErrorResponse(c, err, "Failed to change quotation status")
	}

	prometheus.RecordTransition("quotation", quotation.Status)

	log.Info("Quotation status changed",
		zap.Uint("quotation_id", id),
		zap.String("status", quotation.Status))

	if order != nil {
		log.Info("Quotation converted to order",
			zap.Uint("quotation_id", id),
			zap.String("order_number", order.OrderNumber))
		return c.JSON(http.StatusOK, echo.Map{
			"quotation": quotation,
			"order":     order,
		})
	}
	return c.JSON(http.StatusOK, quotation)
}

// ConvertQuotation explicitly turns a quotation into a purchase order
func ConvertQuotation(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("quotation", "convert")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid quotation ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid quotation ID",
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

	svc := service.NewQuotationService(database.GetDB())
	quotation, order, err := svc.Convert(id, userID)
	if err != nil {
		log.Warn("Quotation conversion refused", zap.Uint("quotation_id", id), zap.Error(err))
		return serviceErrorResponse(c, err, "Failed to convert quotation")
	}

	prometheus.RecordTransition("quotation", quotation.Status)

	log.Info("Quotation converted to order",
		zap.Uint("quotation_id", id),
		zap.String("order_number", order.OrderNumber))
	return c.JSON(http.StatusCreated, echo.Map{
		"quotation": quotation,
		"order":     order,
	})
}

// DeleteQuotation removes a quotation with its items
func DeleteQuotation(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("quotation", "delete")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid quotation ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid quotation ID",
		})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	svc := service.NewQuotationService(database.GetDB())
	if err := svc.Delete(id); err != nil {
		log.Warn("Quotation delete refused", zap.Uint("quotation_id", id), zap.Error(err))
		return serviceErrorResponse(c, err, "Failed to delete quotation")
	}

	log.Info("Quotation deleted successfully", zap.Uint("quotation_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Quotation deleted successfully",
	})
}
