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

// OrderItemRequest is one line of an order create/update request
type OrderItemRequest struct {
	ID              uint            `json:"id"`
	InventoryItemID uint            `json:"inventory_item_id" validate:"required"`
	ItemName        string          `json:"item_name"`
	ItemType        string          `json:"item_type"`
	Quantity        int             `json:"quantity" validate:"required"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

// OrderRequestBody defines the structure for order creation/update requests
type OrderRequestBody struct {
	SupplierID  uint               `json:"supplier_id" validate:"required"`
	OrderDate   string             `json:"order_date"`
	PaymentPlan string             `json:"payment_plan"`
	Notes       string             `json:"notes"`
	Items       []OrderItemRequest `json:"items"`
}

// OrderStatusRequest defines the structure for status change requests
type OrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// PaymentRequest defines the structure for payment recording requests
type PaymentRequest struct {
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	PaymentDate  string          `json:"payment_date"`
	Method       string          `json:"method" validate:"required"`
	MethodDetail string          `json:"method_detail"`
	Notes        string          `json:"notes"`
}

func orderItemInputs(items []OrderItemRequest) []service.OrderItemInput {
	if items == nil {
		return nil
	}
	inputs := make([]service.OrderItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, service.OrderItemInput{
			ID:              item.ID,
			InventoryItemID: item.InventoryItemID,
			ItemName:        item.ItemName,
			ItemType:        item.ItemType,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
		})
	}
	return inputs
}

// CreateOrder creates a new supplier order with its items
func CreateOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("order", "create")

	var req OrderRequestBody
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

	orderDate, err := parseDate(req.OrderDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid order_date",
		})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	svc := service.NewOrderService(database.GetDB())
	order, err := svc.Create(service.CreateOrderInput{
		SupplierID:  req.SupplierID,
		OrderDate:   orderDate,
		PaymentPlan: req.PaymentPlan,
		Notes:       req.Notes,
		Items:       orderItemInputs(req.Items),
		UserID:      userID,
	})
	if err != nil {
		log.Warn("Order creation refused", zap.Error(err))
		return serviceErrorResponse(c, err, "Failed to create order")
	}

	log.Info("Order created successfully",
		zap.Uint("id", order.ID),
		zap.String("order_number", order.OrderNumber))
	return c.JSON(http.StatusCreated, order)
}

// GetOrder retrieves an order by ID with items and payments
func GetOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("order", "get")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid order ID",
		})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	svc := service.NewOrderService(database.GetDB())
	order, err := svc.Get(id)
	if err != nil {
		log.Warn("Order not found", zap.Uint("order_id", id))
		return serviceErrorResponse(c, err, "Failed to retrieve order")
	}

	return c.JSON(http.StatusOK, order)
}

// ListOrders retrieves orders with optional status/supplier filters
func ListOrders(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("order", "list")

	query := database.GetDB().Preload("Items").Order("created_at desc")
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if supplierID := c.QueryParam("supplier_id"); supplierID != "" {
		query = query.Where("supplier_id = ?", supplierID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var orders []model.SupplierOrder
	if err := query.Find(&orders).Error; err != nil {
		log.Error("Failed to retrieve orders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve orders",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"orders": orders,
		"count":  len(orders),
	})
}

// UpdateOrder edits order fields and items
func UpdateOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("order", "update")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid order ID",
		})
	}

	var req OrderRequestBody
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint("order_id", id), zap.Error(err))
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

	in := service.UpdateOrderInput{
		Items:  orderItemInputs(req.Items),
		UserID: userID,
	}
	if req.OrderDate != "" {
		orderDate, err := parseDate(req.OrderDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Invalid order_date",
			})
		}
		in.OrderDate = &orderDate
	}
	if req.PaymentPlan != "" {
		in.PaymentPlan = &req.PaymentPlan
	}
	if req.Notes != "" {
		in.Notes = &req.Notes
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	svc := service.NewOrderService(database.GetDB())
	order, err := svc.Update(id, in)
	if err != nil {
		log.Warn("Order update refused", zap.Uint("order_id", id), zap.Error(err))
		return serviceErrorResponse(c, err, "Failed to update order")
	}

	log.Info("Order updated successfully", zap.Uint("order_id", id))
	return c.JSON(http.StatusOK, order)
}

// ChangeOrderStatus applies a status edit against the order status machine
func ChangeOrderStatus(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("order", "status")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid order ID",
		})
	}

	var req OrderStatusRequest
	if err := c.Bind(&req); err != nil || req.Status == "" {
		log.Error("Invalid request data", zap.Uint("order_id", id))
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

	svc := service.NewOrderService(database.GetDB())
	order, err := svc.ChangeStatus(id, req.Status, userID)
	if err != nil {
		log.Warn("Order status change refused",
			zap.Uint("order_id", id),
			zap.String("status", req.Status),
			zap.Error(err))
		return serviceErrorResponse(c, err, "Failed to change order status")
	}

	prometheus.RecordTransition("order", order.Status)
	cache.Invalidate(c.Request().Context(), cache.InventoryKey)

	log.Info("Order status changed",
		zap.Uint("order_id", id),
		zap.String("status", order.Status))
	return c.JSON(http.StatusOK, order)
}

// ReceiveOrderItems marks a shipped order received, releasing any remaining
// ordered quantity to inventory.
func ReceiveOrderItems(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("order", "receive")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid order ID",
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

	svc := service.NewOrderService(database.GetDB())
	order, err := svc.ReceiveItems(id, userID)
	if err != nil {
		log.Warn("Order receive refused", zap.Uint("order_id", id), zap.Error(err))
		return serviceErrorResponse(c, err, "Failed to receive order items")
	}

	prometheus.RecordTransition("order", order.Status)
	cache.Invalidate(c.Request().Context(), cache.InventoryKey)

	log.Info("Order items received",
		zap.Uint("order_id", id),
		zap.String("order_number", order.OrderNumber))
	return c.JSON(http.StatusOK, order)
}

// RecordOrderPayment appends a payment to an order
func RecordOrderPayment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("order", "payment")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid order ID",
		})
	}

	var req PaymentRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint("order_id", id), zap.Error(err))
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

	paymentDate, err := parseDate(req.PaymentDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid payment_date",
		})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	svc := service.NewOrderService(database.GetDB())
	order, payment, err := svc.RecordPayment(id, service.PaymentInput{
		Amount:       req.Amount,
		PaymentDate:  paymentDate,
		Method:       req.Method,
		MethodDetail: req.MethodDetail,
		Notes:        req.Notes,
		UserID:       userID,
	})
	if err != nil {
		log.Warn("Payment refused",
			zap.Uint("order_id", id),
			zap.String("amount", req.Amount.String()),
			zap.Error(err))
		return serviceErrorResponse(c, err, "Failed to record payment")
	}

	prometheus.PaymentsRecordedCounter.Inc()
	prometheus.RecordTransition("order", order.Status)
	cache.Invalidate(c.Request().Context(), cache.InventoryKey)

	log.Info("Payment recorded",
		zap.Uint("order_id", id),
		zap.String("order_number", order.OrderNumber),
		zap.String("amount", payment.Amount.String()),
		zap.String("status", order.Status))
	return c.JSON(http.StatusCreated, echo.Map{
		"order":   order,
		"payment": payment,
	})
}

// ListOrderPayments retrieves the payment history of an order
func ListOrderPayments(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("order", "payments")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid order ID",
		})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var order model.SupplierOrder
	if err := database.GetDB().First(&order, id).Error; err != nil {
		log.Warn("Order not found", zap.Uint("order_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Order not found",
		})
	}

	var payments []model.OrderPayment
	err = database.GetDB().
		Where("supplier_order_id = ?", id).
		Order("created_at asc").
		Find(&payments).Error
	if err != nil {
		log.Error("Failed to retrieve payments", zap.Uint("order_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve payments",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"order_number":     order.OrderNumber,
		"total_amount":     order.TotalAmount,
		"paid_amount":      order.PaidAmount,
		"remaining_amount": order.RemainingAmount,
		"payments":         payments,
		"count":            len(payments),
	})
}

// DeleteOrder removes an order with its payments and items
func DeleteOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("order", "delete")

	id, err := parseID(c, "id")
	if err != nil {
		log.Error("Invalid order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid order ID",
		})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	svc := service.NewOrderService(database.GetDB())
	if err := svc.Delete(id); err != nil {
		log.Warn("Order delete refused", zap.Uint("order_id", id), zap.Error(err))
		return serviceErrorResponse(c, err, "Failed to delete order")
	}

	log.Info("Order deleted successfully", zap.Uint("order_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Order deleted successfully",
	})
}
