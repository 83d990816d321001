package service

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"printerp-service/internal/model"
	"printerp-service/prometheus"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// paymentCodePattern matches the __code:...__ marker some payment notes
// carry; the code is lifted into its own column on create.
var paymentCodePattern = regexp.MustCompile(`__code:(.+?)__`)

// OrderService implements the supplier purchase order lifecycle: creation,
// item editing, the status machine, payment accumulation, and the
// payment-proportional inventory release. Every multi-step operation runs in
// a single transaction with the order row locked, so partially applied
// writes and racing read-modify-write cycles cannot occur.
type OrderService struct {
	db *gorm.DB
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// OrderItemInput describes one order line in a create or edit request.
// A zero ID marks a row added in the editor; existing rows keep their ids so
// edits diff instead of replacing the collection wholesale.
type OrderItemInput struct {
	ID              uint
	InventoryItemID uint
	ItemName        string
	ItemType        string
	Quantity        int
	UnitPrice       decimal.Decimal
}

// CreateOrderInput carries a direct (non-conversion) order creation
type CreateOrderInput struct {
	SupplierID  uint
	OrderDate   time.Time
	PaymentPlan string
	Notes       string
	Items       []OrderItemInput
	UserID      uint
}

// UpdateOrderInput carries an order edit. Nil fields are left untouched;
// a non-nil Items slice is diffed against the stored collection.
type UpdateOrderInput struct {
	OrderDate   *time.Time
	PaymentPlan *string
	Notes       *string
	Items       []OrderItemInput
	UserID      uint
}

// PaymentInput carries a payment recording request
type PaymentInput struct {
	Amount       decimal.Decimal
	PaymentDate  time.Time
	Method       string
	MethodDetail string
	Notes        string
	UserID       uint
}

// Create persists a new order with its items atomically. The order number,
// totals, and remaining amount are derived server-side.
func (s *OrderService) Create(in CreateOrderInput) (*model.SupplierOrder, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyItems
	}

	var order model.SupplierOrder
	err := s.db.Transaction(func(tx *gorm.DB) error {
		number, err := nextDocumentNumber(tx, &model.SupplierOrder{}, "order_number", orderNumberKind, time.Now())
		if err != nil {
			return err
		}

		items, total, err := buildOrderItems(tx, in.Items)
		if err != nil {
			return err
		}

		orderDate := in.OrderDate
		if orderDate.IsZero() {
			orderDate = time.Now()
		}

		order = model.SupplierOrder{
			OrderNumber:     number,
			SupplierID:      in.SupplierID,
			OrderDate:       orderDate,
			Status:          model.OrderStatusPending,
			TotalAmount:     total,
			PaidAmount:      decimal.Zero,
			RemainingAmount: total,
			PaymentPlan:     in.PaymentPlan,
			Notes:           in.Notes,
			CreatedBy:       in.UserID,
			UpdatedBy:       in.UserID,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].SupplierOrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		order.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Get loads an order with items and payments
func (s *OrderService) Get(orderID uint) (*model.SupplierOrder, error) {
	var order model.SupplierOrder
	err := s.db.Preload("Items").Preload("Payments").Preload("Supplier").First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Update edits order header fields and, when Items is non-nil, diffs the item
// collection by id: rows missing from the submitted set are deleted, rows
// with ids are updated, rows without ids are inserted. Item editing is only
// allowed while the order is Pending or Approved with nothing paid, so no
// released stock can be orphaned by a removed line.
func (s *OrderService) Update(orderID uint, in UpdateOrderInput) (*model.SupplierOrder, error) {
	var updated *model.SupplierOrder
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order model.SupplierOrder
		if err := lockForUpdate(tx).Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if in.Items != nil {
			editable := order.Status == model.OrderStatusPending || order.Status == model.OrderStatusApproved
			if !editable || order.PaidAmount.IsPositive() {
				return ErrOrderNotEditable
			}
			total, err := diffOrderItems(tx, &order, in.Items)
			if err != nil {
				return err
			}
			order.TotalAmount = total
			order.RemainingAmount = total.Sub(order.PaidAmount)
		}

		if in.OrderDate != nil {
			order.OrderDate = *in.OrderDate
		}
		if in.PaymentPlan != nil {
			order.PaymentPlan = *in.PaymentPlan
		}
		if in.Notes != nil {
			order.Notes = *in.Notes
		}
		order.UpdatedBy = in.UserID

		if err := tx.Omit(clause.Associations).Save(&order).Error; err != nil {
			return err
		}

		if err := tx.Preload("Items").Preload("Payments").First(&order, order.ID).Error; err != nil {
			return err
		}
		updated = &order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ChangeStatus applies a status edit against the per-status allow-list.
// Moving to Paid releases every item's full ordered quantity to inventory;
// the stocked counters make re-triggering the same transition a no-op.
func (s *OrderService) ChangeStatus(orderID uint, newStatus string, userID uint) (*model.SupplierOrder, error) {
	var updated *model.SupplierOrder
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order model.SupplierOrder
		if err := lockForUpdate(tx).Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if !model.OrderCanTransition(order.Status, newStatus) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, newStatus)
		}

		order.Status = newStatus
		order.UpdatedBy = userID
		if err := tx.Omit(clause.Associations).Save(&order).Error; err != nil {
			return err
		}

		if newStatus == model.OrderStatusPaid {
			if err := releaseFullOrder(tx, &order, userID); err != nil {
				return err
			}
		}

		updated = &order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ReceiveItems is the manual receive action for a shipped order: it releases
// any quantity not yet stocked in and forces the status to Received.
func (s *OrderService) ReceiveItems(orderID uint, userID uint) (*model.SupplierOrder, error) {
	var updated *model.SupplierOrder
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order model.SupplierOrder
		if err := lockForUpdate(tx).Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if order.Status != model.OrderStatusShipped {
			return ErrOrderNotReceivable
		}

		if err := releaseFullOrder(tx, &order, userID); err != nil {
			return err
		}

		order.Status = model.OrderStatusReceived
		order.UpdatedBy = userID
		if err := tx.Omit(clause.Associations).Save(&order).Error; err != nil {
			return err
		}

		updated = &order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RecordPayment appends a payment and, in the same transaction, rewrites the
// order's paid/remaining amounts, derives the new status, and releases the
// quantity each line can afford at the new paid total. The amount check runs
// under the row lock, so two racing payments cannot overshoot the balance.
func (s *OrderService) RecordPayment(orderID uint, in PaymentInput) (*model.SupplierOrder, *model.OrderPayment, error) {
	if !in.Amount.IsPositive() {
		return nil, nil, ErrPaymentNotPositive
	}
	if !model.ValidPaymentMethod(in.Method) {
		return nil, nil, ErrInvalidPaymentMethod
	}

	var (
		updated *model.SupplierOrder
		payment model.OrderPayment
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order model.SupplierOrder
		if err := lockForUpdate(tx).Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		switch order.Status {
		case model.OrderStatusCompleted, model.OrderStatusRejected:
			return ErrOrderNotPayable
		}

		if in.Amount.GreaterThan(order.RemainingAmount) {
			return ErrPaymentExceedsRemaining
		}

		paymentDate := in.PaymentDate
		if paymentDate.IsZero() {
			paymentDate = time.Now()
		}

		payment = model.OrderPayment{
			SupplierOrderID: order.ID,
			Amount:          in.Amount,
			PaymentDate:     paymentDate,
			Method:          in.Method,
			MethodDetail:    in.MethodDetail,
			PaymentCode:     extractPaymentCode(in.Notes),
			Notes:           in.Notes,
			CreatedBy:       in.UserID,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		newPaid := order.PaidAmount.Add(in.Amount)
		newRemaining := order.TotalAmount.Sub(newPaid)

		order.PaidAmount = newPaid
		order.RemainingAmount = newRemaining
		switch {
		case newRemaining.LessThanOrEqual(decimal.Zero):
			order.Status = model.OrderStatusPaid
		case order.Status == model.OrderStatusPending,
			order.Status == model.OrderStatusApproved,
			order.Status == model.OrderStatusPartiallyPaid:
			// Partial payments never regress a Shipped or Received order
			order.Status = model.OrderStatusPartiallyPaid
		}
		order.UpdatedBy = in.UserID
		if err := tx.Omit(clause.Associations).Save(&order).Error; err != nil {
			return err
		}

		// Release the quantity each line can afford at the new paid total.
		for i := range order.Items {
			target := affordableQuantity(newPaid, &order.Items[i])
			if err := releaseOrderItem(tx, &order, &order.Items[i], target, in.UserID); err != nil {
				return err
			}
		}

		updated = &order
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, &payment, nil
}

// Delete removes an order with its payments and items first, so no orphaned
// child rows survive the order row.
func (s *OrderService) Delete(orderID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var order model.SupplierOrder
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Where("supplier_order_id = ?", order.ID).Delete(&model.OrderPayment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("supplier_order_id = ?", order.ID).Delete(&model.SupplierOrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
}

// affordableQuantity is the quantity of a line the paid total covers:
// floor(paid / unit price), capped at the ordered quantity. Lines priced at
// zero or below count as fully affordable as soon as anything is paid.
func affordableQuantity(paid decimal.Decimal, item *model.SupplierOrderItem) int {
	if !paid.IsPositive() {
		return 0
	}
	if !item.UnitPrice.IsPositive() {
		return item.Quantity
	}
	affordable := paid.Div(item.UnitPrice).IntPart()
	if affordable > int64(item.Quantity) {
		return item.Quantity
	}
	return int(affordable)
}

// releaseOrderItem stocks in the difference between the target released
// quantity and what was already released for the line. The stocked counter
// is the persistent idempotency marker: replays and repeated transitions
// compute a zero delta and write nothing.
func releaseOrderItem(tx *gorm.DB, order *model.SupplierOrder, item *model.SupplierOrderItem, target int, userID uint) error {
	if target > item.Quantity {
		target = item.Quantity
	}
	delta := target - item.StockedQuantity
	if delta <= 0 {
		return nil
	}

	_, err := applyStockMovement(tx, item.InventoryItemID, model.TransactionStockIn, StockInput{
		Quantity:  delta,
		ActorKind: model.ActorSupplier,
		Reference: order.OrderNumber,
		Notes:     fmt.Sprintf("Auto stock-in for order %s", order.OrderNumber),
		UserID:    userID,
	})
	if err != nil {
		return err
	}

	item.StockedQuantity += delta
	if err := tx.Model(item).Update("stocked_quantity", item.StockedQuantity).Error; err != nil {
		return err
	}

	prometheus.StockReleasedCounter.Add(float64(delta))
	return nil
}

// releaseFullOrder releases every line's full ordered quantity
func releaseFullOrder(tx *gorm.DB, order *model.SupplierOrder, userID uint) error {
	for i := range order.Items {
		if err := releaseOrderItem(tx, order, &order.Items[i], order.Items[i].Quantity, userID); err != nil {
			return err
		}
	}
	return nil
}

// buildOrderItems validates and materializes order lines, denormalizing the
// inventory item name when the request leaves it blank, and returns the
// summed total.
func buildOrderItems(tx *gorm.DB, inputs []OrderItemInput) ([]model.SupplierOrderItem, decimal.Decimal, error) {
	items := make([]model.SupplierOrderItem, 0, len(inputs))
	total := decimal.Zero
	for _, in := range inputs {
		if in.InventoryItemID == 0 || in.Quantity <= 0 {
			return nil, decimal.Zero, ErrInvalidItem
		}

		name := in.ItemName
		itemType := in.ItemType
		var inv model.InventoryItem
		if err := tx.First(&inv, in.InventoryItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, decimal.Zero, ErrNotFound
			}
			return nil, decimal.Zero, err
		}
		if name == "" {
			name = inv.Name
		}
		if itemType == "" {
			itemType = inv.ItemType
		}

		lineTotal := in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity)))
		items = append(items, model.SupplierOrderItem{
			InventoryItemID: in.InventoryItemID,
			ItemName:        name,
			ItemType:        itemType,
			Quantity:        in.Quantity,
			UnitPrice:       in.UnitPrice,
			TotalPrice:      lineTotal,
		})
		total = total.Add(lineTotal)
	}
	return items, total, nil
}

// diffOrderItems reconciles the stored item collection against the submitted
// one by stable id and returns the new order total.
func diffOrderItems(tx *gorm.DB, order *model.SupplierOrder, inputs []OrderItemInput) (decimal.Decimal, error) {
	if len(inputs) == 0 {
		return decimal.Zero, ErrEmptyItems
	}

	submitted := make(map[uint]bool, len(inputs))
	for _, in := range inputs {
		if in.ID != 0 {
			submitted[in.ID] = true
		}
	}

	// Delete rows dropped in the editor
	for i := range order.Items {
		if !submitted[order.Items[i].ID] {
			if err := tx.Delete(&order.Items[i]).Error; err != nil {
				return decimal.Zero, err
			}
		}
	}

	existing := make(map[uint]*model.SupplierOrderItem, len(order.Items))
	for i := range order.Items {
		existing[order.Items[i].ID] = &order.Items[i]
	}

	total := decimal.Zero
	for _, in := range inputs {
		if in.InventoryItemID == 0 || in.Quantity <= 0 {
			return decimal.Zero, ErrInvalidItem
		}
		lineTotal := in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity)))
		total = total.Add(lineTotal)

		if item, ok := existing[in.ID]; ok && in.ID != 0 {
			item.InventoryItemID = in.InventoryItemID
			if in.ItemName != "" {
				item.ItemName = in.ItemName
			}
			if in.ItemType != "" {
				item.ItemType = in.ItemType
			}
			item.Quantity = in.Quantity
			item.UnitPrice = in.UnitPrice
			item.TotalPrice = lineTotal
			if err := tx.Save(item).Error; err != nil {
				return decimal.Zero, err
			}
			continue
		}

		built, _, err := buildOrderItems(tx, []OrderItemInput{in})
		if err != nil {
			return decimal.Zero, err
		}
		built[0].SupplierOrderID = order.ID
		if err := tx.Create(&built[0]).Error; err != nil {
			return decimal.Zero, err
		}
	}

	return total, nil
}

// extractPaymentCode lifts the __code:...__ marker out of payment notes
func extractPaymentCode(notes string) string {
	if m := paymentCodePattern.FindStringSubmatch(notes); m != nil {
		return m[1]
	}
	return ""
}
