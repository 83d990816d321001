package service

import (
	"fmt"
	"testing"
	"time"

	"printerp-service/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTestOrder(t *testing.T, db *gorm.DB, items []OrderItemInput) *model.SupplierOrder {
	t.Helper()
	supplier := seedSupplier(t, db)
	order, err := NewOrderService(db).Create(CreateOrderInput{
		SupplierID: supplier.ID,
		Items:      items,
		UserID:     1,
	})
	require.NoError(t, err)
	return order
}

func itemQuantity(t *testing.T, db *gorm.DB, itemID uint) int {
	t.Helper()
	var item model.InventoryItem
	require.NoError(t, db.First(&item, itemID).Error)
	return item.Quantity
}

func stockInTotal(t *testing.T, db *gorm.DB, reference string) int {
	t.Helper()
	var transactions []model.InventoryTransaction
	require.NoError(t, db.Where("reference = ? AND type = ?", reference, model.TransactionStockIn).
		Find(&transactions).Error)
	total := 0
	for _, trx := range transactions {
		total += trx.Quantity
	}
	return total
}

func TestCreateOrderComputesNumberAndTotals(t *testing.T) {
	db := newTestDB(t)
	inv := seedInventoryItem(t, db, "Glossy Paper A4", "PAP-001", 0)

	order := createTestOrder(t, db, []OrderItemInput{
		{InventoryItemID: inv.ID, Quantity: 10, UnitPrice: money("25.50")},
		{InventoryItemID: inv.ID, Quantity: 4, UnitPrice: money("100.00")},
	})

	year := time.Now().Year()
	assert.Equal(t, fmt.Sprintf("PO-%d-0001", year), order.OrderNumber)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	requireMoneyEqual(t, "655.00", order.TotalAmount)
	requireMoneyEqual(t, "0", order.PaidAmount)
	requireMoneyEqual(t, "655.00", order.RemainingAmount)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Glossy Paper A4", order.Items[0].ItemName)
	assert.Equal(t, 0, order.Items[0].StockedQuantity)
}

func TestOrderNumbersIncrementWithinYear(t *testing.T) {
	db := newTestDB(t)
	supplier := seedSupplier(t, db)
	inv := seedInventoryItem(t, db, "Ink Black", "INK-001", 0)
	svc := NewOrderService(db)

	first, err := svc.Create(CreateOrderInput{
		SupplierID: supplier.ID,
		Items:      []OrderItemInput{{InventoryItemID: inv.ID, Quantity: 1, UnitPrice: money("5")}},
		UserID:     1,
	})
	require.NoError(t, err)
	second, err := svc.Create(CreateOrderInput{
		SupplierID: supplier.ID,
		Items:      []OrderItemInput{{InventoryItemID: inv.ID, Quantity: 1, UnitPrice: money("5")}},
		UserID:     1,
	})
	require.NoError(t, err)

	year := time.Now().Year()
	assert.Equal(t, fmt.Sprintf("PO-%d-0001", year), first.OrderNumber)
	assert.Equal(t, fmt.Sprintf("PO-%d-0002", year), second.OrderNumber)
}

func TestCreateOrderRequiresItems(t *testing.T) {
	db := newTestDB(t)
	supplier := seedSupplier(t, db)

	_, err := NewOrderService(db).Create(CreateOrderInput{SupplierID: supplier.ID, UserID: 1})
	require.ErrorIs(t, err, ErrEmptyItems)

	_, err = NewOrderService(db).Create(CreateOrderInput{
		SupplierID: supplier.ID,
		Items:      []OrderItemInput{{InventoryItemID: 0, Quantity: 5}},
		UserID:     1,
	})
	require.ErrorIs(t, err, ErrInvalidItem)
}

func TestRecordPaymentAccumulatesAndDerivesStatus(t *testing.T) {
	db := newTestDB(t)
	inv := seedInventoryItem(t, db, "Plates", "PLT-001", 0)
	order := createTestOrder(t, db, []OrderItemInput{
		{InventoryItemID: inv.ID, Quantity: 10, UnitPrice: money("100")},
	})
	svc := NewOrderService(db)

	updated, payment, err := svc.RecordPayment(order.ID, PaymentInput{
		Amount: money("400"),
		Method: model.PaymentMethodCash,
		UserID: 2,
	})
	require.NoError(t, err)
	requireMoneyEqual(t, "400", payment.Amount)
	requireMoneyEqual(t, "400", updated.PaidAmount)
	requireMoneyEqual(t, "600", updated.RemainingAmount)
	assert.Equal(t, model.OrderStatusPartiallyPaid, updated.Status)

	updated, _, err = svc.RecordPayment(order.ID, PaymentInput{
		Amount: money("600"),
		Method: model.PaymentMethodBankTransfer,
		UserID: 2,
	})
	require.NoError(t, err)
	requireMoneyEqual(t, "1000", updated.PaidAmount)
	requireMoneyEqual(t, "0", updated.RemainingAmount)
	assert.Equal(t, model.OrderStatusPaid, updated.Status)

	var payments []model.OrderPayment
	require.NoError(t, db.Where("supplier_order_id = ?", order.ID).Find(&payments).Error)
	assert.Len(t, payments, 2)
}

func TestRecordPaymentRefusesBadAmounts(t *testing.T) {
	db := newTestDB(t)
	inv := seedInventoryItem(t, db, "Toner", "TON-001", 0)
	order := createTestOrder(t, db, []OrderItemInput{
		{InventoryItemID: inv.ID, Quantity: 2, UnitPrice: money("50")},
	})
	svc := NewOrderService(db)

	_, _, err := svc.RecordPayment(order.ID, PaymentInput{
		Amount: money("0"),
		Method: model.PaymentMethodCash,
	})
	require.ErrorIs(t, err, ErrPaymentNotPositive)

	_, _, err = svc.RecordPayment(order.ID, PaymentInput{
		Amount: money("-5"),
		Method: model.PaymentMethodCash,
	})
	require.ErrorIs(t, err, ErrPaymentNotPositive)

	_, _, err = svc.RecordPayment(order.ID, PaymentInput{
		Amount: money("100.01"),
		Method: model.PaymentMethodCash,
	})
	require.ErrorIs(t, err, ErrPaymentExceedsRemaining)

	_, _, err = svc.RecordPayment(order.ID, PaymentInput{
		Amount: money("50"),
		Method: "Barter",
	})
	require.ErrorIs(t, err, ErrInvalidPaymentMethod)

	// Nothing above should have moved the totals
	fresh, err := svc.Get(order.ID)
	require.NoError(t, err)
	requireMoneyEqual(t, "0", fresh.PaidAmount)
	assert.Equal(t, model.OrderStatusPending, fresh.Status)
}

func TestRecordPaymentRefusedOnClosedOrders(t *testing.T) {
	db := newTestDB(t)
	inv := seedInventoryItem(t, db, "Binder", "BND-001", 0)
	order := createTestOrder(t, db, []OrderItemInput{
		{InventoryItemID: inv.ID, Quantity: 1, UnitPrice: money("10")},
	})
	svc := NewOrderService(db)

	_, err := svc.ChangeStatus(order.ID, model.OrderStatusRejected, 1)
	require.NoError(t, err)

	_, _, err = svc.RecordPayment(order.ID, PaymentInput{
		Amount: money("10"),
		Method: model.PaymentMethodCash,
	})
	require.ErrorIs(t, err, ErrOrderNotPayable)
}

func TestProportionalReleaseOnPartialPayment(t *testing.T) {
	db := newTestDB(t)
	inv := seedInventoryItem(t, db, "Cardstock", "CRD-001", 0)
	order := createTestOrder(t, db, []OrderItemInput{
		{InventoryItemID: inv.ID, Quantity: 10, UnitPrice: money("100")},
	})
	svc := NewOrderService(db)

	// 450 paid affords floor(450/100) = 4 units
	_, _, err := svc.RecordPayment(order.ID, PaymentInput{
		Amount: money("450"),
		Method: model.PaymentMethodCash,
		UserID: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, itemQuantity(t, db, inv.ID))
	assert.Equal(t, 4, stockInTotal(t, db, order.OrderNumber))

	// Another 250 brings the total to 700, affording 7; only the delta lands
	_, _, err = svc.RecordPayment(order.ID, PaymentInput{
		Amount: money("250"),
		Method: model.PaymentMethodCash,
		UserID: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, itemQuantity(t, db, inv.ID))
	assert.Equal(t, 7, stockInTotal(t, db, order.OrderNumber))

	var line model.SupplierOrderItem
	require.NoError(t, db.Where("supplier_order_id = ?", order.ID).First(&line).Error)
	assert.Equal(t, 7, line.StockedQuantity)

	// Ledger rows carry the order number and the supplier actor kind
	var trx model.InventoryTransaction
	require.NoError(t, db.Where("reference = ?", order.OrderNumber).First(&trx).Error)
	assert.Equal(t, model.ActorSupplier, trx.ActorKind)
}

func TestFullPaymentReleasesEverythingExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	inv := seedInventoryItem(t, db, "Laminate", "LAM-001", 5)
	order := createTestOrder(t, db, []OrderItemInput{
		{InventoryItemID: inv.ID, Quantity: 8, UnitPrice: money("50")},
	})
	svc := NewOrderService(db)

	_, _, err := svc.RecordPayment(order.ID, PaymentInput{
		Amount: money("150"),
		Method: model.PaymentMethodGCash,
		UserID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 5+3, itemQuantity(t, db, inv.ID))

	_, _, err = svc.RecordPayment(order.ID, PaymentInput{
		Amount: money("250"),
		Method: model.PaymentMethodGCash,
		UserID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 5+8, itemQuantity(t, db, inv.ID))

	// Paid status is already set; re-deriving the release must add nothing
	updated, err := svc.ChangeStatus(order.ID, model.OrderStatusPaid, 1)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, updated.Status)
	assert.Equal(t, 5+8, itemQuantity(t, db, inv.ID))
	assert.Equal(t, 8, stockInTotal(t, db, order.OrderNumber))
}

func TestZeroPricedLineReleasesFullyOnFirstPayment(t *testing.T) {
	db := newTestDB(t)
	priced := seedInventoryItem(t, db, "Vinyl", "VIN-001", 0)
	free := seedInventoryItem(t, db, "Sample Pack", "SMP-001", 0)
	order := createTestOrder(t, db, []OrderItemInput{
		{InventoryItemID: priced.ID, Quantity: 4, UnitPrice: money("100")},
		{InventoryItemID: free.ID, Quantity: 3, UnitPrice: money("0")},
	})

	_, _, err := NewOrderService(db).RecordPayment(order.ID, PaymentInput{
		Amount: money("100"),
		Method: model.PaymentMethodCash,
		UserID: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, itemQuantity(t, db, priced.ID))
	assert.Equal(t, 3, itemQuantity(t, db, free.ID))
}

func TestHalfPaymentCanReleaseBothLinesFully(t *testing.T) {
	db := newTestDB(t)
	plates := seedInventoryItem(t, db, "Plates", "PLT-100", 0)
	ink := seedInventoryItem(t, db, "Ink", "INK-100", 0)
	order := createTestOrder(t, db, []OrderItemInput{
		{InventoryItemID: plates.ID, Quantity: 5, UnitPrice: money("100")},
		{InventoryItemID: ink.ID, Quantity: 10, UnitPrice: money("50")},
	})
	svc := NewOrderService(db)

	// Each line is affordable against the whole paid total: 500 covers all
	// 5 plates and all 10 ink units even though the order is only half paid.
	updated, _, err := svc.RecordPayment(order.ID, PaymentInput{
		Amount: money("500"),
		Method: model.PaymentMethodBankTransfer,
		UserID: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPartiallyPaid, updated.Status)
	requireMoneyEqual(t, "500", updated.PaidAmount)
	requireMoneyEqual(t, "500", updated.RemainingAmount)
	assert.Equal(t, 5, itemQuantity(t, db, plates.ID))
	assert.Equal(t, 10, itemQuantity(t, db, ink.ID))

	// Paying the rest has nothing left to release
	_, _, err = svc.RecordPayment(order.ID, PaymentInput{
		Amount: money("500"),
		Method: model.PaymentMethodBankTransfer,
		UserID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, itemQuantity(t, db, plates.ID))
	assert.Equal(t, 10, itemQuantity(t, db, ink.ID))
	assert.Equal(t, 15, stockInTotal(t, db, order.OrderNumber))
}

func TestOrderStatusMachine(t *testing.T) {
	db := newTestDB(t)
	inv := seedInventoryItem(t, db, "Foil", "FOL-001", 0)
	order := createTestOrder(t, db, []OrderItemInput{
		{InventoryItemID: inv.ID, Quantity: 1, UnitPrice: money("10")},
	})
	svc := NewOrderService(db)

	// Pending cannot jump straight to Shipped
	_, err := svc.ChangeStatus(order.ID, model.OrderStatusShipped, 1)
	require.ErrorIs(t, err, ErrInvalidTransition)

	// Same-status edit is a no-op, not an error
	updated, err := svc.ChangeStatus(order.ID, model.OrderStatusPending, 1)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, updated.Status)

	updated, err = svc.ChangeStatus(order.ID, model.OrderStatusApproved, 1)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusApproved, updated.Status)

	// Approved can fall back to Pending
	_, err = svc.ChangeStatus(order.ID, model.OrderStatusPending, 1)
	require.NoError(t, err)

	// Rejected is terminal
	_, err = svc.ChangeStatus(order.ID, model.OrderStatusRejected, 1)
	require.NoError(t, err)
	_, err = svc.ChangeStatus(order.ID, model.OrderStatusApproved, 1)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStatusPaidReleasesWithoutPayments(t *testing.T) {
	db := newTestDB(t)
	inv := seedInventoryItem(t, db, "Staples", "STP-001", 0)
	order := createTestOrder(t, db, []OrderItemInput{
		{InventoryItemID: inv.ID, Quantity: 6, UnitPrice: money("2")},
	})
	svc := NewOrderService(db)

	_, err := svc.ChangeStatus(order.ID, model.OrderStatusApproved, 1)
	require.NoError(t, err)
	_, err = svc.ChangeStatus(order.ID, model.OrderStatusPaid, 1)
	require.NoError(t, err)

	assert.Equal(t, 6, itemQuantity(t, db, inv.ID))
}

func TestReceiveItemsRequiresShipped(t *testing.T) {
	db := newTestDB(t)
	inv := seedInventoryItem(t, db, "Rolls", "ROL-001", 0)
	order := createTestOrder(t, db, []OrderItemInput{
		{InventoryItemID: inv.ID, Quantity: 10, UnitPrice: money("10")},
	})
	svc := NewOrderService(db)

	_, err := svc.ReceiveItems(order.ID, 1)
	require.ErrorIs(t, err, ErrOrderNotReceivable)

	// Pay half, ship, then receive: the unreleased remainder lands
	_, _, err = svc.RecordPayment(order.ID, PaymentInput{
		Amount: money("50"),
		Method: model.PaymentMethodCash,
		UserID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, itemQuantity(t, db, inv.ID))

	_, err = svc.ChangeStatus(order.ID, model.OrderStatusShipped, 1)
	require.NoError(t, err)

	updated, err := svc.ReceiveItems(order.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusReceived, updated.Status)
	assert.Equal(t, 10, itemQuantity(t, db, inv.ID))
	assert.Equal(t, 10, stockInTotal(t, db, order.OrderNumber))
}

func TestUpdateOrderDiffsItems(t *testing.T) {
	db := newTestDB(t)
	paper := seedInventoryItem(t, db, "Paper", "PAP-010", 0)
	ink := seedInventoryItem(t, db, "Ink", "INK-010", 0)
	order := createTestOrder(t, db, []OrderItemInput{
		{InventoryItemID: paper.ID, Quantity: 5, UnitPrice: money("10")},
		{InventoryItemID: ink.ID, Quantity: 2, UnitPrice: money("30")},
	})
	svc := NewOrderService(db)

	keep := order.Items[0]
	updated, err := svc.Update(order.ID, UpdateOrderInput{
		Items: []OrderItemInput{
			// Kept row with a new quantity
			{ID: keep.ID, InventoryItemID: paper.ID, Quantity: 8, UnitPrice: money("10")},
			// New row; the ink row is dropped
			{InventoryItemID: ink.ID, ItemName: "Ink Cyan", Quantity: 1, UnitPrice: money("45")},
		},
		UserID: 1,
	})
	require.NoError(t, err)

	require.Len(t, updated.Items, 2)
	requireMoneyEqual(t, "125.00", updated.TotalAmount)
	requireMoneyEqual(t, "125.00", updated.RemainingAmount)

	kept := false
	for _, item := range updated.Items {
		if item.ID == keep.ID {
			kept = true
			assert.Equal(t, 8, item.Quantity)
		}
	}
	assert.True(t, kept, "edited row should keep its id")

	var count int64
	db.Model(&model.SupplierOrderItem{}).Where("supplier_order_id = ?", order.ID).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestUpdateOrderItemsRefusedAfterPayment(t *testing.T) {
	db := newTestDB(t)
	inv := seedInventoryItem(t, db, "Gum", "GUM-001", 0)
	order := createTestOrder(t, db, []OrderItemInput{
		{InventoryItemID: inv.ID, Quantity: 5, UnitPrice: money("20")},
	})
	svc := NewOrderService(db)

	_, _, err := svc.RecordPayment(order.ID, PaymentInput{
		Amount: money("20"),
		Method: model.PaymentMethodCash,
		UserID: 1,
	})
	require.NoError(t, err)

	_, err = svc.Update(order.ID, UpdateOrderInput{
		Items: []OrderItemInput{
			{InventoryItemID: inv.ID, Quantity: 1, UnitPrice: money("20")},
		},
		UserID: 1,
	})
	require.ErrorIs(t, err, ErrOrderNotEditable)

	// Header-only edits stay allowed
	notes := "rush order"
	updated, err := svc.Update(order.ID, UpdateOrderInput{Notes: &notes, UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, "rush order", updated.Notes)
}

func TestDeleteOrderRemovesChildren(t *testing.T) {
	db := newTestDB(t)
	inv := seedInventoryItem(t, db, "Twine", "TWN-001", 0)
	order := createTestOrder(t, db, []OrderItemInput{
		{InventoryItemID: inv.ID, Quantity: 2, UnitPrice: money("10")},
	})
	svc := NewOrderService(db)

	_, _, err := svc.RecordPayment(order.ID, PaymentInput{
		Amount: money("10"),
		Method: model.PaymentMethodCash,
		UserID: 1,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(order.ID))

	var counts [3]int64
	db.Model(&model.SupplierOrder{}).Where("id = ?", order.ID).Count(&counts[0])
	db.Model(&model.SupplierOrderItem{}).Where("supplier_order_id = ?", order.ID).Count(&counts[1])
	db.Model(&model.OrderPayment{}).Where("supplier_order_id = ?", order.ID).Count(&counts[2])
	assert.Equal(t, int64(0), counts[0])
	assert.Equal(t, int64(0), counts[1])
	assert.Equal(t, int64(0), counts[2])

	require.ErrorIs(t, svc.Delete(order.ID), ErrNotFound)
}

func TestExtractPaymentCode(t *testing.T) {
	assert.Equal(t, "GC-12345", extractPaymentCode("paid via gcash __code:GC-12345__ ref"))
	assert.Equal(t, "", extractPaymentCode("plain notes"))
	assert.Equal(t, "", extractPaymentCode(""))
}

func TestAffordableQuantity(t *testing.T) {
	item := &model.SupplierOrderItem{Quantity: 10, UnitPrice: money("100")}

	assert.Equal(t, 0, affordableQuantity(decimal.Zero, item))
	assert.Equal(t, 0, affordableQuantity(money("99.99"), item))
	assert.Equal(t, 1, affordableQuantity(money("100"), item))
	assert.Equal(t, 4, affordableQuantity(money("450"), item))
	assert.Equal(t, 10, affordableQuantity(money("5000"), item))

	freeItem := &model.SupplierOrderItem{Quantity: 3, UnitPrice: decimal.Zero}
	assert.Equal(t, 0, affordableQuantity(decimal.Zero, freeItem))
	assert.Equal(t, 3, affordableQuantity(money("0.01"), freeItem))
}
