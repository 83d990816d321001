package service

import (
	"fmt"
	"testing"
	"time"

	"printerp-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTestQuotation(t *testing.T, db *gorm.DB, items []QuotationItemInput) *model.QuotationRequest {
	t.Helper()
	supplier := seedSupplier(t, db)
	quotation, err := NewQuotationService(db).Create(CreateQuotationInput{
		SupplierID: supplier.ID,
		Items:      items,
		UserID:     1,
	})
	require.NoError(t, err)
	return quotation
}

func TestCreateQuotationAssignsNumberAndDraftStatus(t *testing.T) {
	db := newTestDB(t)
	inv := seedInventoryItem(t, db, "Bond Paper", "BND-100", 0)

	quotation := createTestQuotation(t, db, []QuotationItemInput{
		{InventoryItemID: inv.ID, Quantity: 50, ExpectedPrice: money("12.75")},
	})

	year := time.Now().Year()
	assert.Equal(t, fmt.Sprintf("RFQ-%d-0001", year), quotation.RequestNumber)
	assert.Equal(t, model.QuotationStatusDraft, quotation.Status)
	require.Len(t, quotation.Items, 1)
	assert.Equal(t, "Bond Paper", quotation.Items[0].ItemName)
}

func TestCreateQuotationRequiresItems(t *testing.T) {
	db := newTestDB(t)
	supplier := seedSupplier(t, db)

	_, err := NewQuotationService(db).Create(CreateQuotationInput{
		SupplierID: supplier.ID,
		UserID:     1,
	})
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestApprovalConvertsQuotationToOrder(t *testing.T) {
	db := newTestDB(t)
	inv := seedInventoryItem(t, db, "Newsprint", "NWS-001", 0)
	quotation := createTestQuotation(t, db, []QuotationItemInput{
		{InventoryItemID: inv.ID, Quantity: 20, ExpectedPrice: money("15")},
		{InventoryItemID: inv.ID, Quantity: 5, ExpectedPrice: money("0")},
	})
	svc := NewQuotationService(db)

	updated, order, err := svc.ChangeStatus(quotation.ID, model.QuotationStatusApproved, 7)
	require.NoError(t, err)

	// The quotation ends Converted, never Approved
	assert.Equal(t, model.QuotationStatusConverted, updated.Status)
	require.NotNil(t, order)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, quotation.SupplierID, order.SupplierID)
	require.NotNil(t, order.QuotationID)
	assert.Equal(t, quotation.ID, *order.QuotationID)
	assert.Contains(t, order.Notes, quotation.RequestNumber)

	// Expected prices carry over; the unpriced line defaults to zero
	requireMoneyEqual(t, "300.00", order.TotalAmount)
	requireMoneyEqual(t, "300.00", order.RemainingAmount)
	require.Len(t, order.Items, 2)
	requireMoneyEqual(t, "15", order.Items[0].UnitPrice)
	requireMoneyEqual(t, "0", order.Items[1].UnitPrice)

	year := time.Now().Year()
	assert.Equal(t, fmt.Sprintf("PO-%d-0001", year), order.OrderNumber)
}

func TestExplicitConvert(t *testing.T) {
	db := newTestDB(t)
	inv := seedInventoryItem(t, db, "Kraft Paper", "KFT-001", 0)
	quotation := createTestQuotation(t, db, []QuotationItemInput{
		{InventoryItemID: inv.ID, Quantity: 10, ExpectedPrice: money("8")},
	})
	svc := NewQuotationService(db)

	updated, order, err := svc.Convert(quotation.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, model.QuotationStatusConverted, updated.Status)
	require.NotNil(t, order)
	requireMoneyEqual(t, "80", order.TotalAmount)

	// A second conversion must refuse and create nothing
	_, _, err = svc.Convert(quotation.ID, 2)
	require.ErrorIs(t, err, ErrQuotationConverted)

	var count int64
	db.Model(&model.SupplierOrder{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestConvertedQuotationIsImmutable(t *testing.T) {
	db := newTestDB(t)
	inv := seedInventoryItem(t, db, "Envelope", "ENV-001", 0)
	quotation := createTestQuotation(t, db, []QuotationItemInput{
		{InventoryItemID: inv.ID, Quantity: 100, ExpectedPrice: money("1.50")},
	})
	svc := NewQuotationService(db)

	_, _, err := svc.Convert(quotation.ID, 1)
	require.NoError(t, err)

	notes := "changed"
	_, err = svc.Update(quotation.ID, UpdateQuotationInput{Notes: &notes, UserID: 1})
	require.ErrorIs(t, err, ErrQuotationConverted)

	_, _, err = svc.ChangeStatus(quotation.ID, model.QuotationStatusSent, 1)
	require.ErrorIs(t, err, ErrQuotationConverted)
}

func TestQuotationStatusMachine(t *testing.T) {
	db := newTestDB(t)
	inv := seedInventoryItem(t, db, "Labels", "LBL-001", 0)
	quotation := createTestQuotation(t, db, []QuotationItemInput{
		{InventoryItemID: inv.ID, Quantity: 10, ExpectedPrice: money("3")},
	})
	svc := NewQuotationService(db)

	// Draft cannot jump to Received
	_, _, err := svc.ChangeStatus(quotation.ID, model.QuotationStatusReceived, 1)
	require.ErrorIs(t, err, ErrInvalidTransition)

	updated, order, err := svc.ChangeStatus(quotation.ID, model.QuotationStatusSent, 1)
	require.NoError(t, err)
	assert.Nil(t, order)
	assert.Equal(t, model.QuotationStatusSent, updated.Status)

	updated, _, err = svc.ChangeStatus(quotation.ID, model.QuotationStatusRejected, 1)
	require.NoError(t, err)
	assert.Equal(t, model.QuotationStatusRejected, updated.Status)

	// Rejected is terminal
	_, _, err = svc.ChangeStatus(quotation.ID, model.QuotationStatusSent, 1)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateQuotationDiffsItems(t *testing.T) {
	db := newTestDB(t)
	paper := seedInventoryItem(t, db, "Paper", "PAP-200", 0)
	ink := seedInventoryItem(t, db, "Ink", "INK-200", 0)
	quotation := createTestQuotation(t, db, []QuotationItemInput{
		{InventoryItemID: paper.ID, Quantity: 10, ExpectedPrice: money("10")},
		{InventoryItemID: ink.ID, Quantity: 2, ExpectedPrice: money("40")},
	})
	svc := NewQuotationService(db)

	keep := quotation.Items[0]
	updated, err := svc.Update(quotation.ID, UpdateQuotationInput{
		Items: []QuotationItemInput{
			{ID: keep.ID, InventoryItemID: paper.ID, Quantity: 25, ExpectedPrice: money("9.50")},
			{InventoryItemID: ink.ID, ItemName: "Ink Magenta", Quantity: 1, ExpectedPrice: money("42")},
		},
		UserID: 1,
	})
	require.NoError(t, err)

	require.Len(t, updated.Items, 2)
	kept := false
	for _, item := range updated.Items {
		if item.ID == keep.ID {
			kept = true
			assert.Equal(t, 25, item.Quantity)
			requireMoneyEqual(t, "9.50", item.ExpectedPrice)
		}
	}
	assert.True(t, kept, "edited row should keep its id")

	var count int64
	db.Model(&model.QuotationItem{}).Where("quotation_request_id = ?", quotation.ID).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestDeleteQuotationRemovesItems(t *testing.T) {
	db := newTestDB(t)
	inv := seedInventoryItem(t, db, "Tape", "TAP-001", 0)
	quotation := createTestQuotation(t, db, []QuotationItemInput{
		{InventoryItemID: inv.ID, Quantity: 3, ExpectedPrice: money("5")},
	})
	svc := NewQuotationService(db)

	require.NoError(t, svc.Delete(quotation.ID))

	var counts [2]int64
	db.Model(&model.QuotationRequest{}).Where("id = ?", quotation.ID).Count(&counts[0])
	db.Model(&model.QuotationItem{}).Where("quotation_request_id = ?", quotation.ID).Count(&counts[1])
	assert.Equal(t, int64(0), counts[0])
	assert.Equal(t, int64(0), counts[1])

	require.ErrorIs(t, svc.Delete(quotation.ID), ErrNotFound)
}
