package service

import (
	"errors"
	"fmt"
	"time"

	"printerp-service/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuotationService implements the supplier quotation request lifecycle.
// Approving a quotation converts it into a purchase order in the same
// transaction, so a quotation can never sit Approved without its order.
type QuotationService struct {
	db *gorm.DB
}

func NewQuotationService(db *gorm.DB) *QuotationService {
	return &QuotationService{db: db}
}

// QuotationItemInput describes one quotation line in a create or edit
// request. A zero ID marks a row added in the editor.
type QuotationItemInput struct {
	ID              uint
	InventoryItemID uint
	ItemName        string
	Quantity        int
	ExpectedPrice   decimal.Decimal
	Notes           string
}

// CreateQuotationInput carries a quotation creation
type CreateQuotationInput struct {
	SupplierID  uint
	RequestDate time.Time
	Notes       string
	Items       []QuotationItemInput
	UserID      uint
}

// UpdateQuotationInput carries a quotation edit. Nil fields are left
// untouched; a non-nil Items slice is diffed against the stored collection.
type UpdateQuotationInput struct {
	RequestDate *time.Time
	Notes       *string
	Items       []QuotationItemInput
	UserID      uint
}

// Create persists a new quotation request with its items atomically
func (s *QuotationService) Create(in CreateQuotationInput) (*model.QuotationRequest, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyItems
	}

	var quotation model.QuotationRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		number, err := nextDocumentNumber(tx, &model.QuotationRequest{}, "request_number", quotationNumberKind, time.Now())
		if err != nil {
			return err
		}

		items, err := buildQuotationItems(tx, in.Items)
		if err != nil {
			return err
		}

		requestDate := in.RequestDate
		if requestDate.IsZero() {
			requestDate = time.Now()
		}

		quotation = model.QuotationRequest{
			RequestNumber: number,
			SupplierID:    in.SupplierID,
			RequestDate:   requestDate,
			Status:        model.QuotationStatusDraft,
			Notes:         in.Notes,
			CreatedBy:     in.UserID,
			UpdatedBy:     in.UserID,
		}
		if err := tx.Create(&quotation).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].QuotationRequestID = quotation.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		quotation.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &quotation, nil
}

// Get loads a quotation with its items
func (s *QuotationService) Get(quotationID uint) (*model.QuotationRequest, error) {
	var quotation model.QuotationRequest
	err := s.db.Preload("Items").Preload("Supplier").First(&quotation, quotationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quotation, nil
}

// Update edits quotation header fields and, when Items is non-nil, diffs the
// item collection by id. Converted quotations are immutable.
func (s *QuotationService) Update(quotationID uint, in UpdateQuotationInput) (*model.QuotationRequest, error) {
	var updated *model.QuotationRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var quotation model.QuotationRequest
		if err := lockForUpdate(tx).Preload("Items").First(&quotation, quotationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if quotation.Status == model.QuotationStatusConverted {
			return ErrQuotationConverted
		}

		if in.Items != nil {
			if err := diffQuotationItems(tx, &quotation, in.Items); err != nil {
				return err
			}
		}

		if in.RequestDate != nil {
			quotation.RequestDate = *in.RequestDate
		}
		if in.Notes != nil {
			quotation.Notes = *in.Notes
		}
		quotation.UpdatedBy = in.UserID

		if err := tx.Omit(clause.Associations).Save(&quotation).Error; err != nil {
			return err
		}

		if err := tx.Preload("Items").First(&quotation, quotation.ID).Error; err != nil {
			return err
		}
		updated = &quotation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ChangeStatus applies a status edit against the allow-list. Approving a
// quotation triggers conversion: the quotation ends Converted (never
// Approved) and the returned order is the Pending purchase order created from
// it, all in one transaction.
func (s *QuotationService) ChangeStatus(quotationID uint, newStatus string, userID uint) (*model.QuotationRequest, *model.SupplierOrder, error) {
	var (
		updated *model.QuotationRequest
		order   *model.SupplierOrder
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var quotation model.QuotationRequest
		if err := lockForUpdate(tx).Preload("Items").First(&quotation, quotationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if quotation.Status == model.QuotationStatusConverted {
			return ErrQuotationConverted
		}
		if !model.QuotationCanTransition(quotation.Status, newStatus) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, quotation.Status, newStatus)
		}

		if newStatus == model.QuotationStatusApproved {
			converted, err := convertLocked(tx, &quotation, userID)
			if err != nil {
				return err
			}
			order = converted
		} else {
			quotation.Status = newStatus
			quotation.UpdatedBy = userID
			if err := tx.Omit(clause.Associations).Save(&quotation).Error; err != nil {
				return err
			}
		}

		updated = &quotation
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, order, nil
}

// Convert explicitly turns a quotation into a purchase order
func (s *QuotationService) Convert(quotationID uint, userID uint) (*model.QuotationRequest, *model.SupplierOrder, error) {
	var (
		updated *model.QuotationRequest
		order   *model.SupplierOrder
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var quotation model.QuotationRequest
		if err := lockForUpdate(tx).Preload("Items").First(&quotation, quotationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if quotation.Status == model.QuotationStatusConverted {
			return ErrQuotationConverted
		}

		converted, err := convertLocked(tx, &quotation, userID)
		if err != nil {
			return err
		}
		order = converted
		updated = &quotation
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, order, nil
}

// Delete removes a quotation with its items first
func (s *QuotationService) Delete(quotationID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var quotation model.QuotationRequest
		if err := tx.First(&quotation, quotationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Where("quotation_request_id = ?", quotation.ID).Delete(&model.QuotationItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&quotation).Error
	})
}

// convertLocked creates a Pending purchase order from an already locked
// quotation and marks the quotation Converted. Expected prices carry over as
// order unit prices; lines quoted without a price default to zero and are
// costed later through an order edit.
func convertLocked(tx *gorm.DB, quotation *model.QuotationRequest, userID uint) (*model.SupplierOrder, error) {
	if len(quotation.Items) == 0 {
		return nil, ErrEmptyItems
	}

	number, err := nextDocumentNumber(tx, &model.SupplierOrder{}, "order_number", orderNumberKind, time.Now())
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	items := make([]model.SupplierOrderItem, 0, len(quotation.Items))
	for _, qi := range quotation.Items {
		lineTotal := qi.ExpectedPrice.Mul(decimal.NewFromInt(int64(qi.Quantity)))
		total = total.Add(lineTotal)

		var inv model.InventoryItem
		itemType := ""
		if err := tx.First(&inv, qi.InventoryItemID).Error; err == nil {
			itemType = inv.ItemType
		}

		items = append(items, model.SupplierOrderItem{
			InventoryItemID: qi.InventoryItemID,
			ItemName:        qi.ItemName,
			ItemType:        itemType,
			Quantity:        qi.Quantity,
			UnitPrice:       qi.ExpectedPrice,
			TotalPrice:      lineTotal,
		})
	}

	order := model.SupplierOrder{
		OrderNumber:     number,
		SupplierID:      quotation.SupplierID,
		OrderDate:       time.Now(),
		Status:          model.OrderStatusPending,
		TotalAmount:     total,
		PaidAmount:      decimal.Zero,
		RemainingAmount: total,
		Notes:           fmt.Sprintf("Created from quotation %s", quotation.RequestNumber),
		QuotationID:     &quotation.ID,
		CreatedBy:       userID,
		UpdatedBy:       userID,
	}
	if err := tx.Create(&order).Error; err != nil {
		return nil, err
	}

	for i := range items {
		items[i].SupplierOrderID = order.ID
	}
	if err := tx.Create(&items).Error; err != nil {
		return nil, err
	}
	order.Items = items

	quotation.Status = model.QuotationStatusConverted
	quotation.UpdatedBy = userID
	if err := tx.Omit(clause.Associations).Save(quotation).Error; err != nil {
		return nil, err
	}

	return &order, nil
}

// buildQuotationItems validates and materializes quotation lines,
// denormalizing the inventory item name when the request leaves it blank.
func buildQuotationItems(tx *gorm.DB, inputs []QuotationItemInput) ([]model.QuotationItem, error) {
	items := make([]model.QuotationItem, 0, len(inputs))
	for _, in := range inputs {
		if in.InventoryItemID == 0 || in.Quantity <= 0 {
			return nil, ErrInvalidItem
		}

		name := in.ItemName
		var inv model.InventoryItem
		if err := tx.First(&inv, in.InventoryItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if name == "" {
			name = inv.Name
		}

		items = append(items, model.QuotationItem{
			InventoryItemID: in.InventoryItemID,
			ItemName:        name,
			Quantity:        in.Quantity,
			ExpectedPrice:   in.ExpectedPrice,
			Notes:           in.Notes,
		})
	}
	return items, nil
}

// diffQuotationItems reconciles the stored item collection against the
// submitted one by stable id.
func diffQuotationItems(tx *gorm.DB, quotation *model.QuotationRequest, inputs []QuotationItemInput) error {
	if len(inputs) == 0 {
		return ErrEmptyItems
	}

	submitted := make(map[uint]bool, len(inputs))
	for _, in := range inputs {
		if in.ID != 0 {
			submitted[in.ID] = true
		}
	}

	for i := range quotation.Items {
		if !submitted[quotation.Items[i].ID] {
			if err := tx.Delete(&quotation.Items[i]).Error; err != nil {
				return err
			}
		}
	}

	existing := make(map[uint]*model.QuotationItem, len(quotation.Items))
	for i := range quotation.Items {
		existing[quotation.Items[i].ID] = &quotation.Items[i]
	}

	for _, in := range inputs {
		if in.InventoryItemID == 0 || in.Quantity <= 0 {
			return ErrInvalidItem
		}

		if item, ok := existing[in.ID]; ok && in.ID != 0 {
			item.InventoryItemID = in.InventoryItemID
			if in.ItemName != "" {
				item.ItemName = in.ItemName
			}
			item.Quantity = in.Quantity
			item.ExpectedPrice = in.ExpectedPrice
			item.Notes = in.Notes
			if err := tx.Save(item).Error; err != nil {
				return err
			}
			continue
		}

		built, err := buildQuotationItems(tx, []QuotationItemInput{in})
		if err != nil {
			return err
		}
		built[0].QuotationRequestID = quotation.ID
		if err := tx.Create(&built[0]).Error; err != nil {
			return err
		}
	}

	return nil
}
