package service

import (
	"errors"

	"printerp-service/internal/model"

	"gorm.io/gorm"
)

// InventoryService owns all stock mutation. The order lifecycle goes through
// it as well; nothing else writes inventory quantities.
type InventoryService struct {
	db *gorm.DB
}

func NewInventoryService(db *gorm.DB) *InventoryService {
	return &InventoryService{db: db}
}

// StockInput describes a manual stock movement
type StockInput struct {
	Quantity  int
	ActorKind string
	Reference string
	Notes     string
	UserID    uint
}

// StockIn increases an item's quantity and appends a stock_in transaction in
// one database transaction.
func (s *InventoryService) StockIn(itemID uint, in StockInput) (*model.InventoryTransaction, error) {
	var trx *model.InventoryTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		trx, err = applyStockMovement(tx, itemID, model.TransactionStockIn, in)
		return err
	})
	return trx, err
}

// StockOut decreases an item's quantity and appends a stock_out transaction.
// Movements that would drive the quantity negative are refused.
func (s *InventoryService) StockOut(itemID uint, in StockInput) (*model.InventoryTransaction, error) {
	var trx *model.InventoryTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		trx, err = applyStockMovement(tx, itemID, model.TransactionStockOut, in)
		return err
	})
	return trx, err
}

// applyStockMovement performs a stock mutation inside an existing
// transaction. The order lifecycle calls it directly so its stock-in rides in
// the same transaction as the payment and status writes.
func applyStockMovement(tx *gorm.DB, itemID uint, movementType string, in StockInput) (*model.InventoryTransaction, error) {
	if in.Quantity <= 0 {
		return nil, ErrQuantityNotPositive
	}

	var item model.InventoryItem
	if err := lockForUpdate(tx).First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	switch movementType {
	case model.TransactionStockIn:
		item.Quantity += in.Quantity
	case model.TransactionStockOut:
		if item.Quantity < in.Quantity {
			return nil, ErrInsufficientStock
		}
		item.Quantity -= in.Quantity
	}

	item.UpdatedBy = in.UserID
	if err := tx.Save(&item).Error; err != nil {
		return nil, err
	}

	actorKind := in.ActorKind
	if actorKind == "" {
		actorKind = model.ActorEmployee
	}

	trx := model.InventoryTransaction{
		InventoryItemID: itemID,
		Type:            movementType,
		Quantity:        in.Quantity,
		ActorKind:       actorKind,
		Reference:       in.Reference,
		Notes:           in.Notes,
		CreatedBy:       in.UserID,
	}
	if err := tx.Create(&trx).Error; err != nil {
		return nil, err
	}

	return &trx, nil
}
