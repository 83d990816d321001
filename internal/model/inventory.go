package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Inventory transaction types
const (
	TransactionStockIn  = "stock_in"
	TransactionStockOut = "stock_out"
)

// Inventory transaction actor kinds
const (
	ActorSupplier = "supplier"
	ActorEmployee = "employee"
)

// InventoryItem represents a stocked material (paper, ink, plates, ...).
// Quantity never goes negative; stock-out requests that would are refused.
type InventoryItem struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	Name          string          `json:"name" gorm:"type:varchar(255);index;not null"`
	SKU           string          `json:"sku" gorm:"type:varchar(100);uniqueIndex;not null"`
	ItemType      string          `json:"item_type" gorm:"type:varchar(50)"`
	Quantity      int             `json:"quantity" gorm:"not null;default:0"`
	MinStockLevel int             `json:"min_stock_level" gorm:"default:0"`
	UnitPrice     decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2)"`
	SupplierID    *uint           `json:"supplier_id" gorm:"index"`
	Supplier      *Supplier       `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	CreatedBy     uint            `json:"created_by"`
	UpdatedBy     uint            `json:"updated_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}

// InventoryTransaction is the append-only stock movement ledger. System
// generated movements carry the originating order number in Reference;
// rows are never edited or removed.
type InventoryTransaction struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	InventoryItemID uint           `json:"inventory_item_id" gorm:"index;not null"`
	InventoryItem   *InventoryItem `json:"inventory_item,omitempty" gorm:"foreignKey:InventoryItemID"`
	Type            string         `json:"type" gorm:"type:varchar(20);not null"`
	Quantity        int            `json:"quantity" gorm:"not null"`
	ActorKind       string         `json:"actor_kind" gorm:"type:varchar(20);not null;default:employee"`
	Reference       string         `json:"reference" gorm:"type:varchar(50);index"`
	Notes           string         `json:"notes" gorm:"type:text"`
	CreatedBy       uint           `json:"created_by" gorm:"index"`
	CreatedAt       time.Time      `json:"created_at"`
}
