package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quotation request statuses
const (
	QuotationStatusDraft     = "Draft"
	QuotationStatusSent      = "Sent"
	QuotationStatusApproved  = "Approved"
	QuotationStatusRejected  = "Rejected"
	QuotationStatusReceived  = "Received"
	QuotationStatusConverted = "Converted"
)

// quotationTransitions is the per-status allow-list for plain status edits.
// Converted is reachable only through order conversion, never through a
// status edit, and accepts nothing afterwards.
var quotationTransitions = map[string][]string{
	QuotationStatusDraft:     {QuotationStatusSent, QuotationStatusApproved, QuotationStatusRejected},
	QuotationStatusSent:      {QuotationStatusApproved, QuotationStatusRejected, QuotationStatusReceived},
	QuotationStatusApproved:  {QuotationStatusReceived},
	QuotationStatusReceived:  {},
	QuotationStatusRejected:  {},
	QuotationStatusConverted: {},
}

// QuotationCanTransition reports whether a plain status edit from one status
// to another is allowed. The current status is always a legal no-op.
func QuotationCanTransition(from, to string) bool {
	if from == QuotationStatusConverted {
		return false
	}
	if from == to {
		return true
	}
	for _, allowed := range quotationTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// QuotationRequest is an RFQ sent to a supplier. Once converted to a purchase
// order it becomes immutable.
type QuotationRequest struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	RequestNumber string          `json:"request_number" gorm:"type:varchar(50);uniqueIndex;not null"`
	SupplierID    uint            `json:"supplier_id" gorm:"index;not null"`
	Supplier      *Supplier       `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	RequestDate   time.Time       `json:"request_date"`
	Status        string          `json:"status" gorm:"type:varchar(20);not null;default:Draft"`
	Notes         string          `json:"notes" gorm:"type:text"`
	Items         []QuotationItem `json:"items,omitempty" gorm:"foreignKey:QuotationRequestID"`
	CreatedBy     uint            `json:"created_by" gorm:"index"`
	UpdatedBy     uint            `json:"updated_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// QuotationItem is owned exclusively by its QuotationRequest
type QuotationItem struct {
	ID                 uint            `json:"id" gorm:"primaryKey"`
	QuotationRequestID uint            `json:"quotation_request_id" gorm:"index;not null"`
	InventoryItemID    uint            `json:"inventory_item_id" gorm:"not null"`
	ItemName           string          `json:"item_name" gorm:"type:varchar(255)"`
	Quantity           int             `json:"quantity" gorm:"not null"`
	ExpectedPrice      decimal.Decimal `json:"expected_price" gorm:"type:decimal(12,2)"`
	Notes              string          `json:"notes" gorm:"type:text"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
