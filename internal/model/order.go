package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier order statuses
const (
	OrderStatusPending       = "Pending"
	OrderStatusApproved      = "Approved"
	OrderStatusPartiallyPaid = "Partially Paid"
	OrderStatusPaid          = "Paid"
	OrderStatusShipped       = "Shipped"
	OrderStatusReceived      = "Received"
	OrderStatusCompleted     = "Completed"
	OrderStatusRejected      = "Rejected"
)

// Payment methods
const (
	PaymentMethodCash         = "Cash"
	PaymentMethodBankTransfer = "Bank Transfer"
	PaymentMethodCheck        = "Check"
	PaymentMethodGCash        = "GCash"
	PaymentMethodCreditCard   = "Credit Card"
	PaymentMethodOther        = "Other"
)

// PaymentMethods lists every accepted payment method. "Other" carries a
// free-form detail (Crypto, Coins.ph, PayPal, ...).
var PaymentMethods = []string{
	PaymentMethodCash,
	PaymentMethodBankTransfer,
	PaymentMethodCheck,
	PaymentMethodGCash,
	PaymentMethodCreditCard,
	PaymentMethodOther,
}

// ValidPaymentMethod reports whether m is an accepted payment method
func ValidPaymentMethod(m string) bool {
	for _, v := range PaymentMethods {
		if v == m {
			return true
		}
	}
	return false
}

// orderTransitions is the per-status allow-list. Completed and Rejected have
// no outgoing transitions. Received is normally reached through the
// receive-items action but remains a legal edit from Shipped.
var orderTransitions = map[string][]string{
	OrderStatusPending:       {OrderStatusApproved, OrderStatusRejected},
	OrderStatusApproved:      {OrderStatusPartiallyPaid, OrderStatusPaid, OrderStatusPending},
	OrderStatusPartiallyPaid: {OrderStatusPaid, OrderStatusShipped, OrderStatusCompleted},
	OrderStatusPaid:          {OrderStatusShipped, OrderStatusCompleted},
	OrderStatusShipped:       {OrderStatusReceived, OrderStatusCompleted},
	OrderStatusReceived:      {OrderStatusCompleted},
	OrderStatusCompleted:     {},
	OrderStatusRejected:      {},
}

// OrderCanTransition reports whether a status change is allowed. The current
// status is always a legal no-op.
func OrderCanTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// OrderAllowedStatuses returns the legal next values from a status,
// including the status itself.
func OrderAllowedStatuses(from string) []string {
	return append([]string{from}, orderTransitions[from]...)
}

// SupplierOrder is a purchase order, created directly or by converting a
// quotation request. remaining_amount always equals total minus paid; both
// are rewritten under a row lock on every payment.
type SupplierOrder struct {
	ID              uint                `json:"id" gorm:"primaryKey"`
	OrderNumber     string              `json:"order_number" gorm:"type:varchar(50);uniqueIndex;not null"`
	SupplierID      uint                `json:"supplier_id" gorm:"index;not null"`
	Supplier        *Supplier           `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	OrderDate       time.Time           `json:"order_date"`
	Status          string              `json:"status" gorm:"type:varchar(20);not null;default:Pending"`
	TotalAmount     decimal.Decimal     `json:"total_amount" gorm:"type:decimal(12,2)"`
	PaidAmount      decimal.Decimal     `json:"paid_amount" gorm:"type:decimal(12,2)"`
	RemainingAmount decimal.Decimal     `json:"remaining_amount" gorm:"type:decimal(12,2)"`
	PaymentPlan     string              `json:"payment_plan" gorm:"type:text"`
	Notes           string              `json:"notes" gorm:"type:text"`
	QuotationID     *uint               `json:"quotation_id" gorm:"index"`
	Items           []SupplierOrderItem `json:"items,omitempty" gorm:"foreignKey:SupplierOrderID"`
	Payments        []OrderPayment      `json:"payments,omitempty" gorm:"foreignKey:SupplierOrderID"`
	CreatedBy       uint                `json:"created_by" gorm:"index"`
	UpdatedBy       uint                `json:"updated_by"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// SupplierOrderItem is owned exclusively by its SupplierOrder.
// StockedQuantity counts units already released to inventory for this line;
// it never exceeds Quantity, which is what makes stock-in re-triggering safe.
type SupplierOrderItem struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	SupplierOrderID uint            `json:"supplier_order_id" gorm:"index;not null"`
	InventoryItemID uint            `json:"inventory_item_id" gorm:"not null"`
	ItemName        string          `json:"item_name" gorm:"type:varchar(255)"`
	ItemType        string          `json:"item_type" gorm:"type:varchar(50)"`
	Quantity        int             `json:"quantity" gorm:"not null"`
	UnitPrice       decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2)"`
	TotalPrice      decimal.Decimal `json:"total_price" gorm:"type:decimal(12,2)"`
	StockedQuantity int             `json:"stocked_quantity" gorm:"not null;default:0"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderPayment is append-only once created; only the order's derived totals
// and status change afterwards.
type OrderPayment struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	SupplierOrderID uint            `json:"supplier_order_id" gorm:"index;not null"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	PaymentDate     time.Time       `json:"payment_date"`
	Method          string          `json:"method" gorm:"type:varchar(30);not null"`
	MethodDetail    string          `json:"method_detail" gorm:"type:varchar(50)"`
	PaymentCode     string          `json:"payment_code" gorm:"type:varchar(100)"`
	Notes           string          `json:"notes" gorm:"type:text"`
	CreatedBy       uint            `json:"created_by" gorm:"index"`
	CreatedAt       time.Time       `json:"created_at"`
}
