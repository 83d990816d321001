package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderCanTransition(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{OrderStatusPending, OrderStatusApproved, true},
		{OrderStatusPending, OrderStatusRejected, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPending, OrderStatusPaid, false},
		{OrderStatusApproved, OrderStatusPartiallyPaid, true},
		{OrderStatusApproved, OrderStatusPaid, true},
		{OrderStatusApproved, OrderStatusPending, true},
		{OrderStatusApproved, OrderStatusReceived, false},
		{OrderStatusPartiallyPaid, OrderStatusPaid, true},
		{OrderStatusPartiallyPaid, OrderStatusShipped, true},
		{OrderStatusPartiallyPaid, OrderStatusCompleted, true},
		{OrderStatusPaid, OrderStatusShipped, true},
		{OrderStatusPaid, OrderStatusCompleted, true},
		{OrderStatusPaid, OrderStatusPending, false},
		{OrderStatusShipped, OrderStatusReceived, true},
		{OrderStatusShipped, OrderStatusCompleted, true},
		{OrderStatusReceived, OrderStatusCompleted, true},
		{OrderStatusCompleted, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusShipped, false},
		{OrderStatusRejected, OrderStatusApproved, false},
		// Same-status edits are legal no-ops
		{OrderStatusPending, OrderStatusPending, true},
		{OrderStatusCompleted, OrderStatusCompleted, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, OrderCanTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestOrderAllowedStatuses(t *testing.T) {
	allowed := OrderAllowedStatuses(OrderStatusPending)
	assert.Equal(t, []string{OrderStatusPending, OrderStatusApproved, OrderStatusRejected}, allowed)

	terminal := OrderAllowedStatuses(OrderStatusCompleted)
	assert.Equal(t, []string{OrderStatusCompleted}, terminal)
}

func TestQuotationCanTransition(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{QuotationStatusDraft, QuotationStatusSent, true},
		{QuotationStatusDraft, QuotationStatusApproved, true},
		{QuotationStatusDraft, QuotationStatusRejected, true},
		{QuotationStatusDraft, QuotationStatusReceived, false},
		{QuotationStatusSent, QuotationStatusApproved, true},
		{QuotationStatusSent, QuotationStatusReceived, true},
		{QuotationStatusApproved, QuotationStatusReceived, true},
		{QuotationStatusApproved, QuotationStatusDraft, false},
		{QuotationStatusReceived, QuotationStatusSent, false},
		{QuotationStatusRejected, QuotationStatusDraft, false},
		// Converted accepts nothing, including itself
		{QuotationStatusConverted, QuotationStatusConverted, false},
		{QuotationStatusConverted, QuotationStatusSent, false},
		// Same-status edits are otherwise legal no-ops
		{QuotationStatusDraft, QuotationStatusDraft, true},
		{QuotationStatusRejected, QuotationStatusRejected, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, QuotationCanTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestValidPaymentMethod(t *testing.T) {
	for _, m := range PaymentMethods {
		assert.True(t, ValidPaymentMethod(m), m)
	}
	assert.False(t, ValidPaymentMethod("Barter"))
	assert.False(t, ValidPaymentMethod("cash"))
	assert.False(t, ValidPaymentMethod(""))
}
