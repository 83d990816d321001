package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document number prefixes
const (
	orderNumberKind     = "PO"
	quotationNumberKind = "RFQ"
)

// nextDocumentNumber produces the next human-readable document number for the
// current year, e.g. PO-2026-0007. The caller must invoke it inside the same
// transaction that inserts the new row so two writers cannot take the same
// number. Prefix matching is case-insensitive.
func nextDocumentNumber(tx *gorm.DB, tableModel interface{}, column, kind string, now time.Time) (string, error) {
	prefix := fmt.Sprintf("%s-%d-", kind, now.Year())

	var existing []string
	if err := tx.Model(tableModel).Pluck(column, &existing).Error; err != nil {
		return "", err
	}

	max := 0
	for _, number := range existing {
		if len(number) < len(prefix) || !strings.EqualFold(number[:len(prefix)], prefix) {
			continue
		}
		if n, err := strconv.Atoi(number[len(prefix):]); err == nil && n > max {
			max = n
		}
	}

	return fmt.Sprintf("%s%04d", prefix, max+1), nil
}

// lockForUpdate adds a row lock so read-modify-write of order totals and
// stock quantities serializes across connections. sqlite has no FOR UPDATE
// syntax and serializes writers on its own, so the clause is postgres only.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
