// Package calculator holds the pure payment arithmetic of billpay: item
// status classification and the allocation of one payment across selected
// bill items. Nothing here performs I/O.
package calculator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billpay/internal/models"
)

var (
	ErrInvalidAmount         = errors.New("payment amount must be positive")
	ErrInsufficientSelection = errors.New("no unpaid items selected")
	ErrUnknownItem           = errors.New("selected item not found")
	ErrAmountExceedsDue      = errors.New("payment amount exceeds the remaining due")
)

// partition is the eligible part of the selection for one consommation.
type partition struct {
	consommationID string
	items          []models.BillItem
	totalDue       decimal.Decimal
}

// Allocate distributes amount over the selected items and returns one payment
// request per consommation that receives money.
//
// Algorithm:
//   - Group the selection by consommation, keeping first-seen order
//   - Each consommation takes min(budget left, its total due); the rest
//     carries to the next consommation
//   - Inside a consommation, items are paid cheapest remaining first
//   - An item whose remaining cost is covered is paid in full. Otherwise as
//     many whole units as the budget buys are paid, or, when not even one unit
//     fits (or only one unit is left), one unit is marked paid and the
//     consommation budget is exhausted
//
// itemsByID should hold the merged server and cache view of every selected
// item. Validation happens before anything is allocated, so an error means no
// request was produced.
func Allocate(amount decimal.Decimal, selection []models.Selection, itemsByID map[string]models.BillItem) ([]models.PaymentRequest, error) {
	if len(selection) == 0 {
		return nil, ErrInsufficientSelection
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	partitions, err := partitionSelection(selection, itemsByID)
	if err != nil {
		return nil, err
	}

	totalDue := decimal.Zero
	for _, p := range partitions {
		totalDue = totalDue.Add(p.totalDue)
	}
	if !totalDue.IsPositive() {
		return nil, ErrInsufficientSelection
	}
	if amount.GreaterThan(totalDue) {
		return nil, fmt.Errorf("%w: amount %s, due %s", ErrAmountExceedsDue, amount.StringFixed(2), totalDue.StringFixed(2))
	}

	budget := amount
	var requests []models.PaymentRequest
	for _, p := range partitions {
		if !budget.IsPositive() {
			break
		}
		share := decimal.Min(budget, p.totalDue)
		if !share.IsPositive() {
			continue
		}
		requests = append(requests, allocateConsommation(p, share))
		budget = budget.Sub(share)
	}

	return requests, nil
}

// partitionSelection groups eligible selected items by consommation.
// Duplicate selections of the same item are ignored.
func partitionSelection(selection []models.Selection, itemsByID map[string]models.BillItem) ([]*partition, error) {
	var ordered []*partition
	byConsommation := make(map[string]*partition)
	seen := make(map[string]bool, len(selection))

	for _, sel := range selection {
		item, ok := itemsByID[sel.ItemID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownItem, sel.ItemID)
		}

		p, exists := byConsommation[sel.ConsommationID]
		if !exists {
			p = &partition{consommationID: sel.ConsommationID, totalDue: decimal.Zero}
			byConsommation[sel.ConsommationID] = p
			ordered = append(ordered, p)
		}

		if seen[sel.ItemID] {
			continue
		}
		seen[sel.ItemID] = true

		if !eligible(item) {
			continue
		}
		p.items = append(p.items, item)
		p.totalDue = p.totalDue.Add(item.Remaining())
	}

	return ordered, nil
}

// allocateConsommation spends budget on the partition's items, cheapest
// remaining first. budget never exceeds the partition's total due.
func allocateConsommation(p *partition, budget decimal.Decimal) models.PaymentRequest {
	items := make([]models.BillItem, len(p.items))
	copy(items, p.items)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Remaining().LessThan(items[j].Remaining())
	})

	req := models.PaymentRequest{
		ConsommationID: p.consommationID,
		Amount:         budget,
	}

	for _, item := range items {
		if !budget.IsPositive() {
			break
		}

		remaining := item.Remaining()
		if budget.GreaterThanOrEqual(remaining) {
			req.Items = append(req.Items, models.PaidItem{
				ItemID:        item.ID,
				PaidQuantity:  item.Quantity,
				AppliedAmount: remaining,
			})
			budget = budget.Sub(remaining)
			continue
		}

		if units := wholeUnits(budget, item); units > 0 {
			cost := item.UnitPrice.Mul(decimal.NewFromInt(units))
			req.Items = append(req.Items, models.PaidItem{
				ItemID:        item.ID,
				PaidQuantity:  int(units),
				AppliedAmount: cost,
			})
			budget = budget.Sub(cost)
			continue
		}

		// Less than one unit left for this item: the unit is marked paid and
		// the rest of the consommation gets nothing more.
		req.Items = append(req.Items, models.PaidItem{
			ItemID:        item.ID,
			PaidQuantity:  1,
			AppliedAmount: budget,
		})
		budget = decimal.Zero
	}

	return req
}

// wholeUnits returns how many whole units of item the budget buys, or 0 when
// the item is a single unit or is free.
func wholeUnits(budget decimal.Decimal, item models.BillItem) int64 {
	if item.Quantity <= 1 || !item.UnitPrice.IsPositive() {
		return 0
	}
	units, _ := budget.QuoRem(item.UnitPrice, 0)
	return units.IntPart()
}

// SumAmounts returns the total money carried by requests.
func SumAmounts(requests []models.PaymentRequest) decimal.Decimal {
	total := decimal.Zero
	for _, r := range requests {
		total = total.Add(r.Amount)
	}
	return total
}
