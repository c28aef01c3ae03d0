package engine

import (
	"slices"

	"github.com/Simplici0/tradeassist/internal/catalog"
	"github.com/Simplici0/tradeassist/internal/pricing"
	"github.com/Simplici0/tradeassist/internal/store"
)

// Change records one order whose price was rewritten.
type Change struct {
	OrderID  int64          `json:"order_id"`
	Item     catalog.ItemID `json:"item"`
	Side     store.Side     `json:"side"`
	OldPrice float64        `json:"old_price"`
	NewPrice float64        `json:"new_price"`
}

// Diagnostic explains why a sold, craftable item could not be priced.
type Diagnostic struct {
	Item       catalog.ItemID `json:"item"`
	Derivation *Derivation    `json:"derivation"`
}

// Report is the outcome of an update pass.
type Report struct {
	Changes     []Change     `json:"changes"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Warnings    []Warning    `json:"warnings"`
}

// UpToDate reports whether the pass changed nothing and found no problems.
func (r Report) UpToDate() bool {
	return len(r.Changes) == 0 && len(r.Diagnostics) == 0
}

// UpdateStorePrices reprices every sold item of the store, and every bought
// item that the store also sells.
func (s *Session) UpdateStorePrices() Report {
	var buyItems []catalog.ItemID
	for _, id := range s.store.Items(store.Buy) {
		if s.store.Lists(store.Sell, id) {
			buyItems = append(buyItems, id)
		}
	}
	return s.UpdatePrices(s.store.Items(store.Sell), buyItems)
}

// UpdatePrices writes sell prices for sellItems and buy prices for buyItems.
// Configured by-products are settled first so that the recipes crediting
// them see their final store prices.
func (s *Session) UpdatePrices(sellItems, buyItems []catalog.ItemID) Report {
	report := Report{
		Changes:     []Change{},
		Diagnostics: []Diagnostic{},
		Warnings:    []Warning{},
	}

	var byProducts, others []catalog.ItemID
	for _, item := range sellItems {
		if s.config.IsByProduct(item) {
			byProducts = append(byProducts, item)
		} else {
			others = append(others, item)
		}
	}

	s.settleByProducts(byProducts, &report)

	for _, item := range others {
		res, ok := s.Resolve(item)
		if ok {
			price := pricing.Round(pricing.SellPrice(res.Price, s.margins))
			report.Changes = append(report.Changes, s.setPrice(store.Sell, item, price)...)
			report.Warnings = mergeWarnings(report.Warnings, res.Warnings...)
			continue
		}
		if s.recipes.IsCraftable(item) {
			report.Diagnostics = append(report.Diagnostics, Diagnostic{Item: item, Derivation: res.Derivation})
		}
	}

	for _, item := range buyItems {
		if res, ok := s.Resolve(item); ok {
			report.Changes = append(report.Changes, s.setPrice(store.Buy, item, pricing.Round(res.Price))...)
		}
	}

	return report
}

// settleByProducts reprices the by-products until a sweep moves no price.
// The cost of one by-product can credit another, so every sweep after a
// change starts from an empty memo. Changes are reported once per order,
// from the price before the first sweep to the settled one.
func (s *Session) settleByProducts(items []catalog.ItemID, report *Report) {
	if len(items) == 0 {
		return
	}

	before := make(map[*store.Order]float64)
	for _, o := range s.store.Orders(store.Sell) {
		if slices.Contains(items, o.ItemID) {
			before[o] = o.Price
		}
	}

	var warnings []Warning
	for sweep := 0; sweep <= len(items); sweep++ {
		warnings = warnings[:0]
		moved := false
		for _, item := range items {
			res, ok := s.Resolve(item)
			if !ok {
				continue
			}
			price := pricing.Round(pricing.SellPrice(res.Price, s.margins))
			if len(s.setPrice(store.Sell, item, price)) > 0 {
				moved = true
			}
			warnings = mergeWarnings(warnings, res.Warnings...)
		}
		if !moved {
			break
		}
		s.forget()
	}
	report.Warnings = mergeWarnings(report.Warnings, warnings...)

	for _, o := range s.store.Orders(store.Sell) {
		old, ok := before[o]
		if !ok || old == o.Price {
			continue
		}
		report.Changes = append(report.Changes, Change{
			OrderID:  o.ID,
			Item:     o.ItemID,
			Side:     store.Sell,
			OldPrice: old,
			NewPrice: o.Price,
		})
	}
}

func (s *Session) setPrice(side store.Side, item catalog.ItemID, price float64) []Change {
	if side == store.Buy {
		s.prices.SetBuyPrice(item, price)
	} else {
		s.prices.SetSellPrice(item, price)
	}

	var changes []Change
	for _, o := range s.store.Orders(side) {
		if o.ItemID != item || o.Price == price {
			continue
		}
		changes = append(changes, Change{
			OrderID:  o.ID,
			Item:     item,
			Side:     side,
			OldPrice: o.Price,
			NewPrice: price,
		})
		o.Price = price
	}
	return changes
}

// Explanation is the full story behind an item's sell price.
type Explanation struct {
	Result Result
	Sell   pricing.Result
}

// Explain resolves item and breaks its sell price down. The second return
// value is false when no cost price could be determined.
func (s *Session) Explain(item catalog.ItemID) (Explanation, bool) {
	res, ok := s.Resolve(item)
	if !ok {
		return Explanation{Result: res}, false
	}
	return Explanation{Result: res, Sell: pricing.Calculate(res.Price, s.margins)}, true
}
