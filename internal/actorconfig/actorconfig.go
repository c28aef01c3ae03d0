// Package actorconfig stores the per-actor pricing preferences: target
// profit, labor cost and the by-product and frozen price item sets.
package actorconfig

import (
	"slices"

	"github.com/Simplici0/tradeassist/internal/catalog"
)

const (
	DefaultProfitPercent = 20
	// DefaultLaborCostRate is the currency cost of one calorie of labor.
	DefaultLaborCostRate = 0.001
	// MinProfitPercent is where profits at or below -100% are clamped on write.
	MinProfitPercent = -99
)

// Config is an actor's pricing configuration. It is treated as immutable for
// the duration of a pricing session.
type Config struct {
	ActorID          int64            `json:"actor_id"`
	ProfitPercent    float64          `json:"profit_percent"`
	LaborCostRate    float64          `json:"labor_cost_rate"`
	ByProducts       []catalog.ItemID `json:"by_products"`
	FrozenSellPrices []catalog.ItemID `json:"frozen_sell_prices"`
}

// Default returns the configuration a new actor starts with.
func Default(actorID int64) Config {
	return Config{
		ActorID:          actorID,
		ProfitPercent:    DefaultProfitPercent,
		LaborCostRate:    DefaultLaborCostRate,
		ByProducts:       []catalog.ItemID{},
		FrozenSellPrices: []catalog.ItemID{},
	}
}

// Normalize clamps the profit and removes duplicate item ids.
func (c Config) Normalize() Config {
	if c.ProfitPercent <= -100 {
		c.ProfitPercent = MinProfitPercent
	}
	if c.LaborCostRate < 0 {
		c.LaborCostRate = 0
	}
	c.ByProducts = dedupe(c.ByProducts)
	c.FrozenSellPrices = dedupe(c.FrozenSellPrices)
	return c
}

// IsByProduct reports whether item is marked as a by-product.
func (c Config) IsByProduct(item catalog.ItemID) bool {
	return slices.Contains(c.ByProducts, item)
}

// IsFrozen reports whether item has a frozen sell price.
func (c Config) IsFrozen(item catalog.ItemID) bool {
	return slices.Contains(c.FrozenSellPrices, item)
}

func dedupe(ids []catalog.ItemID) []catalog.ItemID {
	out := make([]catalog.ItemID, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
