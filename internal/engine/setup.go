package engine

import (
	"github.com/Simplici0/tradeassist/internal/catalog"
	"github.com/Simplici0/tradeassist/internal/store"
)

const (
	// PlaceholderSellPrice is set on new sell orders until the first update pass.
	PlaceholderSellPrice = 999999
	ingredientsCategory  = "Ingredients"
)

// SetupSell adds a sell order for every item the actor can craft that the
// store does not sell yet. Orders are grouped under their station's name.
func SetupSell(recipes *catalog.RecipeIndex, s *store.Store) []catalog.ItemID {
	var added []catalog.ItemID
	seen := make(map[catalog.ItemID]bool)
	for _, group := range recipes.Craftable() {
		for _, id := range group.Items {
			if seen[id] || s.Lists(store.Sell, id) {
				continue
			}
			seen[id] = true
			s.AddOrder(store.Sell, id, PlaceholderSellPrice, 0, group.Station)
			added = append(added, id)
		}
	}
	return added
}

// SetupBuy adds a buy order for every raw ingredient needed to craft the
// store's sold products, walking through intermediate products the actor can
// craft. New buy orders start at price 0 with a limit of 1.
func SetupBuy(recipes *catalog.RecipeIndex, s *store.Store) []catalog.ItemID {
	var queue []catalog.ItemID
	for _, group := range recipes.Craftable() {
		for _, id := range group.Items {
			if s.Lists(store.Sell, id) {
				queue = append(queue, id)
			}
		}
	}

	var toBuy []catalog.ItemID
	done := make(map[catalog.ItemID]bool)
	listed := make(map[catalog.ItemID]bool)
	for len(queue) > 0 {
		product := queue[0]
		queue = queue[1:]
		if done[product] {
			continue
		}
		done[product] = true

		for _, id := range recipes.RequiredItems(product) {
			if recipes.IsCraftable(id) {
				queue = append(queue, id)
				continue
			}
			if listed[id] || s.Lists(store.Buy, id) {
				continue
			}
			listed[id] = true
			toBuy = append(toBuy, id)
		}
	}

	for _, id := range toBuy {
		s.AddOrder(store.Buy, id, 0, 1, ingredientsCategory)
	}
	return toBuy
}
