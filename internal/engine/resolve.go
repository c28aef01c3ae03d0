package engine

import (
	"math"

	"github.com/Simplici0/tradeassist/internal/catalog"
	"github.com/Simplici0/tradeassist/internal/pricing"
)

// Resolve returns the cost price of item and whether it could be determined.
//
// An item the store buys but does not sell costs its buy price. Otherwise
// the price comes from the memo, from the frozen sell price, or from the
// cheapest reachable recipe, falling back to the buy price when no recipe
// can be costed.
func (s *Session) Resolve(item catalog.ItemID) (Result, bool) {
	buyPrice, hasBuy := s.prices.BuyPrice(item)
	if _, sold := s.prices.SellPrice(item); hasBuy && !sold {
		return Result{Item: item, Price: buyPrice, Derivation: s.buyOrderNode(item, buyPrice)}, true
	}

	if e, ok := s.memo[item]; ok {
		return e.result, e.state == stateResolved
	}

	// Re-entrant lookups of item hit this placeholder until it is replaced.
	s.memo[item] = &memoEntry{
		state: stateInProgress,
		result: Result{
			Item:  item,
			Price: math.Inf(1),
			Derivation: &Derivation{
				Kind:   KindRecursive,
				Item:   item,
				Label:  s.catalog.Label(item),
				Reason: ReasonRecursive,
				Price:  math.Inf(1),
			},
		},
	}

	var res Result
	if s.config.IsFrozen(item) {
		res = s.resolveFrozen(item)
	} else {
		res = s.resolveRecipes(item, buyPrice, hasBuy)
	}

	state := stateResolved
	if !res.Resolved() {
		state = stateFailed
	}
	s.memo[item] = &memoEntry{state: state, result: res}
	return res, state == stateResolved
}

func (s *Session) resolveFrozen(item catalog.ItemID) Result {
	sell, ok := s.prices.SellPrice(item)
	if !ok {
		return Result{
			Item:  item,
			Price: math.Inf(1),
			Derivation: &Derivation{
				Kind:   KindUnresolved,
				Item:   item,
				Label:  s.catalog.Label(item),
				Reason: ReasonFrozenNotSold,
				Price:  math.Inf(1),
			},
		}
	}

	cost := pricing.CostPrice(sell, s.margins)
	return Result{
		Item:  item,
		Price: cost,
		Derivation: &Derivation{
			Kind:      KindFrozen,
			Item:      item,
			Label:     s.catalog.Label(item),
			SellPrice: sell,
			Margins:   s.marginsRef(),
			Price:     cost,
		},
	}
}

type pricedRecipe struct {
	candidate catalog.Candidate
	total     float64
	node      *Derivation
	warnings  []Warning
}

func (s *Session) resolveRecipes(item catalog.ItemID, buyPrice float64, hasBuy bool) Result {
	candidates := s.recipes.Producing(item)
	if len(candidates) == 0 {
		node := &Derivation{
			Kind:   KindUnresolved,
			Item:   item,
			Label:  s.catalog.Label(item),
			Reason: ReasonNoRecipe,
			Price:  math.Inf(1),
		}
		return s.withBuyFallback(item, node, buyPrice, hasBuy)
	}

	var (
		best     *pricedRecipe
		rejected []*pricedRecipe
		failed   []*Derivation
		warnings []Warning
	)
	for _, cand := range candidates {
		s.evaluations++
		priced, failure := s.evaluate(item, cand)
		if failure != nil {
			failed = append(failed, failure)
			continue
		}
		if priced == nil {
			continue
		}
		warnings = mergeWarnings(warnings, priced.warnings...)
		if best == nil || priced.total < best.total {
			if best != nil {
				rejected = append(rejected, best)
			}
			best = priced
		} else {
			rejected = append(rejected, priced)
		}
	}

	if best == nil {
		node := &Derivation{
			Kind:   KindUnresolved,
			Item:   item,
			Label:  s.catalog.Label(item),
			Reason: ReasonNoRecipePriced,
			Price:  math.Inf(1),
			Failed: failed,
		}
		return s.withBuyFallback(item, node, buyPrice, hasBuy)
	}

	for _, alt := range rejected {
		increase := math.Inf(1)
		if best.total > 0 {
			increase = alt.total/best.total - 1
		}
		alt.node.Alternative = true
		alt.node.IncreasePercent = increase
		best.node.Rejected = append(best.node.Rejected, alt.node)
		if increase > s.margins.ProfitRate() {
			warnings = mergeWarnings(warnings, Warning{
				Kind:            WarningLossRisk,
				Item:            item,
				Recipe:          alt.candidate.String(),
				IncreasePercent: increase,
				ProfitPercent:   s.margins.ProfitPercent,
			})
		}
	}
	best.node.Failed = failed

	chosen := best.candidate
	return Result{
		Item:       item,
		Price:      best.total,
		Derivation: best.node,
		Recipe:     &chosen,
		Warnings:   warnings,
	}
}

func (s *Session) withBuyFallback(item catalog.ItemID, node *Derivation, buyPrice float64, hasBuy bool) Result {
	if !hasBuy {
		return Result{Item: item, Price: math.Inf(1), Derivation: node}
	}
	node.Fallback = s.buyOrderNode(item, buyPrice)
	node.Price = buyPrice
	return Result{Item: item, Price: buyPrice, Derivation: node}
}

func (s *Session) buyOrderNode(item catalog.ItemID, price float64) *Derivation {
	return &Derivation{
		Kind:  KindBuyOrder,
		Item:  item,
		Label: s.catalog.Label(item),
		Price: price,
	}
}

func (s *Session) marginsRef() *pricing.Margins {
	m := s.margins
	return &m
}

// recipeContext carries what ingredient pricing needs to know about the
// recipe being costed.
type recipeContext struct {
	candidate catalog.Candidate
	batch     int
}

// evaluate costs a single candidate. It returns the priced recipe, or a
// failed-recipe node, or neither when the candidate is irrelevant to item.
func (s *Session) evaluate(item catalog.ItemID, cand catalog.Candidate) (*pricedRecipe, *Derivation) {
	v := cand.Variant
	fail := func(reason Reason, items ...catalog.ItemID) *Derivation {
		return &Derivation{
			Kind:   KindFailedRecipe,
			Item:   item,
			Label:  s.catalog.Label(item),
			Recipe: cand.String(),
			Reason: reason,
			Items:  items,
			Price:  math.Inf(1),
		}
	}

	mainIdx := 0
	if len(v.Products) > 1 {
		kept := make([]int, 0, len(v.Products))
		for i, p := range v.Products {
			if !s.config.IsByProduct(p.Item) {
				kept = append(kept, i)
			}
		}
		switch {
		case len(kept) == 0:
			return nil, fail(ReasonAllByProducts, productItems(v.Products, nil)...)
		case len(kept) > 1:
			return nil, fail(ReasonAmbiguousByProducts, productItems(v.Products, kept)...)
		}
		mainIdx = kept[0]
		if v.Products[mainIdx].Item != item {
			return nil, fail(ReasonNotMainProduct, v.Products[mainIdx].Item)
		}
	} else if len(v.Products) == 0 || v.Products[0].Item != item {
		return nil, nil
	}
	main := v.Products[mainIdx]

	node := &Derivation{
		Kind:   KindRecipe,
		Item:   item,
		Label:  s.catalog.Label(item),
		Recipe: cand.String(),
	}

	for i, p := range v.Products {
		if i == mainIdx {
			continue
		}
		sell, ok := s.prices.SellPrice(p.Item)
		if !ok {
			return nil, fail(ReasonMissingByProductPrice, p.Item)
		}
		cost := pricing.CostPrice(sell, s.margins)
		qty := p.Quantity.Value(cand.Efficiency)
		total := cost * qty
		node.ByProductsTotal += total
		node.Children = append(node.Children, &Derivation{
			Kind:      KindByProduct,
			Item:      p.Item,
			Label:     s.catalog.Label(p.Item),
			SellPrice: sell,
			Margins:   s.marginsRef(),
			UnitPrice: cost,
			Quantity:  qty,
			Price:     total,
		})
	}

	calories := s.recipes.LaborCalories(v)
	node.LaborCost = calories * s.config.LaborCostRate
	node.Children = append(node.Children, &Derivation{
		Kind:          KindLabor,
		Recipe:        cand.String(),
		LaborCalories: calories,
		LaborCostRate: s.config.LaborCostRate,
		Price:         node.LaborCost,
	})

	target, _ := s.catalog.Item(item)
	rc := recipeContext{candidate: cand, batch: target.BatchSize()}

	var (
		warnings []Warning
		missing  []catalog.ItemID
		why      []*Derivation
	)
	for _, ing := range v.Ingredients {
		ip := s.priceIngredient(rc, ing)
		if !ip.node.Resolved() {
			missing = append(missing, ip.node.Item)
			why = append(why, ip.node.Children...)
			continue
		}
		warnings = mergeWarnings(warnings, ip.warnings...)
		node.IngredientsTotal += ip.node.Price
		node.Children = append(node.Children, ip.node)
	}
	if len(missing) > 0 {
		f := fail(ReasonMissingIngredientPrice, missing...)
		f.Children = why
		return nil, f
	}

	node.ProductQuantity = catalog.BatchRound(main.Quantity.Value(cand.Efficiency), rc.batch)
	node.Price = (node.IngredientsTotal - node.ByProductsTotal + node.LaborCost) / node.ProductQuantity

	return &pricedRecipe{candidate: cand, total: node.Price, node: node, warnings: warnings}, nil
}

func productItems(products []catalog.Product, only []int) []catalog.ItemID {
	out := make([]catalog.ItemID, 0, len(products))
	if only == nil {
		for _, p := range products {
			out = append(out, p.Item)
		}
		return out
	}
	for _, i := range only {
		out = append(out, products[i].Item)
	}
	return out
}

type ingredientPrice struct {
	node     *Derivation
	warnings []Warning
}

// priceIngredient costs one ingredient requirement of the recipe in rc. A
// tagged requirement takes the cheapest resolvable tagged item, the first one
// in catalog order on ties.
func (s *Session) priceIngredient(rc recipeContext, ing catalog.Ingredient) ingredientPrice {
	options := []catalog.ItemID{ing.Item}
	if !ing.IsSpecificItem() {
		options = s.catalog.TaggedItems(ing.Tag)
	}

	var (
		chosen   Result
		found    bool
		firstBad Result
		hasBad   bool
	)
	for _, id := range options {
		res, ok := s.Resolve(id)
		if !ok {
			if !hasBad {
				firstBad, hasBad = res, true
			}
			continue
		}
		if !found || res.Price < chosen.Price {
			chosen, found = res, true
		}
	}

	raw := ing.Quantity.Value(rc.candidate.Efficiency)
	qty := catalog.BatchRound(raw, rc.batch)
	node := &Derivation{
		Kind:      KindIngredient,
		Tag:       ing.Tag,
		Quantity:  qty,
		BatchSize: rc.batch,
	}
	if qty != raw {
		node.RawQuantity = raw
	}

	if !found {
		node.Price = math.Inf(1)
		if hasBad {
			node.Item = firstBad.Item
			node.Label = s.catalog.Label(firstBad.Item)
			node.Children = []*Derivation{firstBad.Derivation}
		}
		return ingredientPrice{node: node}
	}

	node.Item = chosen.Item
	node.Label = s.catalog.Label(chosen.Item)
	node.UnitPrice = chosen.Price
	node.Price = chosen.Price * qty
	node.Children = []*Derivation{chosen.Derivation}
	return ingredientPrice{node: node, warnings: chosen.Warnings}
}
