package engine

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/Simplici0/tradeassist/internal/catalog"
	"github.com/Simplici0/tradeassist/internal/pricing"
)

// Kind classifies a derivation node.
type Kind string

const (
	KindBuyOrder     Kind = "buy-order"
	KindFrozen       Kind = "frozen"
	KindRecipe       Kind = "recipe"
	KindIngredient   Kind = "ingredient"
	KindByProduct    Kind = "by-product"
	KindLabor        Kind = "labor"
	KindUnresolved   Kind = "unresolved"
	KindFailedRecipe Kind = "failed-recipe"
	KindRecursive    Kind = "recursive"
)

// Reason explains why an item or a recipe could not be priced.
type Reason string

const (
	ReasonNoRecipe               Reason = "no-recipe"
	ReasonNoRecipePriced         Reason = "no-recipe-priced"
	ReasonRecursive              Reason = "recursive"
	ReasonFrozenNotSold          Reason = "frozen-not-sold"
	ReasonMissingIngredientPrice Reason = "missing-ingredient-price"
	ReasonMissingByProductPrice  Reason = "missing-by-product-price"
	ReasonAmbiguousByProducts    Reason = "ambiguous-by-products"
	ReasonAllByProducts          Reason = "all-by-products"
	ReasonNotMainProduct         Reason = "not-main-product"
)

// Derivation is one node of the audit trail behind a cost price. Which fields
// are set depends on Kind; Price is always the value the node contributes
// (+Inf when it could not be determined).
type Derivation struct {
	Kind   Kind             `json:"kind"`
	Item   catalog.ItemID   `json:"item,omitempty"`
	Label  string           `json:"label,omitempty"`
	Recipe string           `json:"recipe,omitempty"`
	Tag    string           `json:"tag,omitempty"`
	Reason Reason           `json:"reason,omitempty"`
	Items  []catalog.ItemID `json:"items,omitempty"`

	Price float64 `json:"price"`

	// Ingredient and by-product amounts.
	Quantity    float64 `json:"quantity,omitempty"`
	RawQuantity float64 `json:"raw_quantity,omitempty"`
	BatchSize   int     `json:"batch_size,omitempty"`
	UnitPrice   float64 `json:"unit_price,omitempty"`

	// Sell price inversion for frozen items and by-products.
	SellPrice float64          `json:"sell_price,omitempty"`
	Margins   *pricing.Margins `json:"margins,omitempty"`

	LaborCalories float64 `json:"labor_calories,omitempty"`
	LaborCostRate float64 `json:"labor_cost_rate,omitempty"`

	// Recipe formula terms.
	IngredientsTotal float64 `json:"ingredients_total,omitempty"`
	ByProductsTotal  float64 `json:"by_products_total,omitempty"`
	LaborCost        float64 `json:"labor_cost,omitempty"`
	ProductQuantity  float64 `json:"product_quantity,omitempty"`

	// Alternative marks a priced recipe that lost to the selected one.
	// IncreasePercent is how much dearer it is, as a fraction; +Inf when the
	// selected recipe is free.
	Alternative     bool    `json:"alternative,omitempty"`
	IncreasePercent float64 `json:"increase_percent,omitempty"`

	Fallback *Derivation   `json:"fallback,omitempty"`
	Children []*Derivation `json:"children,omitempty"`
	Rejected []*Derivation `json:"rejected,omitempty"`
	Failed   []*Derivation `json:"failed,omitempty"`
}

// Resolved reports whether the node carries a finite price.
func (d *Derivation) Resolved() bool {
	return !math.IsInf(d.Price, 0)
}

// MarshalJSON encodes infinite values as null.
func (d *Derivation) MarshalJSON() ([]byte, error) {
	type plain Derivation
	out := struct {
		*plain
		Price           *float64 `json:"price"`
		IncreasePercent *float64 `json:"increase_percent,omitempty"`
	}{plain: (*plain)(d)}
	out.Price = finite(d.Price)
	if d.Alternative {
		out.IncreasePercent = finite(d.IncreasePercent)
	}
	return json.Marshal(out)
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// WarningKind classifies a warning.
type WarningKind string

const (
	// WarningLossRisk flags an alternative recipe that is dearer than the
	// configured profit can absorb.
	WarningLossRisk WarningKind = "loss-risk"
)

// Warning is a risk found while pricing an item.
type Warning struct {
	Kind            WarningKind    `json:"kind"`
	Item            catalog.ItemID `json:"item"`
	Recipe          string         `json:"recipe"`
	IncreasePercent float64        `json:"increase_percent"`
	ProfitPercent   float64        `json:"profit_percent"`
}

// MarshalJSON encodes an unbounded increase as null.
func (w Warning) MarshalJSON() ([]byte, error) {
	type plain Warning
	return json.Marshal(struct {
		plain
		IncreasePercent *float64 `json:"increase_percent"`
	}{plain: plain(w), IncreasePercent: finite(w.IncreasePercent)})
}

func (w Warning) key() string {
	return fmt.Sprintf("%s|%d|%s", w.Kind, w.Item, w.Recipe)
}

func mergeWarnings(dst []Warning, src ...Warning) []Warning {
	seen := make(map[string]bool, len(dst))
	for _, w := range dst {
		seen[w.key()] = true
	}
	for _, w := range src {
		if seen[w.key()] {
			continue
		}
		seen[w.key()] = true
		dst = append(dst, w)
	}
	return dst
}
