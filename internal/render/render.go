// Package render formats derivation trees, warnings and update reports as
// plain text.
package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Simplici0/tradeassist/internal/catalog"
	"github.com/Simplici0/tradeassist/internal/engine"
	"github.com/Simplici0/tradeassist/internal/pricing"
)

const indentUnit = "  "

// Labeler names items. *catalog.Catalog satisfies it.
type Labeler interface {
	Label(id catalog.ItemID) string
}

// Renderer writes text explanations. The zero Expand value renders collapsed
// trees: the root node and its direct parts only.
type Renderer struct {
	Labels Labeler
	Expand bool
}

var reasonText = map[engine.Reason]string{
	engine.ReasonNoRecipe:               "no recipe produces it and it is not bought",
	engine.ReasonNoRecipePriced:         "no recipe could be priced",
	engine.ReasonRecursive:              "depends on itself",
	engine.ReasonFrozenNotSold:          "frozen but not sold by the store",
	engine.ReasonMissingIngredientPrice: "missing ingredient price",
	engine.ReasonMissingByProductPrice:  "by-product is not sold by the store",
	engine.ReasonAmbiguousByProducts:    "several products are not configured as by-products",
	engine.ReasonAllByProducts:          "every product is configured as a by-product",
	engine.ReasonNotMainProduct:         "the main product is another item",
}

// Tree writes the derivation tree rooted at d.
func (r Renderer) Tree(w io.Writer, d *engine.Derivation) error {
	var b strings.Builder
	r.node(&b, d, 0)
	_, err := io.WriteString(w, b.String())
	return err
}

// TreeString is Tree into a string.
func (r Renderer) TreeString(d *engine.Derivation) string {
	var b strings.Builder
	r.node(&b, d, 0)
	return b.String()
}

func (r Renderer) node(b *strings.Builder, d *engine.Derivation, depth int) {
	if d == nil {
		return
	}
	b.WriteString(strings.Repeat(indentUnit, depth))
	b.WriteString(r.line(d))
	b.WriteByte('\n')

	if depth > 0 && !r.Expand {
		return
	}

	if d.Fallback != nil {
		r.node(b, d.Fallback, depth+1)
	}
	for _, c := range d.Children {
		r.node(b, c, depth+1)
	}
	for _, alt := range d.Rejected {
		r.node(b, alt, depth+1)
	}
	for _, f := range d.Failed {
		r.node(b, f, depth+1)
	}
}

func (r Renderer) line(d *engine.Derivation) string {
	switch d.Kind {
	case engine.KindBuyOrder:
		return fmt.Sprintf("%s: %s from the buy order", d.Label, money(d.Price))

	case engine.KindFrozen:
		return fmt.Sprintf("%s: %s from frozen sell price %s (%s)",
			d.Label, money(d.Price), money(d.SellPrice), margins(d.Margins))

	case engine.KindRecipe:
		prefix := d.Label + ": "
		if d.Alternative {
			prefix = "alternative: "
		}
		s := fmt.Sprintf("%s%s via %s = (ingredients %s - by-products %s + labor %s) / %s",
			prefix, money(d.Price), d.Recipe,
			money(d.IngredientsTotal), money(d.ByProductsTotal), money(d.LaborCost), number(d.ProductQuantity))
		if d.Alternative {
			s += " [" + comparison(d.IncreasePercent) + "]"
		}
		return s

	case engine.KindIngredient:
		s := fmt.Sprintf("%s x%s", r.ingredientName(d), number(d.Quantity))
		if d.RawQuantity != 0 {
			s += fmt.Sprintf(" (%s rounded up to batches of %d)", number(d.RawQuantity), d.BatchSize)
		}
		if !d.Resolved() {
			return s + ": no price"
		}
		return s + fmt.Sprintf(" @ %s = %s", money(d.UnitPrice), money(d.Price))

	case engine.KindByProduct:
		return fmt.Sprintf("by-product %s x%s @ %s = -%s (sell price %s, %s)",
			d.Label, number(d.Quantity), money(d.UnitPrice), money(d.Price), money(d.SellPrice), margins(d.Margins))

	case engine.KindLabor:
		return fmt.Sprintf("labor %s cal x %s = %s", number(d.LaborCalories), number(d.LaborCostRate), money(d.Price))

	case engine.KindUnresolved:
		if d.Fallback != nil {
			return fmt.Sprintf("%s: %s, %s, using the buy order", d.Label, money(d.Price), reasonText[d.Reason])
		}
		return fmt.Sprintf("%s: no price, %s", d.Label, reasonText[d.Reason])

	case engine.KindFailedRecipe:
		s := fmt.Sprintf("%s failed: %s", d.Recipe, reasonText[d.Reason])
		if len(d.Items) > 0 {
			s += " (" + r.items(d.Items) + ")"
		}
		return s

	case engine.KindRecursive:
		return fmt.Sprintf("%s: %s", d.Label, reasonText[engine.ReasonRecursive])
	}
	return string(d.Kind)
}

func (r Renderer) ingredientName(d *engine.Derivation) string {
	name := d.Label
	if name == "" {
		name = "?"
	}
	if d.Tag != "" {
		return fmt.Sprintf("%s [%s]", name, d.Tag)
	}
	return name
}

func (r Renderer) items(ids []catalog.ItemID) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, r.label(id))
	}
	return strings.Join(names, ", ")
}

func (r Renderer) label(id catalog.ItemID) string {
	if r.Labels == nil {
		return "item#" + strconv.Itoa(int(id))
	}
	return r.Labels.Label(id)
}

// Warnings writes one line per warning.
func (r Renderer) Warnings(w io.Writer, warnings []engine.Warning) error {
	for _, wn := range warnings {
		if _, err := fmt.Fprintln(w, r.warning(wn)); err != nil {
			return err
		}
	}
	return nil
}

func (r Renderer) warning(w engine.Warning) string {
	switch w.Kind {
	case engine.WarningLossRisk:
		if math.IsInf(w.IncreasePercent, 1) {
			return fmt.Sprintf("warning: %s is free via the selected recipe but costs more via %s, above the %s profit margin",
				r.label(w.Item), w.Recipe, percent(w.ProfitPercent/100))
		}
		return fmt.Sprintf("warning: %s costs %s more via %s, above the %s profit margin",
			r.label(w.Item), percent(w.IncreasePercent), w.Recipe, percent(w.ProfitPercent/100))
	}
	return fmt.Sprintf("warning: %s for %s", w.Kind, r.label(w.Item))
}

// Report writes the outcome of an update pass.
func (r Renderer) Report(w io.Writer, rep engine.Report) error {
	var b strings.Builder
	if rep.UpToDate() {
		b.WriteString("prices are up to date\n")
	}
	for _, c := range rep.Changes {
		fmt.Fprintf(&b, "%s %s: %s -> %s\n", c.Side, r.label(c.Item), money(c.OldPrice), money(c.NewPrice))
	}
	for _, d := range rep.Diagnostics {
		fmt.Fprintf(&b, "cannot price %s:\n", r.label(d.Item))
		sub := r
		sub.Expand = true
		sub.node(&b, d.Derivation, 1)
	}
	for _, wn := range rep.Warnings {
		b.WriteString(r.warning(wn))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Explanation writes the derivation of an item followed by its sell price
// breakdown and any warnings.
func (r Renderer) Explanation(w io.Writer, exp engine.Explanation, ok bool) error {
	var b strings.Builder
	r.node(&b, exp.Result.Derivation, 0)
	if ok {
		sell := exp.Sell
		fmt.Fprintf(&b, "sell price: %s = cost %s + margin %s + tax %s (%s)\n",
			money(sell.Totals.Rounded), money(sell.Breakdown.CostPrice),
			money(sell.Breakdown.Margin), money(sell.Breakdown.Tax), margins(&sell.Margins))
	}
	for _, wn := range exp.Result.Warnings {
		b.WriteString(r.warning(wn))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func comparison(increase float64) string {
	switch {
	case increase == 0:
		return "equal to the selected recipe's price"
	case math.IsInf(increase, 1):
		return "dearer than the free selected recipe"
	}
	return percent(increase) + " dearer"
}

func margins(m *pricing.Margins) string {
	if m == nil {
		return ""
	}
	return fmt.Sprintf("profit %s, tax %s", percent(m.ProfitPercent/100), percent(m.TaxRate))
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func percent(fraction float64) string {
	return strconv.FormatFloat(fraction*100, 'f', 1, 64) + "%"
}
