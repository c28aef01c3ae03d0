// Package catalog holds the read-only world data the pricing engine works on:
// items and their tags, recipe families, crafting stations and the actors that
// can reach them.
package catalog

import (
	"fmt"
	"math"
	"strings"
)

// ItemID is the stable type id of an item.
type ItemID int

// Batch sizes used when rounding recipe quantities up to whole crafts.
const (
	WorldObjectBatch = 1
	ToolBatch        = 5
)

// Item is an entry of the item registry.
type Item struct {
	ID          ItemID
	Name        string
	DisplayName string
	Tags        []string
	WorldObject bool
	Tool        bool
	Hidden      bool
}

// Label returns the name shown to players.
func (i Item) Label() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Name
}

// BatchSize returns how many units of the item are crafted at a time, or 0
// when crafting is not capped.
func (i Item) BatchSize() int {
	switch {
	case i.WorldObject:
		return WorldObjectBatch
	case i.Tool:
		return ToolBatch
	default:
		return 0
	}
}

// Quantity is an amount of a recipe element. Non-static amounts scale with
// resource efficiency.
type Quantity struct {
	Amount float64
	Static bool
}

// Value returns the amount after applying the efficiency multiplier.
func (q Quantity) Value(efficiency float64) float64 {
	if q.Static || efficiency <= 0 {
		return q.Amount
	}
	return q.Amount * efficiency
}

// BatchRound rounds v up to the next whole batch and returns the per unit
// share. A batch of 0 leaves v unchanged.
func BatchRound(v float64, batch int) float64 {
	if batch <= 0 {
		return v
	}
	b := float64(batch)
	return math.Ceil(v*b-1e-9) / b
}

// Ingredient is a recipe input: either a specific item or any item carrying Tag.
type Ingredient struct {
	Item     ItemID
	Tag      string
	Quantity Quantity
}

// IsSpecificItem reports whether the ingredient names a single item.
func (i Ingredient) IsSpecificItem() bool {
	return i.Tag == ""
}

// Product is a recipe output.
type Product struct {
	Item     ItemID
	Quantity Quantity
}

// SkillRequirement gates a recipe family behind a skill level.
type SkillRequirement struct {
	Skill string
	Level int
}

// Family is a group of recipe variants sharing labor and skill requirements.
type Family struct {
	ID               string
	Name             string
	LaborCalories    float64
	CraftableDefault bool
	RequiredSkills   []SkillRequirement
	Variants         []*Variant
}

// Visible returns the variants an eligible actor can craft. When the default
// variant is not craftable it is skipped.
func (f *Family) Visible() []*Variant {
	if f.CraftableDefault || len(f.Variants) == 0 {
		return f.Variants
	}
	return f.Variants[1:]
}

// Variant is one way of executing a recipe family.
type Variant struct {
	ID          string
	Name        string
	Family      *Family
	Ingredients []Ingredient
	Products    []Product
}

// Produces reports whether item is one of the variant's outputs.
func (v *Variant) Produces(item ItemID) bool {
	for _, p := range v.Products {
		if p.Item == item {
			return true
		}
	}
	return false
}

// Station is a crafting table with the families it can run.
type Station struct {
	ID                 string
	Name               string
	ResourceEfficiency float64
	Families           []*Family
}

// Actor is a player whose reachable stations, skills and modifiers are known.
type Actor struct {
	ID                 int64
	Name               string
	Skills             map[string]int
	LaborMultiplier    float64
	ResourceMultiplier float64
	Stations           []string
}

// Meets reports whether the actor satisfies every requirement.
func (a Actor) Meets(reqs []SkillRequirement) bool {
	for _, r := range reqs {
		if a.Skills[r.Skill] < r.Level {
			return false
		}
	}
	return true
}

// Catalog is the immutable world data. It is safe for concurrent reads.
type Catalog struct {
	items    []Item
	byID     map[ItemID]int
	byName   map[string]ItemID
	tagged   map[string][]ItemID
	families []*Family
	stations []*Station
	station  map[string]*Station
	actors   map[int64]Actor
	actorIDs []int64
}

// Items returns all items in catalog order.
func (c *Catalog) Items() []Item {
	return c.items
}

// Item returns the item with the given id.
func (c *Catalog) Item(id ItemID) (Item, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Item{}, false
	}
	return c.items[idx], true
}

// Label returns the display label of id, falling back to the numeric id.
func (c *Catalog) Label(id ItemID) string {
	if it, ok := c.Item(id); ok {
		return it.Label()
	}
	return fmt.Sprintf("item#%d", id)
}

// ItemByName looks an item up by its exact name, ignoring case.
func (c *Catalog) ItemByName(name string) (Item, bool) {
	id, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Item{}, false
	}
	return c.Item(id)
}

// TaggedItems returns the items carrying tag, in catalog order.
func (c *Catalog) TaggedItems(tag string) []ItemID {
	return c.tagged[tag]
}

// Station returns the station with the given id.
func (c *Catalog) Station(id string) (*Station, bool) {
	s, ok := c.station[id]
	return s, ok
}

// Actors returns all actors in catalog order.
func (c *Catalog) Actors() []Actor {
	out := make([]Actor, 0, len(c.actorIDs))
	for _, id := range c.actorIDs {
		out = append(out, c.actors[id])
	}
	return out
}

// Actor returns the actor with the given id.
func (c *Catalog) Actor(id int64) (Actor, bool) {
	a, ok := c.actors[id]
	return a, ok
}
