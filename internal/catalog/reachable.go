package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownActor      = errors.New("unknown actor")
	ErrNoStations        = errors.New("no crafting stations in reach")
	ErrNothingCraftable  = errors.New("no recipe is craftable with the actor's skills")
	ErrUnknownStationRef = errors.New("unknown station")
)

// Candidate is a recipe variant runnable at a specific station.
type Candidate struct {
	Station    *Station
	Variant    *Variant
	Efficiency float64
}

// String names the candidate for derivations and logs.
func (c Candidate) String() string {
	return c.Variant.Name + " @ " + c.Station.Name
}

// StationItems lists what a station can craft for the actor.
type StationItems struct {
	Station string
	Items   []ItemID
}

// RecipeIndex is the set of recipes an actor can run from their reachable
// stations, indexed by product.
type RecipeIndex struct {
	catalog    *Catalog
	actor      Actor
	candidates []Candidate
	byProduct  map[ItemID][]int
	craftable  []StationItems
}

// Reachable builds the recipe index of an actor. The actor must reach at
// least one station and be able to craft at least one recipe there.
func (c *Catalog) Reachable(actorID int64) (*RecipeIndex, error) {
	actor, ok := c.actors[actorID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownActor, actorID)
	}
	if len(actor.Stations) == 0 {
		return nil, fmt.Errorf("actor %q: %w", actor.Name, ErrNoStations)
	}

	idx := &RecipeIndex{
		catalog:   c,
		actor:     actor,
		byProduct: make(map[ItemID][]int),
	}

	seen := make(map[string]bool, len(actor.Stations))
	for _, sid := range actor.Stations {
		if seen[sid] {
			continue
		}
		seen[sid] = true

		st, ok := c.station[sid]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStationRef, sid)
		}
		efficiency := st.ResourceEfficiency * actor.ResourceMultiplier

		var items []ItemID
		listed := make(map[ItemID]bool)
		for _, f := range st.Families {
			if !actor.Meets(f.RequiredSkills) {
				continue
			}
			for _, v := range f.Visible() {
				pos := len(idx.candidates)
				idx.candidates = append(idx.candidates, Candidate{Station: st, Variant: v, Efficiency: efficiency})
				for _, p := range v.Products {
					idx.byProduct[p.Item] = appendUnique(idx.byProduct[p.Item], pos)
					if !listed[p.Item] {
						listed[p.Item] = true
						items = append(items, p.Item)
					}
				}
			}
		}
		if len(items) > 0 {
			idx.craftable = append(idx.craftable, StationItems{Station: st.Name, Items: items})
		}
	}

	if len(idx.craftable) == 0 {
		return nil, fmt.Errorf("actor %q: %w", actor.Name, ErrNothingCraftable)
	}
	return idx, nil
}

func appendUnique(list []int, v int) []int {
	if n := len(list); n > 0 && list[n-1] == v {
		return list
	}
	return append(list, v)
}

// Catalog returns the catalog the index was built from.
func (x *RecipeIndex) Catalog() *Catalog {
	return x.catalog
}

// Actor returns the actor the index was built for.
func (x *RecipeIndex) Actor() Actor {
	return x.actor
}

// Producing returns every candidate with item among its products.
func (x *RecipeIndex) Producing(item ItemID) []Candidate {
	positions := x.byProduct[item]
	out := make([]Candidate, 0, len(positions))
	for _, p := range positions {
		out = append(out, x.candidates[p])
	}
	return out
}

// IsCraftable reports whether any reachable recipe produces item.
func (x *RecipeIndex) IsCraftable(item ItemID) bool {
	return len(x.byProduct[item]) > 0
}

// Craftable returns the craftable items grouped by station.
func (x *RecipeIndex) Craftable() []StationItems {
	return x.craftable
}

// LaborCalories returns the labor of a variant adjusted by the actor's modifiers.
func (x *RecipeIndex) LaborCalories(v *Variant) float64 {
	return v.Family.LaborCalories * x.actor.LaborMultiplier
}

// RequiredItems returns the distinct, non-hidden items any reachable recipe
// of product consumes, expanding tags.
func (x *RecipeIndex) RequiredItems(product ItemID) []ItemID {
	var out []ItemID
	seen := make(map[ItemID]bool)
	add := func(id ItemID) {
		if seen[id] {
			return
		}
		if it, ok := x.catalog.Item(id); ok && it.Hidden {
			return
		}
		seen[id] = true
		out = append(out, id)
	}
	for _, cand := range x.Producing(product) {
		for _, ing := range cand.Variant.Ingredients {
			if ing.IsSpecificItem() {
				add(ing.Item)
				continue
			}
			for _, id := range x.catalog.TaggedItems(ing.Tag) {
				add(id)
			}
		}
	}
	return out
}
