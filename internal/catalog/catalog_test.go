package catalog

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testWorld = `
items:
  - {id: 1, name: Wood, tags: [Wood]}
  - {id: 2, name: Birch Log, tags: [Wood]}
  - {id: 3, name: Plank}
  - {id: 4, name: Sawdust, hidden: true}
  - {id: 5, name: Chair, world_object: true}
  - {id: 6, name: Saw, tool: true}
families:
  - id: plank
    name: Plank
    labor_calories: 100
    variants:
      - id: plank
        ingredients: [{tag: Wood, amount: 2}]
        products: [{item: Plank, amount: 1, static: true}, {item: Sawdust, amount: 1, static: true}]
  - id: chair
    name: Chair
    labor_calories: 50
    required_skills: [{skill: Carpentry, level: 2}]
    variants:
      - id: chair
        ingredients: [{item: Plank, amount: 4}]
        products: [{item: Chair, amount: 1, static: true}]
  - id: saw
    name: Saw
    craftable_default: false
    variants:
      - id: saw-basic
        products: [{item: Saw, amount: 1}]
      - id: saw-advanced
        name: Advanced Saw
        ingredients: [{item: Plank, amount: 1, static: true}]
        products: [{item: Saw, amount: 1}]
stations:
  - {id: sawmill, name: Sawmill, resource_efficiency: 0.8, families: [plank, saw]}
  - {id: bench, name: Carpentry Bench, families: [chair]}
actors:
  - {id: 1, name: alice, skills: {Carpentry: 1}, labor_multiplier: 0.5, stations: [sawmill, bench, sawmill]}
  - {id: 2, name: bob, skills: {Carpentry: 3}, stations: [bench]}
  - {id: 3, name: carol, stations: []}
  - {id: 4, name: dave, stations: [bench]}
`

func mustParse(t *testing.T, raw string) *Catalog {
	t.Helper()
	c, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return c
}

func TestParse_IndexesItemsAndTags(t *testing.T) {
	c := mustParse(t, testWorld)

	if len(c.Items()) != 6 {
		t.Fatalf("expected 6 items, got %d", len(c.Items()))
	}
	wood := c.TaggedItems("Wood")
	if len(wood) != 2 || wood[0] != 1 || wood[1] != 2 {
		t.Fatalf("expected tagged items in catalog order [1 2], got %v", wood)
	}
	plank, ok := c.ItemByName("  PLANK ")
	if !ok || plank.ID != 3 {
		t.Fatalf("expected case-insensitive lookup of Plank, got %+v ok=%v", plank, ok)
	}
	if got := c.Label(99); got != "item#99" {
		t.Fatalf("unexpected label for unknown item: %q", got)
	}
	actors := c.Actors()
	if len(actors) != 4 || actors[0].Name != "alice" || actors[3].Name != "dave" {
		t.Fatalf("expected actors in catalog order, got %+v", actors)
	}
	if actors[1].LaborMultiplier != 1 {
		t.Fatalf("expected default labor multiplier 1, got %v", actors[1].LaborMultiplier)
	}
}

func TestParse_RejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"missing items":       `families: []`,
		"unknown field":       "items:\n  - {id: 1, name: Wood, colour: red}\n",
		"item and tag absent": "items:\n  - {id: 1, name: Wood}\nfamilies:\n  - id: f\n    variants:\n      - id: v\n        ingredients: [{amount: 1}]\n        products: [{item: Wood, amount: 1}]\n",
		"zero amount":         "items:\n  - {id: 1, name: Wood}\nfamilies:\n  - id: f\n    variants:\n      - id: v\n        products: [{item: Wood, amount: 0}]\n",
	}
	for name, raw := range cases {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestParse_RejectsDanglingReferences(t *testing.T) {
	raw := "items:\n  - {id: 1, name: Wood}\nfamilies:\n  - id: f\n    variants:\n      - id: v\n        products: [{item: Stone, amount: 1}]\n"
	_, err := Parse([]byte(raw))
	if err == nil || !strings.Contains(err.Error(), "unknown product") {
		t.Fatalf("expected unknown product error, got %v", err)
	}
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	if err := os.WriteFile(path, []byte(testWorld), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := c.Station("sawmill"); !ok {
		t.Fatalf("expected sawmill station")
	}
}

func TestLoad_DemoWorld(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "configs", "world.yaml"))
	if err != nil {
		t.Fatalf("Load demo world: %v", err)
	}
	for _, a := range c.Actors() {
		if _, err := c.Reachable(a.ID); err != nil {
			t.Fatalf("actor %s: %v", a.Name, err)
		}
	}
}

func TestReachable_FiltersSkillsAndVariants(t *testing.T) {
	c := mustParse(t, testWorld)

	idx, err := c.Reachable(1)
	if err != nil {
		t.Fatalf("Reachable: %v", err)
	}
	if idx.IsCraftable(5) {
		t.Fatalf("alice lacks Carpentry 2, chair must not be craftable")
	}
	saws := idx.Producing(6)
	if len(saws) != 1 || saws[0].Variant.ID != "saw-advanced" {
		t.Fatalf("expected only the advanced saw variant, got %+v", saws)
	}
	planks := idx.Producing(3)
	if len(planks) != 1 || planks[0].Efficiency != 0.8 {
		t.Fatalf("expected one plank candidate with efficiency 0.8, got %+v", planks)
	}
	if !planks[0].Variant.Produces(3) || planks[0].Variant.Produces(6) {
		t.Fatalf("unexpected outputs for %s", planks[0].Variant.ID)
	}
	if idx.Actor().ID != 1 {
		t.Fatalf("expected the index to belong to actor 1, got %d", idx.Actor().ID)
	}
	if got := idx.LaborCalories(planks[0].Variant); got != 50 {
		t.Fatalf("expected labor scaled to 50 calories, got %v", got)
	}
	craftable := idx.Craftable()
	if len(craftable) != 1 || craftable[0].Station != "Sawmill" {
		t.Fatalf("expected a single station group, got %+v", craftable)
	}
}

func TestReachable_Errors(t *testing.T) {
	c := mustParse(t, testWorld)

	if _, err := c.Reachable(42); !errors.Is(err, ErrUnknownActor) {
		t.Fatalf("expected ErrUnknownActor, got %v", err)
	}
	if _, err := c.Reachable(3); !errors.Is(err, ErrNoStations) {
		t.Fatalf("expected ErrNoStations, got %v", err)
	}
	if _, err := c.Reachable(4); !errors.Is(err, ErrNothingCraftable) {
		t.Fatalf("expected ErrNothingCraftable, got %v", err)
	}
}

func TestRequiredItems_ExpandsTagsAndSkipsHidden(t *testing.T) {
	c := mustParse(t, testWorld)
	idx, err := c.Reachable(1)
	if err != nil {
		t.Fatalf("Reachable: %v", err)
	}

	got := idx.RequiredItems(3)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected [1 2], got %v", got)
	}
}

func TestQuantity_EfficiencyAndBatchRounding(t *testing.T) {
	q := Quantity{Amount: 4}
	if got := q.Value(0.8); math.Abs(got-3.2) > 1e-9 {
		t.Fatalf("expected 3.2, got %v", got)
	}
	if got := (Quantity{Amount: 4, Static: true}).Value(0.8); got != 4 {
		t.Fatalf("static quantity must ignore efficiency, got %v", got)
	}
	if got := BatchRound(3.2, WorldObjectBatch); got != 4 {
		t.Fatalf("expected world object rounding to 4, got %v", got)
	}
	if got := BatchRound(3.2, ToolBatch); math.Abs(got-3.2) > 1e-9 {
		t.Fatalf("expected 16/5 = 3.2, got %v", got)
	}
	if got := BatchRound(0.5, ToolBatch); math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("expected 3/5 = 0.6, got %v", got)
	}
	if got := BatchRound(2.5, 0); got != 2.5 {
		t.Fatalf("expected unbatched value, got %v", got)
	}
}

func TestClosestItem(t *testing.T) {
	c := mustParse(t, testWorld)

	cases := map[string]ItemID{
		"plank":     3,
		"birch":     2,
		"chiar":     5,
		"Birch Lgo": 2,
	}
	for query, want := range cases {
		got, ok := c.ClosestItem(query)
		if !ok || got.ID != want {
			t.Fatalf("ClosestItem(%q) = %+v ok=%v, want id %d", query, got, ok, want)
		}
	}
	if _, ok := c.ClosestItem("granite"); ok {
		t.Fatalf("expected no match for granite")
	}
}
