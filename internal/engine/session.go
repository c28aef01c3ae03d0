// Package engine resolves the cost price of craftable items from an actor's
// reachable recipes and the prices of their store, and writes the resulting
// sell and buy prices back to the store.
package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/Simplici0/tradeassist/internal/actorconfig"
	"github.com/Simplici0/tradeassist/internal/catalog"
	"github.com/Simplici0/tradeassist/internal/pricing"
	"github.com/Simplici0/tradeassist/internal/store"
)

// ErrInvalidConfiguration blocks a session whose margins break the pricing formulas.
var ErrInvalidConfiguration = errors.New("invalid pricing configuration")

// Inputs are the snapshots a session is assembled from.
type Inputs struct {
	Recipes  *catalog.RecipeIndex
	Store    *store.Store
	Config   actorconfig.Config
	SalesTax float64
}

// Result is the cost price of one item.
type Result struct {
	Item       catalog.ItemID
	Price      float64
	Derivation *Derivation
	Recipe     *catalog.Candidate
	Warnings   []Warning
}

// Resolved reports whether a finite cost price was found.
func (r Result) Resolved() bool {
	return !math.IsInf(r.Price, 1)
}

type memoState int

const (
	stateNotStarted memoState = iota
	stateInProgress
	stateResolved
	stateFailed
)

type memoEntry struct {
	state  memoState
	result Result
}

// Session is one pricing pass for one actor and one store. It is not safe
// for concurrent use; results are memoized for the session's lifetime.
type Session struct {
	recipes *catalog.RecipeIndex
	catalog *catalog.Catalog
	store   *store.Store
	prices  *store.PriceCatalog
	config  actorconfig.Config
	margins pricing.Margins

	memo        map[catalog.ItemID]*memoEntry
	evaluations int
}

// NewSession validates the configuration and snapshots the store prices.
func NewSession(in Inputs) (*Session, error) {
	if in.Recipes == nil || in.Store == nil {
		return nil, fmt.Errorf("new session: recipes and store are required")
	}
	margins := pricing.Margins{ProfitPercent: in.Config.ProfitPercent, TaxRate: in.SalesTax}
	if err := margins.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	return &Session{
		recipes: in.Recipes,
		catalog: in.Recipes.Catalog(),
		store:   in.Store,
		prices:  store.NewPriceCatalog(in.Store),
		config:  in.Config,
		margins: margins,
		memo:    make(map[catalog.ItemID]*memoEntry),
	}, nil
}

// Margins returns the profit and tax used by the session.
func (s *Session) Margins() pricing.Margins {
	return s.margins
}

// Evaluations returns how many recipe candidates have been costed so far.
func (s *Session) Evaluations() int {
	return s.evaluations
}

// forget drops every memoized result, after store prices they depend on
// have moved.
func (s *Session) forget() {
	clear(s.memo)
}

func (s *Session) state(item catalog.ItemID) memoState {
	if e, ok := s.memo[item]; ok {
		return e.state
	}
	return stateNotStarted
}
