// Package store models a shop's buy and sell order books and their persistence.
package store

import (
	"github.com/Simplici0/tradeassist/internal/catalog"
)

// Side tells whether an order buys or sells.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Order is one line of a store's buy or sell list.
type Order struct {
	ID       int64          `db:"id" json:"id"`
	StoreID  int64          `db:"store_id" json:"store_id"`
	Side     Side           `db:"side" json:"side"`
	ItemID   catalog.ItemID `db:"item_id" json:"item_id"`
	Price    float64        `db:"price" json:"price"`
	Limit    int            `db:"quantity_limit" json:"limit"`
	Category string         `db:"category" json:"category,omitempty"`
}

// Store is an actor's shop with its current orders.
type Store struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	ActorID  int64  `db:"actor_id" json:"actor_id"`
	Currency string `db:"currency" json:"currency"`

	BuyOrders  []*Order `db:"-" json:"buy_orders,omitempty"`
	SellOrders []*Order `db:"-" json:"sell_orders,omitempty"`
}

// Orders returns the orders of one side.
func (s *Store) Orders(side Side) []*Order {
	if side == Buy {
		return s.BuyOrders
	}
	return s.SellOrders
}

// Items returns the distinct items listed on one side, in list order.
func (s *Store) Items(side Side) []catalog.ItemID {
	var out []catalog.ItemID
	seen := make(map[catalog.ItemID]bool)
	for _, o := range s.Orders(side) {
		if seen[o.ItemID] {
			continue
		}
		seen[o.ItemID] = true
		out = append(out, o.ItemID)
	}
	return out
}

// Lists reports whether item has at least one order on side.
func (s *Store) Lists(side Side, item catalog.ItemID) bool {
	for _, o := range s.Orders(side) {
		if o.ItemID == item {
			return true
		}
	}
	return false
}

// AddOrder appends a new, not yet persisted order.
func (s *Store) AddOrder(side Side, item catalog.ItemID, price float64, limit int, category string) *Order {
	o := &Order{StoreID: s.ID, Side: side, ItemID: item, Price: price, Limit: limit, Category: category}
	if side == Buy {
		s.BuyOrders = append(s.BuyOrders, o)
	} else {
		s.SellOrders = append(s.SellOrders, o)
	}
	return o
}

// PriceCatalog indexes the best order prices per item: the highest buy price
// and the lowest sell price.
type PriceCatalog struct {
	buy  map[catalog.ItemID]float64
	sell map[catalog.ItemID]float64
}

// NewPriceCatalog snapshots the prices of s.
func NewPriceCatalog(s *Store) *PriceCatalog {
	p := &PriceCatalog{
		buy:  make(map[catalog.ItemID]float64),
		sell: make(map[catalog.ItemID]float64),
	}
	for _, o := range s.BuyOrders {
		if cur, ok := p.buy[o.ItemID]; !ok || o.Price > cur {
			p.buy[o.ItemID] = o.Price
		}
	}
	for _, o := range s.SellOrders {
		if cur, ok := p.sell[o.ItemID]; !ok || o.Price < cur {
			p.sell[o.ItemID] = o.Price
		}
	}
	return p
}

// BuyPrice returns the highest buy price of item.
func (p *PriceCatalog) BuyPrice(item catalog.ItemID) (float64, bool) {
	v, ok := p.buy[item]
	return v, ok
}

// SellPrice returns the lowest sell price of item.
func (p *PriceCatalog) SellPrice(item catalog.ItemID) (float64, bool) {
	v, ok := p.sell[item]
	return v, ok
}

// SetBuyPrice records a newly written buy price.
func (p *PriceCatalog) SetBuyPrice(item catalog.ItemID, price float64) {
	p.buy[item] = price
}

// SetSellPrice records a newly written sell price.
func (p *PriceCatalog) SetSellPrice(item catalog.ItemID, price float64) {
	p.sell[item] = price
}
