package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/tradeassist/internal/actorconfig"
	"github.com/Simplici0/tradeassist/internal/catalog"
	"github.com/Simplici0/tradeassist/internal/db"
	"github.com/Simplici0/tradeassist/internal/engine"
	"github.com/Simplici0/tradeassist/internal/migrations"
	"github.com/Simplici0/tradeassist/internal/store"
)

const (
	wood  catalog.ItemID = 1
	plank catalog.ItemID = 2
	chair catalog.ItemID = 3
)

const testWorld = `
items:
  - {id: 1, name: Wood}
  - {id: 2, name: Plank}
  - {id: 3, name: Chair, world_object: true}
families:
  - id: plank
    labor_calories: 100
    variants:
      - id: plank
        name: Plank
        ingredients: [{item: Wood, amount: 2}]
        products: [{item: Plank, amount: 1, static: true}]
  - id: chair
    variants:
      - id: chair
        name: Chair
        ingredients: [{item: Plank, amount: 2}]
        products: [{item: Chair, amount: 1, static: true}]
stations:
  - {id: bench, name: Bench, families: [plank, chair]}
actors:
  - {id: 1, name: alice, stations: [bench]}
  - {id: 2, name: bob, stations: [bench]}
`

func newTestServer(t *testing.T) *server {
	t.Helper()

	world, err := catalog.Parse([]byte(testWorld))
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}

	database, err := db.Open(filepath.Join(t.TempDir(), "server-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	srv := newServer(world, database, "test-secret")

	cfg := actorconfig.Default(1)
	cfg.LaborCostRate = 0.01
	if err := srv.configs.Save(context.Background(), cfg); err != nil {
		t.Fatalf("save actor config: %v", err)
	}
	return srv
}

func createStore(t *testing.T, srv *server, actorID int64, orders func(s *store.Store)) *store.Store {
	t.Helper()

	ctx := context.Background()
	st := &store.Store{Name: "shop", ActorID: actorID}
	if err := srv.stores.Create(ctx, st); err != nil {
		t.Fatalf("create store: %v", err)
	}
	orders(st)
	if err := srv.stores.Save(ctx, st); err != nil {
		t.Fatalf("save store: %v", err)
	}
	return st
}

func plankShop(s *store.Store) {
	s.AddOrder(store.Buy, wood, 1, 100, "")
	s.AddOrder(store.Sell, plank, 999999, 0, "")
}

func storePath(actorID, storeID int64, suffix string) string {
	return "/actors/" + strconv.FormatInt(actorID, 10) + "/stores/" + strconv.FormatInt(storeID, 10) + suffix
}

func doRequest(t *testing.T, srv *server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.routes().ServeHTTP(rr, req)
	return rr
}

func TestUpdateRewritesAndPersistsSellPrices(t *testing.T) {
	srv := newTestServer(t)
	st := createStore(t, srv, 1, plankShop)

	rr := doRequest(t, srv, http.MethodPost, storePath(1, st.ID, "/update"), srv.auth.issueToken(1), "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var report struct {
		Changes []engine.Change `json:"changes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Changes) != 1 || report.Changes[0].NewPrice != 3.6 {
		t.Fatalf("unexpected changes: %+v", report.Changes)
	}

	saved, err := srv.stores.Load(context.Background(), st.ID)
	if err != nil {
		t.Fatalf("reload store: %v", err)
	}
	if saved.SellOrders[0].Price != 3.6 {
		t.Fatalf("expected persisted sell price 3.6, got %v", saved.SellOrders[0].Price)
	}

	again := doRequest(t, srv, http.MethodPost, storePath(1, st.ID, "/update?format=text"), srv.auth.issueToken(1), "")
	if !strings.Contains(again.Body.String(), "prices are up to date") {
		t.Fatalf("expected second pass to be a no-op, got: %s", again.Body.String())
	}
}

func TestActorRoutesRequireMatchingToken(t *testing.T) {
	srv := newTestServer(t)
	st := createStore(t, srv, 1, plankShop)
	path := storePath(1, st.ID, "/update")

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{name: "missing", token: "", want: http.StatusUnauthorized},
		{name: "forged", token: "MQ.deadbeef", want: http.StatusUnauthorized},
		{name: "other actor", token: srv.auth.issueToken(2), want: http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doRequest(t, srv, http.MethodPost, path, tc.token, "")
			if rr.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, rr.Code)
			}
		})
	}
}

func TestStoreOfAnotherActorIsNotFound(t *testing.T) {
	srv := newTestServer(t)
	st := createStore(t, srv, 2, plankShop)

	rr := doRequest(t, srv, http.MethodPost, storePath(1, st.ID, "/update"), srv.auth.issueToken(1), "")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestExplainTextMatchesClosestItem(t *testing.T) {
	srv := newTestServer(t)
	st := createStore(t, srv, 1, plankShop)

	rr := doRequest(t, srv, http.MethodGet, storePath(1, st.ID, "/explain?item=plnk&expand=1"), srv.auth.issueToken(1), "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("expected text/plain content type, got %q", rr.Header().Get("Content-Type"))
	}
	body := rr.Body.String()
	for _, expected := range []string{
		"Plank: 3.00 via Plank @ Bench",
		"  Wood x2 @ 1.00 = 2.00",
		"    Wood: 1.00 from the buy order",
		"sell price: 3.60",
	} {
		if !strings.Contains(body, expected) {
			t.Fatalf("expected body to contain %q, got: %s", expected, body)
		}
	}
}

func TestHandleExplainReturnsJSON(t *testing.T) {
	srv := newTestServer(t)
	st := createStore(t, srv, 1, plankShop)

	req := httptest.NewRequest(http.MethodGet, "/explain?item=Plank&format=json", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("storeID", strconv.FormatInt(st.ID, 10))
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, actorKey{}, int64(1))
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	srv.handleExplain(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Item      catalog.ItemID `json:"item"`
		Resolved  bool           `json:"resolved"`
		Recipe    string         `json:"recipe"`
		CostPrice *float64       `json:"cost_price"`
		SellPrice *float64       `json:"sell_price"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode explain response: %v", err)
	}
	if resp.Item != plank || !resp.Resolved || resp.Recipe != "Plank @ Bench" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.CostPrice == nil || *resp.CostPrice != 3 || resp.SellPrice == nil || *resp.SellPrice != 3.6 {
		t.Fatalf("unexpected prices: cost=%v sell=%v", resp.CostPrice, resp.SellPrice)
	}
}

func TestExplainUnresolvedItemReportsNullPrices(t *testing.T) {
	srv := newTestServer(t)
	st := createStore(t, srv, 1, func(s *store.Store) {
		s.AddOrder(store.Sell, chair, 999999, 0, "")
	})

	rr := doRequest(t, srv, http.MethodGet, storePath(1, st.ID, "/explain?item=chair&format=json"), srv.auth.issueToken(1), "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"cost_price": null`) {
		t.Fatalf("expected null cost price, got: %s", rr.Body.String())
	}
}

func TestConfigRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	token := srv.auth.issueToken(1)

	rr := doRequest(t, srv, http.MethodPut, "/actors/1/config", token,
		`{"profit_percent": -150, "labor_cost_rate": 0.02, "by_products": [3], "frozen_sell_prices": []}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodGet, "/actors/1/config", token, "")
	var cfg actorconfig.Config
	if err := json.Unmarshal(rr.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.ProfitPercent != actorconfig.MinProfitPercent || cfg.LaborCostRate != 0.02 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.ByProducts) != 1 || cfg.ByProducts[0] != chair {
		t.Fatalf("unexpected by-products: %v", cfg.ByProducts)
	}

	bad := doRequest(t, srv, http.MethodPut, "/actors/1/config", token, `{"profit_percent": 20, "by_products": [999]}`)
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown item, got %d", bad.Code)
	}
}

func TestSetupAddsAndPersistsOrders(t *testing.T) {
	srv := newTestServer(t)
	st := createStore(t, srv, 1, func(s *store.Store) {
		s.AddOrder(store.Sell, chair, 999999, 0, "")
	})
	token := srv.auth.issueToken(1)

	rr := doRequest(t, srv, http.MethodPost, storePath(1, st.ID, "/setup/sell"), token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp setupResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode setup response: %v", err)
	}
	if len(resp.Added) != 1 || resp.Added[0].ID != plank || resp.Added[0].Label != "Plank" {
		t.Fatalf("unexpected sell setup: %+v", resp.Added)
	}

	rr = doRequest(t, srv, http.MethodPost, storePath(1, st.ID, "/setup/buy"), token, "")
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode setup response: %v", err)
	}
	if len(resp.Added) != 1 || resp.Added[0].ID != wood {
		t.Fatalf("unexpected buy setup: %+v", resp.Added)
	}

	saved, err := srv.stores.Load(context.Background(), st.ID)
	if err != nil {
		t.Fatalf("reload store: %v", err)
	}
	if len(saved.SellOrders) != 2 || len(saved.BuyOrders) != 1 {
		t.Fatalf("expected 2 sell and 1 buy orders, got %d and %d", len(saved.SellOrders), len(saved.BuyOrders))
	}
	if saved.SellOrders[1].Category != "Bench" || saved.BuyOrders[0].Limit != 1 {
		t.Fatalf("unexpected setup orders: %+v %+v", saved.SellOrders[1], saved.BuyOrders[0])
	}
}
