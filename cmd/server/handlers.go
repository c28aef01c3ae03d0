package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzhttp"

	"github.com/Simplici0/tradeassist/internal/actorconfig"
	"github.com/Simplici0/tradeassist/internal/catalog"
	"github.com/Simplici0/tradeassist/internal/engine"
	"github.com/Simplici0/tradeassist/internal/pricing"
	"github.com/Simplici0/tradeassist/internal/render"
	"github.com/Simplici0/tradeassist/internal/store"
)

var errBadRequest = errors.New("bad request")

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Get("/healthz", s.handleHealth)
	r.Route("/actors/{actorID}", func(r chi.Router) {
		r.Use(s.requireActor)
		r.Get("/config", s.handleGetConfig)
		r.Put("/config", s.handlePutConfig)
		r.Get("/stores", s.handleListStores)
		r.Route("/stores/{storeID}", func(r chi.Router) {
			r.With(s.throttlePasses).Post("/update", s.handleUpdate)
			r.Get("/explain", s.handleExplain)
			r.Post("/setup/sell", s.handleSetupSell)
			r.Post("/setup/buy", s.handleSetupBuy)
		})
	})
	return gzhttp.GzipHandler(r)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.configs.GetOrDefault(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	actorID := actorFromContext(r.Context())

	var cfg actorconfig.Config
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		http.Error(w, "invalid config json", http.StatusBadRequest)
		return
	}
	cfg.ActorID = actorID

	if err := s.validateConfig(cfg); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.configs.Save(r.Context(), cfg); err != nil {
		s.fail(w, r, err)
		return
	}

	saved, err := s.configs.GetOrDefault(r.Context(), actorID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	slog.Info("actor config saved", "actor", actorID, "profit", saved.ProfitPercent, "labor_cost_rate", saved.LaborCostRate)
	writeJSON(w, http.StatusOK, saved)
}

func (s *server) validateConfig(cfg actorconfig.Config) error {
	if cfg.LaborCostRate < 0 {
		return fmt.Errorf("%w: labor_cost_rate must be >= 0", errBadRequest)
	}
	for _, list := range [][]catalog.ItemID{cfg.ByProducts, cfg.FrozenSellPrices} {
		for _, id := range list {
			if _, ok := s.world.Item(id); !ok {
				return fmt.Errorf("%w: unknown item %d", errBadRequest, id)
			}
		}
	}
	return nil
}

func (s *server) handleListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := s.stores.ListByActor(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stores)
}

func (s *server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	st, session, err := s.openSession(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	report := session.UpdateStorePrices()
	if len(report.Changes) > 0 {
		if err := s.stores.Save(r.Context(), st); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	slog.Info("store prices updated",
		"actor", st.ActorID,
		"store", st.ID,
		"changes", len(report.Changes),
		"diagnostics", len(report.Diagnostics),
		"warnings", len(report.Warnings),
		"evaluations", session.Evaluations(),
		"profit", session.Margins().ProfitPercent,
		"tax", session.Margins().TaxRate,
	)

	if wantsText(r) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := (render.Renderer{Labels: s.world}).Report(w, report); err != nil {
			slog.Warn("write report", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type explainResponse struct {
	Query      string             `json:"query"`
	Item       catalog.ItemID     `json:"item"`
	Label      string             `json:"label"`
	Resolved   bool               `json:"resolved"`
	Recipe     string             `json:"recipe,omitempty"`
	CostPrice  *float64           `json:"cost_price"`
	SellPrice  *float64           `json:"sell_price"`
	Sell       *pricing.Result    `json:"sell,omitempty"`
	Derivation *engine.Derivation `json:"derivation"`
	Warnings   []engine.Warning   `json:"warnings"`
}

func (s *server) handleExplain(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("item"))
	if query == "" {
		http.Error(w, "item is required", http.StatusBadRequest)
		return
	}
	item, ok := s.world.ClosestItem(query)
	if !ok {
		http.Error(w, fmt.Sprintf("no item matches %q", query), http.StatusNotFound)
		return
	}

	_, session, err := s.openSession(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	exp, resolved := session.Explain(item.ID)

	if r.URL.Query().Get("format") == "json" {
		resp := explainResponse{
			Query:      query,
			Item:       item.ID,
			Label:      item.Label(),
			Resolved:   resolved,
			Derivation: exp.Result.Derivation,
			Warnings:   exp.Result.Warnings,
		}
		if exp.Result.Recipe != nil {
			resp.Recipe = exp.Result.Recipe.String()
		}
		if resolved {
			cost, sell := exp.Result.Price, exp.Sell.Totals.Rounded
			resp.CostPrice, resp.SellPrice, resp.Sell = &cost, &sell, &exp.Sell
		}
		if resp.Warnings == nil {
			resp.Warnings = []engine.Warning{}
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	renderer := render.Renderer{Labels: s.world, Expand: r.URL.Query().Get("expand") == "1"}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := renderer.Explanation(w, exp, resolved); err != nil {
		slog.Warn("write explanation", "error", err)
	}
}

type itemRef struct {
	ID    catalog.ItemID `json:"id"`
	Label string         `json:"label"`
}

type setupResponse struct {
	Side  store.Side `json:"side"`
	Added []itemRef  `json:"added"`
}

func (s *server) handleSetupSell(w http.ResponseWriter, r *http.Request) {
	s.handleSetup(w, r, store.Sell, engine.SetupSell)
}

func (s *server) handleSetupBuy(w http.ResponseWriter, r *http.Request) {
	s.handleSetup(w, r, store.Buy, engine.SetupBuy)
}

func (s *server) handleSetup(w http.ResponseWriter, r *http.Request, side store.Side, setup func(*catalog.RecipeIndex, *store.Store) []catalog.ItemID) {
	st, recipes, err := s.openStore(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	added := setup(recipes, st)
	if len(added) > 0 {
		if err := s.stores.Save(r.Context(), st); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	slog.Info("store orders set up", "actor", st.ActorID, "store", st.ID, "side", side, "added", len(added))

	resp := setupResponse{Side: side, Added: make([]itemRef, 0, len(added))}
	for _, id := range added {
		resp.Added = append(resp.Added, itemRef{ID: id, Label: s.world.Label(id)})
	}
	writeJSON(w, http.StatusOK, resp)
}

// openStore loads the store named in the URL, which must belong to the
// authenticated actor, together with the actor's recipes.
func (s *server) openStore(r *http.Request) (*store.Store, *catalog.RecipeIndex, error) {
	actorID := actorFromContext(r.Context())
	storeID, err := strconv.ParseInt(chi.URLParam(r, "storeID"), 10, 64)
	if err != nil || storeID <= 0 {
		return nil, nil, fmt.Errorf("%w: invalid store id", errBadRequest)
	}

	recipes, err := s.world.Reachable(actorID)
	if err != nil {
		return nil, nil, err
	}

	st, err := s.stores.Load(r.Context(), storeID)
	if err != nil {
		return nil, nil, err
	}
	if st.ActorID != actorID {
		return nil, nil, fmt.Errorf("%w: %d", store.ErrNotFound, storeID)
	}
	return st, recipes, nil
}

// openSession starts a pricing pass over the store named in the URL.
func (s *server) openSession(r *http.Request) (*store.Store, *engine.Session, error) {
	st, recipes, err := s.openStore(r)
	if err != nil {
		return nil, nil, err
	}
	session, err := s.newSession(r.Context(), st, recipes)
	if err != nil {
		return nil, nil, err
	}
	return st, session, nil
}

func (s *server) newSession(ctx context.Context, st *store.Store, recipes *catalog.RecipeIndex) (*engine.Session, error) {
	cfg, err := s.configs.GetOrDefault(ctx, st.ActorID)
	if err != nil {
		return nil, err
	}
	tax, err := s.stores.SalesTax(ctx, st.Currency)
	if err != nil {
		return nil, err
	}
	return engine.NewSession(engine.Inputs{
		Recipes:  recipes,
		Store:    st,
		Config:   cfg,
		SalesTax: tax,
	})
}

func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, catalog.ErrUnknownActor):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrNoStations),
		errors.Is(err, catalog.ErrNothingCraftable),
		errors.Is(err, engine.ErrInvalidConfiguration):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func wantsText(r *http.Request) bool {
	return r.URL.Query().Get("format") == "text"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		slog.Warn("write json response", "error", err)
	}
}
