// Package api exposes the roster and match views over HTTP. Reads come from
// the in-memory stores; writes go through the feed mutation surface and
// become visible once they round-trip through the change feed.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"

	"realty-backoffice/models"
	"realty-backoffice/services"
	"realty-backoffice/store"
	"realty-backoffice/utils"
)

// DocWriter is the slice of the feed mutation surface the write endpoints
// need. *feed.Mutator satisfies it.
type DocWriter interface {
	Create(ctx context.Context, fields bson.M) (string, error)
	Update(ctx context.Context, id string, fields bson.M) error
	SoftDelete(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error
}

type Handler struct {
	listings  *store.ReactiveStore[models.Listing]
	buyers    *store.ReactiveStore[models.Buyer]
	curated   *store.ReactiveStore[models.CuratedSet]
	index     *services.MatchIndex
	buffer    *services.MatchBuffer
	selection *services.SelectionMemory
	logger    *utils.Logger

	listingWriter DocWriter
	buyerWriter   DocWriter
}

func NewHandler(
	listings *store.ReactiveStore[models.Listing],
	buyers *store.ReactiveStore[models.Buyer],
	curated *store.ReactiveStore[models.CuratedSet],
	index *services.MatchIndex,
	buffer *services.MatchBuffer,
	selection *services.SelectionMemory,
	logger *utils.Logger,
) *Handler {
	return &Handler{
		listings:  listings,
		buyers:    buyers,
		curated:   curated,
		index:     index,
		buffer:    buffer,
		selection: selection,
		logger:    logger,
	}
}

// WithWriters enables the write endpoints. Without writers the handler is a
// read-only view and mutations answer 503.
func (h *Handler) WithWriters(listings, buyers DocWriter) *Handler {
	h.listingWriter = listings
	h.buyerWriter = buyers
	return h
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/listings", h.getListings).Methods(http.MethodGet)
	api.HandleFunc("/listings", h.createListing).Methods(http.MethodPost)
	api.HandleFunc("/listings/trash", h.getTrash).Methods(http.MethodGet)
	api.HandleFunc("/listings/{id}", h.updateListing).Methods(http.MethodPatch)
	api.HandleFunc("/listings/{id}", h.deleteListing).Methods(http.MethodDelete)
	api.HandleFunc("/listings/{id}/restore", h.restoreListing).Methods(http.MethodPost)
	api.HandleFunc("/listings/{id}/matches", h.getListingMatches).Methods(http.MethodGet)
	api.HandleFunc("/listings/{id}/match-count", h.getListingMatchCount).Methods(http.MethodGet)
	api.HandleFunc("/buyers", h.getBuyers).Methods(http.MethodGet)
	api.HandleFunc("/buyers", h.createBuyer).Methods(http.MethodPost)
	api.HandleFunc("/buyers/{id}", h.updateBuyer).Methods(http.MethodPatch)
	api.HandleFunc("/buyers/{id}", h.deleteBuyer).Methods(http.MethodDelete)
	api.HandleFunc("/buyers/{id}/matches", h.getBuyerMatches).Methods(http.MethodGet)
	api.HandleFunc("/buyers/{id}/match-buffer", h.storeMatchBuffer).Methods(http.MethodPut)
	api.HandleFunc("/buyers/{id}/match-buffer", h.consumeMatchBuffer).Methods(http.MethodDelete)
	api.HandleFunc("/buyers/{id}/selection", h.getSelection).Methods(http.MethodGet)
	api.HandleFunc("/buyers/{id}/selection", h.clearSelection).Methods(http.MethodDelete)
	api.HandleFunc("/curated-sets", h.getCuratedSets).Methods(http.MethodGet)
}

func (h *Handler) getCuratedSets(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.curated.GetAll())
}

// decodeFields reads a partial document from the request body. Identity and
// bookkeeping fields are stripped; the mutator owns those.
func decodeFields(r *http.Request) (bson.M, error) {
	var fields bson.M
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		return nil, err
	}
	delete(fields, "_id")
	delete(fields, "id")
	delete(fields, "createdAt")
	delete(fields, "updatedAt")
	return fields, nil
}

func (h *Handler) createListing(w http.ResponseWriter, r *http.Request) {
	if h.listingWriter == nil {
		http.Error(w, "read-only", http.StatusServiceUnavailable)
		return
	}
	fields, err := decodeFields(r)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	id, err := h.listingWriter.Create(r.Context(), fields)
	if err != nil {
		h.logger.Error("[api] create listing: %v", err)
		http.Error(w, "create failed", http.StatusBadGateway)
		return
	}
	h.listings.MarkDirty(id)
	w.WriteHeader(http.StatusCreated)
	h.writeJSON(w, map[string]string{"id": id})
}

func (h *Handler) updateListing(w http.ResponseWriter, r *http.Request) {
	if h.listingWriter == nil {
		http.Error(w, "read-only", http.StatusServiceUnavailable)
		return
	}
	id := mux.Vars(r)["id"]
	fields, err := decodeFields(r)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.listingWriter.Update(r.Context(), id, fields); err != nil {
		h.logger.Error("[api] update listing %s: %v", id, err)
		http.Error(w, "update failed", http.StatusBadGateway)
		return
	}
	h.listings.MarkDirty(id)
	w.WriteHeader(http.StatusNoContent)
}

// deleteListing soft-deletes: the row moves to the trash view and stays
// recoverable through restore. with purge=true it is removed for good.
func (h *Handler) deleteListing(w http.ResponseWriter, r *http.Request) {
	if h.listingWriter == nil {
		http.Error(w, "read-only", http.StatusServiceUnavailable)
		return
	}
	id := mux.Vars(r)["id"]

	var err error
	if r.URL.Query().Get("purge") == "true" {
		err = h.listingWriter.HardDelete(r.Context(), id)
	} else {
		err = h.listingWriter.SoftDelete(r.Context(), id)
	}
	if err != nil {
		h.logger.Error("[api] delete listing %s: %v", id, err)
		http.Error(w, "delete failed", http.StatusBadGateway)
		return
	}
	h.listings.MarkDirty(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) restoreListing(w http.ResponseWriter, r *http.Request) {
	if h.listingWriter == nil {
		http.Error(w, "read-only", http.StatusServiceUnavailable)
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.listingWriter.Update(r.Context(), id, bson.M{"deletedAt": int64(0)}); err != nil {
		h.logger.Error("[api] restore listing %s: %v", id, err)
		http.Error(w, "restore failed", http.StatusBadGateway)
		return
	}
	h.listings.MarkDirty(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createBuyer(w http.ResponseWriter, r *http.Request) {
	if h.buyerWriter == nil {
		http.Error(w, "read-only", http.StatusServiceUnavailable)
		return
	}
	fields, err := decodeFields(r)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	id, err := h.buyerWriter.Create(r.Context(), fields)
	if err != nil {
		h.logger.Error("[api] create buyer: %v", err)
		http.Error(w, "create failed", http.StatusBadGateway)
		return
	}
	h.buyers.MarkDirty(id)
	w.WriteHeader(http.StatusCreated)
	h.writeJSON(w, map[string]string{"id": id})
}

func (h *Handler) updateBuyer(w http.ResponseWriter, r *http.Request) {
	if h.buyerWriter == nil {
		http.Error(w, "read-only", http.StatusServiceUnavailable)
		return
	}
	id := mux.Vars(r)["id"]
	fields, err := decodeFields(r)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.buyerWriter.Update(r.Context(), id, fields); err != nil {
		h.logger.Error("[api] update buyer %s: %v", id, err)
		http.Error(w, "update failed", http.StatusBadGateway)
		return
	}
	h.buyers.MarkDirty(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteBuyer(w http.ResponseWriter, r *http.Request) {
	if h.buyerWriter == nil {
		http.Error(w, "read-only", http.StatusServiceUnavailable)
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.buyerWriter.SoftDelete(r.Context(), id); err != nil {
		h.logger.Error("[api] delete buyer %s: %v", id, err)
		http.Error(w, "delete failed", http.StatusBadGateway)
		return
	}
	h.buyers.MarkDirty(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getListings(w http.ResponseWriter, r *http.Request) {
	filters, mode, opts := filtersFromQuery(r)
	rows := services.FilterAndSort(h.listings.GetAll(), filters, mode, opts)
	h.writeJSON(w, rows)
}

func (h *Handler) getTrash(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.listings.Trash())
}

func (h *Handler) getBuyers(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.buyers.GetAll())
}

// getBuyerMatches serves the server projection when one exists and falls
// back to scoring against the live listing snapshot when it does not, so a
// freshly created buyer gets matches before the server-side recompute lands.
// The fallback result is remembered for the buyer's offline view.
func (h *Handler) getBuyerMatches(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	limit := intParam(r, "limit", services.DefaultMatchLimit)

	entries := h.index.GetForBuyer(id, limit)
	if len(entries) == 0 {
		if buyer, ok := h.findBuyer(id); ok {
			entries = services.MatchListingsForBuyer(buyer, h.listings.GetAll(), limit)
			if len(entries) > 0 {
				ids := make([]string, len(entries))
				for i, e := range entries {
					ids[i] = e.ID
				}
				h.selection.Remember(id, ids)
			}
		}
	}
	h.writeJSON(w, entries)
}

func (h *Handler) findBuyer(id string) (models.Buyer, bool) {
	for _, b := range h.buyers.GetAll() {
		if b.ID == id {
			return b, true
		}
	}
	return models.Buyer{}, false
}

func (h *Handler) storeMatchBuffer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	h.buffer.Store(id, body.IDs)
	w.WriteHeader(http.StatusNoContent)
}

// consumeMatchBuffer is the destructive read side of the one-shot hand-off.
func (h *Handler) consumeMatchBuffer(w http.ResponseWriter, r *http.Request) {
	ids := h.buffer.Consume(mux.Vars(r)["id"])
	h.writeJSON(w, map[string]any{"ids": ids})
}

func (h *Handler) getSelection(w http.ResponseWriter, r *http.Request) {
	ids, updatedAt, ok := h.selection.Recall(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "no remembered selection", http.StatusNotFound)
		return
	}
	h.writeJSON(w, map[string]any{"ids": ids, "updatedAt": updatedAt})
}

func (h *Handler) clearSelection(w http.ResponseWriter, r *http.Request) {
	h.selection.Clear(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

// getListingMatches mirrors the buyer side: projection first, live scoring
// against the buyer roster when no projection has arrived.
func (h *Handler) getListingMatches(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	limit := intParam(r, "limit", services.DefaultMatchLimit)

	entries := h.index.GetForListing(id, limit)
	if len(entries) == 0 {
		if listing, ok := h.findListing(id); ok {
			entries = services.MatchBuyersForListing(listing, h.buyers.GetAll(), limit)
		}
	}
	h.writeJSON(w, entries)
}

func (h *Handler) findListing(id string) (models.Listing, bool) {
	for _, l := range h.listings.GetAll() {
		if l.ID == id {
			return l, true
		}
	}
	return models.Listing{}, false
}

func (h *Handler) getListingMatchCount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	threshold := intParam(r, "threshold", services.DefaultCountThreshold)
	h.writeJSON(w, map[string]int{"count": h.index.GetCountForListing(id, threshold)})
}

// filtersFromQuery maps URL query parameters onto the session filter state.
func filtersFromQuery(r *http.Request) (models.ListingFilters, models.ViewMode, models.FilterOptions) {
	q := r.URL.Query()

	f := models.NewListingFilters()
	f.Query = q.Get("q")
	f.Type = models.NormalizeTransactionType(q.Get("type"))
	f.Ownership = models.OwnershipType(q.Get("ownership"))
	f.UrgentOnly = q.Get("urgent") == "true"
	f.AssigneeID = q.Get("assignee")
	f.ComplexQuery = q.Get("complex")
	if cs := q.Get("complexes"); cs != "" {
		f.Complexes = strings.Split(cs, ",")
	}
	if a := q.Get("area"); a != "" {
		if n, err := strconv.ParseFloat(a, 64); err == nil {
			f.AreaPick = &n
		}
	}
	f.PriceMin, f.PriceMax = q.Get("priceMin"), q.Get("priceMax")
	f.DepositMin, f.DepositMax = q.Get("depositMin"), q.Get("depositMax")
	f.MonthlyMin, f.MonthlyMax = q.Get("monthlyMin"), q.Get("monthlyMax")

	// sort=price:desc,area:asc
	if s := q.Get("sort"); s != "" {
		for _, part := range strings.SplitN(s, ",", 2) {
			key, dir, _ := strings.Cut(part, ":")
			c := models.SortCriterion{Key: models.SortKey(key), Direction: models.SortAsc}
			if dir == string(models.SortDesc) {
				c.Direction = models.SortDesc
			}
			f.Sort = append(f.Sort, c)
		}
	}

	mode := models.ViewMode(q.Get("mode"))
	if mode == "" {
		mode = models.ModeListings
	}
	opts := models.FilterOptions{
		AllowInactive:    q.Get("allowInactive") == "true",
		ShowInactiveOnly: q.Get("inactiveOnly") == "true",
	}
	return f, mode, opts
}

func intParam(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("[api] response encode failed: %v", err)
	}
}
