// internal/server/handlers/shop.go

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"shopmap/internal/domain/geo"
	"shopmap/internal/domain/shop"
)

// ShopHandler handles shop-related HTTP requests
type ShopHandler struct {
	service shop.Service
	logger  *zap.Logger
}

// NewShopHandler creates a new shop handler
func NewShopHandler(service shop.Service, logger *zap.Logger) *ShopHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShopHandler{
		service: service,
		logger:  logger,
	}
}

// ListShops returns shops around lon/lat, optionally filtered by q
func (h *ShopHandler) ListShops(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	lon, err := strconv.ParseFloat(params.Get("lon"), 64)
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, "Invalid longitude", err)
		return
	}

	lat, err := strconv.ParseFloat(params.Get("lat"), 64)
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, "Invalid latitude", err)
		return
	}

	// Range is optional; zero selects the service default
	rangeM := 0
	if rangeStr := params.Get("range"); rangeStr != "" {
		rangeM, err = strconv.Atoi(rangeStr)
		if err != nil || rangeM < 0 {
			respondWithError(w, h.logger, http.StatusBadRequest, "Invalid range", err)
			return
		}
	}

	items, err := h.service.Find(r.Context(), shop.Query{
		Center: geo.LatLng{Lat: lat, Lng: lon},
		RangeM: rangeM,
		Term:   params.Get("q"),
	})
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to get shops", err)
		return
	}

	respondWithJSON(w, http.StatusOK, shop.ListResponse{Items: items})
}

// CreateShop inserts a new shop
func (h *ShopHandler) CreateShop(w http.ResponseWriter, r *http.Request) {
	s, ok := h.decodeShop(w, r)
	if !ok {
		return
	}

	created, err := h.service.Create(r.Context(), s)
	if err != nil {
		h.writeFailed(w, "Failed to create shop", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

// UpdateShop amends the shop with the same title and location
func (h *ShopHandler) UpdateShop(w http.ResponseWriter, r *http.Request) {
	s, ok := h.decodeShop(w, r)
	if !ok {
		return
	}

	updated, err := h.service.Update(r.Context(), s)
	if err != nil {
		h.writeFailed(w, "Failed to update shop", err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// Healthy reports that the service is up
func (h *ShopHandler) Healthy(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]bool{"healthy": true})
}

func (h *ShopHandler) decodeShop(w http.ResponseWriter, r *http.Request) (shop.Shop, bool) {
	var s shop.Shop
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, "Invalid request body", err)
		return shop.Shop{}, false
	}
	return s, true
}

func (h *ShopHandler) writeFailed(w http.ResponseWriter, message string, err error) {
	var validationErr *shop.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondWithError(w, h.logger, http.StatusBadRequest, validationErr.Error(), err)
	case errors.Is(err, shop.ErrNotFound):
		respondWithError(w, h.logger, http.StatusNotFound, "Shop not found", nil)
	default:
		respondWithError(w, h.logger, http.StatusInternalServerError, message, err)
	}
}
