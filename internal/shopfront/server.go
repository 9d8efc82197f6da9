// Package shopfront serves a small storefront API over a mutable in-memory
// catalog. The admin endpoints let a listing be re-priced or re-described
// between an agent's view and its checkout, which is exactly the window the
// detector watches.
package shopfront

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/baitwatch/baitwatch/internal/logger"
	"github.com/baitwatch/baitwatch/internal/models"
)

// Server is the mock storefront.
type Server struct {
	mu       sync.RWMutex
	products map[string]models.ProductRecord
}

// NewServer creates an empty storefront.
func NewServer() *Server {
	return &Server{
		products: make(map[string]models.ProductRecord),
	}
}

// SetProduct creates or replaces a listing. Invalid records are rejected.
func (s *Server) SetProduct(record models.ProductRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[record.ProductID] = *record.Clone()
	return nil
}

// Product returns the current listing, or false when absent.
func (s *Server) Product(productID string) (models.ProductRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.products[productID]
	if !ok {
		return models.ProductRecord{}, false
	}
	return *record.Clone(), true
}

// RemoveProduct delists a product, reporting whether it existed.
func (s *Server) RemoveProduct(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.products[productID]
	delete(s.products, productID)
	return ok
}

// Router returns the HTTP surface: the public product API plus the admin
// mutation endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/products/{productID}", s.handleGetProduct)
	r.Put("/admin/products/{productID}", s.handlePutProduct)
	r.Delete("/admin/products/{productID}", s.handleDeleteProduct)

	return r
}

type productPayload struct {
	ProductID   string         `json:"product_id"`
	Price       float64        `json:"price"`
	Description string         `json:"description"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	record, ok := s.Product(productID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
		return
	}
	writeJSON(w, http.StatusOK, productPayload{
		ProductID:   record.ProductID,
		Price:       record.Price,
		Description: record.Description,
		Attributes:  record.Attributes,
	})
}

func (s *Server) handlePutProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	var payload productPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	// The path is authoritative for the ID.
	payload.ProductID = productID

	record := models.ProductRecord{
		ProductID:   payload.ProductID,
		Price:       payload.Price,
		Description: payload.Description,
		Attributes:  payload.Attributes,
	}
	if err := s.SetProduct(record); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	logger.Debug("storefront listing updated: %s", productID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	if !s.RemoveProduct(productID) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
		return
	}
	logger.Debug("storefront listing removed: %s", productID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response: %v", err)
	}
}
