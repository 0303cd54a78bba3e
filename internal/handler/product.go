package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/techvault/retail-core/internal/domain/product"
)

type productPayload struct {
	ID          string            `json:"id"`
	SKU         string            `json:"sku"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Price       float64           `json:"price"`
	Stock       int               `json:"stock"`
	ImageURL    string            `json:"imageUrl"`
	Specs       map[string]string `json:"specs,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// ListProducts returns every product in the catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	out := make([]productPayload, len(products))
	for i, p := range products {
		out[i] = h.toProductPayload(p)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetProduct returns a single product by ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toProductPayload(*p))
}

// toProductPayload converts a domain product into the response shape.
// Image paths are prefixed with the configured imageBaseURL.
func (h *Handler) toProductPayload(p product.Product) productPayload {
	return productPayload{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price.InexactFloat64(),
		Stock:       p.Stock,
		ImageURL:    h.imageBaseURL + p.ImageURL,
		Specs:       p.Specs,
		CreatedAt:   p.CreatedAt,
	}
}
