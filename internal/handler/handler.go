// Package handler exposes the fulfillment engine over HTTP/JSON.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/techvault/retail-core/internal/domain/auth"
	"github.com/techvault/retail-core/internal/domain/order"
	"github.com/techvault/retail-core/internal/domain/product"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
}

// Handler implements the API endpoints, delegating business logic to the
// fulfillment service and the injected repositories.
type Handler struct {
	products     product.Repository
	orders       order.Repository
	service      *order.Service
	imageBaseURL string
}

// New constructs a Handler with the required domain dependencies.
func New(cfg Config, products product.Repository, orders order.Repository, service *order.Service) *Handler {
	return &Handler{
		products:     products,
		orders:       orders,
		service:      service,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Register mounts all API routes on r. Order routes require an API key;
// admin routes additionally require the orders:admin scope.
func (h *Handler) Register(r chi.Router, sec *Security) {
	r.Get("/products", h.ListProducts)
	r.Get("/products/{productID}", h.GetProduct)

	r.Group(func(r chi.Router) {
		r.Use(sec.RequireKey)

		r.Post("/orders", h.CreateOrder)
		r.Get("/orders/mine", h.ListMyOrders)

		r.Group(func(r chi.Router) {
			r.Use(sec.RequireScope(auth.ScopeOrdersAdmin))

			r.Get("/orders", h.ListAllOrders)
			r.Put("/orders/{orderID}/status", h.UpdateOrderStatus)
		})
	})
}

// errorResponse is the stable error body shape.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}

// writeInternalError logs the full error and surfaces a generic message.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// --- shared response payloads ---

type addressPayload struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Zip      string `json:"zip"`
}

type buyerPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type linePayload struct {
	ProductID string  `json:"productId"`
	ItemName  string  `json:"itemName"`
	Price     float64 `json:"price"`
	Qty       int     `json:"qty"`
}

type orderPayload struct {
	ID              string         `json:"id"`
	ActorID         string         `json:"actorId"`
	Items           []linePayload  `json:"items"`
	BuyerDetails    buyerPayload   `json:"buyerDetails"`
	ShippingAddress addressPayload `json:"shippingAddress"`
	Subtotal        float64        `json:"subtotal"`
	Tax             float64        `json:"tax"`
	TotalAmount     float64        `json:"totalAmount"`
	Channel         string         `json:"channel"`
	Status          string         `json:"status"`
	CreatedAt       time.Time      `json:"createdAt"`
}

func toOrderPayload(o *order.Order) orderPayload {
	items := make([]linePayload, len(o.Lines))
	for i, l := range o.Lines {
		items[i] = linePayload{
			ProductID: l.ProductID,
			ItemName:  l.Name,
			Price:     l.UnitPrice.InexactFloat64(),
			Qty:       l.Quantity,
		}
	}
	return orderPayload{
		ID:      o.ID,
		ActorID: o.ActorID,
		Items:   items,
		BuyerDetails: buyerPayload{
			Name:  o.Buyer.Name,
			Email: o.Buyer.Email,
		},
		ShippingAddress: addressPayload{
			FullName: o.Shipping.FullName,
			Address:  o.Shipping.Address,
			City:     o.Shipping.City,
			Zip:      o.Shipping.Zip,
		},
		Subtotal:    o.Subtotal.InexactFloat64(),
		Tax:         o.Tax.InexactFloat64(),
		TotalAmount: o.Total.InexactFloat64(),
		Channel:     string(o.Channel),
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
	}
}
