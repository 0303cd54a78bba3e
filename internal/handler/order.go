package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/techvault/retail-core/internal/domain/auth"
	"github.com/techvault/retail-core/internal/domain/inventory"
	"github.com/techvault/retail-core/internal/domain/order"
)

type orderRequest struct {
	Channel         string          `json:"channel"`
	Items           []orderItemReq  `json:"items"`
	ShippingAddress *addressPayload `json:"shippingAddress"`
	BuyerDetails    *buyerPayload   `json:"buyerDetails"`
}

type orderItemReq struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// CreateOrder handles POST /orders for both channels. The placing actor is
// the authenticated API key's actor.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	channel, err := order.ParseChannel(req.Channel)
	if err != nil {
		mapOrderError(w, r, err)
		return
	}

	items := make([]order.CartLine, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.CartLine{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	createReq := order.CreateRequest{
		ActorID: auth.KeyFromContext(r.Context()).ActorID,
		Channel: channel,
		Items:   items,
	}
	if req.ShippingAddress != nil {
		createReq.Shipping = &order.Address{
			FullName: req.ShippingAddress.FullName,
			Address:  req.ShippingAddress.Address,
			City:     req.ShippingAddress.City,
			Zip:      req.ShippingAddress.Zip,
		}
	}
	if req.BuyerDetails != nil {
		createReq.Buyer = &order.BuyerDetails{
			Name:  req.BuyerDetails.Name,
			Email: req.BuyerDetails.Email,
		}
	}

	o, err := h.service.Create(r.Context(), createReq)
	if err != nil {
		mapOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderPayload(o))
}

// ListMyOrders handles GET /orders/mine: the caller's orders, newest first.
func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	actorID := auth.KeyFromContext(r.Context()).ActorID

	list, err := h.orders.ListByActor(r.Context(), actorID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	out := make([]orderPayload, len(list))
	for i := range list {
		out[i] = toOrderPayload(&list[i])
	}
	writeJSON(w, http.StatusOK, out)
}

type adminOrderPayload struct {
	orderPayload
	Actor struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	} `json:"actor"`
}

// ListAllOrders handles GET /orders (admin): every order, newest first, with
// the placing actor resolved to a display name and email.
func (h *Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.orders.ListAll(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	out := make([]adminOrderPayload, len(list))
	for i := range list {
		out[i].orderPayload = toOrderPayload(&list[i].Order)
		out[i].Actor.FullName = list[i].ActorName
		out[i].Actor.Email = list[i].ActorEmail
	}
	writeJSON(w, http.StatusOK, out)
}

// UpdateOrderStatus handles PUT /orders/{orderID}/status (admin).
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "orderID"), req.Status)
	if err != nil {
		mapOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderPayload(o))
}

// mapOrderError converts domain errors to stable HTTP responses. Anything
// unrecognized is treated as an internal failure: logged in full, surfaced
// generically.
func mapOrderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, order.ErrEmptyCart) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var vErr *order.ValidationError
	if errors.As(err, &vErr) {
		writeError(w, http.StatusBadRequest, vErr.Error())
		return
	}

	var usErr *order.UnknownStatusError
	if errors.As(err, &usErr) {
		writeError(w, http.StatusBadRequest, usErr.Error())
		return
	}

	var isErr *inventory.InsufficientStockError
	if errors.As(err, &isErr) {
		writeError(w, http.StatusBadRequest, isErr.Error())
		return
	}

	var pnfErr *inventory.ProductNotFoundError
	if errors.As(err, &pnfErr) {
		writeError(w, http.StatusNotFound, pnfErr.Error())
		return
	}

	if errors.Is(err, order.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	writeInternalError(w, r, err)
}
