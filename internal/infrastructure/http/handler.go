package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	appOrder "github.com/tiffin-labs/canteen/internal/application/order"
	appWallet "github.com/tiffin-labs/canteen/internal/application/wallet"
	domainMenu "github.com/tiffin-labs/canteen/internal/domain/menu"
	domainOrder "github.com/tiffin-labs/canteen/internal/domain/order"
	domainWallet "github.com/tiffin-labs/canteen/internal/domain/wallet"
	"github.com/tiffin-labs/canteen/internal/infrastructure/fanout"
)

type Handler struct {
	orderService  *appOrder.Service
	walletService *appWallet.Service
	catalog       domainMenu.Repository
	hub           *fanout.Hub
}

func NewHandler(orderSvc *appOrder.Service, walletSvc *appWallet.Service, catalog domainMenu.Repository, hub *fanout.Hub) *Handler {
	return &Handler{
		orderService:  orderSvc,
		walletService: walletSvc,
		catalog:       catalog,
		hub:           hub,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/orders", h.handleOrders)
	mux.HandleFunc("/orders/stream", h.method(http.MethodGet, h.handleStreamOrders))
	mux.HandleFunc("/orders/", h.handleOrderByID)
	mux.HandleFunc("/wallet/balance", h.method(http.MethodGet, h.handleBalance))
	mux.HandleFunc("/wallet/recharge", h.method(http.MethodPost, h.handleRecharge))
	mux.HandleFunc("/menu", h.method(http.MethodGet, h.handleMenu))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

type cartLineRequest struct {
	FoodItemID string `json:"food_item_id"`
	Quantity   int    `json:"quantity"`
}

type placeOrderRequest struct {
	AccountID string            `json:"account_id"`
	Items     []cartLineRequest `json:"items"`
}

type orderItemResponse struct {
	FoodItemID string          `json:"food_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

type orderResponse struct {
	ID          string              `json:"id"`
	Token       string              `json:"token"`
	AccountID   string              `json:"account_id"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	Status      string              `json:"status"`
	Version     int64               `json:"version"`
	CreatedAt   time.Time           `json:"created_at"`
	ReadyAt     *time.Time          `json:"ready_at,omitempty"`
	Items       []orderItemResponse `json:"items,omitempty"`
}

func toOrderResponse(o *domainOrder.Order) orderResponse {
	resp := orderResponse{
		ID:          o.ID,
		Token:       o.Token,
		AccountID:   o.AccountID,
		TotalAmount: o.TotalAmount,
		Status:      string(o.Status),
		Version:     o.Version,
		CreatedAt:   o.CreatedAt,
		ReadyAt:     o.ReadyAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			FoodItemID: item.FoodItemID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		})
	}
	return resp
}

func (h *Handler) handleOrders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePlaceOrder(w, r)
	case http.MethodGet:
		h.handleListOrders(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	lines := make([]appOrder.CartLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, appOrder.CartLine{
			FoodItemID: item.FoodItemID,
			Quantity:   item.Quantity,
		})
	}

	o, err := h.orderService.PlaceOrder(r.Context(), appOrder.PlaceOrderInput{
		AccountID: req.AccountID,
		Lines:     lines,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.List(r.Context(), r.URL.Query().Get("account_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

type transitionRequest struct {
	ActorRole string `json:"actor_role"`
	Target    string `json:"target"`
}

func (h *Handler) handleOrderByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/orders/")

	if id, ok := strings.CutSuffix(rest, "/status"); ok {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}
		h.handleTransition(w, r, id)
		return
	}

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	o, err := h.orderService.Get(r.Context(), rest)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, orderID string) {
	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	o, err := h.orderService.Transition(r.Context(), appOrder.TransitionInput{
		OrderID: orderID,
		Actor:   domainOrder.Role(req.ActorRole),
		Target:  domainOrder.Status(req.Target),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type rechargeRequest struct {
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
}

type balanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	balance, err := h.walletService.Balance(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{AccountID: accountID, Balance: balance})
}

func (h *Handler) handleRecharge(w http.ResponseWriter, r *http.Request) {
	var req rechargeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.AccountID == "" {
		writeError(w, http.StatusBadRequest, errors.New("account_id is required"))
		return
	}

	balance, err := h.walletService.Recharge(r.Context(), req.AccountID, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{AccountID: req.AccountID, Balance: balance})
}

type menuItemResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"available"`
}

func (h *Handler) handleMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]menuItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, menuItemResponse{
			ID:        item.ID,
			Name:      item.Name,
			Price:     item.Price,
			Available: item.Available,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) method(method string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}
		handler(w, r)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainOrder.ErrNotFound),
		errors.Is(err, domainWallet.ErrAccountNotFound),
		errors.Is(err, domainMenu.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domainOrder.ErrForbidden):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, domainWallet.ErrInsufficientFunds),
		errors.Is(err, domainOrder.ErrStaleStatus),
		errors.Is(err, domainOrder.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domainOrder.ErrEmptyCart),
		errors.Is(err, domainOrder.ErrInvalidQuantity),
		errors.Is(err, domainOrder.ErrInvalidPrice),
		errors.Is(err, domainWallet.ErrInvalidAmount),
		errors.Is(err, appOrder.ErrItemUnavailable):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, appOrder.ErrTokenExhausted):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
