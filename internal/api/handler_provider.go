package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mavics/swipetopay/internal/ledger"
	"github.com/mavics/swipetopay/internal/service"
)

// BusStatus reports broker connectivity for the health endpoint.
type BusStatus interface {
	IsConnected() bool
}

// Pinger reports store reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandlerProvider wraps the ledger service and exposes HTTP handlers.
type HandlerProvider struct {
	svc *service.Service
	bus BusStatus // nil when the broker is not configured
	db  Pinger
}

func NewHandler(svc *service.Service, busStatus BusStatus, db Pinger) *HandlerProvider {
	return &HandlerProvider{svc: svc, bus: busStatus, db: db}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- Response models ---
// Field names match what the dashboard already consumes, including the
// historical "lastTopup" and "type" spellings.

type cardResponse struct {
	UID        string      `json:"uid"`
	HolderName string      `json:"holderName"`
	Balance    json.Number `json:"balance"`
	LastTopup  json.Number `json:"lastTopup"`
	CreatedAt  string      `json:"createdAt"`
	UpdatedAt  string      `json:"updatedAt"`
}

type transactionResponse struct {
	ID            string      `json:"id"`
	UID           string      `json:"uid"`
	HolderName    string      `json:"holderName"`
	Type          string      `json:"type"`
	Amount        json.Number `json:"amount"`
	BalanceBefore json.Number `json:"balanceBefore"`
	BalanceAfter  json.Number `json:"balanceAfter"`
	Description   string      `json:"description"`
	Timestamp     string      `json:"timestamp"`
}

func toCardResponse(c *ledger.Card) cardResponse {
	return cardResponse{
		UID:        c.UID,
		HolderName: c.HolderName,
		Balance:    num(c.Balance),
		LastTopup:  num(c.LastAdjustment),
		CreatedAt:  c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toTransactionResponse(t *ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID.String(),
		UID:           t.UID,
		HolderName:    t.HolderName,
		Type:          string(t.Kind),
		Amount:        num(t.Amount),
		BalanceBefore: num(t.BalanceBefore),
		BalanceAfter:  num(t.BalanceAfter),
		Description:   t.Description,
		Timestamp:     t.Timestamp.UTC().Format(time.RFC3339),
	}
}

func num(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// --- Handlers ---

// flexNumber accepts a JSON number or a numeric string; the card readers
// and the dashboard have historically sent both.
type flexNumber string

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string

		err := json.Unmarshal(b, &s)
		if err != nil {
			return err
		}

		*n = flexNumber(s)

		return nil
	}

	*n = flexNumber(b)

	return nil
}

type topupRequest struct {
	UID        string     `json:"uid"`
	Amount     flexNumber `json:"amount"`
	HolderName string     `json:"holderName"`
}

// TopupHandler handles POST /topup. Negative amounts are debits.
func (h *HandlerProvider) TopupHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	var req topupRequest

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(&req)
	if err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "empty body")
			return
		}

		writeError(w, http.StatusBadRequest, "invalid JSON")

		return
	}

	if req.UID == "" || req.Amount == "" {
		writeError(w, http.StatusBadRequest, "uid and amount are required")
		return
	}

	amount, err := decimal.NewFromString(string(req.Amount))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	res, err := h.svc.Adjust(r.Context(), service.AdjustRequest{
		UID:        req.UID,
		Amount:     amount,
		HolderName: req.HolderName,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrHolderNameRequired):
			writeError(w, http.StatusBadRequest, "holder name is required for new cards")
		case errors.Is(err, ledger.ErrInvalidUID):
			writeError(w, http.StatusBadRequest, "uid and amount are required")
		case errors.Is(err, ledger.ErrInsufficientBalance):
			writeError(w, http.StatusConflict, "insufficient balance")
		default:
			slog.Error("adjust failed", "uid", req.UID, "error", err)
			writeError(w, http.StatusInternalServerError, "database operation failed")
		}

		return
	}

	message := "Top-up successful"
	if res.Transaction.Kind == ledger.KindDebit {
		message = "Withdrawal successful"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     message,
		"card":        toCardResponse(res.Card),
		"transaction": toTransactionResponse(res.Transaction),
	})
}

// GetCardHandler handles GET /card/{uid}.
func (h *HandlerProvider) GetCardHandler(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	card, err := h.svc.GetCard(r.Context(), uid)
	if err != nil {
		if errors.Is(err, ledger.ErrCardNotFound) {
			writeError(w, http.StatusNotFound, "card not found")
			return
		}

		slog.Error("get card failed", "uid", uid, "error", err)
		writeError(w, http.StatusInternalServerError, "database operation failed")

		return
	}

	writeJSON(w, http.StatusOK, toCardResponse(card))
}

// ListCardsHandler handles GET /cards, most recently updated first.
func (h *HandlerProvider) ListCardsHandler(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.ListCards(r.Context())
	if err != nil {
		slog.Error("list cards failed", "error", err)
		writeError(w, http.StatusInternalServerError, "database operation failed")

		return
	}

	out := make([]cardResponse, len(cards))
	for i, c := range cards {
		out[i] = toCardResponse(c)
	}

	writeJSON(w, http.StatusOK, out)
}

// ListCardTransactionsHandler handles GET /transactions/{uid}?limit=N.
func (h *HandlerProvider) ListCardTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	trans, err := h.svc.ListTransactionsByCard(r.Context(), uid, limit)
	if err != nil {
		slog.Error("list card transactions failed", "uid", uid, "error", err)
		writeError(w, http.StatusInternalServerError, "database operation failed")

		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponses(trans))
}

// ListTransactionsHandler handles GET /transactions?limit=N, the global view.
func (h *HandlerProvider) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	trans, err := h.svc.ListTransactions(r.Context(), limit)
	if err != nil {
		slog.Error("list transactions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "database operation failed")

		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponses(trans))
}

// HealthHandler handles GET /health.
func (h *HandlerProvider) HealthHandler(w http.ResponseWriter, r *http.Request) {
	mqttStatus := "disconnected"
	if h.bus != nil && h.bus.IsConnected() {
		mqttStatus = "connected"
	}

	dbStatus := "connected"
	if h.db == nil || h.db.Ping(r.Context()) != nil {
		dbStatus = "error"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"backend":   "online",
		"mqtt":      mqttStatus,
		"database":  dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func toTransactionResponses(trans []*ledger.Transaction) []transactionResponse {
	out := make([]transactionResponse, len(trans))
	for i, t := range trans {
		out[i] = toTransactionResponse(t)
	}

	return out
}

// parseLimit reads the optional limit query param. Zero means "use the
// service default"; a malformed or negative value is a client error.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return 0, false
	}

	return limit, true
}
