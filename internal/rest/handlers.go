package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"wallet-ledger-go/internal/api"
	"wallet-ledger-go/internal/models"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type movementData struct {
	Transaction *models.Transaction `json:"transaction"`
}

// LedgerHandler serves the wallet endpoints
type LedgerHandler struct {
	ledger *api.LedgerService
}

func NewLedgerHandler(ledger *api.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req models.DepositRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.ledger.Deposit(r.Context(), req)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, result.Message, movementData{Transaction: result.Transaction})
}

func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req models.WithdrawRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.ledger.Withdraw(r.Context(), req)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, result.Message, movementData{Transaction: result.Transaction})
}

func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.ledger.Transfer(r.Context(), req)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, result.Message, movementData{Transaction: result.Transaction})
}

// Webhook receives payment provider events. The raw body is passed through
// so the provider data can be stored verbatim.
func (h *LedgerHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	signature := r.Header.Get("signature")
	if signature == "" {
		signature = r.Header.Get("verif-hash")
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		zap.L().Warn("Failed to read webhook payload", zap.Error(err))
		Error(w, http.StatusBadRequest, api.MsgInvalidPayload)
		return
	}

	result, err := h.ledger.ProcessWebhook(r.Context(), signature, payload)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, result.Message, result)
}

func (h *LedgerHandler) UserTransactions(w http.ResponseWriter, r *http.Request) {
	query := models.TransactionQuery{
		Page:  queryInt(r, "page"),
		Limit: queryInt(r, "limit"),
		Type:  r.URL.Query().Get("type"),
	}

	page, err := h.ledger.GetUserTransactions(r.Context(), chi.URLParam(r, "userId"), query)
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	message := ""
	if page.Pagination.TotalItems == 0 {
		message = "No transactions found for this user"
	}
	JSON(w, http.StatusOK, message, page)
}

func (h *LedgerHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.HealthCheck(r.Context()); err != nil {
		zap.L().Error("Health check failed", zap.Error(err))
		Error(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	JSON(w, http.StatusOK, "OK", map[string]string{"database": "up"})
}

// decode reads a JSON body into dst, writing a 400 on failure
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		zap.L().Debug("Rejected request body", zap.String("path", r.URL.Path), zap.Error(err))
		Error(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}

// queryInt returns the integer query parameter, or zero so the listing
// defaults apply
func queryInt(r *http.Request, key string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return value
}
