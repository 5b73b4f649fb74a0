package rest

import (
	"net/http"

	"wallet-ledger-go/internal/api"
	"wallet-ledger-go/internal/models"

	"github.com/go-chi/chi/v5"
)

// Account state values accepted by PUT /users/{id}/status
const (
	accountStatusActive   = "active"
	accountStatusInactive = "inactive"
)

// AdminHandler serves the administrative endpoints
type AdminHandler struct {
	admins *api.AdminService
	ledger *api.LedgerService
}

func NewAdminHandler(admins *api.AdminService, ledger *api.LedgerService) *AdminHandler {
	return &AdminHandler{admins: admins, ledger: ledger}
}

func (h *AdminHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.admins.SignIn(r.Context(), req)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, "Login successful", result)
}

func (h *AdminHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAdminRequest
	if !decode(w, r, &req) {
		return
	}

	admin, err := h.admins.CreateAdmin(r.Context(), req)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, "Admin created successfully", admin)
}

func (h *AdminHandler) Profile(w http.ResponseWriter, r *http.Request) {
	admin, err := h.admins.Profile(r.Context())
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, "", admin)
}

func (h *AdminHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.admins.ListAdmins(r.Context())
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, "", admins)
}

func (h *AdminHandler) UpdateAdminStatus(w http.ResponseWriter, r *http.Request) {
	var req models.StatusUpdateRequest
	if !decode(w, r, &req) {
		return
	}

	admin, err := h.admins.UpdateAdminStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, "Admin status updated", admin)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.ledger.ListAccounts(r.Context(), models.AccountQuery{
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, "", page)
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	account, err := h.ledger.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, "", account)
}

func (h *AdminHandler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	var req models.StatusUpdateRequest
	if !decode(w, r, &req) {
		return
	}

	var active bool
	switch req.Status {
	case accountStatusActive:
		active = true
	case accountStatusInactive:
		active = false
	default:
		Error(w, http.StatusBadRequest, api.MsgInvalidStatus)
		return
	}

	account, err := h.ledger.SetAccountActive(r.Context(), chi.URLParam(r, "id"), active)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, "User status updated", account)
}

func (h *AdminHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	page, err := h.ledger.ListTransactions(r.Context(), models.TransactionQuery{
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
		Type:   r.URL.Query().Get("type"),
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, "", page)
}

func (h *AdminHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transaction, err := h.ledger.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, "", transaction)
}

func (h *AdminHandler) UpdateTransactionStatus(w http.ResponseWriter, r *http.Request) {
	var req models.StatusUpdateRequest
	if !decode(w, r, &req) {
		return
	}

	transaction, err := h.ledger.UpdateTransactionStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, "Transaction status updated", transaction)
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ledger.DashboardStats(r.Context())
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, "", stats)
}
