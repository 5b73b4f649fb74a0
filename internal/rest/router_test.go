package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wallet-ledger-go/internal/api"
	"wallet-ledger-go/internal/auth"
	"wallet-ledger-go/internal/database"
	"wallet-ledger-go/internal/metrics"
	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

const testWebhookSecret = "test-webhook-secret"

type testEnv struct {
	router http.Handler
	ledger *api.LedgerService
	admins *api.AdminService
	db     *database.Service
}

func setupRouter(t *testing.T) (*testEnv, func()) {
	t.Helper()

	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "rest.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		PingTimeout:  time.Second,
		BusyTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	tokens, err := auth.NewTokenManager(models.AuthConfig{JWTSecret: "rest-secret", TokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}

	m := metrics.New()
	ledger := api.NewLedgerService(db,
		models.MovementConfig{MinWithdrawal: decimal.NewFromInt(1000), MaxRetries: 3},
		models.WebhookConfig{SecretHash: testWebhookSecret},
		api.WithMetrics(m))
	admins := api.NewAdminService(db, tokens)

	router := NewRouter(RouterConfig{
		Ledger:  ledger,
		Admins:  admins,
		Tokens:  tokens,
		Metrics: m,
	})
	return &testEnv{router: router, ledger: ledger, admins: admins, db: db}, db.Close
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var resp APIResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Invalid JSON response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, resp
}

func (e *testEnv) createAccount(t *testing.T, userName string) *models.Account {
	t.Helper()

	account, err := e.ledger.CreateAccount(context.Background(), models.CreateAccountRequest{
		UserName:  userName,
		Email:     userName + "@example.com",
		FirstName: userName,
	})
	if err != nil {
		t.Fatalf("CreateAccount(%s) failed: %v", userName, err)
	}
	return account
}

func dataField(t *testing.T, resp APIResponse, keys ...string) interface{} {
	t.Helper()

	var current interface{} = resp.Data
	for _, key := range keys {
		obj, ok := current.(map[string]interface{})
		if !ok {
			t.Fatalf("Expected object at %q in %+v", key, resp.Data)
		}
		current = obj[key]
	}
	return current
}

func TestDeposit_ReturnsCreatedEnvelope(t *testing.T) {
	env, cleanup := setupRouter(t)
	defer cleanup()
	env.createAccount(t, "alice")

	rec, resp := env.do(t, http.MethodPost, "/deposit",
		`{"userName":"alice","amount":5000,"description":"Initial deposit"}`, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp.Status != "success" || resp.Message != "Deposit successful" {
		t.Errorf("Unexpected envelope: %+v", resp)
	}
	if got := dataField(t, resp, "transaction", "balanceAfter"); got != "5000" {
		t.Errorf("Expected balanceAfter 5000, got %v", got)
	}
	if got := dataField(t, resp, "transaction", "type"); got != models.TransactionTypeDeposit {
		t.Errorf("Expected deposit, got %v", got)
	}
}

func TestMovements_ErrorStatuses(t *testing.T) {
	env, cleanup := setupRouter(t)
	defer cleanup()
	env.createAccount(t, "bob")
	env.createAccount(t, "carol")

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"invalid json", "/deposit", `{"userName":`, http.StatusBadRequest, msgInvalidBody},
		{"missing fields", "/api/transactions/deposit", `{"userName":"bob","amount":100}`, http.StatusBadRequest, api.MsgFieldsRequired},
		{"unknown user", "/deposit", `{"userName":"nobody","amount":100,"description":"x"}`, http.StatusNotFound, api.MsgUserNotFound},
		{"below minimum", "/withdraw", `{"userName":"bob","amount":500,"description":"x"}`, http.StatusBadRequest, "Minimum withdrawal amount is 1000"},
		{"insufficient funds", "/api/transactions/withdraw", `{"userName":"bob","amount":1500,"description":"x"}`, http.StatusBadRequest, api.MsgInsufficientFunds},
		{"same account", "/transfer", `{"senderUserName":"bob","receiverUserName":"bob","amount":10,"description":"x"}`, http.StatusBadRequest, api.MsgSameAccount},
		{"unknown receiver", "/transfer", `{"senderUserName":"bob","receiverUserName":"zed","amount":10,"description":"x"}`, http.StatusNotFound, api.MsgReceiverNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := env.do(t, http.MethodPost, tt.path, tt.body, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if resp.Status != "error" || resp.Message != tt.wantMsg {
				t.Errorf("Expected error %q, got %+v", tt.wantMsg, resp)
			}
		})
	}
}

func TestTransfer_MovesFunds(t *testing.T) {
	env, cleanup := setupRouter(t)
	defer cleanup()
	sender := env.createAccount(t, "dana")
	receiver := env.createAccount(t, "erin")

	if rec, _ := env.do(t, http.MethodPost, "/deposit", `{"userName":"dana","amount":2000,"description":"seed"}`, nil); rec.Code != http.StatusCreated {
		t.Fatalf("Seed deposit failed: %d", rec.Code)
	}

	rec, resp := env.do(t, http.MethodPost, "/api/transactions/transfer",
		`{"senderUserName":"dana","receiverUserName":"erin","amount":750,"description":"rent"}`, nil)
	if rec.Code != http.StatusCreated || resp.Message != api.MsgTransferSuccessful {
		t.Fatalf("Expected transfer success, got %d: %s", rec.Code, rec.Body.String())
	}

	s, _ := env.db.GetAccountById(context.Background(), sender.Id)
	r, _ := env.db.GetAccountById(context.Background(), receiver.Id)
	if !s.Balance.Equal(decimal.NewFromInt(1250)) || !r.Balance.Equal(decimal.NewFromInt(750)) {
		t.Errorf("Expected balances 1250/750, got %s/%s", s.Balance, r.Balance)
	}
}

func webhookBody(txRef, email string) string {
	return fmt.Sprintf(`{"event":"charge.completed","data":{"id":1,"tx_ref":%q,"flw_ref":"FLW-%s","amount":3000,"currency":"NGN","status":"successful","customer":{"email":%q}}}`,
		txRef, txRef, email)
}

func TestWebhook(t *testing.T) {
	env, cleanup := setupRouter(t)
	defer cleanup()
	env.createAccount(t, "carol")

	rec, resp := env.do(t, http.MethodPost, "/webhook", webhookBody("TX-1", "carol@example.com"),
		map[string]string{"signature": "wrong"})
	if rec.Code != http.StatusUnauthorized || resp.Message != api.MsgInvalidSignature {
		t.Fatalf("Expected 401 invalid signature, got %d: %s", rec.Code, rec.Body.String())
	}

	rec, resp = env.do(t, http.MethodPost, "/api/transactions/webhook", webhookBody("TX-1", "carol@example.com"),
		map[string]string{"verif-hash": testWebhookSecret})
	if rec.Code != http.StatusOK || resp.Message != api.MsgWebhookProcessed {
		t.Fatalf("Expected processed webhook, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := dataField(t, resp, "outcome"); got != models.WebhookOutcomeProcessed {
		t.Errorf("Expected processed outcome, got %v", got)
	}

	rec, resp = env.do(t, http.MethodPost, "/webhook", webhookBody("TX-1", "carol@example.com"),
		map[string]string{"signature": testWebhookSecret})
	if rec.Code != http.StatusOK || resp.Message != api.MsgAlreadyProcessed {
		t.Fatalf("Expected duplicate acknowledgement, got %d: %s", rec.Code, rec.Body.String())
	}

	rec, resp = env.do(t, http.MethodPost, "/webhook", `{"event":"transfer.completed","data":{}}`,
		map[string]string{"signature": testWebhookSecret})
	if rec.Code != http.StatusOK || resp.Message != api.MsgUnhandledEvent {
		t.Fatalf("Expected ignored event, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUserTransactions(t *testing.T) {
	env, cleanup := setupRouter(t)
	defer cleanup()
	account := env.createAccount(t, "frank")

	rec, resp := env.do(t, http.MethodGet, "/transactions/user/"+account.Id, "", nil)
	if rec.Code != http.StatusOK || resp.Message != "No transactions found for this user" {
		t.Fatalf("Expected empty history message, got %d: %s", rec.Code, rec.Body.String())
	}

	for i := 0; i < 3; i++ {
		env.do(t, http.MethodPost, "/deposit", `{"userName":"frank","amount":100,"description":"d"}`, nil)
	}

	rec, resp = env.do(t, http.MethodGet, "/api/transactions/user/"+account.Id+"?page=2&limit=2&type=deposit", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if got := dataField(t, resp, "pagination", "totalItems"); got != float64(3) {
		t.Errorf("Expected 3 total items, got %v", got)
	}
	if got := dataField(t, resp, "pagination", "totalPages"); got != float64(2) {
		t.Errorf("Expected 2 pages, got %v", got)
	}

	rec, _ = env.do(t, http.MethodGet, "/transactions/user/missing", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown user, got %d", rec.Code)
	}

	rec, _ = env.do(t, http.MethodGet, "/transactions/user/"+account.Id+"?type=refund", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid type, got %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env, cleanup := setupRouter(t)
	defer cleanup()

	rec, resp := env.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || resp.Status != "success" {
		t.Fatalf("Expected healthy response, got %d: %s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metricsRec := httptest.NewRecorder()
	env.router.ServeHTTP(metricsRec, req)
	if metricsRec.Code != http.StatusOK || !strings.Contains(metricsRec.Body.String(), "wallet_ledger_") {
		t.Errorf("Expected wallet_ledger metrics, got %d", metricsRec.Code)
	}

	rec, resp = env.do(t, http.MethodGet, "/nowhere", "", nil)
	if rec.Code != http.StatusNotFound || resp.Status != "error" {
		t.Errorf("Expected JSON 404, got %d", rec.Code)
	}
}

func signIn(t *testing.T, env *testEnv, email, password string) string {
	t.Helper()

	rec, resp := env.do(t, http.MethodPost, "/api/admin/signin",
		fmt.Sprintf(`{"email":%q,"password":%q}`, email, password), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Sign-in failed: %d %s", rec.Code, rec.Body.String())
	}
	token, _ := dataField(t, resp, "token").(string)
	if token == "" {
		t.Fatal("Expected a token")
	}
	return token
}

func TestAdminRoutes(t *testing.T) {
	env, cleanup := setupRouter(t)
	defer cleanup()
	ctx := context.Background()

	for _, req := range []models.CreateAdminRequest{
		{Email: "root@example.com", Password: "root-password", FirstName: "Root", Role: models.AdminRoleSuperAdmin},
		{Email: "ops@example.com", Password: "ops-password", FirstName: "Ops", Role: models.AdminRoleAdmin},
	} {
		if _, err := env.admins.CreateAdmin(ctx, req); err != nil {
			t.Fatalf("CreateAdmin failed: %v", err)
		}
	}
	account := env.createAccount(t, "gina")
	env.do(t, http.MethodPost, "/deposit", `{"userName":"gina","amount":4000,"description":"d"}`, nil)

	rec, resp := env.do(t, http.MethodGet, "/api/admin/dashboard", "", nil)
	if rec.Code != http.StatusUnauthorized || resp.Message != "Access denied. No token provided" {
		t.Fatalf("Expected 401 without token, got %d", rec.Code)
	}

	rec, _ = env.do(t, http.MethodPost, "/api/admin/signin", `{"email":"ops@example.com","password":"nope-nope"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 for bad password, got %d", rec.Code)
	}

	ops := map[string]string{"Authorization": "Bearer " + signIn(t, env, "ops@example.com", "ops-password")}
	root := map[string]string{"Authorization": "Bearer " + signIn(t, env, "root@example.com", "root-password")}

	rec, resp = env.do(t, http.MethodGet, "/api/admin/dashboard", "", ops)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected dashboard, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := dataField(t, resp, "totalUsers"); got != float64(1) {
		t.Errorf("Expected 1 user, got %v", got)
	}

	rec, _ = env.do(t, http.MethodGet, "/api/admin/admins", "", ops)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for admin role, got %d", rec.Code)
	}
	rec, _ = env.do(t, http.MethodGet, "/api/admin/admins", "", root)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for super-admin, got %d", rec.Code)
	}

	rec, resp = env.do(t, http.MethodPut, "/api/admin/users/"+account.Id+"/status", `{"status":"inactive"}`, ops)
	if rec.Code != http.StatusOK || dataField(t, resp, "active") != false {
		t.Fatalf("Expected deactivated user, got %d: %s", rec.Code, rec.Body.String())
	}
	rec, _ = env.do(t, http.MethodPut, "/api/admin/users/"+account.Id+"/status", `{"status":"deleted"}`, ops)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid status, got %d", rec.Code)
	}

	rec, resp = env.do(t, http.MethodGet, "/api/admin/transactions?type=deposit", "", ops)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected transactions, got %d", rec.Code)
	}
	transactions, _ := dataField(t, resp, "transactions").([]interface{})
	if len(transactions) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(transactions))
	}
	txId, _ := transactions[0].(map[string]interface{})["id"].(string)

	rec, _ = env.do(t, http.MethodPut, "/api/admin/transactions/"+txId+"/status", `{"status":"failed"}`, ops)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for status correction by admin, got %d", rec.Code)
	}
	rec, resp = env.do(t, http.MethodPut, "/api/admin/transactions/"+txId+"/status", `{"status":"failed","reason":"chargeback"}`, root)
	if rec.Code != http.StatusOK || dataField(t, resp, "status") != models.TransactionStatusFailed {
		t.Errorf("Expected corrected status, got %d: %s", rec.Code, rec.Body.String())
	}

	rec, resp = env.do(t, http.MethodGet, "/api/admin/profile", "", ops)
	if rec.Code != http.StatusOK || dataField(t, resp, "email") != "ops@example.com" {
		t.Errorf("Expected ops profile, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&api.Error{Kind: store.ErrValidation}, http.StatusBadRequest},
		{&api.Error{Kind: store.ErrInsufficientFunds}, http.StatusBadRequest},
		{&api.Error{Kind: store.ErrInvalidSignature}, http.StatusUnauthorized},
		{&api.Error{Kind: store.ErrUnauthorized}, http.StatusUnauthorized},
		{&api.Error{Kind: store.ErrForbidden}, http.StatusForbidden},
		{&api.Error{Kind: store.ErrNotFound}, http.StatusNotFound},
		{&api.Error{Kind: store.ErrConflict}, http.StatusConflict},
		{fmt.Errorf("store error: %w", store.ErrNotFound), http.StatusInternalServerError},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
