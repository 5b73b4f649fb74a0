package formance

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"wallet-ledger-go/internal/models"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/sdkerrors"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

const (
	defaultLedgerName    = "wallet-ledger"
	defaultCurrency      = "NGN"
	mirrorRequestTimeout = 30 * time.Second
)

// currencyPrecision maps ISO currency codes to their minor unit exponent.
var currencyPrecision = map[string]int{
	"NGN": 2,
	"USD": 2,
	"EUR": 2,
	"GBP": 2,
	"KES": 2,
	"GHS": 2,
	"UGX": 0,
	"XOF": 0,
}

// Service mirrors committed wallet movements into a Formance Stack ledger.
// The local store stays authoritative; the mirror is written from the outbox.
type Service struct {
	client   *v3.Formance
	ledger   string
	currency string
}

// NewService builds an authenticated client for the stack and makes sure the
// mirror ledger exists.
func NewService(ctx context.Context, cfg models.FormanceConfig) (*Service, error) {
	if cfg.StackURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("formance mirror needs a stack URL and client credentials")
	}

	svc := &Service{
		ledger:   cfg.LedgerName,
		currency: strings.ToUpper(cfg.Currency),
	}
	if svc.ledger == "" {
		svc.ledger = defaultLedgerName
	}
	if svc.currency == "" {
		svc.currency = defaultCurrency
	}

	httpClient, err := newHTTPClient(mirrorRequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("unable to build formance http client: %w", err)
	}
	svc.client = v3.New(
		v3.WithServerURL(cfg.StackURL),
		v3.WithClient(httpClient),
		v3.WithSecurity(shared.Security{
			ClientID:     v3.Pointer(cfg.ClientID),
			ClientSecret: v3.Pointer(cfg.ClientSecret),
		}),
	)

	if err := svc.ensureLedger(ctx); err != nil {
		return nil, fmt.Errorf("unable to prepare ledger %s: %w", svc.ledger, err)
	}

	zap.L().Info("Formance mirror ready",
		zap.String("stack_url", cfg.StackURL),
		zap.String("ledger", svc.ledger),
		zap.String("asset", formanceAsset(svc.currency)))
	return svc, nil
}

// newHTTPClient returns an HTTP/2 capable client with a small idle pool
func newHTTPClient(timeout time.Duration) (*http.Client, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout / 2,
		MaxIdleConns:          4,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       2 * time.Minute,
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, err
	}
	return &http.Client{Transport: transport, Timeout: timeout}, nil
}

// ensureLedger creates the mirror ledger; an existing one is reused as is.
func (s *Service) ensureLedger(ctx context.Context) error {
	_, err := s.client.Ledger.V2.CreateLedger(ctx, operations.V2CreateLedgerRequest{
		Ledger: s.ledger,
		V2CreateLedgerRequest: shared.V2CreateLedgerRequest{
			Metadata: map[string]string{
				"application": "wallet-ledger",
				"currency":    s.currency,
			},
		},
	})
	var apiErr *sdkerrors.V2ErrorResponse
	switch {
	case err == nil:
		zap.L().Info("Mirror ledger created", zap.String("ledger", s.ledger))
	case errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumLedgerAlreadyExists:
		zap.L().Debug("Mirror ledger already exists", zap.String("ledger", s.ledger))
	default:
		return err
	}
	return nil
}

func (s *Service) Close() {}

// walletAddress is the ledger account holding a wallet's funds
func walletAddress(accountId string) string {
	return "wallets:users:" + accountId
}

// formanceAsset returns the asset in UMN notation, e.g. "NGN/2"
func formanceAsset(currency string) string {
	return fmt.Sprintf("%s/%d", currency, precisionFor(currency))
}

func precisionFor(currency string) int {
	if p, ok := currencyPrecision[currency]; ok {
		return p
	}
	return 2
}

// isConflictError reports a reference already used by another transaction
func isConflictError(err error) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumConflict
}

// isNotFoundError reports an unknown ledger account
func isNotFoundError(err error) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumNotFound
}
