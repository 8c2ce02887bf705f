package payments

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const providerSucceeded = "succeeded"

type providerPayment struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	Message         string `json:"message"`
	ConfirmationURL string `json:"confirmationUrl"`
}

// Provider ходит во внешний платёжный шлюз по HTTP
type Provider struct {
	client *resty.Client
	log    *zap.Logger
	now    func() time.Time
}

func NewProvider(baseURL, apiKey string, log *zap.Logger) *Provider {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{client: client, log: log, now: time.Now}
}

func (p *Provider) Checkout(ctx context.Context, req Request) (Invoice, error) {
	subtype, err := validate(req)
	if err != nil {
		return Invoice{}, err
	}
	now := p.now()
	txID := NewTransactionID(now)

	var created providerPayment
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"transactionId": txID,
			"amount":        req.Amount.StringFixed(2),
			"method":        req.Type,
			"subtype":       subtype,
			"reference":     req.Reference,
			"email":         req.Email,
		}).
		SetResult(&created).
		Post("/payments")
	if err != nil {
		return Invoice{}, fmt.Errorf("provider checkout: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return Invoice{}, fmt.Errorf("provider checkout status: %d", resp.StatusCode())
	}
	return Invoice{
		TransactionID: txID,
		ProviderID:    created.ID,
		Amount:        req.Amount,
		Fee:           Fee(req.Amount, req.Type, subtype),
		Type:          req.Type,
		Subtype:       subtype,
		Artifact:      Artifact{URL: created.ConfirmationURL},
		IssuedAt:      now,
	}, nil
}

func (p *Provider) Settle(ctx context.Context, inv Invoice) Outcome {
	var got providerPayment
	resp, err := p.client.R().
		SetContext(ctx).
		SetResult(&got).
		Get("/payments/" + inv.ProviderID)
	if err != nil {
		if ctx.Err() != nil {
			return expired(inv)
		}
		p.log.Warn("provider settle failed", zap.String("transaction_id", inv.TransactionID), zap.Error(err))
		return Outcome{Message: MsgGenericFailure, TransactionID: inv.TransactionID, Artifact: inv.Artifact, Fee: inv.Fee}
	}
	out := Outcome{TransactionID: inv.TransactionID, Artifact: inv.Artifact, Fee: inv.Fee}
	if resp.StatusCode() != http.StatusOK {
		out.Message = MsgGenericFailure
		return out
	}
	if got.Status == providerSucceeded {
		out.Success = true
		out.Message = successMessage(inv.Type, inv.Subtype)
		return out
	}
	out.Message = got.Message
	if out.Message == "" {
		out.Message = failureMessage(inv.Type, inv.Subtype)
	}
	return out
}
