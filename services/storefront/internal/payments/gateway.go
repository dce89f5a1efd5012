package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
)

const (
	ChargeSuccessful = "successful"
	ChargeFailed     = "failed"
	ChargePending    = "pending"

	EventChargeComplete = "charge.complete"
)

// ChargeRequest is a card charge in the smallest currency unit.
type ChargeRequest struct {
	Amount    int64
	Currency  string
	CardToken string
	Metadata  map[string]string
}

type ChargeResult struct {
	ID             string            `json:"id"`
	Status         string            `json:"status"`
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	FailureCode    string            `json:"failure_code,omitempty"`
	FailureMessage string            `json:"failure_message,omitempty"`
	Metadata       map[string]string `json:"-"`
}

// VerifiedEvent is a gateway event fetched back from the gateway.
type VerifiedEvent struct {
	ID     string
	Key    string
	Charge *ChargeResult
}

// Gateway is the payment provider.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	RetrieveEvent(ctx context.Context, id string) (*VerifiedEvent, error)
}

type OmiseGateway struct {
	client *omise.Client
}

func NewOmiseGateway(publicKey, secretKey string) (*OmiseGateway, error) {
	c, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("cannot create omise client: %w", err)
	}
	return &OmiseGateway{client: c}, nil
}

// OmiseGatewayFromConfig reads payments.omise.public_key and payments.omise.secret_key.
func OmiseGatewayFromConfig(config *apt.Config) (*OmiseGateway, error) {
	pub, _ := config.GetString("payments.omise.public_key")
	sec, _ := config.GetString("payments.omise.secret_key")
	if pub == "" || sec == "" {
		return nil, fmt.Errorf("payments.omise.public_key and payments.omise.secret_key are required")
	}
	return NewOmiseGateway(pub, sec)
}

func (g *OmiseGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	meta := make(map[string]interface{}, len(req.Metadata))
	for k, v := range req.Metadata {
		meta[k] = v
	}

	ch := &omise.Charge{}
	op := &operations.CreateCharge{
		Amount:   req.Amount,
		Currency: req.Currency,
		Card:     req.CardToken,
		Metadata: meta,
	}
	if err := g.client.Do(ch, op); err != nil {
		return nil, fmt.Errorf("create charge: %w", err)
	}
	return chargeResult(ch), nil
}

func (g *OmiseGateway) RetrieveEvent(ctx context.Context, id string) (*VerifiedEvent, error) {
	ev := &omise.Event{}
	if err := g.client.Do(ev, &operations.RetrieveEvent{EventID: id}); err != nil {
		return nil, fmt.Errorf("retrieve event %s: %w", id, err)
	}

	out := &VerifiedEvent{ID: ev.ID, Key: ev.Key}
	if ev.Key != EventChargeComplete {
		return out, nil
	}

	// event data is untyped, round trip it into a charge
	raw, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, fmt.Errorf("encode event data: %w", err)
	}
	var ch omise.Charge
	if err := json.Unmarshal(raw, &ch); err != nil {
		return nil, fmt.Errorf("decode event charge: %w", err)
	}
	out.Charge = chargeResult(&ch)
	return out, nil
}

func chargeResult(ch *omise.Charge) *ChargeResult {
	res := &ChargeResult{
		ID:       ch.ID,
		Status:   string(ch.Status),
		Amount:   ch.Amount,
		Currency: ch.Currency,
		Metadata: map[string]string{},
	}
	if ch.FailureCode != nil {
		res.FailureCode = *ch.FailureCode
	}
	if ch.FailureMessage != nil {
		res.FailureMessage = *ch.FailureMessage
	}
	for k, v := range ch.Metadata {
		if s, ok := v.(string); ok {
			res.Metadata[k] = s
		}
	}
	return res
}
