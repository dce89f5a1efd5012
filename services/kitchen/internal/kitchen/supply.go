package kitchen

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/catering/pkg/money"
)

const (
	SupplyDraft     = "draft"
	SupplyPending   = "pending"
	SupplyApproved  = "approved"
	SupplyOrdered   = "ordered"
	SupplyReceived  = "received"
	SupplyCancelled = "cancelled"
)

var supplyTransitions = map[string][]string{
	SupplyDraft:    {SupplyPending, SupplyCancelled},
	SupplyPending:  {SupplyApproved, SupplyCancelled},
	SupplyApproved: {SupplyOrdered},
	SupplyOrdered:  {SupplyReceived},
}

type SupplyLine struct {
	Name      string  `json:"name" bson:"name"`
	Quantity  float64 `json:"quantity" bson:"quantity"`
	Unit      string  `json:"unit" bson:"unit"`
	UnitPrice int64   `json:"unit_price" bson:"unit_price"`
	Total     int64   `json:"total" bson:"total"`
}

// SupplyOrder is a department's ingredient request.
type SupplyOrder struct {
	ID          uuid.UUID    `json:"id" bson:"_id"`
	Department  string       `json:"department" bson:"department"`
	Status      string       `json:"status" bson:"status"`
	Lines       []SupplyLine `json:"lines" bson:"lines"`
	Total       int64        `json:"total" bson:"total"`
	Notes       string       `json:"notes,omitempty" bson:"notes,omitempty"`
	NeededBy    string       `json:"needed_by,omitempty" bson:"needed_by,omitempty"`
	CreatedBy   string       `json:"created_by" bson:"created_by"`
	ReviewedBy  string       `json:"reviewed_by,omitempty" bson:"reviewed_by,omitempty"`
	SubmittedAt *time.Time   `json:"submitted_at,omitempty" bson:"submitted_at,omitempty"`
	ReviewedAt  *time.Time   `json:"reviewed_at,omitempty" bson:"reviewed_at,omitempty"`
	ReceivedAt  *time.Time   `json:"received_at,omitempty" bson:"received_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" bson:"updated_at"`
}

// SetLines prices each line and the order total as Σ quantity × unit_price.
func (s *SupplyOrder) SetLines(lines []SupplyLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: a supply order needs at least one line", ErrInvalidInput)
	}
	var total int64
	for i := range lines {
		if lines[i].Name == "" || lines[i].Quantity <= 0 || lines[i].UnitPrice < 0 {
			return fmt.Errorf("%w: line %d is incomplete", ErrInvalidInput, i+1)
		}
		lines[i].Total = money.Cents(money.Decimal(lines[i].UnitPrice).Mul(decimal.NewFromFloat(lines[i].Quantity)))
		total += lines[i].Total
	}
	s.Lines = lines
	s.Total = total
	return nil
}

func (s *SupplyOrder) Transition(to, by string, now time.Time) error {
	allowed := false
	for _, next := range supplyTransitions[s.Status] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, s.Status, to)
	}

	switch to {
	case SupplyPending:
		s.SubmittedAt = &now
	case SupplyApproved:
		s.ReviewedBy = by
		s.ReviewedAt = &now
	case SupplyCancelled:
		if s.Status == SupplyPending {
			s.ReviewedBy = by
			s.ReviewedAt = &now
		}
	case SupplyReceived:
		s.ReceivedAt = &now
	}
	s.Status = to
	s.UpdatedAt = now
	return nil
}
