package contact

import (
	"context"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

const (
	SubjectGeneral   = "general"
	SubjectOrder     = "order"
	SubjectEvent     = "event"
	SubjectComplaint = "complaint"
	SubjectOther     = "other"
)

var Subjects = []string{SubjectGeneral, SubjectOrder, SubjectEvent, SubjectComplaint, SubjectOther}

var subjectLabels = map[string]string{
	SubjectGeneral:   "General question",
	SubjectOrder:     "Order",
	SubjectEvent:     "Event or banquet",
	SubjectComplaint: "Complaint",
	SubjectOther:     "Other",
}

type Submission struct {
	ID        uuid.UUID  `json:"id" bson:"_id"`
	Name      string     `json:"name" bson:"name"`
	Email     string     `json:"email" bson:"email"`
	Phone     string     `json:"phone,omitempty" bson:"phone,omitempty"`
	Subject   string     `json:"subject" bson:"subject"`
	Message   string     `json:"message" bson:"message"`
	Read      bool       `json:"is_read" bson:"is_read"`
	Answered  bool       `json:"is_answered" bson:"is_answered"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty" bson:"read_at,omitempty"`
}

func (s *Submission) GetID() uuid.UUID    { return s.ID }
func (s *Submission) ResourceType() string { return "contact-submission" }

// SubjectLabel is the human readable subject.
func (s *Submission) SubjectLabel() string {
	if l, ok := subjectLabels[s.Subject]; ok {
		return l
	}
	return s.Subject
}

type Input struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (in Input) Validate() error {
	var problems []string
	if strings.TrimSpace(in.Name) == "" {
		problems = append(problems, "name is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		problems = append(problems, "email is invalid")
	}
	if !slices.Contains(Subjects, in.Subject) {
		problems = append(problems, "subject must be one of "+strings.Join(Subjects, ", "))
	}
	if len(strings.TrimSpace(in.Message)) < 10 {
		problems = append(problems, "message must be at least 10 characters")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func (in Input) submission(now time.Time) *Submission {
	return &Submission{
		ID:        apt.GenerateNewID(),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:     strings.TrimSpace(in.Phone),
		Subject:   in.Subject,
		Message:   strings.TrimSpace(in.Message),
		CreatedAt: now,
	}
}

type Repo interface {
	Create(ctx context.Context, s *Submission) error
	Get(ctx context.Context, id uuid.UUID) (*Submission, error)
	List(ctx context.Context, unreadOnly bool) ([]*Submission, error)
	Save(ctx context.Context, s *Submission) error
}
