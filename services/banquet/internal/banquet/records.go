package banquet

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	PhotoSetup   = "setup"
	PhotoService = "service"
	PhotoCleanup = "cleanup"
	PhotoIssue   = "issue"

	ReportDraft     = "draft"
	ReportSubmitted = "submitted"
	ReportApproved  = "approved"

	NotifyAssigned  = "event_assigned"
	NotifyConfirmed = "event_confirmed"
	NotifyCancelled = "event_cancelled"
	NotifyStaff     = "staff_updated"
	NotifyReport    = "report_submitted"
	NotifyApproved  = "report_approved"
)

var photoTypes = []string{PhotoSetup, PhotoService, PhotoCleanup, PhotoIssue}

// TimelineEntry is one thing that happened during an event.
type TimelineEntry struct {
	ID          uuid.UUID `json:"id" bson:"_id"`
	ContractID  uuid.UUID `json:"contract_id" bson:"contract_id"`
	ActionType  string    `json:"action_type" bson:"action_type"`
	Description string    `json:"description" bson:"description"`
	IsIssue     bool      `json:"is_issue" bson:"is_issue"`
	IsImportant bool      `json:"is_important" bson:"is_important"`
	CreatedBy   string    `json:"created_by" bson:"created_by"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
}

type TimelineInput struct {
	ActionType  string `json:"action_type"`
	Description string `json:"description"`
	IsIssue     bool   `json:"is_issue"`
}

type Photo struct {
	ID         uuid.UUID  `json:"id" bson:"_id"`
	ContractID uuid.UUID  `json:"contract_id" bson:"contract_id"`
	ReportID   *uuid.UUID `json:"report_id,omitempty" bson:"report_id,omitempty"`
	MediaID    string     `json:"media_id" bson:"media_id"`
	URL        string     `json:"url" bson:"url"`
	PhotoType  string     `json:"photo_type" bson:"photo_type"`
	Caption    string     `json:"caption,omitempty" bson:"caption,omitempty"`
	TakenBy    string     `json:"taken_by" bson:"taken_by"`
	TakenAt    time.Time  `json:"taken_at" bson:"taken_at"`
}

type PhotoInput struct {
	PhotoType string `json:"photo_type"`
	Caption   string `json:"caption"`
	Data      string `json:"data"`
}

func validPhotoType(t string) bool {
	for _, v := range photoTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Notification is addressed to one user.
type Notification struct {
	ID          uuid.UUID  `json:"id" bson:"_id"`
	RecipientID string     `json:"recipient_id" bson:"recipient_id"`
	Type        string     `json:"type" bson:"type"`
	Title       string     `json:"title" bson:"title"`
	Message     string     `json:"message" bson:"message"`
	ContractID  string     `json:"contract_id,omitempty" bson:"contract_id,omitempty"`
	Read        bool       `json:"is_read" bson:"is_read"`
	ReadAt      *time.Time `json:"read_at,omitempty" bson:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
}

// Report is the maître d'hôtel's account of a finished event.
type Report struct {
	ID                 uuid.UUID  `json:"id" bson:"_id"`
	Number             string     `json:"report_number" bson:"report_number"`
	ContractID         uuid.UUID  `json:"contract_id" bson:"contract_id"`
	ContractNumber     string     `json:"contract_number" bson:"contract_number"`
	EventName          string     `json:"event_name" bson:"event_name"`
	EventDate          string     `json:"event_date" bson:"event_date"`
	MaitreHotelID      string     `json:"maitre_hotel_id" bson:"maitre_hotel_id"`
	OverallRating      int        `json:"overall_rating" bson:"overall_rating"`
	ClientSatisfaction int        `json:"client_satisfaction" bson:"client_satisfaction"`
	SetupNotes         string     `json:"setup_notes" bson:"setup_notes"`
	ServiceNotes       string     `json:"service_notes" bson:"service_notes"`
	CleanupNotes       string     `json:"cleanup_notes" bson:"cleanup_notes"`
	IssuesEncountered  string     `json:"issues_encountered" bson:"issues_encountered"`
	SolutionsApplied   string     `json:"solutions_applied" bson:"solutions_applied"`
	StaffPerformance   string     `json:"staff_performance" bson:"staff_performance"`
	ClientFeedback     string     `json:"client_feedback" bson:"client_feedback"`
	Recommendations    string     `json:"recommendations" bson:"recommendations"`
	Status             string     `json:"status" bson:"status"`
	SubmittedAt        *time.Time `json:"submitted_at,omitempty" bson:"submitted_at,omitempty"`
	ApprovedBy         string     `json:"approved_by,omitempty" bson:"approved_by,omitempty"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty" bson:"approved_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" bson:"updated_at"`
}

type ReportInput struct {
	OverallRating      int    `json:"overall_rating"`
	ClientSatisfaction int    `json:"client_satisfaction"`
	SetupNotes         string `json:"setup_notes"`
	ServiceNotes       string `json:"service_notes"`
	CleanupNotes       string `json:"cleanup_notes"`
	IssuesEncountered  string `json:"issues_encountered"`
	SolutionsApplied   string `json:"solutions_applied"`
	StaffPerformance   string `json:"staff_performance"`
	ClientFeedback     string `json:"client_feedback"`
	Recommendations    string `json:"recommendations"`
}

func (in ReportInput) Validate() error {
	if in.OverallRating < 1 || in.OverallRating > 5 {
		return fmt.Errorf("%w: overall_rating must be between 1 and 5", ErrInvalidInput)
	}
	if in.ClientSatisfaction < 1 || in.ClientSatisfaction > 5 {
		return fmt.Errorf("%w: client_satisfaction must be between 1 and 5", ErrInvalidInput)
	}
	return nil
}

// Apply copies the editable fields of in onto the report.
func (r *Report) Apply(in ReportInput, now time.Time) {
	r.OverallRating = in.OverallRating
	r.ClientSatisfaction = in.ClientSatisfaction
	r.SetupNotes = strings.TrimSpace(in.SetupNotes)
	r.ServiceNotes = strings.TrimSpace(in.ServiceNotes)
	r.CleanupNotes = strings.TrimSpace(in.CleanupNotes)
	r.IssuesEncountered = strings.TrimSpace(in.IssuesEncountered)
	r.SolutionsApplied = strings.TrimSpace(in.SolutionsApplied)
	r.StaffPerformance = strings.TrimSpace(in.StaffPerformance)
	r.ClientFeedback = strings.TrimSpace(in.ClientFeedback)
	r.Recommendations = strings.TrimSpace(in.Recommendations)
	r.UpdatedAt = now
}

func (r *Report) Submit(now time.Time) error {
	if r.Status != ReportDraft {
		return fmt.Errorf("%w: report is %s", ErrInvalidTransition, r.Status)
	}
	r.Status = ReportSubmitted
	r.SubmittedAt = &now
	r.UpdatedAt = now
	return nil
}

func (r *Report) Approve(by string, now time.Time) error {
	if r.Status != ReportSubmitted {
		return fmt.Errorf("%w: report is %s", ErrInvalidTransition, r.Status)
	}
	r.Status = ReportApproved
	r.ApprovedBy = by
	r.ApprovedAt = &now
	r.UpdatedAt = now
	return nil
}
