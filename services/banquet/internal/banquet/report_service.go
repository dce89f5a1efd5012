package banquet

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/catering/pkg/auth"
)

// CreateReport opens the draft report of a completed event. An event has one report.
func (s *Service) CreateReport(ctx context.Context, p auth.Principal, contractID uuid.UUID, in ReportInput) (*Report, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	c, err := s.GetFor(ctx, p, contractID)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: event is %s, reports follow completed events", ErrInvalidTransition, c.Status)
	}
	existing, err := s.repos.Reports.GetByContract(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: report %s covers this event", ErrExists, existing.Number)
	}

	now := s.now()
	r := &Report{
		ID:             apt.GenerateNewID(),
		ContractID:     c.ID,
		ContractNumber: c.Number,
		EventName:      c.Name,
		EventDate:      c.Date,
		MaitreHotelID:  c.MaitreHotelID,
		Status:         ReportDraft,
		CreatedAt:      now,
	}
	r.Apply(in, now)
	number, err := s.nextNumber(ctx, "RPT")
	if err != nil {
		return nil, err
	}
	r.Number = number
	if err := s.repos.Reports.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("store report: %w", err)
	}
	s.logger.Info("event report created", "number", r.Number, "contract", c.Number)
	return r, nil
}

func (s *Service) GetReport(ctx context.Context, p auth.Principal, id uuid.UUID) (*Report, error) {
	r, err := s.repos.Reports.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil || (!p.IsAdmin() && r.MaitreHotelID != p.UserID) {
		return nil, fmt.Errorf("report: %w", ErrNotFound)
	}
	return r, nil
}

// UpdateReport edits a draft.
func (s *Service) UpdateReport(ctx context.Context, p auth.Principal, id uuid.UUID, in ReportInput) (*Report, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	r, err := s.GetReport(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if r.Status != ReportDraft {
		return nil, fmt.Errorf("%w: only draft reports can be edited", ErrInvalidTransition)
	}
	r.Apply(in, s.now())
	if err := s.repos.Reports.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("save report %s: %w", r.Number, err)
	}
	return r, nil
}

// SubmitReport hands a draft to the admins.
func (s *Service) SubmitReport(ctx context.Context, p auth.Principal, id uuid.UUID) (*Report, error) {
	r, err := s.GetReport(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := r.Submit(s.now()); err != nil {
		return nil, err
	}
	if err := s.repos.Reports.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("save report %s: %w", r.Number, err)
	}
	s.notifyAdmins(ctx, NotifyReport, "Event report "+r.Number,
		fmt.Sprintf("%s (%s) rated %d/5", r.EventName, r.EventDate, r.OverallRating), &Contract{ID: r.ContractID})
	return r, nil
}

func (s *Service) ApproveReport(ctx context.Context, p auth.Principal, id uuid.UUID) (*Report, error) {
	r, err := s.GetReport(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := r.Approve(p.UserID, s.now()); err != nil {
		return nil, err
	}
	if err := s.repos.Reports.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("save report %s: %w", r.Number, err)
	}
	s.notify(ctx, r.MaitreHotelID, NotifyApproved, "Report approved: "+r.Number, r.EventName, &Contract{ID: r.ContractID})
	return r, nil
}

type ReportStats struct {
	Total               int     `json:"total"`
	Draft               int     `json:"draft"`
	Submitted           int     `json:"submitted"`
	Approved            int     `json:"approved"`
	EventsWithoutReport int     `json:"events_without_report"`
	AverageRating       float64 `json:"average_rating"`
	AverageSatisfaction float64 `json:"average_satisfaction"`
}

type ReportList struct {
	Reports []*Report   `json:"reports"`
	Stats   ReportStats `json:"stats"`
}

// ListReports filters the caller's reports. Stats always cover all of them.
func (s *Service) ListReports(ctx context.Context, p auth.Principal, f ReportFilter) (*ReportList, error) {
	owner := ""
	if !p.IsAdmin() {
		owner = p.UserID
	}
	f.MaitreHotelID = owner
	reports, err := s.repos.Reports.List(ctx, f)
	if err != nil {
		return nil, err
	}
	all, err := s.repos.Reports.List(ctx, ReportFilter{MaitreHotelID: owner})
	if err != nil {
		return nil, err
	}
	completed, err := s.repos.Contracts.List(ctx, ContractFilter{MaitreHotelID: owner, Statuses: []string{StatusCompleted}})
	if err != nil {
		return nil, err
	}
	return &ReportList{Reports: reports, Stats: reportStats(all, completed)}, nil
}

func reportStats(reports []*Report, completed []*Contract) ReportStats {
	var st ReportStats
	covered := map[uuid.UUID]bool{}
	rated, rating, satisfaction := int64(0), int64(0), int64(0)
	for _, r := range reports {
		st.Total++
		switch r.Status {
		case ReportDraft:
			st.Draft++
		case ReportSubmitted:
			st.Submitted++
		case ReportApproved:
			st.Approved++
		}
		covered[r.ContractID] = true
		if r.OverallRating > 0 {
			rated++
			rating += int64(r.OverallRating)
			satisfaction += int64(r.ClientSatisfaction)
		}
	}
	for _, c := range completed {
		if !covered[c.ID] {
			st.EventsWithoutReport++
		}
	}
	if rated > 0 {
		st.AverageRating = average(rating, rated)
		st.AverageSatisfaction = average(satisfaction, rated)
	}
	return st
}

// average rounds sum/n to one decimal.
func average(sum, n int64) float64 {
	return decimal.NewFromInt(sum).Div(decimal.NewFromInt(n)).Round(1).InexactFloat64()
}
