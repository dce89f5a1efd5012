package banquet

import (
	"context"
	"fmt"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/day"
	"github.com/appetiteclub/catering/pkg/mediaclient"
)

const (
	timelineDetail  = 10
	photosDetail    = 6
	upcomingLimit   = 5
	upcomingDays    = 7
	notificationMax = 50
)

type DashboardStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Pending    int `json:"pending"`
}

type Dashboard struct {
	Date                string         `json:"date"`
	Events              []*Contract    `json:"events"`
	Stats               DashboardStats `json:"stats"`
	Current             *Contract      `json:"current_event,omitempty"`
	Upcoming            []*Contract    `json:"upcoming_events"`
	UnreadNotifications int            `json:"unread_notifications"`
}

// Dashboard gathers the maître d'hôtel's day.
func (s *Service) Dashboard(ctx context.Context, p auth.Principal, date string) (*Dashboard, error) {
	if date == "" {
		date = s.today()
	}
	if _, err := day.Parse(date); err != nil {
		return nil, fmt.Errorf("%w: date %q", ErrInvalidInput, date)
	}

	events, err := s.repos.Contracts.List(ctx, ContractFilter{MaitreHotelID: p.UserID, Date: date})
	if err != nil {
		return nil, err
	}
	dash := &Dashboard{Date: date, Events: events, Upcoming: []*Contract{}}
	now := s.now()
	clock := now.Format(day.TimeLayout)
	for _, c := range events {
		dash.Stats.Total++
		switch {
		case c.Status == StatusCompleted:
			dash.Stats.Completed++
		case c.Status == StatusInProgress:
			dash.Stats.InProgress++
		case c.IsPending():
			dash.Stats.Pending++
		}
		if dash.Current == nil && c.Running(day.Today(now), clock) {
			dash.Current = c
		}
	}

	from, _ := day.Add(date, 1)
	to, _ := day.Add(date, upcomingDays)
	dash.Upcoming, err = s.repos.Contracts.List(ctx, ContractFilter{
		MaitreHotelID: p.UserID,
		From:          from,
		To:            to,
		Statuses:      []string{StatusDraft, StatusConfirmed},
		Limit:         upcomingLimit,
	})
	if err != nil {
		return nil, err
	}

	notes, err := s.repos.Notifications.List(ctx, p.UserID, notificationMax)
	if err != nil {
		return nil, err
	}
	for _, n := range notes {
		if !n.Read {
			dash.UnreadNotifications++
		}
	}
	return dash, nil
}

type Detail struct {
	Contract *Contract         `json:"event"`
	Timeline []*TimelineEntry  `json:"timeline"`
	Photos   []*Photo          `json:"photos"`
	Staff    []StaffAssignment `json:"staff"`
	Report   *Report           `json:"report,omitempty"`
}

func (s *Service) Detail(ctx context.Context, p auth.Principal, id uuid.UUID) (*Detail, error) {
	c, err := s.GetFor(ctx, p, id)
	if err != nil {
		return nil, err
	}
	timeline, err := s.repos.Timeline.List(ctx, c.ID, timelineDetail)
	if err != nil {
		return nil, err
	}
	photos, err := s.repos.Photos.List(ctx, c.ID, photosDetail)
	if err != nil {
		return nil, err
	}
	report, err := s.repos.Reports.GetByContract(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &Detail{Contract: c, Timeline: timeline, Photos: photos, Staff: c.Staff, Report: report}, nil
}

// Start opens a confirmed event.
func (s *Service) Start(ctx context.Context, p auth.Principal, id uuid.UUID) (*Contract, error) {
	return s.move(ctx, p, id, StatusConfirmed, StatusInProgress, ActionEventStart, "Event started")
}

// Complete closes a running event. The report can be written afterwards.
func (s *Service) Complete(ctx context.Context, p auth.Principal, id uuid.UUID) (*Contract, error) {
	return s.move(ctx, p, id, StatusInProgress, StatusCompleted, ActionEventEnd, "Event finished")
}

func (s *Service) move(ctx context.Context, p auth.Principal, id uuid.UUID, from, to, action, description string) (*Contract, error) {
	c, err := s.GetFor(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if c.Status != from {
		return nil, fmt.Errorf("%w: event is %s, not %s", ErrInvalidTransition, c.Status, from)
	}
	if err := c.SetStatus(to, s.now()); err != nil {
		return nil, err
	}
	if err := s.repos.Contracts.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save contract %s: %w", c.Number, err)
	}
	if _, err := s.addTimeline(ctx, p, c, TimelineInput{ActionType: action, Description: description}); err != nil {
		return nil, err
	}
	s.logger.Info("event status changed", "number", c.Number, "status", to, "by", p.UserID)
	return c, nil
}

// AddTimeline records an entry. Issues are always flagged important.
func (s *Service) AddTimeline(ctx context.Context, p auth.Principal, id uuid.UUID, in TimelineInput) (*TimelineEntry, error) {
	in.ActionType = strings.TrimSpace(in.ActionType)
	in.Description = strings.TrimSpace(in.Description)
	if in.ActionType == "" || in.Description == "" {
		return nil, fmt.Errorf("%w: action_type and description are required", ErrInvalidInput)
	}
	c, err := s.GetFor(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return s.addTimeline(ctx, p, c, in)
}

func (s *Service) addTimeline(ctx context.Context, p auth.Principal, c *Contract, in TimelineInput) (*TimelineEntry, error) {
	e := &TimelineEntry{
		ID:          apt.GenerateNewID(),
		ContractID:  c.ID,
		ActionType:  in.ActionType,
		Description: in.Description,
		IsIssue:     in.IsIssue,
		IsImportant: in.IsIssue,
		CreatedBy:   p.UserID,
		Timestamp:   s.now(),
	}
	if err := s.repos.Timeline.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("store timeline entry: %w", err)
	}
	return e, nil
}

// UploadPhoto stores the picture through media and links it to the event.
func (s *Service) UploadPhoto(ctx context.Context, p auth.Principal, id uuid.UUID, in PhotoInput) (*Photo, error) {
	if in.PhotoType == "" {
		in.PhotoType = PhotoService
	}
	if !validPhotoType(in.PhotoType) {
		return nil, fmt.Errorf("%w: photo_type %q", ErrInvalidInput, in.PhotoType)
	}
	if in.Data == "" {
		return nil, fmt.Errorf("%w: no photo provided", ErrInvalidInput)
	}
	c, err := s.GetFor(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if s.media == nil {
		return nil, fmt.Errorf("media storage is not configured")
	}
	obj, err := s.media.Upload(ctx, mediaclient.UploadRequest{
		OwnerType: "event",
		OwnerID:   c.ID.String(),
		Kind:      mediaclient.KindPhoto,
		Caption:   in.Caption,
		Data:      in.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("store photo for %s: %w", c.Number, err)
	}

	ph := &Photo{
		ID:         apt.GenerateNewID(),
		ContractID: c.ID,
		MediaID:    obj.ID,
		URL:        obj.URL,
		PhotoType:  in.PhotoType,
		Caption:    strings.TrimSpace(in.Caption),
		TakenBy:    p.UserID,
		TakenAt:    s.now(),
	}
	if report, err := s.repos.Reports.GetByContract(ctx, c.ID); err == nil && report != nil {
		ph.ReportID = &report.ID
	}
	if err := s.repos.Photos.Create(ctx, ph); err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}
	return ph, nil
}

type PlanningDay struct {
	Date   string      `json:"date"`
	Events []*Contract `json:"events"`
}

// Planning lists the caller's events for the seven days from week.
func (s *Service) Planning(ctx context.Context, p auth.Principal, week string) ([]PlanningDay, error) {
	if week == "" {
		week = s.today()
	}
	dates, err := day.Week(week)
	if err != nil {
		return nil, fmt.Errorf("%w: week %q", ErrInvalidInput, week)
	}
	events, err := s.repos.Contracts.List(ctx, ContractFilter{
		MaitreHotelID: p.UserID,
		From:          dates[0],
		To:            dates[len(dates)-1],
	})
	if err != nil {
		return nil, err
	}
	byDate := map[string][]*Contract{}
	for _, c := range events {
		byDate[c.Date] = append(byDate[c.Date], c)
	}
	out := make([]PlanningDay, 0, len(dates))
	for _, d := range dates {
		list := byDate[d]
		if list == nil {
			list = []*Contract{}
		}
		out = append(out, PlanningDay{Date: d, Events: list})
	}
	return out, nil
}

// Notifications returns the latest notifications and marks them read.
func (s *Service) Notifications(ctx context.Context, p auth.Principal) ([]*Notification, error) {
	list, err := s.repos.Notifications.List(ctx, p.UserID, notificationMax)
	if err != nil {
		return nil, err
	}
	if _, err := s.repos.Notifications.MarkAllRead(ctx, p.UserID); err != nil {
		return nil, err
	}
	return list, nil
}
