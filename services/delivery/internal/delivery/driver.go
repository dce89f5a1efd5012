package delivery

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/day"
	"github.com/appetiteclub/catering/pkg/enums/role"
	"github.com/appetiteclub/catering/pkg/event"
	"github.com/appetiteclub/catering/pkg/mediaclient"
)

type DriverStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Failed    int `json:"failed"`
}

type DriverDashboard struct {
	Date                string      `json:"date"`
	Route               *Route      `json:"route,omitempty"`
	Deliveries          []*Delivery `json:"deliveries"`
	NextStop            *Stop       `json:"next_stop,omitempty"`
	Stats               DriverStats `json:"stats"`
	UnreadNotifications int         `json:"unread_notifications"`
}

// DriverDashboard shows the driver's route of the day with deliveries in stop order.
func (s *Service) DriverDashboard(ctx context.Context, p auth.Principal, date string) (*DriverDashboard, error) {
	if date == "" {
		date = s.today()
	}
	if _, err := day.Parse(date); err != nil {
		return nil, fmt.Errorf("%w: date %q", ErrInvalidInput, date)
	}

	dash := &DriverDashboard{Date: date, Deliveries: []*Delivery{}}
	routes, err := s.repos.Routes.List(ctx, RouteFilter{Date: date, DriverID: p.UserID})
	if err != nil {
		return nil, err
	}
	if len(routes) > 0 {
		dash.Route = routes[0]
		dash.NextStop = dash.Route.NextStop()
		deliveries, err := s.loadDeliveries(ctx, dash.Route.DeliveryIDs())
		if err != nil {
			return nil, err
		}
		for _, st := range dash.Route.Stops {
			d := deliveries[st.DeliveryID]
			dash.Deliveries = append(dash.Deliveries, d)
			dash.Stats.Total++
			switch d.Status {
			case StatusDelivered:
				dash.Stats.Completed++
			case StatusAssigned, StatusInTransit:
				dash.Stats.Pending++
			case StatusFailed:
				dash.Stats.Failed++
			}
		}
	}

	unread, err := s.repos.Notifications.List(ctx, p.Role, p.UserID, true)
	if err != nil {
		return nil, err
	}
	dash.UnreadNotifications = len(unread)
	return dash, nil
}

// ValidationInput carries base64 or data URL encoded photo and signature.
type ValidationInput struct {
	Photo        string   `json:"photo"`
	PhotoCaption string   `json:"photo_caption"`
	Signature    string   `json:"signature"`
	SignedBy     string   `json:"signed_by"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Notes        string   `json:"notes"`
}

type ValidationResult struct {
	Delivery     *Delivery `json:"delivery"`
	NextStop     *Stop     `json:"next_stop,omitempty"`
	NextDelivery *Delivery `json:"next_delivery,omitempty"`
}

// Validate records the hand-over of a delivery by the driver on its route.
func (s *Service) Validate(ctx context.Context, p auth.Principal, id uuid.UUID, in ValidationInput) (*ValidationResult, error) {
	d, err := s.driverDelivery(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if d.Status != StatusAssigned && d.Status != StatusInTransit {
		return nil, fmt.Errorf("%w: delivery is %s", ErrInvalidTransition, d.Status)
	}

	now := s.now()
	if in.Photo != "" {
		obj, err := s.upload(ctx, d, mediaclient.KindPhoto, in.Photo, in.PhotoCaption, in.Latitude, in.Longitude)
		if err != nil {
			return nil, err
		}
		kind := PhotoDelivery
		if d.Type == TypePickup {
			kind = PhotoPickup
		}
		d.Photos = append(d.Photos, Photo{
			MediaID:   obj.ID,
			Kind:      kind,
			URL:       obj.URL,
			Caption:   in.PhotoCaption,
			Latitude:  in.Latitude,
			Longitude: in.Longitude,
			TakenAt:   now,
		})
	}
	if in.Signature != "" {
		obj, err := s.upload(ctx, d, mediaclient.KindSignature, in.Signature, in.SignedBy, nil, nil)
		if err != nil {
			return nil, err
		}
		d.SignatureURL = obj.URL
		d.SignedBy = strings.TrimSpace(in.SignedBy)
	}
	if in.Latitude != nil && in.Longitude != nil {
		d.Latitude, d.Longitude = in.Latitude, in.Longitude
	}
	d.DeliveryNotes = strings.TrimSpace(in.Notes)

	if err := d.SetStatus(StatusDelivered, p.UserID, now); err != nil {
		return nil, err
	}
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	if d.Type == TypeDelivery {
		s.advanceOrder(ctx, d.OrderID, p.UserID)
	}

	res := &ValidationResult{Delivery: d}
	if d.RouteID != nil {
		r, err := s.repos.Routes.Get(ctx, *d.RouteID)
		if err != nil {
			return nil, err
		}
		if r != nil {
			res.NextStop = r.CompleteStop(d.ID, now)
			if err := s.repos.Routes.Save(ctx, r); err != nil {
				return nil, fmt.Errorf("save route: %w", err)
			}
			if res.NextStop != nil {
				res.NextDelivery, _ = s.repos.Deliveries.Get(ctx, res.NextStop.DeliveryID)
			}
		}
	}

	s.notify(ctx, &Notification{
		RecipientRole: role.Roles.DeliveryManager.Name,
		Type:          NotifyDelivered,
		Title:         "Delivered " + d.Number,
		Message:       fmt.Sprintf("%s delivered to %s", d.OrderNumber, d.CustomerName),
		DeliveryID:    d.ID.String(),
	})
	s.logger.Info("delivery validated", "number", d.Number, "driver_id", p.UserID)
	return res, nil
}

type IssueInput struct {
	IssueType   string `json:"issue_type"`
	Description string `json:"description"`
	Photo       string `json:"photo"`
}

// ReportIssue fails the delivery and alerts the managers.
func (s *Service) ReportIssue(ctx context.Context, p auth.Principal, id uuid.UUID, in IssueInput) (*Delivery, error) {
	in.IssueType = strings.TrimSpace(in.IssueType)
	in.Description = strings.TrimSpace(in.Description)
	if in.IssueType == "" || in.Description == "" {
		return nil, fmt.Errorf("%w: issue_type and description are required", ErrInvalidInput)
	}
	d, err := s.driverDelivery(ctx, p, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if in.Photo != "" {
		obj, err := s.upload(ctx, d, mediaclient.KindPhoto, in.Photo, "Issue: "+in.IssueType, nil, nil)
		if err != nil {
			return nil, err
		}
		d.Photos = append(d.Photos, Photo{MediaID: obj.ID, Kind: PhotoIssue, URL: obj.URL, Caption: "Issue: " + in.IssueType, TakenAt: now})
	}
	if err := d.SetStatus(StatusFailed, p.UserID, now); err != nil {
		return nil, err
	}
	d.IssueType = in.IssueType
	d.IssueDescription = in.Description
	d.DeliveryNotes = fmt.Sprintf("Issue (%s): %s", in.IssueType, in.Description)
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}

	s.notify(ctx, &Notification{
		RecipientRole: role.Roles.DeliveryManager.Name,
		Type:          NotifyIssue,
		Title:         "Delivery issue",
		Message:       fmt.Sprintf("Issue reported on %s: %s", d.Number, in.Description),
		Priority:      NotificationUrgent,
		DeliveryID:    d.ID.String(),
	})
	s.mailManagers(ctx, event.MailDeliveryIssue,
		fmt.Sprintf("Delivery issue %s (%s)", d.Number, in.IssueType),
		issueBody(d, in))
	s.logger.Info("delivery issue reported", "number", d.Number, "issue_type", in.IssueType)
	return d, nil
}

func issueBody(d *Delivery, in IssueInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Delivery: %s\n", d.Number)
	fmt.Fprintf(&b, "Order: %s\n", d.OrderNumber)
	fmt.Fprintf(&b, "Customer: %s (%s)\n", d.CustomerName, d.Phone)
	fmt.Fprintf(&b, "Address: %s, %s %s\n", d.Address, d.PostalCode, d.City)
	fmt.Fprintf(&b, "Issue: %s\n\n%s\n", in.IssueType, in.Description)
	return b.String()
}

// Retry puts a failed delivery back on the driver's list.
func (s *Service) Retry(ctx context.Context, p auth.Principal, id uuid.UUID) (*Delivery, error) {
	d, err := s.driverDelivery(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if d.Status != StatusFailed {
		return nil, fmt.Errorf("%w: delivery is not failed", ErrInvalidTransition)
	}
	if err := d.SetStatus(StatusAssigned, p.UserID, s.now()); err != nil {
		return nil, err
	}
	d.DeliveryNotes = ""
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// driverDelivery loads a delivery the caller may act on as a driver. Managers and
// admins act on any delivery.
func (s *Service) driverDelivery(ctx context.Context, p auth.Principal, id uuid.UUID) (*Delivery, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if isDriver(p) && d.DriverID != p.UserID {
		return nil, fmt.Errorf("%w: delivery is not on your route", ErrForbidden)
	}
	return d, nil
}

func (s *Service) upload(ctx context.Context, d *Delivery, kind, data, caption string, lat, long *float64) (*mediaclient.Object, error) {
	if s.media == nil {
		return nil, fmt.Errorf("media storage is not configured")
	}
	obj, err := s.media.Upload(ctx, mediaclient.UploadRequest{
		OwnerType: "delivery",
		OwnerID:   d.ID.String(),
		Kind:      kind,
		Caption:   caption,
		Latitude:  lat,
		Longitude: long,
		Data:      data,
	})
	if err != nil {
		return nil, fmt.Errorf("store %s for %s: %w", kind, d.Number, err)
	}
	return obj, nil
}
