package delivery

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appetiteclub/catering/pkg/event"
)

func TestPriorityFor(t *testing.T) {
	tests := []struct {
		name  string
		date  string
		total int64
		want  string
	}{
		{name: "sameDay", date: "2025-03-10", total: 1000, want: "urgent"},
		{name: "tomorrow", date: "2025-03-11", total: 1000, want: "urgent"},
		{name: "pastDate", date: "2025-03-05", total: 1000, want: "urgent"},
		{name: "threeDays", date: "2025-03-13", total: 1000, want: "high"},
		{name: "highValue", date: "2025-03-20", total: 50000, want: "high"},
		{name: "justBelowHighValue", date: "2025-03-20", total: 49999, want: "normal"},
		{name: "unparsable", date: "soon", total: 90000, want: "normal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PriorityFor("2025-03-10", tt.date, tt.total))
		})
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "DLV-20250310-0007", FormatNumber(testNow, 7))
}

func TestItemsDescription(t *testing.T) {
	items := []event.OrderItemSnapshot{{Name: "Lunch box", Quantity: 2}, {Name: "Salad", Quantity: 1}}
	assert.Equal(t, "2x Lunch box, 1x Salad", ItemsDescription(items))
	assert.Equal(t, "", ItemsDescription(nil))
}

func TestScheduledEnd(t *testing.T) {
	assert.Equal(t, "12:00", ScheduledEnd("11:30"))
	assert.Equal(t, "bad", ScheduledEnd("bad"))
}

func TestFromOrder(t *testing.T) {
	o := newOrder("CMD-20250310-000001", "2025-03-12", 20000)
	d := FromOrder(o.OrderSnapshot, "2025-03-10", "system", testNow)

	assert.Equal(t, TypeDelivery, d.Type)
	assert.Equal(t, StatusPending, d.Status)
	assert.Equal(t, "Jane Doe", d.CustomerName)
	assert.Equal(t, "11:30", d.ScheduledStart)
	assert.Equal(t, "12:00", d.ScheduledEnd)
	assert.Equal(t, "12x Lunch box", d.ItemsDescription)
	assert.Equal(t, "high", d.Priority)
	assert.Equal(t, DefaultDuration, d.Duration())
}

func TestSetStatus(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr error
	}{
		{name: "assign", from: StatusPending, to: StatusAssigned},
		{name: "fail", from: StatusInTransit, to: StatusFailed},
		{name: "retryFailed", from: StatusFailed, to: StatusAssigned},
		{name: "sameStatus", from: StatusAssigned, to: StatusAssigned, wantErr: ErrInvalidTransition},
		{name: "deliveredIsFinal", from: StatusDelivered, to: StatusFailed, wantErr: ErrInvalidTransition},
		{name: "cancelledIsFinal", from: StatusCancelled, to: StatusPending, wantErr: ErrInvalidTransition},
		{name: "unknown", from: StatusPending, to: "lost", wantErr: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Delivery{Status: tt.from}
			err := d.SetStatus(tt.to, "u-1", testNow)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.from, d.Status)
				assert.Empty(t, d.History)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, d.Status)
			assert.Equal(t, tt.from, d.PreviousStatus())
		})
	}

	d := &Delivery{Status: StatusInTransit}
	require.NoError(t, d.SetStatus(StatusDelivered, "u-1", testNow))
	require.NotNil(t, d.DeliveredAt)
	assert.True(t, d.DeliveredAt.Equal(testNow))
	assert.False(t, d.IsOpen())
}

func TestPickupOf(t *testing.T) {
	lat, long := 45.5, -73.6
	parent := &Delivery{
		ID:               uuid.New(),
		Type:             TypeDelivery,
		OrderID:          "o-1",
		Address:          "12 Main St",
		Latitude:         &lat,
		Longitude:        &long,
		ItemsDescription: "3x Chafing dish",
		Photos: []Photo{
			{MediaID: "m-1", Kind: PhotoDelivery, Caption: "lobby"},
			{MediaID: "m-2", Kind: PhotoIssue},
		},
	}

	p := PickupOf(parent, "2025-03-11", "15:00", "m-1", testNow.Add(time.Hour))

	assert.Equal(t, TypePickup, p.Type)
	require.NotNil(t, p.ParentID)
	assert.Equal(t, parent.ID, *p.ParentID)
	assert.Equal(t, &lat, p.Latitude)
	assert.Equal(t, "15:30", p.ScheduledEnd)
	assert.Equal(t, "Pickup: 3x Chafing dish", p.ItemsDescription)
	require.Len(t, p.Photos, 1)
	assert.Equal(t, PhotoPickup, p.Photos[0].Kind)
	assert.Equal(t, "m-1", p.Photos[0].MediaID)
	assert.Equal(t, "Delivery reference lobby", p.Photos[0].Caption)
	assert.Equal(t, PhotoDelivery, parent.Photos[0].Kind)
}
