package checklist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodFilter(t *testing.T) {
	tests := []struct {
		name    string
		period  string
		want    Filter
		wantErr bool
	}{
		{name: "all", period: "", want: Filter{}},
		{name: "today", period: PeriodToday, want: Filter{DeliveryDate: "2025-03-10"}},
		{name: "tomorrow", period: PeriodTomorrow, want: Filter{DeliveryDate: "2025-03-11"}},
		{name: "week", period: PeriodWeek, want: Filter{To: "2025-03-17"}},
		{name: "unknown", period: "month", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Filter
			err := periodFilter(&f, tt.period, "2025-03-10")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f)
		})
	}
}

func TestSortByUrgency(t *testing.T) {
	list := []*Checklist{
		{OrderNumber: "A", Priority: PriorityNormal, DeliveryDate: "2025-03-10", DeliveryTime: "08:00"},
		{OrderNumber: "B", Priority: PriorityUrgent, DeliveryDate: "2025-03-12", DeliveryTime: "08:00"},
		{OrderNumber: "C", Priority: PriorityNormal, DeliveryDate: "2025-03-10", DeliveryTime: "07:00"},
		{OrderNumber: "D", Priority: PriorityHigh, DeliveryDate: "2025-03-11", DeliveryTime: "12:00"},
		{OrderNumber: "E", Priority: PriorityUrgent, DeliveryDate: "2025-03-11", DeliveryTime: "18:00"},
	}
	SortByUrgency(list)

	var got []string
	for _, c := range list {
		got = append(got, c.OrderNumber)
	}
	assert.Equal(t, []string{"E", "B", "D", "C", "A"}, got)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	today := seedChecklist(t, env, "CMD-20250301-000001", PriorityNormal)
	seedChecklist(t, env, "CMD-20250301-000002", PriorityUrgent)
	seedChecklist(t, env, "CMD-20250301-000003", PriorityHigh)
	later := seedChecklist(t, env, "CMD-20250301-000004", PriorityNormal)
	_, err := env.service.Update(ctx, admin, later.ID, UpdateInput{AssignedTo: "cm-2"})
	require.NoError(t, err)
	_, err = env.service.ValidateItem(ctx, manager, today.Items[0].ID, ValidateInput{Action: ActionCheck})
	require.NoError(t, err)

	t.Run("assignee", func(t *testing.T) {
		dash, err := env.service.Dashboard(ctx, manager, "", "")
		require.NoError(t, err)
		require.Len(t, dash.Checklists, 3)
		assert.Equal(t, "CMD-20250301-000002", dash.Checklists[0].OrderNumber)
		assert.Equal(t, "CMD-20250301-000001", dash.Checklists[2].OrderNumber)
		assert.Equal(t, DashboardStats{Total: 3, Pending: 2, InProgress: 1, Today: 1, Urgent: 1}, dash.Stats)
		assert.Len(t, dash.Notifications, 4)
	})

	t.Run("admin", func(t *testing.T) {
		dash, err := env.service.Dashboard(ctx, admin, "", "")
		require.NoError(t, err)
		assert.Equal(t, 4, dash.Stats.Total)
		assert.Len(t, dash.Notifications, 5)
	})

	t.Run("week", func(t *testing.T) {
		dash, err := env.service.Dashboard(ctx, admin, "", PeriodWeek)
		require.NoError(t, err)
		assert.Equal(t, 3, dash.Stats.Total)
		assert.Equal(t, PeriodWeek, dash.Period)
	})

	t.Run("tomorrowPending", func(t *testing.T) {
		dash, err := env.service.Dashboard(ctx, manager, StatusPending, PeriodTomorrow)
		require.NoError(t, err)
		require.Len(t, dash.Checklists, 1)
		assert.Equal(t, "CMD-20250301-000002", dash.Checklists[0].OrderNumber)
		assert.Equal(t, StatusPending, dash.Status)
	})

	t.Run("inProgressToday", func(t *testing.T) {
		dash, err := env.service.Dashboard(ctx, manager, StatusInProgress, PeriodToday)
		require.NoError(t, err)
		require.Len(t, dash.Checklists, 1)
		assert.Equal(t, 33, dash.Checklists[0].Progress)
	})

	t.Run("badStatus", func(t *testing.T) {
		_, err := env.service.Dashboard(ctx, manager, "done", "")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("badPeriod", func(t *testing.T) {
		_, err := env.service.Dashboard(ctx, manager, "", "year")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
