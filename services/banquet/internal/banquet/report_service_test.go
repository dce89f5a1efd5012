package banquet

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportStats(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	reports := []*Report{
		{ContractID: a, Status: ReportDraft, OverallRating: 4, ClientSatisfaction: 5},
		{ContractID: b, Status: ReportApproved, OverallRating: 5, ClientSatisfaction: 4},
		{ContractID: uuid.New(), Status: ReportSubmitted, OverallRating: 4, ClientSatisfaction: 4},
	}
	completed := []*Contract{{ID: a}, {ID: b}, {ID: c}}

	st := reportStats(reports, completed)

	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 1, st.Draft)
	assert.Equal(t, 1, st.Submitted)
	assert.Equal(t, 1, st.Approved)
	assert.Equal(t, 1, st.EventsWithoutReport)
	assert.Equal(t, 4.3, st.AverageRating)
	assert.Equal(t, 4.3, st.AverageSatisfaction)
}

func TestReportStatsEmpty(t *testing.T) {
	st := reportStats(nil, nil)
	assert.Zero(t, st.AverageRating)
	assert.Zero(t, st.Total)
}

func TestAverage(t *testing.T) {
	assert.Equal(t, 4.5, average(9, 2))
	assert.Equal(t, 3.7, average(11, 3))
	assert.Equal(t, 1.0, average(1, 1))
}

func TestListReports(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	first := seedContract(t, env, validInput("2025-03-01"), StatusCompleted)
	second := seedContract(t, env, validInput("2025-03-05"), StatusCompleted)
	seedContract(t, env, validInput("2025-03-07"), StatusCompleted)
	other := validInput("2025-03-06")
	other.MaitreHotelID = "mh-2"
	foreign := seedContract(t, env, other, StatusCompleted)

	r1, err := env.service.CreateReport(ctx, maitre, first.ID, ReportInput{OverallRating: 5, ClientSatisfaction: 5})
	require.NoError(t, err)
	_, err = env.service.CreateReport(ctx, maitre, second.ID, ReportInput{OverallRating: 4, ClientSatisfaction: 3})
	require.NoError(t, err)
	_, err = env.service.CreateReport(ctx, admin, foreign.ID, ReportInput{OverallRating: 1, ClientSatisfaction: 1})
	require.NoError(t, err)
	_, err = env.service.SubmitReport(ctx, maitre, r1.ID)
	require.NoError(t, err)

	list, err := env.service.ListReports(ctx, maitre, ReportFilter{Status: ReportSubmitted, MaitreHotelID: "mh-2"})
	require.NoError(t, err)
	require.Len(t, list.Reports, 1)
	assert.Equal(t, r1.ID, list.Reports[0].ID)
	assert.Equal(t, 2, list.Stats.Total)
	assert.Equal(t, 1, list.Stats.Draft)
	assert.Equal(t, 1, list.Stats.Submitted)
	assert.Equal(t, 1, list.Stats.EventsWithoutReport)
	assert.Equal(t, 4.5, list.Stats.AverageRating)
	assert.Equal(t, 4.0, list.Stats.AverageSatisfaction)

	all, err := env.service.ListReports(ctx, admin, ReportFilter{})
	require.NoError(t, err)
	assert.Len(t, all.Reports, 3)
	assert.Equal(t, 1, all.Stats.EventsWithoutReport)
}
