package banquet

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/auth"
)

var (
	admin   = auth.Principal{UserID: "a-1", Role: "admin"}
	maitre  = auth.Principal{UserID: "mh-1", Role: "maitre_hotel"}
	another = auth.Principal{UserID: "mh-2", Role: "maitre_hotel"}
)

// seedContract creates an event through the service and moves it to status.
func seedContract(t *testing.T, env *testEnv, in ContractInput, status string) *Contract {
	t.Helper()
	ctx := context.Background()
	c, err := env.service.CreateContract(ctx, admin, in)
	if err != nil {
		t.Fatalf("CreateContract() error = %v", err)
	}
	path := map[string][]string{
		StatusDraft:      nil,
		StatusConfirmed:  {StatusConfirmed},
		StatusInProgress: {StatusConfirmed, StatusInProgress},
		StatusCompleted:  {StatusConfirmed, StatusInProgress, StatusCompleted},
		StatusCancelled:  {StatusCancelled},
	}[status]
	for _, to := range path {
		if err := c.SetStatus(to, testNow); err != nil {
			t.Fatalf("SetStatus(%s) error = %v", to, err)
		}
	}
	return c
}

func TestCreateContract(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	c, err := env.service.CreateContract(ctx, admin, validInput("2025-03-14"))
	if err != nil {
		t.Fatalf("CreateContract() error = %v", err)
	}
	if c.Number != "EVT-20250310-0001" || c.Status != StatusDraft || c.CreatedBy != "a-1" {
		t.Errorf("contract = %s %s %s", c.Number, c.Status, c.CreatedBy)
	}
	if c.Staff == nil {
		t.Error("staff must be an empty list")
	}
	if n := env.notifications.forRecipient("mh-1", NotifyAssigned); len(n) != 1 || n[0].ContractID != c.ID.String() {
		t.Errorf("assigned notifications = %+v", n)
	}

	second, _ := env.service.CreateContract(ctx, admin, validInput("2025-03-15"))
	if second.Number != "EVT-20250310-0002" {
		t.Errorf("second number = %s", second.Number)
	}
}

func TestCreateContractFromOrder(t *testing.T) {
	tests := []struct {
		name        string
		orderNumber string
		clientName  string
		wantErr     error
		wantClient  string
	}{
		{name: "fillsClient", orderNumber: "cmd-20250301-000007", wantClient: "Lea Martin"},
		{name: "keepsGivenClient", orderNumber: "CMD-20250301-000007", clientName: "Acme Inc", wantClient: "Acme Inc"},
		{name: "unknownOrder", orderNumber: "CMD-19990101-000001", clientName: "Acme Inc", wantErr: ErrNotFound},
		{name: "noClient", wantErr: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			in := validInput("2025-03-14")
			in.OrderNumber, in.ClientName = tt.orderNumber, tt.clientName

			c, err := env.service.CreateContract(context.Background(), admin, in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("CreateContract() error = %v, want %v", err, tt.wantErr)
				}
				if len(env.contracts.contracts) != 0 {
					t.Error("failed creation stored a contract")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateContract() error = %v", err)
			}
			if c.ClientName != tt.wantClient || c.OrderID != "order-7" || c.ClientPhone != "555-0107" {
				t.Errorf("contract client = %q order %q phone %q", c.ClientName, c.OrderID, c.ClientPhone)
			}
		})
	}
}

func TestConfirmAndCancel(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	c := seedContract(t, env, validInput("2025-03-14"), StatusDraft)

	if _, err := env.service.Confirm(ctx, admin, c.ID); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if _, err := env.service.Confirm(ctx, admin, c.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second Confirm() error = %v", err)
	}
	if _, err := env.service.Cancel(ctx, admin, c.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if _, err := env.service.Confirm(ctx, admin, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Confirm(unknown) error = %v", err)
	}

	if n := env.notifications.forRecipient("mh-1", NotifyConfirmed); len(n) != 1 {
		t.Errorf("confirmed notifications = %d", len(n))
	}
	if n := env.notifications.forRecipient("mh-1", NotifyCancelled); len(n) != 1 {
		t.Errorf("cancelled notifications = %d", len(n))
	}
}

func TestAssignStaff(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		staff   []StaffAssignment
		wantErr error
	}{
		{name: "valid", status: StatusConfirmed, staff: []StaffAssignment{
			{UserID: "s-1", Name: "Sam", Position: "waiter", ArrivalTime: "16:30"},
			{Name: "Extra hand", Position: "bartender"},
		}},
		{name: "empty", status: StatusDraft, staff: nil},
		{name: "anonymous", status: StatusDraft, staff: []StaffAssignment{{Position: "waiter"}}, wantErr: ErrInvalidInput},
		{name: "badArrival", status: StatusDraft, staff: []StaffAssignment{{UserID: "s-1", ArrivalTime: "late"}}, wantErr: ErrInvalidInput},
		{name: "duplicate", status: StatusDraft, staff: []StaffAssignment{{UserID: "s-1"}, {UserID: "s-1"}}, wantErr: ErrInvalidInput},
		{name: "completed", status: StatusCompleted, staff: []StaffAssignment{{UserID: "s-1"}}, wantErr: ErrInvalidTransition},
		{name: "cancelled", status: StatusCancelled, staff: []StaffAssignment{{UserID: "s-1"}}, wantErr: ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			c := seedContract(t, env, validInput("2025-03-14"), tt.status)

			got, err := env.service.AssignStaff(context.Background(), admin, c.ID, tt.staff)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("AssignStaff() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("AssignStaff() error = %v", err)
			}
			if len(got.Staff) != len(tt.staff) {
				t.Errorf("staff = %d, want %d", len(got.Staff), len(tt.staff))
			}
			if n := env.notifications.forRecipient("mh-1", NotifyStaff); len(n) != 1 {
				t.Errorf("staff notifications = %d", len(n))
			}
		})
	}
}

func TestEventLifecycle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	c := seedContract(t, env, validInput("2025-03-10"), StatusDraft)

	if _, err := env.service.Start(ctx, maitre, c.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Start(draft) error = %v", err)
	}
	if _, err := env.service.Confirm(ctx, admin, c.ID); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if _, err := env.service.Start(ctx, another, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Start() by another maître d'hôtel error = %v", err)
	}
	started, err := env.service.Start(ctx, maitre, c.ID)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if started.Status != StatusInProgress || started.StartedAt == nil {
		t.Errorf("started = %s %v", started.Status, started.StartedAt)
	}

	dash, err := env.service.Dashboard(ctx, maitre, "")
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if dash.Current == nil || dash.Current.ID != c.ID || dash.Stats.InProgress != 1 {
		t.Errorf("dashboard current = %v, stats = %+v", dash.Current, dash.Stats)
	}

	if _, err := env.service.AddTimeline(ctx, maitre, c.ID, TimelineInput{ActionType: ActionNote}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("AddTimeline() without description error = %v", err)
	}
	issue, err := env.service.AddTimeline(ctx, maitre, c.ID, TimelineInput{
		ActionType:  ActionIssue,
		Description: "Short on champagne flutes",
		IsIssue:     true,
	})
	if err != nil {
		t.Fatalf("AddTimeline() error = %v", err)
	}
	if !issue.IsImportant || issue.CreatedBy != "mh-1" {
		t.Errorf("issue entry = %+v", issue)
	}

	if _, err := env.service.UploadPhoto(ctx, maitre, c.ID, PhotoInput{PhotoType: "selfie", Data: "aGk="}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("UploadPhoto(selfie) error = %v", err)
	}
	if _, err := env.service.UploadPhoto(ctx, maitre, c.ID, PhotoInput{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("UploadPhoto() without data error = %v", err)
	}
	ph, err := env.service.UploadPhoto(ctx, maitre, c.ID, PhotoInput{Caption: " Tables ", Data: "aGk="})
	if err != nil {
		t.Fatalf("UploadPhoto() error = %v", err)
	}
	if ph.PhotoType != PhotoService || ph.Caption != "Tables" || ph.ReportID != nil {
		t.Errorf("photo = %+v", ph)
	}
	if len(env.media.uploads) != 1 || env.media.uploads[0].OwnerType != "event" || env.media.uploads[0].OwnerID != c.ID.String() {
		t.Errorf("uploads = %+v", env.media.uploads)
	}

	if _, err := env.service.Complete(ctx, maitre, c.ID); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if _, err := env.service.Complete(ctx, maitre, c.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second Complete() error = %v", err)
	}

	detail, err := env.service.Detail(ctx, maitre, c.ID)
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if len(detail.Timeline) != 3 || detail.Timeline[0].ActionType != ActionEventEnd || detail.Timeline[2].ActionType != ActionEventStart {
		t.Errorf("timeline = %+v", detail.Timeline)
	}
	if len(detail.Photos) != 1 || detail.Report != nil || detail.Contract.CompletedAt == nil {
		t.Errorf("detail = %+v", detail)
	}
	if _, err := env.service.Detail(ctx, another, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Detail() by another maître d'hôtel error = %v", err)
	}
	if _, err := env.service.Detail(ctx, admin, c.ID); err != nil {
		t.Errorf("Detail() by admin error = %v", err)
	}
}

func TestReportWorkflow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	running := seedContract(t, env, validInput("2025-03-09"), StatusInProgress)
	done := seedContract(t, env, validInput("2025-03-08"), StatusCompleted)
	in := ReportInput{OverallRating: 4, ClientSatisfaction: 5, ServiceNotes: " Smooth "}

	if _, err := env.service.CreateReport(ctx, maitre, running.ID, in); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("CreateReport(running) error = %v", err)
	}
	if _, err := env.service.CreateReport(ctx, maitre, done.ID, ReportInput{OverallRating: 4}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("CreateReport() without satisfaction error = %v", err)
	}
	if _, err := env.service.CreateReport(ctx, another, done.ID, in); !errors.Is(err, ErrNotFound) {
		t.Fatalf("CreateReport() by another maître d'hôtel error = %v", err)
	}

	r, err := env.service.CreateReport(ctx, maitre, done.ID, in)
	if err != nil {
		t.Fatalf("CreateReport() error = %v", err)
	}
	if r.Number != "RPT-20250310-0001" || r.Status != ReportDraft || r.ServiceNotes != "Smooth" || r.ContractNumber != done.Number {
		t.Errorf("report = %+v", r)
	}
	if _, err := env.service.CreateReport(ctx, maitre, done.ID, in); !errors.Is(err, ErrExists) {
		t.Fatalf("second CreateReport() error = %v", err)
	}

	ph, err := env.service.UploadPhoto(ctx, maitre, done.ID, PhotoInput{PhotoType: PhotoCleanup, Data: "aGk="})
	if err != nil {
		t.Fatalf("UploadPhoto() error = %v", err)
	}
	if ph.ReportID == nil || *ph.ReportID != r.ID {
		t.Errorf("photo report = %v, want %s", ph.ReportID, r.ID)
	}

	in.OverallRating = 3
	if updated, err := env.service.UpdateReport(ctx, maitre, r.ID, in); err != nil || updated.OverallRating != 3 {
		t.Fatalf("UpdateReport() = %v, %v", updated, err)
	}
	if _, err := env.service.GetReport(ctx, another, r.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetReport() by another maître d'hôtel error = %v", err)
	}

	if _, err := env.service.SubmitReport(ctx, maitre, r.ID); err != nil {
		t.Fatalf("SubmitReport() error = %v", err)
	}
	if n := env.notifications.forRecipient("a-1", NotifyReport); len(n) != 1 || n[0].ContractID != done.ID.String() {
		t.Errorf("admin notifications = %+v", n)
	}
	if _, err := env.service.UpdateReport(ctx, maitre, r.ID, in); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("UpdateReport(submitted) error = %v", err)
	}

	approved, err := env.service.ApproveReport(ctx, admin, r.ID)
	if err != nil {
		t.Fatalf("ApproveReport() error = %v", err)
	}
	if approved.Status != ReportApproved || approved.ApprovedBy != "a-1" {
		t.Errorf("approved = %+v", approved)
	}
	if n := env.notifications.forRecipient("mh-1", NotifyApproved); len(n) != 1 {
		t.Errorf("approved notifications = %d", len(n))
	}
}

func TestDashboardAndPlanning(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	seedContract(t, env, validInput("2025-03-10"), StatusCompleted)
	seedContract(t, env, validInput("2025-03-10"), StatusConfirmed)
	seedContract(t, env, validInput("2025-03-12"), StatusConfirmed)
	seedContract(t, env, validInput("2025-03-13"), StatusCancelled)
	seedContract(t, env, validInput("2025-03-20"), StatusDraft)
	other := validInput("2025-03-11")
	other.MaitreHotelID = "mh-2"
	seedContract(t, env, other, StatusConfirmed)

	dash, err := env.service.Dashboard(ctx, maitre, "2025-03-10")
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	want := DashboardStats{Total: 2, Completed: 1, Pending: 1}
	if dash.Stats != want {
		t.Errorf("stats = %+v, want %+v", dash.Stats, want)
	}
	if dash.Current != nil {
		t.Errorf("current = %v, want none", dash.Current)
	}
	if len(dash.Upcoming) != 1 || dash.Upcoming[0].Date != "2025-03-12" {
		t.Errorf("upcoming = %+v", dash.Upcoming)
	}
	if dash.UnreadNotifications != 5 {
		t.Errorf("unread = %d, want 5", dash.UnreadNotifications)
	}
	if _, err := env.service.Dashboard(ctx, maitre, "tomorrow"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Dashboard(tomorrow) error = %v", err)
	}

	days, err := env.service.Planning(ctx, maitre, "2025-03-10")
	if err != nil {
		t.Fatalf("Planning() error = %v", err)
	}
	counts := []int{2, 0, 1, 1, 0, 0, 0}
	if len(days) != len(counts) {
		t.Fatalf("planning days = %d", len(days))
	}
	for i, d := range days {
		if len(d.Events) != counts[i] {
			t.Errorf("%s events = %d, want %d", d.Date, len(d.Events), counts[i])
		}
	}
	if days[6].Date != "2025-03-16" {
		t.Errorf("last day = %s", days[6].Date)
	}

	list, _ := env.service.List(ctx, maitre, ContractFilter{MaitreHotelID: "mh-2"})
	if len(list) != 5 {
		t.Errorf("maître d'hôtel list = %d, want own 5", len(list))
	}
	list, _ = env.service.List(ctx, admin, ContractFilter{})
	if len(list) != 6 {
		t.Errorf("admin list = %d, want 6", len(list))
	}
}

func TestNotificationsMarkRead(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	seedContract(t, env, validInput("2025-03-12"), StatusDraft)

	list, err := env.service.Notifications(ctx, maitre)
	if err != nil || len(list) != 1 {
		t.Fatalf("Notifications() = %d, %v", len(list), err)
	}
	dash, _ := env.service.Dashboard(ctx, maitre, "2025-03-12")
	if dash.UnreadNotifications != 0 {
		t.Errorf("unread after reading = %d", dash.UnreadNotifications)
	}
	if list, _ := env.service.Notifications(ctx, another); len(list) != 0 {
		t.Errorf("another maître d'hôtel sees %d notifications", len(list))
	}
}
