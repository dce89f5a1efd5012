package operations

import (
	"net/url"
	"testing"
)

func TestHomePath(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{role: "customer", want: "/customer"},
		{role: "admin", want: "/admin"},
		{role: "head_chef", want: "/kitchen"},
		{role: "department_chef", want: "/kitchen"},
		{role: "cook", want: "/kitchen"},
		{role: "delivery_manager", want: "/delivery"},
		{role: "driver", want: "/delivery"},
		{role: "maitre_hotel", want: "/banquet"},
		{role: "checklist_manager", want: "/checklist"},
		{role: "staff", want: "/checklist"},
		{role: "unknown", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			if got := HomePath(tt.role); got != tt.want {
				t.Errorf("HomePath(%q) = %q, want %q", tt.role, got, tt.want)
			}
		})
	}
}

func TestGuard(t *testing.T) {
	tests := []struct {
		name   string
		area   Area
		role   string
		wantOK bool
		want   string
	}{
		{name: "adminInAdmin", area: AreaAdmin, role: "admin", wantOK: true},
		{name: "adminInKitchen", area: AreaKitchen, role: "admin", wantOK: true},
		{name: "adminInCustomer", area: AreaCustomer, role: "admin", want: "/"},
		{name: "checklistManagerInAdmin", area: AreaAdmin, role: "checklist_manager", want: "/checklist"},
		{name: "checklistManagerInKitchen", area: AreaKitchen, role: "checklist_manager", want: "/"},
		{name: "customerInAdmin", area: AreaAdmin, role: "customer", want: "/customer"},
		{name: "customerInKitchen", area: AreaKitchen, role: "customer", want: "/customer"},
		{name: "customerInDelivery", area: AreaDelivery, role: "customer", want: "/customer"},
		{name: "customerHome", area: AreaCustomer, role: "customer", wantOK: true},
		{name: "cookInDelivery", area: AreaDelivery, role: "cook", want: "/"},
		{name: "driverInDelivery", area: AreaDelivery, role: "driver", wantOK: true},
		{name: "driverInAdmin", area: AreaAdmin, role: "driver", want: "/"},
		{name: "maitreInBanquet", area: AreaBanquet, role: "maitre_hotel", wantOK: true},
		{name: "staffInChecklist", area: AreaChecklist, role: "staff", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Guard(tt.area, tt.role)
			if ok != tt.wantOK {
				t.Fatalf("Guard() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Guard() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSourceFor(t *testing.T) {
	tests := []struct {
		name        string
		area        Area
		role        string
		wantOK      bool
		wantService string
		wantPath    string
	}{
		{name: "customer", area: AreaCustomer, role: "customer", wantOK: true, wantService: "storefront", wantPath: "/dashboard/customer"},
		{name: "admin", area: AreaAdmin, role: "admin", wantOK: true, wantService: "order", wantPath: "/dashboard/admin"},
		{name: "headChef", area: AreaKitchen, role: "head_chef", wantOK: true, wantService: "kitchen", wantPath: "/dashboard/head-chef"},
		{name: "departmentChef", area: AreaKitchen, role: "department_chef", wantOK: true, wantService: "kitchen", wantPath: "/dashboard/department"},
		{name: "cook", area: AreaKitchen, role: "cook", wantOK: true, wantService: "kitchen", wantPath: "/dashboard/cook"},
		{name: "deliveryManager", area: AreaDelivery, role: "delivery_manager", wantOK: true, wantService: "delivery", wantPath: "/dashboard/manager"},
		{name: "driver", area: AreaDelivery, role: "driver", wantOK: true, wantService: "delivery", wantPath: "/dashboard/driver"},
		{name: "maitreHotel", area: AreaBanquet, role: "maitre_hotel", wantOK: true, wantService: "banquet", wantPath: "/dashboard"},
		{name: "checklistManager", area: AreaChecklist, role: "checklist_manager", wantOK: true, wantService: "checklist", wantPath: "/checklists"},
		{name: "adminVisitsKitchen", area: AreaKitchen, role: "admin", wantOK: true, wantService: "kitchen", wantPath: "/dashboard/head-chef"},
		{name: "adminVisitsDelivery", area: AreaDelivery, role: "admin", wantOK: true, wantService: "delivery", wantPath: "/dashboard/manager"},
		{name: "adminVisitsChecklist", area: AreaChecklist, role: "admin", wantOK: true, wantService: "checklist", wantPath: "/checklists"},
		{name: "cookVisitsDelivery", area: AreaDelivery, role: "cook"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, ok := SourceFor(tt.area, tt.role)
			if ok != tt.wantOK {
				t.Fatalf("SourceFor() ok = %v, want %v", ok, tt.wantOK)
			}
			if src.Service != tt.wantService || src.Path != tt.wantPath {
				t.Errorf("SourceFor() = %s %s, want %s %s", src.Service, src.Path, tt.wantService, tt.wantPath)
			}
		})
	}
}

func TestSourceWithQuery(t *testing.T) {
	src := Source{Service: "checklist", Path: "/checklists"}

	tests := []struct {
		name  string
		query url.Values
		want  string
	}{
		{name: "noFilters", query: url.Values{}, want: "/checklists"},
		{name: "periodAndStatus", query: url.Values{"period": {"week"}, "status": {"pending"}}, want: "/checklists?period=week&status=pending"},
		{name: "unknownDropped", query: url.Values{"role": {"admin"}, "date": {"2025-03-10"}}, want: "/checklists?date=2025-03-10"},
		{name: "emptyValuesDropped", query: url.Values{"date": {""}}, want: "/checklists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := src.WithQuery(tt.query); got != tt.want {
				t.Errorf("WithQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}
