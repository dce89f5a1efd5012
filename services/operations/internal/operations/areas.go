package operations

import (
	"net/url"
	"slices"

	"github.com/appetiteclub/catering/pkg/enums/role"
)

// Area is a section of the console reserved to a set of roles.
type Area struct {
	Name  string
	Path  string
	Roles []string
}

// Source is the JSON dashboard a page is rendered from.
type Source struct {
	Service string
	Path    string
	Title   string
}

var (
	roles = role.Roles

	AreaCustomer  = Area{Name: "customer", Path: "/customer", Roles: []string{roles.Customer.Name}}
	AreaAdmin     = Area{Name: "admin", Path: "/admin", Roles: []string{roles.Admin.Name}}
	AreaKitchen   = Area{Name: "kitchen", Path: "/kitchen", Roles: []string{roles.HeadChef.Name, roles.DepartmentChef.Name, roles.Cook.Name, roles.Admin.Name}}
	AreaDelivery  = Area{Name: "delivery", Path: "/delivery", Roles: []string{roles.DeliveryManager.Name, roles.Driver.Name, roles.Admin.Name}}
	AreaBanquet   = Area{Name: "banquet", Path: "/banquet", Roles: []string{roles.MaitreHotel.Name, roles.Admin.Name}}
	AreaChecklist = Area{Name: "checklist", Path: "/checklist", Roles: []string{roles.ChecklistManager.Name, roles.Staff.Name, roles.Admin.Name}}

	Areas = []Area{AreaCustomer, AreaAdmin, AreaKitchen, AreaDelivery, AreaBanquet, AreaChecklist}
)

// homeAreas maps every role to the area it lands on.
var homeAreas = map[string]Area{
	roles.Customer.Name:         AreaCustomer,
	roles.Admin.Name:            AreaAdmin,
	roles.HeadChef.Name:         AreaKitchen,
	roles.DepartmentChef.Name:   AreaKitchen,
	roles.Cook.Name:             AreaKitchen,
	roles.DeliveryManager.Name:  AreaDelivery,
	roles.Driver.Name:           AreaDelivery,
	roles.MaitreHotel.Name:      AreaBanquet,
	roles.ChecklistManager.Name: AreaChecklist,
	roles.Staff.Name:            AreaChecklist,
}

// roleSources are the dashboards each role reads in its home area.
var roleSources = map[string]Source{
	roles.Customer.Name:         {Service: "storefront", Path: "/dashboard/customer", Title: "My account"},
	roles.Admin.Name:            {Service: "order", Path: "/dashboard/admin", Title: "Administration"},
	roles.HeadChef.Name:         {Service: "kitchen", Path: "/dashboard/head-chef", Title: "Kitchen production"},
	roles.DepartmentChef.Name:   {Service: "kitchen", Path: "/dashboard/department", Title: "Department production"},
	roles.Cook.Name:             {Service: "kitchen", Path: "/dashboard/cook", Title: "Today's items"},
	roles.DeliveryManager.Name:  {Service: "delivery", Path: "/dashboard/manager", Title: "Deliveries"},
	roles.Driver.Name:           {Service: "delivery", Path: "/dashboard/driver", Title: "My route"},
	roles.MaitreHotel.Name:      {Service: "banquet", Path: "/dashboard", Title: "Events of the day"},
	roles.ChecklistManager.Name: {Service: "checklist", Path: "/checklists", Title: "Checklists"},
	roles.Staff.Name:            {Service: "checklist", Path: "/checklists", Title: "Checklists"},
}

// leadRoles give the dashboard an admin sees when visiting another area.
var leadRoles = map[string]string{
	AreaKitchen.Name:   roles.HeadChef.Name,
	AreaDelivery.Name:  roles.DeliveryManager.Name,
	AreaBanquet.Name:   roles.MaitreHotel.Name,
	AreaChecklist.Name: roles.ChecklistManager.Name,
}

// forwardedParams are the dashboard filters passed through to the services.
var forwardedParams = []string{"date", "status", "period"}

func (a Area) Allows(roleName string) bool {
	return slices.Contains(a.Roles, roleName)
}

// HomePath is where / sends a role. Unknown roles have no home.
func HomePath(roleName string) string {
	area, ok := homeAreas[roleName]
	if !ok {
		return ""
	}
	return area.Path
}

// Guard decides whether roleName may enter area. When it may not, the returned
// path is where the browser is sent instead.
func Guard(area Area, roleName string) (string, bool) {
	if area.Allows(roleName) {
		return "", true
	}
	switch {
	case roleName == roles.ChecklistManager.Name && area.Name == AreaAdmin.Name:
		return AreaChecklist.Path, false
	case roleName == roles.Customer.Name:
		return AreaCustomer.Path, false
	default:
		return "/", false
	}
}

// SourceFor returns the dashboard roleName reads in area.
func SourceFor(area Area, roleName string) (Source, bool) {
	if home, ok := homeAreas[roleName]; ok && home.Name == area.Name {
		src, ok := roleSources[roleName]
		return src, ok
	}
	if roleName == roles.Admin.Name {
		if lead, ok := leadRoles[area.Name]; ok {
			return roleSources[lead], true
		}
	}
	return Source{}, false
}

// WithQuery appends the supported filters of query to the source path.
func (s Source) WithQuery(query url.Values) string {
	v := url.Values{}
	for _, key := range forwardedParams {
		if val := query.Get(key); val != "" {
			v.Set(key, val)
		}
	}
	if len(v) == 0 {
		return s.Path
	}
	return s.Path + "?" + v.Encode()
}
