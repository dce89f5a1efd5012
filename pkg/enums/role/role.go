package role

import "strings"

type Role struct {
	Name string
}

func (r Role) Code() string {
	return r.Name
}

func (r Role) Label() string {
	parts := strings.Split(r.Name, "_")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

type Enum struct {
	Customer         Role
	Admin            Role
	Staff            Role
	HeadChef         Role
	DepartmentChef   Role
	Cook             Role
	DeliveryManager  Role
	Driver           Role
	MaitreHotel      Role
	ChecklistManager Role
}

var Roles = Enum{
	Customer:         Role{Name: "customer"},
	Admin:            Role{Name: "admin"},
	Staff:            Role{Name: "staff"},
	HeadChef:         Role{Name: "head_chef"},
	DepartmentChef:   Role{Name: "department_chef"},
	Cook:             Role{Name: "cook"},
	DeliveryManager:  Role{Name: "delivery_manager"},
	Driver:           Role{Name: "driver"},
	MaitreHotel:      Role{Name: "maitre_hotel"},
	ChecklistManager: Role{Name: "checklist_manager"},
}

var All = []Role{
	Roles.Customer,
	Roles.Admin,
	Roles.Staff,
	Roles.HeadChef,
	Roles.DepartmentChef,
	Roles.Cook,
	Roles.DeliveryManager,
	Roles.Driver,
	Roles.MaitreHotel,
	Roles.ChecklistManager,
}

// Kitchen groups the roles allowed to work production items.
var Kitchen = []string{
	Roles.Cook.Name,
	Roles.DepartmentChef.Name,
	Roles.HeadChef.Name,
	Roles.Admin.Name,
}

// Back office roles can see every order.
var BackOffice = []string{
	Roles.Admin.Name,
	Roles.Staff.Name,
}

func IsStaff(name string) bool {
	return name != "" && name != Roles.Customer.Name
}

func Valid(name string) bool {
	return ByName(name) != nil
}

// ByName returns the role for a given name, or nil if not found
func ByName(name string) *Role {
	for _, r := range All {
		if r.Name == name {
			return &r
		}
	}
	return nil
}
