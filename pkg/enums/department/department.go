package department

type Department struct {
	Name  string
	Title string
}

func (d Department) Code() string {
	return d.Name
}

func (d Department) Label() string {
	return d.Title
}

type Enum struct {
	Boxes      Department
	Salads     Department
	Pastry     Department
	Hot        Department
	Breakfast  Department
	Sandwiches Department
	Bites      Department
}

var Departments = Enum{
	Boxes:      Department{Name: "boxes", Title: "Lunch boxes"},
	Salads:     Department{Name: "salads", Title: "Salads"},
	Pastry:     Department{Name: "pastry", Title: "Pastry"},
	Hot:        Department{Name: "hot", Title: "Hot dishes"},
	Breakfast:  Department{Name: "breakfast", Title: "Breakfast"},
	Sandwiches: Department{Name: "sandwiches", Title: "Sandwiches"},
	Bites:      Department{Name: "bites", Title: "Bites"},
}

var All = []Department{
	Departments.Boxes,
	Departments.Salads,
	Departments.Pastry,
	Departments.Hot,
	Departments.Breakfast,
	Departments.Sandwiches,
	Departments.Bites,
}

// ByName returns the department for a given name, or nil if not found
func ByName(name string) *Department {
	for _, d := range All {
		if d.Name == name {
			return &d
		}
	}
	return nil
}

// OrDefault resolves a product department, falling back to lunch boxes.
func OrDefault(name string) string {
	if d := ByName(name); d != nil {
		return d.Name
	}
	return Departments.Boxes.Name
}
