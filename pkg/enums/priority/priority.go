package priority

type Priority struct {
	Name string
	Rank int
}

func (p Priority) Code() string {
	return p.Name
}

type Enum struct {
	Normal Priority
	High   Priority
	Urgent Priority
}

var Priorities = Enum{
	Normal: Priority{Name: "normal", Rank: 0},
	High:   Priority{Name: "high", Rank: 1},
	Urgent: Priority{Name: "urgent", Rank: 2},
}

var All = []Priority{
	Priorities.Normal,
	Priorities.High,
	Priorities.Urgent,
}

// ByName returns the priority for a given name, or nil if not found
func ByName(name string) *Priority {
	for _, p := range All {
		if p.Name == name {
			return &p
		}
	}
	return nil
}

// Rank returns the sort rank of a priority name, unknown names rank as normal.
func Rank(name string) int {
	if p := ByName(name); p != nil {
		return p.Rank
	}
	return Priorities.Normal.Rank
}
