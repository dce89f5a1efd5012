package orderstatus

import "strings"

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	if len(s.Name) == 0 {
		return ""
	}
	return strings.ToUpper(s.Name[:1]) + s.Name[1:]
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s.Name == Statuses.Delivered.Name || s.Name == Statuses.Cancelled.Name
}

type Enum struct {
	Pending   Status
	Confirmed Status
	Preparing Status
	Ready     Status
	Delivered Status
	Cancelled Status
}

var Statuses = Enum{
	Pending:   Status{Name: "pending"},
	Confirmed: Status{Name: "confirmed"},
	Preparing: Status{Name: "preparing"},
	Ready:     Status{Name: "ready"},
	Delivered: Status{Name: "delivered"},
	Cancelled: Status{Name: "cancelled"},
}

var All = []Status{
	Statuses.Pending,
	Statuses.Confirmed,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.Delivered,
	Statuses.Cancelled,
}

var transitions = map[string][]string{
	"pending":   {"confirmed", "cancelled"},
	"confirmed": {"preparing", "cancelled"},
	"preparing": {"ready", "cancelled"},
	"ready":     {"delivered"},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanDeliver reports whether a driver may hand over an order in status from.
// Kitchen steps the order has not been through yet are skipped.
func CanDeliver(from string) bool {
	switch from {
	case Statuses.Confirmed.Name, Statuses.Preparing.Name, Statuses.Ready.Name:
		return true
	}
	return false
}

// InProduction lists the statuses for which the kitchen still has work to dispatch.
func InProduction(name string) bool {
	return name == Statuses.Confirmed.Name || name == Statuses.Preparing.Name
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}
