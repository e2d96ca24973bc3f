package models

// RosterKind names one of the three people rosters the service maintains.
type RosterKind string

const (
	RosterInstructors RosterKind = "instructors"
	RosterHosts       RosterKind = "hosts"
	RosterTranslators RosterKind = "translators"
)

func (k RosterKind) Valid() bool {
	switch k {
	case RosterInstructors, RosterHosts, RosterTranslators:
		return true
	}
	return false
}

// RosterKinds returns all kinds in a stable order.
func RosterKinds() []RosterKind {
	return []RosterKind{RosterInstructors, RosterHosts, RosterTranslators}
}
