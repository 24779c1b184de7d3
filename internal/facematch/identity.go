// Package facematch provides nearest-neighbor face identification against
// a registry of known feature vectors.
package facematch

// UnknownName is the display name rendered for unidentified persons.
const UnknownName = "UNKNOWN"

// Identity is a tagged identification result: either a named known person
// or unknown. Alert cooldown policy is keyed on the variant, not on the
// display string.
type Identity struct {
	name  string
	known bool
}

// Unknown is the identity of an unidentified person.
var Unknown = Identity{}

// Known returns the identity of a recognized person.
func Known(name string) Identity {
	return Identity{name: name, known: true}
}

// IsKnown reports whether the identity names a registered person.
func (id Identity) IsKnown() bool {
	return id.known
}

// Name returns the registered name, or the empty string for Unknown.
func (id Identity) Name() string {
	return id.name
}

// String renders the identity for display and persistence.
func (id Identity) String() string {
	if !id.known {
		return UnknownName
	}
	return id.name
}
