// Package curriculum provides the curriculum editing state machine.
//
// The curriculum is a tree of sections, lessons, quiz questions and options. Every entity
// carries a temporary identifier assigned on the client (or by Hydrate) and, once saved,
// a persisted identifier assigned by the database. Reduce is a pure transition function
// over that tree and Editor wraps it into a stateful facade.
package curriculum

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Ref identifies a curriculum entity either by its persisted or by its temporary identifier.
//
// A Ref parsed from a decimal string carries both forms, so it matches a saved entity by its
// persisted ID and a never-saved entity whose temporary ID happens to be the same string.
type Ref struct {
	persisted *int64
	temp      string
}

// ParseRef builds a reference from its textual form
func ParseRef(s string) Ref {
	r := Ref{temp: s}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		r.persisted = &id
	}
	return r
}

// PersistedRef builds a reference matching only the given persisted ID
func PersistedRef(id int64) Ref {
	return Ref{persisted: &id}
}

// TempRef builds a reference matching only the given temporary ID
func TempRef(tempID string) Ref {
	return Ref{temp: tempID}
}

// RefOf builds the reference of an entity from its identifier pair
func RefOf(id *int64, tempID string) Ref {
	r := Ref{temp: tempID}
	if id != nil {
		v := *id
		r.persisted = &v
	}
	return r
}

// IsZero reports whether the reference identifies nothing
func (r Ref) IsZero() bool {
	return r.persisted == nil && r.temp == ""
}

// String returns the textual form of the reference
func (r Ref) String() string {
	if r.temp != "" {
		return r.temp
	}
	if r.persisted != nil {
		return strconv.FormatInt(*r.persisted, 10)
	}
	return ""
}

func (r Ref) matchesPersisted(id *int64) bool {
	return r.persisted != nil && id != nil && *r.persisted == *id
}

func (r Ref) matchesTemp(tempID string) bool {
	return r.temp != "" && r.temp == tempID
}

// Matches reports whether the reference identifies an entity with the given identifier pair
func (r Ref) Matches(id *int64, tempID string) bool {
	return r.matchesPersisted(id) || r.matchesTemp(tempID)
}

// MarshalJSON encodes the reference as a string
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts a string, a number or null
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = ParseRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = ParseRef(n.String())
	return nil
}

// indexOf returns the position of the entity matched by ref.
//
// The whole list is scanned for a persisted ID match before any temporary ID is compared,
// so a saved entity always wins over an unsaved one whose temporary ID collides with it.
func indexOf[T any](items []T, ref Ref, key func(*T) (*int64, string)) int {
	if ref.persisted != nil {
		for i := range items {
			id, _ := key(&items[i])
			if ref.matchesPersisted(id) {
				return i
			}
		}
	}
	if ref.temp != "" {
		for i := range items {
			_, tempID := key(&items[i])
			if ref.matchesTemp(tempID) {
				return i
			}
		}
	}
	return -1
}
