package registry

import (
	"errors"
	"fmt"
)

// FacilityType classifies a municipal facility.
type FacilityType string

const (
	TypePool    FacilityType = "pool"
	TypeSauna   FacilityType = "sauna"
	TypeIceRink FacilityType = "ice_rink"
)

// Facility maps a facility's identity to its externally assigned organization
// id in the counting system. Records are defined at build time and never
// mutated at runtime; a facility suspected closed is marked inactive in code,
// not deleted.
type Facility struct {
	Name           string
	Type           FacilityType
	OrganizationID int
	Active         bool
}

// ErrEmptyRegistry is returned when the registry holds no facilities. A run
// must fail fast in that case rather than produce an empty-looking document.
var ErrEmptyRegistry = errors.New("registry: no facilities configured")

// ErrNotFound is returned by Resolve for an unknown organization id.
var ErrNotFound = errors.New("registry: facility not found")

// Registry is the curated, immutable table of known facilities. Order is
// preserved: List always returns facilities in table order, which is also the
// ordering contract for scrape output.
type Registry struct {
	facilities []Facility
	byOrgID    map[int]int // organization id -> index into facilities
}

// New builds a registry from the given facility table. It fails on an empty
// table and on duplicate organization ids, both of which indicate a broken
// deployment rather than a runtime condition.
func New(facilities []Facility) (*Registry, error) {
	if len(facilities) == 0 {
		return nil, ErrEmptyRegistry
	}

	byOrgID := make(map[int]int, len(facilities))
	for i, f := range facilities {
		if _, dup := byOrgID[f.OrganizationID]; dup {
			return nil, fmt.Errorf("registry: duplicate organization id %d (%s)", f.OrganizationID, f.Name)
		}
		byOrgID[f.OrganizationID] = i
	}

	return &Registry{facilities: facilities, byOrgID: byOrgID}, nil
}

// Default builds the registry from the built-in facility table.
func Default() (*Registry, error) {
	return New(defaultFacilities)
}

// List returns facilities in table order. If typeFilter is non-empty, only
// facilities of that type are returned.
func (r *Registry) List(typeFilter FacilityType) []Facility {
	if typeFilter == "" {
		out := make([]Facility, len(r.facilities))
		copy(out, r.facilities)
		return out
	}

	var out []Facility
	for _, f := range r.facilities {
		if f.Type == typeFilter {
			out = append(out, f)
		}
	}
	return out
}

// Active returns all active facilities in table order.
func (r *Registry) Active() []Facility {
	var out []Facility
	for _, f := range r.facilities {
		if f.Active {
			out = append(out, f)
		}
	}
	return out
}

// Resolve looks up a facility by its organization id.
func (r *Registry) Resolve(organizationID int) (Facility, error) {
	i, ok := r.byOrgID[organizationID]
	if !ok {
		return Facility{}, fmt.Errorf("%w: organization id %d", ErrNotFound, organizationID)
	}
	return r.facilities[i], nil
}

// Names returns the set of known facility names.
func (r *Registry) Names() map[string]struct{} {
	names := make(map[string]struct{}, len(r.facilities))
	for _, f := range r.facilities {
		names[f.Name] = struct{}{}
	}
	return names
}

// Len reports the number of facilities in the table.
func (r *Registry) Len() int {
	return len(r.facilities)
}
