package core

import (
	"fmt"
	"time"

	"iara.com/iarasync/iara/model"
)

type GenderPolicy string

const (
	// GenderFixed uses a stable label to id table.
	GenderFixed GenderPolicy = "fixed"

	// GenderEnumeration numbers distinct raw values in value order.
	GenderEnumeration GenderPolicy = "enumeration"
)

var fixedGenderIDs = map[string]int64{
	GenderFeminine:  1,
	GenderMasculine: 2,
	GenderOther:     3,
}

func ParseGenderPolicy(s string) (GenderPolicy, error) {
	switch GenderPolicy(s) {
	case "", GenderFixed:
		return GenderFixed, nil
	case GenderEnumeration:
		return GenderEnumeration, nil
	}
	return "", fmt.Errorf("unknown gender id policy %q", s)
}

// RunState is everything one run carries from stage to stage.
type RunState struct {
	Now          time.Time
	GenderPolicy GenderPolicy

	// Genders maps raw origin gender codes to target gender ids.
	Genders *IdentityMap[string]

	// Users is the origin user snapshot, reused by the access type stages.
	Users []model.Usuario

	AccessTypeIDs        map[string]int64
	FactoryDeactivations map[string]time.Time
	UserDeactivations    map[string]time.Time

	Resolver *Resolver
}

func NewRunState(now time.Time, policy GenderPolicy) *RunState {
	return &RunState{
		Now:                  now.UTC().Truncate(time.Microsecond),
		GenderPolicy:         policy,
		Genders:              NewIdentityMap[string](),
		AccessTypeIDs:        map[string]int64{},
		FactoryDeactivations: map[string]time.Time{},
		UserDeactivations:    map[string]time.Time{},
		Resolver:             NewResolver(),
	}
}

// RegisterGender assigns the target id for a raw gender code.
func (s *RunState) RegisterGender(raw string) int64 {
	if s.GenderPolicy == GenderEnumeration {
		return s.Genders.Register(raw)
	}
	id := fixedGenderIDs[GenderLabel(raw)]
	s.Genders.Seed(raw, id)
	return id
}

// GenderID resolves the gender of a user. Raw codes the gender stage never
// saw have no id under enumeration.
func (s *RunState) GenderID(raw *string) *int64 {
	if raw == nil {
		return nil
	}
	if id, ok := s.Genders.Lookup(*raw); ok {
		return &id
	}
	if s.GenderPolicy == GenderEnumeration {
		return nil
	}
	id := fixedGenderIDs[GenderLabel(*raw)]
	return &id
}

func existing(index map[string]time.Time, key string) *time.Time {
	if t, ok := index[key]; ok {
		return &t
	}
	return nil
}
