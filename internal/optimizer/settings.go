package optimizer

import (
	"fmt"
	"sort"
	"strings"
)

// Provider is a daily fantasy sports site.
type Provider string

// Sport is the sport a contest is played in.
type Sport string

const (
	ProviderFanDuel    Provider = "fanduel"
	ProviderDraftKings Provider = "draftkings"

	SportNFL Sport = "nfl"
	SportNBA Sport = "nba"
)

// Settings describes the roster a contest requires. Values returned by
// SettingsFor are copies and may be modified by the caller without affecting
// other optimizers.
type Settings struct {
	Provider   Provider       `json:"provider"`
	Sport      Sport          `json:"sport"`
	Positions  []string       `json:"positions"`
	Slots      map[string]int `json:"slots"`
	Budget     int            `json:"budget"`
	Attributes []string       `json:"attributes"`
}

type contestKey struct {
	provider Provider
	sport    Sport
}

var fanDuelAttributes = []string{"Id", "Position", "FPPG", "Salary", "First Name", "Last Name"}

var contestSettings = map[contestKey]Settings{
	{ProviderFanDuel, SportNFL}: {
		Provider:   ProviderFanDuel,
		Sport:      SportNFL,
		Positions:  []string{"qb", "rb", "wr", "te", "k", "d"},
		Slots:      map[string]int{"qb": 1, "rb": 2, "wr": 3, "te": 1, "k": 1, "d": 1},
		Budget:     60000,
		Attributes: fanDuelAttributes,
	},
	{ProviderDraftKings, SportNFL}: {
		Provider:   ProviderDraftKings,
		Sport:      SportNFL,
		Positions:  []string{"qb", "rb", "wr", "te", "k", "dst", "flex"},
		Slots:      map[string]int{"qb": 1, "rb": 2, "wr": 3, "te": 1, "k": 1, "dst": 1, "flex": 1},
		Budget:     50000,
		Attributes: []string{"Position", "Name", "Salary", "GameInfo", "AvgPointsPerGame"},
	},
	{ProviderFanDuel, SportNBA}: {
		Provider:   ProviderFanDuel,
		Sport:      SportNBA,
		Positions:  []string{"pg", "sg", "sf", "pf", "c"},
		Slots:      map[string]int{"pg": 2, "sg": 2, "sf": 2, "pf": 2, "c": 1},
		Budget:     60000,
		Attributes: fanDuelAttributes,
	},
}

// SettingsFor returns the roster settings for a provider and sport.
func SettingsFor(provider Provider, sport Sport) (Settings, error) {
	key := contestKey{
		provider: Provider(strings.ToLower(string(provider))),
		sport:    Sport(strings.ToLower(string(sport))),
	}
	s, ok := contestSettings[key]
	if !ok {
		return Settings{}, fmt.Errorf("%w: %s/%s", ErrUnsupportedContest, provider, sport)
	}
	return s.clone(), nil
}

// SupportedSettings lists every known contest, ordered by provider then sport.
func SupportedSettings() []Settings {
	all := make([]Settings, 0, len(contestSettings))
	for _, s := range contestSettings {
		all = append(all, s.clone())
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Provider != all[j].Provider {
			return all[i].Provider < all[j].Provider
		}
		return all[i].Sport < all[j].Sport
	})
	return all
}

func (s Settings) clone() Settings {
	c := s
	c.Positions = append([]string(nil), s.Positions...)
	c.Attributes = append([]string(nil), s.Attributes...)
	c.Slots = make(map[string]int, len(s.Slots))
	for pos, n := range s.Slots {
		c.Slots[pos] = n
	}
	return c
}

// Validate checks that every position has a positive slot count and that the
// budget is usable.
func (s Settings) Validate() error {
	if len(s.Positions) == 0 {
		return fmt.Errorf("%w: no positions configured", ErrInvalidRequest)
	}
	if s.Budget <= 0 {
		return fmt.Errorf("%w: budget must be positive, got %d", ErrInvalidRequest, s.Budget)
	}
	seen := make(map[string]bool, len(s.Positions))
	for _, pos := range s.Positions {
		if seen[pos] {
			return fmt.Errorf("%w: duplicate position %q", ErrInvalidRequest, pos)
		}
		seen[pos] = true
		if s.Slots[pos] <= 0 {
			return fmt.Errorf("%w: position %q has no slots", ErrInvalidRequest, pos)
		}
	}
	return nil
}

// HasPosition reports whether pos is part of the roster.
func (s Settings) HasPosition(pos string) bool {
	_, ok := s.Slots[pos]
	return ok
}

// TotalSlots is the number of players in a full lineup.
func (s Settings) TotalSlots() int {
	total := 0
	for _, pos := range s.Positions {
		total += s.Slots[pos]
	}
	return total
}

// SlotLabels returns the slot labels of a lineup in roster order, e.g. "rb1",
// "rb2".
func (s Settings) SlotLabels() []string {
	labels := make([]string, 0, s.TotalSlots())
	for _, pos := range s.Positions {
		for i := 0; i < s.Slots[pos]; i++ {
			labels = append(labels, SlotLabel(pos, i))
		}
	}
	return labels
}

// InitialLineup is the starting point of every search: the first N players
// of each position in pool order.
func (s Settings) InitialLineup() Lineup {
	lineup := make(Lineup, len(s.Positions))
	for _, pos := range s.Positions {
		n := s.Slots[pos]
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		lineup[pos] = idx
	}
	return lineup
}

// SlotLabel names a slot by position and 1-based slot number.
func SlotLabel(position string, slot int) string {
	return fmt.Sprintf("%s%d", position, slot+1)
}
