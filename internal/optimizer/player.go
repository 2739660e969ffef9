package optimizer

import (
	"strconv"
	"strings"
)

// Player is a single normalized player record. Players are treated as
// immutable once a pool has been built from them.
type Player struct {
	ID              string            `json:"id"`
	Position        string            `json:"position"`
	Salary          int               `json:"salary"`
	ProjectedPoints float64           `json:"projected_points"`
	FirstName       string            `json:"first_name,omitempty"`
	LastName        string            `json:"last_name,omitempty"`
	Name            string            `json:"name,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
}

// DisplayName prefers the full name column and falls back to first/last.
func (p Player) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Attribute resolves one of the provider attribute names used in contest
// settings. Unknown names are looked up in Extra.
func (p Player) Attribute(name string) (string, bool) {
	switch name {
	case "Id", "ID":
		return p.ID, true
	case "Position":
		return strings.ToUpper(p.Position), true
	case "FPPG", "AvgPointsPerGame":
		return strconv.FormatFloat(p.ProjectedPoints, 'f', -1, 64), true
	case "Salary":
		return strconv.Itoa(p.Salary), true
	case "First Name":
		return p.FirstName, true
	case "Last Name":
		return p.LastName, true
	case "Name":
		return p.DisplayName(), true
	}
	v, ok := p.Extra[name]
	return v, ok
}

func normalizePosition(pos string) string {
	return strings.ToLower(strings.TrimSpace(pos))
}
