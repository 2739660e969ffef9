package optimizer

// Field is one projected attribute of a selected player.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Slot is a single filled roster spot, labeled like "wr2".
type Slot struct {
	Label    string  `json:"label"`
	Position string  `json:"position"`
	Player   Player  `json:"player"`
	Fields   []Field `json:"fields"`
}

// RenderedLineup is a lineup resolved against its pool, in roster order.
type RenderedLineup struct {
	Number          int     `json:"number"`
	Slots           []Slot  `json:"slots"`
	TotalSalary     int     `json:"total_salary"`
	ProjectedPoints float64 `json:"projected_points"`
	Passes          int     `json:"passes"`
}

// Render resolves lineup into player records projected onto the contest's
// attribute list. Attributes a player doesn't carry are left empty.
func Render(lineup Lineup, pool Pool, settings Settings) RenderedLineup {
	out := RenderedLineup{Slots: make([]Slot, 0, settings.TotalSlots())}
	selected := lineup.Players(pool)
	for _, pos := range settings.Positions {
		for i, player := range selected[pos] {
			fields := make([]Field, 0, len(settings.Attributes))
			for _, attr := range settings.Attributes {
				v, _ := player.Attribute(attr)
				fields = append(fields, Field{Name: attr, Value: v})
			}
			out.Slots = append(out.Slots, Slot{
				Label:    SlotLabel(pos, i),
				Position: pos,
				Player:   player,
				Fields:   fields,
			})
		}
	}
	out.TotalSalary, out.ProjectedPoints = Evaluate(lineup, pool)
	return out
}

// PlayerIDs lists the selected players in slot order.
func (r RenderedLineup) PlayerIDs() []string {
	ids := make([]string, len(r.Slots))
	for i, s := range r.Slots {
		ids[i] = s.Player.ID
	}
	return ids
}

// Projection maps each slot label to its projected attributes.
func (r RenderedLineup) Projection() map[string]map[string]string {
	out := make(map[string]map[string]string, len(r.Slots))
	for _, s := range r.Slots {
		row := make(map[string]string, len(s.Fields))
		for _, f := range s.Fields {
			row[f.Name] = f.Value
		}
		out[s.Label] = row
	}
	return out
}
