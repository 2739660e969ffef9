package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/stitts-dev/dfs-lineup/internal/models"
	"github.com/stitts-dev/dfs-lineup/internal/optimizer"
)

var ErrNothingToExport = errors.New("no lineups to export")

// ExportService writes lineups as provider upload CSVs: one column per slot
// in roster order, one row per lineup.
type ExportService struct {
	includeTotals bool
}

func NewExportService(includeTotals bool) *ExportService {
	return &ExportService{includeTotals: includeTotals}
}

// exportRow is a lineup flattened to slot order.
type exportRow struct {
	players []exportPlayer
	salary  int
	points  float64
}

type exportPlayer struct {
	id   string
	name string
}

// ExportResult writes the lineups of a fresh optimization result.
func (s *ExportService) ExportResult(w io.Writer, result *optimizer.Result) error {
	if result == nil || len(result.Lineups) == 0 {
		return ErrNothingToExport
	}
	rows := make([]exportRow, 0, len(result.Lineups))
	for _, l := range result.Lineups {
		row := exportRow{salary: l.TotalSalary, points: l.ProjectedPoints}
		for _, slot := range l.Slots {
			row.players = append(row.players, exportPlayer{id: slot.Player.ID, name: slot.Player.DisplayName()})
		}
		rows = append(rows, row)
	}
	return s.write(w, string(result.Settings.Provider), result.Settings.SlotLabels(), rows)
}

// ExportRun writes the lineups of a persisted run.
func (s *ExportService) ExportRun(w io.Writer, run *models.OptimizationRun) error {
	if run == nil || len(run.Lineups) == 0 {
		return ErrNothingToExport
	}
	var labels []string
	if err := json.Unmarshal(run.SlotLabels, &labels); err != nil {
		return fmt.Errorf("failed to decode slot labels: %w", err)
	}

	rows := make([]exportRow, 0, len(run.Lineups))
	for _, l := range run.Lineups {
		if len(l.Players) != len(labels) {
			return fmt.Errorf("lineup %d has %d players, expected %d", l.Number, len(l.Players), len(labels))
		}
		row := exportRow{salary: l.TotalSalary, points: l.ProjectedPoints}
		for _, p := range l.Players {
			row.players = append(row.players, exportPlayer{id: p.PlayerID, name: p.Name})
		}
		rows = append(rows, row)
	}
	return s.write(w, run.Provider, labels, rows)
}

// ExportRunBytes is ExportRun into a buffer.
func (s *ExportService) ExportRunBytes(run *models.OptimizationRun) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.ExportRun(&buf, run); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ExportService) write(w io.Writer, provider string, labels []string, rows []exportRow) error {
	writer := csv.NewWriter(w)

	header := make([]string, 0, len(labels)+2)
	for _, label := range labels {
		header = append(header, columnHeader(label))
	}
	if s.includeTotals {
		header = append(header, "Total Salary", "Projected Points")
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for _, row := range rows {
		record := make([]string, 0, len(header))
		for _, p := range row.players {
			record = append(record, formatPlayer(p, provider))
		}
		if s.includeTotals {
			record = append(record,
				strconv.Itoa(row.salary),
				strconv.FormatFloat(row.points, 'f', 2, 64))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write lineup: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

// columnHeader turns a slot label like "wr2" into its upload column "WR".
func columnHeader(label string) string {
	return strings.ToUpper(strings.TrimRight(label, "0123456789"))
}

func formatPlayer(p exportPlayer, provider string) string {
	switch optimizer.Provider(provider) {
	case optimizer.ProviderDraftKings:
		if p.id == "" {
			return p.name
		}
		return fmt.Sprintf("%s:%s", p.id, p.name)
	case optimizer.ProviderFanDuel:
		return p.id
	default:
		return p.name
	}
}
