package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/dfs-lineup/internal/optimizer"
)

var ErrMissingColumn = errors.New("missing required column")

// Column aliases across FanDuel and DraftKings player-list exports.
var (
	idColumns       = []string{"Id", "ID"}
	positionColumns = []string{"Position"}
	salaryColumns   = []string{"Salary"}
	pointsColumns   = []string{"FPPG", "AvgPointsPerGame"}
	firstColumns    = []string{"First Name"}
	lastColumns     = []string{"Last Name"}
	nameColumns     = []string{"Name", "Nickname"}
)

// Loader reads provider player-list CSV exports.
type Loader struct {
	log *logrus.Entry
}

func New(log *logrus.Entry) *Loader {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Loader{log: log.WithField("component", "loader")}
}

// LoadFile opens path and reads it with Load.
func (l *Loader) LoadFile(path string) ([]optimizer.Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open player list: %w", err)
	}
	defer f.Close()

	players, err := l.Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return players, nil
}

// Load parses a header row followed by one player per row. Position values
// are lowercased; columns without a dedicated field land in Player.Extra.
func (l *Loader) Load(r io.Reader) ([]optimizer.Player, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	cols := newColumnIndex(header)
	posCol, ok := cols.find(positionColumns)
	if !ok {
		return nil, fmt.Errorf("%w: Position", ErrMissingColumn)
	}
	salaryCol, ok := cols.find(salaryColumns)
	if !ok {
		return nil, fmt.Errorf("%w: Salary", ErrMissingColumn)
	}
	pointsCol, ok := cols.find(pointsColumns)
	if !ok {
		return nil, fmt.Errorf("%w: FPPG or AvgPointsPerGame", ErrMissingColumn)
	}
	idCol, hasID := cols.find(idColumns)
	firstCol, hasFirst := cols.find(firstColumns)
	lastCol, hasLast := cols.find(lastColumns)
	nameCol, hasName := cols.find(nameColumns)

	known := map[int]bool{posCol: true, salaryCol: true, pointsCol: true}
	for _, col := range []int{idCol, firstCol, lastCol, nameCol} {
		if col >= 0 {
			known[col] = true
		}
	}

	var players []optimizer.Player
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if blank(record) {
			continue
		}

		field := func(col int) string {
			if col < len(record) {
				return strings.TrimSpace(record[col])
			}
			return ""
		}

		salary, err := parseSalary(field(salaryCol))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: salary %q: %v", line, optimizer.ErrInvalidPlayer, field(salaryCol), err)
		}
		points, err := parsePoints(field(pointsCol))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: points %q: %v", line, optimizer.ErrInvalidPlayer, field(pointsCol), err)
		}

		p := optimizer.Player{
			Position:        strings.ToLower(field(posCol)),
			Salary:          salary,
			ProjectedPoints: points,
		}
		if hasID {
			p.ID = field(idCol)
		}
		if hasFirst {
			p.FirstName = field(firstCol)
		}
		if hasLast {
			p.LastName = field(lastCol)
		}
		if hasName {
			p.Name = field(nameCol)
		}
		if p.ID == "" {
			p.ID = fmt.Sprintf("row-%d", line)
		}

		for col, name := range header {
			if known[col] || name == "" {
				continue
			}
			if v := field(col); v != "" {
				if p.Extra == nil {
					p.Extra = make(map[string]string)
				}
				p.Extra[name] = v
			}
		}

		players = append(players, p)
	}

	l.log.WithField("players", len(players)).Debug("Loaded player list")
	return players, nil
}

type columnIndex map[string]int

func newColumnIndex(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		key := strings.ToLower(name)
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

func (c columnIndex) find(aliases []string) (int, bool) {
	for _, a := range aliases {
		if i, ok := c[strings.ToLower(a)]; ok {
			return i, true
		}
	}
	return -1, false
}

var (
	errEmpty      = errors.New("empty")
	errFractional = errors.New("fractional salary")
	errNotFinite  = errors.New("not a finite number")
)

// parseSalary accepts whole-dollar amounts, optionally formatted like
// "$7,100" or "7100.0".
func parseSalary(s string) (int, error) {
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	if s == "" {
		return 0, errEmpty
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	if f != math.Trunc(f) {
		return 0, errFractional
	}
	return int(f), nil
}

func parsePoints(s string) (float64, error) {
	if s == "" {
		return 0, errEmpty
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
