package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// OptimizationRun is one Generate call and the lineups it produced.
type OptimizationRun struct {
	ID          string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Provider    string         `gorm:"not null;index:idx_provider_sport" json:"provider"`
	Sport       string         `gorm:"not null;index:idx_provider_sport" json:"sport"`
	RequestHash string         `gorm:"index" json:"request_hash"`
	NumLineups  int            `gorm:"not null" json:"num_lineups"`
	Depth       int            `json:"depth"`
	PlayerCount int            `json:"player_count"`
	Budget      int            `json:"budget"`
	Status      string         `gorm:"not null;default:completed" json:"status"`
	Error       string         `json:"error,omitempty"`
	DurationMs  int64          `json:"duration_ms"`
	SlotLabels  datatypes.JSON `json:"slot_labels"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	Lineups []Lineup `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"lineups"`
}

func (OptimizationRun) TableName() string {
	return "optimization_runs"
}

func (r *OptimizationRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Lineup is a persisted lineup. Slots holds the rendered attribute
// projection keyed by slot label.
type Lineup struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	RunID           string         `gorm:"type:varchar(36);not null;index" json:"run_id"`
	Number          int            `gorm:"not null" json:"number"`
	TotalSalary     int            `gorm:"not null" json:"total_salary"`
	ProjectedPoints float64        `gorm:"not null" json:"projected_points"`
	Passes          int            `json:"passes"`
	Slots           datatypes.JSON `json:"slots"`
	CreatedAt       time.Time      `json:"created_at"`

	Players []LineupPlayer `gorm:"foreignKey:LineupID;constraint:OnDelete:CASCADE" json:"players"`
}

func (Lineup) TableName() string {
	return "lineups"
}

// LineupPlayer records which player fills a slot of a lineup.
type LineupPlayer struct {
	ID              uint    `gorm:"primaryKey" json:"-"`
	LineupID        uint    `gorm:"not null;index" json:"-"`
	Slot            string  `gorm:"not null" json:"slot"`
	Position        string  `gorm:"not null" json:"position"`
	PlayerID        string  `gorm:"not null" json:"player_id"`
	Name            string  `json:"name"`
	Salary          int     `json:"salary"`
	ProjectedPoints float64 `json:"projected_points"`
}

func (LineupPlayer) TableName() string {
	return "lineup_players"
}

// AutoMigrate creates or updates the run tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&OptimizationRun{}, &Lineup{}, &LineupPlayer{})
}
