package optimizer

import "errors"

var (
	// ErrConfigurationMismatch is returned when a player's position is not
	// part of the contest roster.
	ErrConfigurationMismatch = errors.New("player position not in contest configuration")

	// ErrInsufficientPlayers is returned when a position cannot fill its
	// slots, or when the search stops making progress above the budget.
	ErrInsufficientPlayers = errors.New("insufficient players to build lineup under budget")

	ErrUnsupportedContest = errors.New("unsupported provider/sport combination")
	ErrInvalidPlayer      = errors.New("invalid player record")
	ErrInvalidRequest     = errors.New("invalid optimization request")
)
