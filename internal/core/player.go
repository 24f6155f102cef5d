package core

import (
	"chessgame/internal/chess"

	"github.com/google/uuid"
)

type PlayerType int

const (
	PlayerHuman PlayerType = iota + 1
	PlayerComputer
)

func (t PlayerType) String() string {
	switch t {
	case PlayerHuman:
		return "human"
	case PlayerComputer:
		return "computer"
	default:
		return "unknown"
	}
}

const (
	DefaultSearchTime = 1000 // ms
	MinSearchTime     = 100
	MaxSearchTime     = 10000
)

// Player is one side of a game session
type Player struct {
	ID         string      `json:"id"`
	UserID     string      `json:"userId,omitempty"` // set when an account owns this side
	Color      chess.Color `json:"color"`
	Type       PlayerType  `json:"type"`
	Level      int         `json:"level,omitempty"`      // computer only
	SearchTime int         `json:"searchTime,omitempty"` // computer only, ms
}

// PlayerConfig for API requests and configuration
type PlayerConfig struct {
	Type       PlayerType `json:"type" validate:"required,oneof=1 2"`
	Level      int        `json:"level,omitempty" validate:"omitempty,min=0,max=20"`
	SearchTime int        `json:"searchTime,omitempty" validate:"omitempty,min=100,max=10000"`
}

type PlayersResponse struct {
	White *Player `json:"white"`
	Black *Player `json:"black"`
}

// NewPlayer creates a Player with a fresh id. Computer players without a
// search time get DefaultSearchTime; shorter ones are raised to MinSearchTime.
func NewPlayer(config PlayerConfig, color chess.Color) *Player {
	player := &Player{
		ID:    uuid.New().String(),
		Color: color,
		Type:  config.Type,
	}

	if config.Type == PlayerComputer {
		player.Level = config.Level
		switch {
		case config.SearchTime == 0:
			player.SearchTime = DefaultSearchTime
		case config.SearchTime < MinSearchTime:
			player.SearchTime = MinSearchTime
		default:
			player.SearchTime = min(config.SearchTime, MaxSearchTime)
		}
	}

	return player
}

func (p *Player) IsComputer() bool {
	return p != nil && p.Type == PlayerComputer
}
