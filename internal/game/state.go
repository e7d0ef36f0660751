package game

// MatchStatus represents the current state of a match
type MatchStatus string

const (
	StatusWaiting  MatchStatus = "waiting"
	StatusPlaying  MatchStatus = "playing"
	StatusFinished MatchStatus = "finished"
)

// TeamSide identifies which side of the field a paddle defends
type TeamSide string

const (
	TeamLeft  TeamSide = "left"
	TeamRight TeamSide = "right"
)

// Difficulty fixes the base ball speed at serve time
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// Direction is a discrete paddle movement command
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionStop Direction = "stop"
)

// Field and simulation constants
const (
	FieldWidth  = 800.0
	FieldHeight = 600.0

	PaddleWidth         = 10.0
	DefaultPaddleHeight = 100.0
	PaddleStep          = 10.0

	BallRadius   = 10.0
	BaseVelocity = 3.0

	// Ball speed grows 40% per SpeedIncreaseInterval of match time, capped at MaxSpeedMultiplier.
	SpeedIncreaseIntervalMs = 10000.0
	SpeedRampFactor         = 0.4
	MaxSpeedMultiplier      = 5.0

	DefaultMaxScore = 10
)

// SpeedMultiplier returns the serve-time speed factor for a difficulty.
// Unknown values fall back to normal.
func (d Difficulty) SpeedMultiplier() float64 {
	switch d {
	case DifficultyEasy:
		return 1.0
	case DifficultyHard:
		return 1.5
	default:
		return 1.3
	}
}

// Valid reports whether d is one of the supported difficulty levels.
func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyNormal || d == DifficultyHard
}
