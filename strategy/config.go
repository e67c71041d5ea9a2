package strategy

import (
	"fmt"

	"github.com/brensch/snekbasic/game"
)

// Config holds the tunables of the heuristic. It is the only state the
// strategy carries between turns and it is never mutated after construction.
type Config struct {
	// HealthThreshold: below this health, food candidates get LowHealthBonus.
	HealthThreshold int32
	// FoodWeight is the score of a move that lands on food.
	FoodWeight float64
	// LowHealthBonus is added to FoodWeight when health is under the threshold.
	LowHealthBonus float64
	// FallbackMove is returned when every direction is lethal.
	FallbackMove game.Move
	// TailVacates treats the own tail cell as free, for rulesets where the
	// tail leaves its cell on the same tick the head moves. A stacked tail
	// (the snake just ate) still counts as occupied.
	TailVacates bool
}

// DefaultConfig matches the tuning the snake has always played with.
func DefaultConfig() Config {
	return Config{
		HealthThreshold: 30,
		FoodWeight:      5,
		LowHealthBonus:  3,
		FallbackMove:    game.MoveDown,
	}
}

func (c Config) Validate() error {
	if c.HealthThreshold < 0 || c.HealthThreshold > 100 {
		return fmt.Errorf("health threshold %d outside [0,100]", c.HealthThreshold)
	}
	if c.FoodWeight < 0 {
		return fmt.Errorf("food weight %v is negative", c.FoodWeight)
	}
	if c.LowHealthBonus < 0 {
		return fmt.Errorf("low health bonus %v is negative", c.LowHealthBonus)
	}
	if !c.FallbackMove.Valid() {
		return fmt.Errorf("invalid fallback move %s", c.FallbackMove)
	}
	return nil
}
