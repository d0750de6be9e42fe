// Package scoring holds the single weight table every matcher and profile
// builder scores swipes with.
package scoring

import (
	"fmt"
	"strings"
)

// Action is a user's reaction to a movie card.
type Action string

const (
	Love  Action = "love"
	Like  Action = "like"
	Maybe Action = "maybe"
	Nope  Action = "nope"
)

// Actions lists every valid action, most enthusiastic first.
var Actions = []Action{Love, Like, Maybe, Nope}

// weights is the canonical table. Nope never contributes positively.
var weights = map[Action]int{
	Love:  5,
	Like:  3,
	Maybe: 1,
	Nope:  0,
}

// NopePenalty is what a nope weighs when the negative signal is enabled.
const NopePenalty = -2

// Parse converts user input into an Action. "pass" is accepted as nope.
func Parse(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case Love, Like, Maybe, Nope:
		return a, nil
	case "pass":
		return Nope, nil
	default:
		return "", fmt.Errorf("unknown swipe action %q", s)
	}
}

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	_, ok := weights[a]
	return ok
}

// Positive reports whether a counts as interest (love, like or maybe).
func (a Action) Positive() bool {
	return a == Love || a == Like || a == Maybe
}

func (a Action) String() string { return string(a) }

// Score returns the weight of a. Unknown actions score 0.
func Score(a Action) int {
	return weights[a]
}

// ProfileScore is Score with an optional penalty for nope. Taste profiling
// turns the penalty on so disliked genres sink.
func ProfileScore(a Action, penalizeNope bool) int {
	if a == Nope && penalizeNope {
		return NopePenalty
	}
	return Score(a)
}
