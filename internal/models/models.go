package models

import (
	"fmt"
	"strings"
)

// Range is a fighter's attack range classification
type Range string

const (
	RangeMelee        Range = "Melee"
	RangeReach        Range = "Reach"
	RangeHybrid       Range = "Hybrid"
	RangeRangedAssist Range = "Ranged Assist"
	RangeRanged       Range = "Ranged"
)

// Ranges lists every valid range in display order
var Ranges = []Range{RangeMelee, RangeReach, RangeHybrid, RangeRangedAssist, RangeRanged}

// ParseRange normalizes a range name case-insensitively. Empty input returns ("", nil).
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, r := range Ranges {
		if strings.EqualFold(string(r), s) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown range %q", s)
}

// Fighter represents a selectable fighter card. Records are never mutated after load.
type Fighter struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Set        string   `json:"set"`
	Playstyles []string `json:"playstyles"`
	Range      Range    `json:"range"`
	ImageURL   string   `json:"image_url"`
}

// HasPlaystyle reports whether the fighter carries the given tag
func (f *Fighter) HasPlaystyle(tag string) bool {
	for _, p := range f.Playstyles {
		if p == tag {
			return true
		}
	}
	return false
}

// WinMatrix maps fighter id -> opponent id -> win percentage in [0,100].
// Values outside that range are unknown sentinels.
type WinMatrix map[string]map[string]float64

// Player identifies one side of a matchup
type Player string

const (
	PlayerOne      Player = "p1"
	PlayerOpponent Player = "opp"
)

// Other returns the opposing side
func (p Player) Other() Player {
	if p == PlayerOne {
		return PlayerOpponent
	}
	return PlayerOne
}

// ParsePlayer accepts the form prefixes p1 and opp
func ParsePlayer(s string) (Player, error) {
	switch Player(s) {
	case PlayerOne, PlayerOpponent:
		return Player(s), nil
	}
	return "", fmt.Errorf("unknown player %q", s)
}

// SelectionMethod is how a player's main fighter is chosen
type SelectionMethod string

const (
	SelectionDirectChoice SelectionMethod = "direct_choice"
	SelectionSuggest      SelectionMethod = "suggest"
)

// PlayerPreferences are one player's inputs to the resolver
type PlayerPreferences struct {
	SelectionMethod SelectionMethod `json:"selection_method" validate:"omitempty,oneof=direct_choice suggest"`
	ChosenFighterID string          `json:"chosen_fighter_id,omitempty"`
	Playstyles      []string        `json:"playstyles,omitempty" validate:"dive,required"`
	Range           Range           `json:"range,omitempty" validate:"omitempty,oneof=Melee Reach Hybrid 'Ranged Assist' Ranged"`
}

// LockState carries the client-held lock for each player
type LockState struct {
	P1  string `json:"p1,omitempty"`
	Opp string `json:"opp,omitempty"`
}

// Get returns the lock for a player
func (l LockState) Get(p Player) string {
	if p == PlayerOne {
		return l.P1
	}
	return l.Opp
}

// Set returns a copy with the player's lock replaced
func (l LockState) Set(p Player, id string) LockState {
	if p == PlayerOne {
		l.P1 = id
	} else {
		l.Opp = id
	}
	return l
}

// ActionKind discriminates the recomputation a request asks for
type ActionKind string

const (
	ActionGenerate ActionKind = "generate"
	ActionLock     ActionKind = "lock"
	ActionUnlock   ActionKind = "unlock"
)

// Action is a parsed action discriminator
type Action struct {
	Kind      ActionKind
	Player    Player
	FighterID string
}

// String renders the action in its wire form
func (a Action) String() string {
	switch a.Kind {
	case ActionLock:
		return fmt.Sprintf("lock_%s:%s", a.Player, a.FighterID)
	case ActionUnlock:
		return fmt.Sprintf("unlock_%s", a.Player)
	}
	return string(ActionGenerate)
}

// ParseAction parses generate, lock_<player>:<id> and unlock_<player>.
// Empty input and the legacy "suggest_general" value mean generate.
func ParseAction(s string) (Action, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || s == string(ActionGenerate) || s == "suggest_general":
		return Action{Kind: ActionGenerate}, nil
	case strings.HasPrefix(s, "lock_"):
		rest := strings.TrimPrefix(s, "lock_")
		prefix, id, ok := strings.Cut(rest, ":")
		if !ok || id == "" {
			return Action{}, fmt.Errorf("lock action %q is missing a fighter id", s)
		}
		p, err := ParsePlayer(prefix)
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: ActionLock, Player: p, FighterID: id}, nil
	case strings.HasPrefix(s, "unlock_"):
		p, err := ParsePlayer(strings.TrimPrefix(s, "unlock_"))
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: ActionUnlock, Player: p}, nil
	}
	return Action{}, fmt.Errorf("unknown action %q", s)
}

// MarshalText lets actions travel as JSON strings
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses the wire form
func (a *Action) UnmarshalText(b []byte) error {
	parsed, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MatchupRequest is everything the resolver needs for one request
type MatchupRequest struct {
	OwnedSets      []string          `json:"owned_sets" validate:"dive,required"`
	P1             PlayerPreferences `json:"p1"`
	Opp            PlayerPreferences `json:"opp"`
	Locks          LockState         `json:"locks"`
	Action         Action            `json:"action"`
	FairnessWeight *float64          `json:"fairness_weight,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// Prefs returns the preferences for a player
func (r *MatchupRequest) Prefs(p Player) PlayerPreferences {
	if p == PlayerOne {
		return r.P1
	}
	return r.Opp
}
