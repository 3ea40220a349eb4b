package models

// OpponentsRequest asks for opponents ranked against one fighter
type OpponentsRequest struct {
	FighterID      string            `json:"fighter_id" validate:"required"`
	OwnedSets      []string          `json:"owned_sets" validate:"dive,required"`
	Opp            PlayerPreferences `json:"opp"`
	Quantity       int               `json:"quantity,omitempty" validate:"gte=0,lte=100"`
	FairnessWeight *float64          `json:"fairness_weight,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// PairingRequest drives batch and fair pool generation
type PairingRequest struct {
	OwnedSets      []string          `json:"owned_sets" validate:"dive,required"`
	P1             PlayerPreferences `json:"p1"`
	Opp            PlayerPreferences `json:"opp"`
	Quantity       int               `json:"quantity,omitempty" validate:"gte=0,lte=100"`
	FairnessWeight *float64          `json:"fairness_weight,omitempty" validate:"omitempty,gte=0,lte=1"`
}
