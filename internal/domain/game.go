package domain

import "time"

type RouletteState struct {
	Options []string   `json:"options"`
	Result  string     `json:"result,omitempty"`
	SpunAt  *time.Time `json:"spunAt,omitempty"`
}

type NumberDrawState struct {
	Drawn []int      `json:"drawn"`
	Last  *int       `json:"last,omitempty"`
	At    *time.Time `json:"at,omitempty"`
}

type MarqueeState struct {
	Text  string `json:"text"`
	Speed int    `json:"speed"`
	Color string `json:"color,omitempty"`
}

// GameState is shared by the admin console and every audience screen.
type GameState struct {
	Roulette RouletteState   `json:"roulette"`
	Draw     NumberDrawState `json:"draw"`
	Marquee  MarqueeState    `json:"marquee"`
}
