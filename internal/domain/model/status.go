package model

// Status is a point-in-time view of a game, safe to hand to readers off the
// tick goroutine.
type Status struct {
	SessionID  string  `json:"session_id"`
	ChartID    string  `json:"chart_id"`
	Phase      Phase   `json:"-"`
	State      string  `json:"state"`
	Position   float64 `json:"position"`
	Score      int     `json:"score"`
	Combo      int     `json:"combo"`
	Multiplier int     `json:"multiplier"`
	Health     int     `json:"health"`
	MaxCombo   int     `json:"max_combo"`
	Good       int     `json:"good"`
	Weak       int     `json:"weak"`
	Misses     int     `json:"misses"`
	Active     int     `json:"active"`
}
