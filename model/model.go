package model

// Point is a 2D game-world coordinate in screen/grid space.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Resource is one detected gatherable object reported by the vision collaborator.
type Resource struct {
	Type     string `json:"type"`
	Position Point  `json:"position"`
}

// Snapshot is the live game-state view handed to the engine by the
// automation loop. It carries only what the selector scores on; richer
// vision output stays with the collaborator that produced it.
type Snapshot struct {
	Health            float64    `json:"health"`
	InCombat          bool       `json:"inCombat"`
	Mounted           bool       `json:"mounted"`
	Position          *Point     `json:"position,omitempty"`
	DetectedResources []Resource `json:"detectedResources"`
	DetectedObstacles []Point    `json:"detectedObstacles"`
}

// PatternSummary is the learned-statistics view embedded in a recommendation.
// Key is empty for rule-based fallback results, which carry no stored pattern.
type PatternSummary struct {
	Key         string  `json:"key,omitempty"`
	Count       int     `json:"count"`
	SuccessRate float64 `json:"successRate"`
	TotalTime   float64 `json:"totalTime"`
}

// Recommendation is the engine's answer to "what should the bot do next".
type Recommendation struct {
	Type               string         `json:"type"`
	Pattern            PatternSummary `json:"pattern"`
	Timing             float64        `json:"timing"`
	SuccessProbability float64        `json:"successProbability"`
}
