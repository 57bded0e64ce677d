package domain

// Goal is a target weight to reach by a date. Goals are read-only once
// created.
type Goal struct {
	ID           int64   `json:"id"`
	UserID       int64   `json:"user_id,omitempty"`
	TargetWeight float64 `json:"target_weight"`
	TargetDate   Date    `json:"target_date"`
	StartWeight  float64 `json:"start_weight"`
}

// GoalInput is the payload of a new goal.
type GoalInput struct {
	StartWeight  float64 `json:"start_weight"`
	TargetWeight float64 `json:"target_weight"`
	TargetDate   Date    `json:"target_date"`
}
