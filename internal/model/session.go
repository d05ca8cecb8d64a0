package model

// HealthSession is the server-side recommendation context the remote API
// creates from an intake form. Only its id is persisted locally.
type HealthSession struct {
	SessionID string `json:"session_id"`
	IsValid   bool   `json:"is_valid"`
}

// IntakeForm is submitted once to open a recommendation session.
type IntakeForm struct {
	Gender        string  `json:"gender" binding:"required,oneof=male female other"`
	Age           int     `json:"age" binding:"required,gte=13,lte=120"`
	HeightCm      float64 `json:"height_cm" binding:"required,gt=50,lt=272"`
	WeightKg      float64 `json:"weight_kg" binding:"required,gt=20,lt=500"`
	ActivityLevel string  `json:"activity_level" binding:"required"`
	FitnessGoal   string  `json:"fitness_goal" binding:"required"`
}
