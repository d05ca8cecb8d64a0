package model

import "time"

type Profile struct {
	UserID            int      `json:"user_id"`
	DisplayName       string   `json:"display_name"`
	Gender            string   `json:"gender"`
	Age               int      `json:"age"`
	HeightCm          float64  `json:"height_cm"`
	WeightKg          float64  `json:"weight_kg"`
	ActivityLevel     string   `json:"activity_level"`
	FitnessGoal       string   `json:"fitness_goal"`
	DietaryPreference string   `json:"dietary_preference"`
	WorkoutDays       []string `json:"workout_days"`
}

type Measurement struct {
	ID         int       `json:"id"`
	UserID     int       `json:"user_id"`
	WeightKg   float64   `json:"weight_kg"`
	BodyFatPct float64   `json:"body_fat_pct"`
	WaistCm    float64   `json:"waist_cm"`
	MeasuredAt time.Time `json:"measured_at"`
}

// MeasurementInput is checked before it reaches the network.
type MeasurementInput struct {
	WeightKg   float64    `json:"weight_kg" binding:"required,gt=0,lt=500"`
	BodyFatPct float64    `json:"body_fat_pct" binding:"gte=0,lte=70"`
	WaistCm    float64    `json:"waist_cm" binding:"omitempty,gt=0,lt=300"`
	MeasuredAt *time.Time `json:"measured_at"`
}
