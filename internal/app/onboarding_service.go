package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"healthhub/internal/model"
	"healthhub/internal/repository"
)

const (
	StepBasics      = "basics"
	StepActivity    = "activity"
	StepPreferences = "preferences"
)

var onboardingSteps = []string{StepBasics, StepActivity, StepPreferences}

type BasicsStep struct {
	Gender   string  `json:"gender" binding:"required,oneof=male female other"`
	Age      int     `json:"age" binding:"required,gte=13,lte=120"`
	HeightCm float64 `json:"height_cm" binding:"required,gt=50,lt=272"`
	WeightKg float64 `json:"weight_kg" binding:"required,gt=20,lt=500"`
}

type ActivityStep struct {
	ActivityLevel string `json:"activity_level" binding:"required,oneof=sedentary light moderate active very_active"`
	FitnessGoal   string `json:"fitness_goal" binding:"required,oneof=lose_weight maintain build_muscle improve_endurance"`
}

type PreferencesStep struct {
	DietaryPreference string   `json:"dietary_preference" binding:"required,oneof=none vegetarian vegan pescatarian keto"`
	WorkoutDays       []string `json:"workout_days" binding:"required,min=1,max=7,unique,dive,oneof=mon tue wed thu fri sat sun"`
}

type OnboardingDraft struct {
	Basics      *BasicsStep      `json:"basics,omitempty"`
	Activity    *ActivityStep    `json:"activity,omitempty"`
	Preferences *PreferencesStep `json:"preferences,omitempty"`
	// NextStep is the first step without saved data, or empty when all are done.
	NextStep string `json:"next_step"`
}

// OnboardingService runs the three-step profile wizard. Each step is validated
// on its own; the draft is kept in durable storage between steps.
type OnboardingService struct {
	storage  ClientStorage
	profiles *ProfileService
	validate *validator.Validate
}

func NewOnboardingService(storage ClientStorage, profiles *ProfileService) *OnboardingService {
	return &OnboardingService{storage: storage, profiles: profiles, validate: newValidator()}
}

func (s *OnboardingService) Draft(ctx context.Context, userID uint) (*OnboardingDraft, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	draft := &OnboardingDraft{}
	raw, ok, err := s.storage.Get(ctx, userID, repository.KeyOnboardingDraft)
	if err != nil {
		return nil, err
	}
	if ok {
		// A corrupt draft restarts the wizard.
		_ = json.Unmarshal([]byte(raw), draft)
	}
	draft.NextStep = nextStep(draft)
	return draft, nil
}

// SaveStep validates one step and stores it in the draft.
func (s *OnboardingService) SaveStep(ctx context.Context, userID uint, step string, body json.RawMessage) (*OnboardingDraft, error) {
	draft, err := s.Draft(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch step {
	case StepBasics:
		var v BasicsStep
		if err := s.decode(body, &v); err != nil {
			return nil, err
		}
		draft.Basics = &v
	case StepActivity:
		var v ActivityStep
		if err := s.decode(body, &v); err != nil {
			return nil, err
		}
		draft.Activity = &v
	case StepPreferences:
		var v PreferencesStep
		if err := s.decode(body, &v); err != nil {
			return nil, err
		}
		draft.Preferences = &v
	default:
		return nil, ErrUnknownStep
	}

	draft.NextStep = nextStep(draft)
	payload, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("marshal onboarding draft failed: %w", err)
	}
	if err := s.storage.Set(ctx, userID, repository.KeyOnboardingDraft, string(payload)); err != nil {
		return nil, err
	}
	return draft, nil
}

// Complete submits the finished wizard as the user's profile.
func (s *OnboardingService) Complete(ctx context.Context, userID uint, displayName string) (*model.Profile, error) {
	draft, err := s.Draft(ctx, userID)
	if err != nil {
		return nil, err
	}
	if draft.NextStep != "" {
		return nil, fmt.Errorf("%w: %s step missing", ErrOnboardingIncomplete, draft.NextStep)
	}
	for _, step := range []any{draft.Basics, draft.Activity, draft.Preferences} {
		if err := validateStruct(s.validate, step); err != nil {
			return nil, err
		}
	}

	profile := model.Profile{
		UserID:            int(userID),
		DisplayName:       displayName,
		Gender:            draft.Basics.Gender,
		Age:               draft.Basics.Age,
		HeightCm:          draft.Basics.HeightCm,
		WeightKg:          draft.Basics.WeightKg,
		ActivityLevel:     draft.Activity.ActivityLevel,
		FitnessGoal:       draft.Activity.FitnessGoal,
		DietaryPreference: draft.Preferences.DietaryPreference,
		WorkoutDays:       draft.Preferences.WorkoutDays,
	}
	updated, err := s.profiles.Update(ctx, userID, profile)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.MarkCompleted(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.storage.Delete(ctx, userID, repository.KeyOnboardingDraft); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *OnboardingService) decode(body json.RawMessage, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return validateStruct(s.validate, out)
}

func nextStep(d *OnboardingDraft) string {
	present := map[string]bool{
		StepBasics:      d.Basics != nil,
		StepActivity:    d.Activity != nil,
		StepPreferences: d.Preferences != nil,
	}
	for _, step := range onboardingSteps {
		if !present[step] {
			return step
		}
	}
	return ""
}
