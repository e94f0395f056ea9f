package metrics

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Sex is the biological sex used by the Mifflin-St Jeor equation.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// ParseSex validates a sex string coming from profile data.
func ParseSex(s string) (Sex, error) {
	switch Sex(s) {
	case SexMale, SexFemale:
		return Sex(s), nil
	}
	return "", fmt.Errorf("invalid sex %q", s)
}

// ActivityLevel scales BMR into TDEE.
type ActivityLevel string

const (
	ActivitySedentary        ActivityLevel = "sedentary"
	ActivityLightlyActive    ActivityLevel = "lightly_active"
	ActivityModeratelyActive ActivityLevel = "moderately_active"
	ActivityVeryActive       ActivityLevel = "very_active"
	ActivityExtremelyActive  ActivityLevel = "extremely_active"
)

// activityMultipliers is the single source of truth for valid activity levels.
var activityMultipliers = map[ActivityLevel]float64{
	ActivitySedentary:        1.2,
	ActivityLightlyActive:    1.375,
	ActivityModeratelyActive: 1.55,
	ActivityVeryActive:       1.725,
	ActivityExtremelyActive:  1.9,
}

// ParseActivityLevel validates an activity level string.
func ParseActivityLevel(s string) (ActivityLevel, error) {
	if _, ok := activityMultipliers[ActivityLevel(s)]; !ok {
		return "", fmt.Errorf("invalid activity level %q", s)
	}
	return ActivityLevel(s), nil
}

// Goal is the user's primary goal; it determines the weekly weight-change rate.
type Goal string

const (
	GoalLoseWeight    Goal = "lose_weight"
	GoalGainMuscle    Goal = "gain_muscle"
	GoalMaintain      Goal = "maintain"
	GoalImproveHealth Goal = "improve_health"
)

// weeklyRates maps each goal to its kg/week target rate. Maintenance goals
// have a zero rate and therefore no timeline estimate.
var weeklyRates = map[Goal]float64{
	GoalLoseWeight:    -0.5,
	GoalGainMuscle:    0.4,
	GoalMaintain:      0,
	GoalImproveHealth: 0,
}

// ParseGoal validates a goal string.
func ParseGoal(s string) (Goal, error) {
	if _, ok := weeklyRates[Goal(s)]; !ok {
		return "", fmt.Errorf("invalid goal %q", s)
	}
	return Goal(s), nil
}

// WeeklyRate returns the kg/week rate for a goal.
func (g Goal) WeeklyRate() float64 {
	return weeklyRates[g]
}

const (
	kcalPerKG          = 7700 // approximate energy content of 1 kg body fat
	proteinPerKG       = 1.6
	proteinPerKGMuscle = 2.0
	waterMLPerKG       = 35
)

var (
	ErrMissingWeight = errors.New("weight is required to compute metrics")
	ErrMissingHeight = errors.New("height is required to compute metrics")
)

// Input holds the profile values needed to compute metrics. All fields except
// TargetWeightKG are required.
type Input struct {
	WeightKG       float64
	HeightCM       float64
	AgeYears       int
	Sex            Sex
	Activity       ActivityLevel
	Goal           Goal
	TargetWeightKG *float64
}

// Result carries every derived value. EstimatedWeeks and
// ProjectedCompletionDate are set only when the goal implies a non-zero
// weekly rate and a target weight is known.
type Result struct {
	BMI                     float64    `json:"bmi"`
	BMR                     float64    `json:"bmr"`
	TDEE                    float64    `json:"tdee"`
	CalorieTarget           float64    `json:"calorie_target"`
	ProteinTargetG          float64    `json:"protein_target_g"`
	WaterTargetML           float64    `json:"water_target_ml"`
	WeeklyRateKG            float64    `json:"weekly_rate_kg"`
	EstimatedWeeks          *int       `json:"estimated_weeks,omitempty"`
	ProjectedCompletionDate *time.Time `json:"projected_completion_date,omitempty"`
}

// Compute derives BMI, BMR (Mifflin-St Jeor), TDEE, and nutrition targets
// from profile inputs. Pure: the only time dependency is the caller-supplied
// now, used to anchor the projected completion date.
func Compute(in Input, now time.Time) (Result, error) {
	if in.WeightKG <= 0 {
		return Result{}, ErrMissingWeight
	}
	if in.HeightCM <= 0 {
		return Result{}, ErrMissingHeight
	}
	if _, ok := activityMultipliers[in.Activity]; !ok {
		return Result{}, fmt.Errorf("invalid activity level %q", in.Activity)
	}
	if _, ok := weeklyRates[in.Goal]; !ok {
		return Result{}, fmt.Errorf("invalid goal %q", in.Goal)
	}

	heightM := in.HeightCM / 100
	bmi := in.WeightKG / (heightM * heightM)

	// Mifflin-St Jeor: sex-dependent additive constant.
	bmr := 10*in.WeightKG + 6.25*in.HeightCM - 5*float64(in.AgeYears)
	if in.Sex == SexMale {
		bmr += 5
	} else {
		bmr -= 161
	}

	tdee := bmr * activityMultipliers[in.Activity]
	rate := weeklyRates[in.Goal]

	// Daily calorie delta implied by the weekly rate (7700 kcal per kg).
	calorieTarget := tdee + rate*kcalPerKG/7

	proteinCoeff := proteinPerKG
	if in.Goal == GoalGainMuscle {
		proteinCoeff = proteinPerKGMuscle
	}

	res := Result{
		BMI:            round1(bmi),
		BMR:            math.Round(bmr),
		TDEE:           math.Round(tdee),
		CalorieTarget:  math.Round(calorieTarget),
		ProteinTargetG: round1(in.WeightKG * proteinCoeff),
		WaterTargetML:  math.Round(in.WeightKG * waterMLPerKG),
		WeeklyRateKG:   rate,
	}

	// Maintenance has no ETA: both timeline fields stay unset.
	if rate != 0 && in.TargetWeightKG != nil {
		deltaKG := math.Abs(*in.TargetWeightKG - in.WeightKG)
		weeks := int(math.Ceil(deltaKG / math.Abs(rate)))
		projected := now.AddDate(0, 0, weeks*7)
		res.EstimatedWeeks = &weeks
		res.ProjectedCompletionDate = &projected
	}

	return res, nil
}

// Rebase returns a copy of r with BMI, BMR, and TDEE replaced by previously
// stored values and the calorie target rederived from that TDEE. Used when a
// reused snapshot is presented alongside explanations, so every number quoted
// in the text matches the snapshot rather than a fresh computation.
func (r Result) Rebase(bmi, bmr, tdee float64) Result {
	r.BMI = bmi
	r.BMR = bmr
	r.TDEE = tdee
	r.CalorieTarget = math.Round(tdee + r.WeeklyRateKG*kcalPerKG/7)
	return r
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
