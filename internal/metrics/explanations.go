package metrics

import "fmt"

// Explanations is the educational payload returned alongside computed metrics
// and generated plans, describing the formula behind each number.
type Explanations struct {
	BMI      string `json:"bmi"`
	BMR      string `json:"bmr"`
	TDEE     string `json:"tdee"`
	Calories string `json:"calories"`
	Protein  string `json:"protein"`
	Water    string `json:"water"`
	Timeline string `json:"timeline"`
}

// Explain builds the human-readable rationale for a computed result.
func Explain(r Result) Explanations {
	e := Explanations{
		BMI:      fmt.Sprintf("BMI %.1f = weight (kg) divided by height (m) squared. It is a rough screening number, not a diagnosis.", r.BMI),
		BMR:      fmt.Sprintf("BMR %.0f kcal is your resting burn, estimated with the Mifflin-St Jeor equation (10xweight + 6.25xheight - 5xage, adjusted for sex).", r.BMR),
		TDEE:     fmt.Sprintf("TDEE %.0f kcal is BMR scaled by your activity level. It is what you burn on a typical day.", r.TDEE),
		Protein:  fmt.Sprintf("Protein %.1f g/day keeps muscle while weight changes, scaled from your body weight.", r.ProteinTargetG),
		Water:    fmt.Sprintf("Water %.0f ml/day follows the common 35 ml per kg guideline.", r.WaterTargetML),
		Timeline: "Your goal implies maintenance, so there is no target date: the plan focuses on consistency instead.",
	}

	switch {
	case r.WeeklyRateKG < 0:
		e.Calories = fmt.Sprintf("Calorie target %.0f kcal sits below your TDEE, creating the deficit needed to lose about %.1f kg per week.", r.CalorieTarget, -r.WeeklyRateKG)
	case r.WeeklyRateKG > 0:
		e.Calories = fmt.Sprintf("Calorie target %.0f kcal sits above your TDEE, the surplus that supports gaining about %.1f kg per week.", r.CalorieTarget, r.WeeklyRateKG)
	default:
		e.Calories = fmt.Sprintf("Calorie target %.0f kcal equals your TDEE: eat what you burn and your weight holds steady.", r.CalorieTarget)
	}

	if r.EstimatedWeeks != nil {
		e.Timeline = fmt.Sprintf("At %.1f kg per week you are roughly %d weeks from your target weight.", r.WeeklyRateKG, *r.EstimatedWeeks)
	}

	return e
}
