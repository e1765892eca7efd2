package reports

// MacroSplit is each macro's share of calories, in percent.
type MacroSplit struct {
	ProteinPct float64
	CarbsPct   float64
	FatPct     float64
}

// MacroPercentages converts daily grams into calorie shares (4/4/9 kcal per gram).
// A zero calorie total is replaced by 1 so the shares come out as 0, not NaN.
func MacroPercentages(calories, protein, carbs, fat float64) MacroSplit {
	denominator := calories
	if denominator == 0 {
		denominator = 1
	}
	return MacroSplit{
		ProteinPct: protein * 4 / denominator * 100,
		CarbsPct:   carbs * 4 / denominator * 100,
		FatPct:     fat * 9 / denominator * 100,
	}
}

// ApplyScores fills the derived nutrition fields. Each macro earns InBandScore when its share
// is inside its band and OutOfBandScore otherwise; the score is the plain mean of the three.
// Diversity and approval scores are already set by the collector.
func ApplyScores(m Metrics, p Policy) Metrics {
	split := MacroPercentages(m.AvgDailyCalories, m.AvgDailyProtein, m.AvgDailyCarbs, m.AvgDailyFat)

	checks := []struct {
		pct  float64
		band MacroBand
	}{
		{split.ProteinPct, p.ProteinBand},
		{split.CarbsPct, p.CarbsBand},
		{split.FatPct, p.FatBand},
	}

	var total float64
	met := 0
	for _, c := range checks {
		if c.band.Contains(c.pct) {
			total += p.InBandScore
			met++
		} else {
			total += p.OutOfBandScore
		}
	}

	m.NutritionScore = total / float64(len(checks))
	m.NutritionGoalsMet = met
	m.NutritionGoalsTotal = len(checks)
	return m
}
