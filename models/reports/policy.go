package reports

import "github.com/mmdatafocus/mealplan_backend/models"

// MacroBand is an accepted share of daily calories for one macro, in percent, both ends inclusive.
type MacroBand struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (b MacroBand) Contains(pct float64) bool {
	return pct >= b.Min && pct <= b.Max
}

// Policy holds the domain constants used to compute a weekly report.
type Policy struct {
	// MinutesSavedPerTemplateUse is an estimate, not a measurement.
	MinutesSavedPerTemplateUse int `json:"minutes_saved_per_template_use"`

	// VoteScores maps a vote to a 0-100 approval score; unmapped votes score 0.
	VoteScores map[models.VoteValue]float64 `json:"vote_scores"`

	ProteinBand    MacroBand `json:"protein_band"`
	CarbsBand      MacroBand `json:"carbs_band"`
	FatBand        MacroBand `json:"fat_band"`
	InBandScore    float64   `json:"in_band_score"`
	OutOfBandScore float64   `json:"out_of_band_score"`

	LovedThreshold      float64 `json:"loved_threshold"`
	LeastLovedThreshold float64 `json:"least_loved_threshold"`
	MostLovedLimit      int     `json:"most_loved_limit"`
	LeastLovedLimit     int     `json:"least_loved_limit"`
	MostUsedLimit       int     `json:"most_used_limit"`
}

func DefaultPolicy() Policy {
	return Policy{
		MinutesSavedPerTemplateUse: 25,
		VoteScores: map[models.VoteValue]float64{
			models.VoteValueLoves:   100,
			models.VoteValueNeutral: 50,
		},
		ProteinBand:         MacroBand{Min: 20, Max: 30},
		CarbsBand:           MacroBand{Min: 45, Max: 65},
		FatBand:             MacroBand{Min: 20, Max: 35},
		InBandScore:         100,
		OutOfBandScore:      70,
		LovedThreshold:      80,
		LeastLovedThreshold: 50,
		MostLovedLimit:      5,
		LeastLovedLimit:     3,
		MostUsedLimit:       5,
	}
}

func (p Policy) VoteScore(v models.VoteValue) float64 {
	return p.VoteScores[v]
}
