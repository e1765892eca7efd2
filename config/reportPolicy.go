package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mmdatafocus/mealplan_backend/models"
	"github.com/mmdatafocus/mealplan_backend/models/reports"
)

// LoadReportPolicy applies REPORT_* env overrides on top of base.
// Malformed values are logged and ignored.
//
// Bands are written as "min-max", e.g. REPORT_PROTEIN_BAND=20-30.
func LoadReportPolicy(base reports.Policy) reports.Policy {
	p := base
	scores := make(map[models.VoteValue]float64, len(base.VoteScores))
	for k, v := range base.VoteScores {
		scores[k] = v
	}
	p.VoteScores = scores

	p.MinutesSavedPerTemplateUse = nonNegativeIntFromEnv("REPORT_MINUTES_PER_TEMPLATE_USE", p.MinutesSavedPerTemplateUse)
	p.MostLovedLimit = nonNegativeIntFromEnv("REPORT_MOST_LOVED_LIMIT", p.MostLovedLimit)
	p.LeastLovedLimit = nonNegativeIntFromEnv("REPORT_LEAST_LOVED_LIMIT", p.LeastLovedLimit)
	p.MostUsedLimit = nonNegativeIntFromEnv("REPORT_MOST_USED_LIMIT", p.MostUsedLimit)

	if v, ok := floatFromEnv("REPORT_VOTE_SCORE_LOVES"); ok {
		p.VoteScores[models.VoteValueLoves] = v
	}
	if v, ok := floatFromEnv("REPORT_VOTE_SCORE_NEUTRAL"); ok {
		p.VoteScores[models.VoteValueNeutral] = v
	}

	p.ProteinBand = bandFromEnv("REPORT_PROTEIN_BAND", p.ProteinBand)
	p.CarbsBand = bandFromEnv("REPORT_CARBS_BAND", p.CarbsBand)
	p.FatBand = bandFromEnv("REPORT_FAT_BAND", p.FatBand)
	return p
}

// nonNegativeIntFromEnv keeps def for unset, malformed or negative values.
func nonNegativeIntFromEnv(key string, def int) int {
	n := intFromEnv(key, def)
	if n < 0 {
		LogWarn(logg, "config", "LoadReportPolicy", key, n, fmt.Errorf("%s must not be negative", key))
		return def
	}
	return n
}

func floatFromEnv(key string) (float64, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		LogWarn(logg, "config", "LoadReportPolicy", key, v, err)
		return 0, false
	}
	return f, true
}

func bandFromEnv(key string, def reports.MacroBand) reports.MacroBand {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	band, err := ParseMacroBand(v)
	if err != nil {
		LogWarn(logg, "config", "LoadReportPolicy", key, v, err)
		return def
	}
	return band
}

// ParseMacroBand parses "min-max" into a band with min <= max.
func ParseMacroBand(value string) (reports.MacroBand, error) {
	lo, hi, ok := strings.Cut(value, "-")
	if !ok {
		return reports.MacroBand{}, fmt.Errorf("invalid band %q: expected min-max", value)
	}
	lower, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return reports.MacroBand{}, fmt.Errorf("invalid band %q: %w", value, err)
	}
	upper, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return reports.MacroBand{}, fmt.Errorf("invalid band %q: %w", value, err)
	}
	if lower > upper {
		return reports.MacroBand{}, fmt.Errorf("invalid band %q: min is greater than max", value)
	}
	return reports.MacroBand{Min: lower, Max: upper}, nil
}
