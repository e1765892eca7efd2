package utils

import (
	"errors"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			// if not exists in map, append it, otherwise do nothing
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

// safely dereference pointer of type T, nil pointer return zero value or optional default
func DereferencePtr[T any](ptr *T, defaults ...T) T {
	var defaultValue T
	if len(defaults) > 0 {
		defaultValue = defaults[0]
	}
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

// Percentage returns part/whole*100, or 0 when whole is 0.
func Percentage(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// ValidationMessage turns validator errors into a single readable sentence.
func ValidationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, ve := range validationErrors {
		switch ve.Tag() {
		case "required":
			msgs = append(msgs, ve.Field()+" is required")
		case "datetime":
			msgs = append(msgs, ve.Field()+" must be a date in "+ve.Param()+" format")
		default:
			msgs = append(msgs, ve.Field()+" is invalid ("+ve.Tag()+")")
		}
	}
	return strings.Join(msgs, "; ")
}
