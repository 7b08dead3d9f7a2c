package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"disaster-bot/internal/geo"
	"disaster-bot/internal/models"
)

// validator collects field issues in the same shape the frontend already
// parses: {path, message}.
type validator struct {
	issues []models.ValidationIssue
}

func (v *validator) add(path, format string, args ...interface{}) {
	v.issues = append(v.issues, models.ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) ok() bool { return len(v.issues) == 0 }

func (v *validator) stringLen(path, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	if n < min {
		v.add(path, "String must contain at least %d character(s)", min)
	} else if max > 0 && n > max {
		v.add(path, "String must contain at most %d character(s)", max)
	}
}

func (v *validator) enum(path, value string, allowed []string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	if value == "" {
		v.add(path, "Required")
		return
	}
	v.add(path, "Invalid enum value. Expected '%s', received '%s'", strings.Join(allowed, "' | '"), value)
}

func (v *validator) coordinates(path string, loc models.LocationInput) (lng, lat float64) {
	if len(loc.Coordinates) != 2 {
		v.add(path, "Array must contain exactly 2 element(s)")
		return 0, 0
	}
	if !geo.ValidLngLat(loc.Coordinates) {
		v.add(path, "Coordinates must be [longitude, latitude] within valid ranges.")
		return 0, 0
	}
	return loc.Coordinates[0], loc.Coordinates[1]
}

func (v *validator) httpURL(path, value string) {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		v.add(path, "Invalid url")
	}
}

func (v *validator) numberRange(path string, n, min, max float64) {
	if n < min {
		v.add(path, "Number must be greater than or equal to %s", formatNumber(min))
	} else if n > max {
		v.add(path, "Number must be less than or equal to %s", formatNumber(max))
	}
}

// queryNumber parses an optional numeric query parameter. A missing value
// yields def; required parameters report "Required" instead.
func (v *validator) queryNumber(q url.Values, key string, def float64, required, integer bool, min, max float64) float64 {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		if required {
			v.add(key, "Required")
		}
		return def
	}

	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		v.add(key, "Expected number, received nan")
		return def
	}
	if integer && n != math.Trunc(n) {
		v.add(key, "Expected integer, received float")
		return def
	}
	v.numberRange(key, n, min, max)
	return n
}

func (v *validator) queryEnum(q url.Values, key string, allowed []string) string {
	val := q.Get(key)
	if val != "" {
		v.enum(key, val, allowed)
	}
	return val
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// decodeIssue turns a JSON decoding failure into a single issue.
func decodeIssue(err error) models.ValidationIssue {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return models.ValidationIssue{
			Path:    typeErr.Field,
			Message: fmt.Sprintf("Expected %s, received %s", jsonTypeName(typeErr.Type.Kind().String()), typeErr.Value),
		}
	}
	return models.ValidationIssue{Path: "", Message: "Invalid JSON body"}
}

func jsonTypeName(kind string) string {
	switch kind {
	case "string":
		return "string"
	case "slice", "array":
		return "array"
	case "struct", "map", "ptr":
		return "object"
	case "bool":
		return "boolean"
	default:
		return "number"
	}
}
