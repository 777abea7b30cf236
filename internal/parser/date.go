package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ParseDateValue interprets a gjson value found at a date-bearing path
// according to the four accepted shapes:
//   - wrapped {"$date": "<ISO8601>"}
//   - wrapped {"$date": {"$numberLong": "<epoch-ms>"}}
//   - bare ISO8601 string
//   - bare numeric or numeric-as-string epoch-ms
//
// Missing or empty values return (-1, nil). Malformed wrapped forms
// return an error; malformed bare strings return (-1, nil) since they
// cannot be distinguished from "not a date" without the wrapper.
func ParseDateValue(v gjson.Result) (int64, error) {
	if !v.Exists() {
		return -1, nil
	}

	switch v.Type {
	case gjson.JSON:
		dateField := v.Get("$date")
		if !dateField.Exists() {
			return -1, nil
		}
		if dateField.Type == gjson.JSON {
			numberLong := dateField.Get("$numberLong")
			if !numberLong.Exists() {
				return -1, fmt.Errorf("date: $date object missing $numberLong")
			}
			ms, err := strconv.ParseInt(strings.TrimSpace(numberLong.String()), 10, 64)
			if err != nil {
				return -1, fmt.Errorf("date: invalid $numberLong %q: %w", numberLong.String(), err)
			}
			return ms, nil
		}
		// wrapped bare ISO8601 or numeric string under $date
		return parseDateString(dateField.String(), true)

	case gjson.Number:
		return int64(v.Num), nil

	case gjson.String:
		return parseDateString(v.String(), false)

	default:
		return -1, nil
	}
}

// parseDateString parses a bare string as ISO8601 or as a numeric
// epoch-ms value. strict controls whether a malformed string raises an
// error (true, for values found under a "$date" wrapper) or is treated
// as absent (false, for truly bare top-level string fields).
func parseDateString(s string, strict bool) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return -1, nil
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UnixMilli(), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05.000Z0700", s); err == nil {
		return t.UnixMilli(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UnixMilli(), nil
	}

	if strict {
		return -1, fmt.Errorf("date: malformed $date value %q", s)
	}
	return -1, nil
}

// FormatDay renders an epoch-ms timestamp as a day-resolution date
// string ("YYYY-MM-DD"), or "N/A" for -1/absent.
func FormatDay(epochMS int64) string {
	if epochMS < 0 {
		return "N/A"
	}
	return time.UnixMilli(epochMS).UTC().Format("2006-01-02")
}
