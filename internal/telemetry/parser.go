package telemetry

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mjaros/pvweekly/internal/timeseries"
)

// DayPolicy selects how the bare day-of-month token in an export line
// resolves to an absolute date. The two policies are observed in real export
// files and are mutually exclusive; a deployment must pick one.
type DayPolicy string

const (
	// DayPolicyRollover treats day tokens as absolute calendar days in the
	// window's start month; a token smaller than the start day means the
	// month boundary was crossed inside the window.
	DayPolicyRollover DayPolicy = "rollover"
	// DayPolicyOffset treats day tokens as 1-based offsets from the
	// window's start date.
	DayPolicyOffset DayPolicy = "offset"
)

// ParsePolicy normalizes a configured policy string, defaulting to rollover.
func ParsePolicy(s string) DayPolicy {
	if DayPolicy(strings.ToLower(s)) == DayPolicyOffset {
		return DayPolicyOffset
	}
	return DayPolicyRollover
}

// ParseMeasurementFile reads one raw channel export and returns its series.
//
// Each line is `<HH:MM>. <day>.;<value>` where the value uses a comma decimal
// separator and may be quoted. Malformed lines are skipped; an absent or
// unparseable value yields a point with a nil value. A file that cannot be
// opened, or that contains no valid row, yields an empty series rather than
// an error.
func ParseMeasurementFile(path string, baseDate time.Time, policy DayPolicy) timeseries.Series {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("telemetry: open %s: %v", path, err)
		return nil
	}
	defer f.Close()

	var series timeseries.Series
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, ";")

		ts, ok := parseTimeDay(parts[0], baseDate, policy)
		if !ok {
			continue
		}

		var value *float64
		if len(parts) > 1 {
			value = parseDecimal(parts[1])
		}
		series = append(series, timeseries.Point{Timestamp: ts, Value: value})
	}
	if err := scanner.Err(); err != nil {
		log.Printf("telemetry: read %s: %v", path, err)
	}
	return series
}

// parseTimeDay decodes the composite first field: a wall-clock time token and
// a day-of-month token, each with an optional trailing period.
func parseTimeDay(field string, baseDate time.Time, policy DayPolicy) (time.Time, bool) {
	tokens := strings.Fields(strings.TrimSpace(field))
	if len(tokens) < 2 {
		return time.Time{}, false
	}

	clock, err := time.Parse("15:04", strings.TrimSuffix(tokens[0], "."))
	if err != nil {
		return time.Time{}, false
	}

	day, err := strconv.Atoi(strings.TrimSuffix(tokens[1], "."))
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}

	var date time.Time
	switch policy {
	case DayPolicyOffset:
		date = baseDate.AddDate(0, 0, day-1)
	default: // rollover
		year, month := baseDate.Year(), int(baseDate.Month())
		if day < baseDate.Day() {
			month++
			if month == 13 {
				month = 1
				year++
			}
		}
		date = time.Date(year, time.Month(month), day, 0, 0, 0, 0, baseDate.Location())
	}

	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), 0, 0, baseDate.Location()), true
}

// parseDecimal parses a locale-formatted value token: surrounding quotes
// stripped, comma decimal separator. Returns nil when absent or unparseable.
func parseDecimal(field string) *float64 {
	s := strings.Trim(strings.TrimSpace(field), `"`)
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
