package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const dynamicDatePrefix = "$date:"

var dateLayouts = map[string]string{
	"day":      "2006-01-02",
	"month":    "2006-01",
	"year":     "2006",
	"datetime": "2006-01-02 15:04:05",
	"compact":  "20060102",
	"long":     "January 2, 2006",
}

var dateShifts = map[string]func(t time.Time, n int) time.Time{
	"day":     func(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) },
	"week":    func(t time.Time, n int) time.Time { return t.AddDate(0, 0, 7*n) },
	"month":   func(t time.Time, n int) time.Time { return t.AddDate(0, n, 0) },
	"quarter": func(t time.Time, n int) time.Time { return t.AddDate(0, 3*n, 0) },
	"year":    func(t time.Time, n int) time.Time { return t.AddDate(n, 0, 0) },
}

// ParseDynamicDate evaluates "$date:format:unit:offset" against now.
// "$date:day:day:-1" is yesterday as 2006-01-02. The format is a keyword from
// dateLayouts or a Go layout; unit and offset may be omitted together.
// Values without the prefix are returned unchanged.
func ParseDynamicDate(expression string, now time.Time) (string, error) {
	if !strings.HasPrefix(expression, dynamicDatePrefix) {
		return expression, nil
	}

	parts := strings.SplitN(strings.TrimPrefix(expression, dynamicDatePrefix), ":", 3)
	layout, ok := dateLayouts[parts[0]]
	if !ok {
		if !strings.Contains(parts[0], "2006") && !strings.Contains(parts[0], "01") {
			return "", fmt.Errorf("unknown date format in %q", expression)
		}
		layout = parts[0]
	}

	switch len(parts) {
	case 1:
		return now.Format(layout), nil
	case 2:
		return "", fmt.Errorf("dynamic date %q needs both unit and offset", expression)
	}

	shift, ok := dateShifts[parts[1]]
	if !ok {
		return "", fmt.Errorf("unsupported unit %q in dynamic date", parts[1])
	}
	offset, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", fmt.Errorf("invalid offset in dynamic date %q: %w", expression, err)
	}
	return shift(now, offset).Format(layout), nil
}

// ResolveParameters returns a copy of params with every dynamic date evaluated.
// Values that fail to parse are kept verbatim and reported in the error.
func ResolveParameters(params map[string]string, now time.Time) (map[string]string, error) {
	out := make(map[string]string, len(params))
	var bad []string
	for k, v := range params {
		resolved, err := ParseDynamicDate(v, now)
		if err != nil {
			bad = append(bad, k)
			out[k] = v
			continue
		}
		out[k] = resolved
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return out, fmt.Errorf("invalid dynamic parameters: %s", strings.Join(bad, ", "))
	}
	return out, nil
}
