package sharetext

import (
	"regexp"
	"strconv"
	"time"
)

// China Standard Time; the platforms stamp dates in local time.
var CST = time.FixedZone("CST", 8*3600)

// digitRunRe matches whole digit runs, so neighbouring stamps that share one
// separator are each seen.
var digitRunRe = regexp.MustCompile(`\d+`)

// DateStamp finds an eight digit YYYYMMDD stamp. Short trailing numbers such
// as "01/20" are tracking codes and are not treated as dates.
func DateStamp(text string) *time.Time {
	for _, run := range digitRunRe.FindAllString(text, -1) {
		if len(run) != 8 || run[:2] != "20" {
			continue
		}
		y, _ := strconv.Atoi(run[:4])
		mo, _ := strconv.Atoi(run[4:6])
		d, _ := strconv.Atoi(run[6:])
		t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, CST)
		if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
			continue
		}
		return &t
	}
	return nil
}

// ParseLoose accepts the timestamp shapes seen in platform payloads: unix
// seconds or milliseconds, RFC 3339, Weibo's ruby-style layout and plain
// dates.
func ParseLoose(v any) *time.Time {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		return fromUnix(int64(x))
	case int64:
		return fromUnix(x)
	case int:
		return fromUnix(int64(x))
	case interface{ Int64() (int64, error) }:
		n, err := x.Int64()
		if err != nil {
			return nil
		}
		return fromUnix(n)
	case string:
		return parseTimeString(x)
	}
	return nil
}

func fromUnix(n int64) *time.Time {
	if n <= 0 {
		return nil
	}
	if n > 1e12 {
		n /= 1000
	}
	t := time.Unix(n, 0).In(CST)
	return &t
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RubyDate,
	"Mon Jan 02 15:04:05 -0700 2006",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
}

func parseTimeString(s string) *time.Time {
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fromUnix(n)
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, CST); err == nil {
			return &t
		}
	}
	return nil
}
