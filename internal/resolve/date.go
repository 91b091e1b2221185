package resolve

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/oilfield-ai/drillquery/internal/model"
)

var (
	isoDateRE   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	fullDateRE  = regexp.MustCompile(`(\d{4})\s*[年\-/.]\s*(\d{1,2})\s*[月\-/.]\s*(\d{1,2})`)
	monthDayRE  = regexp.MustCompile(`(?:^|\D)(\d{1,2})\s*月\s*(\d{1,2})\s*[日号]?`)
	yearMonthRE = regexp.MustCompile(`(\d{4})\s*[年\-/]\s*(\d{1,2})`)
	daysAgoRE   = regexp.MustCompile(`^(\d+)\s*(?:days? ago|天前)$`)
	lastNDaysRE = regexp.MustCompile(`(?:(?:last|past|recent)\s*(\d+)\s*days?|最近\s*(\d+)\s*天|近\s*(\d+)\s*天)`)
	rangeSepRE  = regexp.MustCompile(`\s+to\s+|到|至|~|～`)
)

type dateTerm struct {
	words []string
	at    func(today time.Time) time.Time
}

// dateTerms is checked in order; multi-character terms that contain shorter
// ones come first.
var dateTerms = []dateTerm{
	{[]string{"day before yesterday", "前天"}, func(d time.Time) time.Time { return d.AddDate(0, 0, -2) }},
	{[]string{"today", "今天", "今日"}, func(d time.Time) time.Time { return d }},
	{[]string{"yesterday", "昨天", "昨日"}, func(d time.Time) time.Time { return d.AddDate(0, 0, -1) }},
	{[]string{"tomorrow", "明天"}, func(d time.Time) time.Time { return d.AddDate(0, 0, 1) }},
	{[]string{"this week", "本周", "这周"}, mondayOf},
	{[]string{"last week", "上周"}, func(d time.Time) time.Time { return d.AddDate(0, 0, -7) }},
	{[]string{"this month", "本月", "这个月"}, firstOfMonth},
	{[]string{"last month", "上月", "上个月"}, func(d time.Time) time.Time { return firstOfMonth(d).AddDate(0, -1, 0) }},
}

// NormalizeDate resolves raw against the current local date.
func NormalizeDate(raw string) string {
	return NormalizeDateAt(raw, time.Now())
}

// NormalizeDateAt returns raw as a YYYY-MM-DD string, resolving relative
// words against now. Input that spells out a day (2023-11-06, 2023/11/6,
// 2023年11月6日, or 11月6日 in the current year) keeps that day even when it
// does not exist, so a strict parse by the caller rejects 2023/02/30 rather
// than some other day being used. Unrecognized input resolves to today and
// is logged.
func NormalizeDateAt(raw string, now time.Time) string {
	s := strings.TrimSpace(raw)
	if isoDateRE.MatchString(s) {
		return s
	}
	today := truncateDay(now)
	if shaped, ok := matchDateShape(s, today); ok {
		if _, err := ParseStrict(shaped); err != nil {
			slog.Warn("resolve: date names no calendar day", "input", raw)
		}
		return shaped
	}
	if d, ok := resolveDate(s, today); ok {
		return format(d)
	}
	slog.Warn("resolve: unrecognized date, using today", "input", raw)
	return format(today)
}

func resolveDate(s string, today time.Time) (time.Time, bool) {
	key := fold(s)
	for _, t := range dateTerms {
		for _, w := range t.words {
			if key == w {
				return t.at(today), true
			}
		}
	}
	if m := daysAgoRE.FindStringSubmatch(key); m != nil {
		n, _ := strconv.Atoi(m[1])
		return today.AddDate(0, 0, -n), true
	}
	for _, t := range dateTerms {
		for _, w := range t.words {
			if strings.Contains(key, w) {
				return t.at(today), true
			}
		}
	}
	if d, ok := matchYearMonth(s, today.Location()); ok {
		return d, true
	}
	return time.Time{}, false
}

// ParseDateRange resolves raw against the current local date.
func ParseDateRange(raw string) (string, string) {
	return ParseDateRangeAt(raw, time.Now())
}

// ParseDateRangeAt returns an inclusive [start, end] pair of YYYY-MM-DD
// strings. Named periods cover whole calendar weeks, months and years. Input
// that names no period yields the last seven days through today.
func ParseDateRangeAt(raw string, now time.Time) (string, string) {
	s := strings.TrimSpace(raw)
	today := truncateDay(now)
	key := fold(s)

	if parts := rangeSepRE.Split(s, 2); len(parts) == 2 && strings.TrimSpace(parts[0]) != "" && strings.TrimSpace(parts[1]) != "" {
		return NormalizeDateAt(parts[0], now), NormalizeDateAt(parts[1], now)
	}
	if isoDateRE.MatchString(s) {
		return s, s
	}

	switch {
	case containsAny(key, "day before yesterday", "前天"):
		d := today.AddDate(0, 0, -2)
		return format(d), format(d)
	case containsAny(key, "today", "今天", "今日"):
		return format(today), format(today)
	case containsAny(key, "yesterday", "昨天", "昨日"):
		d := today.AddDate(0, 0, -1)
		return format(d), format(d)
	case containsAny(key, "last week", "上周"):
		start := mondayOf(today).AddDate(0, 0, -7)
		return format(start), format(start.AddDate(0, 0, 6))
	case containsAny(key, "this week", "本周", "这周"):
		start := mondayOf(today)
		return format(start), format(start.AddDate(0, 0, 6))
	case containsAny(key, "last month", "上月", "上个月"):
		start := firstOfMonth(today).AddDate(0, -1, 0)
		return format(start), format(start.AddDate(0, 1, -1))
	case containsAny(key, "this month", "本月", "这个月"):
		start := firstOfMonth(today)
		return format(start), format(start.AddDate(0, 1, -1))
	case containsAny(key, "last year", "去年"):
		start := time.Date(today.Year()-1, 1, 1, 0, 0, 0, 0, today.Location())
		return format(start), format(start.AddDate(1, 0, -1))
	case containsAny(key, "this year", "今年"):
		start := time.Date(today.Year(), 1, 1, 0, 0, 0, 0, today.Location())
		return format(start), format(start.AddDate(1, 0, -1))
	}

	if m := lastNDaysRE.FindStringSubmatch(key); m != nil {
		n := 0
		for _, g := range m[1:] {
			if g != "" {
				n, _ = strconv.Atoi(g)
				break
			}
		}
		return format(today.AddDate(0, 0, -n)), format(today)
	}
	if shaped, ok := matchDateShape(s, today); ok {
		return shaped, shaped
	}
	if start, ok := matchYearMonth(s, today.Location()); ok {
		return format(start), format(start.AddDate(0, 1, -1))
	}
	return format(today.AddDate(0, 0, -7)), format(today)
}

// ParseStrict validates a canonical date string.
func ParseStrict(s string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("resolve: date %q is not YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// matchDateShape finds an explicit year-month-day, or a month-day taken in
// today's year. A day that does not exist is returned zero-padded and
// unresolved.
func matchDateShape(s string, today time.Time) (string, bool) {
	var y, mo, d int
	if m := fullDateRE.FindStringSubmatch(s); m != nil {
		y, _ = strconv.Atoi(m[1])
		mo, _ = strconv.Atoi(m[2])
		d, _ = strconv.Atoi(m[3])
	} else if m := monthDayRE.FindStringSubmatch(s); m != nil {
		y = today.Year()
		mo, _ = strconv.Atoi(m[1])
		d, _ = strconv.Atoi(m[2])
	} else {
		return "", false
	}
	if t, ok := calendarDate(y, mo, d, today.Location()); ok {
		return format(t), true
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, mo, d), true
}

func matchYearMonth(s string, loc *time.Location) (time.Time, bool) {
	m := yearMonthRE.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	return calendarDate(y, mo, 1, loc)
}

// calendarDate rejects out-of-range parts instead of letting time.Date
// normalize them into a different day.
func calendarDate(y, m, d int, loc *time.Location) (time.Time, bool) {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func mondayOf(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func firstOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
}

func format(t time.Time) string { return t.Format(model.DateLayout) }
