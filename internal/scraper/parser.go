package scraper

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/golang-sql/civil"
)

type DateParser struct {
	now func() time.Time
	loc *time.Location
}

func NewDateParser(now func() time.Time) *DateParser {
	if now == nil {
		now = time.Now
	}
	return &DateParser{now: now, loc: time.Local}
}

// Normalize приводит "5 mins ago", "2 hours ago", "Yesterday" или
// календарную дату к дате без времени. nil: даты нет.
func (dp *DateParser) Normalize(raw string) *civil.Date {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	now := dp.now()

	switch {
	case strings.Contains(raw, "min"):
		n, err := leadingInt(raw)
		if err != nil {
			return nil
		}
		return dateOf(now.Add(-time.Duration(n) * time.Minute))
	case strings.Contains(raw, "hour"):
		n, err := leadingInt(raw)
		if err != nil {
			return nil
		}
		return dateOf(now.Add(-time.Duration(n) * time.Hour))
	case strings.EqualFold(raw, "yesterday"):
		return dateOf(now.AddDate(0, 0, -1))
	}

	t, err := parseCalendar(raw, dp.loc)
	if err != nil {
		return nil
	}
	return dateOf(t)
}

// parseCalendar не даёт панике dateparse выйти наружу
func parseCalendar(raw string, loc *time.Location) (t time.Time, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unable to parse date %q: %v", raw, r)
		}
	}()
	return dateparse.ParseIn(raw, loc)
}

func leadingInt(s string) (int, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty date string")
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("failed to parse %q as int: %w", fields[0], err)
	}
	return n, nil
}

func dateOf(t time.Time) *civil.Date {
	d := civil.DateOf(t)
	return &d
}

// IsOlderThan: дата раньше, чем now минус months месяцев (0 считается как 1).
// Нет даты: не старая.
func IsOlderThan(date *civil.Date, months int, now time.Time) bool {
	if date == nil {
		return false
	}
	if months <= 0 {
		months = 1
	}
	return date.In(now.Location()).Before(monthsBefore(now, months))
}

// monthsBefore вычитает календарные месяцы, прижимая день к концу месяца
// (31 марта - 1 месяц = 28/29 февраля)
func monthsBefore(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m-time.Month(months), 1, 0, 0, 0, 0, t.Location())
	ty, tm, _ := first.Date()

	if last := time.Date(ty, tm+1, 0, 0, 0, 0, 0, t.Location()).Day(); d > last {
		d = last
	}

	return time.Date(ty, tm, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// ParseLastPage разбирает счётчик "1 of 1,234" и возвращает 1234
func ParseLastPage(text string) (int, error) {
	parts := strings.Split(text, " of ")
	last := strings.ReplaceAll(strings.TrimSpace(parts[len(parts)-1]), ",", "")
	n, err := strconv.Atoi(last)
	if err != nil {
		return 0, fmt.Errorf("invalid page counter %q: %w", text, err)
	}
	return n, nil
}
