// Package streak implements the household's daily completion streak.
//
// A streak counts consecutive calendar days on which at least one chore was
// completed. Comparisons use day granularity in UTC, so two completions at
// 00:01 and 23:59 of the same day count once.
package streak

import "time"

// startOfDay truncates t to midnight UTC.
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Advance returns the streak value after a completion at now, given the
// previous completion timestamp and the stored streak.
//
// Completing on the day after the last completion extends the streak by one.
// Completing again on the same day leaves it unchanged. Any longer gap, or no
// prior completion, resets it to one.
func Advance(lastCompleted *time.Time, streak int, now time.Time) int {
	if lastCompleted == nil {
		return 1
	}

	last := startOfDay(*lastCompleted)
	today := startOfDay(now)
	yesterday := today.AddDate(0, 0, -1)

	switch {
	case last.Equal(yesterday):
		return streak + 1
	case last.Equal(today):
		return streak
	default:
		return 1
	}
}

// Display returns the streak value to show the user at read time. A stored
// streak stays alive through the day after its last completion; once that
// grace day passes without a completion, the streak reads as zero. The stored
// value is left alone so a same-day write path can still see it.
func Display(lastCompleted *time.Time, streak int, now time.Time) int {
	if lastCompleted == nil {
		return 0
	}

	last := startOfDay(*lastCompleted)
	today := startOfDay(now)
	yesterday := today.AddDate(0, 0, -1)

	if last.Equal(today) || last.Equal(yesterday) {
		return streak
	}
	return 0
}
