package models

import (
	"fmt"
	"time"
)

// dateLayout is the wire format for all calendar dates. Dates carry no time
// of day and no timezone; comparisons go through Parse, which pins every
// date to midnight UTC so a client's local zone can never shift the day.
const dateLayout = "2006-01-02"

// Date is a calendar date in YYYY-MM-DD form.
type Date string

// Today returns the current calendar date.
func Today() Date {
	return Date(time.Now().UTC().Format(dateLayout))
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

// Parse returns the date as a time.Time at midnight UTC.
func (d Date) Parse() (time.Time, error) {
	t, err := time.Parse(dateLayout, string(d))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", string(d), err)
	}
	return t, nil
}

// Valid reports whether the date is a well-formed YYYY-MM-DD string.
func (d Date) Valid() bool {
	_, err := d.Parse()
	return err == nil
}
