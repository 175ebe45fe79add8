// Package classinfo answers "what is my class situation right now" from a
// weekly timetable.
package classinfo

import (
	"fmt"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Slot is one weekly class. Day is an English weekday name; Start and End
// are 24-hour "HH:MM" wall-clock times in the student's local zone.
type Slot struct {
	Day    string `json:"day" yaml:"day"`
	Start  string `json:"start" yaml:"start"`
	End    string `json:"end" yaml:"end"`
	Module string `json:"module" yaml:"module"`
	Room   string `json:"room,omitempty" yaml:"room,omitempty"`
}

// Validate checks the day name, both times and that the class ends after
// it starts.
func (s Slot) Validate() error {
	if err := validation.ValidateStruct(&s,
		validation.Field(&s.Day, validation.Required, validation.By(func(any) error {
			_, err := parseDay(s.Day)
			return err
		})),
		validation.Field(&s.Start, validation.Required, validation.By(clockRule)),
		validation.Field(&s.End, validation.Required, validation.By(clockRule)),
		validation.Field(&s.Module, validation.Required),
	); err != nil {
		return err
	}
	start, _ := parseClock(s.Start)
	end, _ := parseClock(s.End)
	if end <= start {
		return fmt.Errorf("classinfo: %s class ends at %s before it starts at %s", s.Module, s.End, s.Start)
	}
	return nil
}

// Status is the class situation at one instant. It is one of
// NoClassToday, InClass, NextClass or ClassesFinished.
type Status interface {
	isStatus()
}

// NoClassToday means the timetable has nothing on this weekday.
type NoClassToday struct{}

// InClass means a class is running.
type InClass struct {
	Slot Slot
	Ends time.Time
}

// NextClass means the next class today has not started yet.
type NextClass struct {
	Slot   Slot
	Starts time.Time
	In     time.Duration
}

// ClassesFinished means every class today is over.
type ClassesFinished struct {
	Last Slot
}

func (NoClassToday) isStatus()    {}
func (InClass) isStatus()         {}
func (NextClass) isStatus()       {}
func (ClassesFinished) isStatus() {}

// Resolve reports the status at now. Invalid slots are skipped.
func Resolve(now time.Time, slots []Slot) Status {
	type dated struct {
		slot       Slot
		start, end time.Time
	}
	var today []dated
	for _, s := range slots {
		if s.Validate() != nil {
			continue
		}
		day, _ := parseDay(s.Day)
		if day != now.Weekday() {
			continue
		}
		start, _ := parseClock(s.Start)
		end, _ := parseClock(s.End)
		today = append(today, dated{slot: s, start: at(now, start), end: at(now, end)})
	}
	if len(today) == 0 {
		return NoClassToday{}
	}
	sort.Slice(today, func(i, j int) bool { return today[i].start.Before(today[j].start) })

	for _, d := range today {
		if !now.Before(d.start) && now.Before(d.end) {
			return InClass{Slot: d.slot, Ends: d.end}
		}
	}
	for _, d := range today {
		if now.Before(d.start) {
			return NextClass{Slot: d.slot, Starts: d.start, In: d.start.Sub(now)}
		}
	}
	last := today[0]
	for _, d := range today[1:] {
		if d.end.After(last.end) {
			last = d
		}
	}
	return ClassesFinished{Last: last.slot}
}

// Describe renders a status as one line for display.
func Describe(st Status) string {
	switch s := st.(type) {
	case NoClassToday:
		return "No classes today"
	case InClass:
		return fmt.Sprintf("In %s until %s%s", s.Slot.Module, s.Ends.Format("15:04"), room(s.Slot))
	case NextClass:
		return fmt.Sprintf("Next: %s at %s%s (in %s)", s.Slot.Module, s.Starts.Format("15:04"), room(s.Slot), s.In.Round(time.Minute))
	case ClassesFinished:
		return fmt.Sprintf("Classes finished for today (last: %s)", s.Last.Module)
	}
	return ""
}

func room(s Slot) string {
	if s.Room == "" {
		return ""
	}
	return ", " + s.Room
}

func at(now time.Time, minutes int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, now.Location())
}

func parseDay(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return 0, validation.NewError("validation_weekday", "must be a weekday name")
}

func clockRule(v any) error {
	s, _ := v.(string)
	if _, err := parseClock(s); err != nil {
		return validation.NewError("validation_clock", "must be a HH:MM time")
	}
	return nil
}

// parseClock returns minutes since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
