package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

type Day uint8

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var dayCodes = map[string]Day{
	"SEG": Monday,
	"TER": Tuesday,
	"QUA": Wednesday,
	"QUI": Thursday,
	"SEX": Friday,
	"SAB": Saturday,
}

var dayNames = [...]string{"SEG", "TER", "QUA", "QUI", "SEX", "SAB"}

func (day Day) String() string {
	if int(day) < len(dayNames) {
		return dayNames[day]
	}
	return fmt.Sprintf("Day(%d)", uint8(day))
}

// TimeBlock is a weekly meeting of an offering: a day and a [Start, End) range of whole hours
type TimeBlock struct {
	Day   Day
	Start int
	End   int
}

// ParseTimeBlock parses the "<DAY>-<START_HOUR>-<END_HOUR>" format (e.g. "SEG-08-10")
func ParseTimeBlock(text string) (TimeBlock, error) {
	parts := strings.Split(strings.TrimSpace(text), "-")
	if len(parts) != 3 {
		return TimeBlock{}, fmt.Errorf("invalid time block \"%v\": expected <DAY>-<START>-<END>", text)
	}

	day, ok := dayCodes[strings.ToUpper(parts[0])]
	if !ok {
		return TimeBlock{}, fmt.Errorf("invalid time block \"%v\": unknown day code \"%v\"", text, parts[0])
	}

	start, err := parseHour(parts[1])
	if err != nil {
		return TimeBlock{}, fmt.Errorf("invalid time block \"%v\": %w", text, err)
	}
	end, err := parseHour(parts[2])
	if err != nil {
		return TimeBlock{}, fmt.Errorf("invalid time block \"%v\": %w", text, err)
	}
	if end <= start {
		return TimeBlock{}, fmt.Errorf("invalid time block \"%v\": end hour must be greater than start hour", text)
	}

	return TimeBlock{Day: day, Start: start, End: end}, nil
}

func parseHour(text string) (int, error) {
	if len(text) != 2 {
		return 0, fmt.Errorf("hour \"%v\" must have two digits", text)
	}
	hour, err := strconv.Atoi(text)
	if err != nil || hour < 0 || hour > 24 {
		return 0, fmt.Errorf("hour \"%v\" is not between 00 and 24", text)
	}
	return hour, nil
}

func (block TimeBlock) String() string {
	return fmt.Sprintf("%v-%02d-%02d", block.Day, block.Start, block.End)
}

func (block TimeBlock) MarshalText() ([]byte, error) {
	return []byte(block.String()), nil
}

func (block *TimeBlock) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeBlock(string(text))
	if err != nil {
		return err
	}
	*block = parsed
	return nil
}

// Overlaps reports whether both blocks share at least one hour of the same day
func (block TimeBlock) Overlaps(other TimeBlock) bool {
	return block.Day == other.Day && block.Start < other.End && other.Start < block.End
}

// Slots returns the hourly slots (day, hour) covered by the block
func (block TimeBlock) Slots() []Slot {
	slots := make([]Slot, 0, block.End-block.Start)
	for hour := block.Start; hour < block.End; hour++ {
		slots = append(slots, Slot{Day: block.Day, Hour: hour})
	}
	return slots
}

// Slot is a one-hour cell of the weekly grid
type Slot struct {
	Day  Day
	Hour int
}
