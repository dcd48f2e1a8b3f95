package enum

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// DurationType is the unit an event duration is expressed in
type DurationType int

const (
	DurationTypeDays  DurationType = 0
	DurationTypeHours DurationType = 1
)

// HoursPerRentalDay is how many booked hours count as one rental day
const HoursPerRentalDay = 8

func (t DurationType) String() string {
	names := [...]string{"days", "hours"}
	if int(t) < 0 || int(t) >= len(names) {
		return "days"
	}
	return names[t]
}

// ParseDurationType maps "hours" to DurationTypeHours and anything else to days
func ParseDurationType(s string) DurationType {
	if strings.EqualFold(strings.TrimSpace(s), "hours") {
		return DurationTypeHours
	}
	return DurationTypeDays
}

// RentalDays converts a duration in this unit into billable rental days
func (t DurationType) RentalDays(duration int) int {
	if t == DurationTypeHours {
		return (duration + HoursPerRentalDay - 1) / HoursPerRentalDay
	}
	return duration
}

// Hours converts a duration in this unit into hours
func (t DurationType) Hours(duration int) int {
	if t == DurationTypeHours {
		return duration
	}
	return duration * HoursPerRentalDay
}

func (t DurationType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *DurationType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*t = DurationType(i)
		return nil
	}
	*t = ParseDurationType(str)
	return nil
}

func (t DurationType) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *DurationType) Scan(value interface{}) error {
	if value == nil {
		*t = DurationTypeDays
		return nil
	}
	switch v := value.(type) {
	case int64:
		*t = DurationType(v)
	case int:
		*t = DurationType(v)
	}
	return nil
}
