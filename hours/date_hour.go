package hours

import (
	"fmt"
	"time"
)

const (
	dateLayout = "2006-01-02"
	hourLayout = "2006-01-02 15"
)

var (
	stockholmLoc *time.Location
	localLoc     *time.Location
)

func init() {
	var err error
	stockholmLoc, err = time.LoadLocation("Europe/Stockholm")
	if err != nil {
		panic(fmt.Sprintf("failed to load Stockholm location: %v", err))
	}
	localLoc = stockholmLoc
}

// SetTimezone changes the zone used to decide what "today" and "this hour" is.
// Price areas are Swedish, so the default is Europe/Stockholm.
func SetTimezone(timezone string) error {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %s: %v", timezone, err)
	}
	localLoc = loc
	return nil
}

func Location() *time.Location {
	return localLoc
}

// Date is a calendar day formatted as YYYY-MM-DD.
type Date string

func (d Date) String() string {
	return string(d)
}

func (d Date) IsZero() bool {
	return d == ""
}

func (d Date) AddDays(days int) Date {
	t, err := time.ParseInLocation(dateLayout, string(d), time.UTC)
	if err != nil {
		return d
	}
	return Date(t.AddDate(0, 0, days).Format(dateLayout))
}

// Time returns local midnight of the date.
func (d Date) Time() time.Time {
	t, err := time.ParseInLocation(dateLayout, string(d), localLoc)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (d Date) Compare(other Date) int {
	switch {
	case d == other:
		return 0
	case d < other:
		return -1
	default:
		return 1
	}
}

func ParseDate(str string) (Date, error) {
	t, err := time.Parse(dateLayout, str)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", str, err)
	}
	return Date(t.Format(dateLayout)), nil
}

func DateOf(t time.Time) Date {
	if t.IsZero() {
		return ""
	}
	return Date(t.In(localLoc).Format(dateLayout))
}

func Today() Date {
	return DateOf(time.Now())
}

type DateHour struct {
	Date Date
	Hour uint8
}

func (dh DateHour) String() string {
	return fmt.Sprintf("%s %02d", dh.Date, dh.Hour)
}

// Time returns the start of the hour in the local zone.
func (dh DateHour) Time() time.Time {
	t, err := time.ParseInLocation(hourLayout, dh.String(), localLoc)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (dh DateHour) Add(hours int) DateHour {
	t, err := time.ParseInLocation(hourLayout, dh.String(), time.UTC)
	if err != nil {
		return dh
	}

	t = t.Add(time.Duration(hours) * time.Hour)
	return DateHour{
		Date: Date(t.Format(dateLayout)),
		Hour: uint8(t.Hour()),
	}
}

func (dh DateHour) Sub(hours int) DateHour {
	return dh.Add(-hours)
}

func (dh DateHour) Compare(other DateHour) int {
	if c := dh.Date.Compare(other.Date); c != 0 {
		return c
	}
	switch {
	case dh.Hour < other.Hour:
		return -1
	case dh.Hour > other.Hour:
		return 1
	}
	return 0
}

func (dh DateHour) IsZero() bool {
	return dh.Date == "" && dh.Hour == 0
}

func FromTime(t time.Time) DateHour {
	if t.IsZero() {
		return DateHour{}
	}
	t = t.In(localLoc)
	return DateHour{
		Date: Date(t.Format(dateLayout)),
		Hour: uint8(t.Hour()),
	}
}

func FromNow() DateHour {
	return FromTime(time.Now())
}

func LocationStockholm(t time.Time) time.Time {
	return t.In(stockholmLoc)
}
