// Package legacytime converts wall-clock values produced by the legacy records
// system into UTC instants. The legacy system records local time in a single
// fixed zone and never carries an offset.
package legacytime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"
	_ "time/tzdata" // zone data for containers without /usr/share/zoneinfo
)

// DefaultZone is the zone the legacy system writes timestamps in.
const DefaultZone = "Europe/London"

const (
	localDateTimeLayout = "2006-01-02T15:04:05.999999999"
	localDateLayout     = "2006-01-02"
)

var (
	zoneMu sync.RWMutex
	zone   = mustLoad(DefaultZone)
)

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("legacytime: load zone %q: %v", name, err))
	}
	return loc
}

// SetZone replaces the legacy zone. Called once at startup from configuration.
func SetZone(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("load legacy time zone %q: %w", name, err)
	}
	zoneMu.Lock()
	zone = loc
	zoneMu.Unlock()
	return nil
}

// Zone returns the configured legacy zone.
func Zone() *time.Location {
	zoneMu.RLock()
	defer zoneMu.RUnlock()
	return zone
}

// LocalDateTime is a zone-less wall-clock timestamp.
type LocalDateTime struct {
	time.Time
}

// NewLocalDateTime builds a wall-clock value; the location of t is ignored.
func NewLocalDateTime(year int, month time.Month, day, hour, min, sec int) LocalDateTime {
	return LocalDateTime{Time: time.Date(year, month, day, hour, min, sec, 0, time.UTC)}
}

// ParseLocalDateTime parses "2006-01-02T15:04:05" with optional fractional seconds.
func ParseLocalDateTime(s string) (LocalDateTime, error) {
	t, err := time.ParseInLocation(localDateTimeLayout, s, time.UTC)
	if err != nil {
		return LocalDateTime{}, fmt.Errorf("parse local date-time %q: %w", s, err)
	}
	return LocalDateTime{Time: t}, nil
}

func (l LocalDateTime) String() string {
	return l.Time.Format(localDateTimeLayout)
}

func (l LocalDateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *LocalDateTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLocalDateTime(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// LocalDate is a zone-less calendar date.
type LocalDate struct {
	time.Time
}

func NewLocalDate(year int, month time.Month, day int) LocalDate {
	return LocalDate{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d LocalDate) String() string {
	return d.Time.Format(localDateLayout)
}

func (d LocalDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *LocalDate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.ParseInLocation(localDateLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("parse local date %q: %w", s, err)
	}
	*d = LocalDate{Time: t}
	return nil
}

// ToUTCInstant interprets the wall clock in the legacy zone.
func ToUTCInstant(l LocalDateTime) time.Time {
	t := l.Time
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), Zone()).UTC()
}

// ToUTCStartOfDay returns the instant at which the date begins in the legacy zone.
func ToUTCStartOfDay(d LocalDate) time.Time {
	t := d.Time
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Zone()).UTC()
}
