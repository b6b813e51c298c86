package util

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"
)

// TimeAsTimestamp stores a time.Time as a UNIX timestamp, second
// resolution is plenty for registration and match dates.
type TimeAsTimestamp time.Time

func (t TimeAsTimestamp) Value() (driver.Value, error) {
	return time.Time(t).Unix(), nil
}

func (t TimeAsTimestamp) Time() time.Time {
	return time.Time(t)
}

func (t *TimeAsTimestamp) Scan(src interface{}) error {
	switch src := src.(type) {
	case int64:
		*t = TimeAsTimestamp(time.Unix(src, 0))
	case []byte:
		epoch, err := strconv.ParseInt(string(src), 10, 64)
		if err != nil {
			return err
		}

		*t = TimeAsTimestamp(time.Unix(epoch, 0))
	default:
		return fmt.Errorf("expected []byte or int64, got %T", src)
	}

	return nil
}

// NullTimeAsTimestamp is the nullable flavor, NULL marks an event that
// never happened (eg. the deactivation of a still-active player).
type NullTimeAsTimestamp struct {
	Time  TimeAsTimestamp
	Valid bool
}

// NewNullTimeAsTimestamp marks the event as having happened at t.
func NewNullTimeAsTimestamp(t time.Time) NullTimeAsTimestamp {
	return NullTimeAsTimestamp{
		Time:  TimeAsTimestamp(t),
		Valid: true,
	}
}

func (ns *NullTimeAsTimestamp) Scan(src interface{}) error {
	if src == nil {
		*ns = NullTimeAsTimestamp{}
		return nil
	}

	ns.Valid = true

	return ns.Time.Scan(src)
}

func (ns NullTimeAsTimestamp) Value() (driver.Value, error) {
	if !ns.Valid {
		return nil, nil
	}

	return ns.Time.Value()
}
