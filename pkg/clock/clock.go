// Package clock timestamps captures. Boards without an RTC often boot with a
// wrong wall clock, so the time can be corrected by an NTP offset.
package clock

import (
	"fmt"
	"time"

	"github.com/beevik/ntp"
)

type Clock interface {
	Now() time.Time
}

type System struct{}

func (System) Now() time.Time { return time.Now() }

// Offset is the system clock shifted by a fixed amount.
type Offset struct {
	Offset time.Duration
}

func (o Offset) Now() time.Time { return time.Now().Add(o.Offset) }

// NewNTP queries server once and returns a clock corrected by the measured offset.
func NewNTP(server string, timeout time.Duration) (Offset, error) {
	resp, err := ntp.QueryWithOptions(server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return Offset{}, fmt.Errorf("query ntp server %s: %w", server, err)
	}
	if err = resp.Validate(); err != nil {
		return Offset{}, fmt.Errorf("ntp response from %s: %w", server, err)
	}

	return Offset{Offset: resp.ClockOffset}, nil
}
