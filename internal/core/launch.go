package core

import (
	"fmt"
	"time"
)

// Launch is one upstream mission entry. Launches are immutable from
// liftoff's point of view; favorites and the detail cache store copies.
type Launch struct {
	ID            string        `json:"id" yaml:"id"`
	FlightNumber  int           `json:"flight_number" yaml:"flight_number"`
	MissionName   string        `json:"mission_name" yaml:"mission_name"`
	LaunchDateUTC string        `json:"launch_date_utc" yaml:"launch_date_utc"`
	Rocket        Rocket        `json:"rocket" yaml:"rocket"`
	LaunchSite    LaunchSite    `json:"launch_site" yaml:"launch_site"`
	MissionPatch  *MissionPatch `json:"mission_patch" yaml:"mission_patch,omitempty"`
	Success       *bool         `json:"success" yaml:"success,omitempty"`
	Upcoming      bool          `json:"upcoming" yaml:"upcoming"`
}

// Rocket describes the launch vehicle.
type Rocket struct {
	RocketID   string `json:"rocket_id" yaml:"rocket_id"`
	RocketName string `json:"rocket_name" yaml:"rocket_name"`
}

// LaunchSite describes where the launch took place.
type LaunchSite struct {
	SiteID   string `json:"site_id,omitempty" yaml:"site_id,omitempty"`
	SiteName string `json:"site_name" yaml:"site_name"`
}

// MissionPatch holds mission patch image links.
type MissionPatch struct {
	Small string `json:"small" yaml:"small"`
}

// Outcome is the launch result derived from Upcoming and Success.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeUpcoming
	OutcomeSucceeded
	OutcomeFailed
)

// String returns the outcome label.
func (o Outcome) String() string {
	switch o {
	case OutcomeUpcoming:
		return "upcoming"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome returns the launch result. Upcoming takes precedence over
// Success.
func (l Launch) Outcome() Outcome {
	if l.Upcoming {
		return OutcomeUpcoming
	}
	if l.Success == nil {
		return OutcomeUnknown
	}
	if *l.Success {
		return OutcomeSucceeded
	}
	return OutcomeFailed
}

// LaunchTime parses LaunchDateUTC.
func (l Launch) LaunchTime() (time.Time, error) {
	t, err := time.Parse(time.RFC3339, l.LaunchDateUTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid launch date %q: %w", l.LaunchDateUTC, err)
	}
	return t, nil
}

// PatchURL returns the small mission patch link, or "" when there is
// no patch.
func (l Launch) PatchURL() string {
	if l.MissionPatch == nil {
		return ""
	}
	return l.MissionPatch.Small
}

// Clone returns a deep copy so a stored snapshot never aliases the
// caller's pointers.
func (l Launch) Clone() Launch {
	c := l
	if l.MissionPatch != nil {
		patch := *l.MissionPatch
		c.MissionPatch = &patch
	}
	if l.Success != nil {
		success := *l.Success
		c.Success = &success
	}
	return c
}
