package timezone

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// probeZone is used to tell "unknown identifier" apart from "no tz database".
const probeZone = "America/New_York"

// Host is the resolved host zone.
type Host struct {
	Name     string
	Location *time.Location
	// Approximate is set when Location is a fixed offset because the tz
	// database could not be read at all. Seasonal offset changes are lost.
	Approximate bool
}

// LoadHost resolves the host zone. A fixed offset built from fallbackOffset
// ("+03:00") is only used when the tz database itself is unavailable; an
// unknown identifier with a working database is an error.
func LoadHost(name, fallbackOffset string) (Host, error) {
	loc, err := Load(name)
	if err == nil {
		return Host{Name: loc.String(), Location: loc}, nil
	}
	if _, probeErr := time.LoadLocation(probeZone); probeErr == nil {
		return Host{}, err
	}
	if strings.TrimSpace(fallbackOffset) == "" {
		return Host{}, fmt.Errorf("tz database unavailable and no fallback offset configured: %w", err)
	}
	secs, perr := ParseOffset(fallbackOffset)
	if perr != nil {
		return Host{}, perr
	}
	return Host{
		Name:        name,
		Location:    time.FixedZone(name+" (approximate)", secs),
		Approximate: true,
	}, nil
}

// ParseOffset parses "+HH:MM" / "-HH:MM" into seconds east of UTC.
func ParseOffset(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) != 6 || (s[0] != '+' && s[0] != '-') || s[3] != ':' {
		return 0, fmt.Errorf("invalid utc offset %q", s)
	}
	h, err := strconv.Atoi(s[1:3])
	if err != nil || h > 14 {
		return 0, fmt.Errorf("invalid utc offset %q", s)
	}
	m, err := strconv.Atoi(s[4:6])
	if err != nil || m > 59 {
		return 0, fmt.Errorf("invalid utc offset %q", s)
	}
	secs := h*3600 + m*60
	if s[0] == '-' {
		secs = -secs
	}
	return secs, nil
}
