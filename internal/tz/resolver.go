// Package tz resolves GeoCoordinates to an IANA-style time zone and exposes
// local-midnight / local-calendar-day helpers built on top of it.
//
// There is no lat/lon -> IANA zone lookup library wired into this module
// (the geocoding library available only goes city/country -> lat/lon), so
// this resolver is a longitude-banded approximation against the stdlib's
// fixed-offset zones. Callers that need a real tzdata lookup can swap the
// zoneFor function without touching the rest of the engine.
package tz

import (
	"strconv"
	"time"

	"github.com/i474232898/weather-data-aggregation/internal/core"
)

// Resolver resolves coordinates to a time zone and derives local calendar
// boundaries from it. Results are stable per (coords, instant); coordinates
// outside any recognized band fall back to UTC.
type Resolver struct{}

// New creates a Resolver.
func New() *Resolver { return &Resolver{} }

// ZoneFor returns a *time.Location for the given coordinates. It never
// errors: out-of-range input resolves to UTC.
func (r *Resolver) ZoneFor(coords core.GeoCoordinates) *time.Location {
	return zoneFor(coords)
}

// LocalMidnight returns the epoch seconds of local 00:00:00 on the local
// calendar day containing instant, in the zone resolved from coords.
func (r *Resolver) LocalMidnight(coords core.GeoCoordinates, instant time.Time) int64 {
	loc := zoneFor(coords)
	local := instant.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return midnight.Unix()
}

// LocalCalendarDay returns the (year, month, day) tuple for instant in the
// zone resolved from coords, used to compare days without relying on raw
// epoch arithmetic (upstreams sometimes stamp forecast days at non-midnight
// instants).
func (r *Resolver) LocalCalendarDay(coords core.GeoCoordinates, instant time.Time) (int, time.Month, int) {
	loc := zoneFor(coords)
	local := instant.In(loc)
	return local.Year(), local.Month(), local.Day()
}

// zoneFor buckets longitude into 15-degree-wide bands (one per nominal UTC
// hour) and returns the corresponding fixed-offset zone. Latitude is
// ignored; this is an approximation of a true IANA lookup, adequate for
// computing local-midnight boundaries without DST correctness.
func zoneFor(coords core.GeoCoordinates) *time.Location {
	lon := coords.Lon
	if lon < -180 || lon > 180 {
		return time.UTC
	}

	offsetHours := int((lon + 7.5) / 15.0)
	if lon < 0 {
		offsetHours = int((lon - 7.5) / 15.0)
	}
	if offsetHours > 14 {
		offsetHours = 14
	}
	if offsetHours < -12 {
		offsetHours = -12
	}
	if offsetHours == 0 {
		return time.UTC
	}

	name := "Etc/GMT"
	// POSIX/Etc zone sign convention is inverted relative to the
	// conventional "ahead of UTC" meaning: Etc/GMT-5 is UTC+5.
	if offsetHours > 0 {
		name += "-" + strconv.Itoa(offsetHours)
	} else {
		name += "+" + strconv.Itoa(-offsetHours)
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, offsetHours*3600)
	}
	return loc
}
