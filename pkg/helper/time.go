// pkg/helper/time.go
package helper

import "time"

// LoadLocation resolves a time zone name already checked by config
// validation. An empty or unknown name yields UTC.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FormatTime formats t in loc with the zone abbreviation.
func FormatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02 15:04:05 MST")
}
