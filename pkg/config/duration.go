package config

import (
	"time"

	"github.com/sosodev/duration"
)

// ParseDuration parses s as an ISO 8601 duration (e.g. "PT30M", "P30D") and
// falls back to Go duration syntax (e.g. "30m").
func ParseDuration(s string) (time.Duration, error) {
	isoDuration, err := duration.Parse(s)
	if err == nil {
		return isoDuration.ToTimeDuration(), nil
	}
	return time.ParseDuration(s)
}
