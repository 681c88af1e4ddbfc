package sessions

import "time"

// fixedTime returns a deterministic, strictly increasing timestamp for
// offset 1, 2, 3, ..., so ordering assertions don't depend on time.Now().
func fixedTime(offsetSeconds int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(offsetSeconds) * time.Second)
}
