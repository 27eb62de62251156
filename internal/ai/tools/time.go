package tools

import (
	"fmt"
	"time"
)

func (t *Tools) CurrentTime(timezone string) (string, error) {
	loc := time.UTC
	if timezone != "" {
		parsed, err := time.LoadLocation(timezone)
		if err != nil {
			return "", fmt.Errorf("unknown timezone %q", timezone)
		}
		loc = parsed
	}
	now := time.Now().In(loc)
	return now.Format("Monday, 2 January 2006, 15:04:05 MST"), nil
}
