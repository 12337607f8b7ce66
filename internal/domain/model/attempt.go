package model

import (
	"fmt"
	"strings"
	"time"
)

// Attempt records the outcome of one try against a target (an endpoint, a media URL).
type Attempt struct {
	Target     string
	StatusCode int
	Err        error
	Duration   time.Duration
}

func (a Attempt) Ok() bool {
	return a.Err == nil
}

func (a Attempt) String() string {
	if a.Err == nil {
		return fmt.Sprintf("%s: ok (%s)", a.Target, a.Duration.Round(time.Millisecond))
	}
	return fmt.Sprintf("%s: %v", a.Target, a.Err)
}

// Attempts is an ordered attempt history.
type Attempts []Attempt

func (as Attempts) Last() (Attempt, bool) {
	if len(as) == 0 {
		return Attempt{}, false
	}
	return as[len(as)-1], true
}

func (as Attempts) Failed() Attempts {
	out := make(Attempts, 0, len(as))
	for _, a := range as {
		if !a.Ok() {
			out = append(out, a)
		}
	}
	return out
}

func (as Attempts) String() string {
	parts := make([]string, 0, len(as))
	for _, a := range as {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, "; ")
}
