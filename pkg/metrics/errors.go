package metrics

import (
	"errors"
	"fmt"
	"time"
)

var errNoRunYet = errors.New("no analysis has completed yet")

type staleError struct {
	age time.Duration
}

func (e *staleError) Error() string {
	return fmt.Sprintf("last analysis is %s old", e.age.Round(time.Second))
}
