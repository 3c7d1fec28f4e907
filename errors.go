package storecrawler

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNavigationTimeout = errors.New("navigation timeout")
	ErrPageClosed        = errors.New("page is closed")
	ErrSessionClosed     = errors.New("session is closed")
	ErrRobotsDisallowed  = errors.New("disallowed by robots.txt")
	ErrNotStarted        = errors.New("crawler not started")
)

// LaunchError reports that the browser runtime could not be started.
type LaunchError struct {
	Adapter string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s browser: %v", e.Adapter, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// NavigationError reports a failed page load. Status is the HTTP status when a
// response arrived, zero otherwise.
type NavigationError struct {
	Url     string
	Status  int
	Timeout bool
	Err     error
}

func (e *NavigationError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("navigation to %s timed out: %v", e.Url, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("navigation to %s failed: StatusCode:%d", e.Url, e.Status)
	}
	return fmt.Sprintf("navigation to %s failed: %v", e.Url, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

func (e *NavigationError) Is(target error) bool {
	return target == ErrNavigationTimeout && e.Timeout
}

// navigationError normalises a driver failure into a *NavigationError.
func navigationError(url string, err error) error {
	var navErr *NavigationError
	if errors.As(err, &navErr) {
		return navErr
	}
	return &NavigationError{
		Url:     url,
		Timeout: errors.Is(err, context.DeadlineExceeded),
		Err:     err,
	}
}
