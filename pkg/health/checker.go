package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// CheckFunc is a function that performs a health check for a component.
// It returns nil if the component is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

var (
	// ErrCheckTimeout is returned when a health check times out
	ErrCheckTimeout = errors.New("health check timeout")
)

// ProbeError reports which check failed.
type ProbeError struct {
	Name string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Name, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

type namedCheck struct {
	name  string
	check CheckFunc
}

// Checker runs health checks in registration order.
type Checker struct {
	mu     sync.RWMutex
	checks []namedCheck

	// Timeout for individual checks
	checkTimeout time.Duration
}

// New creates a new health checker with the specified check timeout.
// If timeout is 0, defaults to 5 seconds per check.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout == 0 {
		checkTimeout = 5 * time.Second
	}

	return &Checker{checkTimeout: checkTimeout}
}

// RegisterCheck appends a named check. A check with the same name is
// replaced in place.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.checks {
		if c.checks[i].name == name {
			c.checks[i].check = check
			return
		}
	}
	c.checks = append(c.checks, namedCheck{name: name, check: check})
}

// Names returns the registered check names in run order.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.checks))
	for i, nc := range c.checks {
		names[i] = nc.name
	}
	return names
}

// Run executes the checks sequentially and returns a *ProbeError for the
// first one that fails. Later checks are not run.
func (c *Checker) Run(ctx context.Context) error {
	c.mu.RLock()
	checks := make([]namedCheck, len(c.checks))
	copy(checks, c.checks)
	c.mu.RUnlock()

	for _, nc := range checks {
		if err := c.runCheck(ctx, nc.check); err != nil {
			return &ProbeError{Name: nc.name, Err: err}
		}
	}
	return nil
}

// runCheck executes a single health check with timeout.
func (c *Checker) runCheck(ctx context.Context, check CheckFunc) error {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	// Run check in goroutine so a driver that ignores ctx cannot hang the probe.
	errChan := make(chan error, 1)
	go func() {
		errChan <- check(checkCtx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-checkCtx.Done():
		if errors.Is(checkCtx.Err(), context.DeadlineExceeded) {
			return ErrCheckTimeout
		}
		return checkCtx.Err()
	}
}
