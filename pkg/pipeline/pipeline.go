// Package pipeline composes named HTTP stages in an explicit order.
package pipeline

import "net/http"

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Stage is a named middleware.
type Stage struct {
	Name       string
	Middleware Middleware
}

// Chain is an ordered list of stages. The first stage is the outermost.
type Chain struct {
	stages []Stage
}

// New creates a chain from stages.
func New(stages ...Stage) *Chain {
	c := &Chain{}
	for _, s := range stages {
		c.Use(s.Name, s.Middleware)
	}
	return c
}

// Use appends a stage. A nil middleware is skipped, which lets callers pass
// disabled stages without branching.
func (c *Chain) Use(name string, m Middleware) *Chain {
	if m != nil {
		c.stages = append(c.stages, Stage{Name: name, Middleware: m})
	}
	return c
}

// Then wraps h with every stage.
func (c *Chain) Then(h http.Handler) http.Handler {
	if h == nil {
		h = http.DefaultServeMux
	}
	for i := len(c.stages) - 1; i >= 0; i-- {
		h = c.stages[i].Middleware(h)
	}
	return h
}

// Names returns the stage names, outermost first.
func (c *Chain) Names() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name
	}
	return names
}

// Len returns the number of stages.
func (c *Chain) Len() int { return len(c.stages) }
