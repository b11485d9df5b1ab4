package benchmark

import (
	"sync"

	"objbench/metrics"
)

const (
	CheckStatusOK    = "is status 200"
	CheckPayloadSize = "payload size matches"
)

// CheckResult is the tally of one named check.
type CheckResult struct {
	Name   string
	Passes int64
	Fails  int64
}

// Checks records pass/fail outcomes of virtual users and keeps checks in first-seen order.
type Checks struct {
	mu      sync.Mutex
	order   []string
	results map[string]*CheckResult
	metrics *metrics.Metrics
}

// NewChecks returns an empty tally that mirrors every outcome to m.
func NewChecks(m *metrics.Metrics) *Checks {
	return &Checks{
		results: make(map[string]*CheckResult),
		metrics: m,
	}
}

// Record tallies one outcome of check name and returns ok.
func (c *Checks) Record(name string, ok bool) bool {
	c.mu.Lock()
	result, found := c.results[name]
	if !found {
		result = &CheckResult{Name: name}
		c.results[name] = result
		c.order = append(c.order, name)
	}
	if ok {
		result.Passes++
	} else {
		result.Fails++
	}
	c.mu.Unlock()

	c.metrics.ObserveCheck(name, ok)
	return ok
}

// Results returns a snapshot of all checks.
func (c *Checks) Results() []CheckResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	results := make([]CheckResult, 0, len(c.order))
	for _, name := range c.order {
		results = append(results, *c.results[name])
	}
	return results
}

// Failed reports whether any check recorded a failure.
func (c *Checks) Failed() bool {
	for _, r := range c.Results() {
		if r.Fails > 0 {
			return true
		}
	}
	return false
}
