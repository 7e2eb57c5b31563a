package health

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

type Probe func(ctx context.Context) error

type Result struct {
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs named probes and keeps the latest result of each.
// Until the first Run every probe reports not ok.
type Checker struct {
	timeout time.Duration
	names   []string
	probes  map[string]Probe

	mu      sync.RWMutex
	results map[string]Result
}

func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Checker{
		timeout: timeout,
		probes:  make(map[string]Probe),
		results: make(map[string]Result),
	}
}

func (c *Checker) Add(name string, p Probe) *Checker {
	if _, exists := c.probes[name]; !exists {
		c.names = append(c.names, name)
		sort.Strings(c.names)
	}
	c.probes[name] = p
	return c
}

func (c *Checker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	results := make([]Result, len(c.names))
	for i, name := range c.names {
		wg.Add(1)
		go func(i int, p Probe) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			err := p(pctx)
			results[i] = Result{OK: err == nil, CheckedAt: time.Now().UTC()}
			if err != nil {
				results[i].Error = err.Error()
			}
		}(i, c.probes[name])
	}
	wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, name := range c.names {
		c.results[name] = results[i]
	}
}

// Status returns overall health and a copy of the per-probe results.
func (c *Checker) Status() (bool, map[string]Result) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ok := true
	out := make(map[string]Result, len(c.names))
	for _, name := range c.names {
		r, seen := c.results[name]
		if !seen {
			r = Result{Error: errNotChecked.Error()}
		}
		ok = ok && r.OK
		out[name] = r
	}
	return ok, out
}

var errNotChecked = errors.New("not checked yet")
