package runner

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"atlas-broker-runner/internal/browser"
	"atlas-broker-runner/internal/interfaces"
)

// Registry hands out one runner per broker, created lazily on first use
// and reused afterwards so the logged-in browser session survives between
// requests.
type Registry struct {
	blog *zap.Logger
	wrap func(key string, r interfaces.Runner) interfaces.Runner

	mu      sync.Mutex
	runners map[string]interfaces.Runner
}

// NewRegistry creates a registry. wrap decorates each new runner (for
// observability middleware); pass nil to skip.
func NewRegistry(blog *zap.Logger, wrap func(key string, r interfaces.Runner) interfaces.Runner) *Registry {
	if wrap == nil {
		wrap = func(_ string, r interfaces.Runner) interfaces.Runner { return r }
	}
	return &Registry{
		blog:    blog,
		wrap:    wrap,
		runners: make(map[string]interfaces.Runner),
	}
}

// Get returns the runner for a broker key, creating it on first call.
func (g *Registry) Get(key string) (interfaces.Runner, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.runners[key]; ok {
		return r, nil
	}
	profile, err := ProfileFor(key)
	if err != nil {
		return nil, err
	}
	opts := browser.OptionsFromEnv(key)
	r := g.wrap(key, New(profile, opts, g.blog.With(zap.String("broker", key))))
	g.runners[key] = r
	return r, nil
}

// CloseAll tears down every live runner.
func (g *Registry) CloseAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key, r := range g.runners {
		r.Close()
		delete(g.runners, key)
	}
}

// Ensure pre-creates runners for the given broker keys without starting
// their browsers.
func (g *Registry) Ensure(keys []string) error {
	for _, key := range keys {
		if _, err := g.Get(key); err != nil {
			return fmt.Errorf("broker %s: %w", key, err)
		}
	}
	return nil
}
