// Package risk defines the inbound risk verdict port. Verdicts are produced
// elsewhere; this subsystem only consumes them to gate generation requests.
package risk

import (
	"context"
	"sync"
)

// Verdict is an externally computed risk decision for an identity.
type Verdict string

const (
	VerdictAllow  Verdict = "allow"
	VerdictReview Verdict = "review"
	VerdictDeny   Verdict = "deny"
)

// Provider supplies the current verdict for a client identity.
type Provider interface {
	Verdict(ctx context.Context, identity string) (Verdict, error)
}

// AllowAllProvider admits every identity. The default when no risk feed
// is wired.
type AllowAllProvider struct{}

func NewAllowAll() *AllowAllProvider {
	return &AllowAllProvider{}
}

func (AllowAllProvider) Verdict(context.Context, string) (Verdict, error) {
	return VerdictAllow, nil
}

// StaticProvider serves verdicts from a fixed table, defaulting to allow.
// Useful for tests and for operator-maintained denylists loaded at startup.
type StaticProvider struct {
	mu       sync.RWMutex
	verdicts map[string]Verdict
}

func NewStatic(verdicts map[string]Verdict) *StaticProvider {
	table := make(map[string]Verdict, len(verdicts))
	for identity, v := range verdicts {
		table[identity] = v
	}
	return &StaticProvider{verdicts: table}
}

func (p *StaticProvider) Verdict(_ context.Context, identity string) (Verdict, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if v, ok := p.verdicts[identity]; ok {
		return v, nil
	}
	return VerdictAllow, nil
}

// Set updates the verdict for an identity.
func (p *StaticProvider) Set(identity string, v Verdict) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verdicts[identity] = v
}
