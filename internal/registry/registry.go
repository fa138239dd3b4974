package registry

import (
	"github.com/Warr10rOfOdin/dispatchwatch/internal/record"
)

// Registry tracks the previous snapshot's signature and id set and computes
// the per-pass delta. It performs no I/O and is not safe for concurrent use;
// the engine serializes access.
type Registry struct {
	sig    string
	ids    map[string]struct{}
	primed bool
}

// Delta describes how the new snapshot relates to the previous one.
type Delta struct {
	// Changed is false when the signature matched; downstream work other
	// than the lightweight per-cycle alert checks can be skipped.
	Changed bool
	// First marks the first successful pass: everything is technically new,
	// so no "new record" events are reported.
	First bool
	// NewIDs are ids present now but absent from the previous snapshot.
	// Empty on the first pass by construction.
	NewIDs []string
}

func New() *Registry {
	return &Registry{}
}

// Apply compares the new snapshot against the previous one and, when it
// differs, adopts it as the new baseline.
func (g *Registry) Apply(set record.Set) Delta {
	sig := set.Signature()
	if g.primed && sig == g.sig {
		return Delta{}
	}

	delta := Delta{Changed: true, First: !g.primed}
	ids := set.IDs()
	if g.primed {
		for _, r := range set.Records {
			id := r.ID()
			if _, existed := g.ids[id]; !existed {
				delta.NewIDs = append(delta.NewIDs, id)
			}
		}
	}
	g.sig = sig
	g.ids = ids
	g.primed = true
	return delta
}

// Primed reports whether a baseline snapshot has been established.
func (g *Registry) Primed() bool { return g.primed }
