package resource

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mikelcalvo/erp-admin/internal/logger"
)

// NotSet is the label of a reference field that holds no id.
const NotSet = "not set"

// maxResolutions bounds the reference collections fetched at once.
const maxResolutions = 4

// Resolution is the outcome of resolving one reference field.
type Resolution struct {
	Field string
	Label string
	Err   error // set when Label is a placeholder
}

// Resolver turns foreign ids into labels. Each referenced collection is
// fetched at most once per session and shared by every detail screen;
// concurrent requests for the same collection share one round-trip.
type Resolver struct {
	backend Backend
	log     zerolog.Logger

	mu    sync.Mutex
	cache map[string]map[int64]string
	group singleflight.Group
}

// NewResolver creates a resolver with an empty cache.
func NewResolver(backend Backend) *Resolver {
	return &Resolver{
		backend: backend,
		log:     logger.WithComponent("resolver"),
		cache:   map[string]map[int64]string{},
	}
}

// Resolve finds the label of ref in rec. A label already sent by the
// server wins; otherwise the referenced collection is searched. Failures
// never propagate: the reference's placeholder is returned instead.
func (r *Resolver) Resolve(ctx context.Context, ref Reference, rec Record) Resolution {
	res := Resolution{Field: ref.Field}

	id, ok := rec.Int(ref.Field)
	if !ok {
		res.Label = NotSet
		return res
	}
	if ref.LabelField != "" {
		if label := rec.Text(ref.LabelField); strings.TrimSpace(label) != "" {
			res.Label = label
			return res
		}
	}

	labels, err := r.labels(ctx, ref)
	if err != nil {
		r.log.Warn().Err(err).Str("field", ref.Field).Str("resource", ref.Resource).Msg("reference not resolved")
		res.Label, res.Err = placeholder(ref), err
		return res
	}
	label, ok := labels[id]
	if !ok {
		res.Label = placeholder(ref)
		res.Err = fmt.Errorf("%s %d: %w", ref.Resource, id, ErrNotFound)
		return res
	}
	res.Label = label
	return res
}

// ResolveAll resolves every reference of schema in rec concurrently.
// Results come back in schema order; one failure never blocks the rest.
func (r *Resolver) ResolveAll(ctx context.Context, schema *Schema, rec Record) []Resolution {
	out := make([]Resolution, len(schema.References))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxResolutions)
	for i, ref := range schema.References {
		g.Go(func() error {
			out[i] = r.Resolve(ctx, ref, rec)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Invalidate drops every cached collection of resource, e.g. after a
// record of it was created or renamed.
func (r *Resolver) Invalidate(resource string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.cache {
		if strings.HasPrefix(key, resource+"?") || strings.HasPrefix(key, resource+"#") {
			delete(r.cache, key)
		}
	}
}

func (r *Resolver) labels(ctx context.Context, ref Reference) (map[int64]string, error) {
	key := ref.cacheKey()

	r.mu.Lock()
	cached, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		items, err := fetchCollection(ctx, r.backend, ref.Resource, ref.Query)
		if err != nil {
			return nil, err
		}
		labels := make(map[int64]string, len(items))
		for _, item := range items {
			if id, ok := item.ID(); ok {
				labels[id] = item.Text(ref.display())
			}
		}
		r.mu.Lock()
		r.cache[key] = labels
		r.mu.Unlock()
		return labels, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[int64]string), nil
}

func placeholder(ref Reference) string {
	if ref.Placeholder != "" {
		return ref.Placeholder
	}
	return "not loaded"
}
