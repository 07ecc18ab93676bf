package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aryankumar/batchrun/internal/util"
)

// RegistryFunc is a named payload implementation. args is the item's JSON
// argument document, possibly empty.
type RegistryFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Registry maps payload kinds to implementations. Parent and worker processes
// must share the same registry contents for the Processes strategy to work.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]RegistryFunc
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]RegistryFunc)}
}

// Register adds or replaces the implementation for kind
func (r *Registry) Register(kind string, fn RegistryFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[kind] = fn
}

// Lookup returns the implementation for kind
func (r *Registry) Lookup(kind string) (RegistryFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[kind]
	return fn, ok
}

// Kinds returns the registered kinds in sorted order
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.funcs))
	for k := range r.funcs {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Call resolves spec and invokes it. The returned value is normalized to its
// JSON form, so an in-process call reports exactly what a worker process would.
func (r *Registry) Call(ctx context.Context, spec PayloadSpec) (any, error) {
	fn, ok := r.Lookup(spec.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", util.ErrUnknownPayload, spec.Kind)
	}

	v, err := fn(ctx, spec.Args)
	if err != nil {
		return nil, err
	}
	return normalize(v)
}

// Bind returns a PayloadFunc that calls spec through the registry
func (r *Registry) Bind(spec PayloadSpec) PayloadFunc {
	return func(ctx context.Context) (any, error) {
		return r.Call(ctx, spec)
	}
}

// Item builds a WorkItem carrying both the in-process payload and its
// serializable spec. args is marshalled to JSON; nil means no arguments.
func (r *Registry) Item(id, kind string, args any) (WorkItem, error) {
	if _, ok := r.Lookup(kind); !ok {
		return WorkItem{}, fmt.Errorf("item %q: %w: %q", id, util.ErrUnknownPayload, kind)
	}

	spec := PayloadSpec{Kind: kind}
	if args != nil {
		raw, err := json.Marshal(args)
		if err != nil {
			return WorkItem{}, fmt.Errorf("item %q: marshal args: %w", id, err)
		}
		spec.Args = raw
	}

	return WorkItem{
		ID:      id,
		Payload: r.Bind(spec),
		Spec:    &spec,
	}, nil
}

// normalize round-trips v through JSON
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal value: %v", util.ErrPayloadNotSerializable, err)
	}
	out, err := decodeValue(raw)
	if err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return out, nil
}

// decodeValue decodes a JSON value, keeping numbers as json.Number so
// integers above 2^53 survive
func decodeValue(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
