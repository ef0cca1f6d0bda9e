package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/visionagent/llm"
)

// ToolFunc is the tool capability signature. Arguments arrive as the raw
// JSON object chosen by the model, already validated against the tool's
// schema.
type ToolFunc func(ctx context.Context, args json.RawMessage) (*Result, error)

// RateLimitConfig bounds how often a tool may run.
type RateLimitConfig struct {
	MaxCalls int           // maximum calls per window
	Window   time.Duration // time window
}

// Metadata describes a registered tool.
type Metadata struct {
	Schema    llm.ToolSchema
	Class     Class
	Timeout   time.Duration // execution timeout, default 30s
	RateLimit *RateLimitConfig
}

// Registry is the closed mapping from tool name to capability. The set of
// tools is fixed at session start; the model can only select from it.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]ToolFunc
	metadata map[string]Metadata
	limiters map[string]*rate.Limiter
	logger   *zap.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tools:    make(map[string]ToolFunc),
		metadata: make(map[string]Metadata),
		limiters: make(map[string]*rate.Limiter),
		logger:   logger,
	}
}

// Register adds a tool under its schema name.
func (r *Registry) Register(name string, fn ToolFunc, meta Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	if meta.Schema.Name == "" {
		meta.Schema.Name = name
	}
	if meta.Schema.Name != name {
		return fmt.Errorf("tool name mismatch: schema.Name=%s, register name=%s", meta.Schema.Name, name)
	}
	if meta.Timeout == 0 {
		meta.Timeout = 30 * time.Second
	}

	r.tools[name] = fn
	r.metadata[name] = meta
	if meta.RateLimit != nil {
		limit := rate.Every(meta.RateLimit.Window / time.Duration(meta.RateLimit.MaxCalls))
		r.limiters[name] = rate.NewLimiter(limit, meta.RateLimit.MaxCalls)
	}

	r.logger.Debug("tool registered",
		zap.String("name", name),
		zap.String("class", string(meta.Class)),
		zap.Duration("timeout", meta.Timeout))
	return nil
}

// Get returns a tool function with its metadata.
func (r *Registry) Get(name string) (ToolFunc, Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.tools[name]
	if !ok {
		return nil, Metadata{}, fmt.Errorf("tool %s not found", name)
	}
	return fn, r.metadata[name], nil
}

// Lookup returns a tool's metadata without the function.
func (r *Registry) Lookup(name string) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.metadata[name]
	return meta, ok
}

// Has reports whether a tool is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Schemas returns all tool schemas, sorted by name for a stable prompt.
func (r *Registry) Schemas() []llm.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := make([]llm.ToolSchema, 0, len(r.metadata))
	for _, meta := range r.metadata {
		schemas = append(schemas, meta.Schema)
	}
	sort.Slice(schemas, func(i, j int) bool { return schemas[i].Name < schemas[j].Name })
	return schemas
}

func (r *Registry) allow(name string) bool {
	r.mu.RLock()
	limiter, ok := r.limiters[name]
	r.mu.RUnlock()
	if !ok {
		return true
	}
	return limiter.Allow()
}
