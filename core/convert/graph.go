package convert

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"conduit-sync/core/record"

	"go.uber.org/zap"
)

// ErrNoConversion is returned when no edge exists between two types,
// or when the conversion function fails.
var ErrNoConversion = errors.New("no conversion possible")

// Func converts data into another type. args are decoded from the target
// type's query string and may be empty.
type Func func(data record.DataType, args map[string]string) (record.DataType, error)

// Edge describes one registered conversion.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the registry of conversion edges.
type Graph struct {
	mu     sync.RWMutex
	edges  map[string]map[string]Func
	logger *zap.Logger
}

// NewGraph creates an empty graph.
func NewGraph(logger *zap.Logger) *Graph {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Graph{
		edges:  make(map[string]map[string]Func),
		logger: logger,
	}
}

// Register adds an edge. An existing edge for the same pair is replaced.
func (g *Graph) Register(from, to string, fn Func) {
	from, _ = ParseType(from)
	to, _ = ParseType(to)

	g.mu.Lock()
	defer g.mu.Unlock()

	targets, ok := g.edges[from]
	if !ok {
		targets = make(map[string]Func)
		g.edges[from] = targets
	}
	if _, exists := targets[to]; exists {
		g.logger.Warn("Replacing conversion", zap.String("from", from), zap.String("to", to))
	}
	targets[to] = fn
}

// RegisterTable registers every edge of a "fromType,toType" keyed table.
// Malformed keys are logged and skipped.
func (g *Graph) RegisterTable(table map[string]Func) {
	keys := make([]string, 0, len(table))
	for key := range table {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		from, to, ok := strings.Cut(key, ",")
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		if !ok || from == "" || to == "" {
			g.logger.Warn("Ignoring malformed conversion key", zap.String("key", key))
			continue
		}
		g.Register(from, to, table[key])
	}
}

// CanConvert reports whether data of type from can be handed to a sink of type to.
func (g *Graph) CanConvert(from, to string) bool {
	fromBase, _ := ParseType(from)
	toBase, _ := ParseType(to)
	if fromBase == toBase {
		return true
	}
	return g.lookup(fromBase, toBase) != nil
}

// Convert converts data from one type to another through a single edge.
// When both base types match and no edge is registered the data is returned as is.
func (g *Graph) Convert(from, to string, data record.DataType) (out record.DataType, err error) {
	fromBase, _ := ParseType(from)
	toBase, args := ParseType(to)

	if fromBase == toBase && len(args) == 0 {
		return data, nil
	}

	fn := g.lookup(fromBase, toBase)
	if fn == nil {
		if fromBase == toBase {
			return data, nil
		}
		g.logger.Warn("No conversion registered", zap.String("from", fromBase), zap.String("to", toBase))
		return nil, fmt.Errorf("%w: %s -> %s", ErrNoConversion, fromBase, toBase)
	}

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("Conversion panicked",
				zap.String("from", fromBase),
				zap.String("to", toBase),
				zap.Any("panic", r),
			)
			out, err = nil, fmt.Errorf("%w: %s -> %s: %v", ErrNoConversion, fromBase, toBase, r)
		}
	}()

	out, err = fn(data, args)
	if err != nil {
		g.logger.Warn("Conversion failed",
			zap.String("from", fromBase),
			zap.String("to", toBase),
			zap.String("uid", data.UID()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s -> %s: %v", ErrNoConversion, fromBase, toBase, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: %s -> %s returned nothing", ErrNoConversion, fromBase, toBase)
	}
	return out, nil
}

// Edges lists registered edges sorted by from, then to.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var edges []Edge
	for from, targets := range g.edges {
		for to := range targets {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

func (g *Graph) lookup(from, to string) Func {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges[from][to]
}

// ParseType splits a type name into its base and decoded arguments.
// "file/photo?size=640x480" yields ("file/photo", {"size": "640x480"}).
func ParseType(t string) (string, map[string]string) {
	base, query, found := strings.Cut(t, "?")
	base = strings.TrimSpace(base)
	if !found || query == "" {
		return base, nil
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return base, nil
	}
	args := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			args[k] = v[len(v)-1]
		}
	}
	return base, args
}
