// Package schema holds the in-memory cube catalog: cubes, dimensions,
// hierarchies, levels, measures, and their binding to physical tables and
// columns. It is the schema resolver described in spec §4.2 — it does
// not execute anything; it only knows how to turn user-facing names into
// physical references and, via internal/compiler, into a Query IR.
package schema

import (
	"sync"

	"tesseract/internal/oerrors"
)

// Aggregator is the closed set of measure aggregation functions.
type Aggregator string

const (
	AggSum                   Aggregator = "sum"
	AggAvg                   Aggregator = "avg"
	AggMin                   Aggregator = "min"
	AggMax                   Aggregator = "max"
	AggCount                 Aggregator = "count"
	AggDistinctCount         Aggregator = "distinct-count"
	AggMedian                Aggregator = "median"
	AggQuantile              Aggregator = "quantile"
	AggBasicWeightedAverage  Aggregator = "basic-weighted-average"
)

// MemberType classifies the value domain of a level's key, determining
// whether cut members are quoted as SQL strings or emitted bare.
type MemberType int

const (
	MemberText MemberType = iota
	MemberNumeric
)

// Column is a physical column reference.
type Column struct {
	Name string
}

// Table is a physical table reference, or — when Inline is non-nil — a
// dimension backed by a VALUES-style inline table instead of a real one.
type Table struct {
	Name   string
	Schema string
	Inline *InlineTable
}

// QualifiedName returns "schema.name", or just "name" when Schema is empty.
func (t Table) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// InlineTable holds literal rows for a dimension with no physical table,
// rendered as a VALUES(...) subquery by the generator.
type InlineTable struct {
	Alias   string
	Columns []string
	Rows    [][]string
}

// Property is a non-aggregated attribute column attached to a level.
type Property struct {
	Name   string
	Column Column
}

// Level is one rung of a hierarchy. KeyColumn is required; NameColumn and
// Properties are optional, per spec §3's invariant that a level has at
// most one name column.
type Level struct {
	Name       string
	KeyColumn  Column
	NameColumn *Column
	Properties []Property
	MemberType MemberType
}

// FindProperty looks up a property by name, case-sensitive.
func (l *Level) FindProperty(name string) *Property {
	for i := range l.Properties {
		if l.Properties[i].Name == name {
			return &l.Properties[i]
		}
	}
	return nil
}

// Hierarchy is an ordered list of levels, coarsest to finest, per spec
// §3's invariant that a hierarchy has at least one level and that levels
// within it are totally ordered.
type Hierarchy struct {
	Name   string
	Table  Table
	// PrimaryKey is the hierarchy table's key column joined against the
	// hierarchy's ForeignKey column on the fact side.
	PrimaryKey Column
	ForeignKey Column
	Levels     []Level
}

// FindLevel looks up a level by name within the hierarchy.
func (h *Hierarchy) FindLevel(name string) (idx int, lvl *Level) {
	for i := range h.Levels {
		if h.Levels[i].Name == name {
			return i, &h.Levels[i]
		}
	}
	return -1, nil
}

// Dimension owns one or more hierarchies, one of which may be the
// default (same name as the dimension).
type Dimension struct {
	Name        string
	Hierarchies []Hierarchy
	// DefaultMembers maps a hierarchy name to the member value used when
	// exclude_default_members applies and no explicit cut overrides it.
	DefaultMembers map[string]string
}

// FindHierarchy looks up a hierarchy by name.
func (d *Dimension) FindHierarchy(name string) *Hierarchy {
	for i := range d.Hierarchies {
		if d.Hierarchies[i].Name == name {
			return &d.Hierarchies[i]
		}
	}
	return nil
}

// Measure is an aggregated numeric column. Name is unique within a cube
// per spec §3.
type Measure struct {
	Name       string
	Column     Column
	Aggregator Aggregator
	// QuantileArg is used only when Aggregator == AggQuantile (e.g. 0.5).
	QuantileArg float64
	// WeightColumn is used only when Aggregator == AggBasicWeightedAverage.
	WeightColumn Column
}

// Cube is a logical fact table enriched with dimensions and measures.
type Cube struct {
	Name       string
	Table      Table
	Dimensions []Dimension
	Measures   []Measure
}

// FindDimension looks up a dimension by name.
func (c *Cube) FindDimension(name string) *Dimension {
	for i := range c.Dimensions {
		if c.Dimensions[i].Name == name {
			return &c.Dimensions[i]
		}
	}
	return nil
}

// FindMeasure looks up a measure by name.
func (c *Cube) FindMeasure(name string) *Measure {
	for i := range c.Measures {
		if c.Measures[i].Name == name {
			return &c.Measures[i]
		}
	}
	return nil
}

// HasUniqueLevelsAndProperties reports whether level short names and
// property short names are free of collisions across the whole cube
// (false as soon as any two collide), per spec §3. When
// true, the logic-layer short-name HTTP routes (out of scope here, see
// SPEC_FULL §6) would be safe to expose for this cube.
func (c *Cube) HasUniqueLevelsAndProperties() bool {
	seen := map[string]bool{}
	for _, dim := range c.Dimensions {
		for _, hier := range dim.Hierarchies {
			for _, lvl := range hier.Levels {
				if seen[lvl.Name] {
					return false
				}
				seen[lvl.Name] = true
				for _, prop := range lvl.Properties {
					if seen[prop.Name] {
						return false
					}
					seen[prop.Name] = true
				}
			}
		}
	}
	return true
}

// Schema is a set of cubes.
type Schema struct {
	Cubes map[string]*Cube
}

// FindCube looks up a cube by name.
func (s *Schema) FindCube(name string) (*Cube, error) {
	if s == nil {
		return nil, &oerrors.SchemaError{Kind: oerrors.CubeNotFound, Cube: name}
	}
	c, ok := s.Cubes[name]
	if !ok {
		return nil, &oerrors.SchemaError{Kind: oerrors.CubeNotFound, Cube: name}
	}
	return c, nil
}

// Store is a hot-swappable schema snapshot guarded by a multi-reader/
// single-writer lock, per spec §5: "Schema is loaded once per process
// and held behind a multi-reader/single-writer guard to allow atomic
// hot-swap." Requests hold a read snapshot for the duration of
// compilation; admin operations publish a brand new Schema wholesale.
type Store struct {
	mu  sync.RWMutex
	cur *Schema
}

// NewStore wraps an initial schema snapshot.
func NewStore(initial *Schema) *Store {
	return &Store{cur: initial}
}

// Snapshot returns the currently published schema. The returned pointer
// is immutable; callers never mutate it in place.
func (s *Store) Snapshot() *Schema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Publish atomically replaces the schema snapshot. In-flight requests
// that already took a Snapshot() complete against the old one.
func (s *Store) Publish(next *Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = next
}

// AddCube adds or replaces a single cube, publishing a new snapshot that
// shares every other cube by reference with the previous one.
func (s *Store) AddCube(cube *Cube) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := &Schema{Cubes: make(map[string]*Cube, len(s.cur.Cubes)+1)}
	for k, v := range s.cur.Cubes {
		next.Cubes[k] = v
	}
	next.Cubes[cube.Name] = cube
	s.cur = next
}

// DeleteCube removes a cube by name, publishing a new snapshot.
func (s *Store) DeleteCube(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := &Schema{Cubes: make(map[string]*Cube, len(s.cur.Cubes))}
	for k, v := range s.cur.Cubes {
		if k != name {
			next.Cubes[k] = v
		}
	}
	s.cur = next
}
