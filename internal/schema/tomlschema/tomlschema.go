// Package tomlschema reads the TOML cube catalog format described in
// spec §3/§6 into a schema.Schema, the same way the teacher's
// internal/parser/toml reads a TOML table catalog into a core.Database:
// decode into an intermediate document shape, then convert field by
// field with explicit validation instead of struct-tag magic.
package tomlschema

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"tesseract/internal/schema"
)

type document struct {
	Cubes []tomlCube `toml:"cubes"`
}

type tomlCube struct {
	Name        string          `toml:"name"`
	Table       string          `toml:"table"`
	TableSchema string          `toml:"table_schema"`
	Dimensions  []tomlDimension `toml:"dimensions"`
	Measures    []tomlMeasure   `toml:"measures"`
}

type tomlDimension struct {
	Name           string            `toml:"name"`
	DefaultMembers map[string]string `toml:"default_members"`
	Hierarchies    []tomlHierarchy   `toml:"hierarchies"`
}

type tomlHierarchy struct {
	Name       string       `toml:"name"`
	Table      string       `toml:"table"`
	TableSchema string      `toml:"table_schema"`
	PrimaryKey string       `toml:"primary_key"`
	ForeignKey string       `toml:"foreign_key"`
	Inline     *tomlInline  `toml:"inline"`
	Levels     []tomlLevel  `toml:"levels"`
}

type tomlInline struct {
	Alias   string     `toml:"alias"`
	Columns []string   `toml:"columns"`
	Rows    [][]string `toml:"rows"`
}

type tomlLevel struct {
	Name       string         `toml:"name"`
	KeyColumn  string         `toml:"key_column"`
	NameColumn string         `toml:"name_column"`
	MemberType string         `toml:"member_type"`
	Properties []tomlProperty `toml:"properties"`
}

type tomlProperty struct {
	Name   string `toml:"name"`
	Column string `toml:"column"`
}

type tomlMeasure struct {
	Name         string  `toml:"name"`
	Column       string  `toml:"column"`
	Aggregator   string  `toml:"aggregator"`
	QuantileArg  float64 `toml:"quantile_arg"`
	WeightColumn string  `toml:"weight_column"`
}

// Parser reads the cube-catalog TOML format.
type Parser struct{}

// NewParser creates a cube-catalog TOML parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile opens and parses a cube-catalog TOML file.
func (p *Parser) ParseFile(path string) (*schema.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tomlschema: open file %q: %w", path, err)
	}
	defer f.Close()
	return p.Parse(f)
}

// Parse decodes a cube catalog from r.
func (p *Parser) Parse(r io.Reader) (*schema.Schema, error) {
	var doc document
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("tomlschema: decode error: %w", err)
	}

	sch := &schema.Schema{Cubes: make(map[string]*schema.Cube, len(doc.Cubes))}
	seen := map[string]bool{}
	for i := range doc.Cubes {
		cube, err := convertCube(&doc.Cubes[i])
		if err != nil {
			return nil, fmt.Errorf("tomlschema: cube %q: %w", doc.Cubes[i].Name, err)
		}
		if seen[cube.Name] {
			return nil, fmt.Errorf("tomlschema: duplicate cube name %q", cube.Name)
		}
		seen[cube.Name] = true
		if !cube.HasUniqueLevelsAndProperties() {
			return nil, fmt.Errorf("tomlschema: cube %q has colliding level/property short names", cube.Name)
		}
		sch.Cubes[cube.Name] = cube
	}
	return sch, nil
}

func convertCube(tc *tomlCube) (*schema.Cube, error) {
	if strings.TrimSpace(tc.Name) == "" {
		return nil, fmt.Errorf("cube name is empty")
	}
	if strings.TrimSpace(tc.Table) == "" {
		return nil, fmt.Errorf("cube %q has no fact table", tc.Name)
	}

	cube := &schema.Cube{
		Name:  tc.Name,
		Table: schema.Table{Name: tc.Table, Schema: tc.TableSchema},
	}

	for i := range tc.Dimensions {
		dim, err := convertDimension(&tc.Dimensions[i])
		if err != nil {
			return nil, fmt.Errorf("dimension %q: %w", tc.Dimensions[i].Name, err)
		}
		cube.Dimensions = append(cube.Dimensions, *dim)
	}

	for i := range tc.Measures {
		m, err := convertMeasure(&tc.Measures[i])
		if err != nil {
			return nil, fmt.Errorf("measure %q: %w", tc.Measures[i].Name, err)
		}
		cube.Measures = append(cube.Measures, *m)
	}

	if len(cube.Measures) == 0 {
		return nil, fmt.Errorf("cube %q declares no measures", tc.Name)
	}
	return cube, nil
}

func convertDimension(td *tomlDimension) (*schema.Dimension, error) {
	if strings.TrimSpace(td.Name) == "" {
		return nil, fmt.Errorf("dimension name is empty")
	}
	dim := &schema.Dimension{Name: td.Name, DefaultMembers: td.DefaultMembers}
	if len(td.Hierarchies) == 0 {
		return nil, fmt.Errorf("dimension %q has no hierarchies", td.Name)
	}
	for i := range td.Hierarchies {
		h, err := convertHierarchy(&td.Hierarchies[i])
		if err != nil {
			return nil, fmt.Errorf("hierarchy %q: %w", td.Hierarchies[i].Name, err)
		}
		dim.Hierarchies = append(dim.Hierarchies, *h)
	}
	return dim, nil
}

func convertHierarchy(th *tomlHierarchy) (*schema.Hierarchy, error) {
	if strings.TrimSpace(th.Name) == "" {
		return nil, fmt.Errorf("hierarchy name is empty")
	}
	h := &schema.Hierarchy{
		Name:       th.Name,
		PrimaryKey: schema.Column{Name: th.PrimaryKey},
		ForeignKey: schema.Column{Name: th.ForeignKey},
	}

	switch {
	case th.Inline != nil:
		h.Table = schema.Table{
			Name: th.Inline.Alias,
			Inline: &schema.InlineTable{
				Alias:   th.Inline.Alias,
				Columns: th.Inline.Columns,
				Rows:    th.Inline.Rows,
			},
		}
	case th.Table != "":
		h.Table = schema.Table{Name: th.Table, Schema: th.TableSchema}
	default:
		return nil, fmt.Errorf("hierarchy %q has neither table nor inline rows", th.Name)
	}

	if len(th.Levels) == 0 {
		return nil, fmt.Errorf("hierarchy %q has no levels", th.Name)
	}
	for i := range th.Levels {
		lvl, err := convertLevel(&th.Levels[i])
		if err != nil {
			return nil, fmt.Errorf("level %q: %w", th.Levels[i].Name, err)
		}
		h.Levels = append(h.Levels, *lvl)
	}
	return h, nil
}

func convertLevel(tl *tomlLevel) (*schema.Level, error) {
	if strings.TrimSpace(tl.Name) == "" {
		return nil, fmt.Errorf("level name is empty")
	}
	if strings.TrimSpace(tl.KeyColumn) == "" {
		return nil, fmt.Errorf("level %q has no key_column", tl.Name)
	}
	lvl := &schema.Level{
		Name:       tl.Name,
		KeyColumn:  schema.Column{Name: tl.KeyColumn},
		MemberType: memberTypeOf(tl.MemberType),
	}
	if tl.NameColumn != "" {
		lvl.NameColumn = &schema.Column{Name: tl.NameColumn}
	}
	for _, p := range tl.Properties {
		if p.Name == "" || p.Column == "" {
			return nil, fmt.Errorf("level %q has a malformed property", tl.Name)
		}
		lvl.Properties = append(lvl.Properties, schema.Property{Name: p.Name, Column: schema.Column{Name: p.Column}})
	}
	return lvl, nil
}

func memberTypeOf(raw string) schema.MemberType {
	if strings.EqualFold(raw, "numeric") {
		return schema.MemberNumeric
	}
	return schema.MemberText
}

func convertMeasure(tm *tomlMeasure) (*schema.Measure, error) {
	if strings.TrimSpace(tm.Name) == "" {
		return nil, fmt.Errorf("measure name is empty")
	}
	if strings.TrimSpace(tm.Column) == "" {
		return nil, fmt.Errorf("measure %q has no column", tm.Name)
	}
	agg, err := aggregatorOf(tm.Aggregator)
	if err != nil {
		return nil, fmt.Errorf("measure %q: %w", tm.Name, err)
	}
	m := &schema.Measure{
		Name:        tm.Name,
		Column:      schema.Column{Name: tm.Column},
		Aggregator:  agg,
		QuantileArg: tm.QuantileArg,
	}
	if agg == schema.AggBasicWeightedAverage {
		if tm.WeightColumn == "" {
			return nil, fmt.Errorf("measure %q uses basic-weighted-average but declares no weight_column", tm.Name)
		}
		m.WeightColumn = schema.Column{Name: tm.WeightColumn}
	}
	return m, nil
}

var aggregators = map[string]schema.Aggregator{
	string(schema.AggSum):                  schema.AggSum,
	string(schema.AggAvg):                  schema.AggAvg,
	string(schema.AggMin):                  schema.AggMin,
	string(schema.AggMax):                  schema.AggMax,
	string(schema.AggCount):                schema.AggCount,
	string(schema.AggDistinctCount):        schema.AggDistinctCount,
	string(schema.AggMedian):               schema.AggMedian,
	string(schema.AggQuantile):             schema.AggQuantile,
	string(schema.AggBasicWeightedAverage): schema.AggBasicWeightedAverage,
}

func aggregatorOf(raw string) (schema.Aggregator, error) {
	agg, ok := aggregators[raw]
	if !ok {
		return "", fmt.Errorf("unrecognized aggregator %q", raw)
	}
	return agg, nil
}
