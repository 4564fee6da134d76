// Package compiler implements sql_query: schema.Schema + query.Query ->
// (queryir.QueryIR, Headers), the compile entry point described in spec
// §4.3. It validates the request against the schema, resolves names,
// computes aliases, assembles the IR, and returns the column header
// order the result rows will match.
package compiler

import (
	"context"
	"fmt"
	"strconv"

	"tesseract/internal/names"
	"tesseract/internal/oerrors"
	"tesseract/internal/query"
	"tesseract/internal/queryir"
	"tesseract/internal/schema"
	"tesseract/internal/sqlgen"
)

// Compiler binds one request against one schema snapshot. It is not
// reused across requests; NewCompiler is cheap to call per request.
type Compiler struct {
	snap *schema.Schema
	next int
}

// NewCompiler creates a Compiler bound to a schema snapshot.
func NewCompiler(snap *schema.Schema) *Compiler {
	return &Compiler{snap: snap}
}

// nextAliasPostfix returns a stable, monotonically assigned token
// ("0", "1", ...) per spec §4.3 step 6.
func (c *Compiler) nextAliasPostfix() string {
	p := strconv.Itoa(c.next)
	c.next++
	return p
}

// Compile runs the 9-step algorithm of spec §4.3 and returns the
// physical plan plus the header order the emitted SQL will produce.
func (c *Compiler) Compile(ctx context.Context, cubeName string, q *query.Query) (*queryir.QueryIR, queryir.Headers, error) {
	cube, err := c.snap.FindCube(cubeName)
	if err != nil {
		return nil, nil, err
	}

	if err := q.Validate(); err != nil {
		return nil, nil, err
	}

	ir := &queryir.QueryIR{
		Cube:   cubeName,
		Fact:   queryir.TableSql{Table: cube.Table},
		Sparse: q.Sparse,
		Debug:  q.Debug,
	}

	var headers queryir.Headers

	// drillByName maps a drilldown's canonical name to its index in
	// ir.Drilldowns, never a pointer: further appends below (synthesized
	// cut-only or RCA/growth drilldowns) can reallocate the slice's
	// backing array, which would silently stale out a stored pointer.
	drillByName := map[string]int{}
	for _, d := range q.Drilldowns {
		dsql, _, _, _, err := c.bindDrilldown(cube, d, q.ParentsFor(d))
		if err != nil {
			return nil, nil, err
		}
		ir.Drilldowns = append(ir.Drilldowns, *dsql)
		drillByName[d.String()] = len(ir.Drilldowns) - 1

		for _, lc := range dsql.LevelColumns {
			headers = append(headers, lc.KeyAlias)
			if lc.NameAlias != "" {
				headers = append(headers, lc.NameAlias)
			}
		}
	}

	for _, p := range q.Properties {
		if err := c.bindProperty(cube, ir, p); err != nil {
			return nil, nil, err
		}
		if len(ir.Drilldowns) > 0 {
			last := &ir.Drilldowns[len(ir.Drilldowns)-1]
			if n := len(last.LevelColumns); n > 0 {
				props := last.LevelColumns[n-1].Properties
				if m := len(props); m > 0 {
					headers = append(headers, props[m-1].Alias)
				}
			}
		}
	}

	if q.ExcludeDefaultMembers {
		// Work on a copy so the synthesized cuts never reach the caller's Query.
		qc := *q
		qc.Cuts = append([]names.Cut(nil), q.Cuts...)
		q = &qc
		c.applyDefaultMemberCuts(cube, ir, q)
	}

	for _, cut := range q.Cuts {
		if err := c.bindCut(cube, ir, drillByName, cut); err != nil {
			return nil, nil, err
		}
	}

	for _, m := range q.Measures {
		msql, err := c.bindMeasure(cube, m)
		if err != nil {
			return nil, nil, err
		}
		ir.Measures = append(ir.Measures, *msql)
		headers = append(headers, msql.Alias)
	}

	colFor := func(mc names.MeaOrCalc) (string, error) {
		if mc.IsCalc {
			switch mc.Calc {
			case names.CalcRca:
				if ir.Rca == nil {
					return "", &oerrors.SchemaError{Kind: oerrors.InvalidRca, Cube: cubeName, Name: "rca"}
				}
				return ir.Rca.Alias, nil
			case names.CalcGrowth:
				if ir.Growth == nil {
					return "", &oerrors.SchemaError{Kind: oerrors.InvalidGrowth, Cube: cubeName, Name: "growth"}
				}
				return ir.Growth.Alias, nil
			}
		}
		for _, ms := range ir.Measures {
			if ms.Name == string(mc.Measure) {
				return ms.Alias, nil
			}
		}
		return "", &oerrors.SchemaError{Kind: oerrors.MeasureNotFound, Cube: cubeName, Name: string(mc.Measure)}
	}

	if q.Rca != nil {
		rsql, err := c.bindRca(cube, ir, drillByName, q.Rca)
		if err != nil {
			return nil, nil, err
		}
		rsql.Debug = q.Debug
		ir.Rca = rsql
		headers = append(headers, rsql.Alias)
		if q.Debug {
			headers = append(headers, sqlgen.DebugHeaders(rsql.Alias)...)
		}
	}

	if q.Growth != nil {
		gsql, err := c.bindGrowth(cube, ir, drillByName, q.Growth)
		if err != nil {
			return nil, nil, err
		}
		ir.Growth = gsql
		headers = append(headers, gsql.Alias)
	}

	if q.Rate != nil {
		rsql, err := c.bindRate(cube, q.Rate)
		if err != nil {
			return nil, nil, err
		}
		ir.Rate = rsql
		headers = append(headers, rsql.Alias)
	}

	if q.Sort != nil {
		col, err := colFor(q.Sort.Measure)
		if err != nil {
			return nil, nil, err
		}
		ir.Sort = []queryir.SortSql{{Column: col, Desc: q.Sort.Dir == names.Desc}}
	} else {
		// No explicit sort: default to the drilldown key columns,
		// root-to-leaf, ascending, per spec §4.4 "default ordering".
		for i := range ir.Drilldowns {
			for _, lc := range ir.Drilldowns[i].LevelColumns {
				ir.Sort = append(ir.Sort, queryir.SortSql{Column: lc.KeyAlias})
			}
		}
	}

	if q.Limit != nil {
		ir.Limit = &queryir.LimitSql{Offset: q.Limit.Offset, N: q.Limit.N}
	}

	if q.Filter != nil {
		col, err := colFor(q.Filter.MeaOrCalc)
		if err != nil {
			return nil, nil, err
		}
		ir.Filter = &queryir.FilterSql{Column: col, Cmp: q.Filter.Constraint.Cmp.SQL(), N: q.Filter.Constraint.N}
	}

	if q.Top != nil {
		tsql, err := c.bindTop(cube, ir, drillByName, colFor, q)
		if err != nil {
			return nil, nil, err
		}
		ir.Top = tsql
	}

	ir.Headers = headers
	return ir, headers, nil
}

func (c *Compiler) bindDrilldown(cube *schema.Cube, d names.Drilldown, parents bool) (*queryir.DrilldownSql, *schema.Dimension, *schema.Hierarchy, *schema.Level, error) {
	dim := cube.FindDimension(d.Dimension)
	if dim == nil {
		return nil, nil, nil, nil, &oerrors.SchemaError{Kind: oerrors.LevelNotFound, Cube: cube.Name, Name: d.String()}
	}
	hier := dim.FindHierarchy(d.Hierarchy)
	if hier == nil {
		return nil, nil, nil, nil, &oerrors.SchemaError{Kind: oerrors.LevelNotFound, Cube: cube.Name, Name: d.String()}
	}
	targetIdx, lvl := hier.FindLevel(d.Level)
	if lvl == nil {
		return nil, nil, nil, nil, &oerrors.SchemaError{Kind: oerrors.LevelNotFound, Cube: cube.Name, Name: d.String()}
	}

	postfix := c.nextAliasPostfix()
	dsql := &queryir.DrilldownSql{
		Dimension:    dim.Name,
		Hierarchy:    hier.Name,
		Table:        hier.Table,
		PrimaryKey:   hier.PrimaryKey.Name,
		ForeignKey:   hier.ForeignKey.Name,
		AliasPostfix: postfix,
	}

	from := targetIdx
	if parents {
		from = 0
	}
	for i := from; i <= targetIdx; i++ {
		l := hier.Levels[i]
		lc := queryir.LevelColumnSql{
			LevelName:   l.Name,
			KeyColumn:   l.KeyColumn.Name,
			KeyAlias:    l.KeyColumn.Name + "_" + postfix,
			TargetLevel: i == targetIdx,
		}
		if l.NameColumn != nil {
			lc.NameColumn = l.NameColumn.Name
			lc.NameAlias = l.NameColumn.Name + "_" + postfix
		}
		for _, p := range l.Properties {
			lc.Properties = append(lc.Properties, queryir.PropertySql{
				Name:   p.Name,
				Column: p.Column.Name,
				Alias:  p.Column.Name + "_" + postfix,
			})
		}
		dsql.LevelColumns = append(dsql.LevelColumns, lc)
	}

	return dsql, dim, hier, lvl, nil
}

func (c *Compiler) bindProperty(cube *schema.Cube, ir *queryir.QueryIR, p names.Property) error {
	for i := range ir.Drilldowns {
		d := &ir.Drilldowns[i]
		if d.Dimension != p.Level.Dimension || d.Hierarchy != p.Level.Hierarchy {
			continue
		}
		for j := range d.LevelColumns {
			lc := &d.LevelColumns[j]
			if lc.LevelName != p.Level.Level {
				continue
			}
			dim := cube.FindDimension(p.Level.Dimension)
			if dim == nil {
				return &oerrors.SchemaError{Kind: oerrors.PropertyNotFound, Cube: cube.Name, Name: p.Name}
			}
			hier := dim.FindHierarchy(p.Level.Hierarchy)
			if hier == nil {
				return &oerrors.SchemaError{Kind: oerrors.PropertyNotFound, Cube: cube.Name, Name: p.Name}
			}
			_, lvl := hier.FindLevel(p.Level.Level)
			if lvl == nil {
				return &oerrors.SchemaError{Kind: oerrors.PropertyNotFound, Cube: cube.Name, Name: p.Name}
			}
			prop := lvl.FindProperty(p.Name)
			if prop == nil {
				return &oerrors.SchemaError{Kind: oerrors.PropertyNotFound, Cube: cube.Name, Name: p.Name}
			}
			lc.Properties = append(lc.Properties, queryir.PropertySql{
				Name:   prop.Name,
				Column: prop.Column.Name,
				Alias:  prop.Column.Name + "_" + d.AliasPostfix,
			})
			return nil
		}
	}
	return &oerrors.SchemaError{Kind: oerrors.PropertyNotFound, Cube: cube.Name, Name: p.Name}
}

// bindCut locates the cut's level and emits a CutSql, pushing it onto
// the owning dimension subquery's WHERE, or — when the level's table is
// the cube's own fact table (a degenerate, fact-resident dimension) —
// onto the fact scan directly, per spec §4.4 "Cut placement".
func (c *Compiler) bindCut(cube *schema.Cube, ir *queryir.QueryIR, drillByName map[string]int, cut names.Cut) error {
	dim := cube.FindDimension(cut.Level.Dimension)
	if dim == nil {
		return &oerrors.SchemaError{Kind: oerrors.LevelNotFound, Cube: cube.Name, Name: cut.Level.String()}
	}
	hier := dim.FindHierarchy(cut.Level.Hierarchy)
	if hier == nil {
		return &oerrors.SchemaError{Kind: oerrors.LevelNotFound, Cube: cube.Name, Name: cut.Level.String()}
	}
	_, lvl := hier.FindLevel(cut.Level.Level)
	if lvl == nil {
		return &oerrors.SchemaError{Kind: oerrors.LevelNotFound, Cube: cube.Name, Name: cut.Level.String()}
	}

	if cut.ForMatch && lvl.MemberType != schema.MemberText {
		return &oerrors.ParseError{Kind: oerrors.ParseKindLikeNonText, Token: cut.Level.String()}
	}

	csql := queryir.CutSql{
		Column:     lvl.KeyColumn.Name,
		Members:    cut.Members,
		MemberType: lvl.MemberType,
		Mask:       queryir.Mask(cut.Mask),
		ForMatch:   cut.ForMatch,
	}

	if hier.Table.QualifiedName() == cube.Table.QualifiedName() {
		ir.Fact.Cuts = append(ir.Fact.Cuts, csql)
		return nil
	}

	for i := range ir.Drilldowns {
		d := &ir.Drilldowns[i]
		if d.Dimension == dim.Name && d.Hierarchy == hier.Name {
			d.Cuts = append(d.Cuts, csql)
			return nil
		}
	}

	// Cut on a dimension not otherwise drilled: synthesize a minimal
	// DrilldownSql carrying only the cut, no output columns. Registered
	// in drillByName so a later RCA/growth/top reference to the same
	// dimension reuses this join instead of adding a duplicate one.
	postfix := c.nextAliasPostfix()
	ir.Drilldowns = append(ir.Drilldowns, queryir.DrilldownSql{
		Dimension:    dim.Name,
		Hierarchy:    hier.Name,
		Table:        hier.Table,
		PrimaryKey:   hier.PrimaryKey.Name,
		ForeignKey:   hier.ForeignKey.Name,
		AliasPostfix: postfix,
		Cuts:         []queryir.CutSql{csql},
	})
	drillByName[names.Drilldown{Dimension: dim.Name, Hierarchy: hier.Name, Level: lvl.Name}.String()] = len(ir.Drilldowns) - 1
	return nil
}

func (c *Compiler) applyDefaultMemberCuts(cube *schema.Cube, ir *queryir.QueryIR, q *query.Query) {
	cutDims := map[string]bool{}
	for _, cut := range q.Cuts {
		cutDims[cut.Level.Dimension] = true
	}
	for _, dim := range cube.Dimensions {
		if cutDims[dim.Name] || len(dim.DefaultMembers) == 0 {
			continue
		}
		for hierName, member := range dim.DefaultMembers {
			hier := dim.FindHierarchy(hierName)
			if hier == nil || len(hier.Levels) == 0 {
				continue
			}
			finest := hier.Levels[len(hier.Levels)-1]
			q.Cuts = append(q.Cuts, names.Cut{
				Level:   names.LevelName{Dimension: dim.Name, Hierarchy: hierName, Level: finest.Name},
				Members: []string{member},
				Mask:    names.MaskExclude,
			})
		}
	}
}

func (c *Compiler) bindMeasure(cube *schema.Cube, m names.Measure) (*queryir.MeasureSql, error) {
	meas := cube.FindMeasure(string(m))
	if meas == nil {
		return nil, &oerrors.SchemaError{Kind: oerrors.MeasureNotFound, Cube: cube.Name, Name: string(m)}
	}
	return &queryir.MeasureSql{
		Name:        meas.Name,
		Column:      meas.Column.Name,
		Aggregator:  meas.Aggregator,
		QuantileArg: meas.QuantileArg,
		WeightCol:   meas.WeightColumn.Name,
		Alias:       meas.Name,
	}, nil
}

func (c *Compiler) bindRca(cube *schema.Cube, ir *queryir.QueryIR, drillByName map[string]int, r *names.RcaQuery) (*queryir.RcaSql, error) {
	i1, err := c.resolveOrSynthesizeDrill(cube, ir, drillByName, r.Drill1)
	if err != nil {
		return nil, &oerrors.SchemaError{Kind: oerrors.InvalidRca, Cube: cube.Name, Name: r.Drill1.String()}
	}
	i2, err := c.resolveOrSynthesizeDrill(cube, ir, drillByName, r.Drill2)
	if err != nil {
		return nil, &oerrors.SchemaError{Kind: oerrors.InvalidRca, Cube: cube.Name, Name: r.Drill2.String()}
	}
	meas := cube.FindMeasure(string(r.Measure))
	if meas == nil {
		return nil, &oerrors.SchemaError{Kind: oerrors.MeasureNotFound, Cube: cube.Name, Name: string(r.Measure)}
	}
	return &queryir.RcaSql{
		Dim1Column: lastKeyAlias(&ir.Drilldowns[i1]),
		Dim2Column: lastKeyAlias(&ir.Drilldowns[i2]),
		MeasureCol: meas.Name,
		Alias:      "rca",
	}, nil
}

// resolveOrSynthesizeDrill looks up d in drillByName, or binds it fresh
// (with real LevelColumns, not a cuts-only stub) and appends it to
// ir.Drilldowns so sqlgen's join-building sees it even when d was never
// part of the query's own drilldown list, e.g. an RCA/growth/top
// dimension. Returns its index into ir.Drilldowns, never a pointer,
// since later appends in this function can reallocate the slice.
func (c *Compiler) resolveOrSynthesizeDrill(cube *schema.Cube, ir *queryir.QueryIR, drillByName map[string]int, d names.Drilldown) (int, error) {
	if idx, ok := drillByName[d.String()]; ok {
		return idx, nil
	}
	dsql, _, _, _, err := c.bindDrilldown(cube, d, false)
	if err != nil {
		return 0, err
	}
	ir.Drilldowns = append(ir.Drilldowns, *dsql)
	idx := len(ir.Drilldowns) - 1
	drillByName[d.String()] = idx
	return idx, nil
}

func lastKeyAlias(d *queryir.DrilldownSql) string {
	if len(d.LevelColumns) == 0 {
		return ""
	}
	return d.LevelColumns[len(d.LevelColumns)-1].KeyAlias
}

func (c *Compiler) bindGrowth(cube *schema.Cube, ir *queryir.QueryIR, drillByName map[string]int, g *names.GrowthQuery) (*queryir.GrowthSql, error) {
	timeIdx, err := c.resolveOrSynthesizeDrill(cube, ir, drillByName, g.TimeDrill)
	if err != nil {
		return nil, &oerrors.SchemaError{Kind: oerrors.InvalidGrowth, Cube: cube.Name, Name: g.TimeDrill.String()}
	}
	meas := cube.FindMeasure(string(g.Measure))
	if meas == nil {
		return nil, &oerrors.SchemaError{Kind: oerrors.MeasureNotFound, Cube: cube.Name, Name: string(g.Measure)}
	}
	var partition []string
	for idx := range ir.Drilldowns {
		if idx == timeIdx || len(ir.Drilldowns[idx].LevelColumns) == 0 {
			continue
		}
		partition = append(partition, lastKeyAlias(&ir.Drilldowns[idx]))
	}
	return &queryir.GrowthSql{
		TimeColumn:    lastKeyAlias(&ir.Drilldowns[timeIdx]),
		MeasureColumn: meas.Name,
		PartitionBy:   partition,
		Alias:         "growth",
	}, nil
}

func (c *Compiler) bindRate(cube *schema.Cube, r *names.RateQuery) (*queryir.RateSql, error) {
	dim := cube.FindDimension(r.Level.Dimension)
	if dim == nil {
		return nil, &oerrors.SchemaError{Kind: oerrors.InvalidRate, Cube: cube.Name, Name: r.Level.String()}
	}
	hier := dim.FindHierarchy(r.Level.Hierarchy)
	if hier == nil {
		return nil, &oerrors.SchemaError{Kind: oerrors.InvalidRate, Cube: cube.Name, Name: r.Level.String()}
	}
	_, lvl := hier.FindLevel(r.Level.Level)
	if lvl == nil {
		return nil, &oerrors.SchemaError{Kind: oerrors.InvalidRate, Cube: cube.Name, Name: r.Level.String()}
	}
	return &queryir.RateSql{
		Column:  lvl.KeyColumn.Name,
		Members: r.Members,
		Alias:   "rate",
	}, nil
}

func (c *Compiler) bindTop(cube *schema.Cube, ir *queryir.QueryIR, drillByName map[string]int, colFor func(names.MeaOrCalc) (string, error), q *query.Query) (*queryir.TopSql, error) {
	t := q.Top
	byIdx, err := c.resolveOrSynthesizeDrill(cube, ir, drillByName, t.By)
	if err != nil {
		return nil, &oerrors.SchemaError{Kind: oerrors.LevelNotFound, Cube: cube.Name, Name: t.By.String()}
	}
	sortCol, err := colFor(t.Sort)
	if err != nil {
		return nil, err
	}
	tsql := &queryir.TopSql{
		N:           t.N,
		ByColumn:    lastKeyAlias(&ir.Drilldowns[byIdx]),
		SortColumns: []queryir.SortSql{{Column: sortCol, Desc: t.Dir == names.Desc}},
	}
	if q.TopWhere != nil {
		whereCol, err := colFor(q.TopWhere.MeaOrCalc)
		if err != nil {
			return nil, err
		}
		tsql.Where = &queryir.FilterSql{
			Column: whereCol,
			Cmp:    q.TopWhere.Constraint.Cmp.SQL(),
			N:      q.TopWhere.Constraint.N,
		}
	}
	return tsql, nil
}

// MembersSql returns SQL selecting distinct (key, name) from a level's
// dimension table, ordered by key, per spec §4.2.
func MembersSql(snap *schema.Schema, cubeName string, level names.LevelName) (string, queryir.Headers, error) {
	cube, err := snap.FindCube(cubeName)
	if err != nil {
		return "", nil, err
	}
	dim := cube.FindDimension(level.Dimension)
	if dim == nil {
		return "", nil, &oerrors.SchemaError{Kind: oerrors.LevelNotFound, Cube: cubeName, Name: level.String()}
	}
	hier := dim.FindHierarchy(level.Hierarchy)
	if hier == nil {
		return "", nil, &oerrors.SchemaError{Kind: oerrors.LevelNotFound, Cube: cubeName, Name: level.String()}
	}
	_, lvl := hier.FindLevel(level.Level)
	if lvl == nil {
		return "", nil, &oerrors.SchemaError{Kind: oerrors.LevelNotFound, Cube: cubeName, Name: level.String()}
	}

	headers := queryir.Headers{lvl.KeyColumn.Name}
	selectCols := lvl.KeyColumn.Name
	if lvl.NameColumn != nil {
		selectCols += ", " + lvl.NameColumn.Name
		headers = append(headers, lvl.NameColumn.Name)
	}
	sql := fmt.Sprintf(
		"SELECT DISTINCT %s FROM %s ORDER BY %s",
		selectCols, hier.Table.QualifiedName(), lvl.KeyColumn.Name,
	)
	return sql, headers, nil
}
