package schema

// CubeMetadata is the external projection of a Cube returned by
// cube_metadata, per spec §4.2. It never exposes raw column names —
// only the user-facing catalog shape.
type CubeMetadata struct {
	Name       string
	Dimensions []DimensionMetadata
	Measures   []MeasureMetadata
}

// DimensionMetadata projects a Dimension.
type DimensionMetadata struct {
	Name        string
	Hierarchies []HierarchyMetadata
}

// HierarchyMetadata projects a Hierarchy.
type HierarchyMetadata struct {
	Name   string
	Levels []LevelMetadata
}

// LevelMetadata projects a Level.
type LevelMetadata struct {
	Name       string
	Properties []string
}

// MeasureMetadata projects a Measure.
type MeasureMetadata struct {
	Name       string
	Aggregator Aggregator
}

// CubeMetadataOf builds the external projection for a single cube.
func CubeMetadataOf(c *Cube) CubeMetadata {
	md := CubeMetadata{Name: c.Name}
	for _, dim := range c.Dimensions {
		dimMD := DimensionMetadata{Name: dim.Name}
		for _, hier := range dim.Hierarchies {
			hierMD := HierarchyMetadata{Name: hier.Name}
			for _, lvl := range hier.Levels {
				lvlMD := LevelMetadata{Name: lvl.Name}
				for _, p := range lvl.Properties {
					lvlMD.Properties = append(lvlMD.Properties, p.Name)
				}
				hierMD.Levels = append(hierMD.Levels, lvlMD)
			}
			dimMD.Hierarchies = append(dimMD.Hierarchies, hierMD)
		}
		md.Dimensions = append(md.Dimensions, dimMD)
	}
	for _, m := range c.Measures {
		md.Measures = append(md.Measures, MeasureMetadata{Name: m.Name, Aggregator: m.Aggregator})
	}
	return md
}

// CubeMetadataFromStore looks up a cube in the store and projects it, or
// reports false if the cube doesn't exist — mirroring spec §4.2's
// "cube_metadata(cube) -> Option<CubeMetadata>".
func CubeMetadataFromStore(s *Store, cube string) (CubeMetadata, bool) {
	c, err := s.Snapshot().FindCube(cube)
	if err != nil {
		return CubeMetadata{}, false
	}
	return CubeMetadataOf(c), true
}
