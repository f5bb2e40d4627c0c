package render

import "math"

const (
	// Empty marks a raster cell no circle touches.
	Empty uint8 = 0
	// Covered marks a raster cell inside some circle.
	Covered uint8 = 1
	// Centre marks the raster cell holding a circle's centre.
	Centre uint8 = 2
)

// Rasterize marks the cells of a cols x rows character grid covered by the
// circles. Circle coordinates are in grid columns; aspect is the height of a
// grid cell relative to its width (terminal glyphs are about twice as tall
// as wide). Circles smaller than a cell still mark their centre.
func Rasterize(circles []Circle, cols, rows int, aspect float64) []uint8 {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	if aspect <= 0 {
		aspect = 1
	}
	grid := make([]uint8, cols*rows)
	for _, c := range circles {
		cy := c.Y / aspect
		minX := int(math.Floor(c.X - c.R))
		maxX := int(math.Ceil(c.X + c.R))
		minY := int(math.Floor(cy - c.R/aspect))
		maxY := int(math.Ceil(cy + c.R/aspect))
		for y := max(minY, 0); y <= min(maxY, rows-1); y++ {
			for x := max(minX, 0); x <= min(maxX, cols-1); x++ {
				dx := float64(x) + 0.5 - c.X
				dy := (float64(y) + 0.5 - cy) * aspect
				if dx*dx+dy*dy <= c.R*c.R && grid[y*cols+x] == Empty {
					grid[y*cols+x] = Covered
				}
			}
		}
		x, y := int(math.Floor(c.X)), int(math.Floor(cy))
		if x >= 0 && x < cols && y >= 0 && y < rows {
			grid[y*cols+x] = Centre
		}
	}
	return grid
}
