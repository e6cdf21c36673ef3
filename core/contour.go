package core

// Field is a scalar field sampled on a regular grid. Positions passed
// to ZAt are always inside the range of Dimensions.
type Field interface {
	Dimensions() (width, height int)
	ZAt(x, y int) float64
}

// Point2 is a point in grid coordinates (fractional cells).
type Point2 struct {
	X, Y float64
}

// Contour is one polyline of a level set in grid coordinates.
type Contour []Point2

type segment struct {
	start, end Point2
}

type cellKey struct {
	x, y uint64
}

// MarchingSquares extracts the contours of the field at the threshold
// level. Segments are generated cell by cell, then chained into
// polylines; chains prefer to start on the grid boundary so open paths
// come out in one piece.
func MarchingSquares(field Field, level float64) []Contour {
	width, height := field.Dimensions()
	if width < 2 || height < 2 {
		return nil
	}

	// Segments indexed by the integer-truncated start position: shapes
	// rarely have many segments starting in the same cell, so chaining
	// finds the next segment in O(1) on average.
	segments := make(map[cellKey][]segment)
	addSeg := func(s, e Point2) {
		k := cellKey{x: uint64(s.X), y: uint64(s.Y)}
		segments[k] = append(segments[k], segment{start: s, end: e})
	}

	// Row caching avoids calling ZAt twice per cell corner.
	currentRow := make([]float64, width)
	nextRow := make([]float64, 0, width)
	for x := 0; x < width; x++ {
		currentRow[x] = field.ZAt(x, 0)
	}

	for y := 0; y < height-1; y++ {
		nextRow = nextRow[:0]
		nextRow = append(nextRow, field.ZAt(0, y+1))

		for x := 0; x < width-1; x++ {
			ulz := currentRow[x]
			urz := currentRow[x+1]
			blz := nextRow[x]
			brz := field.ZAt(x+1, y+1)
			nextRow = append(nextRow, brz)

			var code int
			if blz > level {
				code |= 1
			}
			if brz > level {
				code |= 2
			}
			if urz > level {
				code |= 4
			}
			if ulz > level {
				code |= 8
			}
			if code == 0 || code == 15 {
				continue
			}

			fx, fy := float64(x), float64(y)
			top := Point2{X: fx + crossing(level, ulz, urz), Y: fy}
			bottom := Point2{X: fx + crossing(level, blz, brz), Y: fy + 1}
			left := Point2{X: fx, Y: fy + crossing(level, ulz, blz)}
			right := Point2{X: fx + 1, Y: fy + crossing(level, urz, brz)}

			switch code {
			case 1:
				addSeg(bottom, left)
			case 2:
				addSeg(right, bottom)
			case 3:
				addSeg(right, left)
			case 4:
				addSeg(top, right)
			case 5:
				addSeg(top, left)
				addSeg(bottom, right)
			case 6:
				addSeg(top, bottom)
			case 7:
				addSeg(top, left)
			case 8:
				addSeg(left, top)
			case 9:
				addSeg(bottom, top)
			case 10:
				addSeg(left, bottom)
				addSeg(right, top)
			case 11:
				addSeg(right, top)
			case 12:
				addSeg(left, right)
			case 13:
				addSeg(bottom, right)
			case 14:
				addSeg(left, bottom)
			}
		}

		currentRow, nextRow = nextRow, currentRow
	}

	return chainContours(segments, uint64(width), uint64(height))
}

func chainContours(segments map[cellKey][]segment, w, h uint64) []Contour {
	var contours []Contour

	boundaries := make(map[cellKey]struct{})
	for k := range segments {
		if k.x == 0 || k.x == w-1 || k.y == 0 || k.y == h-1 {
			boundaries[k] = struct{}{}
		}
	}

	takeKey := func() cellKey {
		// Prefer starting on a boundary so open paths are chained
		// entirely instead of being split into chunks.
		for k := range boundaries {
			return k
		}
		for k := range segments {
			return k
		}
		return cellKey{}
	}

	pop := func(k cellKey, i int) segment {
		segs := segments[k]
		s := segs[i]
		segs[i] = segs[len(segs)-1]
		segs = segs[:len(segs)-1]
		if len(segs) == 0 {
			delete(segments, k)
			delete(boundaries, k)
		} else {
			segments[k] = segs
		}
		return s
	}

	for len(segments) > 0 {
		first := pop(takeKey(), 0)
		contour := Contour{first.start, first.end}

		for {
			prev := contour[len(contour)-1]
			k := cellKey{x: uint64(prev.X), y: uint64(prev.Y)}
			segs, ok := segments[k]
			if !ok {
				break
			}

			found := -1
			for i, s := range segs {
				if s.start == prev {
					found = i
					break
				}
			}
			if found < 0 {
				break
			}
			contour = append(contour, pop(k, found).end)
		}

		contours = append(contours, contour)
	}

	return contours
}

// crossing interpolates where the level crosses the edge between two
// corner values.
func crossing(level, z0, z1 float64) float64 {
	if z0 == z1 {
		return 0.5
	}
	t := (level - z0) / (z1 - z0)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
