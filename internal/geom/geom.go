// Package geom provides the 2D primitives the telemetry pipeline relies on:
// distances, angle comparison, circle-vs-rect and segment-vs-rect tests, and
// the motion cone classifier used to tag player movement as pursuit or retreat.
package geom

import "math"

// Rect is an axis-aligned rectangle in world pixels.
type Rect struct {
	X, Y, W, H float64
}

// MinX/MinY/MaxX/MaxY return the rectangle bounds.
func (r Rect) MinX() float64 { return r.X }
func (r Rect) MinY() float64 { return r.Y }
func (r Rect) MaxX() float64 { return r.X + r.W }
func (r Rect) MaxY() float64 { return r.Y + r.H }

// CenterX returns the horizontal center of the rectangle.
func (r Rect) CenterX() float64 { return r.X + r.W/2 }

// CenterY returns the vertical center of the rectangle.
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Dist returns the Euclidean distance between two points.
func Dist(ax, ay, bx, by float64) float64 {
	return math.Hypot(bx-ax, by-ay)
}

// NormalizeAngle wraps an angle into [-π, π].
func NormalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// AngleDiff returns the absolute wrapped difference between two angles,
// always in [0, π].
func AngleDiff(a, b float64) float64 {
	return math.Abs(NormalizeAngle(a - b))
}

// CircleRectOverlap returns true if the circle at (cx,cy) with radius r
// intersects the rectangle. Touching counts as overlapping.
func CircleRectOverlap(cx, cy, r float64, rect Rect) bool {
	closestX := math.Max(rect.MinX(), math.Min(cx, rect.MaxX()))
	closestY := math.Max(rect.MinY(), math.Min(cy, rect.MaxY()))
	return Dist(cx, cy, closestX, closestY) <= r
}

// SegmentIntersectsRect returns true if the segment (x0,y0)->(x1,y1) crosses
// or touches the rectangle. Grazing/tangent contact counts as intersecting,
// so occlusion tests err on the side of "blocked".
func SegmentIntersectsRect(x0, y0, x1, y1 float64, rect Rect) bool {
	_, hit := segmentRectHitT(x0, y0, x1, y1, rect.MinX(), rect.MinY(), rect.MaxX(), rect.MaxY())
	return hit
}

// segmentRectHitT returns the first segment parameter t in [0,1] where the
// segment from (ox,oy)->(ex,ey) enters the AABB. The bool is false when no
// hit exists. Slab method.
func segmentRectHitT(ox, oy, ex, ey, minX, minY, maxX, maxY float64) (float64, bool) {
	dx := ex - ox
	dy := ey - oy

	tMin := 0.0
	tMax := 1.0

	// X slab
	if math.Abs(dx) < 1e-12 {
		if ox < minX || ox > maxX {
			return 0, false
		}
	} else {
		invD := 1.0 / dx
		t1 := (minX - ox) * invD
		t2 := (maxX - ox) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}

	// Y slab
	if math.Abs(dy) < 1e-12 {
		if oy < minY || oy > maxY {
			return 0, false
		}
	} else {
		invD := 1.0 / dy
		t1 := (minY - oy) * invD
		t2 := (maxY - oy) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}

	if tMax < 0 || tMin > 1 {
		return 0, false
	}
	if tMin < 0 {
		tMin = 0
	}
	return tMin, true
}

// MotionClass labels instantaneous motion relative to a target.
type MotionClass int

const (
	// MotionNeutral covers stationary players and perpendicular movement.
	MotionNeutral MotionClass = iota
	// MotionPursuit is movement predominantly toward the target.
	MotionPursuit
	// MotionRetreat is movement predominantly away from the target.
	MotionRetreat
)

func (m MotionClass) String() string {
	switch m {
	case MotionPursuit:
		return "pursuit"
	case MotionRetreat:
		return "retreat"
	default:
		return "neutral"
	}
}

// ParseMotionClass maps a wire label back to a MotionClass. Unknown labels
// are treated as neutral.
func ParseMotionClass(s string) MotionClass {
	switch s {
	case "pursuit":
		return MotionPursuit
	case "retreat":
		return MotionRetreat
	default:
		return MotionNeutral
	}
}

// DirectionRelativeToTarget classifies velocity (vx,vy) against the vector
// (tx,ty) pointing from the mover to the target. coneDot is the normalized
// dot-product threshold (cos of the cone half-angle): above +coneDot is
// pursuit, below -coneDot is retreat, anything between is neutral. Speeds
// below minSpeed and degenerate target vectors are always neutral; a
// stationary player is never "moving toward" anything.
func DirectionRelativeToTarget(vx, vy, tx, ty, coneDot, minSpeed float64) MotionClass {
	speed := math.Hypot(vx, vy)
	if speed < minSpeed {
		return MotionNeutral
	}
	tMag := math.Hypot(tx, ty)
	if tMag < 0.1 {
		return MotionNeutral
	}
	dot := (vx*tx + vy*ty) / (speed * tMag)
	switch {
	case dot > coneDot:
		return MotionPursuit
	case dot < -coneDot:
		return MotionRetreat
	default:
		return MotionNeutral
	}
}
