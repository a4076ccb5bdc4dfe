package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/combatlab/playstyle/internal/geom"
)

// Policy is a scripted bot behavior driving the player through a session.
type Policy string

const (
	PolicyAggressive Policy = "aggressive"
	PolicyDefensive  Policy = "defensive"
	PolicyChaotic    Policy = "chaotic"
)

// ParsePolicy validates a policy name.
func ParsePolicy(name string) (Policy, error) {
	switch Policy(name) {
	case PolicyAggressive, PolicyDefensive, PolicyChaotic:
		return Policy(name), nil
	}
	return "", fmt.Errorf("unknown policy %q (have aggressive, defensive, chaotic)", name)
}

// Policies lists the available bot behaviors.
func Policies() []Policy {
	return []Policy{PolicyAggressive, PolicyDefensive, PolicyChaotic}
}

// drive returns the player's velocity for this tick and whether the bot
// wants to fire.
func (p Policy) drive(s *Sim) (vx, vy float64, fire bool) {
	target := s.nearestEnemy()
	switch p {
	case PolicyDefensive:
		return driveDefensive(s, target)
	case PolicyChaotic:
		return driveChaotic(s, target)
	default:
		return driveAggressive(s, target)
	}
}

// aimJitter is the per-shot angular error. Chaotic spray is wide enough to
// tank accuracy; the others land most shots.
func (p Policy) aimJitter(rng *rand.Rand) float64 {
	switch p {
	case PolicyChaotic:
		return (rng.Float64() - 0.5) * 1.2
	case PolicyDefensive:
		return (rng.Float64() - 0.5) * 0.1
	default:
		return (rng.Float64() - 0.5) * 0.25
	}
}

// fireInterval is the cooldown in ticks between shots.
func (p Policy) fireInterval() int {
	switch p {
	case PolicyDefensive:
		return 20
	case PolicyChaotic:
		return 8
	default:
		return 10
	}
}

// driveAggressive closes on the nearest enemy at full speed, firing the
// whole way.
func driveAggressive(s *Sim, target *enemy) (float64, float64, bool) {
	if target == nil {
		return 0, 0, false
	}
	dx, dy := target.x-s.player.x, target.y-s.player.y
	dist := math.Hypot(dx, dy)
	if dist < 40 {
		// Point blank: circle rather than overlap.
		return -dy / dist * playerSpeed, dx / dist * playerSpeed, true
	}
	return dx / dist * playerSpeed, dy / dist * playerSpeed, true
}

// driveDefensive camps the cover nearest to the player, backing off when
// enemies press, and takes deliberate shots.
func driveDefensive(s *Sim, target *enemy) (float64, float64, bool) {
	var anchor geom.Rect
	bestDist := math.Inf(1)
	for _, c := range s.covers {
		if d := geom.Dist(s.player.x, s.player.y, c.CenterX(), c.CenterY()); d < bestDist {
			anchor, bestDist = c, d
		}
	}

	vx, vy := 0.0, 0.0
	if bestDist > 30 {
		dx, dy := anchor.CenterX()-s.player.x, anchor.CenterY()-s.player.y
		vx = dx / bestDist * playerSpeed * 0.75
		vy = dy / bestDist * playerSpeed * 0.75
	}

	if target != nil {
		if d := geom.Dist(s.player.x, s.player.y, target.x, target.y); d < 150 && d > 0 {
			vx = (s.player.x - target.x) / d * playerSpeed
			vy = (s.player.y - target.y) / d * playerSpeed
		}
	}
	return vx, vy, target != nil
}

// driveChaotic wanders on a random heading that re-rolls every 20 ticks and
// sprays whenever anything is alive.
func driveChaotic(s *Sim, target *enemy) (float64, float64, bool) {
	if s.tick%20 == 1 || (s.wanderVX == 0 && s.wanderVY == 0) {
		angle := s.rng.Float64() * 2 * math.Pi
		s.wanderVX = math.Cos(angle) * playerSpeed
		s.wanderVY = math.Sin(angle) * playerSpeed
	}
	// Bounce off the walls instead of grinding along them.
	if s.player.x <= playerRadius || s.player.x >= arenaW-playerRadius {
		s.wanderVX = -s.wanderVX
	}
	if s.player.y <= playerRadius || s.player.y >= arenaH-playerRadius {
		s.wanderVY = -s.wanderVY
	}
	return s.wanderVX, s.wanderVY, target != nil
}
