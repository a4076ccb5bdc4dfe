// Package capture observes live game state once per simulation tick and
// accumulates a session record. It runs in lock-step with the tick loop, so
// it performs no I/O, takes no locks, and never panics on degenerate state.
package capture

import (
	"math"
	"time"

	"github.com/combatlab/playstyle/internal/geom"
	"github.com/combatlab/playstyle/internal/session"
)

// Capture tuning defaults. The cover radius and bearing tolerance are
// empirically chosen heuristics carried over from the original tuning; keep
// them configurable rather than re-deriving them.
const (
	defaultCoverRadius      = 100.0 // px: player-to-cover proximity for "using cover"
	defaultNearCoverRadius  = 50.0  // px: plain proximity for "near cover"
	defaultBearingTolerance = 0.785 // rad (~45°): enemy→player vs enemy→cover bearing
	defaultConeDot          = 0.3   // cos of pursuit/retreat cone half-angle (~72°)
	defaultMinSpeed         = 1.0   // px/tick: below this, motion is always neutral
	defaultSampleEvery      = 10    // append a behavioral sample every Nth tick
	defaultThreatThrottle   = 2.0   // seconds between threat-response samples
	defaultMovementEvery    = 30    // ticks between movement-pattern samples

	nearbyEnemyRadius    = 200.0 // px: "enemies nearby" context on reload
	threatEnemyRadius    = 250.0 // px: enemies counted toward threat level
	criticalHealthPct    = 0.3
	movementSampleMinSpd = 0.1
)

// PlayerObs is the per-tick view of the player the tracker samples.
// Velocity is in px/tick (position delta since the previous tick).
type PlayerObs struct {
	X, Y      float64
	VX, VY    float64
	Health    float64
	MaxHealth float64
	Ammo      int
	Reloading bool
}

func (p PlayerObs) speed() float64 { return math.Hypot(p.VX, p.VY) }

func (p PlayerObs) healthPct() float64 {
	if p.MaxHealth <= 0 {
		return 0
	}
	return p.Health / p.MaxHealth
}

// EnemyObs is the per-tick view of one enemy.
type EnemyObs struct {
	X, Y float64
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces the wall clock. The function must return unix seconds;
// simulations inject a synthetic clock for deterministic records.
func WithClock(now func() float64) Option {
	return func(t *Tracker) { t.now = now }
}

// WithCoverRadius sets the player-to-cover proximity radius (px).
func WithCoverRadius(r float64) Option {
	return func(t *Tracker) { t.coverRadius = r }
}

// WithBearingTolerance sets the enemy-bearing tolerance (radians) for the
// using-cover heuristic.
func WithBearingTolerance(rad float64) Option {
	return func(t *Tracker) { t.bearingTol = rad }
}

// WithSampleEvery sets the behavioral-sample decimation interval in ticks.
func WithSampleEvery(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.sampleEvery = n
		}
	}
}

// WithThreatThrottle sets the minimum seconds between threat-response samples.
func WithThreatThrottle(seconds float64) Option {
	return func(t *Tracker) { t.threatThrottle = seconds }
}

// WithMotionCone sets the pursuit/retreat dot threshold and the minimum
// speed below which motion is always neutral.
func WithMotionCone(coneDot, minSpeed float64) Option {
	return func(t *Tracker) {
		t.coneDot = coneDot
		t.minSpeed = minSpeed
	}
}

// Tracker is the single writer for one live session record. It is not safe
// for concurrent use; the tick loop owns it exclusively.
type Tracker struct {
	rec *session.Record
	now func() float64

	coverRadius     float64
	nearCoverRadius float64
	bearingTol      float64
	coneDot         float64
	minSpeed        float64
	sampleEvery     int
	threatThrottle  float64
	movementEvery   int

	// Per-tick state carried between Observe calls.
	lastCoverCheck float64
	wasInCover     bool
	frameCount     int
	movementTicks  int
	lastThreatTime float64
	havePrevPos    bool
	prevX, prevY   float64
	finished       bool
}

// New creates a tracker writing into rec.
func New(rec *session.Record, opts ...Option) *Tracker {
	t := &Tracker{
		rec:             rec,
		now:             func() float64 { return float64(time.Now().UnixNano()) / 1e9 },
		coverRadius:     defaultCoverRadius,
		nearCoverRadius: defaultNearCoverRadius,
		bearingTol:      defaultBearingTolerance,
		coneDot:         defaultConeDot,
		minSpeed:        defaultMinSpeed,
		sampleEvery:     defaultSampleEvery,
		threatThrottle:  defaultThreatThrottle,
		movementEvery:   defaultMovementEvery,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.lastCoverCheck = t.now()
	t.lastThreatTime = math.Inf(-1)
	return t
}

// Record returns the record being written. Callers must not mutate it while
// the session is live.
func (t *Tracker) Record() *session.Record { return t.rec }

// Observe samples one simulation tick: cover state, movement direction,
// distance traveled, the decimated behavioral snapshot, and the throttled
// threat-response and movement-pattern samples. Strictly additive mutation.
func (t *Tracker) Observe(p PlayerObs, enemies []EnemyObs, covers []geom.Rect) {
	if t.finished {
		return
	}
	now := t.now()

	usingCover := t.usingCover(p, enemies, covers)

	// Time-in-cover accrues only when the player was already in cover on the
	// previous check: rising-edge ticks are not counted, a conservative bias
	// that under-counts brief cover dips by one tick.
	delta := now - t.lastCoverCheck
	if usingCover && t.wasInCover && delta > 0 {
		t.rec.PlayerStats.TimeInCover += delta
	}
	t.wasInCover = usingCover
	t.lastCoverCheck = now

	dir := t.movementDirection(p, enemies)
	switch dir {
	case geom.MotionRetreat:
		t.rec.PlayerStats.RetreatFrames++
	case geom.MotionPursuit:
		t.rec.PlayerStats.PursuitFrames++
	default:
		t.rec.PlayerStats.NeutralFrames++
	}

	if t.havePrevPos {
		t.rec.PlayerStats.DistanceTraveled += geom.Dist(t.prevX, t.prevY, p.X, p.Y)
	}
	t.prevX, t.prevY = p.X, p.Y
	t.havePrevPos = true

	t.frameCount++
	if t.frameCount%t.sampleEvery == 0 {
		t.rec.BehavioralMetrics = append(t.rec.BehavioralMetrics, session.BehavioralSample{
			Timestamp:            now,
			PlayerPosition:       []float64{p.X, p.Y},
			PlayerHealth:         p.Health,
			PlayerAmmo:           p.Ammo,
			EnemiesCount:         len(enemies),
			AvgEnemyDistance:     avgEnemyDistance(p, enemies),
			NearestEnemyDistance: nearestEnemyDistance(p, enemies),
			NearCover:            t.nearCover(p, covers),
			UsingCover:           usingCover,
			IsReloading:          p.Reloading,
			MovementDirection:    dir.String(),
		})
	}

	t.sampleThreatResponse(now, p, enemies)
	t.sampleMovementPattern(now, p)
}

// usingCover applies the forgiving cover heuristic: the player counts as
// using cover when some cover object is within coverRadius and, for at least
// one enemy, the bearing from that enemy to the player and the bearing from
// that enemy to the cover differ by less than bearingTol, meaning the cover
// plausibly sits in the enemy's line of fire. Any one qualifying enemy
// suffices.
func (t *Tracker) usingCover(p PlayerObs, enemies []EnemyObs, covers []geom.Rect) bool {
	if len(enemies) == 0 {
		return false
	}
	for _, c := range covers {
		cx, cy := c.CenterX(), c.CenterY()
		if geom.Dist(p.X, p.Y, cx, cy) > t.coverRadius {
			continue
		}
		for _, e := range enemies {
			toPlayer := math.Atan2(p.Y-e.Y, p.X-e.X)
			toCover := math.Atan2(cy-e.Y, cx-e.X)
			if geom.AngleDiff(toPlayer, toCover) < t.bearingTol {
				return true
			}
		}
	}
	return false
}

// nearCover is the plain proximity check, kept alongside the heuristic so
// the extractor can weight "in cover" and "near cover" separately.
func (t *Tracker) nearCover(p PlayerObs, covers []geom.Rect) bool {
	for _, c := range covers {
		if geom.Dist(p.X, p.Y, c.CenterX(), c.CenterY()) < t.nearCoverRadius {
			return true
		}
	}
	return false
}

func (t *Tracker) movementDirection(p PlayerObs, enemies []EnemyObs) geom.MotionClass {
	ne, ok := nearestEnemy(p, enemies)
	if !ok {
		return geom.MotionNeutral
	}
	return geom.DirectionRelativeToTarget(p.VX, p.VY, ne.X-p.X, ne.Y-p.Y, t.coneDot, t.minSpeed)
}

func (t *Tracker) sampleThreatResponse(now float64, p PlayerObs, enemies []EnemyObs) {
	if len(enemies) == 0 || now-t.lastThreatTime < t.threatThrottle {
		return
	}
	t.lastThreatTime = now

	threat := 0
	for _, e := range enemies {
		if geom.Dist(p.X, p.Y, e.X, e.Y) < threatEnemyRadius {
			threat++
		}
	}
	ne, _ := nearestEnemy(p, enemies)

	response := "defensive"
	if p.speed() >= 0.5 {
		dot := p.VX*(ne.X-p.X) + p.VY*(ne.Y-p.Y)
		if dot > 0 {
			response = "aggressive"
		} else {
			response = "retreating"
		}
	}

	t.rec.ThreatResponses = append(t.rec.ThreatResponses, session.ThreatResponse{
		Timestamp:            now,
		ThreatLevel:          threat,
		NearestEnemyDistance: geom.Dist(p.X, p.Y, ne.X, ne.Y),
		PlayerHealthPct:      p.healthPct(),
		Response:             response,
		VelocityMagnitude:    p.speed(),
	})
}

func (t *Tracker) sampleMovementPattern(now float64, p PlayerObs) {
	t.movementTicks++
	if t.movementTicks < t.movementEvery {
		return
	}
	t.movementTicks = 0
	if p.speed() <= movementSampleMinSpd {
		return
	}
	t.rec.MovementPatterns = append(t.rec.MovementPatterns, session.MovementPattern{
		Timestamp:         now,
		Position:          []float64{p.X, p.Y},
		Velocity:          []float64{p.VX, p.VY},
		VelocityMagnitude: p.speed(),
		Health:            p.Health,
	})
}

// --- Event emission ---

// ShotFired records a player shot aimed at (tx,ty).
func (t *Tracker) ShotFired(p PlayerObs, tx, ty float64) {
	if t.finished {
		return
	}
	ammo := p.Ammo
	health := p.Health
	angle := math.Atan2(ty-p.Y, tx-p.X)
	t.rec.PlayerStats.ShotsFired++
	t.rec.AppendEvent(t.now(), session.EventShotFired, session.EventData{
		Position:       []float64{p.X, p.Y},
		TargetPosition: []float64{tx, ty},
		AmmoRemaining:  &ammo,
		Angle:          &angle,
		Health:         &health,
	})
}

// ShotConnected records a player bullet hitting an enemy for damage.
func (t *Tracker) ShotConnected(damage float64) {
	if t.finished {
		return
	}
	t.rec.PlayerStats.ShotsHit++
	t.rec.PlayerStats.TotalDamageDealt += damage
}

// EnemyKilled records an enemy death caused by the player.
func (t *Tracker) EnemyKilled(enemyType string, x, y float64) {
	if t.finished {
		return
	}
	t.rec.PlayerStats.EnemiesKilled++
	t.rec.AppendEvent(t.now(), session.EventEnemyKilled, session.EventData{
		EnemyType: enemyType,
		Position:  []float64{x, y},
	})
}

// ReloadStarted records the start of a reload with nearby-enemy context.
func (t *Tracker) ReloadStarted(p PlayerObs, enemies []EnemyObs) {
	if t.finished {
		return
	}
	nearby := 0
	for _, e := range enemies {
		if geom.Dist(p.X, p.Y, e.X, e.Y) < nearbyEnemyRadius {
			nearby++
		}
	}
	ammo := p.Ammo
	health := p.Health
	t.rec.PlayerStats.Reloads++
	t.rec.AppendEvent(t.now(), session.EventReloadStart, session.EventData{
		AmmoRemaining: &ammo,
		Health:        &health,
		EnemiesNearby: &nearby,
		Position:      []float64{p.X, p.Y},
	})
}

// ReloadCompleted records the end of a reload.
func (t *Tracker) ReloadCompleted(p PlayerObs, duration float64) {
	if t.finished {
		return
	}
	health := p.Health
	t.rec.AppendEvent(t.now(), session.EventReloadComplete, session.EventData{
		Duration: &duration,
		Health:   &health,
		Position: []float64{p.X, p.Y},
	})
}

// PlayerDamaged records incoming damage. p must carry the post-damage
// health; oldHealth is the health before the hit. The event is annotated
// with the 75/50/25% threshold crossed, if any, and crossing 30% emits a
// critical_health combat decision.
func (t *Tracker) PlayerDamaged(p PlayerObs, damage, oldHealth float64) {
	if t.finished {
		return
	}
	t.rec.PlayerStats.TotalDamageTaken += damage

	before := 0.0
	if p.MaxHealth > 0 {
		before = oldHealth / p.MaxHealth
	}
	after := p.healthPct()

	threshold := ""
	switch {
	case before > 0.75 && after <= 0.75:
		threshold = "75%"
	case before > 0.5 && after <= 0.5:
		threshold = "50%"
	case before > 0.25 && after <= 0.25:
		threshold = "25%"
	}

	health := p.Health
	pct := after
	dmg := damage
	speed := p.speed()
	reloading := p.Reloading
	now := t.now()
	t.rec.AppendEvent(now, session.EventPlayerDamaged, session.EventData{
		Damage:            &dmg,
		Health:            &health,
		HealthPct:         &pct,
		Position:          []float64{p.X, p.Y},
		VelocityMagnitude: &speed,
		ThresholdCrossed:  threshold,
		IsReloading:       &reloading,
	})

	if after < criticalHealthPct && before >= criticalHealthPct {
		ammo := p.Ammo
		t.rec.CombatDecisions = append(t.rec.CombatDecisions, session.CombatDecision{
			Timestamp: now,
			Decision:  "critical_health",
			Context: session.EventData{
				Health:        &health,
				AmmoRemaining: &ammo,
				Position:      []float64{p.X, p.Y},
			},
		})
	}
}

// WaveComplete records a cleared wave.
func (t *Tracker) WaveComplete(wave int) {
	if t.finished {
		return
	}
	w := wave
	t.rec.AppendEvent(t.now(), session.EventWaveComplete, session.EventData{Wave: &w})
}

// Finish closes the session: it records the terminal event, stamps the end
// time, and freezes the tracker. Further calls are no-ops.
func (t *Tracker) Finish(reason string, wave int) {
	if t.finished {
		return
	}
	now := t.now()
	w := wave
	t.rec.AppendEvent(now, session.EventGameOver, session.EventData{
		Reason: reason,
		Wave:   &w,
	})
	t.rec.EndTime = now
	t.finished = true
}

// --- Distance helpers (defensive: no enemies yields zero values) ---

func avgEnemyDistance(p PlayerObs, enemies []EnemyObs) float64 {
	if len(enemies) == 0 {
		return 0
	}
	total := 0.0
	for _, e := range enemies {
		total += geom.Dist(p.X, p.Y, e.X, e.Y)
	}
	return total / float64(len(enemies))
}

func nearestEnemyDistance(p PlayerObs, enemies []EnemyObs) float64 {
	ne, ok := nearestEnemy(p, enemies)
	if !ok {
		return 0
	}
	return geom.Dist(p.X, p.Y, ne.X, ne.Y)
}

func nearestEnemy(p PlayerObs, enemies []EnemyObs) (EnemyObs, bool) {
	if len(enemies) == 0 {
		return EnemyObs{}, false
	}
	best := enemies[0]
	bestDist := geom.Dist(p.X, p.Y, best.X, best.Y)
	for _, e := range enemies[1:] {
		if d := geom.Dist(p.X, p.Y, e.X, e.Y); d < bestDist {
			best = e
			bestDist = d
		}
	}
	return best, true
}
