// Package sim is a headless combat arena used to exercise the capture path
// end-to-end and to generate labeled session corpora. It mirrors the real
// game loop's shape but keeps physics deliberately minimal: no rendering, no
// input, a synthetic 60Hz clock, and all randomness from a seeded source.
package sim

import (
	"math"
	"math/rand"
	"time"

	"github.com/combatlab/playstyle/internal/capture"
	"github.com/combatlab/playstyle/internal/geom"
	"github.com/combatlab/playstyle/internal/session"
)

const (
	arenaW   = 1280.0
	arenaH   = 720.0
	tickSecs = 1.0 / 60.0

	playerMaxHealth = 100.0
	playerSpeed     = 4.0
	magazineSize    = 30
	reloadTicks     = 90

	enemyHealth      = 50.0
	basicSpeed       = 2.0
	sniperSpeed      = 1.5
	sniperRange      = 300.0
	basicFireTicks   = 45
	sniperFireTicks  = 75
	enemyBulletSpeed = 6.0
	enemyDamage      = 8.0

	bulletSpeed  = 10.0
	bulletDamage = 25.0
	hitRadius    = 16.0
	playerRadius = 14.0

	defaultMaxWaves = 10
)

// EnemyBasic rushes the player; EnemySniper keeps distance and shoots.
const (
	EnemyBasic  = "basic"
	EnemySniper = "sniper"
)

type entity struct {
	x, y float64
}

type enemy struct {
	entity
	kind     string
	health   float64
	cooldown int
}

type bullet struct {
	entity
	vx, vy     float64
	damage     float64
	fromPlayer bool
}

type player struct {
	entity
	vx, vy     float64
	health     float64
	ammo       int
	reloading  bool
	reloadLeft int
	fireWait   int
}

// Sim is one headless session. Not safe for concurrent use.
type Sim struct {
	rng     *rand.Rand
	policy  Policy
	tracker *capture.Tracker
	rec     *session.Record

	clock    float64
	tick     int
	wave     int
	maxWaves int
	over     bool

	player  player
	enemies []*enemy
	bullets []*bullet
	covers  []geom.Rect

	// chaotic policy wander state
	wanderVX, wanderVY float64
}

// Option configures a Sim.
type Option func(*Sim)

// WithSeed makes the run deterministic.
func WithSeed(seed int64) Option {
	return func(s *Sim) { s.rng = rand.New(rand.NewSource(seed)) }
}

// WithPolicy selects the bot behavior driving the player.
func WithPolicy(p Policy) Option {
	return func(s *Sim) { s.policy = p }
}

// WithLabel stamps the playstyle label onto the session record.
func WithLabel(label string) Option {
	return func(s *Sim) { s.rec.PlaystyleLabel = label }
}

// WithMaxWaves caps wave progression.
func WithMaxWaves(n int) Option {
	return func(s *Sim) {
		if n > 0 {
			s.maxWaves = n
		}
	}
}

// WithStart sets the session start time, the base of the synthetic clock.
func WithStart(start time.Time) Option {
	return func(s *Sim) {
		s.rec.StartTime = float64(start.UnixNano()) / 1e9
		s.clock = s.rec.StartTime
	}
}

// NewSim builds an arena with the standard six-cover layout, one player at
// center, and no enemies yet; the first tick spawns wave 1.
func NewSim(opts ...Option) *Sim {
	start := time.Unix(1, 0)
	s := &Sim{
		rng:      rand.New(rand.NewSource(1)),
		policy:   PolicyAggressive,
		rec:      session.NewRecord("", start),
		maxWaves: defaultMaxWaves,
		covers:   defaultCovers(),
	}
	s.rec.StartTime = float64(start.UnixNano()) / 1e9
	s.clock = s.rec.StartTime
	s.player = player{
		entity: entity{x: arenaW / 2, y: arenaH / 2},
		health: playerMaxHealth,
		ammo:   magazineSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tracker = capture.New(s.rec, capture.WithClock(func() float64 { return s.clock }))
	return s
}

func defaultCovers() []geom.Rect {
	return []geom.Rect{
		{X: 180, Y: 140, W: 80, H: 40},
		{X: 1020, Y: 140, W: 80, H: 40},
		{X: 300, Y: 420, W: 40, H: 120},
		{X: 940, Y: 420, W: 40, H: 120},
		{X: 600, Y: 100, W: 80, H: 40},
		{X: 600, Y: 580, W: 80, H: 40},
	}
}

// Record returns the live session record.
func (s *Sim) Record() *session.Record { return s.rec }

// Over reports whether the session has ended.
func (s *Sim) Over() bool { return s.over }

// Wave returns the current wave number.
func (s *Sim) Wave() int { return s.wave }

// RunTicks advances up to n ticks, stopping early if the session ends.
// It returns the number of ticks actually run.
func (s *Sim) RunTicks(n int) int {
	ran := 0
	for i := 0; i < n && !s.over; i++ {
		s.step()
		ran++
	}
	return ran
}

// Finish force-ends a still-running session, e.g. when a scripted run hits
// its tick budget before the player dies.
func (s *Sim) Finish() {
	if s.over {
		return
	}
	s.over = true
	s.tracker.Finish("tick_budget_exhausted", s.wave)
}

func (s *Sim) step() {
	s.clock += tickSecs
	s.tick++

	if len(s.enemies) == 0 {
		if s.wave >= s.maxWaves {
			s.over = true
			s.tracker.Finish("all_waves_complete", s.wave)
			return
		}
		s.wave++
		s.spawnWave()
	}

	s.drivePlayer()
	s.driveEnemies()
	s.advanceBullets()
	s.resolveHits()

	if s.player.health <= 0 {
		s.over = true
		s.tracker.Finish("player_died", s.wave)
		return
	}

	s.tracker.Observe(s.playerObs(), s.enemyObs(), s.covers)

	if len(s.enemies) == 0 {
		s.tracker.WaveComplete(s.wave)
	}
}

func (s *Sim) spawnWave() {
	count := 2 + s.wave
	for i := 0; i < count; i++ {
		kind := EnemyBasic
		if s.rng.Float64() < 0.3 {
			kind = EnemySniper
		}
		// Spawn on the arena perimeter, away from the player.
		var x, y float64
		switch s.rng.Intn(4) {
		case 0:
			x, y = s.rng.Float64()*arenaW, 20
		case 1:
			x, y = s.rng.Float64()*arenaW, arenaH-20
		case 2:
			x, y = 20, s.rng.Float64()*arenaH
		default:
			x, y = arenaW-20, s.rng.Float64()*arenaH
		}
		s.enemies = append(s.enemies, &enemy{
			entity: entity{x: x, y: y},
			kind:   kind,
			health: enemyHealth,
		})
	}
}

func (s *Sim) playerObs() capture.PlayerObs {
	return capture.PlayerObs{
		X: s.player.x, Y: s.player.y,
		VX: s.player.vx, VY: s.player.vy,
		Health:    s.player.health,
		MaxHealth: playerMaxHealth,
		Ammo:      s.player.ammo,
		Reloading: s.player.reloading,
	}
}

func (s *Sim) enemyObs() []capture.EnemyObs {
	obs := make([]capture.EnemyObs, len(s.enemies))
	for i, e := range s.enemies {
		obs[i] = capture.EnemyObs{X: e.x, Y: e.y}
	}
	return obs
}

func (s *Sim) nearestEnemy() *enemy {
	var best *enemy
	bestDist := math.Inf(1)
	for _, e := range s.enemies {
		if d := geom.Dist(s.player.x, s.player.y, e.x, e.y); d < bestDist {
			best, bestDist = e, d
		}
	}
	return best
}

func (s *Sim) drivePlayer() {
	p := &s.player

	if p.reloading {
		p.reloadLeft--
		if p.reloadLeft <= 0 {
			p.reloading = false
			p.ammo = magazineSize
			s.tracker.ReloadCompleted(s.playerObs(), float64(reloadTicks)*tickSecs)
		}
	}

	vx, vy, wantFire := s.policy.drive(s)
	p.vx, p.vy = vx, vy
	p.x = clamp(p.x+vx, playerRadius, arenaW-playerRadius)
	p.y = clamp(p.y+vy, playerRadius, arenaH-playerRadius)

	if p.fireWait > 0 {
		p.fireWait--
	}
	if !wantFire || p.reloading || p.fireWait > 0 {
		return
	}
	if p.ammo <= 0 {
		p.reloading = true
		p.reloadLeft = reloadTicks
		s.tracker.ReloadStarted(s.playerObs(), s.enemyObs())
		return
	}
	target := s.nearestEnemy()
	if target == nil {
		return
	}
	angle := math.Atan2(target.y-p.y, target.x-p.x) + s.policy.aimJitter(s.rng)
	p.ammo--
	p.fireWait = s.policy.fireInterval()
	s.tracker.ShotFired(s.playerObs(), target.x, target.y)
	s.bullets = append(s.bullets, &bullet{
		entity:     entity{x: p.x, y: p.y},
		vx:         math.Cos(angle) * bulletSpeed,
		vy:         math.Sin(angle) * bulletSpeed,
		damage:     bulletDamage,
		fromPlayer: true,
	})
}

func (s *Sim) driveEnemies() {
	for _, e := range s.enemies {
		dx, dy := s.player.x-e.x, s.player.y-e.y
		dist := math.Hypot(dx, dy)
		if dist < 1 {
			dist = 1
		}

		switch e.kind {
		case EnemySniper:
			// Hold range, shoot from afar.
			if dist > sniperRange {
				e.x += dx / dist * sniperSpeed
				e.y += dy / dist * sniperSpeed
			} else if dist < sniperRange*0.7 {
				e.x -= dx / dist * sniperSpeed
				e.y -= dy / dist * sniperSpeed
			}
			s.enemyFire(e, sniperFireTicks)
		default:
			e.x += dx / dist * basicSpeed
			e.y += dy / dist * basicSpeed
			if dist < 200 {
				s.enemyFire(e, basicFireTicks)
			}
		}
	}
}

func (s *Sim) enemyFire(e *enemy, interval int) {
	if e.cooldown > 0 {
		e.cooldown--
		return
	}
	e.cooldown = interval
	angle := math.Atan2(s.player.y-e.y, s.player.x-e.x) + (s.rng.Float64()-0.5)*0.2
	s.bullets = append(s.bullets, &bullet{
		entity: entity{x: e.x, y: e.y},
		vx:     math.Cos(angle) * enemyBulletSpeed,
		vy:     math.Sin(angle) * enemyBulletSpeed,
		damage: enemyDamage,
	})
}

func (s *Sim) advanceBullets() {
	alive := s.bullets[:0]
	for _, b := range s.bullets {
		nx, ny := b.x+b.vx, b.y+b.vy
		if nx < 0 || nx > arenaW || ny < 0 || ny > arenaH {
			continue
		}
		blocked := false
		for _, c := range s.covers {
			if geom.SegmentIntersectsRect(b.x, b.y, nx, ny, c) {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}
		b.x, b.y = nx, ny
		alive = append(alive, b)
	}
	s.bullets = alive
}

func (s *Sim) resolveHits() {
	alive := s.bullets[:0]
	for _, b := range s.bullets {
		if b.fromPlayer {
			if e := s.hitEnemy(b); e != nil {
				s.tracker.ShotConnected(b.damage)
				e.health -= b.damage
				if e.health <= 0 {
					s.tracker.EnemyKilled(e.kind, e.x, e.y)
					s.removeEnemy(e)
				}
				continue
			}
		} else if geom.Dist(b.x, b.y, s.player.x, s.player.y) < playerRadius {
			old := s.player.health
			s.player.health -= b.damage
			s.tracker.PlayerDamaged(s.playerObs(), b.damage, old)
			continue
		}
		alive = append(alive, b)
	}
	s.bullets = alive
}

func (s *Sim) hitEnemy(b *bullet) *enemy {
	for _, e := range s.enemies {
		if geom.Dist(b.x, b.y, e.x, e.y) < hitRadius {
			return e
		}
	}
	return nil
}

func (s *Sim) removeEnemy(target *enemy) {
	for i, e := range s.enemies {
		if e == target {
			s.enemies = append(s.enemies[:i], s.enemies[i+1:]...)
			return
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
