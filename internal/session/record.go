// Package session defines the combat session record: the JSON document the
// capture layer produces and the offline analysis pipeline consumes.
package session

import (
	"time"

	"github.com/google/uuid"
)

// DurationEpsilon is the floor applied to derived session durations so every
// rate is well-defined. Extractors still treat durations at the floor as
// degenerate and fall back to 0 for rate features.
const DurationEpsilon = 1e-6

// PlayerStats are the counters accumulated online over one session.
type PlayerStats struct {
	TotalDamageDealt float64 `json:"total_damage_dealt"`
	TotalDamageTaken float64 `json:"total_damage_taken"`
	ShotsFired       int     `json:"shots_fired"`
	ShotsHit         int     `json:"shots_hit"`
	EnemiesKilled    int     `json:"enemies_killed"`
	TimeInCover      float64 `json:"time_in_cover"`
	DistanceTraveled float64 `json:"distance_traveled"`
	Reloads          int     `json:"reloads"`
	RetreatFrames    int     `json:"retreat_frames"`
	PursuitFrames    int     `json:"pursuit_frames"`
	NeutralFrames    int     `json:"neutral_frames"`
}

// EventData is the context payload attached to an event. All fields are
// optional; each event type fills the subset that applies.
type EventData struct {
	Position          []float64 `json:"position,omitempty"`
	TargetPosition    []float64 `json:"target_position,omitempty"`
	Angle             *float64  `json:"angle,omitempty"`
	AmmoRemaining     *int      `json:"ammo_remaining,omitempty"`
	Health            *float64  `json:"health,omitempty"`
	HealthPct         *float64  `json:"health_pct,omitempty"`
	Damage            *float64  `json:"damage,omitempty"`
	ThresholdCrossed  string    `json:"threshold_crossed,omitempty"`
	VelocityMagnitude *float64  `json:"velocity_magnitude,omitempty"`
	IsReloading       *bool     `json:"is_reloading,omitempty"`
	EnemiesNearby     *int      `json:"enemies_nearby,omitempty"`
	EnemyType         string    `json:"enemy_type,omitempty"`
	Duration          *float64  `json:"duration,omitempty"`
	Wave              *int      `json:"wave,omitempty"`
	Reason            string    `json:"reason,omitempty"`
}

// Event is one typed occurrence during a session. Timestamps are unix seconds
// to stay wire-compatible with the historical gameplay_data corpus.
type Event struct {
	Timestamp float64   `json:"timestamp"`
	Type      string    `json:"type"`
	Data      EventData `json:"data"`
}

// Event type names.
const (
	EventShotFired      = "shot_fired"
	EventReloadStart    = "reload_start"
	EventReloadComplete = "reload_complete"
	EventPlayerDamaged  = "player_damaged"
	EventEnemyKilled    = "enemy_killed"
	EventWaveComplete   = "wave_complete"
	EventGameOver       = "game_over"
)

// BehavioralSample is one decimated per-frame snapshot.
type BehavioralSample struct {
	Timestamp            float64   `json:"timestamp"`
	PlayerPosition       []float64 `json:"player_position"`
	PlayerHealth         float64   `json:"player_health"`
	PlayerAmmo           int       `json:"player_ammo"`
	EnemiesCount         int       `json:"enemies_count"`
	AvgEnemyDistance     float64   `json:"avg_enemy_distance"`
	NearestEnemyDistance float64   `json:"nearest_enemy_distance"`
	NearCover            bool      `json:"near_cover"`
	UsingCover           bool      `json:"using_cover"`
	IsReloading          bool      `json:"is_reloading"`
	MovementDirection    string    `json:"movement_direction"`
}

// ThreatResponse is a throttled sample of how the player reacts to pressure.
type ThreatResponse struct {
	Timestamp            float64 `json:"timestamp"`
	ThreatLevel          int     `json:"threat_level"`
	NearestEnemyDistance float64 `json:"nearest_enemy_distance"`
	PlayerHealthPct      float64 `json:"player_health_pct"`
	Response             string  `json:"response"`
	VelocityMagnitude    float64 `json:"velocity_magnitude"`
}

// MovementPattern is a throttled sample of actual movement.
type MovementPattern struct {
	Timestamp         float64   `json:"timestamp"`
	Position          []float64 `json:"position"`
	Velocity          []float64 `json:"velocity"`
	VelocityMagnitude float64   `json:"velocity_magnitude"`
	Health            float64   `json:"health"`
}

// CombatDecision annotates a key decision point (e.g. reaching critical
// health) with its context.
type CombatDecision struct {
	Timestamp float64   `json:"timestamp"`
	Decision  string    `json:"decision"`
	Context   EventData `json:"context"`
}

// Record is the complete telemetry document for one combat session. It is
// mutated only by the capture layer during the live session and is frozen
// once persisted.
type Record struct {
	SessionID         string             `json:"session_id"`
	PlaystyleLabel    string             `json:"playstyle_label,omitempty"`
	StartTime         float64            `json:"start_time"`
	EndTime           float64            `json:"end_time,omitempty"`
	PlayerStats       PlayerStats        `json:"player_stats"`
	Events            []Event            `json:"events"`
	BehavioralMetrics []BehavioralSample `json:"behavioral_metrics"`
	ThreatResponses   []ThreatResponse   `json:"threat_responses,omitempty"`
	MovementPatterns  []MovementPattern  `json:"movement_patterns,omitempty"`
	CombatDecisions   []CombatDecision   `json:"combat_decisions,omitempty"`
}

// NewRecord creates a live record for a session starting now. The session ID
// keeps the timestamp-prefixed naming convention of the historical corpus and
// appends a short UUID fragment to stay unique across concurrent runs.
func NewRecord(label string, start time.Time) *Record {
	id := start.Format("20060102_150405") + "_" + uuid.NewString()[:8]
	return &Record{
		SessionID:      id,
		PlaystyleLabel: label,
		StartTime:      float64(start.UnixNano()) / 1e9,
		Events:         []Event{},
	}
}

// AppendEvent appends a typed event. Events are append-only.
func (r *Record) AppendEvent(ts float64, typ string, data EventData) {
	r.Events = append(r.Events, Event{Timestamp: ts, Type: typ, Data: data})
}

// derivedEnd returns the end timestamp: the explicit end_time when set,
// otherwise the last event's timestamp, otherwise the start time.
func (r *Record) derivedEnd() float64 {
	if r.EndTime != 0 {
		return r.EndTime
	}
	if n := len(r.Events); n > 0 {
		return r.Events[n-1].Timestamp
	}
	return r.StartTime
}

// Duration returns the session length in seconds, floored at DurationEpsilon
// so it is never zero. Validate rejects records whose derived end precedes
// the start, so Duration never sees a negative span on a validated record.
func (r *Record) Duration() float64 {
	d := r.derivedEnd() - r.StartTime
	if d < DurationEpsilon {
		return DurationEpsilon
	}
	return d
}

// MotionFrames returns the total number of motion-classified frames.
func (r *Record) MotionFrames() int {
	s := r.PlayerStats
	return s.RetreatFrames + s.PursuitFrames + s.NeutralFrames
}
