// Package feature turns a validated session record into the fixed vector of
// behavioral indicators the classifier scores. Extraction is pure: same
// record in, same vector out, no I/O.
package feature

import (
	"math"

	"github.com/combatlab/playstyle/internal/geom"
	"github.com/combatlab/playstyle/internal/session"
)

// Engagement range buckets, derived from the mean shot distance.
const (
	RangeUnknown    = "unknown"
	RangePointBlank = "point_blank"
	RangeClose      = "close"
	RangeMedium     = "medium"
	RangeLong       = "long"
)

const (
	pointBlankMax = 50.0
	closeMax      = 100.0
	mediumMax     = 200.0

	// Behavioral samples occasionally carry bogus distances (no enemies alive,
	// spawn teleports). Anything outside this band is excluded from averages.
	maxPlausibleDistance = 1500.0
)

// Vector is the full indicator set for one session. Percentages are in
// [0,1]; rates are per second; distances are in px.
type Vector struct {
	SessionDuration float64 `json:"session_duration"`
	ShotsFired      float64 `json:"shots_fired"`
	ShotAccuracy    float64 `json:"shot_accuracy"`
	ShotFrequency   float64 `json:"shot_frequency"`
	DamagePerShot   float64 `json:"damage_per_shot"`
	KillRate        float64 `json:"kill_rate"`

	// EngagementEfficiency is kills per shot, distinct from KillRate's kills
	// per second.
	EngagementEfficiency float64 `json:"engagement_efficiency"`

	DamageEfficiency float64 `json:"damage_efficiency"`
	Survivability    float64 `json:"survivability"`

	AvgEnemyDistance float64 `json:"avg_enemy_distance"`
	EngagementRange  string  `json:"engagement_range"`

	DamageDealt float64 `json:"damage_dealt"`

	CoverUsagePct       float64 `json:"cover_usage_pct"`
	NearCoverPct        float64 `json:"near_cover_pct"`
	EffectiveCoverUsage float64 `json:"effective_cover_usage"`

	RetreatPct float64 `json:"retreat_pct"`
	PursuitPct float64 `json:"pursuit_pct"`
	NeutralPct float64 `json:"neutral_pct"`

	MobilityIndex            float64 `json:"mobility_index"`
	TacticalPositioningScore float64 `json:"tactical_positioning_score"`
	DefensiveActionRatio     float64 `json:"defensive_action_ratio"`
}

// Value returns the named numeric indicator, used by schema rows to bind
// weights to features. Unknown names return (0, false); EngagementRange is
// categorical and not addressable here.
func (v *Vector) Value(name string) (float64, bool) {
	switch name {
	case "session_duration":
		return v.SessionDuration, true
	case "shots_fired":
		return v.ShotsFired, true
	case "shot_accuracy":
		return v.ShotAccuracy, true
	case "shot_frequency":
		return v.ShotFrequency, true
	case "damage_per_shot":
		return v.DamagePerShot, true
	case "kill_rate":
		return v.KillRate, true
	case "engagement_efficiency":
		return v.EngagementEfficiency, true
	case "damage_efficiency":
		return v.DamageEfficiency, true
	case "damage_dealt":
		return v.DamageDealt, true
	case "survivability":
		return v.Survivability, true
	case "avg_enemy_distance":
		return v.AvgEnemyDistance, true
	case "cover_usage_pct":
		return v.CoverUsagePct, true
	case "near_cover_pct":
		return v.NearCoverPct, true
	case "effective_cover_usage":
		return v.EffectiveCoverUsage, true
	case "retreat_pct":
		return v.RetreatPct, true
	case "pursuit_pct":
		return v.PursuitPct, true
	case "neutral_pct":
		return v.NeutralPct, true
	case "mobility_index":
		return v.MobilityIndex, true
	case "tactical_positioning_score":
		return v.TacticalPositioningScore, true
	case "defensive_action_ratio":
		return v.DefensiveActionRatio, true
	}
	return 0, false
}

// Extract computes the indicator vector for a validated record. Every
// indicator is finite for every valid record: degenerate sessions (duration
// at the epsilon floor, zero shots, no samples) yield zeros, never NaN or
// Inf.
func Extract(rec *session.Record) Vector {
	dur := rec.Duration()
	degenerate := dur <= session.DurationEpsilon
	st := rec.PlayerStats

	v := Vector{
		SessionDuration: dur,
		ShotsFired:      float64(st.ShotsFired),
		EngagementRange: RangeUnknown,
	}
	if degenerate {
		v.SessionDuration = 0
	}

	if st.ShotsFired > 0 {
		v.ShotAccuracy = float64(st.ShotsHit) / float64(st.ShotsFired)
		v.DamagePerShot = st.TotalDamageDealt / float64(st.ShotsFired)
		v.EngagementEfficiency = float64(st.EnemiesKilled) / float64(st.ShotsFired)
	}
	if !degenerate {
		v.ShotFrequency = float64(st.ShotsFired) / dur
		v.KillRate = float64(st.EnemiesKilled) / dur
		v.Survivability = st.TotalDamageTaken / dur
		v.MobilityIndex = st.DistanceTraveled / dur
		v.CoverUsagePct = math.Min(1, st.TimeInCover/dur)
	}
	v.DamageDealt = st.TotalDamageDealt
	v.DamageEfficiency = st.TotalDamageDealt / math.Max(st.TotalDamageTaken, 1)

	v.AvgEnemyDistance = avgSampledDistance(rec.BehavioralMetrics)
	v.NearCoverPct = nearCoverPct(rec.BehavioralMetrics)
	v.EffectiveCoverUsage = effectiveCoverUsage(rec.BehavioralMetrics)

	if frames := rec.MotionFrames(); frames > 0 {
		v.RetreatPct = float64(st.RetreatFrames) / float64(frames)
		v.PursuitPct = float64(st.PursuitFrames) / float64(frames)
		v.NeutralPct = float64(st.NeutralFrames) / float64(frames)
	}

	v.EngagementRange = engagementRange(rec.Events)
	v.DefensiveActionRatio = defensiveActionRatio(rec.Events)
	v.TacticalPositioningScore = tacticalScore(v.EffectiveCoverUsage, v.AvgEnemyDistance, v.Survivability)
	return v
}

// avgSampledDistance averages avg_enemy_distance over the behavioral samples,
// skipping empty-arena zeros and implausible outliers.
func avgSampledDistance(samples []session.BehavioralSample) float64 {
	total, n := 0.0, 0
	for _, s := range samples {
		if s.AvgEnemyDistance <= 0 || s.AvgEnemyDistance > maxPlausibleDistance {
			continue
		}
		total += s.AvgEnemyDistance
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// nearCoverPct is the share of samples spent near or behind cover, the
// coarse cover indicator the first-generation analyzer used.
func nearCoverPct(samples []session.BehavioralSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	n := 0
	for _, s := range samples {
		if s.NearCover || s.UsingCover {
			n++
		}
	}
	return float64(n) / float64(len(samples))
}

// effectiveCoverUsage blends the share of samples spent using cover with a
// discounted share spent merely near cover, capped at 1.
func effectiveCoverUsage(samples []session.BehavioralSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	using, near := 0, 0
	for _, s := range samples {
		if s.UsingCover {
			using++
		} else if s.NearCover {
			near++
		}
	}
	n := float64(len(samples))
	return math.Min(1, float64(using)/n+0.3*float64(near)/n)
}

// engagementRange buckets the mean shot distance. Sessions with no ranged
// shot data stay unknown.
func engagementRange(events []session.Event) string {
	total, n := 0.0, 0
	for _, ev := range events {
		if ev.Type != session.EventShotFired {
			continue
		}
		p, t := ev.Data.Position, ev.Data.TargetPosition
		if len(p) != 2 || len(t) != 2 {
			continue
		}
		total += geom.Dist(p[0], p[1], t[0], t[1])
		n++
	}
	if n == 0 {
		return RangeUnknown
	}
	switch mean := total / float64(n); {
	case mean < pointBlankMax:
		return RangePointBlank
	case mean < closeMax:
		return RangeClose
	case mean < mediumMax:
		return RangeMedium
	default:
		return RangeLong
	}
}

// defensiveActionRatio is the share of trigger-adjacent actions that were
// reloads rather than shots.
func defensiveActionRatio(events []session.Event) float64 {
	reloads, shots := 0, 0
	for _, ev := range events {
		switch ev.Type {
		case session.EventReloadStart:
			reloads++
		case session.EventShotFired:
			shots++
		}
	}
	if reloads+shots == 0 {
		return 0
	}
	return float64(reloads) / float64(reloads+shots)
}

// tacticalScore is a composite positioning indicator: cover discipline plus
// a preferred-distance band plus low incoming damage, capped at 1.
func tacticalScore(effCover, avgDist, survivability float64) float64 {
	score := 0.4 * effCover

	switch {
	case avgDist >= 120 && avgDist <= 250:
		score += 0.3
	case (avgDist >= 80 && avgDist < 120) || (avgDist > 250 && avgDist <= 350):
		score += 0.15
	}

	switch {
	case survivability < 0.5:
		score += 0.3
	case survivability < 1.0:
		score += 0.15
	}
	return math.Min(1, score)
}
