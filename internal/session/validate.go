package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Required top-level fields and player_stats fields. Validation reports every
// missing field at once, not just the first.
var (
	requiredFields = []string{"session_id", "start_time", "player_stats", "events"}
	requiredStats  = []string{
		"shots_fired", "shots_hit", "total_damage_dealt",
		"total_damage_taken", "enemies_killed", "distance_traveled",
	}
)

// ValidationError reports everything wrong with a record's shape in one pass.
type ValidationError struct {
	MissingFields []string // absent top-level fields
	MissingStats  []string // absent player_stats fields
	ShapeErrors   []string // fields present with the wrong JSON shape
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.MissingFields) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.MissingFields, ", "))
	}
	if len(e.MissingStats) > 0 {
		parts = append(parts, "missing required player stats: "+strings.Join(e.MissingStats, ", "))
	}
	if len(e.ShapeErrors) > 0 {
		parts = append(parts, strings.Join(e.ShapeErrors, "; "))
	}
	if len(parts) == 0 {
		return "invalid session record"
	}
	return "invalid session record: " + strings.Join(parts, "; ")
}

func (e *ValidationError) empty() bool {
	return len(e.MissingFields) == 0 && len(e.MissingStats) == 0 && len(e.ShapeErrors) == 0
}

// Parse decodes and validates a session record document. It fails fast on
// unparseable JSON, missing required fields (all reported), wrong field
// shapes, and temporal inconsistency; it never fails on degenerate-but-valid
// sessions (zero shots, zero duration, no samples).
func Parse(data []byte) (*Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed session document: %w", err)
	}

	verr := &ValidationError{}
	for _, f := range requiredFields {
		if _, ok := raw[f]; !ok {
			verr.MissingFields = append(verr.MissingFields, f)
		}
	}

	// Shape checks on fields that are present.
	if ev, ok := raw["events"]; ok && !isArray(ev) {
		verr.ShapeErrors = append(verr.ShapeErrors, "field 'events' must be a list")
	}
	if bm, ok := raw["behavioral_metrics"]; ok && !isNull(bm) && !isArray(bm) {
		verr.ShapeErrors = append(verr.ShapeErrors, "field 'behavioral_metrics' must be a list")
	}
	if ps, ok := raw["player_stats"]; ok {
		var stats map[string]json.RawMessage
		if err := json.Unmarshal(ps, &stats); err != nil {
			verr.ShapeErrors = append(verr.ShapeErrors, "field 'player_stats' must be an object")
		} else {
			for _, s := range requiredStats {
				if _, ok := stats[s]; !ok {
					verr.MissingStats = append(verr.MissingStats, s)
				}
			}
		}
	}
	if !verr.empty() {
		return nil, verr
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("malformed session document: %w", err)
	}

	// Temporal inconsistency is corruption, not degeneracy.
	if end := rec.derivedEnd(); end < rec.StartTime {
		return nil, fmt.Errorf("invalid session %s: end time (%f) precedes start time (%f)",
			rec.SessionID, end, rec.StartTime)
	}
	if rec.PlayerStats.ShotsHit > rec.PlayerStats.ShotsFired {
		return nil, fmt.Errorf("invalid session %s: shots_hit (%d) exceeds shots_fired (%d)",
			rec.SessionID, rec.PlayerStats.ShotsHit, rec.PlayerStats.ShotsFired)
	}
	return &rec, nil
}

func isArray(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return strings.HasPrefix(s, "[")
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// Load reads and validates a session record from disk.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	rec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return rec, nil
}

// Save writes the record as indented JSON. After a successful save the
// record is considered frozen.
func (r *Record) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Filename returns the conventional on-disk name for this record.
func (r *Record) Filename() string {
	return "gameplay_data_" + r.SessionID + ".json"
}
