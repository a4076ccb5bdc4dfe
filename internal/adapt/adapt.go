// Package adapt maps a classified playstyle to the enemy-behavior directive
// the spawner consumes: counter-strategy text, ranked tuning recommendations,
// an enemy composition ratio, and a difficulty modifier.
package adapt

// EnemyRatio is the basic/sniper spawn composition. The two shares sum to 1.
type EnemyRatio struct {
	Basic  float64 `json:"basic"`
	Sniper float64 `json:"sniper"`
}

// Directive is the full adaptation plan for one playstyle.
type Directive struct {
	Strategy           string     `json:"strategy"`
	Recommendations    []string   `json:"recommendations"`
	EnemyTypeRatio     EnemyRatio `json:"enemy_type_ratio"`
	DifficultyModifier float64    `json:"difficulty_modifier"`
}

var directives = map[string]Directive{
	"aggressive": {
		Strategy: "Counter aggressive rushers with defensive tactics",
		Recommendations: []string{
			"Increase enemy spawn distance from player",
			"Deploy more sniper-type enemies",
			"Enemies should maintain distance and kite",
			"Use cover more effectively",
			"Implement retreat behavior when player gets close",
		},
		EnemyTypeRatio:     EnemyRatio{Basic: 0.3, Sniper: 0.7},
		DifficultyModifier: 1.2,
	},
	"defensive": {
		Strategy: "Force defensive players out of comfort zone",
		Recommendations: []string{
			"Increase pressure with more aggressive enemies",
			"Deploy rushing enemy types",
			"Use flanking maneuvers",
			"Flush player out of cover with area attacks",
			"Reduce enemy spawn distance",
		},
		EnemyTypeRatio:     EnemyRatio{Basic: 0.8, Sniper: 0.2},
		DifficultyModifier: 1.1,
	},
	"sniper": {
		Strategy: "Close distance and disrupt long-range advantage",
		Recommendations: []string{
			"Deploy fast-moving rush enemies",
			"Use unpredictable movement patterns",
			"Spawn enemies closer to player",
			"Increase enemy movement speed",
			"Add cover destruction mechanics",
		},
		EnemyTypeRatio:     EnemyRatio{Basic: 0.7, Sniper: 0.3},
		DifficultyModifier: 1.15,
	},
	"chaotic": {
		Strategy: "Provide more structured challenge to build skills",
		Recommendations: []string{
			"Reduce enemy count slightly",
			"Use more predictable enemy patterns",
			"Give player more time to react",
			"Increase ammo drops",
			"Balance enemy types evenly",
		},
		EnemyTypeRatio:     EnemyRatio{Basic: 0.5, Sniper: 0.5},
		DifficultyModifier: 0.9,
	},
}

// PlanFor returns the directive for a primary playstyle label. Unknown
// labels get the defensive plan, the safest counter when the classifier has
// nothing confident to say.
func PlanFor(label string) Directive {
	if d, ok := directives[label]; ok {
		return d
	}
	return directives["defensive"]
}

// Labels returns the playstyles with a dedicated directive.
func Labels() []string {
	return []string{"aggressive", "defensive", "sniper", "chaotic"}
}
