package combat

// Formula bounds, in percent.
const (
	MinHitChance   = 25
	MaxHitChance   = 95
	MinDodgeChance = 0
	MaxDodgeChance = 50
	MinCritChance  = 5
	MaxCritChance  = 40
)

// armorTypeDR is the default reduction for an armor piece with no explicit value.
var armorTypeDR = map[string]int{
	"cloth":   1,
	"leather": 2,
	"hide":    3,
	"chain":   4,
	"scale":   5,
	"plate":   6,
	"shield":  2,
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// floorDiv divides rounding toward negative infinity so negative stats
// floor the same way positive ones do.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// HitChance returns the attacker's percent chance to hit.
//
// Postcondition: MinHitChance <= result <= MaxHitChance.
func HitChance(attackerDex, attackerLevel, targetLevel, targetDodge int) int {
	v := 75 + floorDiv(attackerDex, 5) + 2*(attackerLevel-targetLevel) - targetDodge
	return clamp(v, MinHitChance, MaxHitChance)
}

// DodgeChance returns the defender's percent chance to dodge a landed attack.
//
// Postcondition: MinDodgeChance <= result <= MaxDodgeChance.
func DodgeChance(agi, racialBonus, classBonus int) int {
	v := 5 + floorDiv(agi, 5) + racialBonus + classBonus
	return clamp(v, MinDodgeChance, MaxDodgeChance)
}

// CritChance returns the attacker's percent chance to crit.
// Intelligence contributes only to spells.
//
// Postcondition: MinCritChance <= result <= MaxCritChance.
func CritChance(dex, intel int, spell bool, racialCritBonus int) int {
	v := 5 + floorDiv(dex, 10) + racialCritBonus
	if spell {
		v += floorDiv(intel, 20)
	}
	return clamp(v, MinCritChance, MaxCritChance)
}

// ArmorTypeDR returns the default reduction for armorType, or 0 when unknown.
func ArmorTypeDR(armorType string) int {
	return armorTypeDR[armorType]
}

// DamageReduction sums each piece's explicit DR, falling back to its armor
// type default, plus bonus.
//
// Postcondition: result >= 0.
func DamageReduction(armor []ArmorPiece, bonus int) int {
	total := bonus
	for _, a := range armor {
		if a.DR > 0 {
			total += a.DR
			continue
		}
		total += ArmorTypeDR(a.ArmorType)
	}
	if total < 0 {
		return 0
	}
	return total
}

// PhysicalDamage rolls a weapon hit: roll + STR/5, doubled for a bash,
// x1.5 on crit, minus dr.
//
// Postcondition: result >= 1.
func PhysicalDamage(r Roller, str, minDmg, maxDmg, dr int, crit, bash bool) int {
	return physicalFromRoll(r.Between(minDmg, maxDmg), str, dr, crit, bash)
}

func physicalFromRoll(roll, str, dr int, crit, bash bool) int {
	dmg := roll + floorDiv(str, 5)
	if bash {
		dmg *= 2
	}
	if crit {
		dmg = dmg * 3 / 2
	}
	dmg -= dr
	if dmg < 1 {
		return 1
	}
	return dmg
}

// SpellDamage rolls a spell hit: roll + INT/4 + WIS/8, x1.5 on crit.
// Spells ignore damage reduction.
//
// Postcondition: result >= 1.
func SpellDamage(r Roller, intel, wis, minDmg, maxDmg int, crit bool) int {
	return spellFromRoll(r.Between(minDmg, maxDmg), intel, wis, crit)
}

func spellFromRoll(roll, intel, wis int, crit bool) int {
	dmg := roll + floorDiv(intel, 4) + floorDiv(wis, 8)
	if crit {
		dmg = dmg * 3 / 2
	}
	if dmg < 1 {
		return 1
	}
	return dmg
}

// AttackResult classifies a resolved attack.
type AttackResult int

const (
	Miss AttackResult = iota
	Dodged
	Hit
	CritHit
)

// String returns the metrics label for the result.
func (a AttackResult) String() string {
	switch a {
	case Miss:
		return "miss"
	case Dodged:
		return "dodge"
	case Hit:
		return "hit"
	case CritHit:
		return "crit"
	default:
		return "unknown"
	}
}

// Landed reports whether the attack dealt damage.
func (a AttackResult) Landed() bool { return a == Hit || a == CritHit }

// AttackInput is every number ResolveAttack needs.
type AttackInput struct {
	AttackerLevel     int
	AttackerStats     Stats
	AttackerCritBonus int
	TargetLevel       int
	// TargetDodge is the target's dodge chance in percent.
	TargetDodge int
	TargetDR    int
	MinDamage   int
	MaxDamage   int
	Spell       bool
	Bash        bool
}

// AttackOutcome is the result of ResolveAttack.
type AttackOutcome struct {
	Result     AttackResult
	Damage     int
	HitChance  int
	CritChance int
}

// ResolveAttack rolls hit, then dodge, then crit, then damage. A miss or a
// dodge stops resolution with zero damage. A bash never crits.
//
// Postcondition: Damage >= 1 iff Result.Landed().
func ResolveAttack(r Roller, in AttackInput) AttackOutcome {
	out := AttackOutcome{
		HitChance: HitChance(in.AttackerStats.Dex, in.AttackerLevel, in.TargetLevel, in.TargetDodge),
	}
	if !r.Percent(out.HitChance) {
		out.Result = Miss
		return out
	}
	if r.Percent(in.TargetDodge) {
		out.Result = Dodged
		return out
	}
	crit := false
	if !in.Bash {
		out.CritChance = CritChance(in.AttackerStats.Dex, in.AttackerStats.Int, in.Spell, in.AttackerCritBonus)
		crit = r.Percent(out.CritChance)
	}
	if in.Spell {
		out.Damage = SpellDamage(r, in.AttackerStats.Int, in.AttackerStats.Wis, in.MinDamage, in.MaxDamage, crit)
	} else {
		out.Damage = PhysicalDamage(r, in.AttackerStats.Str, in.MinDamage, in.MaxDamage, in.TargetDR, crit, in.Bash)
	}
	out.Result = Hit
	if crit {
		out.Result = CritHit
	}
	return out
}
