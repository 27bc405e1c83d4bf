package combat

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

const unarmedWeaponID = "unarmed"

// resolveRound runs one round for s.
//
// Precondition: c.mu is held; s.state != Ended.
// Postcondition: s.state == Ended or s has at least one opponent.
func (c *Coordinator) resolveRound(s *Session, now time.Time) {
	if !c.checkConnection(s, now) {
		return
	}
	p := s.player
	if p == nil {
		s.end("player record missing")
		return
	}
	if p.Health() <= 0 {
		s.end("player dead")
		return
	}
	roomID := p.RoomID()
	if roomID == "" || !c.svc.World.RoomExists(roomID) {
		s.end("room missing")
		return
	}
	c.pruneOpponents(s, roomID)
	if len(s.opponents) == 0 {
		s.end("no opponents")
		return
	}

	s.round++
	var shares []int
	if s.state == Active {
		shares = SplitAttacks(c.roundAttacks(s), c.livingOpponents(s))
	}
	ability := true
	struck := 0
	for _, key := range s.Opponents() {
		if s.state == Ended {
			break
		}
		npc, ok := c.svc.Registry.Lookup(key)
		if !ok || !npc.IsAlive() {
			// killed by another session since the last check
			c.dropOpponent(s, key)
			continue
		}
		if s.state == Active && struck < len(shares) {
			swings := shares[struck]
			struck++
			died := c.playerAttack(s, npc, swings, ability)
			ability = false
			if died {
				continue
			}
		}
		if s.state == Fleeing && !npc.IsHostile() {
			c.dropOpponent(s, key)
			continue
		}
		if npc.IsPassive() {
			continue
		}
		c.counterattack(npc, now)
	}

	for _, key := range s.Opponents() {
		if npc, ok := c.svc.Registry.Lookup(key); !ok || !npc.IsAlive() {
			s.removeOpponent(key)
		}
	}
	s.heavy = false
	s.lastActivity = now
	if len(s.opponents) == 0 {
		s.end("no opponents")
	}
}

// checkConnection applies the connection validity rule. While a transfer
// is pending, or for GraceWindow after the connection went invalid, the
// round is skipped but the session survives.
//
// Postcondition: returns true iff the round may proceed; s is Ended once the
// transfer deadline or grace window is exhausted.
func (c *Coordinator) checkConnection(s *Session, now time.Time) bool {
	if s.conn != nil && s.conn.Valid() {
		s.invalidSince = time.Time{}
		s.transfer.Settle()
		return true
	}
	if s.transfer.Pending(now) {
		return false
	}
	if s.transfer.Expired(now) {
		c.svc.Metrics.IncTransfer("expired")
		s.end("transfer expired")
		return false
	}
	if s.invalidSince.IsZero() {
		s.invalidSince = now
	}
	if now.Sub(s.invalidSince) >= c.cfg.GraceWindow {
		s.end("disconnected")
	}
	return false
}

// pruneOpponents drops opponents that are no longer registered in roomID.
func (c *Coordinator) pruneOpponents(s *Session, roomID string) {
	for _, key := range s.Opponents() {
		if key.RoomID != roomID {
			c.dropOpponent(s, key)
			continue
		}
		if _, ok := c.svc.World.NPC(roomID, key.InstanceID); !ok {
			c.dropOpponent(s, key)
			c.svc.Registry.ReleaseIfUntargeted(key)
			continue
		}
		if _, ok := c.svc.Registry.Lookup(key); !ok {
			c.dropOpponent(s, key)
		}
	}
}

func (c *Coordinator) dropOpponent(s *Session, key EntityKey) {
	s.removeOpponent(key)
	c.svc.Registry.RemoveTargeter(key, s.uid)
}

// livingOpponents counts s's opponents whose records are still alive.
func (c *Coordinator) livingOpponents(s *Session) int {
	n := 0
	for _, key := range s.opponents {
		if npc, ok := c.svc.Registry.Lookup(key); ok && npc.IsAlive() {
			n++
		}
	}
	return n
}

// wielded returns p's weapon with the unarmed defaults filled in.
func (c *Coordinator) wielded(p Player) Weapon {
	w := p.Weapon()
	if w.ID == "" {
		w.ID = unarmedWeaponID
	}
	if w.Name == "" {
		w.Name = "fists"
	}
	if w.EnergyCost <= 0 {
		w.EnergyCost = c.cfg.DefaultWeaponCost
	}
	return w
}

// roundAttacks spends the round's energy on the wielded weapon and returns
// how many attacks it buys.
func (c *Coordinator) roundAttacks(s *Session) int {
	p := s.player
	w := c.wielded(p)
	s.energy.SetHeavy(w.ID, s.heavy)
	base := BaseEnergy(p.Level(), p.Stats().Agi, c.cfg.LevelMultiplier, p.HasteBonus())
	attacks, leftover := s.energy.CalculateAttacks(w.ID, base, w.EnergyCost)
	s.energy.SetHeavy(w.ID, false)
	c.svc.Logger.Debug("player round",
		zap.String("uid", s.uid),
		zap.String("weapon", w.ID),
		zap.Int("attacks", attacks),
		zap.Int("leftover", leftover),
		zap.Bool("heavy", s.heavy),
	)
	return attacks
}

// SplitAttacks deals a round's attacks across n opponents in list order.
// Every opponent gets at least one; earlier opponents take the remainder.
//
// Postcondition: len(result) == n; shares differ by at most one.
func SplitAttacks(attacks, n int) []int {
	if n <= 0 {
		return nil
	}
	shares := make([]int, n)
	for i := range shares {
		shares[i] = attacks / n
		if i < attacks%n {
			shares[i]++
		}
		shares[i] = max(shares[i], 1)
	}
	return shares
}

// playerAttack makes swings attacks against npc. When ability is set a
// queued ability replaces the first swing. A weapon that breaks mid-round
// is swapped for whatever the player wields afterwards.
//
// Postcondition: returns true iff npc died.
func (c *Coordinator) playerAttack(s *Session, npc *NPCCombatant, swings int, ability bool) bool {
	p := s.player
	c.svc.Registry.TrackTargeter(npc.Key(), s.uid)
	w := c.wielded(p)
	for i := 0; i < swings; i++ {
		if i == 0 && ability {
			if used, died := c.tryAbility(s, npc); used {
				if died {
					return true
				}
				continue
			}
		}
		out := ResolveAttack(c.svc.Roller, AttackInput{
			AttackerLevel:     p.Level(),
			AttackerStats:     p.Stats(),
			AttackerCritBonus: p.CritBonus(),
			TargetLevel:       npc.Level(),
			TargetDodge:       DodgeChance(npc.Stats().Agi, npc.DodgeBonus(), 0),
			TargetDR:          npc.DamageReduction(),
			MinDamage:         w.MinDamage,
			MaxDamage:         w.MaxDamage,
			Bash:              s.heavy,
		})
		died, broke := c.applyPlayerHit(s, npc, out, w.Name, &w)
		if died {
			return true
		}
		if broke {
			w = c.wielded(p)
		}
	}
	return false
}

// tryAbility executes uid's queued ability against npc. A failed resource
// check notifies the player and leaves the swing to the weapon.
func (c *Coordinator) tryAbility(s *Session, npc *NPCCombatant) (used, died bool) {
	use, ok := c.svc.Abilities.Queued(s.uid)
	if !ok {
		return false, false
	}
	points := 0
	if use.Kind == AbilityFinisher {
		combo := c.svc.Combos.Get(s.uid)
		if combo.Target != npc.ID() || combo.Points == 0 {
			c.svc.Notifier.Send(s.uid, fmt.Sprintf("You have no combo built against %s; you attack normally.", npc.Name()))
			return false, false
		}
	}
	if !c.svc.Abilities.Consume(s.uid, use.ID) {
		c.svc.Notifier.Send(s.uid, fmt.Sprintf("You lack the %s to use %s; you attack normally.", use.Resource, use.Name))
		return false, false
	}
	if use.Kind == AbilityFinisher {
		points = c.svc.Combos.Spend(s.uid, npc.ID())
	}

	p := s.player
	in := AttackInput{
		AttackerLevel:     p.Level(),
		AttackerStats:     p.Stats(),
		AttackerCritBonus: p.CritBonus(),
		TargetLevel:       npc.Level(),
		TargetDodge:       DodgeChance(npc.Stats().Agi, npc.DodgeBonus(), 0),
		TargetDR:          npc.DamageReduction(),
		MinDamage:         use.MinDamage,
		MaxDamage:         use.MaxDamage,
		Spell:             use.Kind == AbilitySpell,
	}
	out := ResolveAttack(c.svc.Roller, in)
	if points > 0 && out.Result.Landed() {
		out.Damage *= points
	}
	died, _ = c.applyPlayerHit(s, npc, out, use.Name, nil)
	return true, died
}

// applyPlayerHit applies one resolved player attack. weapon is non-nil for
// weapon swings, which build combo points, trigger procs and wear the weapon.
//
// Postcondition: died is true iff npc died, and death resolution has run;
// broke is true iff the weapon broke on this hit.
func (c *Coordinator) applyPlayerHit(s *Session, npc *NPCCombatant, out AttackOutcome, label string, weapon *Weapon) (died, broke bool) {
	key := npc.Key()
	p := s.player
	c.svc.Metrics.IncAttack(out.Result.String())

	switch out.Result {
	case Miss:
		c.svc.Registry.RecordAggression(key, s.uid)
		c.svc.Notifier.Send(s.uid, fmt.Sprintf("Your %s misses %s.", label, npc.Name()))
		return false, false
	case Dodged:
		c.svc.Registry.RecordAggression(key, s.uid)
		c.svc.Notifier.Send(s.uid, fmt.Sprintf("%s dodges your %s.", npc.Name(), label))
		return false, false
	}

	dmg := out.Damage
	if weapon != nil {
		dmg += c.svc.Abilities.Proc(s.uid, *weapon, npc.Name())
		c.svc.Combos.AddPoint(s.uid, npc.ID())
		var name string
		if name, broke = c.svc.Loot.WearWeapon(s.uid); broke {
			c.svc.Notifier.Send(s.uid, fmt.Sprintf("Your %s breaks!", name))
		}
	}
	applied, died := c.svc.Registry.ApplyDamage(key, s.uid, dmg)
	c.svc.World.SetNPCHealth(key.RoomID, key.InstanceID, npc.Health())

	verb := "hits"
	if out.Result == CritHit {
		verb = "critically strikes"
	}
	c.svc.Notifier.Send(s.uid, fmt.Sprintf("Your %s %s %s for %d damage.", label, verb, npc.Name(), applied))
	c.svc.Notifier.Broadcast(key.RoomID, s.uid, fmt.Sprintf("%s %s %s.", p.Name(), verb, npc.Name()))

	if died {
		c.resolveDeath(npc, s.uid)
	}
	return died, broke
}

// counterattack lets npc strike one random valid targeter, at most once per tick.
func (c *Coordinator) counterattack(npc *NPCCombatant, now time.Time) {
	key := npc.Key()
	if c.svc.Registry.HasAttackedThisTick(key) {
		return
	}
	victimUID, victim, ok := c.pickVictim(key, now)
	if !ok {
		return
	}
	if !c.svc.Registry.MarkAttacked(key) {
		return
	}

	out := ResolveAttack(c.svc.Roller, AttackInput{
		AttackerLevel:     npc.Level(),
		AttackerStats:     npc.Stats(),
		AttackerCritBonus: npc.CritBonus(),
		TargetLevel:       victim.Level(),
		TargetDodge:       DodgeChance(victim.Stats().Agi, victim.DodgeBonus(), 0),
		TargetDR:          DamageReduction(victim.Armor(), victim.DRBonus()),
		MinDamage:         npc.minDamage,
		MaxDamage:         npc.maxDamage,
	})
	c.svc.Metrics.IncAttack(out.Result.String())

	switch out.Result {
	case Miss:
		c.svc.Notifier.Send(victimUID, fmt.Sprintf("%s misses you.", npc.Name()))
		return
	case Dodged:
		c.svc.Notifier.Send(victimUID, fmt.Sprintf("You dodge %s's attack.", npc.Name()))
		return
	}

	applied := NewPlayerCombatant(victim).TakeDamage(out.Damage)
	if name, broke := c.svc.Loot.WearArmor(victimUID); broke {
		c.svc.Notifier.Send(victimUID, fmt.Sprintf("Your %s breaks!", name))
	}
	c.svc.Notifier.Send(victimUID, fmt.Sprintf("%s hits you for %d damage.", npc.Name(), applied))
	c.svc.Notifier.Broadcast(key.RoomID, victimUID, fmt.Sprintf("%s hits %s.", npc.Name(), victim.Name()))
	c.svc.Notifier.Prompt(victimUID)

	if victim.Health() <= 0 {
		c.playerDeath(victimUID, victim, npc)
	}
}

// pickVictim draws uniformly from key's valid targeters, pruning invalid ones.
func (c *Coordinator) pickVictim(key EntityKey, now time.Time) (string, Player, bool) {
	type candidate struct {
		uid string
		p   Player
	}
	var valid []candidate
	for _, uid := range c.svc.Registry.Targeters(key) {
		p, ok := c.targeterValid(uid, key.RoomID, now)
		if !ok {
			c.svc.Registry.RemoveTargeter(key, uid)
			continue
		}
		valid = append(valid, candidate{uid: uid, p: p})
	}
	if len(valid) == 0 {
		return "", nil, false
	}
	pick := valid[c.svc.Roller.Intn(len(valid))]
	return pick.uid, pick.p, true
}

// targeterValid reports whether uid is alive, in roomID, and reachable.
// A player mid-transfer counts as reachable.
func (c *Coordinator) targeterValid(uid, roomID string, now time.Time) (Player, bool) {
	p, ok := c.svc.Users.Player(uid)
	if !ok || p.Health() <= 0 || p.RoomID() != roomID {
		return nil, false
	}
	if LatestValidConn(c.svc.Users.Connections(uid)) != nil {
		return p, true
	}
	if s, ok := c.sessions[uid]; ok && s.transfer.Pending(now) {
		return p, true
	}
	return nil, false
}

// playerDeath handles a player killed by npc.
func (c *Coordinator) playerDeath(uid string, p Player, npc *NPCCombatant) {
	c.svc.Notifier.Send(uid, fmt.Sprintf("You have been slain by %s!", npc.Name()))
	c.svc.Notifier.Broadcast(p.RoomID(), uid, fmt.Sprintf("%s has been slain by %s!", p.Name(), npc.Name()))
	c.svc.Metrics.IncPlayerDeaths()
	c.svc.Logger.Info("player slain",
		zap.String("uid", uid),
		zap.String("killer", npc.Key().String()),
	)
	c.svc.Registry.RemoveTargeterEverywhere(uid)
	c.svc.Combos.Clear(uid)
	if s, ok := c.sessions[uid]; ok {
		s.end("player died")
	} else {
		p.SetInCombat(false)
	}
	c.svc.Users.Revive(uid)
	c.persist(p)
}
