package combat

import (
	"fmt"

	"go.uber.org/zap"
)

// resolveDeath distributes rewards for npc, killed by killerUID, and tears
// down every trace of it.
//
// Precondition: c.mu is held; npc is dead and still registered.
// Postcondition: the registry record is cleaned up exactly once; every
// session that fought npc no longer lists it, and sessions left without
// opponents are Ended.
func (c *Coordinator) resolveDeath(npc *NPCCombatant, killerUID string) {
	key := npc.Key()
	now := c.svc.Clock()

	participants := c.svc.Registry.Targeters(key)
	if !containsString(participants, killerUID) {
		participants = append(participants, killerUID)
	}

	var rewarded []Player
	for _, uid := range participants {
		if uid == killerUID {
			if p, ok := c.svc.Users.Player(uid); ok {
				rewarded = append(rewarded, p)
			}
			continue
		}
		if p, ok := c.targeterValid(uid, key.RoomID, now); ok {
			rewarded = append(rewarded, p)
		}
	}
	share := 0
	if len(rewarded) > 0 {
		share = npc.ExperienceValue() / len(rewarded)
	}
	for _, p := range rewarded {
		if share > 0 {
			p.AddExperience(share)
			c.svc.Notifier.Send(p.UID(), fmt.Sprintf("You receive %d experience.", share))
		}
	}
	for _, uid := range participants {
		c.svc.Combos.ClearTarget(uid, npc.ID())
	}

	c.svc.Notifier.Broadcast(key.RoomID, "", fmt.Sprintf("%s is dead!", npc.Name()))
	c.svc.World.RemoveNPC(key.RoomID, key.InstanceID)
	if !c.svc.Registry.CleanupDeadEntity(key.RoomID, key.InstanceID) {
		c.svc.Logger.Warn("dead entity already cleaned up", zap.String("entity", key.String()))
	}

	for _, d := range c.svc.Loot.Generate(npc.TemplateID(), npc.ID()) {
		c.svc.Loot.Place(key.RoomID, d)
		c.svc.Notifier.Broadcast(key.RoomID, "", fmt.Sprintf("%s drops %s.", npc.Name(), d.Name))
	}

	for _, s := range c.sessions {
		if s.removeOpponent(key) && len(s.opponents) == 0 {
			s.end("opponent died")
		}
	}
	for _, p := range rewarded {
		c.persist(p)
	}

	c.kills++
	c.svc.Metrics.IncKills()
	c.svc.Logger.Info("npc slain",
		zap.String("entity", key.String()),
		zap.String("killer", killerUID),
		zap.Int("participants", len(rewarded)),
		zap.Int("experience_share", share),
	)
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
