package gameserver

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/fray/internal/game/inventory"
	"github.com/cory-johannsen/fray/internal/game/session"
)

// Outfitter equips a new character's starting kit.
type Outfitter struct {
	items  *inventory.Registry
	gen    *inventory.Generator
	logger *zap.Logger
}

// NewOutfitter creates an Outfitter.
//
// Precondition: every argument must be non-nil.
func NewOutfitter(items *inventory.Registry, gen *inventory.Generator, logger *zap.Logger) *Outfitter {
	return &Outfitter{items: items, gen: gen, logger: logger}
}

// Outfit wields or wears every item of kit on p, in order. A later weapon,
// or later armor for the same slot, replaces the earlier one.
//
// Postcondition: returns how many items were equipped. Unknown items, junk
// and items at their creation limit are skipped and logged.
func (o *Outfitter) Outfit(p *session.PlayerSession, kit []string) int {
	equipped := 0
	for _, id := range kit {
		def, ok := o.items.Item(id)
		if !ok || def.Kind == inventory.KindJunk {
			o.logger.Warn("starting item cannot be equipped", zap.String("uid", p.UID), zap.String("item", id))
			continue
		}
		inst, ok := o.gen.Issue(id)
		if !ok {
			o.logger.Info("starting item at its limit", zap.String("uid", p.UID), zap.String("item", id))
			continue
		}
		var prev inventory.ItemInstance
		var replaced bool
		if def.Kind == inventory.KindWeapon {
			prev, replaced = p.Equipment.Wield(inst)
		} else {
			prev, replaced = p.Equipment.Wear(def.Armor.Slot, inst)
		}
		if replaced {
			o.gen.Release(prev.ItemDefID)
		}
		equipped++
	}
	return equipped
}
