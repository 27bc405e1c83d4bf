package inventory

import (
	"sort"
	"sync"
)

// ArmorSlot identifies a body-armor equipment slot.
type ArmorSlot string

const (
	SlotHead   ArmorSlot = "head"
	SlotBody   ArmorSlot = "body"
	SlotArms   ArmorSlot = "arms"
	SlotHands  ArmorSlot = "hands"
	SlotLegs   ArmorSlot = "legs"
	SlotFeet   ArmorSlot = "feet"
	SlotShield ArmorSlot = "shield"
)

var validArmorSlots = map[ArmorSlot]struct{}{
	SlotHead: {}, SlotBody: {}, SlotArms: {}, SlotHands: {},
	SlotLegs: {}, SlotFeet: {}, SlotShield: {},
}

// Valid reports whether s is a known slot.
func (s ArmorSlot) Valid() bool {
	_, ok := validArmorSlots[s]
	return ok
}

// ItemInstance is one concrete copy of an ItemDef.
type ItemInstance struct {
	InstanceID string
	ItemDefID  string
	// Durability is the remaining uses; meaningless for unbreakable items.
	Durability int
}

// NewInstance creates an instance of def at full durability.
func NewInstance(instanceID string, def *ItemDef) ItemInstance {
	return ItemInstance{InstanceID: instanceID, ItemDefID: def.ID, Durability: def.Durability}
}

// SlottedArmor pairs an equipped armor instance with its slot.
type SlottedArmor struct {
	Slot ArmorSlot
	Item ItemInstance
}

// WearResult describes one durability tick.
type WearResult struct {
	Item ItemInstance
	Name string
	// Broken is true when the item reached zero durability and was unequipped.
	Broken bool
}

// Equipment holds a character's wielded weapon and worn armor.
// All methods are safe for concurrent use.
type Equipment struct {
	mu     sync.Mutex
	weapon *ItemInstance
	armor  map[ArmorSlot]*ItemInstance
}

// NewEquipment returns an empty Equipment.
func NewEquipment() *Equipment {
	return &Equipment{armor: make(map[ArmorSlot]*ItemInstance)}
}

// Wield sets the weapon and returns the previously wielded one, if any.
func (e *Equipment) Wield(inst ItemInstance) (ItemInstance, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.weapon
	e.weapon = &inst
	if prev == nil {
		return ItemInstance{}, false
	}
	return *prev, true
}

// Wear puts inst in slot and returns the piece it replaced, if any.
func (e *Equipment) Wear(slot ArmorSlot, inst ItemInstance) (ItemInstance, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.armor[slot]
	e.armor[slot] = &inst
	if prev == nil {
		return ItemInstance{}, false
	}
	return *prev, true
}

// Weapon returns the wielded weapon.
func (e *Equipment) Weapon() (ItemInstance, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.weapon == nil {
		return ItemInstance{}, false
	}
	return *e.weapon, true
}

// Armor returns every worn piece sorted by slot.
func (e *Equipment) Armor() []SlottedArmor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.armorLocked()
}

func (e *Equipment) armorLocked() []SlottedArmor {
	out := make([]SlottedArmor, 0, len(e.armor))
	for slot, inst := range e.armor {
		out = append(out, SlottedArmor{Slot: slot, Item: *inst})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

// WearWeapon spends one point of the wielded weapon's durability.
//
// Postcondition: returns false when nothing is wielded or the weapon is
// unbreakable; a weapon reaching zero is unequipped and reported Broken.
func (e *Equipment) WearWeapon(reg *Registry) (WearResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.weapon == nil {
		return WearResult{}, false
	}
	res, ok := wear(reg, e.weapon)
	if ok && res.Broken {
		e.weapon = nil
	}
	return res, ok
}

// WearArmor spends one point of durability on the armor piece at index
// pick(n) of the slot-sorted worn list.
//
// Precondition: pick returns a value in [0, n).
func (e *Equipment) WearArmor(reg *Registry, pick func(n int) int) (WearResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	worn := e.armorLocked()
	if len(worn) == 0 {
		return WearResult{}, false
	}
	slot := worn[pick(len(worn))].Slot
	res, ok := wear(reg, e.armor[slot])
	if ok && res.Broken {
		delete(e.armor, slot)
	}
	return res, ok
}

func wear(reg *Registry, inst *ItemInstance) (WearResult, bool) {
	def, ok := reg.Item(inst.ItemDefID)
	if !ok || def.Durability == 0 {
		return WearResult{}, false
	}
	inst.Durability--
	return WearResult{Item: *inst, Name: def.Name, Broken: inst.Durability <= 0}, true
}
