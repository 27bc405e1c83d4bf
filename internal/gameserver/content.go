package gameserver

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fray/internal/config"
	"github.com/cory-johannsen/fray/internal/game/ability"
	"github.com/cory-johannsen/fray/internal/game/inventory"
	"github.com/cory-johannsen/fray/internal/game/npc"
	"github.com/cory-johannsen/fray/internal/game/ruleset"
	"github.com/cory-johannsen/fray/internal/game/world"
)

// Content is every static definition the server loads at startup.
type Content struct {
	World     *world.Manager
	Templates Templates
	// Spawns maps room ID to its resolved NPC spawn configs.
	Spawns    map[string][]npc.RoomSpawn
	Items     *inventory.Registry
	Abilities *ability.Registry
	Rules     *ruleset.Registry
}

// LoadContent reads zones, NPC templates, items, abilities, races and
// classes from the directories in cfg.
//
// Postcondition: returns an error naming the first file or reference that
// failed; every room spawn names a loaded template and every loot entry a
// loaded item.
func LoadContent(cfg config.ContentConfig, logger *zap.Logger) (*Content, error) {
	start := time.Now()

	zones, err := world.LoadZonesFromDir(cfg.ZonesDir)
	if err != nil {
		return nil, fmt.Errorf("loading zones: %w", err)
	}
	wm, err := world.NewManager(zones)
	if err != nil {
		return nil, fmt.Errorf("creating world manager: %w", err)
	}

	tmpls, err := npc.LoadTemplates(cfg.NPCsDir)
	if err != nil {
		return nil, fmt.Errorf("loading npc templates: %w", err)
	}
	templates := make(Templates, len(tmpls))
	for _, t := range tmpls {
		if _, dup := templates[t.ID]; dup {
			return nil, fmt.Errorf("duplicate npc template %q", t.ID)
		}
		templates[t.ID] = t
	}

	defs, err := inventory.LoadItems(cfg.ItemsDir)
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	items, err := inventory.NewRegistryFrom(defs)
	if err != nil {
		return nil, fmt.Errorf("registering items: %w", err)
	}
	for _, t := range tmpls {
		if t.Loot == nil {
			continue
		}
		for _, drop := range t.Loot.Items {
			if _, ok := items.Item(drop.ItemID); !ok {
				return nil, fmt.Errorf("npc template %q: loot references unknown item %q", t.ID, drop.ItemID)
			}
		}
	}

	spawns := make(map[string][]npc.RoomSpawn)
	for _, room := range wm.AllRooms() {
		for _, sc := range room.Spawns {
			if _, ok := templates[sc.Template]; !ok {
				return nil, fmt.Errorf("room %q: spawn references unknown npc template %q", room.ID, sc.Template)
			}
			spawns[room.ID] = append(spawns[room.ID], npc.RoomSpawn{
				TemplateID:   sc.Template,
				Max:          sc.Count,
				RespawnDelay: sc.RespawnAfter,
			})
		}
	}

	abilityDefs, err := ability.LoadDefs(cfg.AbilitiesDir)
	if err != nil {
		return nil, fmt.Errorf("loading abilities: %w", err)
	}
	abilities, err := ability.NewRegistry(abilityDefs)
	if err != nil {
		return nil, err
	}

	races, err := ruleset.LoadRaces(cfg.RacesDir)
	if err != nil {
		return nil, fmt.Errorf("loading races: %w", err)
	}
	classes, err := ruleset.LoadClasses(cfg.ClassesDir)
	if err != nil {
		return nil, fmt.Errorf("loading classes: %w", err)
	}

	logger.Info("content loaded",
		zap.Int("zones", wm.ZoneCount()),
		zap.Int("rooms", wm.RoomCount()),
		zap.Int("npc_templates", len(templates)),
		zap.Int("items", len(defs)),
		zap.Int("abilities", len(abilityDefs)),
		zap.Int("races", len(races)),
		zap.Int("classes", len(classes)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &Content{
		World:     wm,
		Templates: templates,
		Spawns:    spawns,
		Items:     items,
		Abilities: abilities,
		Rules:     ruleset.NewRegistry(races, classes),
	}, nil
}
