package gameserver

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cory-johannsen/fray/internal/config"
	"github.com/cory-johannsen/fray/internal/frontend/handlers"
	"github.com/cory-johannsen/fray/internal/frontend/telnet"
	"github.com/cory-johannsen/fray/internal/game/ability"
	"github.com/cory-johannsen/fray/internal/game/combat"
	"github.com/cory-johannsen/fray/internal/game/command"
	"github.com/cory-johannsen/fray/internal/game/dice"
	"github.com/cory-johannsen/fray/internal/game/inventory"
	"github.com/cory-johannsen/fray/internal/game/npc"
	"github.com/cory-johannsen/fray/internal/game/ruleset"
	"github.com/cory-johannsen/fray/internal/game/session"
	"github.com/cory-johannsen/fray/internal/game/world"
	"github.com/cory-johannsen/fray/internal/observability"
	"github.com/cory-johannsen/fray/internal/scripting"
	"github.com/cory-johannsen/fray/internal/storage/postgres"
)

// Clock is the time source shared by every service.
type Clock func() time.Time

// ProviderSet is every constructor the server injector draws from.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideClock,
	ProvideRoller,
	ProvideContent,
	ProvideWorld,
	ProvideItems,
	ProvideRules,
	ProvideAbilityRegistry,
	ProvideTemplates,
	ProvideRespawn,
	ProvideNPCManager,
	session.NewManager,
	inventory.NewFloorManager,
	ProvideLootGenerator,
	ProvideScripts,
	ProvidePool,
	ProvideStateStore,
	ProvidePersister,
	ProvideComboTracker,
	ProvideRegistry,
	ProvideWorldAdapter,
	ProvideUsersAdapter,
	ProvideLootAdapter,
	NewOutfitter,
	ProvideAbilityService,
	NewConnNotifier,
	ProvideCoordinator,
	ProvideTickManager,
	ProvideCombatHandler,
	ProvideLoginHandler,
	ProvideCommandRegistry,
	NewDispatcher,
	ProvideGameBridge,
	ProvideTelnet,
	ProvideAdminRouter,
	ProvideHealthService,
	wire.Struct(new(Server), "*"),
)

// ProvideLogger builds the zap logger from cfg.Logging.
func ProvideLogger(cfg config.Config) (*zap.Logger, error) {
	return observability.NewLogger(cfg.Logging)
}

// ProvideMetrics registers the combat collectors on reg.
func ProvideMetrics(reg *prometheus.Registry) *observability.Metrics {
	return observability.NewMetrics(reg)
}

// ProvideClock returns the wall clock.
func ProvideClock() Clock { return time.Now }

// ProvideRoller returns a logged roller over a crypto source.
func ProvideRoller(logger *zap.Logger) *dice.Roller {
	return dice.NewRoller(dice.CryptoSource{}, logger)
}

// ProvideContent loads every content directory named in cfg.
func ProvideContent(cfg config.Config, logger *zap.Logger) (*Content, error) {
	return LoadContent(cfg.Content, logger)
}

func ProvideWorld(c *Content) *world.Manager              { return c.World }
func ProvideItems(c *Content) *inventory.Registry         { return c.Items }
func ProvideRules(c *Content) *ruleset.Registry           { return c.Rules }
func ProvideAbilityRegistry(c *Content) *ability.Registry { return c.Abilities }
func ProvideTemplates(c *Content) Templates               { return c.Templates }

// ProvideRespawn builds the respawn manager from the rooms' spawn configs.
func ProvideRespawn(c *Content) *npc.RespawnManager {
	return npc.NewRespawnManager(c.Spawns, c.Templates)
}

// ProvideNPCManager creates the NPC manager and populates every room.
func ProvideNPCManager(c *Content, respawn *npc.RespawnManager, logger *zap.Logger) *npc.Manager {
	mgr := npc.NewManager()
	spawned := 0
	for _, room := range c.World.AllRooms() {
		spawned += len(respawn.PopulateRoom(room.ID, mgr))
	}
	logger.Info("initial NPC population complete", zap.Int("spawned", spawned))
	return mgr
}

// ProvideLootGenerator creates the loot generator with a time-seeded source.
func ProvideLootGenerator(items *inventory.Registry, clock Clock) *inventory.Generator {
	return inventory.NewGenerator(items, rand.New(rand.NewSource(clock().UnixNano())))
}

// ProvideScripts loads the weapon proc scripts. It returns a nil manager
// when cfg.Content.ScriptsDir is empty, which disables procs.
func ProvideScripts(cfg config.Config, roller *dice.Roller, logger *zap.Logger) (*scripting.Manager, func(), error) {
	if cfg.Content.ScriptsDir == "" {
		logger.Info("scripting disabled")
		return nil, func() {}, nil
	}
	mgr := scripting.NewManager(roller, logger)
	if err := mgr.Load(ability.ProcScriptKey, cfg.Content.ScriptsDir, 0); err != nil {
		mgr.Close()
		return nil, nil, err
	}
	return mgr, mgr.Close, nil
}

// ProvidePool connects to PostgreSQL when persistence is enabled. A disabled
// database yields a nil pool.
func ProvidePool(ctx context.Context, cfg config.Config, logger *zap.Logger) (*postgres.Pool, func(), error) {
	if !cfg.Database.Enabled {
		logger.Info("combat-state persistence disabled")
		return nil, func() {}, nil
	}
	start := time.Now()
	pool, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(start)),
	)
	return pool, pool.Close, nil
}

// ProvideStateStore returns the combat-state repository over pool, or a nil
// store when pool is nil.
func ProvideStateStore(pool *postgres.Pool) StateStore {
	if pool == nil {
		return nil
	}
	return postgres.NewCombatStateRepository(pool.DB())
}

// ProvidePersister wraps store in the background persistence worker.
func ProvidePersister(store StateStore, logger *zap.Logger, metrics *observability.Metrics) *StatePersister {
	return NewStatePersister(store, DefaultPersistQueue, logger, metrics)
}

// ProvideComboTracker bounds combo points by cfg.Combat.MaxComboPoints.
func ProvideComboTracker(cfg config.Config) *combat.ComboTracker {
	return combat.NewComboTracker(cfg.Combat.MaxComboPoints)
}

// ProvideRegistry creates the shared NPC combat registry.
func ProvideRegistry(w *WorldAdapter, logger *zap.Logger) *combat.Registry {
	return combat.NewRegistry(w, logger)
}

func ProvideWorldAdapter(w *world.Manager, npcs *npc.Manager, respawn *npc.RespawnManager, sessions *session.Manager, clock Clock) *WorldAdapter {
	return NewWorldAdapter(w, npcs, respawn, sessions, clock)
}

func ProvideUsersAdapter(sessions *session.Manager, rules *ruleset.Registry, items *inventory.Registry, w *world.Manager, persister *StatePersister) *UsersAdapter {
	return NewUsersAdapter(sessions, rules, items, w, persister)
}

func ProvideLootAdapter(gen *inventory.Generator, items *inventory.Registry, floor *inventory.FloorManager, templates Templates, sessions *session.Manager, roller *dice.Roller, clock Clock) *LootAdapter {
	return NewLootAdapter(gen, items, floor, templates, sessions, roller, clock)
}

// ProvideAbilityService wires ability payment to player sessions and weapon
// procs to the item registry's proc hook names.
func ProvideAbilityService(reg *ability.Registry, sessions *session.Manager, items *inventory.Registry, scripts *scripting.Manager, logger *zap.Logger) *ability.Service {
	players := func(uid string) (ability.Payer, bool) {
		p, ok := sessions.GetPlayer(uid)
		if !ok {
			return nil, false
		}
		return p, true
	}
	procs := func(weaponID string) string {
		def, ok := items.Item(weaponID)
		if !ok || def.Weapon == nil {
			return ""
		}
		return def.Weapon.Proc
	}
	return ability.NewService(reg, players, procs, scripts, logger)
}

// ProvideCoordinator builds the combat coordinator from cfg.Combat.
func ProvideCoordinator(
	cfg config.Config,
	registry *combat.Registry,
	combos *combat.ComboTracker,
	w *WorldAdapter,
	users *UsersAdapter,
	loot *LootAdapter,
	abilities *ability.Service,
	notifier *ConnNotifier,
	roller *dice.Roller,
	logger *zap.Logger,
	metrics *observability.Metrics,
	clock Clock,
) *combat.Coordinator {
	return combat.NewCoordinator(combat.Config{
		GraceWindow:       cfg.Combat.GraceWindow,
		TransferWindow:    cfg.Combat.TransferWindow,
		LevelMultiplier:   cfg.Combat.CombatLevelMultiplier,
		MaxAttacks:        cfg.Combat.MaxAttacksPerRound,
		DefaultWeaponCost: cfg.Combat.DefaultWeaponCost,
	}, combat.Services{
		Registry:  registry,
		Combos:    combos,
		World:     w,
		Users:     users,
		Loot:      loot,
		Abilities: abilities,
		Notifier:  notifier,
		Roller:    roller,
		Logger:    logger,
		Metrics:   metrics,
		Clock:     clock,
	})
}

func ProvideTickManager(cfg config.Config, coord *combat.Coordinator, npcs *npc.Manager, respawn *npc.RespawnManager, sessions *session.Manager, notifier *ConnNotifier, clock Clock, logger *zap.Logger) *TickManager {
	return NewTickManager(cfg.GameServer.TickInterval, coord, npcs, respawn, sessions, notifier, clock, logger)
}

func ProvideCombatHandler(cfg config.Config, coord *combat.Coordinator, abilities *ability.Service, reg *ability.Registry, npcs *npc.Manager, sessions *session.Manager, notifier *ConnNotifier, logger *zap.Logger) *CombatHandler {
	rc := RateConfig{PerSecond: cfg.Combat.CommandRate, Burst: cfg.Combat.CommandBurst}
	return NewCombatHandler(coord, abilities, reg, npcs, sessions, notifier, rc, logger)
}

func ProvideLoginHandler(sessions *session.Manager, coord *combat.Coordinator, combos *combat.ComboTracker, abilities *ability.Service, ch *CombatHandler, persister *StatePersister, outfit *Outfitter, clock Clock, logger *zap.Logger) *LoginHandler {
	return NewLoginHandler(sessions, coord, combos, abilities, ch, persister, outfit, clock, logger)
}

// ProvideAdminRouter builds the admin surface. The server is ready once the
// tick loop runs and, with persistence enabled, the database answers.
func ProvideAdminRouter(coord *combat.Coordinator, sessions *session.Manager, reg *prometheus.Registry, tick *TickManager, pool *postgres.Pool) http.Handler {
	ready := tick.Running
	if pool != nil {
		ready = func() bool {
			return tick.Running() && pool.Ping(context.Background(), time.Second) == nil
		}
	}
	return NewAdminRouter(AdminConfig{
		Coordinator: coord,
		Sessions:    sessions,
		Gatherer:    reg,
		Ready:       ready,
	})
}

func ProvideHealthService(cfg config.Config) *HealthService {
	return NewHealthService(cfg.GameServer.Addr())
}

// ProvideCommandRegistry builds the player command table.
func ProvideCommandRegistry() *command.Registry {
	return command.DefaultRegistry()
}

// ProvideGameBridge builds the Telnet session handler. New characters start
// in the world's start room.
func ProvideGameBridge(cfg config.Config, login *LoginHandler, d *Dispatcher, w *world.Manager, logger *zap.Logger) *handlers.GameBridge {
	var start string
	if r := w.StartRoom(); r != nil {
		start = r.ID
	}
	return handlers.NewGameBridge(login, d, cfg.Newcomer, start, cfg.Telnet.Color, logger)
}

// ProvideTelnet builds the player listener, or returns nil when Telnet is
// disabled.
func ProvideTelnet(cfg config.Config, bridge *handlers.GameBridge, logger *zap.Logger) *telnet.Acceptor {
	if !cfg.Telnet.Enabled {
		return nil
	}
	return telnet.NewAcceptor(cfg.Telnet, bridge, logger)
}
