package gameserver

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fray/internal/config"
	"github.com/cory-johannsen/fray/internal/frontend/telnet"
	"github.com/cory-johannsen/fray/internal/game/combat"
	"github.com/cory-johannsen/fray/internal/game/session"
	"github.com/cory-johannsen/fray/internal/scripting"
)

// Server is the fully wired game server.
type Server struct {
	Config      config.Config
	Logger      *zap.Logger
	Sessions    *session.Manager
	Coordinator *combat.Coordinator
	Tick        *TickManager
	Combat      *CombatHandler
	Login       *LoginHandler
	Commands    *Dispatcher
	Persister   *StatePersister
	// Scripts is nil when scripting is disabled.
	Scripts *scripting.Manager
	Admin   http.Handler
	Health  *HealthService
	// Telnet is nil when the player listener is disabled.
	Telnet *telnet.Acceptor
}
