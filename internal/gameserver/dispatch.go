package gameserver

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fray/internal/game/ability"
	"github.com/cory-johannsen/fray/internal/game/command"
)

// Dispatcher turns a player's input line into a combat or session action.
type Dispatcher struct {
	commands   *command.Registry
	combat     *CombatHandler
	login      *LoginHandler
	abilities  *ability.Service
	abilityReg *ability.Registry
	notifier   *ConnNotifier
	logger     *zap.Logger
}

// NewDispatcher creates a Dispatcher.
//
// Precondition: every argument must be non-nil.
func NewDispatcher(commands *command.Registry, ch *CombatHandler, login *LoginHandler, abilities *ability.Service, abilityReg *ability.Registry, notifier *ConnNotifier, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		commands:   commands,
		combat:     ch,
		login:      login,
		abilities:  abilities,
		abilityReg: abilityReg,
		notifier:   notifier,
		logger:     logger,
	}
}

// Dispatch runs line for uid.
//
// Postcondition: returns true iff the command took effect. Unknown commands
// and missing arguments are answered with a chat line.
func (d *Dispatcher) Dispatch(uid, line string) bool {
	parsed := command.Parse(line)
	if parsed.Command == "" {
		return false
	}
	cmd, ok := d.commands.Resolve(parsed.Command)
	if !ok {
		d.notifier.Send(uid, fmt.Sprintf("Unknown command %q. Type help for a list.", parsed.Command))
		return false
	}
	if cmd.NeedsArg && parsed.RawArgs == "" {
		d.notifier.Send(uid, "Usage: "+cmd.Usage)
		return false
	}

	switch cmd.Handler {
	case command.HandlerAttack:
		return d.combat.Attack(uid, parsed.RawArgs)
	case command.HandlerFlee:
		return d.combat.Flee(uid)
	case command.HandlerBash:
		return d.combat.Bash(uid)
	case command.HandlerUse:
		return d.combat.Use(uid, parsed.RawArgs)
	case command.HandlerCooldowns:
		return d.cooldowns(uid)
	case command.HandlerPrompt:
		d.notifier.Prompt(uid)
		return true
	case command.HandlerHelp:
		for _, l := range d.commands.HelpLines() {
			d.notifier.Send(uid, l)
		}
		return true
	case command.HandlerQuit:
		d.notifier.Send(uid, "Farewell.")
		if err := d.login.Quit(uid); err != nil {
			d.logger.Warn("quit failed", zap.String("uid", uid), zap.Error(err))
			return false
		}
		return true
	default:
		d.logger.Error("command without a dispatcher case",
			zap.String("command", cmd.Name),
			zap.String("handler", cmd.Handler),
		)
		return false
	}
}

func (d *Dispatcher) cooldowns(uid string) bool {
	cds := d.abilities.Cooldowns(uid)
	if len(cds) == 0 {
		d.notifier.Send(uid, "All of your abilities are ready.")
		return true
	}
	for _, id := range cds {
		name := id
		if def, ok := d.abilityReg.Get(id); ok {
			name = def.Name
		}
		d.notifier.Send(uid, fmt.Sprintf("%s: %d ticks", name, d.abilities.Cooldown(uid, id)))
	}
	return true
}
