// Package command parses player input lines and resolves them against the
// combat command table.
package command

// Categories for organizing commands in help output.
const (
	CategoryCombat = "combat"
	CategoryStatus = "status"
	CategorySystem = "system"
)

// Handler identifiers the game server dispatches on.
const (
	HandlerAttack    = "attack"
	HandlerFlee      = "flee"
	HandlerBash      = "bash"
	HandlerUse       = "use"
	HandlerCooldowns = "cooldowns"
	HandlerPrompt    = "prompt"
	HandlerHelp      = "help"
	HandlerQuit      = "quit"
)

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name    string
	Aliases []string
	// Usage is shown when the command is invoked without a required argument.
	Usage string
	Help  string
	// Category groups the command in help output.
	Category string
	Handler  string
	// NeedsArg marks commands that take a target or ability name.
	NeedsArg bool
}

// BuiltinCommands returns every command the game server understands.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "attack", Aliases: []string{"kill", "k", "hit"}, Usage: "attack <target>", Help: "Start fighting an NPC, or switch to a new target", Category: CategoryCombat, Handler: HandlerAttack, NeedsArg: true},
		{Name: "flee", Aliases: []string{"run"}, Help: "Try to break away from combat", Category: CategoryCombat, Handler: HandlerFlee},
		{Name: "bash", Aliases: []string{"ba"}, Help: "Wind up a heavy attack: double cost, double damage, no crits", Category: CategoryCombat, Handler: HandlerBash},
		{Name: "use", Aliases: []string{"cast", "c"}, Usage: "use <ability>", Help: "Replace your next swing with an ability", Category: CategoryCombat, Handler: HandlerUse, NeedsArg: true},
		{Name: "cooldowns", Aliases: []string{"cd"}, Help: "Show abilities that are not ready yet", Category: CategoryStatus, Handler: HandlerCooldowns},
		{Name: "prompt", Aliases: []string{"score", "sc"}, Help: "Show your health and resources", Category: CategoryStatus, Handler: HandlerPrompt},
		{Name: "help", Aliases: []string{"?"}, Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit"}, Help: "Leave the game; any fight ends immediately", Category: CategorySystem, Handler: HandlerQuit},
	}
}
