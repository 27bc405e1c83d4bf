package gameserver

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fray/internal/game/combat"
	"github.com/cory-johannsen/fray/internal/game/session"
)

// ConnNotifier implements combat.Notifier by pushing lines into each
// player's newest valid connection.
type ConnNotifier struct {
	sessions *session.Manager
	logger   *zap.Logger
}

// NewConnNotifier creates a ConnNotifier.
//
// Precondition: sessions and logger must be non-nil.
func NewConnNotifier(sessions *session.Manager, logger *zap.Logger) *ConnNotifier {
	return &ConnNotifier{sessions: sessions, logger: logger}
}

var _ combat.Notifier = (*ConnNotifier)(nil)

// Send delivers line to uid. Lines for players without a valid connection
// are dropped.
func (n *ConnNotifier) Send(uid, line string) {
	conn, ok := n.sessions.LatestValid(uid)
	if !ok {
		return
	}
	if err := conn.Push(line); err != nil {
		n.logger.Debug("dropping line", zap.String("uid", uid), zap.Error(err))
	}
}

// Broadcast delivers line to every player in roomID except exceptUID.
func (n *ConnNotifier) Broadcast(roomID, exceptUID, line string) {
	for _, uid := range n.sessions.PlayerUIDsInRoom(roomID) {
		if uid != exceptUID {
			n.Send(uid, line)
		}
	}
}

// Prompt sends uid's status prompt, e.g. "<45/60hp 10/20mana>".
func (n *ConnNotifier) Prompt(uid string) {
	p, ok := n.sessions.GetPlayer(uid)
	if !ok {
		return
	}
	n.Send(uid, RenderPrompt(p))
}

// RenderPrompt formats p's health and resource pools.
func RenderPrompt(p *session.PlayerSession) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<%d/%dhp", p.Health(), p.MaxHealth())
	for _, name := range p.ResourceNames() {
		pool, _ := p.Resource(name)
		fmt.Fprintf(&b, " %d/%d%s", pool.Current, pool.Max, name)
	}
	if p.InCombat() {
		b.WriteString(" [fighting]")
	}
	b.WriteString(">")
	return b.String()
}
