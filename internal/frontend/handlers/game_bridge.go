// Package handlers runs the Telnet side of a player's session: naming the
// character, logging it in, and shuttling lines between the socket and the
// game server.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fray/internal/config"
	"github.com/cory-johannsen/fray/internal/frontend/telnet"
	"github.com/cory-johannsen/fray/internal/game/combat"
	"github.com/cory-johannsen/fray/internal/game/session"
)

// MaxNameAttempts is how many invalid names a client may offer before being
// disconnected.
const MaxNameAttempts = 3

var validName = regexp.MustCompile(`^[A-Za-z]{3,16}$`)

// ErrNoName is returned when a client never offers a valid name.
var ErrNoName = errors.New("no valid character name given")

// Login attaches and detaches player connections.
type Login interface {
	Login(ctx context.Context, spec session.PlayerSpec) (*session.Conn, combat.ReconnectResult, error)
	Disconnect(uid, connID string) bool
}

// Commands runs one line of player input.
type Commands interface {
	Dispatch(uid, line string) bool
}

// GameBridge is the telnet.SessionHandler that plays one character per client.
type GameBridge struct {
	login     Login
	commands  Commands
	newcomer  config.NewcomerConfig
	startRoom string
	color     bool
	logger    *zap.Logger
}

// NewGameBridge creates a GameBridge. New characters are built from newcomer
// and placed in startRoom.
//
// Precondition: login, commands and logger must be non-nil; startRoom must exist.
func NewGameBridge(login Login, commands Commands, newcomer config.NewcomerConfig, startRoom string, color bool, logger *zap.Logger) *GameBridge {
	return &GameBridge{
		login:     login,
		commands:  commands,
		newcomer:  newcomer,
		startRoom: startRoom,
		color:     color,
		logger:    logger,
	}
}

// HandleSession asks for a name, logs the character in, then forwards game
// output to conn while dispatching every input line.
//
// Postcondition: returns nil when the player quits; otherwise the read or
// login error. A fight in progress outlives a dropped connection until the
// grace window expires.
func (b *GameBridge) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	name, err := b.askName(conn)
	if err != nil {
		return err
	}
	spec := b.Spec(name)
	sc, res, err := b.login.Login(ctx, spec)
	if err != nil {
		_ = conn.WriteLine("The world refuses you. Try again later.")
		return fmt.Errorf("logging in %s: %w", spec.UID, err)
	}
	b.logger.Info("telnet player joined",
		zap.String("uid", spec.UID),
		zap.String("remote_addr", conn.RemoteAddr().String()),
		zap.Int("reconnect", int(res)),
	)
	switch res {
	case combat.ReconnectResumed:
		_ = conn.WriteLine("You take control of your fight again.")
	case combat.ReconnectNone:
		_ = conn.WriteLine(fmt.Sprintf("Welcome, %s. Type help for a list of commands.", spec.Name))
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.forward(sc, conn)
	}()

	err = b.commandLoop(ctx, conn, spec.UID, sc)
	if err != nil {
		b.login.Disconnect(spec.UID, sc.ID())
	}
	wg.Wait()
	return err
}

// Spec builds the character a client named name plays. The lowercased name
// is the player's UID, so reconnecting under the same name resumes the
// same character.
func (b *GameBridge) Spec(name string) session.PlayerSpec {
	n := b.newcomer
	pools := make(map[string]int, len(n.Pools))
	for k, v := range n.Pools {
		pools[k] = v
	}
	return session.PlayerSpec{
		UID:    strings.ToLower(name),
		Name:   strings.ToUpper(name[:1]) + strings.ToLower(name[1:]),
		Race:   n.Race,
		Class:  n.Class,
		RoomID: b.startRoom,
		Level:  n.Level,
		Stats:  session.Stats{Str: n.Str, Dex: n.Dex, Agi: n.Agi, Int: n.Int, Wis: n.Wis},
		HP:     n.MaxHP,
		MaxHP:  n.MaxHP,
		Pools:  pools,
		Kit:    slices.Clone(n.Equipment),
	}
}

func (b *GameBridge) askName(conn *telnet.Conn) (string, error) {
	if err := conn.WriteLine("Welcome to Fray."); err != nil {
		return "", err
	}
	for i := 0; i < MaxNameAttempts; i++ {
		if err := conn.WritePrompt("By what name are you known? "); err != nil {
			return "", err
		}
		line, err := conn.ReadLine()
		if err != nil {
			return "", fmt.Errorf("reading name: %w", err)
		}
		name := strings.TrimSpace(line)
		if validName.MatchString(name) {
			return name, nil
		}
		_ = conn.WriteLine("Names are 3 to 16 letters.")
	}
	_ = conn.WriteLine("Goodbye.")
	return "", ErrNoName
}

// commandLoop dispatches input until the player quits or the client goes away.
func (b *GameBridge) commandLoop(ctx context.Context, conn *telnet.Conn, uid string, sc *session.Conn) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := conn.ReadLine()
		if sc.IsClosed() {
			// quit, or another login took the character over
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.commands.Dispatch(uid, line)
		if sc.IsClosed() {
			return nil
		}
	}
}

// forward writes game output to conn until the session connection closes,
// then hangs up the client.
func (b *GameBridge) forward(sc *session.Conn, conn *telnet.Conn) {
	defer conn.Close()
	for line := range sc.Events() {
		if b.color {
			line = RenderLine(line)
		}
		if err := conn.WriteLine(line); err != nil {
			b.logger.Debug("telnet write failed", zap.String("uid", sc.UID()), zap.Error(err))
		}
	}
}
