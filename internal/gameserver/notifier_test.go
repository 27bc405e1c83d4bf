package gameserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/fray/internal/game/session"
)

func TestRenderPrompt(t *testing.T) {
	p := session.NewPlayerSession(heroSpec("u1", "square"))
	assert.Equal(t, "<40/40hp 20/20mana 10/10stamina>", RenderPrompt(p))

	p.SetHealth(12)
	p.SetInCombat(true)
	require.True(t, p.SpendResource("stamina", 4))
	assert.Equal(t, "<12/40hp 20/20mana 6/10stamina [fighting]>", RenderPrompt(p))
}

func TestConnNotifier_SendBroadcastPrompt(t *testing.T) {
	sessions := session.NewManager()
	n := NewConnNotifier(sessions, zaptest.NewLogger(t))
	require.NoError(t, sessions.AddPlayer(session.NewPlayerSession(heroSpec("u1", "square"))))
	require.NoError(t, sessions.AddPlayer(session.NewPlayerSession(heroSpec("u2", "square"))))
	require.NoError(t, sessions.AddPlayer(session.NewPlayerSession(heroSpec("u3", "cellar"))))
	c1, err := sessions.Attach("u1", epoch)
	require.NoError(t, err)
	c2, err := sessions.Attach("u2", epoch)
	require.NoError(t, err)
	c3, err := sessions.Attach("u3", epoch)
	require.NoError(t, err)

	n.Broadcast("square", "u1", "Hero-u1 waves.")
	assert.Empty(t, drain(c1))
	assert.Equal(t, []string{"Hero-u1 waves."}, drain(c2))
	assert.Empty(t, drain(c3))

	n.Prompt("u3")
	assert.Equal(t, []string{"<40/40hp 20/20mana 10/10stamina>"}, drain(c3))

	// Lines for a disconnected player are dropped, not queued.
	sessions.Detach("u2", c2.ID())
	n.Send("u2", "lost")
	n.Send("ghost", "lost")
	n.Prompt("ghost")
}

func TestConnNotifier_FullBufferDoesNotBlock(t *testing.T) {
	sessions := session.NewManager()
	n := NewConnNotifier(sessions, zaptest.NewLogger(t))
	require.NoError(t, sessions.AddPlayer(session.NewPlayerSession(heroSpec("u1", "square"))))
	c, err := sessions.Attach("u1", epoch)
	require.NoError(t, err)

	for i := 0; i < session.DefaultBufferSize+10; i++ {
		n.Send("u1", "spam")
	}
	assert.Len(t, drain(c), session.DefaultBufferSize)
}
