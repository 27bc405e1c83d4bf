package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestParse_Empty(t *testing.T) {
	assert.Equal(t, ParseResult{}, Parse(""))
	assert.Equal(t, ParseResult{}, Parse("   "))
}

func TestParse_SingleWord(t *testing.T) {
	result := Parse("FLEE")
	assert.Equal(t, "flee", result.Command)
	assert.Nil(t, result.Args)
	assert.Equal(t, "", result.RawArgs)
}

func TestParse_MultiWordTarget(t *testing.T) {
	result := Parse("  kill   Dock  Rat ")
	assert.Equal(t, "kill", result.Command)
	assert.Equal(t, []string{"Dock", "Rat"}, result.Args)
	assert.Equal(t, "Dock  Rat", result.RawArgs)
}

func TestPropertyParseLowercasesAndKeepsArgs(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		word := rapid.StringMatching(`[A-Za-z]{1,12}`).Draw(rt, "word")
		args := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,8}`), 0, 4).Draw(rt, "args")
		line := strings.Join(append([]string{word}, args...), " ")

		got := Parse(line)
		if got.Command != strings.ToLower(word) {
			rt.Fatalf("command %q, want %q", got.Command, strings.ToLower(word))
		}
		if len(got.Args) != len(args) {
			rt.Fatalf("args %v, want %v", got.Args, args)
		}
		if got.RawArgs != strings.Join(args, " ") {
			rt.Fatalf("raw %q", got.RawArgs)
		}
	})
}
