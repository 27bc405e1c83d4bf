package handlers

import (
	"strings"

	"github.com/cory-johannsen/fray/internal/frontend/telnet"
)

// RenderLine styles one line of game output for a color terminal.
// Lines that match no rule are returned unchanged.
func RenderLine(line string) string {
	switch {
	case strings.HasPrefix(line, "<") && strings.HasSuffix(line, ">"):
		return telnet.Colorize(telnet.Cyan, line)
	case strings.HasSuffix(line, " is dead!"), strings.HasSuffix(line, " appears."):
		return telnet.Colorize(telnet.Bold+telnet.Yellow, line)
	case strings.Contains(line, " hits you for "), strings.HasPrefix(line, "You have been slain"):
		return telnet.Colorize(telnet.BrightRed, line)
	case strings.HasPrefix(line, "You receive "), strings.Contains(line, " drops "):
		return telnet.Colorize(telnet.Green, line)
	case strings.HasPrefix(line, "Slow down!"), strings.HasPrefix(line, "Unknown command"):
		return telnet.Colorize(telnet.Red, line)
	default:
		return line
	}
}
