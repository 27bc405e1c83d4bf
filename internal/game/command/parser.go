package command

import "strings"

// ParseResult holds the parsed command word and its arguments.
type ParseResult struct {
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining words after the command.
	Args []string
	// RawArgs is the text after the command with inner spacing kept, so
	// multi-word targets such as "dock rat" survive intact.
	RawArgs string
}

// Parse splits a text line into a command and arguments.
//
// Postcondition: an empty or all-space line yields an empty Command.
func Parse(line string) ParseResult {
	line = strings.TrimSpace(line)
	if line == "" {
		return ParseResult{}
	}
	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	res := ParseResult{Command: strings.ToLower(word), RawArgs: rest}
	if rest != "" {
		res.Args = strings.Fields(rest)
	}
	return res
}
