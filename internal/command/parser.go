package command

import "strings"

// ParseResult holds the parsed command name and arguments from a text line.
type ParseResult struct {
	// Command is the first word of the input, lowercased, without the slash.
	Command string
	// Args are the remaining words after the command.
	Args []string
	// RawArgs is the raw text after the command (preserving spacing for msg).
	RawArgs string
}

// Parse splits a command line into a command and arguments. A leading
// "/" is optional.
//
// Postcondition: Returns a ParseResult. If line is empty, Command is empty.
func Parse(line string) ParseResult {
	line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "/"))
	if line == "" {
		return ParseResult{}
	}

	// Split at first space for the command word
	spaceIdx := strings.IndexByte(line, ' ')
	if spaceIdx < 0 {
		return ParseResult{
			Command: strings.ToLower(line),
		}
	}

	cmd := strings.ToLower(line[:spaceIdx])
	rest := line[spaceIdx+1:]
	rest = strings.TrimSpace(rest)

	var args []string
	if rest != "" {
		args = strings.Fields(rest)
	}

	return ParseResult{
		Command: cmd,
		Args:    args,
		RawArgs: rest,
	}
}

// SplitFirst cuts RawArgs into its first word and the remaining text.
//
// Postcondition: ok is false when either part is empty.
func (p ParseResult) SplitFirst() (first, rest string, ok bool) {
	first, rest, _ = strings.Cut(p.RawArgs, " ")
	rest = strings.TrimSpace(rest)
	return first, rest, first != "" && rest != ""
}
