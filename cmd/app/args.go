package main

import (
	"strings"

	"github.com/urfave/cli/v2"
)

// reorderArgs moves flags written after positional arguments in front of them, so
// `ytduration <url> -d 10 -s links.txt` parses like `ytduration -d 10 -s links.txt <url>`.
// The same is done for the arguments of a subcommand.
func reorderArgs(args []string, app *cli.App) []string {
	if len(args) < 2 {
		return args
	}

	flags, positional, cmd, rest := splitArgs(args[1:], app.Flags, app.Commands)

	out := append([]string{args[0]}, flags...)
	out = append(out, positional...)
	if cmd == nil {
		return out
	}

	cmdFlags, cmdPositional, _, _ := splitArgs(rest, cmd.Flags, nil)

	out = append(out, cmd.Name)
	out = append(out, cmdFlags...)

	return append(out, cmdPositional...)
}

// splitArgs separates flags (with their values) from positional arguments. It stops at the
// first positional naming a command and returns the arguments left for it.
func splitArgs(tokens []string, defs []cli.Flag, commands []*cli.Command) (flags, positional []string, cmd *cli.Command, rest []string) {
	withValue := valueFlags(defs)

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		switch {
		case tok == "--":
			positional = append([]string{"--"}, append(positional, tokens[i+1:]...)...)
			return flags, positional, nil, nil
		case len(tok) > 1 && strings.HasPrefix(tok, "-"):
			flags = append(flags, tok)

			name := strings.TrimLeft(tok, "-")
			if _, ok := withValue[name]; ok && !strings.Contains(name, "=") && i+1 < len(tokens) {
				i++
				flags = append(flags, tokens[i])
			}
		default:
			if len(positional) == 0 {
				if c := findCommand(commands, tok); c != nil {
					return flags, positional, c, tokens[i+1:]
				}
			}
			positional = append(positional, tok)
		}
	}

	return flags, positional, nil, nil
}

func valueFlags(defs []cli.Flag) map[string]struct{} {
	names := make(map[string]struct{})
	for _, f := range defs {
		if _, ok := f.(*cli.BoolFlag); ok {
			continue
		}
		for _, name := range f.Names() {
			names[name] = struct{}{}
		}
	}

	return names
}

func findCommand(commands []*cli.Command, name string) *cli.Command {
	for _, c := range commands {
		if c.HasName(name) {
			return c
		}
	}

	return nil
}
