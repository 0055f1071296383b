package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jwebster45206/timeline-engine/pkg/command"
)

// validate parses an AI response transcript and reports what the
// directive pipeline would do with it: which lines become directives,
// which hash lines are dropped as malformed, and what narrative
// survives. Useful when tuning the system prompt.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <transcript.txt>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file %s: %v\n", filename, err)
		os.Exit(1)
	}

	v := &TranscriptValidator{}
	ok := v.validate(string(data))
	v.report()
	if !ok {
		os.Exit(1)
	}
}

type TranscriptValidator struct {
	commands  []command.Command
	dropped   []string
	narrative string
}

func (v *TranscriptValidator) validate(text string) bool {
	res := command.Parse(text)
	for _, cmd := range res.Commands {
		if !cmd.IsNone() {
			v.commands = append(v.commands, cmd)
		}
	}
	v.narrative = res.Remaining

	// Hash lines the parser silently discards are the usual sign of a
	// malformed directive in the transcript.
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		directive := strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
		if !v.wasParsed(directive) {
			v.dropped = append(v.dropped, trimmed)
		}
	}

	return len(v.dropped) == 0
}

func (v *TranscriptValidator) wasParsed(line string) bool {
	for _, cmd := range v.commands {
		if cmd.Raw == line {
			return true
		}
	}
	return false
}

func (v *TranscriptValidator) report() {
	if len(v.commands) == 0 {
		fmt.Println("No directives found.")
	} else {
		fmt.Printf("Parsed %d directive(s):\n", len(v.commands))
		for _, cmd := range v.commands {
			fmt.Printf("  %-22s %s\n", cmd.Type, describe(cmd))
		}
	}

	if len(v.dropped) > 0 {
		fmt.Printf("\nDropped %d malformed hash line(s):\n", len(v.dropped))
		for _, line := range v.dropped {
			fmt.Printf("  %s\n", line)
		}
	}

	if strings.TrimSpace(v.narrative) == "" {
		fmt.Println("\nNo surviving narrative.")
	} else {
		fmt.Printf("\nNarrative:\n%s\n", v.narrative)
	}
}

func describe(cmd command.Command) string {
	var parts []string
	if cmd.Title != "" {
		parts = append(parts, fmt.Sprintf("title=%q", cmd.Title))
	}
	if cmd.Question != "" {
		parts = append(parts, fmt.Sprintf("question=%q", cmd.Question))
	}
	if cmd.Parent != "" {
		parts = append(parts, fmt.Sprintf("parent=%q", cmd.Parent))
	}
	if cmd.Tone != "" {
		parts = append(parts, fmt.Sprintf("tone=%s", cmd.Tone))
	}
	if cmd.Placement != nil {
		if cmd.Placement.RelativeTo != "" {
			parts = append(parts, fmt.Sprintf("placement=%s %q", cmd.Placement.Type, cmd.Placement.RelativeTo))
		} else {
			parts = append(parts, fmt.Sprintf("placement=%s", cmd.Placement.Type))
		}
	}
	if cmd.Category != "" {
		parts = append(parts, fmt.Sprintf("category=%s item=%q", cmd.Category, cmd.Item))
	}
	if cmd.Text != "" {
		parts = append(parts, fmt.Sprintf("text=%q", cmd.Text))
	}
	return strings.Join(parts, " ")
}
