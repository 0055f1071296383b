package command

import (
	"strings"
)

// Parse extracts directives from a raw AI response.
//
// Two mutually exclusive modes:
//   - Hash mode, when at least one line begins with '#': only #-prefixed
//     lines are tested as directives (prefix stripped first); matching
//     lines become commands in textual order, non-matching # lines are
//     dropped, and every other line survives as narrative.
//   - Legacy mode, otherwise: only the first line is tested. A match
//     yields the sole command with the rest of the text as narrative; a
//     miss makes the entire text narrative.
//
// Whitespace rule for reconstructed narrative: lines are split on
// newlines, directive lines removed, survivors re-joined with single
// newlines, and the result trimmed of leading and trailing blank lines.
// Blank lines between surviving narrative lines are preserved.
func Parse(text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Commands: []Command{None()}}
	}

	lines := strings.Split(text, "\n")

	hashMode := false
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			hashMode = true
			break
		}
	}

	if !hashMode {
		first := strings.TrimSpace(lines[0])
		if cmd, ok := parseDirective(first); ok {
			return Result{
				Commands:  []Command{cmd},
				Remaining: joinNarrative(lines[1:]),
			}
		}
		return Result{Commands: []Command{None()}, Remaining: text}
	}

	commands := make([]Command, 0)
	narrative := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			directive := strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
			if cmd, ok := parseDirective(directive); ok {
				commands = append(commands, cmd)
			}
			// A # line that matches nothing was an attempted directive;
			// it is dropped, not restored to narrative.
			continue
		}
		narrative = append(narrative, line)
	}

	if len(commands) == 0 {
		commands = []Command{None()}
	}
	return Result{Commands: commands, Remaining: joinNarrative(narrative)}
}

func joinNarrative(lines []string) string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

// parseDirective tries each directive grammar in order. The input is a
// single line with any # prefix already stripped.
func parseDirective(line string) (Command, bool) {
	parsers := []func(string) (Command, bool){
		parseCreatePeriod,
		parseCreateBookend,
		parseCreateEvent,
		parseCreateScene,
		parseAddPalette,
		parseEdit,
	}
	for _, p := range parsers {
		if cmd, ok := p(line); ok {
			cmd.Raw = line
			return cmd, true
		}
	}
	return None(), false
}

// cutPrefixFold strips a case-insensitive prefix plus surrounding
// whitespace.
func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return strings.TrimSpace(s[len(prefix):]), true
	}
	return "", false
}

// splitTone finds the first "(light)" or "(dark)" token. Returns the
// verbatim text before it, the lowercased tone, and the text after it.
func splitTone(s string) (title, tone, rest string, ok bool) {
	lower := strings.ToLower(s)
	lightAt := strings.Index(lower, "(light)")
	darkAt := strings.Index(lower, "(dark)")

	at, width := -1, 0
	switch {
	case lightAt >= 0 && (darkAt < 0 || lightAt < darkAt):
		at, width, tone = lightAt, len("(light)"), "light"
	case darkAt >= 0:
		at, width, tone = darkAt, len("(dark)"), "dark"
	default:
		return "", "", "", false
	}

	title = strings.TrimSpace(s[:at])
	rest = strings.TrimSpace(s[at+width:])
	if title == "" {
		return "", "", "", false
	}
	return title, tone, rest, true
}

// create period: TITLE (light|dark) [first | after REF | before REF] | DESC
func parseCreatePeriod(line string) (Command, bool) {
	rest, ok := cutPrefixFold(line, "create period:")
	if !ok {
		return None(), false
	}

	head, desc, _ := strings.Cut(rest, "|")
	title, tone, tail, ok := splitTone(strings.TrimSpace(head))
	if !ok {
		return None(), false
	}

	var placement *Placement
	switch {
	case tail == "":
	case strings.EqualFold(tail, "first"):
		placement = &Placement{Type: "first"}
	case len(tail) > len("after ") && strings.EqualFold(tail[:len("after ")], "after "):
		ref := strings.TrimSpace(tail[len("after "):])
		if ref == "" {
			return None(), false
		}
		placement = &Placement{Type: "after", RelativeTo: ref}
	case len(tail) > len("before ") && strings.EqualFold(tail[:len("before ")], "before "):
		ref := strings.TrimSpace(tail[len("before "):])
		if ref == "" {
			return None(), false
		}
		placement = &Placement{Type: "before", RelativeTo: ref}
	default:
		return None(), false
	}

	return Command{
		Type:        TypeCreatePeriod,
		Title:       title,
		Tone:        tone,
		Description: strings.TrimSpace(desc),
		Placement:   placement,
	}, true
}

// create start|end bookend: TITLE (light|dark) | DESC
func parseCreateBookend(line string) (Command, bool) {
	for _, pos := range []struct {
		prefix string
		typ    Type
	}{
		{"create start bookend:", TypeCreateStartBookend},
		{"create end bookend:", TypeCreateEndBookend},
	} {
		rest, ok := cutPrefixFold(line, pos.prefix)
		if !ok {
			continue
		}
		head, desc, _ := strings.Cut(rest, "|")
		title, tone, tail, ok := splitTone(strings.TrimSpace(head))
		if !ok || tail != "" {
			return None(), false
		}
		return Command{
			Type:        pos.typ,
			Title:       title,
			Tone:        tone,
			Description: strings.TrimSpace(desc),
		}, true
	}
	return None(), false
}

// create event: TITLE (light|dark) in PERIOD_TITLE
func parseCreateEvent(line string) (Command, bool) {
	rest, ok := cutPrefixFold(line, "create event:")
	if !ok {
		return None(), false
	}
	title, tone, tail, ok := splitTone(rest)
	if !ok {
		return None(), false
	}
	if len(tail) <= len("in ") || !strings.EqualFold(tail[:len("in ")], "in ") {
		return None(), false
	}
	parent := strings.TrimSpace(tail[len("in "):])
	if parent == "" {
		return None(), false
	}
	return Command{
		Type:   TypeCreateEvent,
		Title:  title,
		Tone:   tone,
		Parent: parent,
	}, true
}

// create scene: QUESTION in EVENT_TITLE
// The question may itself contain " in "; the last occurrence is the
// separator.
func parseCreateScene(line string) (Command, bool) {
	rest, ok := cutPrefixFold(line, "create scene:")
	if !ok {
		return None(), false
	}
	at := strings.LastIndex(strings.ToLower(rest), " in ")
	if at < 0 {
		return None(), false
	}
	question := strings.TrimSpace(rest[:at])
	parent := strings.TrimSpace(rest[at+len(" in "):])
	if question == "" || parent == "" {
		return None(), false
	}
	return Command{
		Type:     TypeCreateScene,
		Question: question,
		Parent:   parent,
	}, true
}

// add to palette yes|no: ITEM
func parseAddPalette(line string) (Command, bool) {
	for _, cat := range []string{"yes", "no"} {
		rest, ok := cutPrefixFold(line, "add to palette "+cat+":")
		if !ok {
			continue
		}
		if rest == "" {
			return None(), false
		}
		return Command{
			Type:     TypeAddPalette,
			Category: cat,
			Item:     rest,
		}, true
	}
	return None(), false
}

// edit name|description: TEXT / edit tone: light|dark
func parseEdit(line string) (Command, bool) {
	if rest, ok := cutPrefixFold(line, "edit name:"); ok {
		if rest == "" {
			return None(), false
		}
		return Command{Type: TypeEditName, Text: rest}, true
	}
	if rest, ok := cutPrefixFold(line, "edit description:"); ok {
		if rest == "" {
			return None(), false
		}
		return Command{Type: TypeEditDescription, Text: rest}, true
	}
	if rest, ok := cutPrefixFold(line, "edit tone:"); ok {
		switch strings.ToLower(rest) {
		case "light", "dark":
			return Command{Type: TypeEditTone, Tone: strings.ToLower(rest)}, true
		}
		return None(), false
	}
	return None(), false
}
