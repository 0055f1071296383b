package command

import (
	"strings"
	"testing"
)

func TestParse_EmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n", " \t \n "} {
		res := Parse(text)
		if len(res.Commands) != 1 || !res.Commands[0].IsNone() {
			t.Errorf("Parse(%q) commands = %v, want single none sentinel", text, res.Commands)
		}
		if res.Remaining != "" {
			t.Errorf("Parse(%q) remaining = %q, want empty", text, res.Remaining)
		}
		if res.HasCommands() {
			t.Errorf("Parse(%q) HasCommands() = true, want false", text)
		}
	}
}

func TestParse_LegacyFirstLine(t *testing.T) {
	text := "create period: The Golden Age (light)\nA time of plenty begins."
	res := Parse(text)

	if len(res.Commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(res.Commands))
	}
	cmd := res.Commands[0]
	if cmd.Type != TypeCreatePeriod {
		t.Errorf("type = %s, want %s", cmd.Type, TypeCreatePeriod)
	}
	if cmd.Title != "The Golden Age" {
		t.Errorf("title = %q", cmd.Title)
	}
	if cmd.Tone != "light" {
		t.Errorf("tone = %q", cmd.Tone)
	}
	if res.Remaining != "A time of plenty begins." {
		t.Errorf("remaining = %q", res.Remaining)
	}
}

func TestParse_LegacyMiss_EntireTextIsNarrative(t *testing.T) {
	text := "What a fascinating idea!\ncreate period: Not Parsed (light)"
	res := Parse(text)

	if res.HasCommands() {
		t.Fatalf("expected no commands, got %v", res.Commands)
	}
	// A legacy miss returns the original text untouched, directive-looking
	// later lines included.
	if res.Remaining != text {
		t.Errorf("remaining = %q, want full original text", res.Remaining)
	}
}

func TestParse_HashMode_MultipleDirectives(t *testing.T) {
	text := strings.Join([]string{
		"Let me shape this era.",
		"# create period: The Collapse (dark) | Everything falls apart.",
		"",
		"# create event: The Last Broadcast (dark) in The Collapse",
		"The static fades to silence.",
	}, "\n")

	res := Parse(text)

	if len(res.Commands) != 2 {
		t.Fatalf("expected 2 commands, got %d: %v", len(res.Commands), res.Commands)
	}
	if res.Commands[0].Type != TypeCreatePeriod || res.Commands[0].Title != "The Collapse" {
		t.Errorf("first command = %+v", res.Commands[0])
	}
	if res.Commands[0].Description != "Everything falls apart." {
		t.Errorf("description = %q", res.Commands[0].Description)
	}
	if res.Commands[1].Type != TypeCreateEvent || res.Commands[1].Parent != "The Collapse" {
		t.Errorf("second command = %+v", res.Commands[1])
	}

	want := "Let me shape this era.\n\nThe static fades to silence."
	if res.Remaining != want {
		t.Errorf("remaining = %q, want %q", res.Remaining, want)
	}
}

func TestParse_HashMode_MalformedHashLineDropped(t *testing.T) {
	text := strings.Join([]string{
		"# create period: Broken Period",
		"Some narrative.",
	}, "\n")

	res := Parse(text)

	// The malformed directive (no tone) is dropped entirely, not
	// restored to narrative.
	if res.HasCommands() {
		t.Fatalf("expected no commands, got %v", res.Commands)
	}
	if res.Remaining != "Some narrative." {
		t.Errorf("remaining = %q", res.Remaining)
	}
}

func TestParse_HashMode_IndentedHashLine(t *testing.T) {
	res := Parse("   # create period: Indented Era (dark)")
	if len(res.Commands) != 1 || res.Commands[0].Type != TypeCreatePeriod {
		t.Fatalf("commands = %v", res.Commands)
	}
	if res.Commands[0].Title != "Indented Era" {
		t.Errorf("title = %q", res.Commands[0].Title)
	}
}

func TestParse_NarrativeBlankLineTrimming(t *testing.T) {
	text := "\n\n# create period: Era (light)\n\nFirst paragraph.\n\nSecond paragraph.\n\n"
	res := Parse(text)

	want := "First paragraph.\n\nSecond paragraph."
	if res.Remaining != want {
		t.Errorf("remaining = %q, want %q", res.Remaining, want)
	}
}

func TestParse_InteriorBlankLinesSurviveDirectiveRemoval(t *testing.T) {
	// A directive flanked by blank lines leaves both blanks behind:
	// only the directive line itself is removed.
	text := "A quiet opening.\n\n# create period: The Thaw (light)\n\nThe ice gives way."
	res := Parse(text)

	want := "A quiet opening.\n\n\nThe ice gives way."
	if res.Remaining != want {
		t.Errorf("remaining = %q, want %q", res.Remaining, want)
	}
}

func TestParseDirective_CreatePeriodPlacement(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		ok         bool
		placement  string
		relativeTo string
	}{
		{"no placement", "create period: Era (light)", true, "", ""},
		{"first", "create period: Era (light) first", true, "first", ""},
		{"after", "create period: Era (light) after The Fall", true, "after", "The Fall"},
		{"before", "create period: Era (dark) before The Fall", true, "before", "The Fall"},
		{"case-insensitive keyword", "CREATE PERIOD: Era (Light) AFTER The Fall", true, "after", "The Fall"},
		{"garbage tail", "create period: Era (light) sideways The Fall", false, "", ""},
		{"empty after target", "create period: Era (light) after ", false, "", ""},
		{"missing tone", "create period: Era", false, "", ""},
		{"empty title", "create period: (light)", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, ok := parseDirective(tt.line)
			if ok != tt.ok {
				t.Fatalf("parseDirective(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			}
			if !ok {
				return
			}
			if tt.placement == "" {
				if cmd.Placement != nil {
					t.Errorf("placement = %+v, want nil", cmd.Placement)
				}
				return
			}
			if cmd.Placement == nil || cmd.Placement.Type != tt.placement || cmd.Placement.RelativeTo != tt.relativeTo {
				t.Errorf("placement = %+v, want {%s %s}", cmd.Placement, tt.placement, tt.relativeTo)
			}
		})
	}
}

func TestParseDirective_Bookends(t *testing.T) {
	cmd, ok := parseDirective("create start bookend: The Founding (light) | Where it all began.")
	if !ok {
		t.Fatal("expected start bookend to parse")
	}
	if cmd.Type != TypeCreateStartBookend || cmd.Title != "The Founding" || cmd.Description != "Where it all began." {
		t.Errorf("command = %+v", cmd)
	}

	cmd, ok = parseDirective("create end bookend: The Silence (dark)")
	if !ok {
		t.Fatal("expected end bookend to parse")
	}
	if cmd.Type != TypeCreateEndBookend || cmd.Tone != "dark" {
		t.Errorf("command = %+v", cmd)
	}

	// Bookends take no placement tail.
	if _, ok := parseDirective("create start bookend: The Founding (light) first"); ok {
		t.Error("bookend with placement tail should not parse")
	}
}

func TestParseDirective_CreateScene(t *testing.T) {
	tests := []struct {
		line     string
		ok       bool
		question string
		parent   string
	}{
		{"create scene: Why did she leave? in The Last Broadcast", true, "Why did she leave?", "The Last Broadcast"},
		// " in " inside the question: the last occurrence separates.
		{"create scene: What changed in the city? in The Quiet Years", true, "What changed in the city?", "The Quiet Years"},
		{"create scene: No parent here", false, "", ""},
		{"create scene:  in The Event", false, "", ""},
	}

	for _, tt := range tests {
		cmd, ok := parseDirective(tt.line)
		if ok != tt.ok {
			t.Errorf("parseDirective(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if cmd.Question != tt.question || cmd.Parent != tt.parent {
			t.Errorf("parseDirective(%q) = {question %q, parent %q}, want {%q, %q}",
				tt.line, cmd.Question, cmd.Parent, tt.question, tt.parent)
		}
	}
}

func TestParseDirective_Palette(t *testing.T) {
	cmd, ok := parseDirective("add to palette yes: Hidden libraries")
	if !ok || cmd.Type != TypeAddPalette || cmd.Category != "yes" || cmd.Item != "Hidden libraries" {
		t.Errorf("command = %+v, ok = %v", cmd, ok)
	}

	cmd, ok = parseDirective("ADD TO PALETTE NO: Time travel")
	if !ok || cmd.Category != "no" || cmd.Item != "Time travel" {
		t.Errorf("command = %+v, ok = %v", cmd, ok)
	}

	if _, ok := parseDirective("add to palette yes:"); ok {
		t.Error("empty palette item should not parse")
	}
	if _, ok := parseDirective("add to palette maybe: Ghosts"); ok {
		t.Error("unknown palette category should not parse")
	}
}

func TestParseDirective_Edits(t *testing.T) {
	cmd, ok := parseDirective("edit name: The Long Thaw")
	if !ok || cmd.Type != TypeEditName || cmd.Text != "The Long Thaw" {
		t.Errorf("command = %+v, ok = %v", cmd, ok)
	}

	cmd, ok = parseDirective("edit description: Ice gives way to rivers.")
	if !ok || cmd.Type != TypeEditDescription || cmd.Text != "Ice gives way to rivers." {
		t.Errorf("command = %+v, ok = %v", cmd, ok)
	}

	cmd, ok = parseDirective("edit tone: DARK")
	if !ok || cmd.Type != TypeEditTone || cmd.Tone != "dark" {
		t.Errorf("command = %+v, ok = %v", cmd, ok)
	}

	if _, ok := parseDirective("edit tone: gloomy"); ok {
		t.Error("invalid tone should not parse")
	}
	if _, ok := parseDirective("edit name:"); ok {
		t.Error("empty edit text should not parse")
	}
}

func TestParse_UnicodeTitles(t *testing.T) {
	res := Parse("# create period: Великая Тишина (dark) | Эпоха молчания.")
	if len(res.Commands) != 1 {
		t.Fatalf("commands = %v", res.Commands)
	}
	cmd := res.Commands[0]
	if cmd.Title != "Великая Тишина" || cmd.Description != "Эпоха молчания." {
		t.Errorf("command = %+v", cmd)
	}
}

func TestSplitTone_FirstOccurrenceWins(t *testing.T) {
	title, tone, rest, ok := splitTone("The (light) Age (dark)")
	if !ok {
		t.Fatal("expected split")
	}
	if title != "The" || tone != "light" || rest != "Age (dark)" {
		t.Errorf("splitTone = (%q, %q, %q)", title, tone, rest)
	}

	if _, _, _, ok := splitTone("(light) leading tone"); ok {
		t.Error("empty title before tone should not split")
	}
	if _, _, _, ok := splitTone("no tone at all"); ok {
		t.Error("missing tone should not split")
	}
}

func TestParse_RawIsDedupeKey(t *testing.T) {
	res := Parse("# create period: Era (light)\n#   create period: Era (light)")
	if len(res.Commands) != 2 {
		t.Fatalf("commands = %v", res.Commands)
	}
	if res.Commands[0].Raw != "create period: Era (light)" {
		t.Errorf("raw = %q", res.Commands[0].Raw)
	}
	if res.Commands[0].Raw != res.Commands[1].Raw {
		t.Errorf("identical directives should share a raw key: %q vs %q",
			res.Commands[0].Raw, res.Commands[1].Raw)
	}
}
