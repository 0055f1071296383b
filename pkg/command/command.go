// Package command implements the directive wire protocol between the
// AI co-player and the engine. The grammar is compatibility-critical:
// keyword spelling, field order and the #-prefix convention are part of
// the live AI contract and must not drift.
package command

// Type discriminates parsed directives.
type Type string

const (
	TypeNone               Type = "none"
	TypeCreatePeriod       Type = "create-period"
	TypeCreateStartBookend Type = "create-start-bookend"
	TypeCreateEndBookend   Type = "create-end-bookend"
	TypeCreateEvent        Type = "create-event"
	TypeCreateScene        Type = "create-scene"
	TypeAddPalette         Type = "add-palette"
	TypeEditName           Type = "edit-name"
	TypeEditDescription    Type = "edit-description"
	TypeEditTone           Type = "edit-tone"
)

// Placement positions a new period relative to the timeline.
type Placement struct {
	Type       string // "first", "after" or "before"
	RelativeTo string // period title, for after/before
}

// Command is one parsed directive. Which fields are meaningful depends
// on Type. Tone and Category are normalized to lowercase; titles,
// descriptions and items are preserved verbatim.
type Command struct {
	Type        Type
	Title       string     // period/event title
	Description string     // period/bookend description
	Tone        string     // "light" or "dark"
	Placement   *Placement // create-period only
	Parent      string     // period title (create-event), event title (create-scene)
	Question    string     // create-scene
	Category    string     // add-palette: "yes" or "no"
	Item        string     // add-palette item text
	Text        string     // edit-name / edit-description value

	// Raw is the normalized directive line that matched, used as the
	// dedupe key when a message is reparsed.
	Raw string
}

// None is the sentinel returned when no directive fired. Callers must
// branch on this, not on list length.
func None() Command {
	return Command{Type: TypeNone}
}

// IsNone reports whether the command is the no-directive sentinel.
func (c Command) IsNone() bool {
	return c.Type == TypeNone
}

// Result is the outcome of parsing one raw AI response.
type Result struct {
	// Commands is never empty: with no matching directive it holds the
	// single none sentinel.
	Commands []Command

	// Remaining is the narrative text left after directive lines are
	// removed, trimmed of leading and trailing blank lines.
	Remaining string
}

// HasCommands reports whether any real directive fired.
func (r Result) HasCommands() bool {
	for _, c := range r.Commands {
		if !c.IsNone() {
			return true
		}
	}
	return false
}
