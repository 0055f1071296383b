package timeline

import (
	"strings"

	"github.com/google/uuid"
)

// Tone is the binary light/dark classification attached to every
// timeline entity.
type Tone string

const (
	ToneLight Tone = "light"
	ToneDark  Tone = "dark"
)

// ParseTone normalizes a tone string. Returns false for anything
// other than light/dark.
func ParseTone(s string) (Tone, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return ToneLight, true
	case "dark":
		return ToneDark, true
	default:
		return "", false
	}
}

// Kind identifies the three nested granularities of the timeline.
type Kind string

const (
	KindPeriod Kind = "period"
	KindEvent  Kind = "event"
	KindScene  Kind = "scene"
)

// EntityRef identifies one timeline entity of any kind.
type EntityRef struct {
	Kind Kind      `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

// BookendPosition distinguishes the designated first and last periods.
type BookendPosition string

const (
	BookendStart BookendPosition = "start"
	BookendEnd   BookendPosition = "end"
)

// Period is a top-level timeline span.
type Period struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Tone           Tone      `json:"tone"`
	Order          int       `json:"order"`
	IsBookend      bool      `json:"is_bookend,omitempty"`
	Frozen         bool      `json:"frozen"`
	CreatedBy      string    `json:"created_by,omitempty"`
	ConversationID uuid.UUID `json:"conversation_id"`
}

// Event is a happening within a period.
type Event struct {
	ID             uuid.UUID `json:"id"`
	PeriodID       uuid.UUID `json:"period_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Tone           Tone      `json:"tone"`
	Order          int       `json:"order"`
	Frozen         bool      `json:"frozen"`
	CreatedBy      string    `json:"created_by,omitempty"`
	ConversationID uuid.UUID `json:"conversation_id"`
}

// Scene is a played-out question within an event. Scenes carry a
// question and an eventual answer instead of a description.
type Scene struct {
	ID             uuid.UUID `json:"id"`
	EventID        uuid.UUID `json:"event_id"`
	Question       string    `json:"question"`
	Answer         string    `json:"answer,omitempty"`
	Tone           Tone      `json:"tone"`
	Order          int       `json:"order"`
	Frozen         bool      `json:"frozen"`
	CreatedBy      string    `json:"created_by,omitempty"`
	ConversationID uuid.UUID `json:"conversation_id"`
}

// PaletteItem is a "yes" (wanted) or "no" (unwanted) thematic element
// guiding the collaboration.
type PaletteItem struct {
	ID        uuid.UUID `json:"id"`
	Category  string    `json:"category"` // "yes" or "no"
	Text      string    `json:"text"`
	CreatedBy string    `json:"created_by,omitempty"`
}

// Bookends tracks which periods anchor the start and end of history.
type Bookends struct {
	Start *uuid.UUID `json:"start,omitempty"`
	End   *uuid.UUID `json:"end,omitempty"`
}

// Setup holds the pre-game framing of the story.
type Setup struct {
	BigPicture string        `json:"big_picture,omitempty"`
	Bookends   Bookends      `json:"bookends"`
	Palette    []PaletteItem `json:"palette,omitempty"`
}

// Player is a participant in the game, human or AI.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	IsAI bool   `json:"is_ai,omitempty"`
}

// Phase is the game lifecycle stage.
type Phase string

const (
	PhaseSetup        Phase = "setup"
	PhaseInitialRound Phase = "initial_round"
	PhasePlaying      Phase = "playing"
)

// PlacementType positions a new period relative to the existing timeline.
type PlacementType string

const (
	PlacementFirst  PlacementType = "first"
	PlacementAfter  PlacementType = "after"
	PlacementBefore PlacementType = "before"
)

// Placement describes where a new period lands. RelativeTo is a period
// title, resolved at insertion time.
type Placement struct {
	Type       PlacementType `json:"type"`
	RelativeTo string        `json:"relative_to,omitempty"`
}
