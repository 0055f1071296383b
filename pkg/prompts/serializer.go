package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/timeline-engine/pkg/chat"
	"github.com/jwebster45206/timeline-engine/pkg/timeline"
)

// SerializeState renders the full game state as text for the cacheable
// prompt layer. It is a pure function of its arguments: the same state
// always yields byte-identical output, which is what makes provider
// prompt caching effective.
//
// The conversation identified by currentConversationID contributes all
// but its last recentLimit messages here; those go into the uncached
// recent layer instead. Pending messages are never serialized.
func SerializeState(gs *timeline.GameState, currentConversationID uuid.UUID, recentLimit int) string {
	var sb strings.Builder

	sb.WriteString(headerBigPicture + "\n")
	if gs.Setup.BigPicture != "" {
		sb.WriteString(gs.Setup.BigPicture + "\n")
	} else {
		sb.WriteString("(not set yet)\n")
	}

	sb.WriteString("\n" + headerPalette + "\n")
	writePalette(&sb, gs.Setup.Palette)

	sb.WriteString("\n" + headerTimeline + "\n")
	writeTimeline(&sb, gs, currentConversationID, recentLimit)

	sb.WriteString("\n" + headerMeta + "\n")
	meta := gs.MetaConversation()
	if meta != nil {
		writeTranscript(&sb, meta.Messages, transcriptLimit(meta.ID, currentConversationID, len(meta.Messages), recentLimit))
	}

	return sb.String()
}

func writePalette(sb *strings.Builder, palette []timeline.PaletteItem) {
	if len(palette) == 0 {
		sb.WriteString("(empty)\n")
		return
	}
	for _, cat := range []string{"yes", "no"} {
		for _, item := range palette {
			if item.Category == cat {
				fmt.Fprintf(sb, "- %s: %s\n", strings.ToUpper(cat), item.Text)
			}
		}
	}
}

func writeTimeline(sb *strings.Builder, gs *timeline.GameState, current uuid.UUID, recentLimit int) {
	periods := make([]timeline.Period, len(gs.Periods))
	copy(periods, gs.Periods)
	sort.SliceStable(periods, func(i, j int) bool { return periods[i].Order < periods[j].Order })

	if len(periods) == 0 {
		sb.WriteString("(no periods yet)\n")
		return
	}

	for _, p := range periods {
		marker := ""
		if gs.Setup.Bookends.Start != nil && *gs.Setup.Bookends.Start == p.ID {
			marker = " [start bookend]"
		} else if gs.Setup.Bookends.End != nil && *gs.Setup.Bookends.End == p.ID {
			marker = " [end bookend]"
		}
		fmt.Fprintf(sb, "\n### Period: %s (%s)%s\n", p.Title, p.Tone, marker)
		if p.Description != "" {
			sb.WriteString(p.Description + "\n")
		}
		writeConversation(sb, gs, p.ConversationID, current, recentLimit)

		for _, e := range eventsOf(gs, p.ID) {
			fmt.Fprintf(sb, "\n#### Event: %s (%s)\n", e.Title, e.Tone)
			if e.Description != "" {
				sb.WriteString(e.Description + "\n")
			}
			writeConversation(sb, gs, e.ConversationID, current, recentLimit)

			for _, sc := range scenesOf(gs, e.ID) {
				fmt.Fprintf(sb, "\n##### Scene: %s (%s)\n", sc.Question, sc.Tone)
				if sc.Answer != "" {
					fmt.Fprintf(sb, "Answer: %s\n", sc.Answer)
				}
				writeConversation(sb, gs, sc.ConversationID, current, recentLimit)
			}
		}
	}
}

func eventsOf(gs *timeline.GameState, periodID uuid.UUID) []timeline.Event {
	out := make([]timeline.Event, 0)
	for _, e := range gs.Events {
		if e.PeriodID == periodID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func scenesOf(gs *timeline.GameState, eventID uuid.UUID) []timeline.Scene {
	out := make([]timeline.Scene, 0)
	for _, sc := range gs.Scenes {
		if sc.EventID == eventID {
			out = append(out, sc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func writeConversation(sb *strings.Builder, gs *timeline.GameState, convID, current uuid.UUID, recentLimit int) {
	conv, ok := gs.Conversations[convID]
	if !ok || len(conv.Messages) == 0 {
		return
	}
	sb.WriteString("Discussion:\n")
	writeTranscript(sb, conv.Messages, transcriptLimit(convID, current, len(conv.Messages), recentLimit))
}

// transcriptLimit returns how many messages of a conversation belong in
// the cached layer. The current conversation holds back its last
// recentLimit messages for the uncached layer.
func transcriptLimit(convID, current uuid.UUID, total, recentLimit int) int {
	if convID != current {
		return total
	}
	if total <= recentLimit {
		return 0
	}
	return total - recentLimit
}

func writeTranscript(sb *strings.Builder, messages []chat.Message, limit int) {
	for i, m := range messages {
		if i >= limit {
			return
		}
		if m.Pending {
			continue
		}
		name := m.PlayerName
		if name == "" {
			name = m.Role
		}
		fmt.Fprintf(sb, "%s: %s\n", name, m.Content)
	}
}
