package prompts

import (
	"strings"
	"testing"

	"github.com/jwebster45206/timeline-engine/pkg/chat"
	"github.com/jwebster45206/timeline-engine/pkg/timeline"
)

func buildTestState(t *testing.T) (*timeline.Store, *timeline.GameState) {
	t.Helper()
	gs := timeline.NewGameState("Test", []timeline.Player{
		{ID: "human", Name: "Alice"},
		{ID: "ai", Name: "Muse", IsAI: true},
	})
	s := timeline.NewStore(gs, nil)
	s.UpdateBigPicture("An empire of glass rises and shatters.")
	s.AddPaletteItem("no", "Faster-than-light travel", "human")
	s.AddPaletteItem("yes", "Forgotten archives", "human")

	start, _, err := s.SetBookend(timeline.BookendStart, timeline.PeriodSpec{
		Title: "The First Kiln", Tone: timeline.ToneLight, Description: "Glassmakers found the city.",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.SetBookend(timeline.BookendEnd, timeline.PeriodSpec{
		Title: "The Shattering", Tone: timeline.ToneDark,
	}); err != nil {
		t.Fatal(err)
	}

	e, err := s.AddEvent(timeline.EventSpec{PeriodID: start.ID, Title: "The First Furnace", Tone: timeline.ToneLight})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddScene(timeline.SceneSpec{EventID: e.ID, Question: "Who lit the flame?"}); err != nil {
		t.Fatal(err)
	}

	if _, err := s.AddMessage(e.ConversationID, chat.Message{
		Role: chat.RoleUser, PlayerName: "Alice", Content: "Tell me about the furnace.",
	}); err != nil {
		t.Fatal(err)
	}
	return s, gs
}

func TestSerializeState_Deterministic(t *testing.T) {
	_, gs := buildTestState(t)

	a := SerializeState(gs, gs.MetaConversationID, DefaultRecentLimit)
	b := SerializeState(gs, gs.MetaConversationID, DefaultRecentLimit)
	if a != b {
		t.Error("serialization is not byte-identical across calls")
	}
}

func TestSerializeState_Structure(t *testing.T) {
	_, gs := buildTestState(t)
	out := SerializeState(gs, gs.MetaConversationID, DefaultRecentLimit)

	for _, want := range []string{
		"An empire of glass rises and shatters.",
		"- YES: Forgotten archives",
		"- NO: Faster-than-light travel",
		"### Period: The First Kiln (light) [start bookend]",
		"### Period: The Shattering (dark) [end bookend]",
		"#### Event: The First Furnace (light)",
		"##### Scene: Who lit the flame?",
		"Alice: Tell me about the furnace.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("serialization missing %q\n---\n%s", want, out)
		}
	}

	// Yes items render before no items regardless of insertion order.
	if strings.Index(out, "- YES:") > strings.Index(out, "- NO:") {
		t.Error("palette yes items should precede no items")
	}
}

func TestSerializeState_PendingExcluded(t *testing.T) {
	s, gs := buildTestState(t)
	if _, err := s.AddMessage(gs.MetaConversationID, chat.Message{
		Role: chat.RoleUser, Content: "not sent yet", Pending: true,
	}); err != nil {
		t.Fatal(err)
	}

	out := SerializeState(gs, gs.MetaConversationID, DefaultRecentLimit)
	if strings.Contains(out, "not sent yet") {
		t.Error("pending message leaked into serialization")
	}
}

func TestSerializeState_CurrentConversationHoldback(t *testing.T) {
	s, gs := buildTestState(t)
	metaID := gs.MetaConversationID
	for _, content := range []string{"m1", "m2", "m3", "m4"} {
		if _, err := s.AddMessage(metaID, chat.Message{Role: chat.RoleUser, Content: content}); err != nil {
			t.Fatal(err)
		}
	}

	// With the meta conversation current and a window of 2, its last
	// two messages stay out of the cached layer.
	out := SerializeState(gs, metaID, 2)
	if !strings.Contains(out, "m1") || !strings.Contains(out, "m2") {
		t.Errorf("older messages missing from cached layer:\n%s", out)
	}
	if strings.Contains(out, "m3") || strings.Contains(out, "m4") {
		t.Errorf("recent messages leaked into cached layer:\n%s", out)
	}

	// With another conversation current, the full meta transcript is
	// serialized.
	other := SerializeState(gs, gs.Periods[0].ConversationID, 2)
	if !strings.Contains(other, "m4") {
		t.Error("non-current conversation should serialize in full")
	}
}

func TestSerializeState_EmptyState(t *testing.T) {
	gs := timeline.NewGameState("Empty", nil)
	timeline.NewStore(gs, nil)
	out := SerializeState(gs, gs.MetaConversationID, DefaultRecentLimit)

	for _, want := range []string{"(not set yet)", "(empty)", "(no periods yet)"} {
		if !strings.Contains(out, want) {
			t.Errorf("empty-state serialization missing %q", want)
		}
	}
}
