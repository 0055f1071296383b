package timeline

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	gs := NewGameState("Test Game", []Player{
		{ID: "human", Name: "Alice"},
		{ID: "ai", Name: "Muse", IsAI: true},
	})
	return NewStore(gs, nil)
}

// startedStore returns a store past setup, with both bookends and the
// big picture in place.
func startedStore(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t)
	s.UpdateBigPicture("A city-state rises and falls.")
	if _, _, err := s.SetBookend(BookendStart, PeriodSpec{Title: "The Founding", Tone: ToneLight}); err != nil {
		t.Fatalf("start bookend: %v", err)
	}
	if _, _, err := s.SetBookend(BookendEnd, PeriodSpec{Title: "The Silence", Tone: ToneDark}); err != nil {
		t.Fatalf("end bookend: %v", err)
	}
	if err := s.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	return s
}

func TestAddPeriod_Placement(t *testing.T) {
	s := startedStore(t)

	mid, err := s.AddPeriod(PeriodSpec{
		Title: "The Flourishing", Tone: ToneLight,
		Placement: &Placement{Type: PlacementAfter, RelativeTo: "The Founding"},
	})
	if err != nil {
		t.Fatalf("AddPeriod: %v", err)
	}
	if _, err := s.AddPeriod(PeriodSpec{
		Title: "The Drought", Tone: ToneDark,
		Placement: &Placement{Type: PlacementAfter, RelativeTo: "The Flourishing"},
	}); err != nil {
		t.Fatalf("AddPeriod after: %v", err)
	}
	if _, err := s.AddPeriod(PeriodSpec{
		Title: "The Seeding", Tone: ToneLight,
		Placement: &Placement{Type: PlacementBefore, RelativeTo: "The Flourishing"},
	}); err != nil {
		t.Fatalf("AddPeriod before: %v", err)
	}

	got := titlesOf(s.PeriodsInOrder())
	want := []string{"The Founding", "The Seeding", "The Flourishing", "The Drought", "The Silence"}
	if !equalStrings(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}

	for i, p := range s.PeriodsInOrder() {
		if p.Order != i {
			t.Errorf("period %q order = %d, want %d", p.Title, p.Order, i)
		}
	}

	if mid2, _ := s.Period(mid.ID); mid2.Order != 2 {
		t.Errorf("mid period order = %d after inserts, want 2", mid2.Order)
	}
}

func TestAddPeriod_UnresolvedPlacementAppendsAtEnd(t *testing.T) {
	s := startedStore(t)

	if _, err := s.AddPeriod(PeriodSpec{
		Title: "The Orphan", Tone: ToneDark,
		Placement: &Placement{Type: PlacementAfter, RelativeTo: "No Such Period"},
	}); err != nil {
		t.Fatalf("AddPeriod: %v", err)
	}

	periods := s.PeriodsInOrder()
	if periods[len(periods)-1].Title != "The Orphan" {
		t.Errorf("unresolved placement should append at end, got %v", titlesOf(periods))
	}
}

func TestAddPeriod_PlacementFirst(t *testing.T) {
	s := startedStore(t)
	if _, err := s.AddPeriod(PeriodSpec{
		Title: "Before Everything", Tone: ToneDark,
		Placement: &Placement{Type: PlacementFirst},
	}); err != nil {
		t.Fatalf("AddPeriod: %v", err)
	}
	if got := s.PeriodsInOrder()[0].Title; got != "Before Everything" {
		t.Errorf("first period = %q", got)
	}
}

func TestOneUnfrozenItem(t *testing.T) {
	s := startedStore(t)

	p1, _ := s.AddPeriod(PeriodSpec{Title: "First", Tone: ToneLight})
	if ref := s.UnfrozenItem(); ref == nil || ref.ID != p1.ID {
		t.Fatalf("unfrozen = %v, want first period", ref)
	}

	p2, _ := s.AddPeriod(PeriodSpec{Title: "Second", Tone: ToneDark})

	if got, _ := s.Period(p1.ID); !got.Frozen {
		t.Error("creating a second item should freeze the first")
	}
	if ref := s.UnfrozenItem(); ref == nil || ref.ID != p2.ID {
		t.Errorf("unfrozen = %v, want second period", ref)
	}

	s.EndTurn()
	if ref := s.UnfrozenItem(); ref != nil {
		t.Errorf("unfrozen after EndTurn = %v, want nil", ref)
	}
}

func TestSetupBookendsStayEditable(t *testing.T) {
	s := newTestStore(t)

	start, created, err := s.SetBookend(BookendStart, PeriodSpec{Title: "Dawn", Tone: ToneLight})
	if err != nil || !created {
		t.Fatalf("SetBookend = (%v, %v, %v)", start, created, err)
	}
	if _, created, err = s.SetBookend(BookendEnd, PeriodSpec{Title: "Dusk", Tone: ToneDark}); err != nil || !created {
		t.Fatalf("end bookend create failed: created=%v err=%v", created, err)
	}

	// Creating the end bookend must not freeze the start bookend
	// during setup.
	if got, _ := s.Period(start.ID); got.Frozen {
		t.Error("start bookend frozen during setup")
	}

	// Re-issuing the directive updates the same period in place.
	updated, created, err := s.SetBookend(BookendStart, PeriodSpec{
		Title: "First Light", Description: "Revised.", Tone: ToneDark,
	})
	if err != nil {
		t.Fatalf("bookend update: %v", err)
	}
	if created {
		t.Error("bookend update reported as creation")
	}
	if updated.ID != start.ID {
		t.Error("bookend update should reuse the existing period id")
	}
	if updated.ConversationID != start.ConversationID {
		t.Error("bookend update should keep the existing conversation")
	}
	if updated.Title != "First Light" || updated.Tone != ToneDark {
		t.Errorf("updated bookend = %+v", updated)
	}
	if len(s.PeriodsInOrder()) != 2 {
		t.Errorf("period count = %d, want 2", len(s.PeriodsInOrder()))
	}
}

func TestSetBookend_FrozenAfterStart(t *testing.T) {
	s := startedStore(t)

	_, _, err := s.SetBookend(BookendStart, PeriodSpec{Title: "Rewritten Dawn", Tone: ToneLight})
	if !errors.Is(err, ErrFrozen) {
		t.Errorf("err = %v, want ErrFrozen", err)
	}
}

func TestStartGame_Preconditions(t *testing.T) {
	s := newTestStore(t)

	if err := s.StartGame(); !errors.Is(err, ErrSetupIncomplete) {
		t.Errorf("empty setup: err = %v, want ErrSetupIncomplete", err)
	}

	s.UpdateBigPicture("Something vast.")
	if _, _, err := s.SetBookend(BookendStart, PeriodSpec{Title: "A", Tone: ToneLight}); err != nil {
		t.Fatal(err)
	}
	if err := s.StartGame(); !errors.Is(err, ErrSetupIncomplete) {
		t.Errorf("one bookend: err = %v, want ErrSetupIncomplete", err)
	}

	if _, _, err := s.SetBookend(BookendEnd, PeriodSpec{Title: "Z", Tone: ToneDark}); err != nil {
		t.Fatal(err)
	}
	if err := s.StartGame(); err != nil {
		t.Fatalf("complete setup: %v", err)
	}
	if s.State().Phase != PhaseInitialRound {
		t.Errorf("phase = %s, want %s", s.State().Phase, PhaseInitialRound)
	}

	if err := s.StartGame(); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("second start: err = %v, want ErrWrongPhase", err)
	}
}

func TestEndTurn_PhaseAndRotation(t *testing.T) {
	s := startedStore(t)
	gs := s.State()

	if gs.CurrentPlayer().Name != "Alice" {
		t.Fatalf("first player = %s", gs.CurrentPlayer().Name)
	}

	s.EndTurn()
	if gs.Phase != PhaseInitialRound {
		t.Errorf("phase after 1 turn = %s", gs.Phase)
	}
	if gs.CurrentPlayer().Name != "Muse" {
		t.Errorf("second player = %s", gs.CurrentPlayer().Name)
	}

	s.EndTurn()
	if gs.Phase != PhasePlaying {
		t.Errorf("phase after full round = %s, want %s", gs.Phase, PhasePlaying)
	}
	if gs.CurrentPlayer().Name != "Alice" {
		t.Errorf("rotation wrapped to %s", gs.CurrentPlayer().Name)
	}
}

func TestFrozenRejectsEdits(t *testing.T) {
	s := startedStore(t)

	p, _ := s.AddPeriod(PeriodSpec{Title: "Mutable", Tone: ToneLight})
	s.EndTurn()

	title := "Changed"
	if _, err := s.UpdatePeriod(p.ID, PeriodUpdate{Title: &title}); !errors.Is(err, ErrFrozen) {
		t.Errorf("err = %v, want ErrFrozen", err)
	}
}

func TestSceneAnswerWritableAfterFreeze(t *testing.T) {
	s := startedStore(t)

	p, _ := s.AddPeriod(PeriodSpec{Title: "P", Tone: ToneLight})
	e, _ := s.AddEvent(EventSpec{PeriodID: p.ID, Title: "E", Tone: ToneDark})
	sc, _ := s.AddScene(SceneSpec{EventID: e.ID, Question: "Who broke the seal?"})
	s.EndTurn()

	answer := "The archivist, by accident."
	got, err := s.UpdateScene(sc.ID, SceneUpdate{Answer: &answer})
	if err != nil {
		t.Fatalf("answer update on frozen scene: %v", err)
	}
	if got.Answer != answer {
		t.Errorf("answer = %q", got.Answer)
	}

	question := "Rephrased?"
	if _, err := s.UpdateScene(sc.ID, SceneUpdate{Question: &question}); !errors.Is(err, ErrFrozen) {
		t.Errorf("question edit err = %v, want ErrFrozen", err)
	}
}

func TestEventAndSceneOrdering(t *testing.T) {
	s := startedStore(t)

	p, _ := s.AddPeriod(PeriodSpec{Title: "P", Tone: ToneLight})
	e1, _ := s.AddEvent(EventSpec{PeriodID: p.ID, Title: "E1", Tone: ToneLight})
	e2, _ := s.AddEvent(EventSpec{PeriodID: p.ID, Title: "E2", Tone: ToneDark})

	events := s.EventsForPeriod(p.ID)
	if len(events) != 2 || events[0].ID != e1.ID || events[1].ID != e2.ID {
		t.Fatalf("events = %v", events)
	}
	if events[0].Order != 0 || events[1].Order != 1 {
		t.Errorf("event orders = %d, %d", events[0].Order, events[1].Order)
	}

	sc1, _ := s.AddScene(SceneSpec{EventID: e2.ID, Question: "Q1?"})
	sc2, _ := s.AddScene(SceneSpec{EventID: e2.ID, Question: "Q2?"})
	scenes := s.ScenesForEvent(e2.ID)
	if len(scenes) != 2 || scenes[0].ID != sc1.ID || scenes[1].ID != sc2.ID {
		t.Fatalf("scenes = %v", scenes)
	}
}

func TestFindByTitle(t *testing.T) {
	s := startedStore(t)

	p, _ := s.AddPeriod(PeriodSpec{Title: "The Quiet Years", Tone: ToneLight})
	if _, err := s.AddEvent(EventSpec{PeriodID: p.ID, Title: "The Fire", Tone: ToneDark}); err != nil {
		t.Fatal(err)
	}

	got, err := s.FindPeriodByTitle("The Quiet Years")
	if err != nil || got.ID != p.ID {
		t.Errorf("FindPeriodByTitle = (%v, %v)", got, err)
	}

	// Lookups are exact and case-sensitive.
	if _, err := s.FindPeriodByTitle("the quiet years"); !errors.Is(err, ErrNotFound) {
		t.Errorf("case-insensitive match should fail, err = %v", err)
	}

	ev, err := s.FindEventByTitle("The Fire")
	if err != nil || ev.PeriodID != p.ID {
		t.Errorf("FindEventByTitle = (%v, %v)", ev, err)
	}

	var nfe *NotFoundError
	_, err = s.FindEventByTitle("No Such Event")
	if !errors.As(err, &nfe) || nfe.Kind != KindEvent {
		t.Errorf("err = %v, want NotFoundError for events", err)
	}
}

func TestDeletePeriod_Cascades(t *testing.T) {
	s := startedStore(t)

	p, _ := s.AddPeriod(PeriodSpec{Title: "Doomed", Tone: ToneDark})
	e, _ := s.AddEvent(EventSpec{PeriodID: p.ID, Title: "E", Tone: ToneDark})
	sc, _ := s.AddScene(SceneSpec{EventID: e.ID, Question: "Q?"})

	convCount := len(s.State().Conversations)

	if err := s.DeletePeriod(p.ID); err != nil {
		t.Fatalf("DeletePeriod: %v", err)
	}

	if _, ok := s.Event(e.ID); ok {
		t.Error("event survived period deletion")
	}
	if _, ok := s.Scene(sc.ID); ok {
		t.Error("scene survived period deletion")
	}
	if got := len(s.State().Conversations); got != convCount-3 {
		t.Errorf("conversations = %d, want %d", got, convCount-3)
	}
	for _, id := range []uuid.UUID{p.ConversationID, e.ConversationID, sc.ConversationID} {
		if _, ok := s.OwnerOf(id); ok {
			t.Error("reverse index still maps a deleted conversation")
		}
	}

	// Remaining periods are renumbered densely.
	for i, rp := range s.PeriodsInOrder() {
		if rp.Order != i {
			t.Errorf("period %q order = %d, want %d", rp.Title, rp.Order, i)
		}
	}
}

func TestDeletePeriod_ClearsBookendRef(t *testing.T) {
	s := newTestStore(t)
	start, _, _ := s.SetBookend(BookendStart, PeriodSpec{Title: "Dawn", Tone: ToneLight})

	if err := s.DeletePeriod(start.ID); err != nil {
		t.Fatalf("DeletePeriod: %v", err)
	}
	if s.State().Setup.Bookends.Start != nil {
		t.Error("bookend ref not cleared after deletion")
	}
}

func TestReverseIndex(t *testing.T) {
	s := startedStore(t)
	p, _ := s.AddPeriod(PeriodSpec{Title: "P", Tone: ToneLight})

	ref, ok := s.OwnerOf(p.ConversationID)
	if !ok || ref.Kind != KindPeriod || ref.ID != p.ID {
		t.Errorf("OwnerOf = (%v, %v)", ref, ok)
	}

	convID, ok := s.ConversationOf(EntityRef{Kind: KindPeriod, ID: p.ID})
	if !ok || convID != p.ConversationID {
		t.Errorf("ConversationOf = (%v, %v)", convID, ok)
	}

	// The meta conversation belongs to no entity.
	if _, ok := s.OwnerOf(s.State().MetaConversationID); ok {
		t.Error("meta conversation should have no owner")
	}
}

func TestNormalizeOnLoad(t *testing.T) {
	gs := NewGameState("Sparse", nil)
	gs.Periods = []Period{
		{ID: uuid.New(), Title: "C", Order: 40, ConversationID: uuid.New()},
		{ID: uuid.New(), Title: "A", Order: 7, ConversationID: uuid.New()},
		{ID: uuid.New(), Title: "B", Order: 12, ConversationID: uuid.New()},
	}
	s := NewStore(gs, nil)

	got := titlesOf(s.PeriodsInOrder())
	want := []string{"A", "B", "C"}
	if !equalStrings(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	for i, p := range s.PeriodsInOrder() {
		if p.Order != i {
			t.Errorf("period %q order = %d, want %d", p.Title, p.Order, i)
		}
	}
}

func titlesOf(periods []Period) []string {
	out := make([]string, len(periods))
	for i, p := range periods {
		out[i] = p.Title
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
