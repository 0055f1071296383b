package timeline

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/timeline-engine/pkg/chat"
)

// Store is the authoritative, in-memory game state with its mutation
// surface. Entity creation builds the entity and its conversation
// together before committing either, so a partially-created entity can
// never be observed. A reverse index from conversation id to owning
// entity is maintained alongside every create and delete.
type Store struct {
	mu             sync.Mutex
	gs             *GameState
	byConversation map[uuid.UUID]EntityRef
	logger         *slog.Logger
}

// NewStore wraps an existing game state. The periods slice is
// normalized to dense order values on load.
func NewStore(gs *GameState, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{gs: gs, logger: logger}
	s.normalizeLocked()
	s.reindexLocked()
	return s
}

// State returns the underlying aggregate for reading. Callers must not
// mutate it directly; all writes go through Store methods.
func (s *Store) State() *GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gs
}

// Reset swaps in a different game (used when switching games).
func (s *Store) Reset(gs *GameState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gs = gs
	s.normalizeLocked()
	s.reindexLocked()
}

func (s *Store) touchLocked() {
	s.gs.UpdatedAt = time.Now()
}

// normalizeLocked sorts sibling groups by order and renumbers them
// densely from zero.
func (s *Store) normalizeLocked() {
	sort.SliceStable(s.gs.Periods, func(i, j int) bool {
		return s.gs.Periods[i].Order < s.gs.Periods[j].Order
	})
	for i := range s.gs.Periods {
		s.gs.Periods[i].Order = i
	}
	sort.SliceStable(s.gs.Events, func(i, j int) bool {
		if s.gs.Events[i].PeriodID != s.gs.Events[j].PeriodID {
			return periodOrder(s.gs, s.gs.Events[i].PeriodID) < periodOrder(s.gs, s.gs.Events[j].PeriodID)
		}
		return s.gs.Events[i].Order < s.gs.Events[j].Order
	})
	s.renumberEventsLocked()
	sort.SliceStable(s.gs.Scenes, func(i, j int) bool {
		if s.gs.Scenes[i].EventID != s.gs.Scenes[j].EventID {
			return eventIndex(s.gs, s.gs.Scenes[i].EventID) < eventIndex(s.gs, s.gs.Scenes[j].EventID)
		}
		return s.gs.Scenes[i].Order < s.gs.Scenes[j].Order
	})
	s.renumberScenesLocked()
	if s.gs.ExecutedDirectives == nil {
		s.gs.ExecutedDirectives = make(map[uuid.UUID][]string)
	}
	if s.gs.Conversations == nil {
		s.gs.Conversations = make(map[uuid.UUID]*chat.Conversation)
	}
}

func periodOrder(gs *GameState, id uuid.UUID) int {
	for i := range gs.Periods {
		if gs.Periods[i].ID == id {
			return gs.Periods[i].Order
		}
	}
	return len(gs.Periods)
}

func eventIndex(gs *GameState, id uuid.UUID) int {
	for i := range gs.Events {
		if gs.Events[i].ID == id {
			return i
		}
	}
	return len(gs.Events)
}

func (s *Store) renumberEventsLocked() {
	counts := make(map[uuid.UUID]int)
	for i := range s.gs.Events {
		pid := s.gs.Events[i].PeriodID
		s.gs.Events[i].Order = counts[pid]
		counts[pid]++
	}
}

func (s *Store) renumberScenesLocked() {
	counts := make(map[uuid.UUID]int)
	for i := range s.gs.Scenes {
		eid := s.gs.Scenes[i].EventID
		s.gs.Scenes[i].Order = counts[eid]
		counts[eid]++
	}
}

func (s *Store) reindexLocked() {
	idx := make(map[uuid.UUID]EntityRef)
	for i := range s.gs.Periods {
		idx[s.gs.Periods[i].ConversationID] = EntityRef{Kind: KindPeriod, ID: s.gs.Periods[i].ID}
	}
	for i := range s.gs.Events {
		idx[s.gs.Events[i].ConversationID] = EntityRef{Kind: KindEvent, ID: s.gs.Events[i].ID}
	}
	for i := range s.gs.Scenes {
		idx[s.gs.Scenes[i].ConversationID] = EntityRef{Kind: KindScene, ID: s.gs.Scenes[i].ID}
	}
	s.byConversation = idx
}

// ConversationOf returns the conversation owned by an entity.
func (s *Store) ConversationOf(ref EntityRef) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch ref.Kind {
	case KindPeriod:
		if i, ok := s.findPeriodIndexByIDLocked(ref.ID); ok {
			return s.gs.Periods[i].ConversationID, true
		}
	case KindEvent:
		if i, ok := s.findEventIndexByIDLocked(ref.ID); ok {
			return s.gs.Events[i].ConversationID, true
		}
	case KindScene:
		if i, ok := s.findSceneIndexByIDLocked(ref.ID); ok {
			return s.gs.Scenes[i].ConversationID, true
		}
	}
	return uuid.Nil, false
}

// OwnerOf resolves which entity owns a conversation. Returns false for
// the meta conversation and unknown ids.
func (s *Store) OwnerOf(conversationID uuid.UUID) (EntityRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.byConversation[conversationID]
	return ref, ok
}

// freezeForCreateLocked is the explicit state-machine transition behind
// the one-unfrozen-item rule: before a new item is created, any item
// still unfrozen is frozen. During setup the bookends are exempt.
func (s *Store) freezeForCreateLocked() {
	setup := s.gs.Phase == PhaseSetup
	for i := range s.gs.Periods {
		if s.gs.Periods[i].Frozen {
			continue
		}
		if setup && s.gs.Periods[i].IsBookend {
			continue
		}
		s.gs.Periods[i].Frozen = true
	}
	for i := range s.gs.Events {
		if !s.gs.Events[i].Frozen {
			s.gs.Events[i].Frozen = true
		}
	}
	for i := range s.gs.Scenes {
		if !s.gs.Scenes[i].Frozen {
			s.gs.Scenes[i].Frozen = true
		}
	}
}

func newConversation() *chat.Conversation {
	return &chat.Conversation{
		ID:       uuid.New(),
		Messages: make([]chat.Message, 0),
	}
}

// PeriodSpec describes a period to create.
type PeriodSpec struct {
	Title       string
	Description string
	Tone        Tone
	IsBookend   bool
	Placement   *Placement
	CreatedBy   string
}

// AddPeriod creates a period and its conversation. Placement positions
// the period in the chronology; an unresolved after/before target falls
// back to appending at the end of the timeline (logged, not fatal).
func (s *Store) AddPeriod(spec PeriodSpec) (Period, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.freezeForCreateLocked()
	return s.addPeriodLocked(spec), nil
}

func (s *Store) addPeriodLocked(spec PeriodSpec) Period {
	at := len(s.gs.Periods)
	if spec.Placement != nil {
		switch spec.Placement.Type {
		case PlacementFirst:
			at = 0
		case PlacementAfter, PlacementBefore:
			if i, ok := s.findPeriodIndexByTitleLocked(spec.Placement.RelativeTo); ok {
				at = i
				if spec.Placement.Type == PlacementAfter {
					at = i + 1
				}
			} else {
				s.logger.Warn("placement target not found, appending period at end",
					"target", spec.Placement.RelativeTo, "title", spec.Title)
			}
		}
	}

	conv := newConversation()
	p := Period{
		ID:             uuid.New(),
		Title:          spec.Title,
		Description:    spec.Description,
		Tone:           spec.Tone,
		IsBookend:      spec.IsBookend,
		CreatedBy:      spec.CreatedBy,
		ConversationID: conv.ID,
	}

	s.gs.Periods = append(s.gs.Periods, Period{})
	copy(s.gs.Periods[at+1:], s.gs.Periods[at:])
	s.gs.Periods[at] = p
	for i := range s.gs.Periods {
		s.gs.Periods[i].Order = i
	}

	s.gs.Conversations[conv.ID] = conv
	s.byConversation[conv.ID] = EntityRef{Kind: KindPeriod, ID: p.ID}
	s.touchLocked()
	return s.gs.Periods[at]
}

// SetBookend creates a start/end bookend period, or updates the
// existing one in place, reusing its id and conversation. Returns
// created=false on update. Updating a frozen bookend fails.
func (s *Store) SetBookend(pos BookendPosition, spec PeriodSpec) (Period, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.gs.Setup.Bookends.Start
	if pos == BookendEnd {
		existing = s.gs.Setup.Bookends.End
	}

	if existing != nil {
		for i := range s.gs.Periods {
			if s.gs.Periods[i].ID != *existing {
				continue
			}
			if s.gs.Periods[i].Frozen {
				return Period{}, false, ErrFrozen
			}
			s.gs.Periods[i].Title = spec.Title
			s.gs.Periods[i].Description = spec.Description
			s.gs.Periods[i].Tone = spec.Tone
			s.touchLocked()
			return s.gs.Periods[i], false, nil
		}
		// Dangling bookend reference; fall through and recreate.
		s.logger.Warn("bookend id not found among periods, recreating", "position", pos)
	}

	spec.IsBookend = true
	if pos == BookendStart {
		spec.Placement = &Placement{Type: PlacementFirst}
	} else {
		spec.Placement = nil // end bookend appends at the end
	}

	s.freezeForCreateLocked()
	p := s.addPeriodLocked(spec)
	if pos == BookendStart {
		s.gs.Setup.Bookends.Start = &p.ID
	} else {
		s.gs.Setup.Bookends.End = &p.ID
	}
	s.touchLocked()
	return p, true, nil
}

// EventSpec describes an event to create within a period.
type EventSpec struct {
	PeriodID    uuid.UUID
	Title       string
	Description string
	Tone        Tone
	CreatedBy   string
}

// AddEvent creates an event and its conversation at the end of its
// period's sibling group.
func (s *Store) AddEvent(spec EventSpec) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findPeriodIndexByIDLocked(spec.PeriodID); !ok {
		return Event{}, &NotFoundError{Kind: KindPeriod, Title: spec.PeriodID.String()}
	}

	s.freezeForCreateLocked()

	order := 0
	for i := range s.gs.Events {
		if s.gs.Events[i].PeriodID == spec.PeriodID {
			order++
		}
	}

	conv := newConversation()
	e := Event{
		ID:             uuid.New(),
		PeriodID:       spec.PeriodID,
		Title:          spec.Title,
		Description:    spec.Description,
		Tone:           spec.Tone,
		Order:          order,
		CreatedBy:      spec.CreatedBy,
		ConversationID: conv.ID,
	}
	s.gs.Events = append(s.gs.Events, e)
	s.gs.Conversations[conv.ID] = conv
	s.byConversation[conv.ID] = EntityRef{Kind: KindEvent, ID: e.ID}
	s.touchLocked()
	return e, nil
}

// SceneSpec describes a scene to create within an event.
type SceneSpec struct {
	EventID   uuid.UUID
	Question  string
	Tone      Tone
	CreatedBy string
}

// AddScene creates a scene and its conversation at the end of its
// event's sibling group.
func (s *Store) AddScene(spec SceneSpec) (Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findEventIndexByIDLocked(spec.EventID); !ok {
		return Scene{}, &NotFoundError{Kind: KindEvent, Title: spec.EventID.String()}
	}

	s.freezeForCreateLocked()

	order := 0
	for i := range s.gs.Scenes {
		if s.gs.Scenes[i].EventID == spec.EventID {
			order++
		}
	}

	conv := newConversation()
	sc := Scene{
		ID:             uuid.New(),
		EventID:        spec.EventID,
		Question:       spec.Question,
		Tone:           spec.Tone,
		Order:          order,
		CreatedBy:      spec.CreatedBy,
		ConversationID: conv.ID,
	}
	s.gs.Scenes = append(s.gs.Scenes, sc)
	s.gs.Conversations[conv.ID] = conv
	s.byConversation[conv.ID] = EntityRef{Kind: KindScene, ID: sc.ID}
	s.touchLocked()
	return sc, nil
}

func (s *Store) findPeriodIndexByIDLocked(id uuid.UUID) (int, bool) {
	for i := range s.gs.Periods {
		if s.gs.Periods[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

func (s *Store) findEventIndexByIDLocked(id uuid.UUID) (int, bool) {
	for i := range s.gs.Events {
		if s.gs.Events[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

func (s *Store) findSceneIndexByIDLocked(id uuid.UUID) (int, bool) {
	for i := range s.gs.Scenes {
		if s.gs.Scenes[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

// findPeriodIndexByTitleLocked matches titles exactly, case-sensitive.
// Duplicate titles resolve to the first match in chronological order.
func (s *Store) findPeriodIndexByTitleLocked(title string) (int, bool) {
	for i := range s.gs.Periods { // Periods is kept sorted by Order
		if s.gs.Periods[i].Title == title {
			return i, true
		}
	}
	return 0, false
}

// FindPeriodByTitle resolves a period reference by exact title.
func (s *Store) FindPeriodByTitle(title string) (Period, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.findPeriodIndexByTitleLocked(title); ok {
		return s.gs.Periods[i], nil
	}
	return Period{}, &NotFoundError{Kind: KindPeriod, Title: title}
}

// FindEventByTitle resolves an event reference by exact title.
// Duplicates resolve to the first match in chronological order
// (period order, then event order).
func (s *Store) FindEventByTitle(title string) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := range s.gs.Periods {
		for i := range s.gs.Events {
			if s.gs.Events[i].PeriodID == s.gs.Periods[p].ID && s.gs.Events[i].Title == title {
				return s.gs.Events[i], nil
			}
		}
	}
	return Event{}, &NotFoundError{Kind: KindEvent, Title: title}
}

// Period returns a period by id.
func (s *Store) Period(id uuid.UUID) (Period, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.findPeriodIndexByIDLocked(id); ok {
		return s.gs.Periods[i], true
	}
	return Period{}, false
}

// Event returns an event by id.
func (s *Store) Event(id uuid.UUID) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.findEventIndexByIDLocked(id); ok {
		return s.gs.Events[i], true
	}
	return Event{}, false
}

// Scene returns a scene by id.
func (s *Store) Scene(id uuid.UUID) (Scene, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.findSceneIndexByIDLocked(id); ok {
		return s.gs.Scenes[i], true
	}
	return Scene{}, false
}

// PeriodUpdate carries optional field changes for a period.
type PeriodUpdate struct {
	Title       *string
	Description *string
	Tone        *Tone
}

// UpdatePeriod applies field changes, rejecting them if the period is
// frozen.
func (s *Store) UpdatePeriod(id uuid.UUID, upd PeriodUpdate) (Period, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findPeriodIndexByIDLocked(id)
	if !ok {
		return Period{}, &NotFoundError{Kind: KindPeriod, Title: id.String()}
	}
	p := &s.gs.Periods[i]
	if p.Frozen && (upd.Title != nil || upd.Description != nil || upd.Tone != nil) {
		return Period{}, ErrFrozen
	}
	if upd.Title != nil {
		p.Title = *upd.Title
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Tone != nil {
		p.Tone = *upd.Tone
	}
	s.touchLocked()
	return *p, nil
}

// EventUpdate carries optional field changes for an event.
type EventUpdate struct {
	Title       *string
	Description *string
	Tone        *Tone
}

// UpdateEvent applies field changes, rejecting them if the event is
// frozen.
func (s *Store) UpdateEvent(id uuid.UUID, upd EventUpdate) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findEventIndexByIDLocked(id)
	if !ok {
		return Event{}, &NotFoundError{Kind: KindEvent, Title: id.String()}
	}
	e := &s.gs.Events[i]
	if e.Frozen && (upd.Title != nil || upd.Description != nil || upd.Tone != nil) {
		return Event{}, ErrFrozen
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Description != nil {
		e.Description = *upd.Description
	}
	if upd.Tone != nil {
		e.Tone = *upd.Tone
	}
	s.touchLocked()
	return *e, nil
}

// SceneUpdate carries optional field changes for a scene. The answer
// stays writable after a scene freezes; question and tone do not.
type SceneUpdate struct {
	Question *string
	Answer   *string
	Tone     *Tone
}

// UpdateScene applies field changes, rejecting frozen-field edits.
func (s *Store) UpdateScene(id uuid.UUID, upd SceneUpdate) (Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findSceneIndexByIDLocked(id)
	if !ok {
		return Scene{}, &NotFoundError{Kind: KindScene, Title: id.String()}
	}
	sc := &s.gs.Scenes[i]
	if sc.Frozen && (upd.Question != nil || upd.Tone != nil) {
		return Scene{}, ErrFrozen
	}
	if upd.Question != nil {
		sc.Question = *upd.Question
	}
	if upd.Answer != nil {
		sc.Answer = *upd.Answer
	}
	if upd.Tone != nil {
		sc.Tone = *upd.Tone
	}
	s.touchLocked()
	return *sc, nil
}

// DeletePeriod removes a period, its events and scenes, and every
// conversation they owned. Bookend references to it are cleared.
func (s *Store) DeletePeriod(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findPeriodIndexByIDLocked(id)
	if !ok {
		return &NotFoundError{Kind: KindPeriod, Title: id.String()}
	}

	for e := len(s.gs.Events) - 1; e >= 0; e-- {
		if s.gs.Events[e].PeriodID == id {
			s.deleteEventAtLocked(e)
		}
	}

	s.dropConversationLocked(s.gs.Periods[i].ConversationID)
	s.gs.Periods = append(s.gs.Periods[:i], s.gs.Periods[i+1:]...)
	for j := range s.gs.Periods {
		s.gs.Periods[j].Order = j
	}

	if s.gs.Setup.Bookends.Start != nil && *s.gs.Setup.Bookends.Start == id {
		s.gs.Setup.Bookends.Start = nil
	}
	if s.gs.Setup.Bookends.End != nil && *s.gs.Setup.Bookends.End == id {
		s.gs.Setup.Bookends.End = nil
	}
	s.touchLocked()
	return nil
}

// DeleteEvent removes an event, its scenes and their conversations.
func (s *Store) DeleteEvent(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findEventIndexByIDLocked(id)
	if !ok {
		return &NotFoundError{Kind: KindEvent, Title: id.String()}
	}
	s.deleteEventAtLocked(i)
	s.renumberEventsLocked()
	s.touchLocked()
	return nil
}

func (s *Store) deleteEventAtLocked(i int) {
	eventID := s.gs.Events[i].ID
	for j := len(s.gs.Scenes) - 1; j >= 0; j-- {
		if s.gs.Scenes[j].EventID == eventID {
			s.dropConversationLocked(s.gs.Scenes[j].ConversationID)
			s.gs.Scenes = append(s.gs.Scenes[:j], s.gs.Scenes[j+1:]...)
		}
	}
	s.dropConversationLocked(s.gs.Events[i].ConversationID)
	s.gs.Events = append(s.gs.Events[:i], s.gs.Events[i+1:]...)
}

// DeleteScene removes a scene and its conversation.
func (s *Store) DeleteScene(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findSceneIndexByIDLocked(id)
	if !ok {
		return &NotFoundError{Kind: KindScene, Title: id.String()}
	}
	s.dropConversationLocked(s.gs.Scenes[i].ConversationID)
	s.gs.Scenes = append(s.gs.Scenes[:i], s.gs.Scenes[i+1:]...)
	s.renumberScenesLocked()
	s.touchLocked()
	return nil
}

func (s *Store) dropConversationLocked(id uuid.UUID) {
	delete(s.gs.Conversations, id)
	delete(s.byConversation, id)
}

// PeriodsInOrder returns a copy of the periods in chronological order.
func (s *Store) PeriodsInOrder() []Period {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Period, len(s.gs.Periods))
	copy(out, s.gs.Periods)
	return out
}

// EventsForPeriod returns a period's events in order.
func (s *Store) EventsForPeriod(periodID uuid.UUID) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, 0)
	for i := range s.gs.Events {
		if s.gs.Events[i].PeriodID == periodID {
			out = append(out, s.gs.Events[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// ScenesForEvent returns an event's scenes in order.
func (s *Store) ScenesForEvent(eventID uuid.UUID) []Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Scene, 0)
	for i := range s.gs.Scenes {
		if s.gs.Scenes[i].EventID == eventID {
			out = append(out, s.gs.Scenes[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
