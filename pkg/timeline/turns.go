package timeline

// StartGame leaves setup once the big picture and both bookends are in
// place. Both bookends freeze (their setup exemption ends) and play
// begins with the first player.
func (s *Store) StartGame() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gs.Phase != PhaseSetup {
		return ErrWrongPhase
	}
	if s.gs.Setup.BigPicture == "" || s.gs.Setup.Bookends.Start == nil || s.gs.Setup.Bookends.End == nil {
		return ErrSetupIncomplete
	}

	for i := range s.gs.Periods {
		if s.gs.Periods[i].IsBookend {
			s.gs.Periods[i].Frozen = true
		}
	}
	s.gs.Phase = PhaseInitialRound
	s.gs.CurrentTurn = 0
	s.touchLocked()
	return nil
}

// EndTurn freezes the currently unfrozen item, if any, and passes play
// to the next player. Once every player has taken an initial turn the
// game moves from initial_round to playing.
func (s *Store) EndTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.freezeForCreateLocked()
	s.gs.CurrentTurn++
	if s.gs.Phase == PhaseInitialRound && len(s.gs.Players) > 0 && s.gs.CurrentTurn >= len(s.gs.Players) {
		s.gs.Phase = PhasePlaying
	}
	s.touchLocked()
}

// FreezeItem freezes one entity without advancing the turn.
func (s *Store) FreezeItem(ref EntityRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ref.Kind {
	case KindPeriod:
		if i, ok := s.findPeriodIndexByIDLocked(ref.ID); ok {
			s.gs.Periods[i].Frozen = true
			s.touchLocked()
			return nil
		}
	case KindEvent:
		if i, ok := s.findEventIndexByIDLocked(ref.ID); ok {
			s.gs.Events[i].Frozen = true
			s.touchLocked()
			return nil
		}
	case KindScene:
		if i, ok := s.findSceneIndexByIDLocked(ref.ID); ok {
			s.gs.Scenes[i].Frozen = true
			s.touchLocked()
			return nil
		}
	}
	return &NotFoundError{Kind: ref.Kind, Title: ref.ID.String()}
}

// UnfrozenItem reports the single item currently open for editing, or
// nil when everything is frozen. Setup-phase bookends are not counted;
// they stay editable until the game starts.
func (s *Store) UnfrozenItem() *EntityRef {
	s.mu.Lock()
	defer s.mu.Unlock()

	setup := s.gs.Phase == PhaseSetup
	for i := range s.gs.Periods {
		if s.gs.Periods[i].Frozen || (setup && s.gs.Periods[i].IsBookend) {
			continue
		}
		return &EntityRef{Kind: KindPeriod, ID: s.gs.Periods[i].ID}
	}
	for i := range s.gs.Events {
		if !s.gs.Events[i].Frozen {
			return &EntityRef{Kind: KindEvent, ID: s.gs.Events[i].ID}
		}
	}
	for i := range s.gs.Scenes {
		if !s.gs.Scenes[i].Frozen {
			return &EntityRef{Kind: KindScene, ID: s.gs.Scenes[i].ID}
		}
	}
	return nil
}

// SetSelection tracks which entity the UI is focused on. Pass nil to
// clear (meta conversation focus).
func (s *Store) SetSelection(ref *EntityRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gs.CurrentSelection = ref
	s.touchLocked()
}
