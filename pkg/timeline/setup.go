package timeline

import (
	"strings"

	"github.com/google/uuid"
)

// AddPaletteItem appends a yes/no palette item. Category is normalized
// to lowercase; item text is kept verbatim.
func (s *Store) AddPaletteItem(category, text, createdBy string) PaletteItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := PaletteItem{
		ID:        uuid.New(),
		Category:  strings.ToLower(category),
		Text:      text,
		CreatedBy: createdBy,
	}
	s.gs.Setup.Palette = append(s.gs.Setup.Palette, item)
	s.touchLocked()
	return item
}

// UpdatePalette replaces the whole palette (UI editing).
func (s *Store) UpdatePalette(items []PaletteItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gs.Setup.Palette = items
	s.touchLocked()
}

// UpdateBigPicture sets the one-sentence frame of the whole history.
func (s *Store) UpdateBigPicture(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gs.Setup.BigPicture = text
	s.touchLocked()
}
