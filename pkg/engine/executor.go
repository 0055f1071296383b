// Package engine interprets parsed directives against the game state
// and drives the turn pipeline around the AI provider.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jwebster45206/timeline-engine/pkg/chat"
	"github.com/jwebster45206/timeline-engine/pkg/command"
	"github.com/jwebster45206/timeline-engine/pkg/timeline"
)

// Executor applies one directive at a time to the store.
//
// Uniform rules for create directives: parent references resolve by
// title, a failed resolution posts an error-role message to the meta
// conversation and aborts that directive only, and every successful
// creation posts a system message to the meta conversation carrying a
// linkTo for the new entity. The meta conversation stays a terse
// creation log; prose belongs in entity threads.
type Executor struct {
	store  *timeline.Store
	logger *slog.Logger
}

// NewExecutor creates an executor over a store.
func NewExecutor(store *timeline.Store, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{store: store, logger: logger}
}

// Execute applies a single directive in the context of the conversation
// the player is viewing. Returns the created entity, if any.
func (e *Executor) Execute(cmd command.Command, currentConversationID uuid.UUID, player timeline.Player) (*timeline.EntityRef, error) {
	switch cmd.Type {
	case command.TypeNone:
		return nil, nil
	case command.TypeCreatePeriod:
		return e.createPeriod(cmd, player)
	case command.TypeCreateStartBookend:
		return e.setBookend(timeline.BookendStart, cmd, player)
	case command.TypeCreateEndBookend:
		return e.setBookend(timeline.BookendEnd, cmd, player)
	case command.TypeCreateEvent:
		return e.createEvent(cmd, player)
	case command.TypeCreateScene:
		return e.createScene(cmd, player)
	case command.TypeAddPalette:
		return nil, e.addPalette(cmd, currentConversationID, player)
	case command.TypeEditName, command.TypeEditDescription, command.TypeEditTone:
		return nil, e.edit(cmd, currentConversationID)
	default:
		return nil, fmt.Errorf("unknown command type: %s", cmd.Type)
	}
}

func (e *Executor) metaID() uuid.UUID {
	return e.store.State().MetaConversationID
}

// postMeta appends a creation-log message to the meta conversation with
// its linkTo attached at creation time.
func (e *Executor) postMeta(content string, ref timeline.EntityRef) {
	_, err := e.store.AddMessage(e.metaID(), chat.Message{
		Role:    chat.RoleSystem,
		Content: content,
		Metadata: &chat.Metadata{
			LinkTo: &chat.LinkTo{Type: string(ref.Kind), ID: ref.ID},
		},
	})
	if err != nil {
		e.logger.Error("failed to post meta message", "error", err)
	}
}

func (e *Executor) postMetaError(content string) {
	if _, err := e.store.AddMessage(e.metaID(), chat.Message{
		Role:    chat.RoleError,
		Content: content,
	}); err != nil {
		e.logger.Error("failed to post meta error", "error", err)
	}
}

func (e *Executor) postCurrent(conversationID uuid.UUID, role, content string) {
	if _, err := e.store.AddMessage(conversationID, chat.Message{
		Role:    role,
		Content: content,
	}); err != nil {
		e.logger.Error("failed to post message", "conversation", conversationID, "error", err)
	}
}

func (e *Executor) createPeriod(cmd command.Command, player timeline.Player) (*timeline.EntityRef, error) {
	p, err := e.store.AddPeriod(timeline.PeriodSpec{
		Title:       cmd.Title,
		Description: cmd.Description,
		Tone:        timeline.Tone(cmd.Tone),
		Placement:   mapPlacement(cmd.Placement),
		CreatedBy:   player.ID,
	})
	if err != nil {
		return nil, err
	}
	ref := timeline.EntityRef{Kind: timeline.KindPeriod, ID: p.ID}
	e.postMeta(fmt.Sprintf("Created period: %s", p.Title), ref)
	return &ref, nil
}

func (e *Executor) setBookend(pos timeline.BookendPosition, cmd command.Command, player timeline.Player) (*timeline.EntityRef, error) {
	p, created, err := e.store.SetBookend(pos, timeline.PeriodSpec{
		Title:       cmd.Title,
		Description: cmd.Description,
		Tone:        timeline.Tone(cmd.Tone),
		CreatedBy:   player.ID,
	})
	if err != nil {
		if errors.Is(err, timeline.ErrFrozen) {
			e.postMetaError(fmt.Sprintf("Cannot update %s bookend: it is frozen.", pos))
		}
		return nil, err
	}

	ref := timeline.EntityRef{Kind: timeline.KindPeriod, ID: p.ID}
	verb := "Created"
	if !created {
		verb = "Updated"
	}
	// Bookend updates post to meta like creations do, linkTo included,
	// regardless of which conversation the player happens to be viewing.
	e.postMeta(fmt.Sprintf("%s %s bookend: %s", verb, pos, p.Title), ref)
	return &ref, nil
}

func (e *Executor) createEvent(cmd command.Command, player timeline.Player) (*timeline.EntityRef, error) {
	parent, err := e.store.FindPeriodByTitle(cmd.Parent)
	if err != nil {
		e.postMetaError(fmt.Sprintf("Cannot create event %q: period not found: %q", cmd.Title, cmd.Parent))
		return nil, err
	}
	ev, err := e.store.AddEvent(timeline.EventSpec{
		PeriodID:  parent.ID,
		Title:     cmd.Title,
		Tone:      timeline.Tone(cmd.Tone),
		CreatedBy: player.ID,
	})
	if err != nil {
		return nil, err
	}
	ref := timeline.EntityRef{Kind: timeline.KindEvent, ID: ev.ID}
	e.postMeta(fmt.Sprintf("Created event: %s", ev.Title), ref)
	return &ref, nil
}

func (e *Executor) createScene(cmd command.Command, player timeline.Player) (*timeline.EntityRef, error) {
	parent, err := e.store.FindEventByTitle(cmd.Parent)
	if err != nil {
		e.postMetaError(fmt.Sprintf("Cannot create scene: event not found: %q", cmd.Parent))
		return nil, err
	}
	sc, err := e.store.AddScene(timeline.SceneSpec{
		EventID:   parent.ID,
		Question:  cmd.Question,
		CreatedBy: player.ID,
	})
	if err != nil {
		return nil, err
	}
	ref := timeline.EntityRef{Kind: timeline.KindScene, ID: sc.ID}
	e.postMeta(fmt.Sprintf("Created scene: %s", sc.Question), ref)
	return &ref, nil
}

// addPalette appends a palette item. Palette additions are not
// tree-structural, so the confirmation goes to the current
// conversation, wherever that is.
func (e *Executor) addPalette(cmd command.Command, currentConversationID uuid.UUID, player timeline.Player) error {
	item := e.store.AddPaletteItem(cmd.Category, cmd.Item, player.ID)
	e.postCurrent(currentConversationID, chat.RoleSystem,
		fmt.Sprintf("Added to palette (%s): %s", item.Category, item.Text))
	return nil
}

// edit resolves the entity owning the current conversation and applies
// the field change. In the meta conversation there is nothing to edit.
func (e *Executor) edit(cmd command.Command, currentConversationID uuid.UUID) error {
	ref, ok := e.store.OwnerOf(currentConversationID)
	if !ok {
		e.postCurrent(currentConversationID, chat.RoleError,
			"Nothing to edit here: switch to a period, event, or scene conversation first.")
		return timeline.ErrNotFound
	}

	var err error
	var confirmation string
	switch cmd.Type {
	case command.TypeEditName:
		confirmation = fmt.Sprintf("Updated name: %s", cmd.Text)
		switch ref.Kind {
		case timeline.KindPeriod:
			_, err = e.store.UpdatePeriod(ref.ID, timeline.PeriodUpdate{Title: &cmd.Text})
		case timeline.KindEvent:
			_, err = e.store.UpdateEvent(ref.ID, timeline.EventUpdate{Title: &cmd.Text})
		case timeline.KindScene:
			_, err = e.store.UpdateScene(ref.ID, timeline.SceneUpdate{Question: &cmd.Text})
		}
	case command.TypeEditDescription:
		if ref.Kind == timeline.KindScene {
			e.postCurrent(currentConversationID, chat.RoleError,
				"Scenes have no description. Edit the question instead.")
			return timeline.ErrNotFound
		}
		confirmation = "Updated description."
		switch ref.Kind {
		case timeline.KindPeriod:
			_, err = e.store.UpdatePeriod(ref.ID, timeline.PeriodUpdate{Description: &cmd.Text})
		case timeline.KindEvent:
			_, err = e.store.UpdateEvent(ref.ID, timeline.EventUpdate{Description: &cmd.Text})
		}
	case command.TypeEditTone:
		tone := timeline.Tone(cmd.Tone)
		confirmation = fmt.Sprintf("Updated tone: %s", tone)
		switch ref.Kind {
		case timeline.KindPeriod:
			_, err = e.store.UpdatePeriod(ref.ID, timeline.PeriodUpdate{Tone: &tone})
		case timeline.KindEvent:
			_, err = e.store.UpdateEvent(ref.ID, timeline.EventUpdate{Tone: &tone})
		case timeline.KindScene:
			_, err = e.store.UpdateScene(ref.ID, timeline.SceneUpdate{Tone: &tone})
		}
	}

	if err != nil {
		if errors.Is(err, timeline.ErrFrozen) {
			e.postCurrent(currentConversationID, chat.RoleError,
				"This item is frozen and can no longer be edited.")
		}
		return err
	}
	e.postCurrent(currentConversationID, chat.RoleSystem, confirmation)
	return nil
}

func mapPlacement(p *command.Placement) *timeline.Placement {
	if p == nil {
		return nil
	}
	return &timeline.Placement{
		Type:       timeline.PlacementType(p.Type),
		RelativeTo: p.RelativeTo,
	}
}
