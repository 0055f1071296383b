package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jwebster45206/timeline-engine/pkg/chat"
	"github.com/jwebster45206/timeline-engine/pkg/command"
	"github.com/jwebster45206/timeline-engine/pkg/prompts"
	"github.com/jwebster45206/timeline-engine/pkg/timeline"
)

// Provider is the AI collaborator contract. Swapping implementations
// must not change parser or executor behavior.
type Provider interface {
	GenerateResponse(ctx context.Context, messages []chat.PromptMessage) (string, error)
}

// Saver is the persistence collaborator, invoked best-effort after
// mutations. Save failures are logged and swallowed; data loss is
// acceptable degradation, a crash is not.
type Saver interface {
	SaveGame(ctx context.Context, gs *timeline.GameState) error
}

// TurnResult reports what one processed AI response did.
type TurnResult struct {
	// AssistantMessageID is the stored assistant message carrying the
	// raw response (reparse target).
	AssistantMessageID uuid.UUID

	// Created lists entities created or updated by directives, in order.
	Created []timeline.EntityRef

	// NarrativeConversation is where the response narrative landed:
	// the newest created entity's conversation, or the conversation
	// the turn started in.
	NarrativeConversation uuid.UUID

	// RestoreInput holds the user's message text when the provider
	// call failed and the text should return to the input box.
	RestoreInput string
}

// Session runs the human/AI turn loop over one game: post message,
// await one provider call, parse, execute, save. Only one call is in
// flight per conversation at a time; the pending-message mechanism
// makes that call's optimistic state reconcilable.
type Session struct {
	store       *timeline.Store
	exec        *Executor
	provider    Provider
	saver       Saver
	logger      *slog.Logger
	recentLimit int
}

// NewSession wires the turn pipeline.
func NewSession(store *timeline.Store, provider Provider, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		store:       store,
		exec:        NewExecutor(store, logger),
		provider:    provider,
		logger:      logger,
		recentLimit: prompts.DefaultRecentLimit,
	}
}

// WithSaver attaches the persistence collaborator.
func (s *Session) WithSaver(saver Saver) *Session {
	s.saver = saver
	return s
}

// WithRecentLimit overrides the uncached history window.
func (s *Session) WithRecentLimit(n int) *Session {
	if n > 0 {
		s.recentLimit = n
	}
	return s
}

// Store exposes the underlying store for the UI layer.
func (s *Session) Store() *timeline.Store {
	return s.store
}

func (s *Session) humanPlayer() timeline.Player {
	for _, p := range s.store.State().Players {
		if !p.IsAI {
			return p
		}
	}
	return timeline.Player{ID: "human", Name: "Player"}
}

func (s *Session) aiPlayer() timeline.Player {
	for _, p := range s.store.State().Players {
		if p.IsAI {
			return p
		}
	}
	return timeline.Player{ID: "ai", Name: "AI", IsAI: true}
}

// HandleUserMessage runs one full turn: store the user's message as
// pending, call the provider, then parse and execute the response. On
// provider failure the pending message is rolled back and its text
// returned for resubmission.
func (s *Session) HandleUserMessage(ctx context.Context, conversationID uuid.UUID, text string) (*TurnResult, error) {
	human := s.humanPlayer()
	userMsg, err := s.store.AddMessageWithID(conversationID, chat.Message{
		ID:         uuid.New(),
		Role:       chat.RoleUser,
		PlayerID:   human.ID,
		PlayerName: human.Name,
		Content:    text,
		Pending:    true,
	})
	if err != nil {
		return nil, err
	}

	pctx, err := prompts.New().
		WithState(s.store.State()).
		WithCurrentConversation(conversationID).
		WithRecentLimit(s.recentLimit).
		WithUserMessage(text).
		Build()
	if err != nil {
		_ = s.store.RemoveMessage(conversationID, userMsg.ID)
		return nil, err
	}
	s.logger.Debug("built prompt context",
		"cached_tokens", prompts.EstimateTokens(pctx.Cached),
		"recent_messages", len(pctx.Recent))

	raw, err := s.provider.GenerateResponse(ctx, pctx.Messages())
	if err != nil {
		// Roll back the optimistic message and restore its text.
		_ = s.store.RemoveMessage(conversationID, userMsg.ID)
		if _, postErr := s.store.AddMessage(conversationID, chat.Message{
			Role:    chat.RoleError,
			Content: "The AI call failed. Your message was returned to the input box; try sending it again.",
		}); postErr != nil {
			s.logger.Error("failed to post provider error", "error", postErr)
		}
		s.save(ctx)
		return &TurnResult{RestoreInput: text}, fmt.Errorf("provider call failed: %w", err)
	}

	pending := false
	if err := s.store.UpdateMessage(conversationID, userMsg.ID, timeline.MessageUpdate{Pending: &pending}); err != nil {
		s.logger.Error("failed to settle pending message", "error", err)
	}

	result := s.processResponse(conversationID, raw)
	s.save(ctx)
	return result, nil
}

// processResponse runs the parse -> execute -> narrative routing
// pipeline shared by live turns, reruns, and (minus routing) reparses.
func (s *Session) processResponse(conversationID uuid.UUID, raw string) *TurnResult {
	ai := s.aiPlayer()
	res := command.Parse(raw)

	result := &TurnResult{AssistantMessageID: uuid.New()}
	var lastCreated *timeline.EntityRef
	for _, cmd := range res.Commands {
		if cmd.IsNone() {
			continue
		}
		ref, err := s.exec.Execute(cmd, conversationID, ai)
		if err != nil {
			// The executor already surfaced the failure; other
			// directives in the same response still run.
			s.logger.Warn("directive failed", "directive", cmd.Raw, "error", err)
			continue
		}
		s.store.RecordExecuted(result.AssistantMessageID, cmd.Raw)
		if ref != nil {
			result.Created = append(result.Created, *ref)
			lastCreated = ref
		}
	}

	// Narrative after creation directives teleports into the newest
	// entity's own conversation; the meta chat keeps only the log line.
	// A directive-only response has nothing to teleport, so the
	// assistant message stays in the originating conversation where
	// its raw content remains reachable for reparse.
	target := conversationID
	if lastCreated != nil && res.Remaining != "" {
		if convID, ok := s.store.ConversationOf(*lastCreated); ok {
			target = convID
		}
	}
	result.NarrativeConversation = target

	if _, err := s.store.AddMessageWithID(target, chat.Message{
		ID:         result.AssistantMessageID,
		Role:       chat.RoleAssistant,
		PlayerID:   ai.ID,
		PlayerName: ai.Name,
		Content:    res.Remaining,
		RawContent: raw,
	}); err != nil {
		s.logger.Error("failed to store assistant message", "error", err)
	}
	return result
}

// Reparse re-runs the directive pipeline over an already-stored
// assistant message. Directives recorded as executed are skipped, so
// reparsing is idempotent; directives that previously failed on a
// missing reference are retried. Narrative is not re-routed.
func (s *Session) Reparse(ctx context.Context, messageID uuid.UUID) error {
	convID, msg, ok := s.store.FindMessage(messageID)
	if !ok {
		return fmt.Errorf("message %s: %w", messageID, timeline.ErrNotFound)
	}
	if msg.RawContent == "" {
		return fmt.Errorf("message %s has no raw content to reparse", messageID)
	}

	ai := s.aiPlayer()
	res := command.Parse(msg.RawContent)
	for _, cmd := range res.Commands {
		if cmd.IsNone() || s.store.WasExecuted(messageID, cmd.Raw) {
			continue
		}
		if _, err := s.exec.Execute(cmd, convID, ai); err != nil {
			s.logger.Warn("directive failed on reparse", "directive", cmd.Raw, "error", err)
			continue
		}
		s.store.RecordExecuted(messageID, cmd.Raw)
	}
	s.save(ctx)
	return nil
}

// RerunFromMessage deletes the target message and everything after it
// in its conversation, then re-issues the provider call and processes
// the fresh response through the same pipeline.
func (s *Session) RerunFromMessage(ctx context.Context, messageID uuid.UUID) (*TurnResult, error) {
	convID, _, ok := s.store.FindMessage(messageID)
	if !ok {
		return nil, fmt.Errorf("message %s: %w", messageID, timeline.ErrNotFound)
	}
	if _, err := s.store.TruncateFrom(convID, messageID); err != nil {
		return nil, err
	}

	pctx, err := prompts.New().
		WithState(s.store.State()).
		WithCurrentConversation(convID).
		WithRecentLimit(s.recentLimit).
		Build()
	if err != nil {
		return nil, err
	}

	raw, err := s.provider.GenerateResponse(ctx, pctx.Messages())
	if err != nil {
		if _, postErr := s.store.AddMessage(convID, chat.Message{
			Role:    chat.RoleError,
			Content: "The AI call failed while rerunning. Try again.",
		}); postErr != nil {
			s.logger.Error("failed to post provider error", "error", postErr)
		}
		s.save(ctx)
		return nil, fmt.Errorf("provider call failed: %w", err)
	}

	result := s.processResponse(convID, raw)
	s.save(ctx)
	return result, nil
}

// EndTurn freezes the open item and passes play to the next player.
func (s *Session) EndTurn(ctx context.Context) {
	s.store.EndTurn()
	s.save(ctx)
}

func (s *Session) save(ctx context.Context) {
	if s.saver == nil {
		return
	}
	if err := s.saver.SaveGame(ctx, s.store.State()); err != nil {
		s.logger.Warn("failed to save game", "error", err)
	}
}
