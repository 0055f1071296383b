package timeline

import (
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/timeline-engine/pkg/chat"
)

// AddMessage appends a message to a conversation, assigning an id and
// timestamp. Returns the stored message.
func (s *Store) AddMessage(conversationID uuid.UUID, msg chat.Message) (chat.Message, error) {
	msg.ID = uuid.New()
	return s.appendMessage(conversationID, msg)
}

// AddMessageWithID appends a message keeping the caller-supplied id.
// Used for pending messages that are later reconciled with
// UpdateMessage or RemoveMessage under the same id.
func (s *Store) AddMessageWithID(conversationID uuid.UUID, msg chat.Message) (chat.Message, error) {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	return s.appendMessage(conversationID, msg)
}

func (s *Store) appendMessage(conversationID uuid.UUID, msg chat.Message) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.gs.Conversations[conversationID]
	if !ok {
		return chat.Message{}, &NotFoundError{Kind: "conversation", Title: conversationID.String()}
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	conv.Messages = append(conv.Messages, msg)
	s.touchLocked()
	return msg, nil
}

// MessageUpdate carries optional field changes for a stored message.
type MessageUpdate struct {
	Content    *string
	Pending    *bool
	RawContent *string
}

// UpdateMessage edits a stored message in place.
func (s *Store) UpdateMessage(conversationID, messageID uuid.UUID, upd MessageUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.gs.Conversations[conversationID]
	if !ok {
		return &NotFoundError{Kind: "conversation", Title: conversationID.String()}
	}
	for i := range conv.Messages {
		if conv.Messages[i].ID != messageID {
			continue
		}
		if upd.Content != nil {
			conv.Messages[i].Content = *upd.Content
		}
		if upd.Pending != nil {
			conv.Messages[i].Pending = *upd.Pending
		}
		if upd.RawContent != nil {
			conv.Messages[i].RawContent = *upd.RawContent
		}
		s.touchLocked()
		return nil
	}
	return &NotFoundError{Kind: "message", Title: messageID.String()}
}

// RemoveMessage deletes a message from a conversation.
func (s *Store) RemoveMessage(conversationID, messageID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.gs.Conversations[conversationID]
	if !ok {
		return &NotFoundError{Kind: "conversation", Title: conversationID.String()}
	}
	for i := range conv.Messages {
		if conv.Messages[i].ID == messageID {
			conv.Messages = append(conv.Messages[:i], conv.Messages[i+1:]...)
			s.touchLocked()
			return nil
		}
	}
	return &NotFoundError{Kind: "message", Title: messageID.String()}
}

// FindMessage locates a message across every conversation.
func (s *Store) FindMessage(messageID uuid.UUID) (uuid.UUID, chat.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, conv := range s.gs.Conversations {
		for i := range conv.Messages {
			if conv.Messages[i].ID == messageID {
				return id, conv.Messages[i], true
			}
		}
	}
	return uuid.Nil, chat.Message{}, false
}

// TruncateFrom removes a message and everything after it in the same
// conversation. Returns the removed messages in order.
func (s *Store) TruncateFrom(conversationID, messageID uuid.UUID) ([]chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.gs.Conversations[conversationID]
	if !ok {
		return nil, &NotFoundError{Kind: "conversation", Title: conversationID.String()}
	}
	for i := range conv.Messages {
		if conv.Messages[i].ID == messageID {
			removed := make([]chat.Message, len(conv.Messages)-i)
			copy(removed, conv.Messages[i:])
			conv.Messages = conv.Messages[:i]
			s.touchLocked()
			return removed, nil
		}
	}
	return nil, &NotFoundError{Kind: "message", Title: messageID.String()}
}

// Conversation returns a conversation by id.
func (s *Store) Conversation(id uuid.UUID) (*chat.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.gs.Conversations[id]
	return conv, ok
}

// WasExecuted reports whether a directive of a message has already been
// applied. Reparsing skips these; directives that failed on a missing
// reference are never recorded, so a reparse retries them.
func (s *Store) WasExecuted(messageID uuid.UUID, directive string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.gs.ExecutedDirectives[messageID] {
		if d == directive {
			return true
		}
	}
	return false
}

// RecordExecuted marks one directive of a message as applied.
func (s *Store) RecordExecuted(messageID uuid.UUID, directive string) {
	if messageID == uuid.Nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.gs.ExecutedDirectives[messageID] {
		if d == directive {
			return
		}
	}
	s.gs.ExecutedDirectives[messageID] = append(s.gs.ExecutedDirectives[messageID], directive)
	s.touchLocked()
}
