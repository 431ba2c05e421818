// Package service provides business logic for the marketplace platform.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/homer-app/marketplace-platform/internal/chatlist"
	"github.com/homer-app/marketplace-platform/internal/model"
	"github.com/homer-app/marketplace-platform/pkg/logger"
	"github.com/homer-app/marketplace-platform/pkg/metrics"
)

// MessageStream persists chat messages to the event stream and pages them
// back out.
type MessageStream interface {
	PublishChatMessage(ctx context.Context, msg *model.ChatMessage) (uint64, error)
	GetChatMessages(ctx context.Context, chatID string, afterSequence uint64, limit int) ([]model.ChatMessage, uint64, bool, error)
}

// userChats is one user's side of their conversations plus the memoized
// list view.
type userChats struct {
	chats    []*model.ConversationSummary
	revision uint64
	view     chatlist.View
}

// bump marks the user's conversations as changed and drops the cached view.
func (uc *userChats) bump() {
	uc.revision++
	uc.view.Invalidate()
}

// ChatService owns conversation summaries per user. Storage is in-memory
// (would be replaced with a database in production); message bodies go to
// the JetStream publisher.
type ChatService struct {
	stream MessageStream
	logger *logger.Logger

	mu    sync.RWMutex
	users map[string]*userChats
	// byChat indexes participants of each conversation for message fan-out.
	byChat map[string][]string
}

// NewChatService creates a new chat service.
func NewChatService(stream MessageStream, log *logger.Logger) *ChatService {
	return &ChatService{
		stream: stream,
		logger: log,
		users:  make(map[string]*userChats),
		byChat: make(map[string][]string),
	}
}

func (s *ChatService) forUser(userID string) *userChats {
	uc, ok := s.users[userID]
	if !ok {
		uc = &userChats{}
		s.users[userID] = uc
	}
	return uc
}

// Create opens a conversation between the caller and another user about a
// property. Both participants see it in their chat lists.
func (s *ChatService) Create(ctx context.Context, userID string, req *model.CreateChatRequest) (*model.ConversationSummary, error) {
	chatID := uuid.Must(uuid.NewV7()).String()

	s.mu.Lock()
	defer s.mu.Unlock()

	prop := req.Property
	mine := &model.ConversationSummary{
		ChatID:    chatID,
		Property:  &prop,
		OtherUser: &model.UserSummary{ID: req.OtherUser.ID, FullName: req.OtherUser.FullName},
	}
	theirProp := req.Property
	theirs := &model.ConversationSummary{
		ChatID:    chatID,
		Property:  &theirProp,
		OtherUser: &model.UserSummary{ID: userID},
	}

	me := s.forUser(userID)
	me.chats = append(me.chats, mine)
	me.bump()

	them := s.forUser(req.OtherUser.ID)
	them.chats = append(them.chats, theirs)
	them.bump()

	s.byChat[chatID] = []string{userID, req.OtherUser.ID}

	metrics.ChatsTotal.Inc()
	s.logger.Info("chat created",
		zap.String("chat_id", chatID),
		zap.String("user_id", userID),
	)

	return mine, nil
}

// List returns the caller's conversations filtered and sorted for display.
func (s *ChatService) List(ctx context.Context, userID, query string, key chatlist.SortKey) *model.ListChatsResponse {
	s.mu.RLock()
	uc, ok := s.users[userID]
	if !ok {
		s.mu.RUnlock()
		return &model.ListChatsResponse{Chats: []model.ConversationSummary{}}
	}
	convs := make([]model.ConversationSummary, len(uc.chats))
	for i, c := range uc.chats {
		convs[i] = *c
	}
	revision := uc.revision
	s.mu.RUnlock()

	chats, res := uc.view.Get(revision, convs, query, key)
	return &model.ListChatsResponse{
		Chats:    chats,
		Total:    res.Total,
		Shown:    res.Shown,
		Filtered: res.Filtered,
	}
}

// Get returns one of the caller's conversation summaries.
func (s *ChatService) Get(ctx context.Context, userID, chatID string) (*model.ConversationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uc, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("chat not found")
	}
	for _, c := range uc.chats {
		if c.ChatID == chatID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("chat not found")
}

// Send appends a message to a conversation, publishes it, and updates the
// last-message and unread bookkeeping on every participant's summary.
func (s *ChatService) Send(ctx context.Context, userID, chatID string, req *model.SendChatMessageRequest) (*model.ChatMessage, error) {
	s.mu.RLock()
	participants, ok := s.byChat[chatID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("chat not found")
	}
	isParticipant := false
	for _, p := range participants {
		if p == userID {
			isParticipant = true
		}
	}
	if !isParticipant {
		return nil, fmt.Errorf("chat not found")
	}

	now := time.Now()
	msg := &model.ChatMessage{
		ID:        uuid.Must(uuid.NewV7()).String(),
		ChatID:    chatID,
		SenderID:  userID,
		Message:   req.Message,
		CreatedAt: now,
	}

	if s.stream != nil {
		seq, err := s.stream.PublishChatMessage(ctx, msg)
		if err != nil {
			return nil, fmt.Errorf("failed to publish message: %w", err)
		}
		msg.Sequence = seq
	}

	s.mu.Lock()
	for _, p := range participants {
		uc, ok := s.users[p]
		if !ok {
			continue
		}
		for _, c := range uc.chats {
			if c.ChatID != chatID {
				continue
			}
			c.LastMessage = &model.LastMessage{Message: req.Message, Timestamp: now}
			c.LastMessageAt = now.Format(time.RFC3339)
			if p != userID {
				c.UnreadCount++
			}
		}
		uc.bump()
	}
	s.mu.Unlock()

	metrics.ChatMessagesTotal.Inc()
	return msg, nil
}

// Messages pages through a conversation's history from the stream. The
// caller must be a participant.
func (s *ChatService) Messages(ctx context.Context, userID, chatID string, afterSequence uint64, limit int) (*model.ListMessagesResponse, error) {
	if _, err := s.Get(ctx, userID, chatID); err != nil {
		return nil, err
	}
	if s.stream == nil {
		return &model.ListMessagesResponse{Messages: []model.ChatMessage{}}, nil
	}

	msgs, lastSeq, hasMore, err := s.stream.GetChatMessages(ctx, chatID, afterSequence, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	return &model.ListMessagesResponse{
		Messages:     msgs,
		LastSequence: lastSeq,
		HasMore:      hasMore,
	}, nil
}

// MarkRead clears the caller's unread counter for a conversation.
func (s *ChatService) MarkRead(ctx context.Context, userID, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uc, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("chat not found")
	}
	for _, c := range uc.chats {
		if c.ChatID == chatID {
			c.UnreadCount = 0
			uc.bump()
			return nil
		}
	}
	return fmt.Errorf("chat not found")
}
