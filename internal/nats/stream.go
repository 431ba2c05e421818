package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/homer-app/marketplace-platform/internal/model"
	"github.com/homer-app/marketplace-platform/pkg/metrics"
)

const (
	// StreamName is the name of the marketplace stream.
	StreamName = "MARKETPLACE"

	// SubjectPrefix is the prefix for all marketplace subjects.
	SubjectPrefix = "mkt"
)

// StreamManager handles JetStream stream operations.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream ensures the marketplace stream exists with proper configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	// Check if stream exists
	stream, err := js.Stream(ctx, StreamName)
	if err == nil {
		if info, ierr := stream.Info(ctx); ierr == nil {
			metrics.NATSStreamMessages.WithLabelValues(StreamName).Set(float64(info.State.Msgs))
		}
		return nil // Stream already exists
	}

	// Create stream
	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      365 * 24 * time.Hour,
		MaxBytes:    100 * 1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		DenyDelete:  true,
		DenyPurge:   true,
		Description: "Chat messages and verification lifecycle events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// ChatSubject returns the subject for a chat message.
func ChatSubject(chatID string) string {
	return fmt.Sprintf("%s.chat.%s.msg", SubjectPrefix, chatID)
}

// VerificationSubject returns the subject for a verification event.
func VerificationSubject(userID string, kind model.VerificationKind, eventType model.EventType) string {
	return fmt.Sprintf("%s.verification.%s.%s.%s", SubjectPrefix, userID, kind, eventType)
}

// ChatFilter returns the filter subject for all messages in a conversation.
func ChatFilter(chatID string) string {
	return fmt.Sprintf("%s.chat.%s.>", SubjectPrefix, chatID)
}

// PublishChatMessage publishes a chat message to JetStream.
func (m *StreamManager) PublishChatMessage(ctx context.Context, msg *model.ChatMessage) (uint64, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal message: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, ChatSubject(msg.ChatID), data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish message: %w", err)
	}

	return ack.Sequence, nil
}

// PublishVerificationEvent publishes a verification event to JetStream.
func (m *StreamManager) PublishVerificationEvent(ctx context.Context, event *model.VerificationEvent) (uint64, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := VerificationSubject(event.UserID, event.Kind, event.Type)
	ack, err := m.client.JetStream().Publish(ctx, subject, data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish event: %w", err)
	}

	return ack.Sequence, nil
}

// GetChatMessages retrieves messages from a conversation starting after a sequence.
func (m *StreamManager) GetChatMessages(ctx context.Context, chatID string, afterSequence uint64, limit int) ([]model.ChatMessage, uint64, bool, error) {
	js := m.client.JetStream()

	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject: ChatFilter(chatID),
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	}

	if afterSequence > 0 {
		consumerConfig.DeliverPolicy = jetstream.DeliverByStartSequencePolicy
		consumerConfig.OptStartSeq = afterSequence + 1
	}

	consumer, err := js.CreateConsumer(ctx, StreamName, consumerConfig)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to create consumer: %w", err)
	}

	var messages []model.ChatMessage
	var lastSequence uint64

	batch, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to fetch messages: %w", err)
	}

	for msg := range batch.Messages() {
		var message model.ChatMessage
		if err := json.Unmarshal(msg.Data(), &message); err != nil {
			continue
		}

		meta, err := msg.Metadata()
		if err == nil {
			message.Sequence = meta.Sequence.Stream
			lastSequence = meta.Sequence.Stream
		}

		messages = append(messages, message)
	}

	if batch.Error() != nil && batch.Error() != context.DeadlineExceeded {
		return nil, 0, false, fmt.Errorf("batch error: %w", batch.Error())
	}

	hasMore := len(messages) == limit

	return messages, lastSequence, hasMore, nil
}
