package autoreply

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/dmpilot-backend/pkg/redis"
)

// replyLockTTL bounds how long one generation can hold a conversation; a
// crashed worker frees the slot when the key expires.
const replyLockTTL = 30 * time.Second

const replyLockScope = "auto-reply-lock"

// ReplyLimiter allows at most one in-flight reply per conversation.
type ReplyLimiter interface {
	Acquire(ctx context.Context, conversationID uuid.UUID) (bool, error)
	Release(ctx context.Context, conversationID uuid.UUID) error
}

// ConversationLimiter implements ReplyLimiter on redis SetNX so overlapping
// webhook deliveries across instances cannot double-send.
type ConversationLimiter struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewConversationLimiter(store redis.IdempotencyStore) (*ConversationLimiter, error) {
	if store == nil {
		return nil, errors.New("limiter store is required")
	}
	return &ConversationLimiter{store: store, ttl: replyLockTTL}, nil
}

// Acquire reports whether the caller now owns the conversation's reply slot.
func (l *ConversationLimiter) Acquire(ctx context.Context, conversationID uuid.UUID) (bool, error) {
	key := l.store.IdempotencyKey(replyLockScope, conversationID.String())
	set, err := l.store.SetNX(ctx, key, "1", l.ttl)
	if err != nil {
		return false, fmt.Errorf("set reply lock: %w", err)
	}
	return set, nil
}

// Release frees the slot so the next inbound message can reply immediately.
func (l *ConversationLimiter) Release(ctx context.Context, conversationID uuid.UUID) error {
	return l.store.Del(ctx, l.store.IdempotencyKey(replyLockScope, conversationID.String()))
}
