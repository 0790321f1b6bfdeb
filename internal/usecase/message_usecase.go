package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"comictalk/internal/entity"
	"comictalk/internal/repository"

	"github.com/rs/zerolog"
)

type MessageUsecase interface {
	Send(ctx context.Context, senderId, receiverId int64, body string) (entity.Message, error)
	Between(ctx context.Context, userId, otherUserId int64) ([]entity.Message, error)
	MarkRead(ctx context.Context, senderId, receiverId int64) (int64, error)
	ConversationsFor(ctx context.Context, userId int64) ([]entity.ConversationSummary, error)
}

type messageUsecase struct {
	messageRepo repository.MessageRepository
	users       UserUsecase
	log         zerolog.Logger
}

func NewMessageUseCase(messageRepo repository.MessageRepository, users UserUsecase, log zerolog.Logger) MessageUsecase {
	return &messageUsecase{
		messageRepo: messageRepo,
		users:       users,
		log:         log,
	}
}

func (m *messageUsecase) Send(ctx context.Context, senderId, receiverId int64, body string) (entity.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return entity.Message{}, ErrEmptyMessage
	}
	if senderId <= 0 || receiverId <= 0 {
		return entity.Message{}, ErrInvalidUserId
	}

	if err := m.requireUser(ctx, senderId, ErrSenderNotFound); err != nil {
		return entity.Message{}, err
	}
	if err := m.requireUser(ctx, receiverId, ErrReceiverNotFound); err != nil {
		return entity.Message{}, err
	}

	message, err := m.messageRepo.Create(ctx, entity.Message{
		SenderId:   senderId,
		ReceiverId: receiverId,
		Message:    body,
	})
	if err != nil {
		m.log.Error().Err(err).
			Int64("sender_id", senderId).
			Int64("receiver_id", receiverId).
			Msg("create message")
		return entity.Message{}, fmt.Errorf("%w: could not send message", ErrPersistence)
	}

	return message, nil
}

func (m *messageUsecase) requireUser(ctx context.Context, userId int64, missing error) error {
	exists, err := m.users.Exists(ctx, userId)
	if err != nil {
		return err
	}
	if !exists {
		return missing
	}
	return nil
}

func (m *messageUsecase) Between(ctx context.Context, userId, otherUserId int64) ([]entity.Message, error) {
	if userId <= 0 || otherUserId <= 0 {
		return nil, ErrInvalidUserId
	}

	messages, err := m.messageRepo.FindBetween(ctx, userId, otherUserId)
	if err != nil {
		m.log.Error().Err(err).
			Int64("user_id", userId).
			Int64("other_user_id", otherUserId).
			Msg("find messages between")
		return nil, fmt.Errorf("%w: could not load messages", ErrPersistence)
	}

	return messages, nil
}

// MarkRead flips every unread message from senderId to receiverId. Zero
// affected rows is not an error.
func (m *messageUsecase) MarkRead(ctx context.Context, senderId, receiverId int64) (int64, error) {
	if senderId <= 0 || receiverId <= 0 {
		return 0, ErrInvalidUserId
	}

	n, err := m.messageRepo.MarkRead(ctx, senderId, receiverId)
	if err != nil {
		m.log.Error().Err(err).
			Int64("sender_id", senderId).
			Int64("receiver_id", receiverId).
			Msg("mark messages read")
		return 0, fmt.Errorf("%w: could not mark messages as read", ErrPersistence)
	}

	return n, nil
}

func (m *messageUsecase) ConversationsFor(ctx context.Context, userId int64) ([]entity.ConversationSummary, error) {
	if userId <= 0 {
		return nil, ErrInvalidUserId
	}

	messages, err := m.messageRepo.FindInvolving(ctx, userId)
	if err != nil {
		m.log.Error().Err(err).Int64("user_id", userId).Msg("find conversations")
		return nil, fmt.Errorf("%w: could not load conversations", ErrPersistence)
	}

	summaries := foldConversations(userId, messages)
	if len(summaries) == 0 {
		return summaries, nil
	}

	ids := make([]int64, len(summaries))
	for i, s := range summaries {
		ids[i] = s.User.Id
	}

	// A failed profile lookup degrades to id-only summaries.
	users, err := m.users.GetMany(ctx, ids)
	if err != nil {
		m.log.Warn().Err(err).Int64("user_id", userId).Msg("resolve conversation profiles")
		return summaries, nil
	}

	profiles := make(map[int64]entity.UserSummary, len(users))
	for _, user := range users {
		profiles[user.Id] = user.Summary()
	}
	for i := range summaries {
		if p, ok := profiles[summaries[i].User.Id]; ok {
			summaries[i].User = p
		}
	}

	return summaries, nil
}

// foldConversations groups messages by counterpart, keeping the latest message
// and counting unread messages addressed to userId. The result is ordered by
// last message, newest first.
func foldConversations(userId int64, messages []entity.Message) []entity.ConversationSummary {
	index := make(map[int64]int)
	summaries := make([]entity.ConversationSummary, 0)

	for _, msg := range messages {
		other := msg.Counterpart(userId)

		i, ok := index[other]
		if !ok {
			i = len(summaries)
			index[other] = i
			summaries = append(summaries, entity.ConversationSummary{
				User:        entity.UserSummary{Id: other},
				LastMessage: msg,
			})
		} else if msg.After(summaries[i].LastMessage) {
			summaries[i].LastMessage = msg
		}

		if msg.ReceiverId == userId && !msg.IsRead {
			summaries[i].UnreadCount++
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastMessage.After(summaries[j].LastMessage)
	})

	return summaries
}
