package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/yeisme/filterbot/pkg/internal/model"
	"github.com/yeisme/filterbot/pkg/internal/storage/record"
	"github.com/yeisme/filterbot/pkg/log"
	"github.com/yeisme/filterbot/pkg/queue"
)

// UserService 用户与会话登记.
type UserService struct {
	users  record.UserStore
	chats  record.ChatStore
	events queue.Publisher
	logger zerolog.Logger
}

// NewUserService 创建登记服务，events 为 nil 时不发布事件.
func NewUserService(users record.UserStore, chats record.ChatStore, events queue.Publisher) *UserService {
	return &UserService{users: users, chats: chats, events: events, logger: log.Component("users")}
}

// Register 首次出现时登记用户并发布 fb.user.joined.
func (s *UserService) Register(ctx context.Context, u model.UserRecord) (bool, error) {
	created, err := s.users.AddUser(ctx, u)
	if err != nil || !created {
		return false, err
	}

	s.logger.Info().Int64("user_id", u.UserID).Str("username", u.Username).Msg("new user")

	if s.events != nil {
		err := queue.PublishUserJoined(ctx, s.events, queue.UserJoinedPayload{
			UserID:    u.UserID,
			Username:  u.Username,
			FirstName: u.FirstName,
		})
		if err != nil {
			s.logger.Warn().Err(err).Msg("publish user joined failed")
		}
	}

	return true, nil
}

// RegisterChat 首次出现时登记群组或频道并发布 fb.chat.joined.
func (s *UserService) RegisterChat(ctx context.Context, c model.ChatRecord) (bool, error) {
	created, err := s.chats.AddChat(ctx, c)
	if err != nil || !created {
		return false, err
	}

	s.logger.Info().Int64("chat_id", c.ChatID).Str("type", c.Type).Msg("new chat")

	if s.events != nil {
		err := queue.PublishChatJoined(ctx, s.events, queue.ChatJoinedPayload{
			ChatID: c.ChatID,
			Type:   c.Type,
			Title:  c.Title,
		})
		if err != nil {
			s.logger.Warn().Err(err).Msg("publish chat joined failed")
		}
	}

	return true, nil
}

// IsBanned 判断用户是否被封禁. 未登记或存储不可用时视为未封禁.
func (s *UserService) IsBanned(ctx context.Context, userID int64) bool {
	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, record.ErrNotFound) {
		return false
	}

	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("ban lookup failed")
		return false
	}

	return u.Banned
}

// SetBanned 封禁或解封用户.
func (s *UserService) SetBanned(ctx context.Context, userID int64, banned bool) error {
	if err := s.users.SetBanned(ctx, userID, banned); err != nil {
		return err
	}

	s.logger.Info().Int64("user_id", userID).Bool("banned", banned).Msg("ban status changed")

	return nil
}
