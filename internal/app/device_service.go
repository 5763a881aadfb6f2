package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"padel_notifier/internal/domain/push"
	"padel_notifier/internal/domain/user"
)

var ErrInvalidDevice = errors.New("invalid device registration")

const linkCodeTTL = 15 * time.Minute

// DeviceService registers and removes the device tokens push is delivered to.
type DeviceService struct {
	users     user.Repository
	linkCodes user.LinkCodeRepository
	logger    logrus.FieldLogger
	now       func() time.Time
}

func NewDeviceService(users user.Repository, linkCodes user.LinkCodeRepository, logger logrus.FieldLogger) *DeviceService {
	return &DeviceService{users: users, linkCodes: linkCodes, logger: logger, now: time.Now}
}

// Register stores token as the user's device for platform, replacing any previous one.
func (s *DeviceService) Register(ctx context.Context, userID string, platform push.Platform, token string) error {
	token = strings.TrimSpace(token)
	if userID == "" || token == "" {
		return fmt.Errorf("%w: user id and token are required", ErrInvalidDevice)
	}
	if platform == push.PlatformUnknown || platform == push.PlatformLegacy {
		return fmt.Errorf("%w: platform %q cannot be registered", ErrInvalidDevice, platform)
	}
	if err := s.users.SetToken(ctx, userID, platform, token); err != nil {
		return fmt.Errorf("failed to register %s device for user %s: %w", platform, userID, err)
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "platform": platform, "token": push.Truncate(token)}).Info("device registered")
	return nil
}

func (s *DeviceService) Unregister(ctx context.Context, userID string, platform push.Platform) error {
	if err := s.users.RemoveToken(ctx, userID, platform); err != nil {
		return fmt.Errorf("failed to remove %s device for user %s: %w", platform, userID, err)
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "platform": platform}).Info("device removed")
	return nil
}

// IssueTelegramLink creates a one-time code the user sends to the bot as /start <code>.
func (s *DeviceService) IssueTelegramLink(ctx context.Context, userID string) (*user.LinkCode, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to issue link code for user %s: %w", userID, err)
	}
	code := user.LinkCode{
		Code:      strings.ReplaceAll(uuid.NewString(), "-", ""),
		UserID:    userID,
		ExpiresAt: s.now().UTC().Add(linkCodeTTL),
	}
	if err := s.linkCodes.Create(ctx, code); err != nil {
		return nil, fmt.Errorf("failed to issue link code for user %s: %w", userID, err)
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "expires_at": code.ExpiresAt}).Info("telegram link code issued")
	return &code, nil
}

// LinkTelegram redeems code and registers chatID as the Telegram device of its user.
func (s *DeviceService) LinkTelegram(ctx context.Context, code, chatID string) (string, error) {
	userID, err := s.linkCodes.Redeem(ctx, strings.TrimSpace(code), s.now().UTC())
	if err != nil {
		return "", err
	}
	if err := s.Register(ctx, userID, push.PlatformTelegram, chatID); err != nil {
		return "", err
	}
	return userID, nil
}

// UnlinkTelegram removes the user's Telegram device only when it is chatID.
func (s *DeviceService) UnlinkTelegram(ctx context.Context, userID, chatID string) error {
	if err := s.users.RemoveMatchingToken(ctx, userID, push.PlatformTelegram, chatID); err != nil {
		return fmt.Errorf("failed to unlink telegram chat for user %s: %w", userID, err)
	}
	s.logger.WithField("user_id", userID).Info("telegram chat unlinked")
	return nil
}
