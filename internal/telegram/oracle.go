// Package telegram wraps the Bot API calls the marketplace depends on:
// resolving the bot's own identity and checking chat membership. It is the
// trust boundary for everything the ledger pays out.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

var (
	ErrBotNotAdmin = errors.New("Бот должен быть администратором выбранного канала или группы")

	// Wrapped around transport/API failures so callers can tell "I could
	// not check" apart from "the check said no".
	ErrRightsCheckFailed       = errors.New("Не удалось проверить права бота")
	ErrSubscriptionCheckFailed = errors.New("Не удалось проверить подписку")
)

const requestTimeout = 10 * time.Second

type Oracle struct {
	bot *bot.Bot
	me  *models.User // fetched once at startup, never refreshed
}

// NewOracle creates the adapter and resolves the bot identity. The identity
// is cached for the process lifetime; membership answers are never cached
// because membership can change between checks.
func NewOracle(ctx context.Context, token string) (*Oracle, error) {
	b, err := bot.New(token,
		bot.WithSkipGetMe(),
		bot.WithHTTPClient(requestTimeout, &http.Client{Timeout: requestTimeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("create telegram client: %w", err)
	}

	me, err := b.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("telegram getMe: %w", err)
	}

	return &Oracle{bot: b, me: me}, nil
}

func (o *Oracle) BotUsername() string {
	return o.me.Username
}

// EnsureBotIsAdmin verifies the bot holds administrator or creator rights in
// the chat. Any API failure is wrapped with the remote description so the
// caller can surface it.
func (o *Oracle) EnsureBotIsAdmin(ctx context.Context, chatIdentifier string) error {
	member, err := o.bot.GetChatMember(ctx, &bot.GetChatMemberParams{
		ChatID: chatIdentifier,
		UserID: o.me.ID,
	})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRightsCheckFailed, err)
	}

	if !isAdministrator(member.Type) {
		return ErrBotNotAdmin
	}
	return nil
}

// IsUserMember reports whether the user belongs to the chat. A Bad Request
// from the API means Telegram could resolve the question and the answer is
// "no" (user never interacted with the chat); every other failure is a real
// verification outage and propagates as an error.
func (o *Oracle) IsUserMember(ctx context.Context, chatIdentifier string, telegramID int64) (bool, error) {
	member, err := o.bot.GetChatMember(ctx, &bot.GetChatMemberParams{
		ChatID: chatIdentifier,
		UserID: telegramID,
	})
	if err != nil {
		if errors.Is(err, bot.ErrorBadRequest) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %s", ErrSubscriptionCheckFailed, err)
	}

	return isMember(member.Type), nil
}

func isAdministrator(t models.ChatMemberType) bool {
	return t == models.ChatMemberTypeOwner || t == models.ChatMemberTypeAdministrator
}

func isMember(t models.ChatMemberType) bool {
	return isAdministrator(t) || t == models.ChatMemberTypeMember
}
