package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Uzinex/Boost-v1.0/internal/chatlink"
	"github.com/Uzinex/Boost-v1.0/internal/model"
	"github.com/Uzinex/Boost-v1.0/internal/repository"
)

// Price a customer pays per subscriber/member, in UZT.
var orderPricing = map[model.OrderType]float64{
	model.OrderTypeChannel: 1.8,
	model.OrderTypeGroup:   1.3,
}

// Reward a task taker earns per join, in UZT.
var taskReward = map[model.OrderType]float64{
	model.OrderTypeChannel: 1.2,
	model.OrderTypeGroup:   0.8,
}

const (
	referralPercentage = 0.1
	minRequestedCount  = 10
)

var (
	ErrOrderNotFound           = errors.New("Задание не найдено")
	ErrInsufficientBalance     = errors.New("Недостаточно средств на балансе")
	ErrOwnOrder                = errors.New("Нельзя выполнять собственные задания")
	ErrOrderAlreadyCompleted   = errors.New("Задание уже завершено")
	ErrTaskAlreadyCompleted    = errors.New("Вы уже выполнили это задание")
	ErrNotSubscribed           = errors.New("Бот не подтвердил подписку на канал или группу")
	ErrTelegramRequired        = errors.New("Для проверки подписки требуется привязанный Telegram аккаунт")
	ErrVerificationUnavailable = errors.New("TELEGRAM_BOT_TOKEN не настроен. Невозможно проверить подписку пользователя.")
)

// MembershipOracle answers chat membership questions against the real
// Telegram state. Nil means the deployment runs without a bot credential.
type MembershipOracle interface {
	EnsureBotIsAdmin(ctx context.Context, chatIdentifier string) error
	IsUserMember(ctx context.Context, chatIdentifier string, telegramID int64) (bool, error)
}

type OrderService struct {
	repo   *repository.Repository
	oracle MembershipOracle
}

func NewOrderService(repo *repository.Repository, oracle MembershipOracle) *OrderService {
	return &OrderService{repo: repo, oracle: oracle}
}

func (s *OrderService) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.repo.ListOrders(ctx)
}

type PlaceOrderInput struct {
	Type           model.OrderType
	RequestedCount int
	Link           string
}

// CompleteTaskResult mirrors the payload the Mini App expects after a
// successful completion.
type CompleteTaskResult struct {
	Order              *model.Order       `json:"order"`
	User               *model.UserProfile `json:"user"`
	Reward             float64            `json:"reward"`
	ReferralCommission float64            `json:"referralCommission"`
	CompletedAt        time.Time          `json:"completedAt"`
}

// PlaceOrder validates the chat link, fixes the price from the current
// table, and atomically debits the owner's balance while inserting the
// order. A failed bot-rights check does not block creation: the order is
// stored with botIsAdmin=false and awaits verification.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (*model.Order, *model.UserProfile, error) {
	owner, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	identifier, err := chatlink.ParseIdentifier(in.Link)
	if err != nil {
		return nil, nil, err
	}

	botIsAdmin := false
	if s.oracle == nil {
		log.Printf("[orders] TELEGRAM_BOT_TOKEN не задан. Проверка прав бота пропущена, заказ помечен как требующий проверки.")
	} else if err := s.oracle.EnsureBotIsAdmin(ctx, identifier); err != nil {
		log.Printf("[orders] Не удалось подтвердить права бота: %v", err)
	} else {
		botIsAdmin = true
	}

	requested := in.RequestedCount
	if requested < minRequestedCount {
		requested = minRequestedCount
	}

	pricePerUnit := orderPricing[in.Type]
	totalBudget := float64(requested) * pricePerUnit

	if owner.Balance < totalBudget {
		return nil, nil, ErrInsufficientBalance
	}

	link, err := chatlink.Canonical(in.Link)
	if err != nil {
		return nil, nil, err
	}

	order := &model.Order{
		ID:             uuid.NewString(),
		OwnerID:        owner.ID,
		OwnerName:      owner.FullName,
		OwnerUsername:  owner.Username,
		OwnerAvatar:    owner.AvatarURL,
		Type:           in.Type,
		ChatIdentifier: identifier,
		Link:           link,
		RequestedCount: requested,
		CompletedCount: 0,
		PricePerUnit:   pricePerUnit,
		TotalBudget:    totalBudget,
		Status:         model.OrderStatusActive,
		CreatedAt:      time.Now().UTC(),
		BotIsAdmin:     botIsAdmin,
	}

	updatedOwner, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProfileNotFound):
			return nil, nil, ErrUserNotFound
		case errors.Is(err, repository.ErrInsufficientBalance):
			return nil, nil, ErrInsufficientBalance
		}
		return nil, nil, err
	}

	return order, updatedOwner, nil
}

// CompleteTask verifies real chat membership through the oracle and then
// applies the reward, the order progress bump, and the completion record as
// one transaction. Duplicate submissions lose the race on the storage-level
// uniqueness constraint and surface as ErrTaskAlreadyCompleted.
func (s *OrderService) CompleteTask(ctx context.Context, orderID, userID string, telegramID *int64) (*CompleteTaskResult, error) {
	if s.oracle == nil {
		return nil, ErrVerificationUnavailable
	}
	if telegramID == nil {
		return nil, ErrTelegramRequired
	}

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.OwnerID == userID {
		return nil, ErrOwnOrder
	}
	if order.Status == model.OrderStatusCompleted {
		return nil, ErrOrderAlreadyCompleted
	}

	// Fast-path duplicate check; the unique constraint inside CompleteOrder
	// is what actually closes the race.
	done, err := s.repo.HasCompletion(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, ErrTaskAlreadyCompleted
	}

	isMember, err := s.oracle.IsUserMember(ctx, order.ChatIdentifier, *telegramID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotSubscribed
	}

	user, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	reward := taskReward[order.Type]

	// Reported to the client but never credited to the referrer's balance.
	referralCommission := 0.0
	if user.Referrer != nil {
		rate := user.Referrer.CommissionRate
		if rate == 0 {
			rate = referralPercentage
		}
		referralCommission = reward * rate
	}

	updatedOrder, updatedUser, completion, err := s.repo.CompleteOrder(ctx, orderID, userID, reward)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			return nil, ErrOrderNotFound
		case errors.Is(err, repository.ErrOrderCompleted):
			return nil, ErrOrderAlreadyCompleted
		case errors.Is(err, repository.ErrDuplicateCompletion):
			return nil, ErrTaskAlreadyCompleted
		case errors.Is(err, repository.ErrProfileNotFound):
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &CompleteTaskResult{
		Order:              updatedOrder,
		User:               updatedUser,
		Reward:             reward,
		ReferralCommission: referralCommission,
		CompletedAt:        completion.CompletedAt,
	}, nil
}

func (s *OrderService) ListCompletions(ctx context.Context, userID string) ([]model.TaskCompletion, error) {
	return s.repo.ListCompletions(ctx, userID)
}
