package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Uzinex/Boost-v1.0/internal/chatlink"
	"github.com/Uzinex/Boost-v1.0/internal/model"
	"github.com/Uzinex/Boost-v1.0/internal/repository"
)

type fakeOracle struct {
	adminErr  error
	isMember  bool
	memberErr error
}

func (f *fakeOracle) EnsureBotIsAdmin(ctx context.Context, chatIdentifier string) error {
	return f.adminErr
}

func (f *fakeOracle) IsUserMember(ctx context.Context, chatIdentifier string, telegramID int64) (bool, error) {
	return f.isMember, f.memberErr
}

func newMockRepo(t *testing.T) (*repository.Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repository.NewWithDB(sqlx.NewDb(db, "sqlmock")), mock
}

var profileCols = []string{
	"id", "telegram_id", "first_name", "last_name", "full_name", "username", "avatar_url",
	"balance", "lifetime_earned", "lifetime_spent", "orders_placed", "tasks_completed",
	"total_top_ups", "total_top_up_amount", "referrals_count", "referral_earnings",
	"referral_code", "password_hash", "referrer_id", "referrer_name", "referrer_commission_rate", "created_at",
}

var orderCols = []string{
	"id", "owner_id", "owner_name", "owner_username", "owner_avatar", "type", "chat_identifier",
	"link", "requested_count", "completed_count", "price_per_unit", "total_budget", "status", "bot_is_admin", "created_at",
}

func profileRows(id string, balance float64, referrerRate *float64) *sqlmock.Rows {
	var referrerID, referrerName *string
	if referrerRate != nil {
		rid, rname := "referrer-1", "Harry Takaev"
		referrerID, referrerName = &rid, &rname
	}
	return sqlmock.NewRows(profileCols).AddRow(
		id, int64(777), "Ali", nil, "Ali Valiyev", nil, nil,
		balance, 0.0, 0.0, 0, 0,
		0, 0.0, 0, 0.0,
		"REF123", "hash", referrerID, referrerName, referrerRate, time.Now(),
	)
}

func orderRows(id, ownerID, orderType string, requested, completed int, status string) *sqlmock.Rows {
	price := 1.8
	if orderType == "group" {
		price = 1.3
	}
	return sqlmock.NewRows(orderCols).AddRow(
		id, ownerID, "Ali Valiyev", nil, nil, orderType, "@mychannel",
		"https://t.me/mychannel", requested, completed, price, float64(requested)*price, status, true, time.Now(),
	)
}

func expectPlaceOrderTx(mock sqlmock.Sqlmock, userID string, balanceAfter, spentAfter float64, placedAfter int, earningsAfter float64) {
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM user_profiles WHERE id = \$1 FOR UPDATE`).
		WithArgs(userID).
		WillReturnRows(profileRows(userID, balanceAfter+spentAfter, nil))
	mock.ExpectExec(`UPDATE user_profiles`).
		WithArgs(userID, balanceAfter, spentAfter, placedAfter, earningsAfter).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO orders`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
}

func TestPlaceOrderChannelPricing(t *testing.T) {
	repo, mock := newMockRepo(t)
	svc := NewOrderService(repo, nil)

	mock.ExpectQuery(`FROM user_profiles WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnRows(profileRows("user-1", 200, nil))
	expectPlaceOrderTx(mock, "user-1", 20.0, 180.0, 1, 0.0)

	order, owner, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderInput{
		Type:           model.OrderTypeChannel,
		RequestedCount: 100,
		Link:           "t.me/mychannel",
	})
	require.NoError(t, err)

	assert.Equal(t, 1.8, order.PricePerUnit)
	assert.Equal(t, 180.0, order.TotalBudget)
	assert.Equal(t, model.OrderStatusActive, order.Status)
	assert.Equal(t, 0, order.CompletedCount)
	assert.Equal(t, "@mychannel", order.ChatIdentifier)
	assert.Equal(t, "https://t.me/mychannel", order.Link)
	assert.False(t, order.BotIsAdmin) // no oracle configured
	assert.Equal(t, "Ali Valiyev", order.OwnerName)
	assert.Equal(t, 20.0, owner.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderClampsRequestedCount(t *testing.T) {
	repo, mock := newMockRepo(t)
	svc := NewOrderService(repo, nil)

	mock.ExpectQuery(`FROM user_profiles WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnRows(profileRows("user-1", 200, nil))
	expectPlaceOrderTx(mock, "user-1", 182.0, 18.0, 1, 0.0)

	order, _, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderInput{
		Type:           model.OrderTypeChannel,
		RequestedCount: 3,
		Link:           "@mychannel",
	})
	require.NoError(t, err)

	assert.Equal(t, 10, order.RequestedCount)
	assert.Equal(t, 18.0, order.TotalBudget)
}

func TestPlaceOrderGroupPricing(t *testing.T) {
	repo, mock := newMockRepo(t)
	svc := NewOrderService(repo, &fakeOracle{})

	mock.ExpectQuery(`FROM user_profiles WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnRows(profileRows("user-1", 200, nil))
	expectPlaceOrderTx(mock, "user-1", 187.0, 13.0, 1, 0.0)

	order, _, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderInput{
		Type:           model.OrderTypeGroup,
		RequestedCount: 10,
		Link:           "@mygroup",
	})
	require.NoError(t, err)

	assert.Equal(t, 1.3, order.PricePerUnit)
	assert.Equal(t, 13.0, order.TotalBudget)
	assert.True(t, order.BotIsAdmin) // oracle confirmed rights
}

func TestPlaceOrderBotRightsFailureDoesNotBlock(t *testing.T) {
	repo, mock := newMockRepo(t)
	svc := NewOrderService(repo, &fakeOracle{adminErr: assert.AnError})

	mock.ExpectQuery(`FROM user_profiles WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnRows(profileRows("user-1", 200, nil))
	expectPlaceOrderTx(mock, "user-1", 182.0, 18.0, 1, 0.0)

	order, _, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderInput{
		Type:           model.OrderTypeChannel,
		RequestedCount: 10,
		Link:           "@mychannel",
	})
	require.NoError(t, err)
	assert.False(t, order.BotIsAdmin)
}

func TestPlaceOrderRejectsUnsupportedLink(t *testing.T) {
	repo, mock := newMockRepo(t)
	svc := NewOrderService(repo, nil)

	mock.ExpectQuery(`FROM user_profiles WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnRows(profileRows("user-1", 200, nil))

	_, _, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderInput{
		Type:           model.OrderTypeChannel,
		RequestedCount: 10,
		Link:           "https://example.com/x",
	})
	assert.ErrorIs(t, err, chatlink.ErrUnsupportedHost)
}

func TestPlaceOrderInsufficientBalance(t *testing.T) {
	repo, mock := newMockRepo(t)
	svc := NewOrderService(repo, nil)

	mock.ExpectQuery(`FROM user_profiles WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnRows(profileRows("user-1", 10, nil))

	_, _, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderInput{
		Type:           model.OrderTypeChannel,
		RequestedCount: 100,
		Link:           "@mychannel",
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestCompleteTaskRequiresConfiguredOracle(t *testing.T) {
	repo, _ := newMockRepo(t)
	svc := NewOrderService(repo, nil)

	_, err := svc.CompleteTask(context.Background(), "order-1", "user-2", ptrInt64(777))
	assert.ErrorIs(t, err, ErrVerificationUnavailable)
}

func TestCompleteTaskRequiresTelegramID(t *testing.T) {
	repo, _ := newMockRepo(t)
	svc := NewOrderService(repo, &fakeOracle{isMember: true})

	_, err := svc.CompleteTask(context.Background(), "order-1", "user-2", nil)
	assert.ErrorIs(t, err, ErrTelegramRequired)
}

func TestCompleteTaskSelfCompletionForbidden(t *testing.T) {
	repo, mock := newMockRepo(t)
	svc := NewOrderService(repo, &fakeOracle{isMember: true})

	mock.ExpectQuery(`FROM orders WHERE id = \$1`).
		WithArgs("order-1").
		WillReturnRows(orderRows("order-1", "user-1", "channel", 100, 0, "active"))

	_, err := svc.CompleteTask(context.Background(), "order-1", "user-1", ptrInt64(777))
	assert.ErrorIs(t, err, ErrOwnOrder)
}

func TestCompleteTaskOrderAlreadyCompleted(t *testing.T) {
	repo, mock := newMockRepo(t)
	svc := NewOrderService(repo, &fakeOracle{isMember: true})

	mock.ExpectQuery(`FROM orders WHERE id = \$1`).
		WithArgs("order-1").
		WillReturnRows(orderRows("order-1", "owner-1", "channel", 10, 10, "completed"))

	_, err := svc.CompleteTask(context.Background(), "order-1", "user-2", ptrInt64(777))
	assert.ErrorIs(t, err, ErrOrderAlreadyCompleted)
}

func TestCompleteTaskDuplicateFastPath(t *testing.T) {
	repo, mock := newMockRepo(t)
	svc := NewOrderService(repo, &fakeOracle{isMember: true})

	mock.ExpectQuery(`FROM orders WHERE id = \$1`).
		WithArgs("order-1").
		WillReturnRows(orderRows("order-1", "owner-1", "channel", 100, 5, "active"))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("order-1", "user-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := svc.CompleteTask(context.Background(), "order-1", "user-2", ptrInt64(777))
	assert.ErrorIs(t, err, ErrTaskAlreadyCompleted)
}

func TestCompleteTaskMembershipNotConfirmed(t *testing.T) {
	repo, mock := newMockRepo(t)
	svc := NewOrderService(repo, &fakeOracle{isMember: false})

	mock.ExpectQuery(`FROM orders WHERE id = \$1`).
		WithArgs("order-1").
		WillReturnRows(orderRows("order-1", "owner-1", "channel", 100, 0, "active"))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("order-1", "user-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := svc.CompleteTask(context.Background(), "order-1", "user-2", ptrInt64(777))
	assert.ErrorIs(t, err, ErrNotSubscribed)
}

func TestCompleteTaskOracleFailurePropagates(t *testing.T) {
	repo, mock := newMockRepo(t)
	svc := NewOrderService(repo, &fakeOracle{memberErr: assert.AnError})

	mock.ExpectQuery(`FROM orders WHERE id = \$1`).
		WithArgs("order-1").
		WillReturnRows(orderRows("order-1", "owner-1", "channel", 100, 0, "active"))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("order-1", "user-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := svc.CompleteTask(context.Background(), "order-1", "user-2", ptrInt64(777))
	assert.ErrorIs(t, err, assert.AnError)
}

// Documents the referral accrual asymmetry: the commission is computed and
// reported, but the transaction only writes reward fields — nothing accrues
// to anyone's balance or referral_earnings on completion.
func TestCompleteTaskRewardAndCommission(t *testing.T) {
	repo, mock := newMockRepo(t)
	svc := NewOrderService(repo, &fakeOracle{isMember: true})

	rate := 0.1

	mock.ExpectQuery(`FROM orders WHERE id = \$1`).
		WithArgs("order-1").
		WillReturnRows(orderRows("order-1", "owner-1", "channel", 100, 0, "active"))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("order-1", "user-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`FROM user_profiles WHERE id = \$1`).
		WithArgs("user-2").
		WillReturnRows(profileRows("user-2", 0, &rate))

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM orders WHERE id = \$1 FOR UPDATE`).
		WithArgs("order-1").
		WillReturnRows(orderRows("order-1", "owner-1", "channel", 100, 0, "active"))
	mock.ExpectQuery(`FROM user_profiles WHERE id = \$1 FOR UPDATE`).
		WithArgs("user-2").
		WillReturnRows(profileRows("user-2", 0, &rate))
	mock.ExpectExec(`INSERT INTO task_completions`).
		WithArgs(sqlmock.AnyArg(), "order-1", "user-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE orders SET completed_count`).
		WithArgs("order-1", 1, "active").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE user_profiles`).
		WithArgs("user-2", 1.2, 1.2, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.CompleteTask(context.Background(), "order-1", "user-2", ptrInt64(777))
	require.NoError(t, err)

	assert.Equal(t, 1.2, result.Reward)
	assert.InDelta(t, 0.12, result.ReferralCommission, 1e-9)
	assert.Equal(t, 1.2, result.User.Balance)
	assert.Equal(t, 1, result.Order.CompletedCount)
	assert.Equal(t, model.OrderStatusActive, result.Order.Status)
	assert.False(t, result.CompletedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func ptrInt64(v int64) *int64 {
	return &v
}
