package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Uzinex/Boost-v1.0/internal/model"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderCompleted      = errors.New("order already completed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDuplicateCompletion = errors.New("duplicate completion")
)

const orderColumns = `id, owner_id, owner_name, owner_username, owner_avatar, type, chat_identifier,
	link, requested_count, completed_count, price_per_unit, total_budget, status, bot_is_admin, created_at`

type orderRow struct {
	ID             string    `db:"id"`
	OwnerID        string    `db:"owner_id"`
	OwnerName      string    `db:"owner_name"`
	OwnerUsername  *string   `db:"owner_username"`
	OwnerAvatar    *string   `db:"owner_avatar"`
	Type           string    `db:"type"`
	ChatIdentifier string    `db:"chat_identifier"`
	Link           string    `db:"link"`
	RequestedCount int       `db:"requested_count"`
	CompletedCount int       `db:"completed_count"`
	PricePerUnit   float64   `db:"price_per_unit"`
	TotalBudget    float64   `db:"total_budget"`
	Status         string    `db:"status"`
	BotIsAdmin     bool      `db:"bot_is_admin"`
	CreatedAt      time.Time `db:"created_at"`
}

func (o *orderRow) toModel() *model.Order {
	return &model.Order{
		ID:             o.ID,
		OwnerID:        o.OwnerID,
		OwnerName:      o.OwnerName,
		OwnerUsername:  o.OwnerUsername,
		OwnerAvatar:    o.OwnerAvatar,
		Type:           model.OrderType(o.Type),
		ChatIdentifier: o.ChatIdentifier,
		Link:           o.Link,
		RequestedCount: o.RequestedCount,
		CompletedCount: o.CompletedCount,
		PricePerUnit:   o.PricePerUnit,
		TotalBudget:    o.TotalBudget,
		Status:         model.OrderStatus(o.Status),
		BotIsAdmin:     o.BotIsAdmin,
		CreatedAt:      o.CreatedAt,
	}
}

func (r *Repository) ListOrders(ctx context.Context) ([]model.Order, error) {
	var rows []orderRow
	err := r.db.SelectContext(ctx, &rows, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}

	orders := make([]model.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].toModel()
	}
	return orders, nil
}

func (r *Repository) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	var row orderRow
	err := r.db.GetContext(ctx, &row, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

// CreateOrder debits the owner's balance and inserts the order in one
// transaction. The profile row is locked so concurrent placements cannot
// spend the same balance twice. Returns the updated owner profile.
func (r *Repository) CreateOrder(ctx context.Context, order *model.Order) (*model.UserProfile, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var owner profileRow
	err = tx.GetContext(ctx, &owner, "SELECT "+profileColumns+" FROM user_profiles WHERE id = $1 FOR UPDATE", order.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	if owner.Balance < order.TotalBudget {
		return nil, ErrInsufficientBalance
	}

	owner.Balance -= order.TotalBudget
	owner.LifetimeSpent += order.TotalBudget
	owner.OrdersPlaced++
	// Commission accrues on the placing user's own referral_earnings record.
	if owner.ReferrerID != nil && owner.ReferrerCommissionRate != nil {
		owner.ReferralEarnings += order.TotalBudget * *owner.ReferrerCommissionRate
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE user_profiles
		SET balance = $2, lifetime_spent = $3, orders_placed = $4, referral_earnings = $5, updated_at = NOW()
		WHERE id = $1`,
		owner.ID, owner.Balance, owner.LifetimeSpent, owner.OrdersPlaced, owner.ReferralEarnings)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, owner_id, owner_name, owner_username, owner_avatar, type, chat_identifier,
			link, requested_count, completed_count, price_per_unit, total_budget, status, bot_is_admin, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)`,
		order.ID, order.OwnerID, order.OwnerName, order.OwnerUsername, order.OwnerAvatar,
		string(order.Type), order.ChatIdentifier, order.Link, order.RequestedCount, order.CompletedCount,
		order.PricePerUnit, order.TotalBudget, string(order.Status), order.BotIsAdmin, order.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return owner.toModel(), nil
}

// CompleteOrder applies a verified task completion: credits the reward,
// bumps the order progress, and records the completion row, all in one
// transaction. The order row lock serializes racing completions so
// completed_count can never pass requested_count; the unique constraint on
// (order_id, user_id) is the safety net against double completion and maps
// to ErrDuplicateCompletion.
func (r *Repository) CompleteOrder(ctx context.Context, orderID, userID string, reward float64) (*model.Order, *model.UserProfile, *model.TaskCompletion, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	defer tx.Rollback()

	var ord orderRow
	err = tx.GetContext(ctx, &ord, "SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, ErrOrderNotFound
		}
		return nil, nil, nil, err
	}

	if ord.Status == string(model.OrderStatusCompleted) || ord.CompletedCount >= ord.RequestedCount {
		return nil, nil, nil, ErrOrderCompleted
	}

	var user profileRow
	err = tx.GetContext(ctx, &user, "SELECT "+profileColumns+" FROM user_profiles WHERE id = $1 FOR UPDATE", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, ErrProfileNotFound
		}
		return nil, nil, nil, err
	}

	completion := &model.TaskCompletion{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		UserID:      userID,
		CompletedAt: time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO task_completions (id, order_id, user_id, completed_at)
		VALUES ($1, $2, $3, $4)`,
		completion.ID, completion.OrderID, completion.UserID, completion.CompletedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, nil, ErrDuplicateCompletion
		}
		return nil, nil, nil, err
	}

	ord.CompletedCount++
	if ord.CompletedCount >= ord.RequestedCount {
		ord.Status = string(model.OrderStatusCompleted)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET completed_count = $2, status = $3, updated_at = NOW()
		WHERE id = $1`,
		ord.ID, ord.CompletedCount, ord.Status)
	if err != nil {
		return nil, nil, nil, err
	}

	user.Balance += reward
	user.LifetimeEarned += reward
	user.TasksCompleted++

	_, err = tx.ExecContext(ctx, `
		UPDATE user_profiles
		SET balance = $2, lifetime_earned = $3, tasks_completed = $4, updated_at = NOW()
		WHERE id = $1`,
		user.ID, user.Balance, user.LifetimeEarned, user.TasksCompleted)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, nil, err
	}

	return ord.toModel(), user.toModel(), completion, nil
}

func (r *Repository) HasCompletion(ctx context.Context, orderID, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM task_completions WHERE order_id = $1 AND user_id = $2)",
		orderID, userID)
	return exists, err
}

func (r *Repository) ListCompletions(ctx context.Context, userID string) ([]model.TaskCompletion, error) {
	var completions []model.TaskCompletion
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, order_id, user_id, completed_at FROM task_completions WHERE user_id = $1 ORDER BY completed_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c model.TaskCompletion
		if err := rows.Scan(&c.ID, &c.OrderID, &c.UserID, &c.CompletedAt); err != nil {
			return nil, err
		}
		completions = append(completions, c)
	}
	return completions, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
