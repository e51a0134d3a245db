package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Uzinex/Boost-v1.0/internal/model"
)

var ErrProfileNotFound = errors.New("profile not found")

const profileColumns = `id, telegram_id, first_name, last_name, full_name, username, avatar_url,
	balance, lifetime_earned, lifetime_spent, orders_placed, tasks_completed,
	total_top_ups, total_top_up_amount, referrals_count, referral_earnings,
	referral_code, password_hash, referrer_id, referrer_name, referrer_commission_rate, created_at`

type profileRow struct {
	ID                     string    `db:"id"`
	TelegramID             *int64    `db:"telegram_id"`
	FirstName              string    `db:"first_name"`
	LastName               *string   `db:"last_name"`
	FullName               string    `db:"full_name"`
	Username               *string   `db:"username"`
	AvatarURL              *string   `db:"avatar_url"`
	Balance                float64   `db:"balance"`
	LifetimeEarned         float64   `db:"lifetime_earned"`
	LifetimeSpent          float64   `db:"lifetime_spent"`
	OrdersPlaced           int       `db:"orders_placed"`
	TasksCompleted         int       `db:"tasks_completed"`
	TotalTopUps            int       `db:"total_top_ups"`
	TotalTopUpAmount       float64   `db:"total_top_up_amount"`
	ReferralsCount         int       `db:"referrals_count"`
	ReferralEarnings       float64   `db:"referral_earnings"`
	ReferralCode           string    `db:"referral_code"`
	PasswordHash           string    `db:"password_hash"`
	ReferrerID             *string   `db:"referrer_id"`
	ReferrerName           *string   `db:"referrer_name"`
	ReferrerCommissionRate *float64  `db:"referrer_commission_rate"`
	CreatedAt              time.Time `db:"created_at"`
}

func (p *profileRow) toModel() *model.UserProfile {
	profile := &model.UserProfile{
		ID:               p.ID,
		TelegramID:       p.TelegramID,
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		FullName:         p.FullName,
		Username:         p.Username,
		AvatarURL:        p.AvatarURL,
		Balance:          p.Balance,
		LifetimeEarned:   p.LifetimeEarned,
		LifetimeSpent:    p.LifetimeSpent,
		OrdersPlaced:     p.OrdersPlaced,
		TasksCompleted:   p.TasksCompleted,
		TotalTopUps:      p.TotalTopUps,
		TotalTopUpAmount: p.TotalTopUpAmount,
		ReferralsCount:   p.ReferralsCount,
		ReferralEarnings: p.ReferralEarnings,
		ReferralCode:     p.ReferralCode,
		PasswordHash:     p.PasswordHash,
		CreatedAt:        p.CreatedAt,
	}
	if p.ReferrerID != nil {
		referrer := &model.Referrer{ID: *p.ReferrerID}
		if p.ReferrerName != nil {
			referrer.FullName = *p.ReferrerName
		}
		if p.ReferrerCommissionRate != nil {
			referrer.CommissionRate = *p.ReferrerCommissionRate
		}
		profile.Referrer = referrer
	}
	return profile
}

// UpsertProfile inserts or replaces the synced Mini App profile.
func (r *Repository) UpsertProfile(ctx context.Context, p *model.UserProfile) error {
	var referrerID, referrerName *string
	var referrerRate *float64
	if p.Referrer != nil {
		referrerID = &p.Referrer.ID
		referrerName = &p.Referrer.FullName
		referrerRate = &p.Referrer.CommissionRate
	}

	query := `
		INSERT INTO user_profiles (
			id, telegram_id, first_name, last_name, full_name, username, avatar_url,
			balance, lifetime_earned, lifetime_spent, orders_placed, tasks_completed,
			total_top_ups, total_top_up_amount, referrals_count, referral_earnings,
			referral_code, password_hash, referrer_id, referrer_name, referrer_commission_rate, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		ON CONFLICT (id) DO UPDATE SET
			telegram_id = EXCLUDED.telegram_id,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			full_name = EXCLUDED.full_name,
			username = EXCLUDED.username,
			avatar_url = EXCLUDED.avatar_url,
			balance = EXCLUDED.balance,
			lifetime_earned = EXCLUDED.lifetime_earned,
			lifetime_spent = EXCLUDED.lifetime_spent,
			orders_placed = EXCLUDED.orders_placed,
			tasks_completed = EXCLUDED.tasks_completed,
			total_top_ups = EXCLUDED.total_top_ups,
			total_top_up_amount = EXCLUDED.total_top_up_amount,
			referrals_count = EXCLUDED.referrals_count,
			referral_earnings = EXCLUDED.referral_earnings,
			referral_code = EXCLUDED.referral_code,
			password_hash = EXCLUDED.password_hash,
			referrer_id = EXCLUDED.referrer_id,
			referrer_name = EXCLUDED.referrer_name,
			referrer_commission_rate = EXCLUDED.referrer_commission_rate,
			updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.TelegramID, p.FirstName, p.LastName, p.FullName, p.Username, p.AvatarURL,
		p.Balance, p.LifetimeEarned, p.LifetimeSpent, p.OrdersPlaced, p.TasksCompleted,
		p.TotalTopUps, p.TotalTopUpAmount, p.ReferralsCount, p.ReferralEarnings,
		p.ReferralCode, p.PasswordHash, referrerID, referrerName, referrerRate, p.CreatedAt,
	)
	return err
}

func (r *Repository) GetProfile(ctx context.Context, id string) (*model.UserProfile, error) {
	var row profileRow
	err := r.db.GetContext(ctx, &row, "SELECT "+profileColumns+" FROM user_profiles WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}
