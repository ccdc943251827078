package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	apperrors "agrihub-backend/internal/common/errors"
	"agrihub-backend/internal/common/logger"
	"agrihub-backend/internal/features/spin/models"
	usermodels "agrihub-backend/internal/features/user/models"
	userrepo "agrihub-backend/internal/features/user/repository"
)

const cooldownDays = 7

// wheel is the fixed prize table; weights sum to 100.
var wheel = []models.Prize{
	{ID: "topup-10k", Label: "10k Top-up Card", Weight: 30, Win: true},
	{ID: "discount-5", Label: "5% Discount Code", Weight: 20, Win: true},
	{ID: "no-luck", Label: "Better Luck Next Time", Weight: 40, Win: false},
	{ID: "tshirt", Label: "Branded T-Shirt", Weight: 5, Win: true},
	{ID: "feed-bag", Label: "1 Bag of Feed", Weight: 5, Win: true},
}

type SpinService interface {
	Status(ctx context.Context, uid string) (*models.SpinStatus, error)
	Spin(ctx context.Context, uid string) (*models.SpinResult, error)
}

type spinService struct {
	users userrepo.UserRepository

	// rng is injectable for deterministic draws in tests. rand.Rand is not
	// safe for concurrent use, so draws take the mutex.
	mu  sync.Mutex
	rng *rand.Rand
	now func() int64
}

func NewSpinService(users userrepo.UserRepository) SpinService {
	return &spinService{
		users: users,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   usermodels.NowMillis,
	}
}

func Prizes() []models.Prize {
	out := make([]models.Prize, len(wheel))
	copy(out, wheel)
	return out
}

func remainingDays(lastSpin, now int64) int {
	if lastSpin == 0 {
		return 0
	}
	elapsed := time.Duration(now-lastSpin) * time.Millisecond
	remaining := cooldownDays*24*time.Hour - elapsed
	if remaining <= 0 {
		return 0
	}
	// Round up so "a few hours left" still reads as one day.
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// Status reports whether the user may spin. A store failure fails closed:
// the wheel locks rather than risking a double spin.
func (s *spinService) Status(ctx context.Context, uid string) (*models.SpinStatus, error) {
	user, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		logger.Warn().Err(err).Str("uid", uid).Msg("Spin status lookup failed; locking the wheel")
		return &models.SpinStatus{
			Allowed:       false,
			RemainingDays: cooldownDays,
			Prizes:        Prizes(),
		}, nil
	}

	remaining := remainingDays(user.LastSpinTime, s.now())
	return &models.SpinStatus{
		Allowed:       remaining == 0,
		RemainingDays: remaining,
		LastSpinTime:  user.LastSpinTime,
		Prizes:        Prizes(),
	}, nil
}

func (s *spinService) draw() models.Prize {
	s.mu.Lock()
	n := s.rng.Intn(100)
	s.mu.Unlock()

	acc := 0
	for _, p := range wheel {
		acc += p.Weight
		if n < acc {
			return p
		}
	}
	return wheel[len(wheel)-1]
}

// Spin performs a weighted draw and stamps the cooldown. The stamp is
// written before the prize is returned; if it cannot be persisted, no prize
// is awarded.
func (s *spinService) Spin(ctx context.Context, uid string) (*models.SpinResult, error) {
	user, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		if err == userrepo.ErrNotFound {
			return nil, apperrors.NewNotFoundError("user", uid)
		}
		return nil, apperrors.NewStoreError("get user", err)
	}

	now := s.now()
	if remainingDays(user.LastSpinTime, now) > 0 {
		return nil, apperrors.NewSpinNotAllowedError(remainingDays(user.LastSpinTime, now))
	}

	prize := s.draw()

	if err := s.users.SetLastSpinTime(ctx, uid, now); err != nil {
		return nil, apperrors.NewStoreError("record spin", err)
	}

	logger.Info().Str("uid", uid).Str("prize", prize.ID).Msg("Spin completed")
	return &models.SpinResult{Prize: prize, LastSpinTime: now}, nil
}
