package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vocanote/vocanote-backend/internal/models"
	"github.com/vocanote/vocanote-backend/internal/plan"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const usageDateLayout = "2006-01-02"

// UsageSummary is the answer to "how much recording time remains today".
// For paid tiers AllowanceSeconds and RemainingSeconds carry the
// plan.Unlimited sentinel rather than a large finite number.
type UsageSummary struct {
	UsedSeconds      int64 `json:"used_seconds"`
	AllowanceSeconds int64 `json:"allowance_seconds"`
	RemainingSeconds int64 `json:"remaining_seconds"`
	Unlimited        bool  `json:"unlimited"`
}

// UsageService is the daily recording-time ledger. It only does
// bookkeeping: callers check GetRemaining before allowing a recording and
// record the consumed seconds after the fact.
type UsageService struct {
	db     *gorm.DB
	policy plan.QuotaPolicy
	now    func() time.Time
}

func NewUsageService(db *gorm.DB, policy plan.QuotaPolicy) *UsageService {
	return &UsageService{db: db, policy: policy, now: time.Now}
}

// Today returns the current UTC calendar date key. Handlers always use this
// instead of anything client-supplied, so clients cannot shift their quota
// window by lying about the date.
func (s *UsageService) Today() string {
	return s.now().UTC().Format(usageDateLayout)
}

// GetRemaining reads today's counter (creating it at zero if absent) and
// compares it against the account's plan allowance. Remaining floors at
// zero, never negative.
func (s *UsageService) GetRemaining(userID uuid.UUID, day string) (*UsageSummary, error) {
	if _, err := time.Parse(usageDateLayout, day); err != nil {
		return nil, fmt.Errorf("%w: malformed usage date %q", ErrInvalidInput, day)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	usage, err := s.counterFor(userID, day)
	if err != nil {
		return nil, err
	}

	allowance := s.policy.DailyAllowance(user.EffectiveTier(s.now().UTC()))
	if allowance == plan.Unlimited {
		return &UsageSummary{
			UsedSeconds:      usage.SecondsUsed,
			AllowanceSeconds: plan.Unlimited,
			RemainingSeconds: plan.Unlimited,
			Unlimited:        true,
		}, nil
	}

	remaining := allowance - usage.SecondsUsed
	if remaining < 0 {
		remaining = 0
	}

	return &UsageSummary{
		UsedSeconds:      usage.SecondsUsed,
		AllowanceSeconds: allowance,
		RemainingSeconds: remaining,
	}, nil
}

// RecordUsage adds seconds to the counter for (user, day) as a single
// atomic upsert-increment. Two concurrent calls (a retried request, say)
// both land; neither increment is lost to a read-modify-write race.
func (s *UsageService) RecordUsage(userID uuid.UUID, day string, seconds int64) (*models.DailyUsage, error) {
	if seconds <= 0 {
		return nil, fmt.Errorf("%w: seconds must be positive, got %d", ErrInvalidInput, seconds)
	}
	if _, err := time.Parse(usageDateLayout, day); err != nil {
		return nil, fmt.Errorf("%w: malformed usage date %q", ErrInvalidInput, day)
	}

	usage := models.DailyUsage{
		ID:          uuid.New(),
		UserID:      userID,
		UsageDate:   day,
		SecondsUsed: seconds,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "usage_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"seconds_used": gorm.Expr("seconds_used + ?", seconds),
			"updated_at":   s.now().UTC(),
		}),
	}).Create(&usage).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var updated models.DailyUsage
	if err := s.db.Where("user_id = ? AND usage_date = ?", userID, day).First(&updated).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &updated, nil
}

// counterFor reads the day's counter, lazily creating it at zero. The
// insert ignores conflicts so a concurrent first read of the same day
// cannot fail; whoever loses the race re-reads the committed row.
func (s *UsageService) counterFor(userID uuid.UUID, day string) (*models.DailyUsage, error) {
	var usage models.DailyUsage
	err := s.db.Where("user_id = ? AND usage_date = ?", userID, day).First(&usage).Error
	if err == nil {
		return &usage, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	usage = models.DailyUsage{ID: uuid.New(), UserID: userID, UsageDate: day}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&usage).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := s.db.Where("user_id = ? AND usage_date = ?", userID, day).First(&usage).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &usage, nil
}
