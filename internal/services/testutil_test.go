package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/vocanote/vocanote-backend/internal/models"
	"github.com/vocanote/vocanote-backend/internal/plan"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.DailyUsage{},
		&models.PaymentEvent{},
		&models.EntitlementHistory{},
		&models.VoiceNote{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string, tier plan.Tier) *models.User {
	t.Helper()

	user := models.User{
		ID:                uuid.New(),
		Email:             email,
		Password:          "x",
		PlanTier:          string(tier),
		EntitlementStatus: models.EntitlementInactive,
		BillingCycle:      "none",
	}
	if tier != plan.TierFree {
		user.EntitlementStatus = models.EntitlementActive
		user.BillingCycle = string(plan.CycleFor(tier))
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &user
}
