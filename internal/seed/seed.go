package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	authdomain "github.com/clubcore/clubcore/internal/auth/domain"
	billingdomain "github.com/clubcore/clubcore/internal/billing/domain"
	branchdomain "github.com/clubcore/clubcore/internal/branch/domain"
	plandomain "github.com/clubcore/clubcore/internal/plan/domain"
	tenantdomain "github.com/clubcore/clubcore/internal/tenant/domain"
)

const (
	demoGymName       = "Demo Gym"
	demoGymSlug       = "demo-gym"
	demoAdminEmail    = "admin@clubcore.local"
	demoAdminPassword = "admin"
	demoAdminDisplay  = "Demo Admin"
)

// EnsureDemoGym seeds a demo gym with an owner account for local
// development. It is idempotent: an existing demo tenant short-circuits
// the whole bootstrap.
func EnsureDemoGym(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing tenantdomain.Tenant
		err := tx.Where("slug = ?", demoGymSlug).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()

		hashed, err := bcrypt.GenerateFromPassword([]byte(demoAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		passwordHash := string(hashed)

		user := authdomain.User{
			ID:           node.Generate(),
			DisplayName:  demoAdminDisplay,
			Email:        demoAdminEmail,
			PasswordHash: &passwordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		tenant := tenantdomain.Tenant{
			ID:           node.Generate(),
			Name:         demoGymName,
			Slug:         demoGymSlug,
			ContactEmail: demoAdminEmail,
			TimezoneName: "UTC",
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}

		member := tenantdomain.TenantMember{
			ID:        node.Generate(),
			TenantID:  tenant.ID,
			UserID:    user.ID,
			Role:      "owner",
			CreatedAt: now,
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}

		billing := billingdomain.TenantBillingRecord{
			ID:                     node.Generate(),
			TenantID:               tenant.ID,
			BillingStatus:          billingdomain.StatusActive,
			TrialStartedAt:         now,
			TrialEndsAt:            now.AddDate(0, 0, 7),
			BillingStatusUpdatedAt: now,
			CreatedAt:              now,
		}
		if err := tx.Create(&billing).Error; err != nil {
			return err
		}

		branch := branchdomain.Branch{
			ID:           node.Generate(),
			TenantID:     tenant.ID,
			Name:         "Downtown",
			TimezoneName: "UTC",
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(&branch).Error; err != nil {
			return err
		}

		plans := []plandomain.MembershipPlan{
			{
				ID:             node.Generate(),
				TenantID:       tenant.ID,
				Scope:          plandomain.ScopeTenant,
				ScopeKey:       plandomain.TenantScopeKey,
				Name:           "Monthly",
				NormalizedName: "monthly",
				PriceCents:     4900,
				Currency:       "USD",
				DurationDays:   30,
				CreatedAt:      now,
				UpdatedAt:      now,
			},
			{
				ID:             node.Generate(),
				TenantID:       tenant.ID,
				BranchID:       &branch.ID,
				Scope:          plandomain.ScopeBranch,
				ScopeKey:       branch.ID.String(),
				Name:           "Downtown Day Pass",
				NormalizedName: "downtown day pass",
				PriceCents:     900,
				Currency:       "USD",
				DurationDays:   1,
				CreatedAt:      now,
				UpdatedAt:      now,
			},
		}
		for i := range plans {
			if err := tx.Create(&plans[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
