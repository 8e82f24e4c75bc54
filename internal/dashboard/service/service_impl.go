package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/clubcore/clubcore/internal/clock"
	dashboard "github.com/clubcore/clubcore/internal/dashboard/domain"
	periodlockdomain "github.com/clubcore/clubcore/internal/periodlock/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func NewService(p Params) dashboard.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("dashboard.service"),
		clock: p.Clock,
	}
}

type branchRevenueRow struct {
	BranchID     *snowflake.ID `gorm:"column:branch_id"`
	BranchName   *string       `gorm:"column:branch_name"`
	RevenueCents int64         `gorm:"column:revenue_cents"`
}

type planDistributionRow struct {
	PlanID      snowflake.ID `gorm:"column:plan_id"`
	PlanName    string       `gorm:"column:plan_name"`
	Memberships int64        `gorm:"column:memberships"`
}

func (s *Service) Summary(ctx context.Context, tenantID snowflake.ID, month string) (dashboard.SummaryResponse, error) {
	if tenantID == 0 {
		return dashboard.SummaryResponse{}, dashboard.ErrInvalidTenant
	}
	month = strings.TrimSpace(month)
	if month == "" {
		month = periodlockdomain.MonthOf(s.clock.Now())
	}
	if !periodlockdomain.ValidMonth(month) {
		return dashboard.SummaryResponse{}, dashboard.ErrInvalidMonth
	}

	resp := dashboard.SummaryResponse{Month: month}

	var revenueRows []branchRevenueRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT p.branch_id AS branch_id,
		        b.name AS branch_name,
		        COALESCE(SUM(p.amount_cents), 0) AS revenue_cents
		 FROM payments p
		 LEFT JOIN branches b ON b.id = p.branch_id AND b.tenant_id = p.tenant_id
		 WHERE p.tenant_id = ? AND p.month = ?
		 GROUP BY p.branch_id, b.name
		 ORDER BY revenue_cents DESC`,
		tenantID,
		month,
	).Scan(&revenueRows).Error
	if err != nil {
		return dashboard.SummaryResponse{}, err
	}

	resp.RevenueByBranch = make([]dashboard.BranchRevenue, 0, len(revenueRows))
	for _, row := range revenueRows {
		item := dashboard.BranchRevenue{RevenueCents: row.RevenueCents}
		if row.BranchID != nil {
			item.BranchID = row.BranchID.String()
		}
		if row.BranchName != nil {
			item.BranchName = *row.BranchName
		}
		resp.RevenueByBranch = append(resp.RevenueByBranch, item)
		resp.TotalRevenueCents += row.RevenueCents
	}

	err = s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM members WHERE tenant_id = ?`,
		tenantID,
	).Scan(&resp.ActiveMembers).Error
	if err != nil {
		return dashboard.SummaryResponse{}, err
	}

	err = s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM memberships WHERE tenant_id = ? AND status = 'ACTIVE'`,
		tenantID,
	).Scan(&resp.ActiveMemberships).Error
	if err != nil {
		return dashboard.SummaryResponse{}, err
	}

	var planRows []planDistributionRow
	err = s.db.WithContext(ctx).Raw(
		`SELECT m.plan_id AS plan_id,
		        p.name AS plan_name,
		        COUNT(1) AS memberships
		 FROM memberships m
		 JOIN membership_plans p ON p.id = m.plan_id AND p.tenant_id = m.tenant_id
		 WHERE m.tenant_id = ? AND m.status = 'ACTIVE'
		 GROUP BY m.plan_id, p.name
		 ORDER BY memberships DESC`,
		tenantID,
	).Scan(&planRows).Error
	if err != nil {
		return dashboard.SummaryResponse{}, err
	}

	resp.PlanDistribution = make([]dashboard.PlanDistribution, 0, len(planRows))
	for _, row := range planRows {
		resp.PlanDistribution = append(resp.PlanDistribution, dashboard.PlanDistribution{
			PlanID:      row.PlanID.String(),
			PlanName:    row.PlanName,
			Memberships: row.Memberships,
		})
	}

	return resp, nil
}
