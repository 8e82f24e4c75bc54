// Package domain defines the back-office dashboard aggregates.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type BranchRevenue struct {
	BranchID     string `json:"branch_id"`
	BranchName   string `json:"branch_name"`
	RevenueCents int64  `json:"revenue_cents"`
}

type PlanDistribution struct {
	PlanID      string `json:"plan_id"`
	PlanName    string `json:"plan_name"`
	Memberships int64  `json:"memberships"`
}

type SummaryResponse struct {
	Month             string             `json:"month"`
	TotalRevenueCents int64              `json:"total_revenue_cents"`
	RevenueByBranch   []BranchRevenue    `json:"revenue_by_branch"`
	ActiveMembers     int64              `json:"active_members"`
	ActiveMemberships int64              `json:"active_memberships"`
	PlanDistribution  []PlanDistribution `json:"plan_distribution"`
}

type Service interface {
	Summary(ctx context.Context, tenantID snowflake.ID, month string) (SummaryResponse, error)
}

var (
	ErrInvalidTenant = errors.New("invalid_tenant")
	ErrInvalidMonth  = errors.New("invalid_month")
)
