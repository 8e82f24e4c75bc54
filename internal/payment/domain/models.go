// Package domain contains the payment ledger model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type PaymentMethod string

const (
	MethodCash     PaymentMethod = "CASH"
	MethodCard     PaymentMethod = "CARD"
	MethodTransfer PaymentMethod = "TRANSFER"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodTransfer:
		return true
	}
	return false
}

// Payment is one ledger entry. Month is derived from PaidAt at write time and
// is what period locks are checked against.
type Payment struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID     snowflake.ID  `gorm:"not null;index" json:"tenant_id"`
	MemberID     snowflake.ID  `gorm:"not null;index;column:member_id" json:"member_id"`
	MembershipID *snowflake.ID `gorm:"column:membership_id" json:"membership_id,omitempty"`
	BranchID     *snowflake.ID `gorm:"column:branch_id" json:"branch_id,omitempty"`
	AmountCents  int64         `gorm:"column:amount_cents;not null" json:"amount_cents"`
	Currency     string        `gorm:"type:text;not null" json:"currency"`
	Method       PaymentMethod `gorm:"type:text;not null" json:"method"`
	Reference    string        `gorm:"type:text" json:"reference"`
	Note         string        `gorm:"type:text" json:"note"`
	PaidAt       time.Time     `gorm:"not null" json:"paid_at"`
	Month        string        `gorm:"type:text;not null;index" json:"month"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }
