package models

import (
	"time"

	"github.com/shopspring/decimal"

	"cadence/internal/engine"
)

// PayCycleStatus is a cycle's place in its lifecycle. A household has
// at most one active and at most one draft cycle at a time.
type PayCycleStatus string

const (
	CycleDraft    PayCycleStatus = "draft"
	CycleActive   PayCycleStatus = "active"
	CycleArchived PayCycleStatus = "archived"
)

// PayCycle is one budgeting window between paydays. The allocation
// columns are derived figures: they are only ever written by a full
// recompute over the cycle's seeds, never adjusted in place.
type PayCycle struct {
	Base
	HouseholdID string         `gorm:"type:uuid;not null;index" json:"household_id"`
	Name        string         `gorm:"not null" json:"name"`
	Status      PayCycleStatus `gorm:"not null;default:draft;index" json:"status"`
	StartDate   time.Time      `gorm:"not null" json:"start_date"`
	EndDate     time.Time      `gorm:"not null" json:"end_date"`

	// Income snapshot taken when the cycle is drafted, so the plan
	// keeps its numbers even if income sources change afterwards.
	TotalIncome           decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total_income"`
	SnapshotMeIncome      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"snapshot_me_income"`
	SnapshotPartnerIncome decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"snapshot_partner_income"`

	TotalAllocated decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total_allocated"`

	AllocNeedsMe        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"alloc_needs_me"`
	AllocNeedsPartner   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"alloc_needs_partner"`
	AllocNeedsJoint     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"alloc_needs_joint"`
	AllocWantsMe        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"alloc_wants_me"`
	AllocWantsPartner   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"alloc_wants_partner"`
	AllocWantsJoint     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"alloc_wants_joint"`
	AllocSavingsMe      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"alloc_savings_me"`
	AllocSavingsPartner decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"alloc_savings_partner"`
	AllocSavingsJoint   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"alloc_savings_joint"`
	AllocRepayMe        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"alloc_repay_me"`
	AllocRepayPartner   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"alloc_repay_partner"`
	AllocRepayJoint     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"alloc_repay_joint"`

	RemNeedsMe        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"rem_needs_me"`
	RemNeedsPartner   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"rem_needs_partner"`
	RemNeedsJoint     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"rem_needs_joint"`
	RemWantsMe        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"rem_wants_me"`
	RemWantsPartner   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"rem_wants_partner"`
	RemWantsJoint     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"rem_wants_joint"`
	RemSavingsMe      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"rem_savings_me"`
	RemSavingsPartner decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"rem_savings_partner"`
	RemSavingsJoint   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"rem_savings_joint"`
	RemRepayMe        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"rem_repay_me"`
	RemRepayPartner   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"rem_repay_partner"`
	RemRepayJoint     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"rem_repay_joint"`

	// Set when the payday ritual is completed; an active cycle with
	// this timestamp is locked against seed mutation.
	RitualClosedAt *time.Time `json:"ritual_closed_at,omitempty"`

	Seeds []Seed `gorm:"foreignKey:PayCycleID" json:"seeds,omitempty"`
}

// IsLocked reports whether the ritual has been closed on this cycle.
func (pc *PayCycle) IsLocked() bool {
	return pc.Status == CycleActive && pc.RitualClosedAt != nil
}

// Boundary returns the cycle's window for calendar math.
func (pc *PayCycle) Boundary() engine.Boundary {
	return engine.Boundary{Start: pc.StartDate, End: pc.EndDate}
}

// ApplyAllocation overwrites every derived allocation column from a
// freshly computed summary.
func (pc *PayCycle) ApplyAllocation(s engine.AllocationSummary) {
	pc.TotalAllocated = s.TotalAllocated

	pc.AllocNeedsMe = s.Allocated[engine.SeedNeed].Me
	pc.AllocNeedsPartner = s.Allocated[engine.SeedNeed].Partner
	pc.AllocNeedsJoint = s.Allocated[engine.SeedNeed].Joint
	pc.AllocWantsMe = s.Allocated[engine.SeedWant].Me
	pc.AllocWantsPartner = s.Allocated[engine.SeedWant].Partner
	pc.AllocWantsJoint = s.Allocated[engine.SeedWant].Joint
	pc.AllocSavingsMe = s.Allocated[engine.SeedSavings].Me
	pc.AllocSavingsPartner = s.Allocated[engine.SeedSavings].Partner
	pc.AllocSavingsJoint = s.Allocated[engine.SeedSavings].Joint
	pc.AllocRepayMe = s.Allocated[engine.SeedRepay].Me
	pc.AllocRepayPartner = s.Allocated[engine.SeedRepay].Partner
	pc.AllocRepayJoint = s.Allocated[engine.SeedRepay].Joint

	pc.RemNeedsMe = s.Remaining[engine.SeedNeed].Me
	pc.RemNeedsPartner = s.Remaining[engine.SeedNeed].Partner
	pc.RemNeedsJoint = s.Remaining[engine.SeedNeed].Joint
	pc.RemWantsMe = s.Remaining[engine.SeedWant].Me
	pc.RemWantsPartner = s.Remaining[engine.SeedWant].Partner
	pc.RemWantsJoint = s.Remaining[engine.SeedWant].Joint
	pc.RemSavingsMe = s.Remaining[engine.SeedSavings].Me
	pc.RemSavingsPartner = s.Remaining[engine.SeedSavings].Partner
	pc.RemSavingsJoint = s.Remaining[engine.SeedSavings].Joint
	pc.RemRepayMe = s.Remaining[engine.SeedRepay].Me
	pc.RemRepayPartner = s.Remaining[engine.SeedRepay].Partner
	pc.RemRepayJoint = s.Remaining[engine.SeedRepay].Joint
}
