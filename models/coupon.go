package models

import "time"

// CouponState is the lifecycle state derived from IsActive and ScheduledDate.
type CouponState string

const (
	CouponStatePending   CouponState = "pending"
	CouponStateScheduled CouponState = "scheduled"
	CouponStateActive    CouponState = "active"
)

type Coupon struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	AdminID       string     `json:"adminId"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	IsActive      bool       `json:"isActive"`
	ScheduledDate *time.Time `json:"scheduledDate"`
}

// State reports the coupon's position in the pending -> scheduled -> active lifecycle.
func (c Coupon) State() CouponState {
	switch {
	case c.IsActive:
		return CouponStateActive
	case c.ScheduledDate != nil:
		return CouponStateScheduled
	default:
		return CouponStatePending
	}
}
