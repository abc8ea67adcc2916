package datastore

import (
	"context"
	"fmt"

	"github.com/coreybb/couponbook/docstore"
	"github.com/coreybb/couponbook/models"
)

type CouponRepository struct {
	coupons *docstore.Collection[models.Coupon]
}

func NewCouponRepository(coupons *docstore.Collection[models.Coupon]) *CouponRepository {
	return &CouponRepository{coupons: coupons}
}

// CreateCoupons assigns fresh ids to drafts and appends them in one commit.
func (r *CouponRepository) CreateCoupons(ctx context.Context, drafts []models.Coupon) ([]models.Coupon, error) {
	created := make([]models.Coupon, len(drafts))
	err := r.coupons.Update(ctx, func(coupons []models.Coupon) ([]models.Coupon, error) {
		taken := idSet(coupons, func(c models.Coupon) string { return c.ID })
		for i, draft := range drafts {
			draft.ID = newID(taken)
			created[i] = draft
		}
		return append(coupons, created...), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert coupons: %w", err)
	}
	return created, nil
}

// UpdateCoupon applies mutate to the coupon with couponID and commits the
// collection. Returns ErrNotFound without writing when no coupon matches.
func (r *CouponRepository) UpdateCoupon(ctx context.Context, couponID string, mutate func(c *models.Coupon)) (*models.Coupon, error) {
	var updated models.Coupon
	err := r.coupons.Update(ctx, func(coupons []models.Coupon) ([]models.Coupon, error) {
		i := indexOfCoupon(coupons, couponID)
		if i < 0 {
			return nil, ErrNotFound
		}
		mutate(&coupons[i])
		updated = coupons[i]
		return coupons, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update coupon %s: %w", couponID, err)
	}
	return &updated, nil
}

func (r *CouponRepository) DeleteCoupon(ctx context.Context, couponID string) error {
	err := r.coupons.Update(ctx, func(coupons []models.Coupon) ([]models.Coupon, error) {
		i := indexOfCoupon(coupons, couponID)
		if i < 0 {
			return nil, ErrNotFound
		}
		return append(coupons[:i], coupons[i+1:]...), nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete coupon %s: %w", couponID, err)
	}
	return nil
}

func (r *CouponRepository) GetCouponByID(ctx context.Context, couponID string) (*models.Coupon, error) {
	coupons := r.coupons.Load(ctx)
	i := indexOfCoupon(coupons, couponID)
	if i < 0 {
		return nil, fmt.Errorf("coupon %s: %w", couponID, ErrNotFound)
	}
	return &coupons[i], nil
}

// GetCoupons returns every coupon in insertion order.
func (r *CouponRepository) GetCoupons(ctx context.Context) []models.Coupon {
	return r.coupons.Load(ctx)
}

func indexOfCoupon(coupons []models.Coupon, couponID string) int {
	for i := range coupons {
		if coupons[i].ID == couponID {
			return i
		}
	}
	return -1
}
