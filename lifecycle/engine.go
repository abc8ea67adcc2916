// Package lifecycle implements the coupon lifecycle: creation fanned out to
// recipients, scheduling, redemption and deletion, plus suggestion
// submission. Every mutation is one commit on its collection; notices are
// handed to the Notifier only after that commit succeeded and never affect
// the result of the operation.
//
// Lifecycle states:
//
//	pending   (isActive=false, scheduledDate=null)
//	scheduled (isActive=false, scheduledDate set)
//	active    (isActive=true)
//
// No operation clears isActive.
package lifecycle

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/coreybb/couponbook/datastore"
	"github.com/coreybb/couponbook/delivery"
	"github.com/coreybb/couponbook/models"
)

const unknownName = "unknown"

// Notifier accepts notices for best-effort delivery. Implementations must not
// block on delivery.
type Notifier interface {
	Notify(ctx context.Context, n delivery.Notice)
}

type Engine struct {
	coupons     *datastore.CouponRepository
	users       *datastore.UserRepository
	suggestions *datastore.SuggestionRepository
	notifier    Notifier
	logger      *slog.Logger
}

func NewEngine(
	coupons *datastore.CouponRepository,
	users *datastore.UserRepository,
	suggestions *datastore.SuggestionRepository,
	notifier Notifier,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		coupons:     coupons,
		users:       users,
		suggestions: suggestions,
		notifier:    notifier,
		logger:      logger.With("component", "lifecycle"),
	}
}

// Create issues one pending coupon per recipient, all sharing title, content
// and adminID, in a single commit. Each recipient is notified afterwards.
func (e *Engine) Create(ctx context.Context, userIDs []string, title, content, adminID string) ([]models.Coupon, error) {
	if len(userIDs) == 0 {
		return nil, invalid("userIds", "at least one user id is required")
	}
	for _, id := range userIDs {
		if strings.TrimSpace(id) == "" {
			return nil, invalid("userIds", "user ids cannot be blank")
		}
	}
	if strings.TrimSpace(title) == "" {
		return nil, invalid("title", "title is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, invalid("content", "content is required")
	}
	if strings.TrimSpace(adminID) == "" {
		return nil, invalid("adminId", "admin id is required")
	}

	drafts := make([]models.Coupon, len(userIDs))
	for i, userID := range userIDs {
		drafts[i] = models.Coupon{
			UserID:  userID,
			AdminID: adminID,
			Title:   title,
			Content: content,
		}
	}

	created, err := e.coupons.CreateCoupons(ctx, drafts)
	if err != nil {
		return nil, err
	}

	e.notifyCreated(ctx, created)
	return created, nil
}

// Schedule sets the coupon's scheduled date without touching isActive.
func (e *Engine) Schedule(ctx context.Context, couponID string, date *time.Time) (*models.Coupon, error) {
	if date == nil {
		return nil, invalid("date", "date is required")
	}
	when := *date

	coupon, err := e.coupons.UpdateCoupon(ctx, couponID, func(c *models.Coupon) {
		c.ScheduledDate = &when
	})
	if err != nil {
		return nil, err
	}

	e.notifyPair(ctx, *coupon, func(user, admin models.User) (delivery.Notice, delivery.Notice, error) {
		return delivery.CouponScheduled(user, admin, *coupon)
	})
	return coupon, nil
}

// Redeem activates the coupon. A non-nil date also (re)schedules it in the
// same commit. Redeeming an active coupon again is allowed.
func (e *Engine) Redeem(ctx context.Context, couponID string, date *time.Time) (*models.Coupon, error) {
	var when *time.Time
	if date != nil {
		d := *date
		when = &d
	}

	coupon, err := e.coupons.UpdateCoupon(ctx, couponID, func(c *models.Coupon) {
		c.IsActive = true
		if when != nil {
			c.ScheduledDate = when
		}
	})
	if err != nil {
		return nil, err
	}

	e.notifyPair(ctx, *coupon, func(user, admin models.User) (delivery.Notice, delivery.Notice, error) {
		return delivery.CouponRedeemed(user, admin, *coupon, when)
	})
	return coupon, nil
}

func (e *Engine) Delete(ctx context.Context, couponID string) error {
	return e.coupons.DeleteCoupon(ctx, couponID)
}

// ListFilter narrows List. UserID takes precedence over AdminID; an empty
// filter lists every coupon.
type ListFilter struct {
	UserID  string
	AdminID string
}

func (e *Engine) List(ctx context.Context, filter ListFilter) []models.Coupon {
	coupons := e.coupons.GetCoupons(ctx)

	var keep func(models.Coupon) bool
	switch {
	case filter.UserID != "":
		keep = func(c models.Coupon) bool { return c.UserID == filter.UserID }
	case filter.AdminID != "":
		keep = func(c models.Coupon) bool { return c.AdminID == filter.AdminID }
	default:
		return coupons
	}

	filtered := make([]models.Coupon, 0, len(coupons))
	for _, c := range coupons {
		if keep(c) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// SubmitSuggestion stores a suggestion and notifies every user who is an
// admin at that moment.
func (e *Engine) SubmitSuggestion(ctx context.Context, userID, content string) (*models.Suggestion, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalid("userId", "user id is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, invalid("content", "content is required")
	}

	suggestion, err := e.suggestions.CreateSuggestion(ctx, userID, content)
	if err != nil {
		return nil, err
	}

	dir := e.directory(ctx)
	author := dir.resolve(ctx, userID)
	for _, admin := range e.users.GetAdmins(ctx) {
		n, err := delivery.SuggestionCreated(admin, author, *suggestion)
		if err != nil {
			e.logger.ErrorContext(ctx, "Failed to render suggestion notice", "suggestion_id", suggestion.ID, "error", err)
			continue
		}
		e.notifier.Notify(ctx, n)
	}
	return suggestion, nil
}

func (e *Engine) notifyCreated(ctx context.Context, created []models.Coupon) {
	if len(created) == 0 {
		return
	}
	dir := e.directory(ctx)
	admin := dir.resolve(ctx, created[0].AdminID)
	for _, c := range created {
		n, err := delivery.CouponCreated(dir.resolve(ctx, c.UserID), admin, c)
		if err != nil {
			e.logger.ErrorContext(ctx, "Failed to render coupon notice", "coupon_id", c.ID, "error", err)
			continue
		}
		e.notifier.Notify(ctx, n)
	}
}

func (e *Engine) notifyPair(ctx context.Context, c models.Coupon, build func(user, admin models.User) (delivery.Notice, delivery.Notice, error)) {
	dir := e.directory(ctx)
	toUser, toAdmin, err := build(dir.resolve(ctx, c.UserID), dir.resolve(ctx, c.AdminID))
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to render coupon notices", "coupon_id", c.ID, "error", err)
		return
	}
	e.notifier.Notify(ctx, toUser)
	e.notifier.Notify(ctx, toAdmin)
}

// directory is a point-in-time lookup table of users by id.
type directory struct {
	byID   map[string]models.User
	logger *slog.Logger
}

func (e *Engine) directory(ctx context.Context) directory {
	users := e.users.GetUsers(ctx)
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return directory{byID: byID, logger: e.logger}
}

// resolve returns the user with id, or a placeholder named "unknown" with no
// address when the reference dangles.
func (d directory) resolve(ctx context.Context, id string) models.User {
	if u, ok := d.byID[id]; ok {
		return u
	}
	d.logger.WarnContext(ctx, "Dangling user reference", "user_id", id)
	return models.User{ID: id, FirstName: unknownName}
}
