package routehandlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coreybb/couponbook/lifecycle"
	"github.com/coreybb/couponbook/models"
	"github.com/coreybb/couponbook/webutil"
)

type CouponHandler struct {
	Engine *lifecycle.Engine
}

func NewCouponHandler(engine *lifecycle.Engine) *CouponHandler {
	return &CouponHandler{Engine: engine}
}

type createCouponsRequest struct {
	UserIDs []string `json:"userIds"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	AdminID string   `json:"adminId"`
}

type couponDateRequest struct {
	Date string `json:"date"`
}

// HandleCreateCoupons issues one coupon per entry of userIds.
func (h *CouponHandler) HandleCreateCoupons(w http.ResponseWriter, r *http.Request) error {
	var req createCouponsRequest
	if err := decodeBody(r, &req, true); err != nil {
		return err
	}
	if len(req.UserIDs) == 0 || req.Title == "" || req.Content == "" || req.AdminID == "" {
		return webutil.ErrBadRequest("Missing required fields: userIds (array), title, content, adminId")
	}

	coupons, err := h.Engine.Create(r.Context(), req.UserIDs, req.Title, req.Content, req.AdminID)
	if err != nil {
		return err
	}

	webutil.RespondWithMessage(w, http.StatusCreated, "Coupons created successfully", map[string]any{"coupons": coupons})
	return nil
}

// HandleGetCoupons lists coupons, optionally filtered by ?userId= or ?adminId=.
func (h *CouponHandler) HandleGetCoupons(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()
	coupons := h.Engine.List(r.Context(), lifecycle.ListFilter{
		UserID:  query.Get("userId"),
		AdminID: query.Get("adminId"),
	})
	if coupons == nil {
		coupons = []models.Coupon{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, coupons)
	return nil
}

func (h *CouponHandler) HandleDeleteCoupon(w http.ResponseWriter, r *http.Request) error {
	couponID := chi.URLParam(r, "id")
	if err := h.Engine.Delete(r.Context(), couponID); err != nil {
		return err
	}
	webutil.RespondWithMessage(w, http.StatusOK, "Coupon deleted successfully", nil)
	return nil
}

// HandleRedeemCoupon activates a coupon. The body and its date are optional.
func (h *CouponHandler) HandleRedeemCoupon(w http.ResponseWriter, r *http.Request) error {
	couponID := chi.URLParam(r, "id")

	var req couponDateRequest
	if err := decodeBody(r, &req, false); err != nil {
		return err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return err
	}

	coupon, err := h.Engine.Redeem(r.Context(), couponID, date)
	if err != nil {
		return err
	}

	webutil.RespondWithMessage(w, http.StatusOK, "Coupon redeemed successfully", map[string]any{"coupon": coupon})
	return nil
}

func (h *CouponHandler) HandleScheduleCoupon(w http.ResponseWriter, r *http.Request) error {
	couponID := chi.URLParam(r, "id")

	var req couponDateRequest
	if err := decodeBody(r, &req, false); err != nil {
		return err
	}
	if req.Date == "" {
		return webutil.ErrBadRequest("Date is required")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return err
	}

	coupon, err := h.Engine.Schedule(r.Context(), couponID, date)
	if err != nil {
		return err
	}

	webutil.RespondWithMessage(w, http.StatusOK, "Coupon scheduled successfully", map[string]any{"coupon": coupon})
	return nil
}
