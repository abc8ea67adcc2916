package routehandlers

import (
	"errors"
	"net/http"

	"github.com/coreybb/couponbook/datastore"
	"github.com/coreybb/couponbook/webutil"
)

type AuthHandler struct {
	Users *datastore.UserRepository
}

func NewAuthHandler(users *datastore.UserRepository) *AuthHandler {
	return &AuthHandler{Users: users}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin checks an email/password pair. Failures are reported as 401
// with success=false; nothing distinguishes an unknown email from a wrong
// password.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decodeBody(r, &req, true); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return webutil.ErrBadRequest("Email and password are required")
	}

	user, err := h.Users.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, datastore.ErrAuthentication) {
		webutil.RespondWithJSON(w, http.StatusUnauthorized, map[string]any{
			"error":   "Invalid email or password",
			"success": false,
		})
		return nil
	}
	if err != nil {
		return err
	}

	webutil.RespondWithMessage(w, http.StatusOK, "Login successful", map[string]any{
		"user":    user,
		"success": true,
	})
	return nil
}
