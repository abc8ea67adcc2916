package routehandlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coreybb/couponbook/datastore"
	"github.com/coreybb/couponbook/models"
	"github.com/coreybb/couponbook/webutil"
)

type UserHandler struct {
	Repo *datastore.UserRepository
}

func NewUserHandler(repo *datastore.UserRepository) *UserHandler {
	return &UserHandler{Repo: repo}
}

type createUserRequest struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	IsAdmin   flexBool `json:"isAdmin"`
}

// editUserRequest allows "id" so clients can send back a whole user record;
// the path id always wins. isAdmin is read loosely on edit, strictly on create.
type editUserRequest struct {
	ID        string     `json:"id"`
	FirstName *string    `json:"firstName"`
	LastName  *string    `json:"lastName"`
	Email     *string    `json:"email"`
	Password  *string    `json:"password"`
	IsAdmin   truthyBool `json:"isAdmin"`
}

func (h *UserHandler) HandleGetUsers(w http.ResponseWriter, r *http.Request) error {
	users := h.Repo.GetUsers(r.Context())
	public := make([]models.User, len(users))
	for i, u := range users {
		public[i] = u.Public()
	}
	webutil.RespondWithJSON(w, http.StatusOK, public)
	return nil
}

func (h *UserHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) error {
	var req createUserRequest
	if err := decodeBody(r, &req, true); err != nil {
		return err
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		return webutil.ErrBadRequest("Missing required fields: firstName, lastName, email, password")
	}

	user, err := h.Repo.CreateUser(r.Context(), datastore.UserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		IsAdmin:   bool(req.IsAdmin),
	})
	if err != nil {
		return err
	}

	webutil.RespondWithMessage(w, http.StatusCreated, "User created successfully", map[string]any{"user": user.Public()})
	return nil
}

func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) error {
	userID := chi.URLParam(r, "id") // "id" is the common constant name in routes.go

	user, err := h.Repo.GetUserByID(r.Context(), userID)
	if err != nil {
		return err
	}

	webutil.RespondWithJSON(w, http.StatusOK, user.Public())
	return nil
}

func (h *UserHandler) HandleEditUser(w http.ResponseWriter, r *http.Request) error {
	userID := chi.URLParam(r, "id")

	var req editUserRequest
	if err := decodeBody(r, &req, true); err != nil {
		return err
	}
	if req.Password != nil && *req.Password == "" {
		return webutil.ErrBadRequest("Password cannot be empty")
	}

	upd := datastore.UserUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	}
	if req.IsAdmin.Set {
		upd.IsAdmin = &req.IsAdmin.Value
	}

	user, err := h.Repo.EditUser(r.Context(), userID, upd)
	if err != nil {
		return err
	}

	webutil.RespondWithMessage(w, http.StatusOK, "User updated successfully", map[string]any{"user": user.Public()})
	return nil
}

func (h *UserHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) error {
	userID := chi.URLParam(r, "id")
	if err := h.Repo.DeleteUser(r.Context(), userID); err != nil {
		return err
	}
	webutil.RespondWithMessage(w, http.StatusOK, "User deleted successfully", nil)
	return nil
}
