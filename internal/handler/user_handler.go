package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/GoArmGo/foodgram/internal/auth"
	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/GoArmGo/foodgram/internal/usecase"
)

// UserHandler — пользователи, токены и подписки.
type UserHandler struct {
	users         usecase.UserUseCase
	uploadLimiter chan struct{}
	pageSize      int
	logger        *slog.Logger
}

func NewUserHandler(users usecase.UserUseCase, limiter chan struct{}, pageSize int, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:         users,
		uploadLimiter: limiter,
		pageSize:      pageSize,
		logger:        logger,
	}
}

// Register — POST /users/.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	user, err := h.users.Register(r.Context(), usecase.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	h.logger.Info("user registered", "user_id", user.ID)
	respondWithJSON(w, http.StatusCreated, registerResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, h.logger)
}

// Login — POST /auth/token/login/.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, tokenResponse{AuthToken: token}, h.logger)
}

// Logout — POST /auth/token/logout/. Токены не хранятся на сервере,
// клиент просто забывает свой.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r, h.pageSize)
	viewer, _ := auth.UserID(r.Context())

	page, err := h.users.ListUsers(r.Context(), viewer, p.Limit, p.Offset())
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, newPaginated(r, p, page), h.logger)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		respondWithError(w, r, domain.ErrNotFound, h.logger)
		return
	}
	viewer, _ := auth.UserID(r.Context())

	user, err := h.users.GetUser(r.Context(), viewer, id)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, user, h.logger)
}

// Me — GET /users/me/.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	user, err := h.users.GetUser(r.Context(), userID, userID)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, user, h.logger)
}

// SetAvatar — PUT /users/me/avatar/.
func (h *UserHandler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req avatarRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	release, err := acquire(r.Context(), h.uploadLimiter)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	defer release()

	url, err := h.users.SetAvatar(r.Context(), userID, req.Avatar)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, avatarResponse{Avatar: url}, h.logger)
}

// DeleteAvatar — DELETE /users/me/avatar/.
func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	if err := h.users.DeleteAvatar(r.Context(), userID); err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetPassword — POST /users/set_password/.
func (h *UserHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req setPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	if err := h.users.SetPassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Subscribe — POST /users/{id}/subscribe/?recipes_limit=.
func (h *UserHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	authorID, ok := pathUUID(r, "id")
	if !ok {
		respondWithError(w, r, domain.ErrNotFound, h.logger)
		return
	}

	sub, err := h.users.Subscribe(r.Context(), userID, authorID, recipesLimit(r))
	if err != nil {
		respondWithRelationError(w, r, domain.RelationFollow, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusCreated, sub, h.logger)
}

// Unsubscribe — DELETE /users/{id}/subscribe/.
func (h *UserHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	authorID, ok := pathUUID(r, "id")
	if !ok {
		respondWithError(w, r, domain.ErrNotFound, h.logger)
		return
	}

	if err := h.users.Unsubscribe(r.Context(), userID, authorID); err != nil {
		respondWithRelationError(w, r, domain.RelationFollow, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Subscriptions — GET /users/subscriptions/.
func (h *UserHandler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	p := parsePage(r, h.pageSize)

	page, err := h.users.ListSubscriptions(r.Context(), userID, p.Limit, p.Offset(), recipesLimit(r))
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, newPaginated(r, p, page), h.logger)
}

// recipesLimit — 0 означает "без ограничения"
func recipesLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("recipes_limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
