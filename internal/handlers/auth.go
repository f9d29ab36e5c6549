package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/vehicle-maintenance/internal/auth"
	"github.com/ukydev/vehicle-maintenance/internal/db"
	"github.com/ukydev/vehicle-maintenance/internal/models"
)

// AuthHandler handles registration, login, and account management.
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
	}
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var registerReq models.RegisterRequest
	if err := json.Unmarshal(body, &registerReq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.authService.ValidateUsername(registerReq.Username); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.authService.ValidateEmail(registerReq.Email); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.authService.ValidatePassword(registerReq.Password); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Check uniqueness of username and email
	if _, err := h.userCollection.FindUserByUsername(r.Context(), registerReq.Username); err == nil {
		http.Error(w, "Username already registered.", http.StatusConflict)
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		http.Error(w, "Failed to check username", http.StatusInternalServerError)
		return
	}

	if _, err := h.userCollection.FindUserByEmail(r.Context(), registerReq.Email); err == nil {
		http.Error(w, "Email already registered.", http.StatusConflict)
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		http.Error(w, "Failed to check email", http.StatusInternalServerError)
		return
	}

	passwordHash, err := h.authService.HashPassword(registerReq.Password)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	user, err := h.userCollection.InsertUser(r.Context(), models.User{
		Username:     registerReq.Username,
		Email:        registerReq.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		log.WithError(err).Error("Failed to insert user")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, models.MakeUserResponse(user))
}

// Login verifies credentials and issues a JWT access token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var loginReq models.LoginRequest
	if err := json.Unmarshal(body, &loginReq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if loginReq.Username == "" || loginReq.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.userCollection.FindUserByUsername(r.Context(), loginReq.Username)
	if err != nil {
		http.Error(w, "Invalid credentials.", http.StatusUnauthorized)
		return
	}

	if !h.authService.CheckPassword(loginReq.Password, user.PasswordHash) {
		http.Error(w, "Invalid credentials.", http.StatusUnauthorized)
		return
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{Token: token, TokenType: "bearer"})
}

// Me returns the authenticated user's account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "User not found.", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, models.MakeUserResponse(user))
}

// Update changes the caller's credentials. Each supplied field is rejected
// when it matches the current value or is already taken by another account.
func (h *AuthHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var updateReq models.UserUpdateRequest
	if err := json.Unmarshal(body, &updateReq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "User not found.", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch user", http.StatusInternalServerError)
		return
	}

	oldData := models.MakeUserResponse(user)
	changes := map[string]bool{"Username": false, "Email": false, "Password": false}

	if updateReq.Username != "" {
		if updateReq.Username == user.Username {
			http.Error(w, "'"+updateReq.Username+"' is already your username.", http.StatusBadRequest)
			return
		}
		if _, err := h.userCollection.FindUserByUsername(r.Context(), updateReq.Username); err == nil {
			http.Error(w, "'"+updateReq.Username+"' is already taken.", http.StatusBadRequest)
			return
		} else if !errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Failed to check username", http.StatusInternalServerError)
			return
		}
		user.Username = updateReq.Username
		changes["Username"] = true
	}

	if updateReq.Email != "" {
		if updateReq.Email == user.Email {
			http.Error(w, "'"+updateReq.Email+"' is already your email.", http.StatusBadRequest)
			return
		}
		if _, err := h.userCollection.FindUserByEmail(r.Context(), updateReq.Email); err == nil {
			http.Error(w, "'"+updateReq.Email+"' is already taken.", http.StatusBadRequest)
			return
		} else if !errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Failed to check email", http.StatusInternalServerError)
			return
		}
		user.Email = updateReq.Email
		changes["Email"] = true
	}

	if updateReq.Password != "" {
		if h.authService.CheckPassword(updateReq.Password, user.PasswordHash) {
			http.Error(w, "New password must be different from current password.", http.StatusBadRequest)
			return
		}
		if err := h.authService.ValidatePassword(updateReq.Password); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		hash, err := h.authService.HashPassword(updateReq.Password)
		if err != nil {
			http.Error(w, "Failed to hash password", http.StatusInternalServerError)
			return
		}
		user.PasswordHash = hash
		changes["Password"] = true
	}

	var changed []string
	for field, wasChanged := range changes {
		if wasChanged {
			changed = append(changed, field)
		}
	}
	if len(changed) == 0 {
		http.Error(w, "No update fields provided.", http.StatusBadRequest)
		return
	}

	if err := h.userCollection.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		log.WithError(err).Error("Failed to update user")
		http.Error(w, "Failed to update user", http.StatusInternalServerError)
		return
	}

	updateMessage := "Credentials successfully updated."
	if len(changed) == 1 {
		updateMessage = changed[0] + " successfully updated."
	}

	writeJSON(w, http.StatusOK, models.UserUpdateResponse{
		OldData:       oldData,
		UpdatedData:   models.MakeUserResponse(user),
		Changes:       changes,
		UpdateMessage: updateMessage,
	})
}

// Delete removes the caller's account.
func (h *AuthHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	if err := h.userCollection.DeleteUser(r.Context(), claims.UserID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "User not found.", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		ID:      claims.UserID,
		Message: "User: " + claims.UserID + " successfully deleted.",
	})
}
