package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/playothello/othello-api"
)

// RegisterRequest is the request body for user registration
type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=64" example:"alice"`
	Email           string `json:"email" validate:"required,email" example:"alice@example.com"`
	Password        string `json:"password" validate:"required,min=8" example:"Passw0rd!"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password" example:"Passw0rd!"`
}

// LoginRequest is the request body for user login. Either email or username
// must be supplied.
type LoginRequest struct {
	Email    string `json:"email,omitempty" example:"alice@example.com"`
	UserName string `json:"username,omitempty" example:"alice"`
	Password string `json:"password" validate:"required" example:"Passw0rd!"`
}

// RoleAssignmentRequest is the request body for the admin assign-role call.
type RoleAssignmentRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required"`
}

// UpdateUserRequest carries the optional profile fields; at least one must
// be present.
type UpdateUserRequest struct {
	UserName    string `json:"userName,omitempty" validate:"omitempty,min=3,max=64"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	NewPassword string `json:"newPassword,omitempty" validate:"omitempty,min=8"`
}

// LoginResponse is the success body of the login endpoint.
type LoginResponse struct {
	Token      string       `json:"token"`
	Expiration int64        `json:"expiration"`
	User       *UserSummary `json:"user"`
}

// validationError converts a validator result to the client-facing error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return othello.Validationf("field %s failed %s validation", f.Field(), f.Tag())
	}
	return othello.Validationf("invalid request")
}

func registerUser(db *gorm.DB, req RegisterRequest) (*User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, othello.Internal("could not hash password", err)
	}

	user := User{
		ID:           newID(),
		UserName:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         othello.RolePlayer,
	}

	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, othello.Conflictf("username or email already in use")
		}
		return nil, othello.Internal("could not create user", err)
	}

	return &user, nil
}

// loginUser checks credentials and issues a token. Failures are deliberately
// undifferentiated so responses never reveal whether the account exists.
func loginUser(db *gorm.DB, cfg *Config, req LoginRequest) (string, *User, error) {
	if req.Password == "" || (req.Email == "" && req.UserName == "") {
		return "", nil, othello.Validationf("email or username and password required")
	}

	var user User
	err := gorm.ErrRecordNotFound
	if req.Email != "" {
		err = db.Where("email = ?", req.Email).First(&user).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) && req.UserName != "" {
		err = db.Where("user_name = ?", req.UserName).First(&user).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, othello.Authf("invalid credentials")
		}
		return "", nil, othello.Internal("could not load account", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, othello.Authf("invalid credentials")
	}

	token, err := generateToken(cfg, &user)
	if err != nil {
		return "", nil, othello.Internal("could not sign token", err)
	}

	return token, &user, nil
}

func assignRole(db *gorm.DB, email, role string) error {
	if !othello.ValidRole(role) {
		return othello.Validationf("unknown role %q", role)
	}

	var user User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return othello.NotFoundf("user with email %s not found", email)
		}
		return othello.Internal("could not load user", err)
	}

	if err := db.Model(&user).Update("role", role).Error; err != nil {
		return othello.Internal("could not assign role", err)
	}
	return nil
}

func listUsers(db *gorm.DB) ([]User, error) {
	var users []User
	if err := db.Order("created_at").Find(&users).Error; err != nil {
		return nil, othello.Internal("could not list users", err)
	}
	return users, nil
}

func updateUser(db *gorm.DB, id string, req UpdateUserRequest) error {
	if req.UserName == "" && req.Email == "" && req.NewPassword == "" {
		return othello.Validationf("at least one of userName, email or newPassword must be provided")
	}
	if err := validate.Struct(req); err != nil {
		return validationError(err)
	}

	var user User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return othello.NotFoundf("user %s not found", id)
		}
		return othello.Internal("could not load user", err)
	}

	updates := map[string]interface{}{}
	if req.UserName != "" {
		updates["user_name"] = req.UserName
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.NewPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return othello.Internal("could not hash password", err)
		}
		updates["password_hash"] = string(hash)
	}

	if err := db.Model(&user).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return othello.Conflictf("username or email already in use")
		}
		return othello.Internal("could not update user", err)
	}
	return nil
}

// deleteUserCascade removes the user and every row that references it inside
// one transaction: user-game rows, the leaderboard row, and player/winner
// references on games are cleared before the account row goes away.
func deleteUserCascade(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var user User
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return othello.NotFoundf("user %s not found", id)
			}
			return othello.Internal("could not load user", err)
		}

		if err := tx.Where("user_id = ?", id).Delete(&UserGame{}).Error; err != nil {
			return othello.Internal("could not delete user games", err)
		}
		if err := tx.Where("player_id = ?", id).Delete(&LeaderBoard{}).Error; err != nil {
			return othello.Internal("could not delete leaderboard entry", err)
		}
		if err := tx.Model(&Game{}).Where("winner_id = ?", id).Update("winner_id", nil).Error; err != nil {
			return othello.Internal("could not clear winner references", err)
		}
		if err := tx.Model(&Game{}).Where("player1_id = ?", id).Update("player1_id", nil).Error; err != nil {
			return othello.Internal("could not clear player references", err)
		}
		if err := tx.Model(&Game{}).Where("player2_id = ?", id).Update("player2_id", nil).Error; err != nil {
			return othello.Internal("could not clear player references", err)
		}

		if err := tx.Delete(&user).Error; err != nil {
			return othello.Internal("could not delete user", err)
		}
		return nil
	})
}

// @Summary Register a new user
// @Description Creates a Player account from username, email and password
// @Tags user
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Registration data"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/user/register [post]
func registerHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, othello.Validationf("invalid request body"))
		return
	}

	user, err := registerUser(db, req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Infow("user registered", "user_id", user.ID, "username", user.UserName)
	respondJSON(w, http.StatusOK, map[string]string{
		"message":  "user registered successfully",
		"id":       user.ID,
		"userName": user.UserName,
		"email":    user.Email,
	})
}

// @Summary Login
// @Description Checks credentials and returns a signed bearer token
// @Tags user
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login data"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/user/login [post]
func loginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, othello.Validationf("invalid request body"))
		return
	}

	token, user, err := loginUser(db, cfg, req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Infow("user logged in", "user_id", user.ID)
	respondJSON(w, http.StatusOK, LoginResponse{
		Token:      token,
		Expiration: int64(tokenTTL.Seconds()),
		User:       summarize(user),
	})
}

// @Summary Assign a role
// @Description Admin-only role assignment by email
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RoleAssignmentRequest true "Role assignment"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/user/assign-role [post]
func assignRoleHandler(w http.ResponseWriter, r *http.Request) {
	var req RoleAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, othello.Validationf("invalid request body"))
		return
	}

	if err := assignRole(db, req.Email, req.Role); err != nil {
		respondError(w, r, err)
		return
	}

	log.Infow("role assigned", "email", req.Email, "role", req.Role)
	respondJSON(w, http.StatusOK, MessageResponse{Message: "role " + req.Role + " assigned to " + req.Email})
}

// @Summary List users
// @Description Admin-only listing of all accounts
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {array} User
// @Failure 404 {object} ErrorResponse
// @Router /api/user [get]
func listUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := listUsers(db)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if len(users) == 0 {
		respondError(w, r, othello.NotFoundf("no users available"))
		return
	}

	type userView struct {
		ID       string `json:"id"`
		UserName string `json:"userName"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, userView{ID: u.ID, UserName: u.UserName, Email: u.Email, Role: u.Role})
	}
	respondJSON(w, http.StatusOK, views)
}

// @Summary Update a profile
// @Description Profile owner or an Admin may change username, email or password
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param update body UpdateUserRequest true "Fields to change"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/user/{id} [put]
func updateUserHandler(w http.ResponseWriter, r *http.Request) {
	id := ugcPolicy.Sanitize(chi.URLParamFromCtx(r.Context(), "id"))
	caller := getMustUserFromContext(r)

	if caller.ID != id && caller.Role != othello.RoleAdmin {
		respondError(w, r, othello.Forbiddenf("you can only update your own profile"))
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, othello.Validationf("invalid request body"))
		return
	}

	if err := updateUser(db, id, req); err != nil {
		respondError(w, r, err)
		return
	}

	log.Infow("user updated", "user_id", id, "caller_id", caller.ID)
	respondJSON(w, http.StatusOK, MessageResponse{Message: "user updated successfully"})
}

// @Summary Delete a user
// @Description Admin-only; cascades over user games, leaderboard and game references
// @Tags user
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/user/{id} [delete]
func deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id := ugcPolicy.Sanitize(chi.URLParamFromCtx(r.Context(), "id"))

	if err := deleteUserCascade(db, id); err != nil {
		respondError(w, r, err)
		return
	}

	log.Infow("user deleted", "user_id", id)
	respondJSON(w, http.StatusOK, MessageResponse{Message: "user deleted successfully"})
}
