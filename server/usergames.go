package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/playothello/othello-api"
)

// CreateUserGameRequest is the request body for manually recording a user's
// participation in a game.
type CreateUserGameRequest struct {
	UserID   string `json:"userId" validate:"required"`
	GameID   int64  `json:"gameId" validate:"required"`
	IsWinner bool   `json:"isWinner"`
}

// createUserGame records one (user, game) participation row. The user must
// be one of the game's players and each pair can only be recorded once.
func createUserGame(db *gorm.DB, req CreateUserGameRequest) (*UserGame, error) {
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	var row UserGame
	err := db.Transaction(func(tx *gorm.DB) error {
		var user User
		if err := tx.First(&user, "id = ?", req.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return othello.NotFoundf("user %s not found", req.UserID)
			}
			return othello.Internal("could not load user", err)
		}

		var game Game
		if err := tx.First(&game, "id = ?", req.GameID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return othello.NotFoundf("game %d not found", req.GameID)
			}
			return othello.Internal("could not load game", err)
		}

		if !isPlayerOf(&game, req.UserID) {
			return othello.Validationf("user %s is not a player of game %d", req.UserID, req.GameID)
		}

		row = UserGame{
			UserID:      req.UserID,
			GameID:      req.GameID,
			IsWinner:    req.IsWinner,
			TotalWins:   user.Wins,
			TotalLosses: user.Losses,
			TotalGames:  user.TotalGames,
		}
		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return othello.Conflictf("participation for user %s in game %d already recorded", req.UserID, req.GameID)
			}
			return othello.Internal("could not create user game", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &row, nil
}

func getUserGame(db *gorm.DB, id int64) (*UserGame, error) {
	var row UserGame
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, othello.NotFoundf("user game %d not found", id)
		}
		return nil, othello.Internal("could not load user game", err)
	}
	return &row, nil
}

func listUserGames(db *gorm.DB) ([]UserGame, error) {
	var rows []UserGame
	if err := db.Order("created_at").Find(&rows).Error; err != nil {
		return nil, othello.Internal("could not list user games", err)
	}
	return rows, nil
}

func deleteUserGame(db *gorm.DB, id int64) error {
	res := db.Delete(&UserGame{}, "id = ?", id)
	if res.Error != nil {
		return othello.Internal("could not delete user game", res.Error)
	}
	if res.RowsAffected == 0 {
		return othello.NotFoundf("user game %d not found", id)
	}
	return nil
}

func userGameIDParam(r *http.Request) (int64, error) {
	raw := ugcPolicy.Sanitize(chi.URLParamFromCtx(r.Context(), "id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, othello.Validationf("invalid user game id %q", raw)
	}
	return id, nil
}

// @Summary List participation records
// @Description Admin-only listing of all user-game rows
// @Tags usergame
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserGame
// @Failure 404 {object} ErrorResponse
// @Router /api/usergame [get]
func listUserGamesHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := listUserGames(db)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if len(rows) == 0 {
		respondError(w, r, othello.NotFoundf("no user games recorded"))
		return
	}

	respondJSON(w, http.StatusOK, rows)
}

// @Summary Get a participation record
// @Tags usergame
// @Produce json
// @Security BearerAuth
// @Param id path int true "UserGame ID"
// @Success 200 {object} UserGame
// @Failure 404 {object} ErrorResponse
// @Router /api/usergame/{id} [get]
func getUserGameHandler(w http.ResponseWriter, r *http.Request) {
	id, err := userGameIDParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	row, err := getUserGame(db, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, row)
}

// @Summary Record participation
// @Description Records one user's participation in a game; duplicates conflict
// @Tags usergame
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param usergame body CreateUserGameRequest true "Participation data"
// @Success 200 {object} UserGame
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/usergame [post]
func createUserGameHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateUserGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, othello.Validationf("invalid request body"))
		return
	}

	row, err := createUserGame(db, req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Infow("user game recorded", "user_id", req.UserID, "game_id", req.GameID)
	respondJSON(w, http.StatusOK, row)
}

// @Summary Delete a participation record
// @Tags usergame
// @Produce json
// @Security BearerAuth
// @Param id path int true "UserGame ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/usergame/{id} [delete]
func deleteUserGameHandler(w http.ResponseWriter, r *http.Request) {
	id, err := userGameIDParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := deleteUserGame(db, id); err != nil {
		respondError(w, r, err)
		return
	}

	log.Infow("user game deleted", "user_game_id", id)
	respondJSON(w, http.StatusOK, MessageResponse{Message: "user game deleted successfully"})
}
