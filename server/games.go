package main

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/playothello/othello-api"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// StartGameRequest is the request body for creating a game between two
// named players.
type StartGameRequest struct {
	Player1ID string `json:"player1Id" validate:"required"`
	Player2ID string `json:"player2Id" validate:"required"`
}

// ChallengeRequest is the request body for challenging an opponent as the
// authenticated user.
type ChallengeRequest struct {
	OpponentID string `json:"opponentId" validate:"required"`
}

// UpdateGameRequest carries a status transition and, for finished games, the
// optional winner.
type UpdateGameRequest struct {
	GameStatus string  `json:"gameStatus" validate:"required"`
	Result     *string `json:"result,omitempty"`
	WinnerID   *string `json:"winnerId,omitempty"`
}

// GameListResponse is the paginated game listing.
type GameListResponse struct {
	TotalGames  int64     `json:"totalGames"`
	TotalPages  int       `json:"totalPages"`
	CurrentPage int       `json:"currentPage"`
	PageSize    int       `json:"pageSize"`
	Games       []GameDTO `json:"games"`
}

// createGame starts a new ongoing game between two existing, distinct
// players. No rows are written when validation fails.
func createGame(db *gorm.DB, player1ID, player2ID string) (*Game, error) {
	if player1ID == "" || player2ID == "" {
		return nil, othello.Validationf("player1Id and player2Id are required")
	}
	if player1ID == player2ID {
		return nil, othello.Validationf("a player cannot play against themselves")
	}

	var game Game
	err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Where("id IN ?", []string{player1ID, player2ID}).Count(&count).Error; err != nil {
			return othello.Internal("could not look up players", err)
		}
		if count != 2 {
			return othello.NotFoundf("one or both players do not exist")
		}

		game = Game{
			Status:    othello.StatusOngoing,
			Player1ID: &player1ID,
			Player2ID: &player2ID,
		}
		if err := tx.Create(&game).Error; err != nil {
			return othello.Internal("could not create game", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return getGame(db, game.ID)
}

// getGame loads one game with its player summaries.
func getGame(db *gorm.DB, id int64) (*Game, error) {
	var game Game
	err := db.
		Preload("Player1").
		Preload("Player2").
		Preload("Winner").
		First(&game, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, othello.NotFoundf("game %d not found", id)
		}
		return nil, othello.Internal("could not load game", err)
	}
	return &game, nil
}

// gamePage is one page of games together with the paging parameters that
// were actually applied.
type gamePage struct {
	Games      []Game
	Total      int64
	TotalPages int
	Page       int
	PageSize   int
}

// listGames returns one page of games, newest first. pageSize is clamped to
// [1, 50] and page to at least 1; the returned page carries the clamped
// values.
func listGames(db *gorm.DB, page, pageSize int) (*gamePage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var total int64
	if err := db.Model(&Game{}).Count(&total).Error; err != nil {
		return nil, othello.Internal("could not count games", err)
	}

	var games []Game
	err := db.
		Preload("Player1").
		Preload("Player2").
		Preload("Winner").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&games).Error
	if err != nil {
		return nil, othello.Internal("could not list games", err)
	}

	return &gamePage{
		Games:      games,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// updateGame applies a status transition. Resolving transitions (to finished
// or cancelled) are guarded so a game can only be resolved once; stats,
// leaderboard and participation rows are all written in the same
// transaction.
func updateGame(db *gorm.DB, id int64, req UpdateGameRequest) error {
	if req.GameStatus != othello.StatusOngoing && !othello.TerminalStatus(req.GameStatus) {
		return othello.Validationf("unknown game status %q", req.GameStatus)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var game Game
		if err := tx.First(&game, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return othello.NotFoundf("game %d not found", id)
			}
			return othello.Internal("could not load game", err)
		}

		// No transition leaves a terminal state, not even back to ongoing;
		// reopening a resolved game would re-arm the resolution stats.
		if othello.TerminalStatus(game.Status) {
			return othello.Conflictf("game %d is already resolved", id)
		}

		if req.WinnerID != nil {
			if !isPlayerOf(&game, *req.WinnerID) {
				return othello.Validationf("winner must be one of the game's players")
			}
			if req.GameStatus != othello.StatusFinished {
				return othello.Validationf("a winner can only be set when finishing a game")
			}
		}

		updates := map[string]interface{}{
			"status":    req.GameStatus,
			"result":    req.Result,
			"winner_id": req.WinnerID,
		}

		if othello.TerminalStatus(req.GameStatus) {
			// Guarded transition: only an ongoing game can be resolved, so a
			// concurrent second resolution loses the race and conflicts.
			res := tx.Model(&Game{}).
				Where("id = ? AND status = ?", id, othello.StatusOngoing).
				Updates(updates)
			if res.Error != nil {
				return othello.Internal("could not update game", res.Error)
			}
			if res.RowsAffected == 0 {
				return othello.Conflictf("game %d is already resolved", id)
			}

			if req.GameStatus == othello.StatusFinished {
				return applyResolutionStats(tx, &game, req.WinnerID)
			}
			return nil
		}

		if err := tx.Model(&game).Updates(updates).Error; err != nil {
			return othello.Internal("could not update game", err)
		}
		return nil
	})
}

// isPlayerOf reports whether userID is one of the game's two players.
func isPlayerOf(game *Game, userID string) bool {
	if game.Player1ID != nil && *game.Player1ID == userID {
		return true
	}
	if game.Player2ID != nil && *game.Player2ID == userID {
		return true
	}
	return false
}

// applyResolutionStats writes the career stats, leaderboard and
// participation rows for a finished game. With a winner the winner/loser
// split applies; without one the game counts as a draw for both players.
func applyResolutionStats(tx *gorm.DB, game *Game, winnerID *string) error {
	participants := []string{}
	if game.Player1ID != nil {
		participants = append(participants, *game.Player1ID)
	}
	if game.Player2ID != nil {
		participants = append(participants, *game.Player2ID)
	}

	for _, pid := range participants {
		var user User
		if err := tx.First(&user, "id = ?", pid).Error; err != nil {
			return othello.Internal("could not load player for stats", err)
		}

		won := winnerID != nil && *winnerID == pid
		user.TotalGames++
		switch {
		case won:
			user.Wins++
		case winnerID != nil:
			user.Losses++
		default:
			user.Draws++
		}
		user.WinRate = float64(user.Wins) / float64(user.TotalGames) * 100

		if err := tx.Model(&User{}).Where("id = ?", pid).Updates(map[string]interface{}{
			"wins":        user.Wins,
			"losses":      user.Losses,
			"draws":       user.Draws,
			"total_games": user.TotalGames,
			"win_rate":    user.WinRate,
		}).Error; err != nil {
			return othello.Internal("could not update player stats", err)
		}

		if err := upsertUserGame(tx, &user, game.ID, won); err != nil {
			return err
		}
	}

	if winnerID != nil {
		if err := incrementLeaderboard(tx, *winnerID); err != nil {
			return err
		}
	}
	return nil
}

// upsertUserGame records a user's participation in a game, refreshing the
// snapshot columns when the row already exists.
func upsertUserGame(tx *gorm.DB, user *User, gameID int64, isWinner bool) error {
	row := UserGame{
		UserID:      user.ID,
		GameID:      gameID,
		IsWinner:    isWinner,
		TotalWins:   user.Wins,
		TotalLosses: user.Losses,
		TotalGames:  user.TotalGames,
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "game_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_winner", "total_wins", "total_losses", "total_games"}),
	}).Create(&row).Error
	if err != nil {
		return othello.Internal("could not record game participation", err)
	}
	return nil
}

// deleteGame removes a game together with its moves and participation rows.
func deleteGame(db *gorm.DB, id int64) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var game Game
		if err := tx.First(&game, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return othello.NotFoundf("game %d not found", id)
			}
			return othello.Internal("could not load game", err)
		}

		if err := tx.Where("game_id = ?", id).Delete(&Move{}).Error; err != nil {
			return othello.Internal("could not delete moves", err)
		}
		if err := tx.Where("game_id = ?", id).Delete(&UserGame{}).Error; err != nil {
			return othello.Internal("could not delete game participation", err)
		}
		if err := tx.Delete(&game).Error; err != nil {
			return othello.Internal("could not delete game", err)
		}
		return nil
	})
}

// gameIDParam parses the {id} route parameter.
func gameIDParam(r *http.Request, name string) (int64, error) {
	raw := ugcPolicy.Sanitize(chi.URLParamFromCtx(r.Context(), name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, othello.Validationf("invalid game id %q", raw)
	}
	return id, nil
}

// @Summary Start a game
// @Description Creates an ongoing game between two existing players
// @Tags game
// @Accept json
// @Produce json
// @Param game body StartGameRequest true "Player IDs"
// @Success 201 {object} GameDTO
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/game/start [post]
func startGameHandler(w http.ResponseWriter, r *http.Request) {
	var req StartGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, othello.Validationf("invalid request body"))
		return
	}

	game, err := createGame(db, req.Player1ID, req.Player2ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Infow("game started", "game_id", game.ID, "player1_id", req.Player1ID, "player2_id", req.Player2ID)
	respondJSON(w, http.StatusCreated, game.DTO())
}

// @Summary Challenge an opponent
// @Description Creates a game with the authenticated user as player one
// @Tags game
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param challenge body ChallengeRequest true "Opponent"
// @Success 201 {object} GameDTO
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/game/challenge [post]
func challengeHandler(w http.ResponseWriter, r *http.Request) {
	caller := getMustUserFromContext(r)

	var req ChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, othello.Validationf("invalid request body"))
		return
	}

	game, err := createGame(db, caller.ID, req.OpponentID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Infow("challenge created", "game_id", game.ID, "challenger_id", caller.ID, "opponent_id", req.OpponentID)
	respondJSON(w, http.StatusCreated, game.DTO())
}

// @Summary Get a game
// @Description Returns one game with player summaries
// @Tags game
// @Produce json
// @Param id path int true "Game ID"
// @Success 200 {object} GameDTO
// @Failure 404 {object} ErrorResponse
// @Router /api/game/{id} [get]
func getGameHandler(w http.ResponseWriter, r *http.Request) {
	id, err := gameIDParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	game, err := getGame(db, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, game.DTO())
}

// @Summary List games
// @Description Admin-only paginated listing, newest first
// @Tags game
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size, clamped to 50" default(10)
// @Success 200 {object} GameListResponse
// @Router /api/game [get]
func listGamesHandler(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	result, err := listGames(db, page, pageSize)
	if err != nil {
		respondError(w, r, err)
		return
	}

	dtos := make([]GameDTO, 0, len(result.Games))
	for i := range result.Games {
		dtos = append(dtos, result.Games[i].DTO())
	}

	respondJSON(w, http.StatusOK, GameListResponse{
		TotalGames:  result.Total,
		TotalPages:  result.TotalPages,
		CurrentPage: result.Page,
		PageSize:    result.PageSize,
		Games:       dtos,
	})
}

// @Summary Update a game
// @Description Applies a status transition; finishing a game writes stats and the leaderboard
// @Tags game
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Game ID"
// @Param update body UpdateGameRequest true "New status"
// @Success 200 {object} GameDTO
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/game/{id} [put]
func updateGameHandler(w http.ResponseWriter, r *http.Request) {
	id, err := gameIDParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req UpdateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, othello.Validationf("invalid request body"))
		return
	}

	if err := updateGame(db, id, req); err != nil {
		respondError(w, r, err)
		return
	}

	game, err := getGame(db, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Infow("game updated", "game_id", id, "status", req.GameStatus)
	respondJSON(w, http.StatusOK, game.DTO())
}

// @Summary Delete a game
// @Description Admin-only; removes the game, its moves and participation rows
// @Tags game
// @Security BearerAuth
// @Param id path int true "Game ID"
// @Success 204 {string} string ""
// @Failure 404 {object} ErrorResponse
// @Router /api/game/{id} [delete]
func deleteGameHandler(w http.ResponseWriter, r *http.Request) {
	id, err := gameIDParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := deleteGame(db, id); err != nil {
		respondError(w, r, err)
		return
	}

	log.Infow("game deleted", "game_id", id)
	w.WriteHeader(http.StatusNoContent)
}
