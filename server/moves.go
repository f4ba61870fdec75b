package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/playothello/othello-api"
)

// MoveRequest is the request body for recording a move. PlayerID is
// optional; when present it must match the authenticated caller.
type MoveRequest struct {
	PlayerID string `json:"playerId,omitempty"`
	Row      int    `json:"row"`
	Column   int    `json:"column"`
}

// recordMove appends a move to an ongoing game. Coordinates are only checked
// against the board bounds and cell occupancy, never against game rules;
// numbering stays gap-free because the count and the insert share a
// transaction.
func recordMove(db *gorm.DB, gameID int64, playerID string, req MoveRequest) (*Move, error) {
	if req.Row < 0 || req.Row >= othello.BoardSize || req.Column < 0 || req.Column >= othello.BoardSize {
		return nil, othello.Validationf("row and column must be between 0 and %d", othello.BoardSize-1)
	}

	var move Move
	err := db.Transaction(func(tx *gorm.DB) error {
		var game Game
		if err := tx.First(&game, "id = ?", gameID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return othello.NotFoundf("game %d not found", gameID)
			}
			return othello.Internal("could not load game", err)
		}

		if game.Status != othello.StatusOngoing {
			return othello.Conflictf("game %d is not ongoing", gameID)
		}
		if !isPlayerOf(&game, playerID) {
			return othello.Forbiddenf("only the game's players can record moves")
		}

		var count int64
		if err := tx.Model(&Move{}).Where("game_id = ?", gameID).Count(&count).Error; err != nil {
			return othello.Internal("could not count moves", err)
		}

		move = Move{
			GameID:     gameID,
			PlayerID:   playerID,
			Row:        req.Row,
			Column:     req.Column,
			MoveNumber: int(count) + 1,
		}
		if err := tx.Create(&move).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return othello.Conflictf("cell (%d, %d) is already occupied", req.Row, req.Column)
			}
			return othello.Internal("could not record move", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &move, nil
}

// listMoves returns a game's moves in play order. An existing game with no
// moves yields an empty list, not an error.
func listMoves(db *gorm.DB, gameID int64) ([]Move, error) {
	var count int64
	if err := db.Model(&Game{}).Where("id = ?", gameID).Count(&count).Error; err != nil {
		return nil, othello.Internal("could not look up game", err)
	}
	if count == 0 {
		return nil, othello.NotFoundf("game %d not found", gameID)
	}

	var moves []Move
	if err := db.Where("game_id = ?", gameID).Order("move_number").Find(&moves).Error; err != nil {
		return nil, othello.Internal("could not list moves", err)
	}
	return moves, nil
}

// @Summary Record a move
// @Description Appends a (row, column) placement to an ongoing game; legality is not checked
// @Tags move
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param gameID path int true "Game ID"
// @Param move body MoveRequest true "Cell coordinates"
// @Success 200 {object} Move
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/move/{gameID}/move [post]
func makeMoveHandler(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDParam(r, "gameID")
	if err != nil {
		respondError(w, r, err)
		return
	}

	caller := getMustUserFromContext(r)

	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, othello.Validationf("invalid request body"))
		return
	}
	if req.PlayerID != "" && req.PlayerID != caller.ID {
		respondError(w, r, othello.Forbiddenf("moves can only be recorded as yourself"))
		return
	}

	move, err := recordMove(db, gameID, caller.ID, req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Infow("move recorded", "game_id", gameID, "player_id", caller.ID, "move_number", move.MoveNumber)
	respondJSON(w, http.StatusOK, move)
}

// @Summary List moves
// @Description Returns a game's moves in play order
// @Tags move
// @Produce json
// @Param gameID path int true "Game ID"
// @Success 200 {array} Move
// @Failure 404 {object} ErrorResponse
// @Router /api/move/{gameID}/moves [get]
func listMovesHandler(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDParam(r, "gameID")
	if err != nil {
		respondError(w, r, err)
		return
	}

	moves, err := listMoves(db, gameID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if moves == nil {
		moves = []Move{}
	}

	respondJSON(w, http.StatusOK, moves)
}
