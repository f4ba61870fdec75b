package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/playothello/othello-api"
)

// incrementLeaderboard adds one win to the player's leaderboard row,
// creating it on the first win.
func incrementLeaderboard(tx *gorm.DB, playerID string) error {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"wins": gorm.Expr("wins + 1")}),
	}).Create(&LeaderBoard{PlayerID: playerID, Wins: 1}).Error
	if err != nil {
		return othello.Internal("could not update leaderboard", err)
	}
	return nil
}

// loadLeaderboard returns all leaderboard rows joined with player names,
// ranked by wins descending. Ties share the order the database returns;
// ranks are still dense 1..n.
func loadLeaderboard(db *gorm.DB) ([]LeaderboardEntry, error) {
	type row struct {
		PlayerID string
		UserName string
		Wins     int
	}

	var rows []row
	err := db.Model(&LeaderBoard{}).
		Select("leader_boards.player_id, users.user_name, leader_boards.wins").
		Joins("JOIN users ON users.id = leader_boards.player_id").
		Order("leader_boards.wins DESC, users.user_name").
		Scan(&rows).Error
	if err != nil {
		return nil, othello.Internal("could not load leaderboard", err)
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, r := range rows {
		entries = append(entries, LeaderboardEntry{
			PlayerID:   r.PlayerID,
			PlayerName: r.UserName,
			Wins:       r.Wins,
			Rank:       i + 1,
		})
	}
	return entries, nil
}

// getUserRanking finds one player's leaderboard entry with its rank.
func getUserRanking(db *gorm.DB, playerID string) (*LeaderboardEntry, error) {
	var lb LeaderBoard
	if err := db.Where("player_id = ?", playerID).First(&lb).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, othello.NotFoundf("player %s has no ranking yet", playerID)
		}
		return nil, othello.Internal("could not load ranking", err)
	}

	var user User
	if err := db.First(&user, "id = ?", playerID).Error; err != nil {
		return nil, othello.Internal("could not load player", err)
	}

	var ahead int64
	if err := db.Model(&LeaderBoard{}).Where("wins > ?", lb.Wins).Count(&ahead).Error; err != nil {
		return nil, othello.Internal("could not compute rank", err)
	}

	return &LeaderboardEntry{
		PlayerID:   playerID,
		PlayerName: user.UserName,
		Wins:       lb.Wins,
		Rank:       int(ahead) + 1,
	}, nil
}

// @Summary Get the leaderboard
// @Description Returns every player with at least one win, ranked by wins
// @Tags leaderboard
// @Produce json
// @Success 200 {array} LeaderboardEntry
// @Failure 404 {object} ErrorResponse
// @Router /api/leaderboard [get]
func leaderboardHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := loadLeaderboard(db)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if len(entries) == 0 {
		respondError(w, r, othello.NotFoundf("no games have been won yet"))
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

// @Summary Get a player's ranking
// @Description Returns one player's win count and rank
// @Tags leaderboard
// @Produce json
// @Param userID path string true "Player ID"
// @Success 200 {object} LeaderboardEntry
// @Failure 404 {object} ErrorResponse
// @Router /api/leaderboard/{userID} [get]
func userRankingHandler(w http.ResponseWriter, r *http.Request) {
	playerID := ugcPolicy.Sanitize(chi.URLParamFromCtx(r.Context(), "userID"))

	entry, err := getUserRanking(db, playerID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, entry)
}
