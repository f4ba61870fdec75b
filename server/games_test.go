package main

import (
	"fmt"
	"testing"

	"github.com/playothello/othello-api"
)

func TestCreateGame(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	game, err := createGame(db, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}

	if game.Status != othello.StatusOngoing {
		t.Errorf("Expected status %s, got %s", othello.StatusOngoing, game.Status)
	}
	if game.Player1 == nil || game.Player1.UserName != "alice" {
		t.Error("Expected player1 summary to be loaded")
	}
	if game.Player2 == nil || game.Player2.UserName != "bob" {
		t.Error("Expected player2 summary to be loaded")
	}
	if game.WinnerID != nil {
		t.Error("New game should have no winner")
	}
}

func TestCreateGameValidation(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")

	if _, err := createGame(db, alice.ID, alice.ID); othello.KindOf(err) != othello.KindValidation {
		t.Errorf("Expected validation error for self-play, got %v", err)
	}
	if _, err := createGame(db, alice.ID, ""); othello.KindOf(err) != othello.KindValidation {
		t.Errorf("Expected validation error for missing player, got %v", err)
	}
	if _, err := createGame(db, alice.ID, "ghost"); othello.KindOf(err) != othello.KindNotFound {
		t.Errorf("Expected not found for unknown player, got %v", err)
	}

	// No rows may survive a failed creation
	var count int64
	db.Model(&Game{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected no games after failed creations, got %d", count)
	}
}

func TestGetGame(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	game, err := createGame(db, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}

	got, err := getGame(db, game.ID)
	if err != nil {
		t.Fatalf("Failed to get game: %v", err)
	}
	if got.ID != game.ID {
		t.Errorf("Expected game %d, got %d", game.ID, got.ID)
	}

	if _, err := getGame(db, 9999); othello.KindOf(err) != othello.KindNotFound {
		t.Errorf("Expected not found for unknown game, got %v", err)
	}
}

func TestListGamesPagination(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	for i := 0; i < 25; i++ {
		if _, err := createGame(db, alice.ID, bob.ID); err != nil {
			t.Fatalf("Failed to create game %d: %v", i, err)
		}
	}

	result, err := listGames(db, 1, 10)
	if err != nil {
		t.Fatalf("Failed to list games: %v", err)
	}
	if result.Total != 25 {
		t.Errorf("Expected 25 games total, got %d", result.Total)
	}
	if result.TotalPages != 3 {
		t.Errorf("Expected 3 pages, got %d", result.TotalPages)
	}
	if len(result.Games) != 10 {
		t.Errorf("Expected 10 games on page 1, got %d", len(result.Games))
	}

	// Newest first
	if len(result.Games) > 1 && result.Games[0].ID < result.Games[1].ID {
		t.Error("Expected newest games first")
	}

	result, err = listGames(db, 3, 10)
	if err != nil {
		t.Fatalf("Failed to list page 3: %v", err)
	}
	if len(result.Games) != 5 {
		t.Errorf("Expected 5 games on page 3, got %d", len(result.Games))
	}

	// Page size is clamped to 50 and page floors at 1; the effective values
	// come back with the page
	result, err = listGames(db, 0, 500)
	if err != nil {
		t.Fatalf("Failed to list with out-of-range params: %v", err)
	}
	if len(result.Games) != 25 {
		t.Errorf("Expected clamped page of 25 games, got %d", len(result.Games))
	}
	if result.Page != 1 || result.PageSize != maxPageSize {
		t.Errorf("Expected effective page 1 and size %d, got %d and %d", maxPageSize, result.Page, result.PageSize)
	}
}

func TestUpdateGameWinner(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	game, err := createGame(db, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}

	result := "34-30"
	err = updateGame(db, game.ID, UpdateGameRequest{
		GameStatus: othello.StatusFinished,
		Result:     &result,
		WinnerID:   &alice.ID,
	})
	if err != nil {
		t.Fatalf("Failed to finish game: %v", err)
	}

	var updated Game
	db.First(&updated, "id = ?", game.ID)
	if updated.Status != othello.StatusFinished {
		t.Errorf("Expected status finished, got %s", updated.Status)
	}
	if updated.WinnerID == nil || *updated.WinnerID != alice.ID {
		t.Error("Expected winner to be recorded")
	}

	// Winner and loser stats
	var winner, loser User
	db.First(&winner, "id = ?", alice.ID)
	db.First(&loser, "id = ?", bob.ID)
	if winner.Wins != 1 || winner.TotalGames != 1 || winner.WinRate != 100 {
		t.Errorf("Unexpected winner stats: wins=%d total=%d rate=%f", winner.Wins, winner.TotalGames, winner.WinRate)
	}
	if loser.Losses != 1 || loser.TotalGames != 1 || loser.WinRate != 0 {
		t.Errorf("Unexpected loser stats: losses=%d total=%d rate=%f", loser.Losses, loser.TotalGames, loser.WinRate)
	}

	// Leaderboard row
	var lb LeaderBoard
	if err := db.Where("player_id = ?", alice.ID).First(&lb).Error; err != nil {
		t.Fatalf("Leaderboard row missing: %v", err)
	}
	if lb.Wins != 1 {
		t.Errorf("Expected 1 leaderboard win, got %d", lb.Wins)
	}

	// Exactly one winning participation row per player
	var rows []UserGame
	db.Where("game_id = ?", game.ID).Order("user_id").Find(&rows)
	if len(rows) != 2 {
		t.Fatalf("Expected 2 participation rows, got %d", len(rows))
	}
	winners := 0
	for _, row := range rows {
		if row.IsWinner {
			winners++
			if row.UserID != alice.ID {
				t.Errorf("Wrong winner in participation row: %s", row.UserID)
			}
		}
	}
	if winners != 1 {
		t.Errorf("Expected exactly one winning row, got %d", winners)
	}
}

func TestUpdateGameWinnerNotAPlayer(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	game, err := createGame(db, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}

	err = updateGame(db, game.ID, UpdateGameRequest{GameStatus: othello.StatusFinished, WinnerID: &carol.ID})
	if othello.KindOf(err) != othello.KindValidation {
		t.Errorf("Expected validation error for outside winner, got %v", err)
	}

	var updated Game
	db.First(&updated, "id = ?", game.ID)
	if updated.Status != othello.StatusOngoing {
		t.Error("Game must stay ongoing after rejected winner")
	}
}

func TestUpdateGameDoubleResolution(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	game, err := createGame(db, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}

	if err := updateGame(db, game.ID, UpdateGameRequest{GameStatus: othello.StatusFinished, WinnerID: &alice.ID}); err != nil {
		t.Fatalf("Failed to finish game: %v", err)
	}

	err = updateGame(db, game.ID, UpdateGameRequest{GameStatus: othello.StatusFinished, WinnerID: &bob.ID})
	if othello.KindOf(err) != othello.KindConflict {
		t.Errorf("Expected conflict on second resolution, got %v", err)
	}

	// First resolution's stats must be untouched
	var winner User
	db.First(&winner, "id = ?", alice.ID)
	if winner.Wins != 1 || winner.TotalGames != 1 {
		t.Errorf("Stats changed after rejected resolution: wins=%d total=%d", winner.Wins, winner.TotalGames)
	}
}

func TestUpdateGameCannotReopen(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	game, err := createGame(db, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}

	if err := updateGame(db, game.ID, UpdateGameRequest{GameStatus: othello.StatusFinished, WinnerID: &alice.ID}); err != nil {
		t.Fatalf("Failed to finish game: %v", err)
	}

	// Setting a finished game back to ongoing must conflict, or a second
	// finish would count the same game twice
	err = updateGame(db, game.ID, UpdateGameRequest{GameStatus: othello.StatusOngoing})
	if othello.KindOf(err) != othello.KindConflict {
		t.Fatalf("Expected conflict on reopen, got %v", err)
	}

	var updated Game
	db.First(&updated, "id = ?", game.ID)
	if updated.Status != othello.StatusFinished {
		t.Errorf("Expected game to stay finished, got %s", updated.Status)
	}
	if updated.WinnerID == nil || *updated.WinnerID != alice.ID {
		t.Error("Winner must survive a rejected reopen")
	}

	// The same holds for cancelled games
	cancelled, err := createGame(db, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	if err := updateGame(db, cancelled.ID, UpdateGameRequest{GameStatus: othello.StatusCancelled}); err != nil {
		t.Fatalf("Failed to cancel game: %v", err)
	}
	err = updateGame(db, cancelled.ID, UpdateGameRequest{GameStatus: othello.StatusOngoing})
	if othello.KindOf(err) != othello.KindConflict {
		t.Errorf("Expected conflict reopening a cancelled game, got %v", err)
	}

	var winner User
	db.First(&winner, "id = ?", alice.ID)
	if winner.Wins != 1 || winner.TotalGames != 1 {
		t.Errorf("Stats changed after rejected reopens: wins=%d total=%d", winner.Wins, winner.TotalGames)
	}

	var lb LeaderBoard
	if err := db.Where("player_id = ?", alice.ID).First(&lb).Error; err != nil {
		t.Fatalf("Leaderboard row missing: %v", err)
	}
	if lb.Wins != 1 {
		t.Errorf("Expected 1 leaderboard win, got %d", lb.Wins)
	}
}

func TestUpdateGameDraw(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	game, err := createGame(db, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}

	if err := updateGame(db, game.ID, UpdateGameRequest{GameStatus: othello.StatusFinished}); err != nil {
		t.Fatalf("Failed to finish game as draw: %v", err)
	}

	for _, id := range []string{alice.ID, bob.ID} {
		var u User
		db.First(&u, "id = ?", id)
		if u.Draws != 1 || u.TotalGames != 1 || u.Wins != 0 || u.Losses != 0 {
			t.Errorf("Unexpected draw stats for %s: %+v", u.UserName, u)
		}
	}

	var count int64
	db.Model(&LeaderBoard{}).Count(&count)
	if count != 0 {
		t.Error("Draw must not create leaderboard rows")
	}
}

func TestUpdateGameCancelled(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	game, err := createGame(db, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}

	if err := updateGame(db, game.ID, UpdateGameRequest{GameStatus: othello.StatusCancelled}); err != nil {
		t.Fatalf("Failed to cancel game: %v", err)
	}

	// Cancellation records nothing
	var u User
	db.First(&u, "id = ?", alice.ID)
	if u.TotalGames != 0 {
		t.Errorf("Cancelled game must not count, got total=%d", u.TotalGames)
	}

	var count int64
	db.Model(&UserGame{}).Count(&count)
	if count != 0 {
		t.Error("Cancelled game must not create participation rows")
	}
}

func TestUpdateGameValidation(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	game, err := createGame(db, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}

	err = updateGame(db, game.ID, UpdateGameRequest{GameStatus: "paused"})
	if othello.KindOf(err) != othello.KindValidation {
		t.Errorf("Expected validation error for unknown status, got %v", err)
	}

	err = updateGame(db, game.ID, UpdateGameRequest{GameStatus: othello.StatusCancelled, WinnerID: &alice.ID})
	if othello.KindOf(err) != othello.KindValidation {
		t.Errorf("Expected validation error for winner on cancel, got %v", err)
	}

	err = updateGame(db, 9999, UpdateGameRequest{GameStatus: othello.StatusFinished})
	if othello.KindOf(err) != othello.KindNotFound {
		t.Errorf("Expected not found for unknown game, got %v", err)
	}
}

func TestDeleteGameCascade(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	game, err := createGame(db, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}

	for i := 0; i < 4; i++ {
		if _, err := recordMove(db, game.ID, alice.ID, MoveRequest{Row: i, Column: i}); err != nil {
			t.Fatalf("Failed to record move %d: %v", i, err)
		}
	}

	if err := deleteGame(db, game.ID); err != nil {
		t.Fatalf("Failed to delete game: %v", err)
	}

	var count int64
	db.Model(&Game{}).Where("id = ?", game.ID).Count(&count)
	if count != 0 {
		t.Error("Game row should be gone")
	}
	db.Model(&Move{}).Where("game_id = ?", game.ID).Count(&count)
	if count != 0 {
		t.Error("Move rows should be gone")
	}

	if err := deleteGame(db, game.ID); othello.KindOf(err) != othello.KindNotFound {
		t.Errorf("Expected not found on second delete, got %v", err)
	}
}

func TestWinRateAccumulates(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	// alice wins 1 of 2
	for i, winner := range []*User{alice, bob} {
		game, err := createGame(db, alice.ID, bob.ID)
		if err != nil {
			t.Fatalf("Failed to create game %d: %v", i, err)
		}
		if err := updateGame(db, game.ID, UpdateGameRequest{GameStatus: othello.StatusFinished, WinnerID: &winner.ID}); err != nil {
			t.Fatalf("Failed to finish game %d: %v", i, err)
		}
	}

	var u User
	db.First(&u, "id = ?", alice.ID)
	want := fmt.Sprintf("%.1f", 50.0)
	if got := fmt.Sprintf("%.1f", u.WinRate); got != want {
		t.Errorf("Expected win rate %s, got %s", want, got)
	}
	if u.Wins != 1 || u.Losses != 1 || u.TotalGames != 2 {
		t.Errorf("Unexpected accumulated stats: %+v", u)
	}
}
