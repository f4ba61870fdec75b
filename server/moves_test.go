package main

import (
	"testing"

	"github.com/playothello/othello-api"
)

func TestRecordMove(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	game, err := createGame(db, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}

	move, err := recordMove(db, game.ID, alice.ID, MoveRequest{Row: 2, Column: 3})
	if err != nil {
		t.Fatalf("Failed to record move: %v", err)
	}

	if move.MoveNumber != 1 {
		t.Errorf("Expected move number 1, got %d", move.MoveNumber)
	}
	if move.PlayerID != alice.ID {
		t.Errorf("Expected player %s, got %s", alice.ID, move.PlayerID)
	}
}

func TestRecordMoveNumberingIsGapFree(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	game, err := createGame(db, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}

	players := []string{alice.ID, bob.ID}
	for i := 0; i < 6; i++ {
		move, err := recordMove(db, game.ID, players[i%2], MoveRequest{Row: i, Column: 0})
		if err != nil {
			t.Fatalf("Failed to record move %d: %v", i, err)
		}
		if move.MoveNumber != i+1 {
			t.Errorf("Expected move number %d, got %d", i+1, move.MoveNumber)
		}
	}

	// A failed insert must not consume a number
	if _, err := recordMove(db, game.ID, alice.ID, MoveRequest{Row: 0, Column: 0}); othello.KindOf(err) != othello.KindConflict {
		t.Fatalf("Expected conflict on occupied cell, got %v", err)
	}
	move, err := recordMove(db, game.ID, alice.ID, MoveRequest{Row: 6, Column: 0})
	if err != nil {
		t.Fatalf("Failed to record move after conflict: %v", err)
	}
	if move.MoveNumber != 7 {
		t.Errorf("Expected move number 7, got %d", move.MoveNumber)
	}
}

func TestRecordMoveValidation(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	game, err := createGame(db, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}

	tests := []struct {
		name string
		req  MoveRequest
	}{
		{"negative row", MoveRequest{Row: -1, Column: 0}},
		{"row too large", MoveRequest{Row: 8, Column: 0}},
		{"negative column", MoveRequest{Row: 0, Column: -1}},
		{"column too large", MoveRequest{Row: 0, Column: 8}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := recordMove(db, game.ID, alice.ID, tc.req); othello.KindOf(err) != othello.KindValidation {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}

	if _, err := recordMove(db, 9999, alice.ID, MoveRequest{Row: 0, Column: 0}); othello.KindOf(err) != othello.KindNotFound {
		t.Errorf("Expected not found for unknown game, got %v", err)
	}
	if _, err := recordMove(db, game.ID, carol.ID, MoveRequest{Row: 0, Column: 0}); othello.KindOf(err) != othello.KindForbidden {
		t.Errorf("Expected forbidden for non-player, got %v", err)
	}
}

func TestRecordMoveOnResolvedGame(t *testing.T) {
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

	if _, err := recordMove(db, game.ID, alice.ID, MoveRequest{Row: 0, Column: 0}); othello.KindOf(err) != othello.KindConflict {
		t.Errorf("Expected conflict for resolved game, got %v", err)
	}
}

func TestListMoves(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	game, err := createGame(db, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}

	// Empty log is a valid answer for an existing game
	moves, err := listMoves(db, game.ID)
	if err != nil {
		t.Fatalf("Failed to list moves of fresh game: %v", err)
	}
	if len(moves) != 0 {
		t.Errorf("Expected no moves, got %d", len(moves))
	}

	for i := 0; i < 3; i++ {
		if _, err := recordMove(db, game.ID, alice.ID, MoveRequest{Row: i, Column: i}); err != nil {
			t.Fatalf("Failed to record move %d: %v", i, err)
		}
	}

	moves, err = listMoves(db, game.ID)
	if err != nil {
		t.Fatalf("Failed to list moves: %v", err)
	}
	if len(moves) != 3 {
		t.Fatalf("Expected 3 moves, got %d", len(moves))
	}
	for i, m := range moves {
		if m.MoveNumber != i+1 {
			t.Errorf("Moves out of order: position %d has number %d", i, m.MoveNumber)
		}
	}

	if _, err := listMoves(db, 9999); othello.KindOf(err) != othello.KindNotFound {
		t.Errorf("Expected not found for unknown game, got %v", err)
	}
}
