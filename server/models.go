package main

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered account with denormalized career stats. Stats
// are updated inside the same transaction that resolves a game.
type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserName     string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"userName"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Role         string    `gorm:"type:varchar(16);not null;default:'Player'" json:"role"`
	Wins         int       `gorm:"not null;default:0" json:"wins"`
	Losses       int       `gorm:"not null;default:0" json:"losses"`
	Draws        int       `gorm:"not null;default:0" json:"draws"`
	TotalGames   int       `gorm:"not null;default:0" json:"totalGames"`
	WinRate      float64   `gorm:"not null;default:0" json:"winRate"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Game represents one match between two players. Player references are
// nullable so they can be cleared when an account is deleted; both are
// required at creation time.
type Game struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Status    string    `gorm:"type:varchar(16);not null;default:'ongoing'" json:"gameStatus"`
	Result    *string   `gorm:"type:text" json:"result,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Player1ID *string   `gorm:"type:varchar(64);index" json:"player1Id,omitempty"`
	Player2ID *string   `gorm:"type:varchar(64);index" json:"player2Id,omitempty"`
	WinnerID  *string   `gorm:"type:varchar(64);index" json:"winnerId,omitempty"`

	// Associations
	Player1 *User  `gorm:"foreignKey:Player1ID" json:"-"`
	Player2 *User  `gorm:"foreignKey:Player2ID" json:"-"`
	Winner  *User  `gorm:"foreignKey:WinnerID" json:"-"`
	Moves   []Move `gorm:"foreignKey:GameID" json:"-"`
}

// Move is one recorded (row, column) placement. The log is append-only and
// the coordinates are never validated against any board state. The composite
// unique index rejects a second move on an occupied cell.
type Move struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	GameID     int64     `gorm:"not null;index;uniqueIndex:idx_game_cell" json:"gameId"`
	PlayerID   string    `gorm:"type:varchar(64);not null;index" json:"playerId"`
	Row        int       `gorm:"column:row_num;not null;uniqueIndex:idx_game_cell" json:"row"`
	Column     int       `gorm:"column:col_num;not null;uniqueIndex:idx_game_cell" json:"column"`
	MoveNumber int       `gorm:"not null" json:"moveNumber"`
	CreatedAt  time.Time `json:"createdAt"`

	// Associations
	Game Game `gorm:"foreignKey:GameID" json:"-"`
}

// UserGame captures one user's participation in one game. At most one row
// exists per (user, game) pair.
type UserGame struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"userGameId"`
	UserID      string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_game" json:"userId"`
	GameID      int64     `gorm:"not null;uniqueIndex:idx_user_game" json:"gameId"`
	IsWinner    bool      `gorm:"not null;default:false" json:"isWinner"`
	TotalWins   int       `gorm:"not null;default:0" json:"totalWins"`
	TotalLosses int       `gorm:"not null;default:0" json:"totalLosses"`
	TotalGames  int       `gorm:"not null;default:0" json:"totalGames"`
	CreatedAt   time.Time `json:"createdAt"`

	// Associations
	User *User `gorm:"foreignKey:UserID" json:"-"`
	Game *Game `gorm:"foreignKey:GameID" json:"-"`
}

// LeaderBoard holds one row per player who has won at least one game. Rows
// are created lazily on the first win and never decremented.
type LeaderBoard struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID string `gorm:"type:varchar(64);uniqueIndex;not null" json:"playerId"`
	Wins     int    `gorm:"not null;default:0" json:"wins"`

	// Associations
	Player *User `gorm:"foreignKey:PlayerID" json:"-"`
}

// AutoMigrate runs the database migrations
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Game{}, &Move{}, &UserGame{}, &LeaderBoard{})
}

// UserSummary is the player shape embedded in game responses.
type UserSummary struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
}

func summarize(u *User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, UserName: u.UserName, Email: u.Email}
}

// GameDTO is the wire representation of a game with its player summaries
// loaded explicitly.
type GameDTO struct {
	GameID     int64        `json:"gameId"`
	GameStatus string       `json:"gameStatus"`
	Result     *string      `json:"result,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
	Player1    *UserSummary `json:"player1"`
	Player2    *UserSummary `json:"player2"`
	Winner     *UserSummary `json:"winner,omitempty"`
}

// DTO shapes a loaded game for responses.
func (g *Game) DTO() GameDTO {
	return GameDTO{
		GameID:     g.ID,
		GameStatus: g.Status,
		Result:     g.Result,
		CreatedAt:  g.CreatedAt,
		Player1:    summarize(g.Player1),
		Player2:    summarize(g.Player2),
		Winner:     summarize(g.Winner),
	}
}

// LeaderboardEntry is one row of the win-count ranking.
type LeaderboardEntry struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Wins       int    `json:"wins"`
	Rank       int    `json:"rank"`
}
