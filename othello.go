// Package othello holds the domain constants and error taxonomy shared by
// the API server and its clients.
package othello

const (
	// Service is the name of this service.
	Service = "othello-api"

	// BoardSize is the side length of the board. Moves are recorded as raw
	// coordinates in [0, BoardSize); no rule checking is performed beyond
	// the coordinate range.
	BoardSize = 8
)

// User roles. Every account is created as a Player; Admin is assigned
// explicitly through the assign-role endpoint or the startup seed.
const (
	RoleAdmin  = "Admin"
	RolePlayer = "Player"
)

// Game statuses. A game starts ongoing and transitions exactly once to
// finished or cancelled; both are terminal.
const (
	StatusOngoing   = "ongoing"
	StatusFinished  = "finished"
	StatusCancelled = "cancelled"
)

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	return s == RoleAdmin || s == RolePlayer
}

// TerminalStatus reports whether s is a terminal game status.
func TerminalStatus(s string) bool {
	return s == StatusFinished || s == StatusCancelled
}
