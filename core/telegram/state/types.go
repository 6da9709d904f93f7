package state

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Store keeps one session value per user.
type Store[T any] interface {
	// Get returns the user's session and whether one exists.
	Get(userID int64) (T, bool)
	// Put creates or replaces the user's session.
	Put(userID int64, session T)
	// Delete discards the user's session. Deleting a missing session is a no-op.
	Delete(userID int64)
	// Len reports the number of stored sessions.
	Len() int
}
