package player

import "context"

// Repository describes player persistence needs from use cases.
type Repository interface {
	// GetByName returns every player row recorded under the exact name string.
	GetByName(ctx context.Context, name string) ([]Player, error)
	GetByID(ctx context.Context, id int64) (Player, bool, error)
	// ListByNamePattern returns players whose name matches a SQL LIKE pattern.
	// Analysis and the propose flow use it to pull name variants recorded in
	// the players table even when they carry no participation rows.
	ListByNamePattern(ctx context.Context, pattern string) ([]Player, error)
}
