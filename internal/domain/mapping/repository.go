package mapping

import "context"

// Repository describes mapping persistence needs from use cases. Insertion
// is insert-if-absent keyed on (sub_match_id, original_player_id) so an
// interrupted batch can simply be re-run.
type Repository interface {
	// InsertIfAbsent stores the mapping unless one already exists for the
	// same (sub_match_id, original_player_id). Returns false when skipped.
	InsertIfAbsent(ctx context.Context, m Mapping) (bool, error)
	GetByID(ctx context.Context, id int64) (Mapping, bool, error)
	List(ctx context.Context) ([]Mapping, error)
	ListByStatus(ctx context.Context, status Status) ([]Mapping, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	// TargetIDsForName returns the distinct correct_player_id values of
	// confirmed and applied mappings whose correct_player_name equals name.
	TargetIDsForName(ctx context.Context, name string) ([]int64, error)
}
