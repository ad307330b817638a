package handoff

import "context"

// Store persists handoff records.
//
// ConditionalUpdate is the only mutation path after Insert and must be atomic
// with respect to every other caller, in this process or any other: of N
// concurrent updates expecting the same status, at most one may succeed and
// the rest must get ErrNoMatch. Implementations do this with a conditional
// write in the backing store (UPDATE ... WHERE id = ? AND status = ?, or a
// DynamoDB ConditionExpression), never with a read followed by a write.
type Store interface {
	// Insert persists a new record. It returns ErrDuplicateCode when the code
	// is already taken and a different error for any other failure.
	Insert(ctx context.Context, rec *Record) error

	// FindByCodeAndStore returns the record with code in storeID, or
	// ErrNotFound.
	FindByCodeAndStore(ctx context.Context, code, storeID string) (*Record, error)

	// ConditionalUpdate applies patch to record id only if its current status
	// is expected, and returns the updated record. It returns ErrNoMatch when
	// the status differs or the record does not exist.
	ConditionalUpdate(ctx context.Context, id string, expected Status, patch Patch) (*Record, error)
}
