//services/authentication-service/internal/ports/repository/tx_manager.repo.go

package repository

import "context"

// TransactionManager interface abstracts the database transaction.
// Profile edits read the password hash and write the row in one unit.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
