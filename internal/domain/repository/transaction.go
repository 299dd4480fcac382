package repository

import "context"

// TransactionManager runs a function inside one store transaction.
// Repositories called with the ctx passed to fn take part in the transaction.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
