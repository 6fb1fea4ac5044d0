package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager handles database transactions. Every public mutating
// operation of the folder core runs inside exactly one ExecTx call, so
// multi-step sequences (replace a grant, cascade a delete) commit or roll
// back as a unit.
type TransactionManager interface {
	// ExecTx executes a function within a transaction
	ExecTx(ctx context.Context, fn TxFn) error
}
