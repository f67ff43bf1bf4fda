package service

import "context"

// TxRepositories provides transaction-bound repositories.
type TxRepositories interface {
	Entities() EntityRepository
}

// TxRunner executes a function within a read-only snapshot transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}
