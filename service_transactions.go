package accesskit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// transact runs fn against a service bound to a database transaction, so a
// mutation and its audit record commit or roll back together. Nested calls
// use savepoints through dbkit. A plain IDB without transaction support
// runs fn directly.
func (s *Service) transact(ctx context.Context, fn func(txs *Service) error) error {
	switch db := s.db.(type) {
	case *dbkit.DBKit:
		return db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(s.withDB(tx))
		})
	case *dbkit.Tx:
		return db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(s.withDB(tx))
		})
	default:
		return fn(s)
	}
}
