package store

import (
	"errors"
	"time"

	"advisor/pkg/model"
)

// ErrTerminalRecord is returned on an attempted mutation of a terminal
// reconciliation record. Terminal records are write-once; callers log the
// conflict and move on.
var ErrTerminalRecord = errors.New("reconciliation record is terminal")

// Store is the persistence contract the engines depend on. The storage
// technology behind it is the collaborator's concern.
type Store interface {
	// PutLatest replaces the latest-recommendation pointer for the symbol.
	// Exactly one write per symbol per run.
	PutLatest(rec model.Recommendation) error

	// Latest returns the most recent recommendation for the symbol, if any
	Latest(symbol string) (model.Recommendation, bool, error)

	// AllLatest returns the latest recommendation for every symbol
	AllLatest() ([]model.Recommendation, error)

	// PutHistory records a run's recommendations under its date
	PutHistory(date time.Time, recs []model.Recommendation) error

	// History returns the recommendations recorded for a date
	History(date time.Time) ([]model.Recommendation, bool, error)

	// PutReconciliation upserts the record keyed by symbol+asOfDate.
	// Overwriting a terminal record with different content fails with
	// ErrTerminalRecord.
	PutReconciliation(rec model.ReconciliationRecord) error

	// Reconciliation returns the record for symbol+asOfDate, if any
	Reconciliation(symbol string, asOf time.Time) (model.ReconciliationRecord, bool, error)

	// Reconciliations returns all reconciliation records
	Reconciliations() ([]model.ReconciliationRecord, error)

	// Purge removes recommendations and reconciliation records dated before
	// the cutoff, regardless of status. With dryRun it only reports what
	// would be removed.
	Purge(cutoff time.Time, dryRun bool) (removed []string, err error)
}
