package sip

import (
	"context"
	"iter"
	"log/slog"
	"time"

	"braces.dev/errtrace"
	"golang.org/x/sync/singleflight"

	"github.com/ghettovoice/sipcore/internal/log"
	"github.com/ghettovoice/sipcore/internal/syncutil"
)

// DefaultTransactionLinger is the default time a completed transaction stays in the table
// to absorb retransmissions. It equals 64*T1 (RFC 3261 Section 17).
const DefaultTransactionLinger = 64 * 500 * time.Millisecond

// TransactionTableOptions contains options for [TransactionTable].
type TransactionTableOptions struct {
	// LingerTime is how long a completed transaction is kept before eviction.
	// If zero, the [DefaultTransactionLinger] will be used.
	// If negative, completed transactions are never evicted.
	LingerTime time.Duration
	// Shards is the number of lock stripes of the table.
	// If zero, the [syncutil.DefaultShards] will be used.
	Shards uint
	// Logger is the logger that will be used with the table and its transactions.
	// If nil, the [log.Default] will be used.
	Logger *slog.Logger
}

func (o *TransactionTableOptions) lingerTime() time.Duration {
	if o == nil || o.LingerTime == 0 {
		return DefaultTransactionLinger
	}
	return o.LingerTime
}

func (o *TransactionTableOptions) shards() uint {
	if o == nil {
		return 0
	}
	return o.Shards
}

func (o *TransactionTableOptions) log() *slog.Logger {
	if o == nil || o.Logger == nil {
		return log.Default()
	}
	return o.Logger
}

// TransactionTable stores transactions of a stateful server.
// It is safe for concurrent use.
type TransactionTable struct {
	txs    *syncutil.ShardMap[TransactionKey, *Transaction]
	flight singleflight.Group
	linger time.Duration
	log    *slog.Logger
}

// NewTransactionTable creates a new empty table.
func NewTransactionTable(opts *TransactionTableOptions) *TransactionTable {
	return &TransactionTable{
		txs:    syncutil.NewShardMap[TransactionKey, *Transaction](opts.shards()),
		linger: opts.lingerTime(),
		log:    opts.log(),
	}
}

// Get returns the transaction by key.
func (t *TransactionTable) Get(key TransactionKey) (*Transaction, bool) {
	return t.txs.Get(key)
}

// LoadOrStore returns the transaction stored under the key or
// creates a new active transaction for req.
// The loaded result is true if the transaction already existed.
func (t *TransactionTable) LoadOrStore(key TransactionKey, req *Message) (tx *Transaction, loaded bool, err error) {
	if err := validateTransaction(key, req); err != nil {
		return nil, false, errtrace.Wrap(err)
	}

	tx, loaded = t.txs.GetOrSet(key, func() *Transaction {
		return newTransaction(key, req, &TransactionOptions{Logger: t.log})
	})
	if !loaded {
		t.log.LogAttrs(context.Background(), slog.LevelDebug, "transaction created", slog.Any("transaction", tx))
	}
	return tx, loaded, nil
}

// Store puts tx into the table unless a transaction with the same key is present.
// It returns the transaction kept in the table and whether it was already present.
func (t *TransactionTable) Store(tx *Transaction) (actual *Transaction, loaded bool) {
	return t.txs.GetOrSet(tx.Key(), func() *Transaction { return tx })
}

// Delete removes the transaction by key.
func (t *TransactionTable) Delete(key TransactionKey) bool {
	_, ok := t.txs.Delete(key)
	return ok
}

// Len returns the number of stored transactions.
func (t *TransactionTable) Len() int { return t.txs.Size() }

// All iterates over a snapshot of the stored transactions.
func (t *TransactionTable) All() iter.Seq2[TransactionKey, *Transaction] { return t.txs.Items() }

// do runs fn once per key among concurrent callers, all of them share the result.
func (t *TransactionTable) do(key TransactionKey, fn func() ([]byte, error)) ([]byte, error) {
	v, err, _ := t.flight.Do(key.String(), func() (any, error) {
		return errtrace.Wrap2(fn())
	})
	res, _ := v.([]byte)
	return res, errtrace.Wrap(err)
}

// Sweep evicts transactions completed before now minus the linger time.
// It returns the number of evicted transactions.
func (t *TransactionTable) Sweep(now time.Time) int {
	if t.linger < 0 {
		return 0
	}

	deadline := now.Add(-t.linger)
	n := t.txs.DeleteFunc(func(_ TransactionKey, tx *Transaction) bool {
		at, ok := tx.CompletedAt()
		return ok && !at.After(deadline)
	})
	if n > 0 {
		t.log.LogAttrs(context.Background(), slog.LevelDebug, "transactions evicted",
			slog.Int("count", n),
			slog.Int("left", t.txs.Size()),
		)
	}
	return n
}

// Run evicts lingering transactions periodically until ctx is done.
// It returns immediately if eviction is disabled.
func (t *TransactionTable) Run(ctx context.Context) {
	if t.linger < 0 {
		return
	}

	ticker := time.NewTicker(max(t.linger/4, 10*time.Millisecond))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.Sweep(now)
		}
	}
}
