package sip

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"braces.dev/errtrace"
	"github.com/qmuntal/stateless"

	"github.com/ghettovoice/sipcore/internal/errorutil"
	"github.com/ghettovoice/sipcore/internal/log"
)

// TransactionState is a transaction FSM state.
type TransactionState string

const (
	// TransactionStateActive is the state of a transaction waiting for its final response.
	TransactionStateActive TransactionState = "active"
	// TransactionStateCompleted is the state of a transaction that recorded its final response.
	TransactionStateCompleted TransactionState = "completed"
)

// TransactionStateHandler is called on every transaction state change.
type TransactionStateHandler = func(ctx context.Context, from, to TransactionState)

// TransactionKey identifies a transaction.
//
// RFC 3261 transactions are keyed by the branch parameter of the topmost Via header and the
// CSeq method. Messages without a branch fall back to Call-ID, CSeq number and CSeq method.
// ACK is keyed as INVITE so that it matches the INVITE transaction it acknowledges.
type TransactionKey struct {
	Branch  string        `json:"branch,omitempty"`
	CallID  string        `json:"call_id,omitempty"`
	CSeqNum uint          `json:"cseq_num,omitempty"`
	Method  RequestMethod `json:"method"`
}

// TransactionKeyFromMessage derives the transaction key from the message headers.
// It fails with [ErrInvalidMessage] if the message has neither a branch nor Call-ID and CSeq.
func TransactionKeyFromMessage(msg *Message) (TransactionKey, error) {
	if msg == nil {
		return TransactionKey{}, errtrace.Wrap(NewInvalidArgumentError("invalid message"))
	}

	var key TransactionKey
	cseq, hasCSeq := msg.Headers.CSeq()
	switch {
	case hasCSeq:
		key.Method = cseq.Method
	case msg.IsRequest():
		key.Method = msg.Method()
	}
	if key.Method == RequestMethodAck {
		key.Method = RequestMethodInvite
	}

	if via, ok := msg.Headers.Via(); ok {
		if branch, ok := via.Branch(); ok && branch != "" && key.Method != "" {
			key.Branch = branch
			return key, nil
		}
	}

	callID, ok := msg.Headers.CallID()
	if !ok || !hasCSeq {
		return TransactionKey{}, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidMessage,
			"missing Via branch, Call-ID or CSeq"))
	}
	key.CallID = string(callID)
	key.CSeqNum = cseq.SeqNum
	return key, nil
}

// IsValid checks whether the key is valid.
func (k TransactionKey) IsValid() bool {
	return k.Method != "" && (k.Branch != "" || k.CallID != "")
}

// String returns the string representation of the key.
func (k TransactionKey) String() string {
	if k.Branch != "" {
		return k.Branch + "|" + string(k.Method)
	}
	return k.CallID + "|" + strconv.FormatUint(uint64(k.CSeqNum), 10) + "|" + string(k.Method)
}

// LogValue implements [slog.LogValuer].
func (k TransactionKey) LogValue() slog.Value {
	if k.Branch != "" {
		return slog.GroupValue(
			slog.String("branch", k.Branch),
			slog.String("method", string(k.Method)),
		)
	}
	return slog.GroupValue(
		slog.String("call_id", k.CallID),
		slog.Uint64("cseq_num", uint64(k.CSeqNum)),
		slog.String("method", string(k.Method)),
	)
}

// TransactionOptions contains options for a transaction.
type TransactionOptions struct {
	// Logger is the logger that will be used with the transaction.
	// If nil, the [log.Default] will be used.
	Logger *slog.Logger
}

func (o *TransactionOptions) log() *slog.Logger {
	if o == nil || o.Logger == nil {
		return log.Default()
	}
	return o.Logger
}

// Transaction correlates a request with its final response.
// It moves from [TransactionStateActive] to [TransactionStateCompleted] exactly once,
// when the response is first recorded.
type Transaction struct {
	key TransactionKey
	req *Message
	log *slog.Logger

	// mu serializes FSM firing.
	mu  sync.Mutex
	fsm *stateless.StateMachine

	res         atomic.Pointer[[]byte]
	resMsg      atomic.Pointer[Message]
	createdAt   time.Time
	completedAt atomic.Pointer[time.Time]

	onStateChanged syncMapFuncs[TransactionStateHandler]
}

// NewTransaction creates a new active transaction for the request.
func NewTransaction(key TransactionKey, req *Message, opts *TransactionOptions) (*Transaction, error) {
	if err := validateTransaction(key, req); err != nil {
		return nil, errtrace.Wrap(err)
	}
	return newTransaction(key, req, opts), nil
}

func validateTransaction(key TransactionKey, req *Message) error {
	if !key.IsValid() {
		return errtrace.Wrap(NewInvalidArgumentError("invalid transaction key"))
	}
	if !req.IsRequest() {
		return errtrace.Wrap(NewInvalidArgumentError("invalid request"))
	}
	return nil
}

func newTransaction(key TransactionKey, req *Message, opts *TransactionOptions) *Transaction {
	tx := &Transaction{
		key:       key,
		req:       req,
		log:       opts.log(),
		createdAt: time.Now(),
	}
	tx.initFSM()
	return tx
}

const txEvtRecordRes = "record_response"

func (tx *Transaction) initFSM() {
	tx.fsm = stateless.NewStateMachine(TransactionStateActive)
	tx.fsm.SetTriggerParameters(txEvtRecordRes,
		reflect.TypeOf([]byte(nil)),
		reflect.TypeOf((*Message)(nil)),
	)

	tx.fsm.Configure(TransactionStateActive).
		Permit(txEvtRecordRes, TransactionStateCompleted)

	tx.fsm.Configure(TransactionStateCompleted).
		OnEntryFrom(txEvtRecordRes, tx.actStoreRes).
		InternalTransition(txEvtRecordRes, tx.actNoop)

	tx.fsm.OnTransitioned(func(ctx context.Context, t stateless.Transition) {
		from, _ := t.Source.(TransactionState)
		to, _ := t.Destination.(TransactionState)
		for fn := range tx.onStateChanged.All() {
			fn(ctx, from, to)
		}
	})
}

func (tx *Transaction) actStoreRes(ctx context.Context, args ...any) error {
	res := args[0].([]byte)      //nolint:forcetypeassert
	resMsg := args[1].(*Message) //nolint:forcetypeassert

	now := time.Now()
	tx.res.Store(&res)
	if resMsg != nil {
		tx.resMsg.Store(resMsg)
	}
	tx.completedAt.Store(&now)

	tx.log.LogAttrs(ctx, slog.LevelDebug, "transaction completed", slog.Any("transaction", tx))

	return nil
}

func (*Transaction) actNoop(context.Context, ...any) error { return nil }

// Key returns the transaction key.
func (tx *Transaction) Key() TransactionKey {
	if tx == nil {
		return TransactionKey{}
	}
	return tx.key
}

// Request returns the request that created the transaction.
func (tx *Transaction) Request() *Message {
	if tx == nil {
		return nil
	}
	return tx.req
}

// State returns the current transaction state.
func (tx *Transaction) State() TransactionState {
	if tx == nil {
		return ""
	}
	return tx.fsm.MustState().(TransactionState) //nolint:forcetypeassert
}

// Response returns the recorded response bytes or nil if the transaction is still active.
func (tx *Transaction) Response() []byte {
	if tx == nil {
		return nil
	}
	if res := tx.res.Load(); res != nil {
		return *res
	}
	return nil
}

// ResponseMessage returns the recorded response message.
// It is nil if the response was recorded as raw bytes that could not be parsed.
func (tx *Transaction) ResponseMessage() *Message {
	if tx == nil {
		return nil
	}
	return tx.resMsg.Load()
}

// CompletedAt returns the time the response was recorded.
func (tx *Transaction) CompletedAt() (time.Time, bool) {
	if tx == nil {
		return time.Time{}, false
	}
	if t := tx.completedAt.Load(); t != nil {
		return *t, true
	}
	return time.Time{}, false
}

// RecordResponse stores the response and completes the transaction.
// The response message is optional, when it is nil the bytes are parsed on a best-effort basis.
// It returns false if a response was already recorded, the transaction is left untouched then.
func (tx *Transaction) RecordResponse(ctx context.Context, res []byte, resMsg *Message) (bool, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.State() == TransactionStateCompleted {
		tx.log.LogAttrs(ctx, slog.LevelDebug, "response retransmission absorbed", slog.Any("transaction", tx))
		return false, nil
	}

	if resMsg == nil && len(res) > 0 {
		if msg, err := ParsePacket(res, nil); err == nil {
			resMsg = msg
		}
	}
	if err := tx.fsm.FireCtx(ctx, txEvtRecordRes, res, resMsg); err != nil {
		return false, errtrace.Wrap(fmt.Errorf("fire %q in state %q: %w", txEvtRecordRes, tx.State(), err))
	}
	return true, nil
}

// OnStateChanged binds the callback to the transaction state changes.
// The returned function unbinds it.
func (tx *Transaction) OnStateChanged(fn TransactionStateHandler) (unbind func()) {
	return tx.onStateChanged.Add(fn)
}

// LogValue implements [slog.LogValuer].
func (tx *Transaction) LogValue() slog.Value {
	if tx == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.Any("key", tx.key),
		slog.Any("state", tx.State()),
	)
}

// TransactionSnapshot is a serializable view of a transaction.
type TransactionSnapshot struct {
	// Time is the snapshot timestamp.
	Time time.Time `json:"time"`
	// Key is the transaction key.
	Key TransactionKey `json:"key"`
	// State is the transaction state.
	State TransactionState `json:"state"`
	// Request is the request that created the transaction in the wire format.
	Request string `json:"request"`
	// Response is the recorded response in the wire format.
	Response string `json:"response,omitempty"`
	// CreatedAt is the transaction creation time.
	CreatedAt time.Time `json:"created_at"`
	// CompletedAt is the time the response was recorded.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Snapshot returns a snapshot of the transaction.
func (tx *Transaction) Snapshot() *TransactionSnapshot {
	if tx == nil {
		return nil
	}

	snap := &TransactionSnapshot{
		Time:      time.Now(),
		Key:       tx.key,
		State:     tx.State(),
		Request:   tx.req.String(),
		Response:  string(tx.Response()),
		CreatedAt: tx.createdAt,
	}
	if t, ok := tx.CompletedAt(); ok {
		snap.CompletedAt = &t
	}
	return snap
}

// RestoreTransaction recreates a transaction from the snapshot.
// A completed transaction keeps its response and completion time.
func RestoreTransaction(snap *TransactionSnapshot, opts *TransactionOptions) (*Transaction, error) {
	if snap == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("invalid snapshot"))
	}

	req, err := ParsePacket([]byte(snap.Request), nil)
	if err != nil {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidMessage, err))
	}
	if err := validateTransaction(snap.Key, req); err != nil {
		return nil, errtrace.Wrap(err)
	}

	tx := newTransaction(snap.Key, req, opts)
	if !snap.CreatedAt.IsZero() {
		tx.createdAt = snap.CreatedAt
	}

	switch snap.State {
	case TransactionStateActive:
	case TransactionStateCompleted:
		var res []byte
		if snap.Response != "" {
			res = []byte(snap.Response)
		}
		if _, err := tx.RecordResponse(context.Background(), res, nil); err != nil {
			return nil, errtrace.Wrap(err)
		}
		if snap.CompletedAt != nil {
			at := *snap.CompletedAt
			tx.completedAt.Store(&at)
		}
	default:
		return nil, errtrace.Wrap(NewInvalidArgumentError("unexpected transaction state %q", snap.State))
	}
	return tx, nil
}

// MarshalJSON implements [json.Marshaler].
func (tx *Transaction) MarshalJSON() ([]byte, error) {
	return errtrace.Wrap2(json.Marshal(tx.Snapshot()))
}

// syncMapFuncs is a set of callbacks that can be unbound.
type syncMapFuncs[F any] struct {
	mu  sync.RWMutex
	seq uint64
	fns map[uint64]F
}

func (m *syncMapFuncs[F]) Add(fn F) (unbind func()) {
	m.mu.Lock()
	if m.fns == nil {
		m.fns = make(map[uint64]F)
	}
	m.seq++
	id := m.seq
	m.fns[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.fns, id)
		m.mu.Unlock()
	}
}

// All iterates over a snapshot of the callbacks in the binding order.
func (m *syncMapFuncs[F]) All() iter.Seq[F] {
	m.mu.RLock()
	ids := make([]uint64, 0, len(m.fns))
	for id := range m.fns {
		ids = append(ids, id)
	}
	fns := make(map[uint64]F, len(m.fns))
	maps.Copy(fns, m.fns)
	m.mu.RUnlock()
	slices.Sort(ids)

	return func(yield func(F) bool) {
		for _, id := range ids {
			if !yield(fns[id]) {
				return
			}
		}
	}
}
