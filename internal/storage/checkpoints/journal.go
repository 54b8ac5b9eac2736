// Package checkpoints journals ledger submission intents in a WAL so a run
// interrupted between the two settlement legs cannot silently double-spend
// the conversion or skip the payout on a later run.
package checkpoints

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
)

// ErrUnresolvedIntent means a previous run journaled a ledger submission
// for this order and never resolved it. The engine refuses to submit again;
// the operator must reconcile the ledger state by hand first.
var ErrUnresolvedIntent = errors.New("unresolved ledger submission intent for order")

// Leg identifies which settlement transaction an intent covers.
type Leg string

const (
	LegConversion Leg = "conversion"
	LegPayout     Leg = "payout"
)

const (
	intentKeyPrefix = "intent_"

	statusPending = "pending"
	statusDone    = "done"
	statusFailed  = "failed"

	segmentThreshold = 1000
	maxSegments      = 100
)

// Intent is one journaled ledger submission attempt.
type Intent struct {
	ID      string    `json:"id"`
	OrderID int64     `json:"order_id"`
	Leg     Leg       `json:"leg"`
	Status  string    `json:"status"`
	Hash    string    `json:"hash,omitempty"`
	Time    time.Time `json:"time"`
	Error   string    `json:"error,omitempty"`
}

func (i *Intent) pending() bool {
	return i.Status == statusPending
}

// Journal is the WAL-backed intent store. One journal per process; the
// settlement flow is single-order so no locking is needed.
type Journal struct {
	wal     *gowal.Wal
	intents map[string]*Intent
}

// NewJournal opens the WAL under dir and replays prior intents.
func NewJournal(dir string) (*Journal, error) {
	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "intent_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init checkpoint WAL")
	}

	intents := make(map[string]*Intent)
	for msg := range wal.Iterator() {
		var intent Intent
		if err := json.Unmarshal(msg.Value, &intent); err != nil {
			return nil, errors.Wrapf(err, "corrupt checkpoint record %s", msg.Key)
		}
		// later records supersede earlier ones for the same intent
		intents[intent.ID] = &intent
	}

	return &Journal{wal: wal, intents: intents}, nil
}

// Guard fails with ErrUnresolvedIntent when any pending intent exists for
// the order. Called before the first ledger submission of a run.
func (j *Journal) Guard(orderID int64) error {
	for _, intent := range j.intents {
		if intent.OrderID == orderID && intent.pending() {
			return errors.Wrapf(ErrUnresolvedIntent, "order %d, leg %s, journaled %s",
				orderID, intent.Leg, intent.Time.Format(time.RFC3339))
		}
	}
	return nil
}

// Begin journals a pending intent before the submission it covers.
func (j *Journal) Begin(orderID int64, leg Leg) (*Intent, error) {
	intent := &Intent{
		ID:      uuid.New().String(),
		OrderID: orderID,
		Leg:     leg,
		Status:  statusPending,
		Time:    time.Now().UTC(),
	}
	if err := j.persist(intent); err != nil {
		return nil, err
	}
	j.intents[intent.ID] = intent
	return intent, nil
}

// Done resolves the intent with the submitted transaction hash.
func (j *Journal) Done(intent *Intent, hash string) error {
	intent.Status = statusDone
	intent.Hash = hash
	return j.persist(intent)
}

// Failed resolves the intent as failed. A failed submission got a definite
// rejection from the ledger, so a later run may safely try again.
func (j *Journal) Failed(intent *Intent, cause error) error {
	intent.Status = statusFailed
	if cause != nil {
		intent.Error = cause.Error()
	}
	return j.persist(intent)
}

func (j *Journal) persist(intent *Intent) error {
	payload, err := json.Marshal(intent)
	if err != nil {
		return errors.Wrap(err, "marshal checkpoint intent")
	}
	return j.wal.Write(j.wal.CurrentIndex()+1, intentKeyPrefix+intent.ID, payload)
}

// Close releases the WAL.
func (j *Journal) Close() error {
	return j.wal.Close()
}
