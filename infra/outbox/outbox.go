// Package outbox is the durable queue between the clearing engine and Kafka.
// Every event is stored under its sequence number with a delivery state; the
// broadcaster scans NEW records, publishes them and marks them ACKED.
package outbox

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
)

// -------------------- State --------------------

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// -------------------- Record --------------------

const headerLen = 1 + 4 + 8

var (
	ErrNotFound      = errors.New("outbox: record not found")
	ErrCorruptRecord = errors.New("outbox: corrupt record")
)

type Record struct {
	Seq         uint64
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

// binary encoding: [state:1][retries:4][lastAttempt:8][payload]
func encodeRecord(r Record) []byte {
	buf := make([]byte, headerLen+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	copy(buf[headerLen:], r.Payload)
	return buf
}

func decodeRecord(seq uint64, b []byte) (Record, error) {
	if len(b) < headerLen {
		return Record{}, errors.Wrapf(ErrCorruptRecord, "seq %d: %d bytes", seq, len(b))
	}
	payload := make([]byte, len(b)-headerLen)
	copy(payload, b[headerLen:])
	return Record{
		Seq:         seq,
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     payload,
	}, nil
}

// -------------------- Outbox --------------------

type Outbox struct {
	db  *pebble.DB
	now func() time.Time
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "outbox: open %s", dir)
	}
	return &Outbox{db: db, now: time.Now}, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// -------------------- API --------------------

// Put stores a NEW record.
func (o *Outbox) Put(seq uint64, payload []byte) error {
	rec := Record{State: StateNew, Payload: payload}
	return o.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync)
}

// Get returns the record stored under seq.
func (o *Outbox) Get(seq uint64) (Record, error) {
	val, closer, err := o.db.Get(keyFor(seq))
	if errors.Is(err, pebble.ErrNotFound) {
		return Record{}, errors.Wrapf(ErrNotFound, "seq %d", seq)
	}
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()

	return decodeRecord(seq, val)
}

// UpdateState moves a record to state and stamps the attempt time.
func (o *Outbox) UpdateState(seq uint64, state State, retries uint32) error {
	rec, err := o.Get(seq)
	if err != nil {
		return err
	}
	rec.State = state
	rec.Retries = retries
	rec.LastAttempt = o.now().UnixNano()
	return o.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync)
}

// Delete removes a record, typically once ACKED.
func (o *Outbox) Delete(seq uint64) error {
	return o.db.Delete(keyFor(seq), pebble.Sync)
}

// -------------------- Scan --------------------

// ScanByState calls fn for every record in state, in sequence order.
// fn may update the record it is given.
func (o *Outbox) ScanByState(state State, fn func(Record) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if v := iter.Value(); len(v) > 0 && State(v[0]) != state {
			continue
		}
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		rec, err := decodeRecord(seq, iter.Value())
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// LastSeq returns the highest stored sequence number, zero when empty.
func (o *Outbox) LastSeq() (uint64, error) {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	if !iter.Last() {
		return 0, iter.Error()
	}
	return parseKey(iter.Key())
}

// Counts returns the number of records per state.
func (o *Outbox) Counts() (map[State]int, error) {
	out := make(map[State]int)
	for _, s := range []State{StateNew, StateSent, StateAcked, StateFailed} {
		if err := o.ScanByState(s, func(Record) error {
			out[s]++
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// -------------------- Helpers --------------------

const keyPrefix = "event/"

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf(keyPrefix+"%020d", seq))
}

func parseKey(b []byte) (uint64, error) {
	var seq uint64
	if _, err := fmt.Sscanf(string(bytes.TrimPrefix(b, []byte(keyPrefix))), "%d", &seq); err != nil {
		return 0, errors.Wrapf(err, "outbox: bad key %q", b)
	}
	return seq, nil
}
