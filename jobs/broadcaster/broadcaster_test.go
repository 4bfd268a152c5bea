package broadcaster

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/cockroachdb/errors"

	"github.com/INET-Complexity/housing-model-sub001/infra/outbox"
)

func newTestEnv(t *testing.T, maxRetries uint32) (*outbox.Outbox, *mocks.SyncProducer, *Broadcaster) {
	return newTestEnvWith(t, Options{MaxRetries: maxRetries})
}

func newTestEnvWith(t *testing.T, opts Options) (*outbox.Outbox, *mocks.SyncProducer, *Broadcaster) {
	t.Helper()
	box, err := outbox.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = box.Close() })

	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)
	b := New(box, producer, "matches", opts, nil)
	t.Cleanup(func() { _ = b.Close() })
	return box, producer, b
}

func stateOf(t *testing.T, box *outbox.Outbox, seq uint64) outbox.State {
	t.Helper()
	rec, err := box.Get(seq)
	if err != nil {
		t.Fatal(err)
	}
	return rec.State
}

func TestDrainAcksPublishedRecords(t *testing.T) {
	box, producer, b := newTestEnv(t, 3)
	_ = box.Put(1, []byte("a"))
	_ = box.Put(2, []byte("b"))

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(v []byte) error {
		if string(v) != "a" {
			return errors.Newf("payload %q, want a", v)
		}
		return nil
	})
	producer.ExpectSendMessageAndSucceed()

	res, err := b.DrainOnce()
	if err != nil {
		t.Fatal(err)
	}
	if res.Acked != 2 || res.Failed != 0 {
		t.Errorf("result = %+v", res)
	}
	if stateOf(t, box, 1) != outbox.StateAcked || stateOf(t, box, 2) != outbox.StateAcked {
		t.Error("records not ACKED")
	}

	// nothing left to send
	if res, _ := b.DrainOnce(); res.Acked != 0 {
		t.Errorf("second drain acked %d", res.Acked)
	}
}

func TestDrainRetriesThenFails(t *testing.T) {
	box, producer, b := newTestEnv(t, 2)
	_ = box.Put(1, []byte("a"))

	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	if _, err := b.DrainOnce(); err != nil {
		t.Fatal(err)
	}
	rec, _ := box.Get(1)
	if rec.State != outbox.StateNew || rec.Retries != 1 {
		t.Fatalf("after one failure: %+v", rec)
	}

	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	res, err := b.DrainOnce()
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed != 1 || stateOf(t, box, 1) != outbox.StateFailed {
		t.Errorf("result = %+v, state = %v", res, stateOf(t, box, 1))
	}
}

func TestDrainResendsInterruptedRecords(t *testing.T) {
	box, producer, b := newTestEnv(t, 3)
	_ = box.Put(5, []byte("x"))
	_ = box.UpdateState(5, outbox.StateSent, 0)

	producer.ExpectSendMessageAndSucceed()
	res, err := b.DrainOnce()
	if err != nil {
		t.Fatal(err)
	}
	if res.Acked != 1 || stateOf(t, box, 5) != outbox.StateAcked {
		t.Errorf("result = %+v", res)
	}
}

func TestDrainDropsAckedRecords(t *testing.T) {
	box, producer, b := newTestEnvWith(t, Options{MaxRetries: 3, DropAcked: true})
	_ = box.Put(1, []byte("a"))
	_ = box.Put(2, []byte("b"))

	producer.ExpectSendMessageAndSucceed()
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	res, err := b.DrainOnce()
	if err != nil {
		t.Fatal(err)
	}
	if res.Acked != 1 {
		t.Errorf("result = %+v", res)
	}
	if _, err := box.Get(1); !errors.Is(err, outbox.ErrNotFound) {
		t.Errorf("acked record still stored: err = %v", err)
	}
	if rec, err := box.Get(2); err != nil || rec.State != outbox.StateNew || rec.Retries != 1 {
		t.Errorf("failed record = %+v, err = %v", rec, err)
	}
}
