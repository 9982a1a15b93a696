package admission_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	admission "github.com/automotiv/khetisahayak-sub000"
)

const testSubject = "9876543210"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, time.January, 15, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeAccounts struct {
	mu      sync.Mutex
	records map[string]admission.AccountRecord
	err     error
	delay   time.Duration
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		records: map[string]admission.AccountRecord{
			testSubject: {
				Subject:  testSubject,
				Name:     "Ramesh Patil",
				Role:     "farmer",
				District: "Nashik",
				Locale:   "mr-IN",
				Status:   admission.AccountActive,
			},
		},
	}
}

func (f *fakeAccounts) GetAccountBySubject(ctx context.Context, subject string) (admission.AccountRecord, error) {
	f.mu.Lock()
	err := f.err
	delay := f.delay
	rec, ok := f.records[subject]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return admission.AccountRecord{}, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return admission.AccountRecord{}, err
	}
	if !ok {
		return admission.AccountRecord{}, errors.New("account not found")
	}
	return rec, nil
}

func (f *fakeAccounts) setStatus(subject string, status admission.AccountStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := f.records[subject]
	rec.Status = status
	f.records[subject] = rec
}

func (f *fakeAccounts) setError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeAccounts) setDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

type testHarness struct {
	engine   *admission.Engine
	redis    *miniredis.Miniredis
	client   *redis.Client
	clock    *fakeClock
	accounts *fakeAccounts
	sink     *admission.ChannelSink
}

func newTestHarness(t *testing.T, mutate func(*admission.Config)) *testHarness {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := newFakeClock()
	accounts := newFakeAccounts()
	sink := admission.NewChannelSink(64)

	builder := admission.New()
	cfg := builder.Config()
	cfg.OTP.Pepper = []byte("0123456789abcdef")
	cfg.Token.SigningKey = []byte("0123456789abcdef0123456789abcdef")
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := builder.
		WithConfig(cfg).
		WithRedis(client).
		WithAccountProvider(accounts).
		WithAuditSink(sink).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testHarness{
		engine:   engine,
		redis:    mr,
		client:   client,
		clock:    clock,
		accounts: accounts,
		sink:     sink,
	}
}

// waitEvent drains the sink until an event of the given type arrives. Audit
// delivery is asynchronous so a short deadline is unavoidable.
func waitEvent(t *testing.T, sink *admission.ChannelSink, eventType string) admission.AuditEvent {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-sink.Events():
			if event.EventType == eventType {
				return event
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", eventType)
		}
	}
}
