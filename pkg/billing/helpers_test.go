package billing_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/innerbloom/billing/pkg/billing"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{now: t}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []billing.ChangeEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev billing.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Kinds() []billing.ChangeKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]billing.ChangeKind, len(p.events))
	for i, ev := range p.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

func (p *recordingPublisher) Last() billing.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type recordingMetrics struct {
	mu          sync.Mutex
	transitions []string
	webhooks    []string
}

func (m *recordingMetrics) TransitionRecorded(ev billing.Event, from, to billing.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, string(ev)+":"+string(from)+"->"+string(to))
}

func (m *recordingMetrics) WebhookProcessed(eventType, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.webhooks = append(m.webhooks, eventType+":"+outcome)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, userID string) (*billing.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Subscription), args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, sub *billing.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

type fixture struct {
	svc       billing.Service
	store     *billing.MemoryStore
	clock     *testClock
	publisher *recordingPublisher
	metrics   *recordingMetrics
}

func newFixture(start time.Time, provider billing.Provider) *fixture {
	if provider == nil {
		provider = billing.NewMockProvider()
	}
	f := &fixture{
		store:     billing.NewMemoryStore(),
		clock:     newTestClock(start),
		publisher: &recordingPublisher{},
		metrics:   &recordingMetrics{},
	}
	f.svc = billing.NewService(f.store, provider,
		billing.WithClock(f.clock.Now),
		billing.WithPublisher(f.publisher),
		billing.WithMetrics(f.metrics),
	)
	return f
}

func planPtr(p billing.PlanCode) *billing.PlanCode { return &p }

func statusPtr(s billing.Status) *billing.Status { return &s }

var jan1 = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
