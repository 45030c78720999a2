package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/segmentio/kafka-go"

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
)

func newEvent(n int) *core.MapperEvent {
	return &core.MapperEvent{
		ID:        fmt.Sprintf("evt-%d", n),
		Type:      core.EventMapperSaved,
		MapperID:  fmt.Sprintf("mapper-%d", n),
		Name:      "ISO8583-1987",
		Elements:  n,
		Timestamp: time.Date(2026, 10, 16, 12, 0, n, 0, time.UTC),
	}
}

// fakeLists keeps Redis lists in memory.
type fakeLists struct {
	mu      sync.Mutex
	lists   map[string][][]byte
	popErr  error
	pushErr error
}

func newFakeLists() *fakeLists {
	return &fakeLists{lists: make(map[string][][]byte)}
}

func (f *fakeLists) ListPush(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	f.lists[key] = append(f.lists[key], value)
	return nil
}

func (f *fakeLists) ListPop(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.popErr != nil {
		return nil, f.popErr
	}
	l := f.lists[key]
	if len(l) == 0 {
		return nil, nil
	}
	f.lists[key] = l[1:]
	return l[0], nil
}

func (f *fakeLists) ListLength(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.lists[key])), nil
}

// fakeWriter records kafka messages.
type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// fakePutItem records DynamoDB PutItem inputs.
type fakePutItem struct {
	mu     sync.Mutex
	inputs []*dynamodb.PutItemInput
	err    error
}

func (f *fakePutItem) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &dynamodb.PutItemOutput{}, nil
}

var errBroker = errors.New("broker unavailable")

// flakyPublisher fails the first failures calls, or every call when failures < 0.
type flakyPublisher struct {
	mu        sync.Mutex
	failures  int
	calls     int
	delivered []*core.MapperEvent
}

func (p *flakyPublisher) Publish(_ context.Context, event *core.MapperEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.failures < 0 || p.calls <= p.failures {
		return errBroker
	}
	p.delivered = append(p.delivered, event)
	return nil
}

func (p *flakyPublisher) Close() error { return nil }

func (p *flakyPublisher) deliveredCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.delivered)
}

func (p *flakyPublisher) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
