package testutil

import (
	"context"
	"sync"
	"time"

	"ard/internal/models"
	"ard/internal/providers"
	"ard/internal/reply/interfaces"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu    sync.Mutex
	Logs  []LogEntry
	Debug bool
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) SetDebug(debug bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Debug = debug
}
func (m *MockLogger) Close() {}

// Count returns how many recorded entries have the given level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Logs {
		if e.Level == level {
			n++
		}
	}
	return n
}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu                sync.Mutex
	Requests          int
	CacheHits         int
	CacheMisses       int
	InboundByType     map[string]int
	RulesMatched      int
	SendsByOutcome    map[string]int
	StrikeOuts        int
	ReconciledReplies int
	Persists          int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		InboundByType:  make(map[string]int),
		SendsByOutcome: make(map[string]int),
	}
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}
func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}
func (m *MockMetrics) IncInboundMessages(chatType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InboundByType[chatType]++
}
func (m *MockMetrics) IncRulesMatched() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RulesMatched++
}
func (m *MockMetrics) IncSends(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendsByOutcome[outcome]++
}
func (m *MockMetrics) IncStrikeOuts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StrikeOuts++
}
func (m *MockMetrics) AddReconciledReplies(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReconciledReplies += count
}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Persists++
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

// MockPersister implements interfaces.PersisterInterface and records calls.
type MockPersister struct {
	mu         sync.Mutex
	DirtyCalls int
	FlushCalls int
	FlushErr   error
}

func (m *MockPersister) MarkDirty() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DirtyCalls++
}

func (m *MockPersister) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FlushCalls++
	return m.FlushErr
}

func (m *MockPersister) Dirty() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.DirtyCalls
}

func (m *MockPersister) Flushed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FlushCalls
}

// MockJournal implements interfaces.JournalInterface and records entries.
type MockJournal struct {
	mu      sync.Mutex
	Entries []models.JournalEntry
	Flushes int
}

func (m *MockJournal) Record(entry models.JournalEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
}

func (m *MockJournal) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Flushes++
	return nil
}

func (m *MockJournal) Close() error { return m.Flush() }

func (m *MockJournal) FlushCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Flushes
}

func (m *MockJournal) Kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// MockCompressor implements interfaces.CompressorInterface without
// compressing anything.
type MockCompressor struct{}

func (m *MockCompressor) Compress(val []byte) ([]byte, error)   { return val, nil }
func (m *MockCompressor) Decompress(val []byte) ([]byte, error) { return val, nil }

// SendCall records one SendDirectMessage invocation on the MockTransport.
type SendCall struct {
	Uin  string
	Text string
}

// MockTransport implements interfaces.TransportInterface in memory.
// History and resolution behavior are scripted per uin.
type MockTransport struct {
	mu           sync.Mutex
	Identity     string
	SendCalls    []SendCall
	SendErr      error
	HistoryByUin map[string][]models.HistoryMessage
	HistoryErr   map[string]error
	Unresolvable map[string]bool
	handlers     []func(msgs []models.InboundMessage)
	Unsubscribed int
}

func NewMockTransport() *MockTransport {
	return &MockTransport{
		Identity:     "10001",
		HistoryByUin: make(map[string][]models.HistoryMessage),
		HistoryErr:   make(map[string]error),
		Unresolvable: make(map[string]bool),
	}
}

func (m *MockTransport) Connect(_ context.Context) error { return nil }
func (m *MockTransport) Close() error                    { return nil }

func (m *MockTransport) CurrentIdentity(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Identity, nil
}

func (m *MockTransport) ResolveUid(_ context.Context, uin string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unresolvable[uin] {
		return "", false
	}
	return "u_" + uin, true
}

func (m *MockTransport) SendDirectMessage(_ context.Context, uin, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unresolvable[uin] {
		return interfaces.ErrUnresolvedIdentity
	}
	m.SendCalls = append(m.SendCalls, SendCall{Uin: uin, Text: text})
	return m.SendErr
}

func (m *MockTransport) FetchRecentPrivateHistory(_ context.Context, uin string, _ int) ([]models.HistoryMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.HistoryErr[uin]; err != nil {
		return nil, err
	}
	return m.HistoryByUin[uin], nil
}

func (m *MockTransport) SubscribeInbound(handler func(msgs []models.InboundMessage)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.Unsubscribed++
	}
}

// Subscribers returns how many inbound handlers were registered.
func (m *MockTransport) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handlers)
}

// Sends returns a copy of the recorded send calls.
func (m *MockTransport) Sends() []SendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SendCall, len(m.SendCalls))
	copy(out, m.SendCalls)
	return out
}

// Push delivers a batch to every registered handler, as the gateway would.
func (m *MockTransport) Push(msgs []models.InboundMessage) {
	m.mu.Lock()
	handlers := make([]func(msgs []models.InboundMessage), len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()
	for _, h := range handlers {
		h(msgs)
	}
}
