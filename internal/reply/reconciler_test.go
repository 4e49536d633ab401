package reply

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"ard/internal/models"
	"ard/internal/services"
	"ard/internal/structures"
	"ard/internal/testutil"
)

func newTestReconciler(transport *testutil.MockTransport) (*Reconciler, services.RuleServiceInterface, *testutil.MockPersister, *testutil.MockMetrics) {
	conf := &structures.Config{}
	conf.Transport.HistoryLimit = 100
	service := services.NewRuleService()
	persister := &testutil.MockPersister{}
	metrics := testutil.NewMockMetrics()
	rc := NewReconciler(conf, service, transport, persister, &testutil.MockJournal{}, &testutil.MockLogger{}, metrics)
	return rc, service, persister, metrics
}

func awaitingRule(target string, lastSentAt int64) *models.Rule {
	r := testRule()
	r.TargetFriendUin = target
	r.AwaitingReply = true
	r.NoReplyStreak = 2
	r.LastSentAt = lastSentAt
	return r
}

func TestSyncFromHistory_ClearsRuleWhenReplyFound(t *testing.T) {
	transport := testutil.NewMockTransport()
	transport.HistoryByUin["target"] = []models.HistoryMessage{
		{SenderUin: "10001", Time: int64(1700000000)},
		{SenderUin: "target", Time: int64(1700000100)},
	}
	rc, service, persister, metrics := newTestReconciler(transport)
	service.Apply(&models.AccountConfig{Enabled: true, StrikeOutMode: true, Rules: []*models.Rule{
		awaitingRule("target", 1700000000000),
	}})

	rc.SyncFromHistory(context.Background())

	cfg := service.Snapshot()
	assert.False(t, cfg.Rules[0].AwaitingReply)
	assert.Equal(t, uint(0), cfg.Rules[0].NoReplyStreak)
	assert.Equal(t, int64(1700000100000), cfg.Rules[0].LastReplyAt)
	assert.Equal(t, 1, persister.Dirty())
	assert.Equal(t, 1, metrics.ReconciledReplies)
}

func TestSyncFromHistory_OnlyIncomingMessagesCount(t *testing.T) {
	// History contains only our own outgoing messages; nothing is cleared.
	transport := testutil.NewMockTransport()
	transport.HistoryByUin["target"] = []models.HistoryMessage{
		{SenderUin: "10001", Time: int64(1700000100)},
		{SenderUin: "10001", Time: int64(1700000200)},
	}
	rc, service, persister, _ := newTestReconciler(transport)
	service.Apply(&models.AccountConfig{Enabled: true, StrikeOutMode: true, Rules: []*models.Rule{
		awaitingRule("target", 1000),
	}})

	rc.SyncFromHistory(context.Background())

	cfg := service.Snapshot()
	assert.True(t, cfg.Rules[0].AwaitingReply)
	assert.Equal(t, uint(2), cfg.Rules[0].NoReplyStreak)
	assert.Equal(t, 0, persister.Dirty())
}

func TestSyncFromHistory_EmptyHistory_NoChange(t *testing.T) {
	transport := testutil.NewMockTransport()
	rc, service, persister, _ := newTestReconciler(transport)
	service.Apply(&models.AccountConfig{Enabled: true, StrikeOutMode: true, Rules: []*models.Rule{
		awaitingRule("target", 1000),
	}})

	rc.SyncFromHistory(context.Background())

	cfg := service.Snapshot()
	assert.True(t, cfg.Rules[0].AwaitingReply)
	assert.Equal(t, 0, persister.Dirty())
}

func TestSyncFromHistory_ReplyOlderThanSend_Ignored(t *testing.T) {
	transport := testutil.NewMockTransport()
	transport.HistoryByUin["target"] = []models.HistoryMessage{
		{SenderUin: "target", Time: int64(1700000000)},
	}
	rc, service, _, _ := newTestReconciler(transport)
	service.Apply(&models.AccountConfig{Enabled: true, StrikeOutMode: true, Rules: []*models.Rule{
		awaitingRule("target", 1700000000001),
	}})

	rc.SyncFromHistory(context.Background())

	assert.True(t, service.Snapshot().Rules[0].AwaitingReply)
}

func TestSyncFromHistory_FailedFetchDoesNotBlockOtherTargets(t *testing.T) {
	transport := testutil.NewMockTransport()
	transport.HistoryErr["broken"] = errors.New("gateway timeout")
	transport.HistoryByUin["target"] = []models.HistoryMessage{
		{SenderUin: "target", Time: int64(1700000100)},
	}
	rc, service, _, _ := newTestReconciler(transport)
	service.Apply(&models.AccountConfig{Enabled: true, StrikeOutMode: true, Rules: []*models.Rule{
		awaitingRule("broken", 1000),
		awaitingRule("target", 1000),
	}})

	rc.SyncFromHistory(context.Background())

	cfg := service.Snapshot()
	assert.True(t, cfg.Rules[0].AwaitingReply)
	assert.False(t, cfg.Rules[1].AwaitingReply)
}

func TestSyncFromHistory_StrikeOutModeOff_Noop(t *testing.T) {
	transport := testutil.NewMockTransport()
	transport.HistoryByUin["target"] = []models.HistoryMessage{
		{SenderUin: "target", Time: int64(1700000100)},
	}
	rc, service, persister, _ := newTestReconciler(transport)
	service.Apply(&models.AccountConfig{Enabled: true, StrikeOutMode: false, Rules: []*models.Rule{
		awaitingRule("target", 1000),
	}})

	rc.SyncFromHistory(context.Background())

	assert.True(t, service.Snapshot().Rules[0].AwaitingReply)
	assert.Equal(t, 0, persister.Dirty())
}

func TestSyncFromHistory_SecondsTimestampsNormalized(t *testing.T) {
	// Gateway history carries second-resolution timestamps; the rule's
	// lastSentAt is in milliseconds.
	transport := testutil.NewMockTransport()
	transport.HistoryByUin["target"] = []models.HistoryMessage{
		{SenderUin: "target", Time: "1700000100"},
	}
	rc, service, _, _ := newTestReconciler(transport)
	service.Apply(&models.AccountConfig{Enabled: true, StrikeOutMode: true, Rules: []*models.Rule{
		awaitingRule("target", 1700000099999),
	}})

	rc.SyncFromHistory(context.Background())

	cfg := service.Snapshot()
	assert.False(t, cfg.Rules[0].AwaitingReply)
	assert.Equal(t, int64(1700000100000), cfg.Rules[0].LastReplyAt)
}

func TestSyncFromHistory_NeverDisablesRules(t *testing.T) {
	transport := testutil.NewMockTransport()
	transport.HistoryByUin["target"] = []models.HistoryMessage{
		{SenderUin: "target", Time: int64(1700000100)},
	}
	rc, service, _, _ := newTestReconciler(transport)
	rule := awaitingRule("target", 1000)
	rule.NoReplyStreak = MaxNoReply
	service.Apply(&models.AccountConfig{Enabled: true, StrikeOutMode: true, Rules: []*models.Rule{rule}})

	rc.SyncFromHistory(context.Background())

	cfg := service.Snapshot()
	assert.True(t, cfg.Rules[0].Enabled)
	assert.False(t, cfg.Rules[0].AwaitingReply)
	assert.Equal(t, uint(0), cfg.Rules[0].NoReplyStreak)
}
