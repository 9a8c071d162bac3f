package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type sweeperStub struct {
	closed int64
	err    error
	calls  int
}

func (s *sweeperStub) MarkExhaustedUsed(ctx context.Context) (int64, error) {
	s.calls++
	return s.closed, s.err
}

type prunerStub struct {
	deleted   int64
	retention time.Duration
}

func (p *prunerStub) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	p.retention = retention
	return p.deleted, nil
}

func TestMaintenanceServiceSweepInvites(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sweeper := &sweeperStub{closed: 3}
	svc := NewMaintenanceService(sweeper, &prunerStub{}, zap.New(core), MaintenanceConfig{})

	assert.Equal(t, int64(3), svc.SweepInvites(context.Background()))
	require.Equal(t, 1, logs.FilterMessage("invite sweep").Len())

	sweeper.err = errors.New("db down")
	assert.Zero(t, svc.SweepInvites(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("invite sweep failed").Len())
}

func TestMaintenanceServicePruneDefaultsRetention(t *testing.T) {
	pruner := &prunerStub{deleted: 12}
	svc := NewMaintenanceService(&sweeperStub{}, pruner, nil, MaintenanceConfig{})

	assert.Equal(t, int64(12), svc.PruneActivity(context.Background()))
	assert.Equal(t, 90*24*time.Hour, pruner.retention)
}

func TestMaintenanceServiceStartRejectsBadSpec(t *testing.T) {
	svc := NewMaintenanceService(&sweeperStub{}, &prunerStub{}, nil, MaintenanceConfig{InviteSweepCron: "every tuesday"})
	err := svc.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schedule invite sweep")
}

func TestMaintenanceServiceStartAndStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := NewMaintenanceService(&sweeperStub{}, &prunerStub{}, nil, MaintenanceConfig{InviteSweepCron: "*/15 * * * *", ActivityPruneCron: "30 3 * * *"})
	require.NoError(t, svc.Start(ctx))
	assert.Len(t, svc.cron.Entries(), 2)
	svc.Stop()
}
