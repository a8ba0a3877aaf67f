package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthService_Check(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("no reachable servers") })

	status := NewHealthService(nil, nil).Check(context.Background())
	assert.Equal(t, HealthStatus{Store: StatusUp, Cache: StatusDisabled}, status)
	assert.True(t, status.Healthy())

	status = NewHealthService(up, down).Check(context.Background())
	assert.Equal(t, HealthStatus{Store: StatusUp, Cache: StatusDown}, status)
	assert.True(t, status.Healthy())

	status = NewHealthService(down, up).Check(context.Background())
	assert.Equal(t, StatusDown, status.Store)
	assert.False(t, status.Healthy())
}
