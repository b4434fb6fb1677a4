package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "localhost:7233", cfg.HostPort)
	assert.Equal(t, "default", cfg.Namespace)
	assert.Equal(t, "putwall-queue", TaskQueues.PutWall)
}

func TestDefaultRetryPolicy(t *testing.T) {
	policy := DefaultRetryPolicy()

	assert.Equal(t, time.Second, policy.InitialInterval)
	assert.Equal(t, 2.0, policy.BackoffCoefficient)
	assert.Equal(t, time.Minute, policy.MaximumInterval)
	assert.EqualValues(t, 3, policy.MaximumAttempts)
}

func TestDefaultWorkerOptions(t *testing.T) {
	opts := DefaultWorkerOptions(TaskQueues.PutWall)

	assert.Equal(t, TaskQueues.PutWall, opts.TaskQueue)
	assert.Equal(t, 100, opts.MaxConcurrentActivities)
	assert.Equal(t, 4, opts.MaxConcurrentWorkflowPollers)
}
