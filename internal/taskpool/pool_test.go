package taskpool_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/aic/internal/taskpool"
)

const (
	testTaskCountConstant          = 12
	testMaximumConcurrencyConstant = 3
	testPanicMessageConstant       = "worker exploded"
	testTaskSleepConstant          = 10 * time.Millisecond
)

func TestPoolRunsEveryTaskAndJoinsCleanly(testInstance *testing.T) {
	pool := taskpool.NewPool(testMaximumConcurrencyConstant, zap.NewNop())

	var completedCount atomic.Int32
	for identifier := 0; identifier < testTaskCountConstant; identifier++ {
		require.NoError(testInstance, pool.Schedule(context.Background(), identifier, func(context.Context) {
			completedCount.Add(1)
		}))
	}

	require.NoError(testInstance, pool.Join())
	require.Equal(testInstance, int32(testTaskCountConstant), completedCount.Load())

	for identifier := 0; identifier < testTaskCountConstant; identifier++ {
		state, exists := pool.State(identifier)
		require.True(testInstance, exists)
		require.Equal(testInstance, taskpool.TaskStateCompleted, state)
	}
}

func TestPoolBoundsConcurrency(testInstance *testing.T) {
	pool := taskpool.NewPool(testMaximumConcurrencyConstant, zap.NewNop())

	var runningCount atomic.Int32
	var peakCount atomic.Int32
	for identifier := 0; identifier < testTaskCountConstant; identifier++ {
		require.NoError(testInstance, pool.Schedule(context.Background(), identifier, func(context.Context) {
			current := runningCount.Add(1)
			for {
				peak := peakCount.Load()
				if current <= peak || peakCount.CompareAndSwap(peak, current) {
					break
				}
			}
			time.Sleep(testTaskSleepConstant)
			runningCount.Add(-1)
		}))
	}

	require.NoError(testInstance, pool.Join())
	require.LessOrEqual(testInstance, peakCount.Load(), int32(testMaximumConcurrencyConstant))
	require.Equal(testInstance, testMaximumConcurrencyConstant, pool.MaximumConcurrency())
}

func TestPoolDefaultsConcurrencyBound(testInstance *testing.T) {
	require.Equal(testInstance, taskpool.DefaultMaximumConcurrency, taskpool.NewPool(0, nil).MaximumConcurrency())
	require.Equal(testInstance, taskpool.DefaultMaximumConcurrency, taskpool.NewPool(-2, nil).MaximumConcurrency())
}

func TestPoolReportsFirstSchedulingFaultInSubmissionOrder(testInstance *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	pool := taskpool.NewPool(testMaximumConcurrencyConstant, zap.New(observedCore))

	var completedCount atomic.Int32
	for identifier := 0; identifier < 5; identifier++ {
		taskIdentifier := identifier
		require.NoError(testInstance, pool.Schedule(context.Background(), taskIdentifier, func(context.Context) {
			if taskIdentifier == 1 || taskIdentifier == 3 {
				panic(testPanicMessageConstant)
			}
			completedCount.Add(1)
		}))
	}

	joinError := pool.Join()
	require.Error(testInstance, joinError)

	var schedulingFault taskpool.SchedulingFaultError
	require.ErrorAs(testInstance, joinError, &schedulingFault)
	require.Equal(testInstance, 1, schedulingFault.TaskIdentifier)
	require.NotEqual(testInstance, uuid.Nil, schedulingFault.RunIdentifier)
	require.Contains(testInstance, schedulingFault.Error(), testPanicMessageConstant)

	require.Equal(testInstance, int32(3), completedCount.Load())
	for _, identifier := range []int{1, 3} {
		state, _ := pool.State(identifier)
		require.Equal(testInstance, taskpool.TaskStateAborted, state)
	}
	require.Equal(testInstance, 2, observedLogs.FilterMessage("Task aborted").Len())
}

func TestPoolAbortsTasksWhenContextEndsBeforeStart(testInstance *testing.T) {
	pool := taskpool.NewPool(1, zap.NewNop())
	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()

	var invoked atomic.Bool
	require.NoError(testInstance, pool.Schedule(cancelledContext, 7, func(context.Context) {
		invoked.Store(true)
	}))

	joinError := pool.Join()

	var schedulingFault taskpool.SchedulingFaultError
	require.ErrorAs(testInstance, joinError, &schedulingFault)
	require.Equal(testInstance, 7, schedulingFault.TaskIdentifier)
	require.ErrorIs(testInstance, joinError, context.Canceled)
	require.False(testInstance, invoked.Load())
}

func TestPoolRejectsMisuse(testInstance *testing.T) {
	noop := func(context.Context) {}

	testCases := []struct {
		name          string
		exercise      func(pool *taskpool.Pool) error
		expectedError error
	}{
		{
			name: "duplicate_identifier",
			exercise: func(pool *taskpool.Pool) error {
				if scheduleError := pool.Schedule(context.Background(), 1, noop); scheduleError != nil {
					return scheduleError
				}
				return pool.Schedule(context.Background(), 1, noop)
			},
			expectedError: taskpool.ErrDuplicateTaskIdentifier,
		},
		{
			name: "schedule_after_join",
			exercise: func(pool *taskpool.Pool) error {
				if joinError := pool.Join(); joinError != nil {
					return joinError
				}
				return pool.Schedule(context.Background(), 2, noop)
			},
			expectedError: taskpool.ErrPoolJoined,
		},
		{
			name: "second_join",
			exercise: func(pool *taskpool.Pool) error {
				if joinError := pool.Join(); joinError != nil {
					return joinError
				}
				return pool.Join()
			},
			expectedError: taskpool.ErrPoolJoined,
		},
		{
			name: "missing_work",
			exercise: func(pool *taskpool.Pool) error {
				return pool.Schedule(context.Background(), 3, nil)
			},
			expectedError: taskpool.ErrTaskWorkMissing,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			pool := taskpool.NewPool(testMaximumConcurrencyConstant, zap.NewNop())
			exerciseError := testCase.exercise(pool)
			require.True(testInstance, errors.Is(exerciseError, testCase.expectedError), "unexpected error: %v", exerciseError)
			_ = pool.Join()
		})
	}
}

func TestPoolAssignsDistinctRunIdentifiers(testInstance *testing.T) {
	pool := taskpool.NewPool(testMaximumConcurrencyConstant, zap.NewNop())
	release := make(chan struct{})
	var startedGroup sync.WaitGroup

	for identifier := 0; identifier < 2; identifier++ {
		startedGroup.Add(1)
		require.NoError(testInstance, pool.Schedule(context.Background(), identifier, func(context.Context) {
			startedGroup.Done()
			<-release
		}))
	}
	startedGroup.Wait()

	state, exists := pool.State(0)
	require.True(testInstance, exists)
	require.Equal(testInstance, taskpool.TaskStateRunning, state)

	firstRunIdentifier, firstExists := pool.RunIdentifier(0)
	secondRunIdentifier, secondExists := pool.RunIdentifier(1)
	require.True(testInstance, firstExists)
	require.True(testInstance, secondExists)
	require.NotEqual(testInstance, firstRunIdentifier, secondRunIdentifier)

	_, unknownExists := pool.RunIdentifier(99)
	require.False(testInstance, unknownExists)

	close(release)
	require.NoError(testInstance, pool.Join())
}
