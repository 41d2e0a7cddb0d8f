package taskpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultMaximumConcurrency bounds the number of tasks running at once when no positive bound is supplied.
	DefaultMaximumConcurrency = 4

	taskStateScheduledStringConstant   = "scheduled"
	taskStateRunningStringConstant     = "running"
	taskStateCompletedStringConstant   = "completed"
	taskStateAbortedStringConstant     = "aborted"
	poolJoinedMessageConstant          = "taskpool: pool already joined"
	duplicateTaskMessageConstant       = "taskpool: duplicate task identifier"
	missingWorkMessageConstant         = "taskpool: task work not provided"
	duplicateTaskTemplateConstant      = "%w: %d"
	schedulingFaultTemplateConstant    = "task %d (run %s) could not complete: %v"
	recoveredPanicTemplateConstant     = "task panicked: %v"
	taskScheduledMessageConstant       = "Task scheduled"
	taskCompletedMessageConstant       = "Task completed"
	taskAbortedMessageConstant         = "Task aborted"
	poolJoinedLogMessageConstant       = "Task pool joined"
	logFieldTaskIdentifierConstant     = "task_id"
	logFieldRunIdentifierConstant      = "run_id"
	logFieldTaskCountConstant          = "task_count"
	logFieldMaximumConcurrencyConstant = "max_concurrency"
)

// TaskState tracks a task through Scheduled, Running, then Completed or Aborted.
type TaskState string

// Supported task states.
const (
	TaskStateScheduled TaskState = TaskState(taskStateScheduledStringConstant)
	TaskStateRunning   TaskState = TaskState(taskStateRunningStringConstant)
	TaskStateCompleted TaskState = TaskState(taskStateCompletedStringConstant)
	TaskStateAborted   TaskState = TaskState(taskStateAbortedStringConstant)
)

var (
	// ErrPoolJoined indicates the pool no longer accepts tasks or a second join.
	ErrPoolJoined = errors.New(poolJoinedMessageConstant)
	// ErrDuplicateTaskIdentifier indicates a task identifier was already scheduled on the pool.
	ErrDuplicateTaskIdentifier = errors.New(duplicateTaskMessageConstant)
	// ErrTaskWorkMissing indicates Schedule was called without work.
	ErrTaskWorkMissing = errors.New(missingWorkMessageConstant)
)

// SchedulingFaultError reports a task that was aborted before it could finish its work.
type SchedulingFaultError struct {
	TaskIdentifier int
	RunIdentifier  uuid.UUID
	Cause          error
}

// Error describes the aborted task.
func (schedulingFault SchedulingFaultError) Error() string {
	return fmt.Sprintf(schedulingFaultTemplateConstant, schedulingFault.TaskIdentifier, schedulingFault.RunIdentifier, schedulingFault.Cause)
}

// Unwrap exposes the abort cause.
func (schedulingFault SchedulingFaultError) Unwrap() error {
	return schedulingFault.Cause
}

// Work is a unit of work run by the pool. Its own failures are its own business; only a
// panic or a failure to obtain a worker slot aborts the task.
type Work func(executionContext context.Context)

type scheduledTask struct {
	identifier    int
	runIdentifier uuid.UUID
	state         TaskState
	fault         error
	done          chan struct{}
}

// Pool tracks scheduled tasks in submission order. Every scheduled task is awaited exactly
// once by Join.
type Pool struct {
	logger             *zap.Logger
	limiter            *semaphore.Weighted
	maximumConcurrency int
	mutex              sync.Mutex
	tasks              []*scheduledTask
	tasksByIdentifier  map[int]*scheduledTask
	joined             bool
}

// NewPool constructs a pool running at most maximumConcurrency tasks at once.
func NewPool(maximumConcurrency int, logger *zap.Logger) *Pool {
	if maximumConcurrency <= 0 {
		maximumConcurrency = DefaultMaximumConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		logger:             logger,
		limiter:            semaphore.NewWeighted(int64(maximumConcurrency)),
		maximumConcurrency: maximumConcurrency,
		tasksByIdentifier:  make(map[int]*scheduledTask),
	}
}

// MaximumConcurrency returns the bound on simultaneously running tasks.
func (pool *Pool) MaximumConcurrency() int {
	return pool.maximumConcurrency
}

// Schedule starts the work in its own goroutine once a worker slot is free.
func (pool *Pool) Schedule(executionContext context.Context, identifier int, work Work) error {
	if work == nil {
		return ErrTaskWorkMissing
	}
	if executionContext == nil {
		executionContext = context.Background()
	}

	pool.mutex.Lock()
	if pool.joined {
		pool.mutex.Unlock()
		return ErrPoolJoined
	}
	if _, exists := pool.tasksByIdentifier[identifier]; exists {
		pool.mutex.Unlock()
		return fmt.Errorf(duplicateTaskTemplateConstant, ErrDuplicateTaskIdentifier, identifier)
	}
	task := &scheduledTask{
		identifier:    identifier,
		runIdentifier: uuid.New(),
		state:         TaskStateScheduled,
		done:          make(chan struct{}),
	}
	pool.tasks = append(pool.tasks, task)
	pool.tasksByIdentifier[identifier] = task
	pool.mutex.Unlock()

	pool.logger.Debug(taskScheduledMessageConstant, pool.taskFields(task)...)

	go pool.runTask(executionContext, task, work)
	return nil
}

// Join awaits every task in submission order and returns the first SchedulingFaultError
// in that order. Command failures inside a task are not faults.
func (pool *Pool) Join() error {
	pool.mutex.Lock()
	if pool.joined {
		pool.mutex.Unlock()
		return ErrPoolJoined
	}
	pool.joined = true
	tasks := append([]*scheduledTask{}, pool.tasks...)
	pool.mutex.Unlock()

	var firstFault error
	for _, task := range tasks {
		<-task.done
		if task.fault != nil && firstFault == nil {
			firstFault = SchedulingFaultError{
				TaskIdentifier: task.identifier,
				RunIdentifier:  task.runIdentifier,
				Cause:          task.fault,
			}
		}
	}

	pool.logger.Debug(
		poolJoinedLogMessageConstant,
		zap.Int(logFieldTaskCountConstant, len(tasks)),
		zap.Int(logFieldMaximumConcurrencyConstant, pool.maximumConcurrency),
	)
	return firstFault
}

// State returns the current state of the identified task.
func (pool *Pool) State(identifier int) (TaskState, bool) {
	pool.mutex.Lock()
	defer pool.mutex.Unlock()
	task, exists := pool.tasksByIdentifier[identifier]
	if !exists {
		return "", false
	}
	return task.state, true
}

// RunIdentifier returns the unique run identifier assigned to the task when it was scheduled.
func (pool *Pool) RunIdentifier(identifier int) (uuid.UUID, bool) {
	pool.mutex.Lock()
	defer pool.mutex.Unlock()
	task, exists := pool.tasksByIdentifier[identifier]
	if !exists {
		return uuid.Nil, false
	}
	return task.runIdentifier, true
}

func (pool *Pool) runTask(executionContext context.Context, task *scheduledTask, work Work) {
	defer close(task.done)

	if acquireError := pool.limiter.Acquire(executionContext, 1); acquireError != nil {
		pool.abortTask(task, acquireError)
		return
	}
	defer pool.limiter.Release(1)

	pool.setState(task, TaskStateRunning)

	defer func() {
		if recovered := recover(); recovered != nil {
			pool.abortTask(task, fmt.Errorf(recoveredPanicTemplateConstant, recovered))
		}
	}()

	work(executionContext)

	pool.setState(task, TaskStateCompleted)
	pool.logger.Debug(taskCompletedMessageConstant, pool.taskFields(task)...)
}

func (pool *Pool) abortTask(task *scheduledTask, cause error) {
	pool.mutex.Lock()
	task.state = TaskStateAborted
	task.fault = cause
	pool.mutex.Unlock()

	pool.logger.Error(taskAbortedMessageConstant, append(pool.taskFields(task), zap.Error(cause))...)
}

func (pool *Pool) setState(task *scheduledTask, state TaskState) {
	pool.mutex.Lock()
	task.state = state
	pool.mutex.Unlock()
}

func (pool *Pool) taskFields(task *scheduledTask) []zap.Field {
	return []zap.Field{
		zap.Int(logFieldTaskIdentifierConstant, task.identifier),
		zap.String(logFieldRunIdentifierConstant, task.runIdentifier.String()),
	}
}
