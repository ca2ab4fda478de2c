package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/moyu-x/file-mover/internal"
	"github.com/moyu-x/file-mover/pkg/logger"
	"github.com/moyu-x/file-mover/pkg/mover"
	"github.com/moyu-x/file-mover/pkg/undo"
)

// Result 一个任务的最终结果，Summary 和 Preview 只有一个非空
type Result struct {
	Summary *internal.Summary
	Preview *internal.PreviewResult
	Err     error
}

// Job 一个已提交的任务
// 事件按发生顺序出现在 Events 上，Events 关闭之后 Done 上才有结果
type Job struct {
	events chan internal.Event
	done   chan Result
}

func (j *Job) Events() <-chan internal.Event {
	return j.events
}

func (j *Job) Done() <-chan Result {
	return j.done
}

// Wait 把事件依次交给 handle，直到任务结束，返回结果
func (j *Job) Wait(handle func(internal.Event)) Result {
	for e := range j.events {
		if handle != nil {
			handle(e)
		}
	}
	return <-j.done
}

// 把事件写进任务的 channel，消费方不读时会阻塞
type channelSink chan internal.Event

func (c channelSink) Emit(e internal.Event) {
	c <- e
}

// Runner 在单个后台 goroutine 中执行文件操作，同一时间只接受一个任务
type Runner struct {
	fs       afero.Fs
	executor *mover.Executor
	pool     *ants.Pool
	buffer   int
	busy     atomic.Bool
}

// NewRunner 创建 Runner，buffer 为事件 channel 的容量，小于 0 时使用默认值
func NewRunner(fs afero.Fs, buffer int) (*Runner, error) {
	if buffer < 0 {
		buffer = internal.DefaultEventBuffer
	}

	pool, err := ants.NewPool(1)
	if err != nil {
		logger.Get().Error().Err(err).Msg("创建 goroutine 池失败")
		return nil, errors.Errorf("create worker pool: %w", err)
	}

	logger.Get().Debug().Int("event_buffer", buffer).Msg("后台执行器已创建")
	return &Runner{
		fs:       fs,
		executor: mover.New(fs),
		pool:     pool,
		buffer:   buffer,
	}, nil
}

// Busy 当前是否有任务在运行
func (r *Runner) Busy() bool {
	return r.busy.Load()
}

// Execute 提交一次移动/复制/删除
func (r *Runner) Execute(ctx context.Context, req internal.OperationRequest) (*Job, error) {
	return r.submit(string(req.Mode), func(sink internal.Sink) Result {
		summary, err := r.executor.Execute(ctx, req, sink)
		return Result{Summary: summary, Err: err}
	})
}

// Preview 提交一次预览
func (r *Runner) Preview(ctx context.Context, req internal.OperationRequest) (*Job, error) {
	return r.submit("preview", func(sink internal.Sink) Result {
		preview, err := r.executor.Preview(ctx, req, sink)
		return Result{Preview: preview, Err: err}
	})
}

// Undo 提交一次撤销
func (r *Runner) Undo(ctx context.Context, recordPath string) (*Job, error) {
	return r.submit(string(internal.ModeUndo), func(sink internal.Sink) Result {
		summary, err := undo.Restore(ctx, r.fs, recordPath, sink)
		return Result{Summary: summary, Err: err}
	})
}

func (r *Runner) submit(name string, task func(internal.Sink) Result) (*Job, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return nil, errors.WithDetails(internal.ErrBusy, "job", name)
	}

	job := &Job{
		events: make(chan internal.Event, r.buffer),
		done:   make(chan Result, 1),
	}

	err := r.pool.Submit(func() {
		var res Result
		defer func() {
			if p := recover(); p != nil {
				res = Result{Err: errors.Errorf("%s: %s", name, fmt.Sprint(p))}
			}
			close(job.events)
			r.busy.Store(false)
			job.done <- res
			close(job.done)
		}()
		res = task(channelSink(job.events))
	})
	if err != nil {
		r.busy.Store(false)
		logger.Get().Error().Err(err).Str("job", name).Msg("提交任务失败")
		return nil, errors.Errorf("submit %s: %w", name, err)
	}

	logger.Get().Debug().Str("job", name).Msg("任务已提交")
	return job, nil
}

// Release 释放后台 goroutine，之后不能再提交任务
func (r *Runner) Release() {
	r.pool.Release()
}
