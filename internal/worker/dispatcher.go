package worker

import (
	"context"
	"errors"

	"github.com/cesargomez89/openkaraoke/internal/domain"
)

var ErrUnknownJobType = errors.New("unknown job type")

type JobHandler interface {
	Handle(ctx context.Context, task *Task) error
}

type Dispatcher struct {
	handlers map[domain.JobType]JobHandler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[domain.JobType]JobHandler),
	}
}

func (d *Dispatcher) Register(jobType domain.JobType, handler JobHandler) {
	d.handlers[jobType] = handler
}

func (d *Dispatcher) Dispatch(ctx context.Context, task *Task) error {
	handler, ok := d.handlers[task.Job.Type]
	if !ok {
		return ErrUnknownJobType
	}
	return handler.Handle(ctx, task)
}
