package notifier

import (
	"context"
	"sync"
)

type fakeService struct {
	mu    sync.Mutex
	calls int
	err   error
}

// Fake records calls and returns err from every Notify. It is what
// NOTIFIER_TYPE=fake runs with.
type Fake interface {
	IService
	Calls() int
}

func NewFake(err error) Fake {
	return &fakeService{err: err}
}

func (svc *fakeService) Notify(_ context.Context) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.calls++
	return svc.err
}

func (svc *fakeService) Calls() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.calls
}

func (svc *fakeService) Target() string {
	return "fake"
}

func (svc *fakeService) Close() error {
	return nil
}
