package dashboard

import (
	"context"
	"errors"
	"log"
	"sync"
)

// ErrStopped is returned by blocking Store calls once the store has stopped
var ErrStopped = errors.New("dashboard store stopped")

// Store runs a Model on its own goroutine. Messages are applied strictly in
// the order they arrive, commands run concurrently and report back through
// the same queue.
type Store struct {
	model  *Model
	msgs   chan Msg
	done   chan struct{}
	logger *log.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc

	// owned by the run loop
	changed chan struct{}
}

type viewRequest struct {
	reply chan<- viewReply
}

type viewReply struct {
	view    View
	changed <-chan struct{}
}

// NewStore creates a store over api. Call Start before dispatching.
func NewStore(api API, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		model:   NewModel(api, logger),
		msgs:    make(chan Msg, 64),
		done:    make(chan struct{}),
		logger:  logger,
		changed: make(chan struct{}),
	}
}

// Start launches the run loop and mounts the dashboard, which fetches the
// dataset list. Commands are cancelled when ctx ends or Stop is called.
func (s *Store) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		go s.run(ctx)
	})
}

// Stop ends the run loop
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		started := true
		s.startOnce.Do(func() {
			started = false
			close(s.done)
		})
		if started {
			s.cancel()
		}
	})
}

// Done is closed once the store has stopped
func (s *Store) Done() <-chan struct{} {
	return s.done
}

func (s *Store) run(ctx context.Context) {
	defer close(s.done)
	defer s.model.Close()

	s.exec(ctx, s.model.Init())

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.msgs:
			if req, ok := msg.(viewRequest); ok {
				req.reply <- viewReply{view: s.model.View(), changed: s.changed}
				continue
			}
			s.exec(ctx, s.model.Update(msg))
			close(s.changed)
			s.changed = make(chan struct{})
		}
	}
}

func (s *Store) exec(ctx context.Context, cmds []Cmd) {
	for _, cmd := range cmds {
		if cmd == nil {
			continue
		}
		go func(cmd Cmd) {
			msg := cmd(ctx)
			if msg != nil {
				s.Dispatch(msg)
			}
		}(cmd)
	}
}

// Dispatch queues a message. It is dropped if the store has stopped.
func (s *Store) Dispatch(msg Msg) {
	select {
	case s.msgs <- msg:
	case <-s.done:
	}
}

// Refresh reloads the dataset list
func (s *Store) Refresh() {
	s.Dispatch(RefreshDatasets{})
}

// Select selects a dataset
func (s *Store) Select(id int) {
	s.Dispatch(SelectDataset{ID: id})
}

// Reload starts a fresh analytics fetch for the current selection
func (s *Store) Reload() {
	s.Dispatch(ReloadAnalytics{})
}

// Remove deletes a dataset and waits for the outcome
func (s *Store) Remove(ctx context.Context, id int) error {
	reply := make(chan error, 1)
	s.Dispatch(RemoveDataset{ID: id, Reply: reply})
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrStopped
	}
}

// Submit uploads the chosen file and waits for the outcome
func (s *Store) Submit(ctx context.Context, description string) UploadResult {
	reply := make(chan UploadResult, 1)
	s.Dispatch(SubmitUpload{Description: description, Reply: reply})
	select {
	case res := <-reply:
		return res
	case <-ctx.Done():
		return UploadResult{Err: ctx.Err()}
	case <-s.done:
		return UploadResult{Err: ErrStopped}
	}
}

// View returns a copy of the current state
func (s *Store) View() View {
	v, _, _ := s.view()
	return v
}

func (s *Store) view() (View, <-chan struct{}, bool) {
	reply := make(chan viewReply, 1)
	select {
	case s.msgs <- viewRequest{reply: reply}:
	case <-s.done:
		return View{}, nil, false
	}
	select {
	case r := <-reply:
		return r.view, r.changed, true
	case <-s.done:
		return View{}, nil, false
	}
}

// WaitFor blocks until cond holds for the current state, then returns that
// state. It gives up when ctx ends, returning the last state seen.
func (s *Store) WaitFor(ctx context.Context, cond func(View) bool) (View, error) {
	for {
		v, changed, ok := s.view()
		if !ok {
			return v, ErrStopped
		}
		if cond(v) {
			return v, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return v, ctx.Err()
		case <-s.done:
			return v, ErrStopped
		}
	}
}
