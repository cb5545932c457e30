// Package dashboard holds the per-page state of the earnings dashboard.
package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"EarnView/internal/domain/models"
	"EarnView/internal/query"
	"EarnView/internal/view"
	applogger "EarnView/pkg/logger"
)

var (
	ErrSessionClosed = errors.New("dashboard: session closed")
	ErrEmptySymbol   = errors.New("dashboard: empty symbol")
)

// Query names used in logs and stale-discard metrics.
const (
	opUpcoming = "upcoming"
	opHistory  = "history"
	opStatus   = "model_status"
)

// Source is the read side of the backend a session renders from.
type Source interface {
	Upcoming(ctx context.Context) ([]models.UpcomingEarnings, error)
	History(ctx context.Context, symbol string) (models.EarningsHistoryResponse, error)
	ModelStatus(ctx context.Context) (models.ModelStatus, error)
}

// StaleRecorder counts results dropped by the stale guard.
type StaleRecorder interface {
	RecordStaleDiscard(op string)
}

type noopStale struct{}

func (noopStale) RecordStaleDiscard(string) {}

// Session is one mounted dashboard page. Its state lives on a single event
// loop goroutine; the methods only post events to it.
type Session struct {
	id      string
	src     Source
	log     *applogger.Logger
	stale   StaleRecorder
	created time.Time
	seen    atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	events chan event
	done   chan struct{}
	once   sync.Once
	exited chan struct{}

	// loop-owned
	selected string
	upcoming query.Single[[]models.UpcomingEarnings]
	status   query.Single[models.ModelStatus]
	history  *query.Keyed[string, models.EarningsHistoryResponse]
	subs     map[int]chan struct{}
	nextSub  int
}

type event interface{}

type (
	selectEvent    struct{ symbol string }
	refreshEvent   struct{}
	reloadEvent    struct{}
	viewEvent      struct{ reply chan view.Page }
	subscribeEvent struct {
		reply chan subscription
	}
	unsubscribeEvent struct{ id int }

	upcomingResult query.Result[struct{}, []models.UpcomingEarnings]
	statusResult   query.Result[struct{}, models.ModelStatus]
	historyResult  query.Result[string, models.EarningsHistoryResponse]
)

type subscription struct {
	id int
	ch chan struct{}
}

func newSession(id string, src Source, l *applogger.Logger, stale StaleRecorder, now time.Time) *Session {
	if l == nil {
		l = applogger.Nop()
	}
	if stale == nil {
		stale = noopStale{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:      id,
		src:     src,
		log:     l.With(applogger.String("session", id)),
		stale:   stale,
		created: now,
		ctx:     ctx,
		cancel:  cancel,
		events:  make(chan event, 16),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
		subs:    make(map[int]chan struct{}),
	}
	s.seen.Store(now.UnixNano())

	s.upcoming = query.NewSingle[[]models.UpcomingEarnings](src.Upcoming, func(r query.Result[struct{}, []models.UpcomingEarnings]) {
		s.post(upcomingResult(r))
	})
	s.status = query.NewSingle[models.ModelStatus](src.ModelStatus, func(r query.Result[struct{}, models.ModelStatus]) {
		s.post(statusResult(r))
	})
	s.history = query.NewKeyed[string, models.EarningsHistoryResponse](src.History,
		func(r query.Result[string, models.EarningsHistoryResponse]) {
			s.post(historyResult(r))
		})

	go s.run()
	return s
}

// ID is the session identifier.
func (s *Session) ID() string { return s.id }

// Done is closed once the session is closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// LastSeen is the time of the most recent caller interaction.
func (s *Session) LastSeen() time.Time { return time.Unix(0, s.seen.Load()) }

func (s *Session) touch(now time.Time) { s.seen.Store(now.UnixNano()) }

// Select makes symbol the selected stock and starts loading its history.
// Selecting the current symbol again does nothing.
func (s *Session) Select(ctx context.Context, symbol string) error {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return ErrEmptySymbol
	}
	return s.send(ctx, selectEvent{symbol: symbol})
}

// RefreshStatus refetches the model status.
func (s *Session) RefreshStatus(ctx context.Context) error {
	return s.send(ctx, refreshEvent{})
}

// Reload refetches every query, the selected history included.
func (s *Session) Reload(ctx context.Context) error {
	return s.send(ctx, reloadEvent{})
}

// View renders the current page.
func (s *Session) View(ctx context.Context) (view.Page, error) {
	reply := make(chan view.Page, 1)
	if err := s.send(ctx, viewEvent{reply: reply}); err != nil {
		return view.Page{}, err
	}
	select {
	case p := <-reply:
		return p, nil
	case <-s.done:
		return view.Page{}, ErrSessionClosed
	case <-ctx.Done():
		return view.Page{}, ctx.Err()
	}
}

// Subscribe returns a channel that receives a signal after every applied
// state change. Signals coalesce, and the channel is closed with the
// session. The returned func unsubscribes.
func (s *Session) Subscribe(ctx context.Context) (<-chan struct{}, func(), error) {
	reply := make(chan subscription, 1)
	if err := s.send(ctx, subscribeEvent{reply: reply}); err != nil {
		return nil, nil, err
	}
	var sub subscription
	select {
	case sub = <-reply:
	case <-s.done:
		return nil, nil, ErrSessionClosed
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	var once sync.Once
	cancel := func() {
		once.Do(func() { s.post(unsubscribeEvent{id: sub.id}) })
	}
	return sub.ch, cancel, nil
}

// Close stops the loop and cancels in-flight fetches. It is idempotent.
func (s *Session) Close() {
	s.once.Do(func() {
		s.cancel()
		close(s.done)
	})
	<-s.exited
}

func (s *Session) send(ctx context.Context, ev event) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post delivers from fetch goroutines; it gives up once the session closes.
func (s *Session) post(ev event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

func (s *Session) run() {
	defer close(s.exited)
	defer func() {
		for id, ch := range s.subs {
			close(ch)
			delete(s.subs, id)
		}
	}()

	s.upcoming.Run(s.ctx)
	s.status.Run(s.ctx)

	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			s.handle(ev)
		}
	}
}

func (s *Session) handle(ev event) {
	switch e := ev.(type) {
	case selectEvent:
		if e.symbol == s.selected {
			return
		}
		s.selected = e.symbol
		s.history.Start(s.ctx, e.symbol)
		s.log.Debug("symbol selected", applogger.String("symbol", e.symbol))
		s.notify()
	case refreshEvent:
		s.status.Run(s.ctx)
		s.notify()
	case reloadEvent:
		s.upcoming.Run(s.ctx)
		s.status.Run(s.ctx)
		if s.selected != "" {
			s.history.Start(s.ctx, s.selected)
		}
		s.notify()
	case viewEvent:
		e.reply <- s.page()
	case subscribeEvent:
		s.nextSub++
		sub := subscription{id: s.nextSub, ch: make(chan struct{}, 1)}
		s.subs[sub.id] = sub.ch
		e.reply <- sub
	case unsubscribeEvent:
		if ch, ok := s.subs[e.id]; ok {
			close(ch)
			delete(s.subs, e.id)
		}
	case upcomingResult:
		s.apply(opUpcoming, s.upcoming.Accept(query.Result[struct{}, []models.UpcomingEarnings](e)), e.State.Err())
	case statusResult:
		s.apply(opStatus, s.status.Accept(query.Result[struct{}, models.ModelStatus](e)), e.State.Err())
	case historyResult:
		ok := s.history.Accept(query.Result[string, models.EarningsHistoryResponse](e))
		if !ok {
			s.log.Debug("discarded stale history",
				applogger.String("symbol", e.Key),
				applogger.String("selected", s.selected))
		}
		s.apply(opHistory, ok, e.State.Err())
	}
}

func (s *Session) apply(op string, accepted bool, err error) {
	if !accepted {
		s.stale.RecordStaleDiscard(op)
		return
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("query failed", applogger.String("op", op), applogger.Error(err))
	}
	s.notify()
}

func (s *Session) notify() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Session) page() view.Page {
	in := view.PageInput{
		SessionID: s.id,
		Upcoming:  s.upcoming.State(),
		Model:     s.status.State(),
		Selected:  s.selected,
	}
	if s.selected != "" {
		in.History = s.history.State()
	}
	return view.BuildPage(in)
}
