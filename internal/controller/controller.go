// v0
// internal/controller/controller.go
// Package controller owns the dashboard state machine: it turns commands and
// timer ticks into gated backend calls, applies their results to the
// dashboard state and publishes the rendered board.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"nrgchamp/dashboard/internal/chart"
	"nrgchamp/dashboard/internal/form"
	"nrgchamp/dashboard/internal/gate"
	"nrgchamp/dashboard/internal/history"
	"nrgchamp/dashboard/internal/model"
	"nrgchamp/dashboard/internal/notify"
	"nrgchamp/dashboard/internal/scheduler"
	"nrgchamp/dashboard/internal/view"
)

// Extra SetInput fields handled outside the numeric pairs.
const (
	FieldCity    form.Field = "city"
	FieldWeekend form.Field = "weekend"
)

// Timer names.
const (
	TaskRefresh = "refresh"
	TaskHealth  = "health"
	TaskUptime  = "uptime"
)

// Backend is the transport used by the operations.
type Backend interface {
	LiveCities(ctx context.Context) ([]model.CityMetric, error)
	Health(ctx context.Context) model.HealthReport
	Predict(ctx context.Context, req model.PredictionRequest) (model.PredictionResult, error)
}

// Recorder receives operation metrics.
type Recorder interface {
	OpCompleted(op, outcome string)
	OpDropped(op string)
}

type nopRecorder struct{}

func (nopRecorder) OpCompleted(string, string) {}
func (nopRecorder) OpDropped(string)           {}

// Options tune a Controller. Zero values select the defaults.
type Options struct {
	Logger       *slog.Logger
	Clock        func() time.Time
	Location     *time.Location
	Recorder     Recorder
	RefreshEvery time.Duration
	HealthEvery  time.Duration
	UptimeEvery  time.Duration
	SettleDelay  time.Duration
	// DefaultCity overrides the form's boot city.
	DefaultCity string
}

const (
	DefaultRefreshEvery = 30 * time.Second
	DefaultHealthEvery  = 60 * time.Second
	DefaultUptimeEvery  = time.Second
	DefaultSettleDelay  = 1500 * time.Millisecond
)

// Deps are the components the controller drives. Nil fields are created
// with defaults.
type Deps struct {
	Gate     *gate.Gate
	Notifier *notify.Notifier
	History  *history.Log
	Canvas   *chart.Canvas
}

type Controller struct {
	backend Backend
	gate    *gate.Gate
	notes   *notify.Notifier
	hist    *history.Log
	canvas  *chart.Canvas
	sched   *scheduler.Scheduler
	rec     Recorder
	log     *slog.Logger
	now     func() time.Time
	loc     *time.Location
	settle  time.Duration
	city    string

	mu    sync.Mutex
	state DashboardState

	subMu  sync.Mutex
	subs   map[int]chan view.Board
	nextID int

	booted   chan struct{}
	bootOnce sync.Once
}

func New(backend Backend, deps Deps, opts Options) (*Controller, error) {
	if backend == nil {
		return nil, errors.New("controller requires a backend")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.RefreshEvery <= 0 {
		opts.RefreshEvery = DefaultRefreshEvery
	}
	if opts.HealthEvery <= 0 {
		opts.HealthEvery = DefaultHealthEvery
	}
	if opts.UptimeEvery <= 0 {
		opts.UptimeEvery = DefaultUptimeEvery
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if deps.Gate == nil {
		deps.Gate = gate.New(nil)
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.New(opts.Logger, opts.Clock)
	}
	if deps.History == nil {
		deps.History = history.New(history.DefaultCapacity, nil)
	}
	if deps.Canvas == nil {
		deps.Canvas = chart.NewCanvas()
	}

	c := &Controller{
		backend: backend,
		gate:    deps.Gate,
		notes:   deps.Notifier,
		hist:    deps.History,
		canvas:  deps.Canvas,
		rec:     opts.Recorder,
		log:     opts.Logger.With(slog.String("component", "controller")),
		now:     opts.Clock,
		loc:     opts.Location,
		settle:  opts.SettleDelay,
		city:    opts.DefaultCity,
		state:   newState(opts.Clock()),
		subs:    make(map[int]chan view.Board),
		booted:  make(chan struct{}),
	}
	c.sched = scheduler.New(opts.Logger, c.recovered)
	tasks := []scheduler.Task{
		{Name: TaskRefresh, Every: opts.RefreshEvery, Run: c.refreshTick},
		{Name: TaskHealth, Every: opts.HealthEvery, Run: func(ctx context.Context) { c.checkHealth(ctx) }},
		{Name: TaskUptime, Every: opts.UptimeEvery, Run: func(context.Context) { c.tickUptime() }},
	}
	for _, t := range tasks {
		if err := c.sched.Add(t); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Scheduler exposes the timers, mainly so tests can Tick or Advance them.
func (c *Controller) Scheduler() *scheduler.Scheduler { return c.sched }

// Notifier returns the notification stack.
func (c *Controller) Notifier() *notify.Notifier { return c.notes }

// History returns the operation log.
func (c *Controller) History() *history.Log { return c.hist }

// Canvas returns the chart holder.
func (c *Controller) Canvas() *chart.Canvas { return c.canvas }

// Boot applies the form defaults, runs the initial refresh and health check
// and leaves the dashboard in the booting phase.
func (c *Controller) Boot(ctx context.Context) {
	now := c.now()
	c.mu.Lock()
	c.state.StartedAt = now
	c.state.Phase = view.PhaseBooting
	c.state.Form.Reset(now)
	if c.city != "" {
		c.state.Form.SetCity(c.city)
	}
	c.mu.Unlock()
	c.log.Info("dashboard_booting")

	c.loadCities(ctx, "boot")
	c.checkHealth(ctx)
	c.publish()
	c.bootOnce.Do(func() { close(c.booted) })
}

// Booted is closed once the first Boot has loaded cities and health.
func (c *Controller) Booted() <-chan struct{} { return c.booted }

// Settle leaves the booting phase.
func (c *Controller) Settle() {
	c.mu.Lock()
	already := c.state.Phase == view.PhaseReady
	c.state.Phase = view.PhaseReady
	c.mu.Unlock()
	if already {
		return
	}
	c.notes.Info("Dashboard initialized")
	c.log.Info("dashboard_ready")
	c.publish()
}

// Run boots, starts the timers, settles after the configured delay and
// blocks until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	c.Boot(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- c.sched.Run(ctx) }()

	settle := time.NewTimer(c.settle)
	defer settle.Stop()
	select {
	case <-settle.C:
		c.Settle()
	case <-ctx.Done():
	}
	return <-errCh
}

// Dispatch applies cmd and returns once its effects are visible. Gated
// commands arriving while another operation is in flight are Dropped.
func (c *Controller) Dispatch(ctx context.Context, cmd Command) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.recovered(cmd.command(), r)
			out, err = Failed, fmt.Errorf("%s: %v", cmd.command(), r)
		}
	}()

	switch cmd := cmd.(type) {
	case Refresh:
		return c.loadCities(ctx, cmd.Reason), nil
	case Focus:
		return c.loadCities(ctx, "focus"), nil
	case Submit:
		return c.predict(ctx, cmd.Request), nil
	case ChangeSelector:
		return c.changeSelector(ctx, cmd)
	case Dismiss:
		c.mu.Lock()
		c.state.ResultVisible = false
		c.mu.Unlock()
		c.publish()
		return Applied, nil
	case SavePrediction:
		c.mu.Lock()
		visible := c.state.ResultVisible
		c.mu.Unlock()
		if !visible {
			c.notes.Warning("No prediction to save")
			c.publish()
			return Rejected, nil
		}
		c.notes.Success("Prediction saved to history")
		c.publish()
		return Applied, nil
	case SetInput:
		return c.setInput(cmd)
	case ClearHistory:
		c.hist.Clear()
		c.log.Info("history_cleared")
		c.publish()
		return Applied, nil
	case DismissNotification:
		if !c.notes.Dismiss(cmd.ID) {
			return Rejected, nil
		}
		c.publish()
		return Applied, nil
	case nil:
		return Rejected, errors.New("nil command")
	default:
		return Rejected, fmt.Errorf("unsupported command %T", cmd)
	}
}

func (c *Controller) changeSelector(ctx context.Context, cmd ChangeSelector) (Outcome, error) {
	c.mu.Lock()
	switch cmd.Kind {
	case SelectorChartType:
		ct, ok := model.ParseChartType(cmd.Value)
		if !ok {
			c.log.Warn("selector_value_defaulted", slog.String("kind", string(cmd.Kind)), slog.String("value", cmd.Value))
		}
		c.state.View.ChartType = ct
	case SelectorDataType:
		dt, ok := model.ParseDataType(cmd.Value)
		if !ok {
			c.log.Warn("selector_value_defaulted", slog.String("kind", string(cmd.Kind)), slog.String("value", cmd.Value))
		}
		c.state.View.DataType = dt
	default:
		c.mu.Unlock()
		return Rejected, fmt.Errorf("unknown selector %q", cmd.Kind)
	}
	if c.state.Cities != nil {
		c.renderChartLocked()
	}
	c.mu.Unlock()
	c.publish()

	c.loadCities(ctx, "selector")
	return Applied, nil
}

func (c *Controller) setInput(cmd SetInput) (Outcome, error) {
	c.mu.Lock()
	defer func() {
		c.mu.Unlock()
		c.publish()
	}()
	switch cmd.Field {
	case FieldCity:
		c.state.Form.SetCity(cmd.Raw)
		return Applied, nil
	case FieldWeekend:
		v, err := strconv.ParseBool(cmd.Raw)
		if err != nil {
			return Rejected, fmt.Errorf("weekend: %w", err)
		}
		c.state.Form.SetWeekend(v)
		return Applied, nil
	}
	if _, err := c.state.Form.Set(cmd.Field, cmd.Source, cmd.Raw); err != nil {
		return Rejected, err
	}
	return Applied, nil
}

func (c *Controller) refreshTick(ctx context.Context) {
	if c.gate.IsBusy() {
		c.rec.OpDropped(opLoadCities)
		c.log.Debug("refresh_tick_skipped_busy")
		return
	}
	c.loadCities(ctx, "timer")
}

func (c *Controller) tickUptime() {
	now := c.now()
	c.mu.Lock()
	c.state.Uptime = now.Sub(c.state.StartedAt)
	c.mu.Unlock()
	c.notes.Sweep(now)
	c.publish()
}

func (c *Controller) recovered(where string, r any) {
	c.log.Error("recovered_panic", slog.String("where", where), slog.Any("panic", r))
	c.notes.Error(fmt.Sprintf("Application error: %v", r))
	c.publish()
}

// State returns a copy of the dashboard state.
func (c *Controller) State() DashboardState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Cities = append([]model.CityMetric(nil), c.state.Cities...)
	if c.state.Result != nil {
		r := *c.state.Result
		s.Result = &r
	}
	s.Form = nil
	return s
}

// Board renders every UI region.
func (c *Controller) Board() view.Board {
	now := c.now()
	c.mu.Lock()
	b := view.Board{
		Phase:     c.state.Phase,
		Status:    view.Indicators(c.state.Health),
		Cards:     view.Cards(c.state.Cities),
		Selectors: view.Selectors{ChartType: c.state.View.ChartType, DataType: c.state.View.DataType},
		Form:      c.state.Form.State(),
		Uptime:    view.Uptime(c.state.Uptime),
	}
	if c.state.ResultVisible && c.state.Result != nil {
		b.Result = view.Result(*c.state.Result, now, c.loc)
	}
	if c.state.View.LastUpdate != 0 {
		at := c.state.View.LastUpdate.Time().In(c.loc)
		b.LastUpdate = view.Clock(at)
		b.LastUpdated = "Updated: " + view.Clock(at)
	}
	c.mu.Unlock()

	if inst := c.canvas.Current(); inst != nil {
		cfg := inst.Config
		b.Chart = &cfg
		b.ChartGeneration = inst.Generation
	}
	b.Overlay = c.gate.Overlay()
	b.Notifications = c.notes.Active()
	b.HistorySize = c.hist.Len()
	return b
}

// Subscribe returns a channel receiving the latest board after every
// change. Slow readers only see the newest board. cancel releases it.
func (c *Controller) Subscribe() (<-chan view.Board, func()) {
	ch := make(chan view.Board, 1)
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	c.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
			close(ch)
		})
	}
}

func (c *Controller) publish() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if len(c.subs) == 0 {
		return
	}
	b := c.Board()
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- b:
		default:
		}
	}
}
