package brew

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/tmorelle/pourover/internal/events"
)

// DefaultTickInterval is how often the session clock advances. Stage
// offsets are whole seconds, so anything well under a second is enough.
const DefaultTickInterval = 200 * time.Millisecond

// Notifier receives session transitions for environment side effects
// (sound cues, haptic pulses). Implementations must never block; failures
// are theirs to swallow.
type Notifier interface {
	StageChanged(stageIndex int, label string)
	WaitingStarted(stageIndex, remainingSeconds int)
	CountdownTick(phase string, remainingSeconds int)
	Completed()
}

// NopNotifier is a Notifier that does nothing. Used when no environment
// capabilities are wired.
type NopNotifier struct{}

func (NopNotifier) StageChanged(int, string)  {}
func (NopNotifier) WaitingStarted(int, int)   {}
func (NopNotifier) CountdownTick(string, int) {}
func (NopNotifier) Completed()                {}

// Plan is everything the coordinator needs to run one session.
type Plan struct {
	MethodID   string
	MethodName string
	BeanID     string
	SubEvents  []SubEvent
}

// Option configures the coordinator.
type Option func(*Coordinator)

// WithClock sets the clock, letting tests drive time deterministically.
func WithClock(clock Clock) Option {
	return func(c *Coordinator) {
		c.clock = clock
	}
}

// WithNotifier sets the environment notifier.
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) {
		c.notifier = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithTickInterval sets the session tick cadence.
func WithTickInterval(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.tickInterval = d
		}
	}
}

// WithPreRoll sets an optional countdown, in seconds, before the first
// stage begins.
func WithPreRoll(seconds int) Option {
	return func(c *Coordinator) {
		if seconds > 0 {
			c.preRoll = seconds
		}
	}
}

// Coordinator owns the brewing session clock. It advances elapsed time,
// maps it to the active stage, detects stage boundaries and completion,
// and publishes transitions through the event router. Exactly one session
// is active per coordinator; all mutation happens under its lock, so the
// published state is always internally consistent.
type Coordinator struct {
	router       *events.Router
	notifier     Notifier
	logger       *slog.Logger
	clock        Clock
	tickInterval time.Duration
	preRoll      int

	mu sync.Mutex

	// Session fields, valid while active is true.
	active     bool
	methodID   string
	methodName string
	beanID     string
	subEvents  []SubEvent

	state events.SessionState

	// rawBase is the raw elapsed time (pre-roll included) accumulated up to
	// the last pause or jump; resumedAt is when the clock last started.
	rawBase   float64
	resumedAt time.Time

	countdown      Countdown
	countdownPhase string

	ticker Ticker
	stop   chan struct{}
}

// New creates a coordinator publishing to the given router.
func New(router *events.Router, opts ...Option) *Coordinator {
	c := &Coordinator{
		router:       router,
		notifier:     NopNotifier{},
		logger:       slog.Default(),
		clock:        NewClock(),
		tickInterval: DefaultTickInterval,
		state:        events.SessionState{CurrentStage: -1},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins a session for the given plan. An empty plan is a no-op, and
// starting while a session is active is ignored; callers reset first.
func (c *Coordinator) Start(plan Plan) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		c.logger.Warn("start ignored: session already active", "method", c.methodID)
		return
	}
	if len(plan.SubEvents) == 0 {
		c.logger.Warn("start ignored: empty schedule", "method", plan.MethodID)
		return
	}

	c.active = true
	c.methodID = plan.MethodID
	c.methodName = plan.MethodName
	c.beanID = plan.BeanID
	c.subEvents = plan.SubEvents
	c.rawBase = 0
	c.resumedAt = c.clock.Now()
	c.state = events.SessionState{CurrentStage: -1, Running: true}

	c.logger.Info("session started",
		"method", plan.MethodID,
		"stages", plan.SubEvents[len(plan.SubEvents)-1].SourceStage+1,
		"total_s", TotalSeconds(plan.SubEvents),
		"preroll_s", c.preRoll,
	)

	c.emit(&events.SessionStartedEvent{
		BaseEvent:    events.NewBrewEvent(events.EventSessionStarted),
		MethodID:     plan.MethodID,
		MethodName:   plan.MethodName,
		BeanID:       plan.BeanID,
		TotalSeconds: TotalSeconds(plan.SubEvents),
		StageCount:   plan.SubEvents[len(plan.SubEvents)-1].SourceStage + 1,
		State:        c.snapshotLocked(),
	})

	if c.preRoll > 0 {
		c.countdownPhase = events.PhasePreRoll
		c.countdown.Begin(c.preRoll, c.onCountdownTick, c.onCountdownExpire)
	} else {
		c.tickLocked(0)
	}

	c.startTickerLocked()
}

// Tick advances the session to the given brew-elapsed time in seconds.
// The internal ticker calls this on a fixed cadence; tests call it
// directly. Ticks after completion are no-ops.
func (c *Coordinator) Tick(elapsed float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickLocked(elapsed)
}

// Pause stops the session clock without losing position.
func (c *Coordinator) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active || !c.state.Running || c.state.Complete {
		return
	}

	c.rawBase = c.rawElapsedLocked()
	c.state.Running = false
	c.stopTickerLocked()

	elapsed := c.brewElapsedLocked()
	c.logger.Info("session paused", "elapsed_s", elapsed)
	c.emit(&events.SessionPausedEvent{
		BaseEvent:      events.NewBrewEvent(events.EventSessionPaused),
		ElapsedSeconds: elapsed,
		State:          c.snapshotLocked(),
	})
}

// Resume restarts a paused session at its preserved position.
func (c *Coordinator) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active || c.state.Running || c.state.Complete {
		return
	}

	c.resumedAt = c.clock.Now()
	c.state.Running = true
	c.startTickerLocked()

	elapsed := c.brewElapsedLocked()
	c.logger.Info("session resumed", "elapsed_s", elapsed)
	c.emit(&events.SessionResumedEvent{
		BaseEvent:      events.NewBrewEvent(events.EventSessionResumed),
		ElapsedSeconds: elapsed,
		State:          c.snapshotLocked(),
	})
}

// Reset tears the session down: all state back to defaults, schedule
// discarded, ticker and countdown stopped. Safe to call from any state,
// including before any session has started.
func (c *Coordinator) Reset(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTickerLocked()
	c.countdown.Cancel()
	c.countdownPhase = ""

	wasActive := c.active
	c.active = false
	c.methodID = ""
	c.methodName = ""
	c.beanID = ""
	c.subEvents = nil
	c.rawBase = 0
	c.state = events.SessionState{CurrentStage: -1}

	if wasActive {
		c.logger.Info("session reset", "reason", reason)
	}
	c.emit(&events.SessionResetEvent{
		BaseEvent: events.NewBrewEvent(events.EventSessionReset),
		Reason:    reason,
		State:     c.snapshotLocked(),
	})
}

// JumpToStage repositions the session at the start of the given stage, as
// if Tick had been called at that offset. Out-of-range indexes clamp to
// the nearest valid stage. Whether a jump is allowed is the caller's
// concern.
func (c *Coordinator) JumpToStage(stageIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active || c.state.Complete || len(c.subEvents) == 0 {
		return
	}

	clamped := stageIndex
	if max := c.subEvents[len(c.subEvents)-1].SourceStage; clamped > max {
		clamped = max
	}
	if min := c.subEvents[0].SourceStage; clamped < min {
		clamped = min
	}

	// First sub-event of the clamped stage, or of the nearest earlier stage
	// when the clamped one was dropped as malformed.
	target := c.subEvents[0]
	for _, ev := range c.subEvents {
		if ev.SourceStage > clamped {
			break
		}
		if ev.SourceStage > target.SourceStage {
			target = ev
		}
	}

	if c.countdown.Active() {
		c.countdown.Cancel()
		c.countdownPhase = ""
		c.state.CountdownRemaining = nil
	}
	c.state.Waiting = false

	offset := float64(target.StartOffset)
	c.rawBase = float64(c.preRoll) + offset
	c.resumedAt = c.clock.Now()

	// Force a stage transition even when jumping within the current stage.
	c.state.CurrentStage = -1
	c.logger.Debug("jump to stage", "stage", target.SourceStage, "offset_s", target.StartOffset)
	c.tickLocked(offset)
}

// Snapshot returns a copy of the current session state. Never stale by
// more than one tick interval while the session runs.
func (c *Coordinator) Snapshot() events.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Elapsed returns the brew-elapsed time in seconds (pre-roll excluded,
// never negative, capped at the schedule total once complete).
func (c *Coordinator) Elapsed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.brewElapsedLocked()
}

// SubEvents returns the immutable schedule of the active session, or nil.
func (c *Coordinator) SubEvents() []SubEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SubEvent, len(c.subEvents))
	copy(out, c.subEvents)
	return out
}

// MethodID returns the active session's method ID, or "".
func (c *Coordinator) MethodID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.methodID
}

// MethodName returns the active session's method name, or "".
func (c *Coordinator) MethodName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.methodName
}

// BeanID returns the bean selected for the active session, or "".
func (c *Coordinator) BeanID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beanID
}

// Active reports whether a session exists (running, paused, or complete
// but not yet reset).
func (c *Coordinator) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// run is the ticker loop. It holds its own ticker and stop references so a
// concurrent Reset cannot race the field swap.
func (c *Coordinator) run(ticker Ticker, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			c.mu.Lock()
			c.advanceLocked(c.rawElapsedLocked())
			c.mu.Unlock()
		}
	}
}

// advanceLocked moves the session to the given raw elapsed time, routing
// through the pre-roll countdown when one is configured.
func (c *Coordinator) advanceLocked(raw float64) {
	if !c.active || !c.state.Running || c.state.Complete {
		return
	}

	pre := float64(c.preRoll)
	if c.countdownPhase == events.PhasePreRoll {
		c.countdown.Update(pre - raw)
		if raw < pre {
			return
		}
	}

	c.tickLocked(raw - pre)
}

func (c *Coordinator) tickLocked(elapsed float64) {
	if !c.active || c.state.Complete || len(c.subEvents) == 0 {
		return
	}
	if elapsed < 0 {
		elapsed = 0
	}

	if elapsed >= float64(TotalSeconds(c.subEvents)) {
		c.completeLocked(elapsed)
		return
	}

	idx := locate(c.subEvents, elapsed)
	if idx < 0 {
		idx = 0
	}
	ev := c.subEvents[idx]

	if ev.SourceStage != c.state.CurrentStage {
		c.enterStageLocked(ev)
	}

	c.state.Progress = stageProgress(ev, elapsed)

	switch {
	case ev.Kind == KindWait && !c.state.Waiting:
		c.state.Waiting = true
		remaining := int(math.Ceil(float64(ev.EndOffset) - elapsed))
		c.countdownPhase = events.PhaseWait
		c.countdown.Begin(remaining, c.onCountdownTick, c.onCountdownExpire)

		c.emit(&events.WaitingStartedEvent{
			BaseEvent:  events.NewBrewEvent(events.EventWaitingStarted),
			StageIndex: ev.SourceStage,
			Remaining:  remaining,
			State:      c.snapshotLocked(),
		})
		c.notifier.WaitingStarted(ev.SourceStage, remaining)

	case ev.Kind == KindWait:
		c.countdown.Update(float64(ev.EndOffset) - elapsed)

	default:
		// In a pour; expire any wait countdown left over from the previous
		// sub-event.
		c.state.Waiting = false
		if c.countdownPhase == events.PhaseWait {
			c.countdown.Update(0)
		}
	}
}

func (c *Coordinator) enterStageLocked(ev SubEvent) {
	c.state.CurrentStage = ev.SourceStage
	c.state.Waiting = false

	c.logger.Debug("stage changed", "stage", ev.SourceStage, "label", ev.Detail)
	c.emit(&events.StageChangedEvent{
		BaseEvent:   events.NewBrewEvent(events.EventStageChanged),
		StageIndex:  ev.SourceStage,
		Label:       ev.Detail,
		PourType:    string(ev.PourType),
		TargetWater: ev.TargetWater,
		ValveState:  string(ev.ValveState),
		StartOffset: ev.StageStart,
		EndOffset:   ev.StageEnd,
		State:       c.snapshotLocked(),
	})
	c.notifier.StageChanged(ev.SourceStage, ev.Detail)
}

// completeLocked fires completion exactly once; the Complete flag makes
// every later tick a no-op.
func (c *Coordinator) completeLocked(elapsed float64) {
	c.countdown.Cancel()
	c.countdownPhase = ""

	total := float64(TotalSeconds(c.subEvents))
	if elapsed > total {
		elapsed = total
	}
	c.rawBase = float64(c.preRoll) + elapsed

	last := c.subEvents[len(c.subEvents)-1]
	c.state.CurrentStage = last.SourceStage
	c.state.Running = false
	c.state.Waiting = false
	c.state.CountdownRemaining = nil
	c.state.Complete = true
	c.state.Progress = 1

	c.stopTickerLocked()

	c.logger.Info("session complete", "method", c.methodID, "elapsed_s", elapsed)
	c.emit(&events.SessionCompletedEvent{
		BaseEvent:      events.NewBrewEvent(events.EventSessionCompleted),
		MethodID:       c.methodID,
		ElapsedSeconds: elapsed,
		StageCount:     last.SourceStage + 1,
		State:          c.snapshotLocked(),
	})
	c.notifier.Completed()
}

func (c *Coordinator) onCountdownTick(remaining int) {
	r := remaining
	c.state.CountdownRemaining = &r

	c.emit(&events.CountdownTickEvent{
		BaseEvent: events.NewBrewEvent(events.EventCountdownTick),
		Phase:     c.countdownPhase,
		Remaining: remaining,
		State:     c.snapshotLocked(),
	})
	c.notifier.CountdownTick(c.countdownPhase, remaining)
}

func (c *Coordinator) onCountdownExpire() {
	c.state.CountdownRemaining = nil
	c.countdownPhase = ""
}

func (c *Coordinator) startTickerLocked() {
	if c.ticker != nil {
		return
	}
	c.ticker = c.clock.NewTicker(c.tickInterval)
	c.stop = make(chan struct{})
	go c.run(c.ticker, c.stop)
}

func (c *Coordinator) stopTickerLocked() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	close(c.stop)
	c.ticker = nil
	c.stop = nil
}

func (c *Coordinator) rawElapsedLocked() float64 {
	if c.state.Running {
		return c.rawBase + c.clock.Now().Sub(c.resumedAt).Seconds()
	}
	return c.rawBase
}

func (c *Coordinator) brewElapsedLocked() float64 {
	elapsed := c.rawElapsedLocked() - float64(c.preRoll)
	if elapsed < 0 {
		return 0
	}
	if total := float64(TotalSeconds(c.subEvents)); c.state.Complete && elapsed > total {
		return total
	}
	return elapsed
}

func (c *Coordinator) snapshotLocked() events.SessionState {
	state := c.state
	if c.state.CountdownRemaining != nil {
		r := *c.state.CountdownRemaining
		state.CountdownRemaining = &r
	}
	return state
}

func (c *Coordinator) emit(event events.Event) {
	if c.router != nil {
		c.router.Emit(event)
	}
}

// stageProgress computes the elapsed fraction of the sub-event's source
// stage, clamped to [0,1].
func stageProgress(ev SubEvent, elapsed float64) float64 {
	duration := float64(ev.StageEnd - ev.StageStart)
	if duration <= 0 {
		return 0
	}
	p := (elapsed - float64(ev.StageStart)) / duration
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
