package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bnema/evo/internal/domain"
	"github.com/bnema/evo/internal/ports"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	StatusGenerating    = "Generating variants..."
	StatusAwaitingVotes = "Click 3 times on a variant to select it!"
	awaitingVotesFormat = "Click %d times on a variant to select it!"
	StatusReset         = "Session reset. Generate a new image to start."
	statusWinnerFormat  = "Variant %d wins! Generating next iteration..."
	statusSelectedFmt   = "Variant %d selected."
	softFailureFormat   = "Generation failed after %d retry attempts (AI safety filters or technical issues). Choose a variant to try again or generate a new image."
	hardFailureMessage  = "Error occurred. Choose a variant to retry or generate a new image."
)

const archiveTimeout = 30 * time.Second

// CredentialSource hands out the session credential.
type CredentialSource interface {
	Resolve(ctx context.Context) (string, error)
	Clear()
}

type ControllerDeps struct {
	Session       *domain.SessionState
	Pool          *domain.InstructionPool
	Tally         *domain.VoteTally
	Generator     ports.VariantGenerator
	Credentials   CredentialSource
	Mirror        *MirrorSync
	Archive       ports.RoundArchive
	Metrics       ports.Metrics
	Clock         ports.Clock
	Logger        *slog.Logger
	RetryAttempts int
	// ManualAdvance disables starting the next round after a selection.
	ManualAdvance bool
	NewID         func() string
}

// Controller runs the generation and selection loop. A single dispatcher
// goroutine (Run) owns the session, pool and tally; every public method
// posts an event and waits for the dispatcher's reply.
type Controller struct {
	session     *domain.SessionState
	pool        *domain.InstructionPool
	tally       *domain.VoteTally
	generator   ports.VariantGenerator
	credentials CredentialSource
	mirror      *MirrorSync
	archive     ports.RoundArchive
	metrics     ports.Metrics
	clock       ports.Clock
	logger      *slog.Logger
	attempts    int
	autoChain   bool
	newID       func() string

	events  chan event
	stopped chan struct{}
	once    sync.Once
	workers sync.WaitGroup

	// dispatcher-owned
	runCtx  context.Context
	pending pendingRound
	status  string
	notice  Notice

	subMu       sync.Mutex
	subscribers map[int]chan Snapshot
	nextSubID   int
}

type pendingRound struct {
	id           domain.RoundID
	number       int
	instructions [2]domain.Instruction
	startedAt    time.Time
	cancel       context.CancelFunc
}

type event interface{ isEvent() }

type startRoundEvent struct{ reply chan reply }

type voteEvent struct {
	slot   domain.VariantSlot
	source VoteSource
	reply  chan reply
}

type resetEvent struct {
	confirmed bool
	reply     chan reply
}

type snapshotEvent struct{ reply chan reply }

type roundSettledEvent struct {
	id     domain.RoundID
	images [2]domain.Image
	errs   [2]error
}

func (startRoundEvent) isEvent()   {}
func (voteEvent) isEvent()         {}
func (resetEvent) isEvent()        {}
func (snapshotEvent) isEvent()     {}
func (roundSettledEvent) isEvent() {}

type reply struct {
	snapshot Snapshot
	outcome  VoteOutcome
	err      error
}

func NewController(deps ControllerDeps) (*Controller, error) {
	if deps.Session == nil || deps.Pool == nil || deps.Generator == nil || deps.Credentials == nil {
		return nil, errors.New("controller requires session, pool, generator and credentials")
	}
	if deps.Tally == nil {
		deps.Tally = domain.NewVoteTally(domain.DefaultVotesRequired)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Mirror == nil {
		deps.Mirror = NewMirrorSync(nil, deps.Logger)
	}
	if deps.Metrics == nil {
		deps.Metrics = ports.NopMetrics{}
	}
	if deps.Clock == nil {
		deps.Clock = ports.SystemClock{}
	}
	if deps.RetryAttempts <= 0 {
		deps.RetryAttempts = DefaultMaxAttempts
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}

	return &Controller{
		session:     deps.Session,
		pool:        deps.Pool,
		tally:       deps.Tally,
		generator:   deps.Generator,
		credentials: deps.Credentials,
		mirror:      deps.Mirror,
		archive:     deps.Archive,
		metrics:     deps.Metrics,
		clock:       deps.Clock,
		logger:      deps.Logger.With("session_id", deps.Session.ID()),
		attempts:    deps.RetryAttempts,
		autoChain:   !deps.ManualAdvance,
		newID:       deps.NewID,
		events:      make(chan event),
		stopped:     make(chan struct{}),
		subscribers: map[int]chan Snapshot{},
	}, nil
}

// Run consumes events until ctx is done. In-flight generations are
// cancelled and awaited before Run returns.
func (c *Controller) Run(ctx context.Context) error {
	started := false
	c.once.Do(func() { started = true })
	if !started {
		return errors.New("controller already running")
	}

	c.runCtx = ctx
	c.metrics.PoolSize(c.pool.Size())
	c.logger.Info("round controller started", "pool_size", c.pool.Size())

	defer func() {
		close(c.stopped)
		c.workers.Wait()
		c.closeSubscribers()
		c.logger.Info("round controller stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-c.events:
			c.dispatch(ev)
		}
	}
}

// StartRound starts or continues the loop.
func (c *Controller) StartRound(ctx context.Context) (Snapshot, error) {
	r, err := c.request(ctx, func(ch chan reply) event { return startRoundEvent{reply: ch} })
	if err != nil {
		return Snapshot{}, err
	}
	return r.snapshot, r.err
}

// Vote registers one vote for slot from source.
func (c *Controller) Vote(ctx context.Context, slot domain.VariantSlot, source VoteSource) (VoteOutcome, error) {
	r, err := c.request(ctx, func(ch chan reply) event { return voteEvent{slot: slot, source: source, reply: ch} })
	if err != nil {
		return VoteOutcome{}, err
	}
	return r.outcome, r.err
}

// Reset restores the seed image, an empty history and the full pool.
// It requires confirmed. A round still generating is cancelled and its
// result discarded.
func (c *Controller) Reset(ctx context.Context, confirmed bool) (Snapshot, error) {
	r, err := c.request(ctx, func(ch chan reply) event { return resetEvent{confirmed: confirmed, reply: ch} })
	if err != nil {
		return Snapshot{}, err
	}
	return r.snapshot, r.err
}

func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	r, err := c.request(ctx, func(ch chan reply) event { return snapshotEvent{reply: ch} })
	if err != nil {
		return Snapshot{}, err
	}
	return r.snapshot, nil
}

// Subscribe returns a channel receiving a snapshot after every transition.
// Slow subscribers only see the latest snapshot.
func (c *Controller) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer <= 0 {
		buffer = 1
	}

	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	ch := make(chan Snapshot, buffer)
	if c.subscribers == nil {
		close(ch)
		return ch, func() {}
	}
	c.subscribers[id] = ch

	return ch, func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if sub, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(sub)
		}
	}
}

func (c *Controller) request(ctx context.Context, build func(chan reply) event) (reply, error) {
	ch := make(chan reply, 1)
	select {
	case c.events <- build(ch):
	case <-c.stopped:
		return reply{}, domain.ErrControllerStopped
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}

	select {
	case r := <-ch:
		return r, nil
	case <-c.stopped:
		return reply{}, domain.ErrControllerStopped
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
}

func (c *Controller) dispatch(ev event) {
	ctx := c.runCtx

	switch ev := ev.(type) {
	case startRoundEvent:
		err := c.beginRound(ctx)
		ev.reply <- reply{snapshot: c.snapshot(), err: err}
		if err == nil {
			c.publish()
		}
	case voteEvent:
		outcome, err := c.vote(ctx, ev.slot, ev.source)
		ev.reply <- reply{outcome: outcome, err: err}
		if err == nil {
			c.publish()
		}
	case resetEvent:
		err := c.reset(ctx, ev.confirmed)
		ev.reply <- reply{snapshot: c.snapshot(), err: err}
		if err == nil {
			c.publish()
		}
	case snapshotEvent:
		ev.reply <- reply{snapshot: c.snapshot()}
	case roundSettledEvent:
		if c.settle(ctx, ev) {
			c.publish()
		}
	}
}

func (c *Controller) beginRound(ctx context.Context) error {
	number, err := c.session.BeginRound()
	if err != nil {
		c.logger.Debug("start round refused", "phase", c.session.Phase(), "error", err)
		return err
	}

	first, second := c.pool.DrawDistinctPair()
	roundCtx, cancel := context.WithCancel(ctx)
	c.pending = pendingRound{
		id:           domain.RoundID(c.newID()),
		number:       number,
		instructions: [2]domain.Instruction{first, second},
		startedAt:    c.clock.Now(),
		cancel:       cancel,
	}
	c.tally.Reset()
	c.status = StatusGenerating
	c.notice = Notice{}

	c.logger.Info("round started",
		"round", number,
		"round_id", c.pending.id,
		"instruction_1", truncate(first.String(), 50),
		"instruction_2", truncate(second.String(), 50),
	)
	c.metrics.RoundStarted()
	c.mirror.SetGenerating(ctx, true, number)

	pending := c.pending
	image := c.session.CurrentImage()
	c.workers.Add(1)
	go func() {
		defer c.workers.Done()
		defer cancel()
		c.generate(roundCtx, pending, image)
	}()

	return nil
}

// generate runs outside the dispatcher. Both variants are always awaited
// so one failure never hides the other's result.
func (c *Controller) generate(ctx context.Context, round pendingRound, image domain.Image) {
	settled := roundSettledEvent{id: round.id}

	credential, err := c.credentials.Resolve(ctx)
	if err != nil {
		fatal := domain.NewFatalError("credential unavailable", err)
		settled.errs = [2]error{fatal, fatal}
		c.post(settled)
		return
	}

	var group errgroup.Group
	for i, instruction := range round.instructions {
		group.Go(func() error {
			settled.images[i], settled.errs[i] = c.generator.Generate(ctx, ports.GenerateRequest{
				Image:       image,
				Instruction: instruction,
				Credential:  credential,
			})
			return nil
		})
	}
	_ = group.Wait()

	c.post(settled)
}

func (c *Controller) post(ev event) {
	select {
	case c.events <- ev:
	case <-c.stopped:
	}
}

// settle applies a finished generation. It reports whether state changed.
func (c *Controller) settle(ctx context.Context, ev roundSettledEvent) bool {
	if !c.session.InFlight() || ev.id != c.pending.id {
		c.logger.Warn("ignoring stale round result", "round_id", ev.id)
		return false
	}

	round := c.pending
	c.pending = pendingRound{}

	if err := errors.Join(ev.errs[0], ev.errs[1]); err != nil {
		c.failRound(ctx, round, ev.errs)
		return true
	}

	settledRound := domain.Round{
		ID:        round.id,
		Number:    round.number,
		StartedAt: round.startedAt,
		Variants: [2]domain.Variant{
			domain.NewVariant(domain.Slot1, round.instructions[0], ev.images[0]),
			domain.NewVariant(domain.Slot2, round.instructions[1], ev.images[1]),
		},
	}

	c.tally.Reset()
	if err := c.session.CompleteRound(settledRound); err != nil {
		c.logger.Error("complete round", "round", round.number, "error", err)
		return false
	}
	c.status = fmt.Sprintf(awaitingVotesFormat, c.tally.Required())
	c.notice = Notice{}

	c.logger.Info("round ready for votes", "round", round.number, "round_id", round.id)
	c.metrics.RoundSettled("success")
	c.mirror.SaveVariants(ctx, settledRound)
	return true
}

func (c *Controller) failRound(ctx context.Context, round pendingRound, errs [2]error) {
	c.session.FailRound()
	c.tally.Reset()
	c.mirror.SetGenerating(ctx, false, round.number)

	hard := false
	for _, err := range errs {
		if err != nil && !domain.IsTransient(err) {
			hard = true
		}
	}

	joined := errors.Join(errs[0], errs[1])
	if hard {
		c.notice = Notice{Severity: NoticeHard, Message: hardFailureMessage, Detail: joined.Error()}
		c.metrics.RoundSettled("hard_failure")
		c.logger.Error("round failed", "round", round.number, "round_id", round.id, "error", joined)
	} else {
		c.notice = Notice{Severity: NoticeSoft, Message: fmt.Sprintf(softFailureFormat, c.attempts), Detail: joined.Error()}
		c.metrics.RoundSettled("soft_failure")
		c.logger.Warn("round failed after retries", "round", round.number, "round_id", round.id, "error", joined)
	}
	c.status = c.notice.Message
}

func (c *Controller) vote(ctx context.Context, slot domain.VariantSlot, source VoteSource) (VoteOutcome, error) {
	if !slot.Valid() {
		c.metrics.Vote(string(source), "invalid")
		return VoteOutcome{}, domain.ErrInvalidVariant
	}
	if !c.session.AcceptingVotes() {
		c.metrics.Vote(string(source), "rejected")
		return VoteOutcome{}, domain.ErrVotingClosed
	}

	result, err := c.tally.Register(slot)
	if err != nil {
		c.metrics.Vote(string(source), "rejected")
		return VoteOutcome{Result: result}, err
	}

	outcome := VoteOutcome{Result: result}
	c.logger.Debug("vote registered", "slot", slot, "source", source, "votes", result.Votes)
	if !result.Reached {
		c.metrics.Vote(string(source), "accepted")
		return outcome, nil
	}
	c.metrics.Vote(string(source), "decided")

	decided, err := c.session.Select(slot, c.clock.Now())
	if err != nil {
		return outcome, fmt.Errorf("finalize round: %w", err)
	}
	if loser, ok := decided.Loser(); ok {
		if !c.pool.Remove(loser.Instruction) {
			c.logger.Debug("losing instruction already gone from pool", "instruction", truncate(loser.Instruction.String(), 50))
		}
	}
	c.tally.Reset()
	c.notice = Notice{}
	c.reportPool()

	c.logger.Info("variant selected",
		"round", decided.Number,
		"slot", slot,
		"redecided", decided.Redecided,
	)
	c.mirror.SaveSelection(ctx, c.session.CurrentImage(), c.session.History())
	c.archiveRound(decided)

	outcome.Finalized = true
	outcome.Round = decided

	if !c.autoChain {
		c.status = fmt.Sprintf(statusSelectedFmt, int(slot))
		return outcome, nil
	}

	if err := c.beginRound(ctx); err != nil {
		c.logger.Warn("next round not started", "error", err)
		c.status = fmt.Sprintf(statusSelectedFmt, int(slot))
		return outcome, nil
	}
	c.status = fmt.Sprintf(statusWinnerFormat, int(slot))
	outcome.NextRound = c.session.RoundNumber()

	return outcome, nil
}

func (c *Controller) reset(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return domain.ErrResetNotConfirmed
	}
	if c.session.InFlight() && c.pending.cancel != nil {
		c.pending.cancel()
		c.metrics.RoundSettled("cancelled")
		c.logger.Info("round cancelled by reset", "round", c.pending.number, "round_id", c.pending.id)
	}

	c.session.Reset()
	c.pool.Reset()
	c.tally.Reset()
	c.credentials.Clear()
	c.mirror.Clear(ctx)
	c.pending = pendingRound{}
	c.notice = Notice{}
	c.status = StatusReset
	c.metrics.PoolSize(c.pool.Size())

	c.logger.Info("session reset", "pool_size", c.pool.Size())
	return nil
}

func (c *Controller) archiveRound(round domain.Round) {
	if c.archive == nil {
		return
	}

	ctx := c.runCtx
	c.workers.Add(1)
	go func() {
		defer c.workers.Done()
		archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
		defer cancel()

		if err := c.archive.Archive(archiveCtx, round); err != nil {
			c.logger.Warn("archive round", "round", round.Number, "error", err)
		}
	}()
}

func (c *Controller) reportPool() {
	size := c.pool.Size()
	c.metrics.PoolSize(size)

	switch c.pool.Supply() {
	case domain.SupplyCritical:
		c.logger.Warn("instruction pool critically low", "remaining", size)
	case domain.SupplyLow:
		c.logger.Info("instruction pool running low", "remaining", size)
	}
}

func (c *Controller) snapshot() Snapshot {
	snap := Snapshot{
		SessionID:     c.session.ID(),
		Phase:         c.session.Phase(),
		RoundNumber:   c.session.RoundNumber(),
		InFlight:      c.session.InFlight(),
		Votes:         c.tally.Votes(),
		VotesRequired: c.tally.Required(),
		CurrentImage:  c.session.CurrentImage(),
		PoolSize:      c.pool.Size(),
		PoolOriginal:  c.pool.OriginalSize(),
		Supply:        c.pool.Supply(),
		Status:        c.status,
		Notice:        c.notice,
	}

	if c.session.AcceptingVotes() {
		if round, ok := c.session.Displayed(); ok {
			snap.Redeciding = c.session.Phase() == domain.PhaseFailed
			for _, variant := range round.Variants {
				snap.Variants = append(snap.Variants, VariantView{
					Slot:        variant.Slot,
					Instruction: variant.Instruction,
					Display:     variant.Display,
					Image:       variant.Image,
					Votes:       domain.VoteResult{Votes: snap.Votes}.For(variant.Slot),
				})
			}
		}
	}

	history := c.session.History()
	snap.History = make([]RoundSummary, 0, len(history))
	for _, round := range history {
		snap.History = append(snap.History, SummarizeRound(round))
	}

	return snap
}

func (c *Controller) publish() {
	snap := c.snapshot()

	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subscribers {
		select {
		case ch <- snap:
			continue
		default:
		}
		// drop the oldest queued snapshot
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (c *Controller) closeSubscribers() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for id, ch := range c.subscribers {
		delete(c.subscribers, id)
		close(ch)
	}
	c.subscribers = nil
}
