// Package solver runs concurrent candidate strategies against an
// auction under a hard deadline and returns the best-scored
// settlement, falling back to a zero-fill baseline when nothing
// better finishes in time.
package solver

import (
	"context"
	"errors"
	"math"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"auction-solver/internal/domain"
	"auction-solver/internal/graph"
	"auction-solver/internal/idhash"
	"auction-solver/internal/observability"
	"auction-solver/internal/scoring"
)

// State is the governor's phase during the most recent solve.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Governor orchestrates one solve at a time: it builds the liquidity
// graph once, prioritizes orders, fans candidate strategies out over
// private overlays, and collects results until all candidates finish
// or the auction deadline fires.
type Governor struct {
	clock      Clock
	strategies []Strategy
	sorting    []SortingStrategy
	penalty    decimal.Decimal
	logger     zerolog.Logger
	state      atomic.Int32
}

// Options configures a Governor. Zero values select defaults.
type Options struct {
	Clock              Clock
	Strategies         []Strategy
	Sorting            []SortingStrategy
	InteractionPenalty decimal.Decimal
	Logger             zerolog.Logger
}

// New builds a Governor from opts.
func New(opts Options) *Governor {
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Strategies == nil {
		opts.Strategies = DefaultStrategies()
	}
	if opts.Sorting == nil {
		opts.Sorting = DefaultSorting()
	}
	if opts.InteractionPenalty.IsZero() {
		opts.InteractionPenalty = scoring.DefaultInteractionPenalty
	}
	return &Governor{
		clock:      opts.Clock,
		strategies: opts.Strategies,
		sorting:    opts.Sorting,
		penalty:    opts.InteractionPenalty,
		logger:     opts.Logger,
	}
}

// State reports the governor's current phase. It is a monitoring
// signal only: concurrent solves interleave their stores, so per-call
// outcomes must be read from the Result each Solve returns.
func (g *Governor) State() State { return State(g.state.Load()) }

// outcome is one candidate's terminal report.
type outcome struct {
	idx int
	sol *domain.Solution
	err error
}

// Result is one finished solve. TimedOut reports whether the deadline
// fired before every candidate reported for this call; concurrent
// callers each get their own, independent of State.
type Result struct {
	Solution *domain.Solution
	TimedOut bool
}

// Solve runs the auction and always returns a valid solution. The
// zero-fill baseline is the floor: an expired deadline, empty
// candidate set, or universal candidate failure all yield it rather
// than an error. Candidates still running at the deadline are
// cancelled and never block the return.
func (g *Governor) Solve(ctx context.Context, auction *domain.Auction) Result {
	g.state.Store(int32(StateRunning))
	started := g.clock.Now()

	baseline := domain.EmptySolution(auction.ID)
	baseline.ID = idhash.ComputeSolutionID(auction.ID, "baseline", nil)

	budget := auction.Deadline.Sub(started)
	if budget <= 0 {
		g.state.Store(int32(StateTimedOut))
		observability.RecordSolve("timed_out", 0)
		g.logger.Warn().Int64("auction_id", auction.ID).Msg("deadline already elapsed, returning baseline")
		return Result{Solution: baseline, TimedOut: true}
	}

	liq := graph.Build(auction.Liquidity)
	orders := make([]domain.Order, len(auction.Orders))
	copy(orders, auction.Orders)
	SortOrders(orders, liq, g.sorting)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan outcome, len(g.strategies))
	for i, strat := range g.strategies {
		go func(idx int, strat Strategy) {
			sol, err := runCandidate(runCtx, auction, liq, orders, strat, g.penalty)
			results <- outcome{idx: idx, sol: sol, err: err}
		}(i, strat)
	}

	best := baseline
	bestIdx := math.MaxInt
	timedOut := false
	deadline := g.clock.After(budget)

	for done := 0; done < len(g.strategies) && !timedOut; {
		select {
		case r := <-results:
			done++
			g.collect(r, &best, &bestIdx)
		case <-deadline:
			timedOut = true
		case <-runCtx.Done():
			timedOut = true
		}
	}
	cancel()

	elapsed := g.clock.Now().Sub(started)
	state, solveOutcome := StateCompleted, "completed"
	if timedOut {
		state, solveOutcome = StateTimedOut, "timed_out"
	} else if best.IsEmpty() {
		solveOutcome = "baseline"
	}
	g.state.Store(int32(state))
	observability.RecordSolve(solveOutcome, elapsed.Seconds())
	score, _ := best.Score.Float64()
	observability.RecordWinner(score, len(best.Fills))

	g.logger.Info().
		Int64("auction_id", auction.ID).
		Str("solution_id", best.ID).
		Str("strategy", best.Strategy).
		Str("score", best.Score.String()).
		Int("fills", len(best.Fills)).
		Int("interactions", len(best.Interactions)).
		Dur("elapsed", elapsed).
		Bool("timed_out", timedOut).
		Msg("solve finished")
	return Result{Solution: best, TimedOut: timedOut}
}

// collect folds one candidate outcome into the running best. Ties on
// score prefer fewer interactions, then the earlier strategy in the
// configured order, so the winner is deterministic over whichever
// candidates completed.
func (g *Governor) collect(r outcome, best **domain.Solution, bestIdx *int) {
	name := g.strategies[r.idx].Name
	switch {
	case errors.Is(r.err, context.Canceled) || errors.Is(r.err, context.DeadlineExceeded):
		observability.RecordCandidate(name, "cancelled")
		return
	case r.err != nil:
		observability.RecordCandidate(name, "failed")
		g.logger.Debug().Err(r.err).Str("strategy", name).Msg("candidate failed")
		return
	case r.sol == nil:
		observability.RecordCandidate(name, "empty")
		return
	}

	cur := *best
	switch c := r.sol.Score.Cmp(cur.Score); {
	case c > 0:
	case c == 0 && len(r.sol.Interactions) < len(cur.Interactions):
	case c == 0 && len(r.sol.Interactions) == len(cur.Interactions) && r.idx < *bestIdx:
	default:
		observability.RecordCandidate(name, "lost")
		return
	}
	observability.RecordCandidate(name, "won")
	*best = r.sol
	*bestIdx = r.idx
}
