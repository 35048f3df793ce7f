package domain

// SolveReport is one row of per-solve analytics, written by the
// boundary after a solve completes. Corresponds to the solve_reports
// ClickHouse table.
type SolveReport struct {
	ReportID     string // deterministic hash
	AuctionID    int64
	SolutionID   string
	Strategy     string // winning candidate, empty for baseline
	Score        string // decimal string
	Orders       int    // orders in the auction
	Fills        int    // orders with a positive fill
	Interactions int
	DurationMs   int64
	TimedOut     bool
	CreatedAt    int64 // unix milliseconds
}
