package dedupe

// Option applies a configuration option to the ledger.
type Option func(*inMemoryLedger)

// WithMaxSize bounds the number of remembered pairs. Zero or negative disables the bound.
func WithMaxSize(size int) Option {
	return func(l *inMemoryLedger) {
		l.maxSize = size
	}
}
