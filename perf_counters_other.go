//go:build !linux

package stencil

// CounterSession is not supported off Linux
type CounterSession struct{}

// StartCounters always fails off Linux
func StartCounters() (*CounterSession, error) {
	return nil, ErrCountersUnavailable
}

// Stop returns zero counters
func (s *CounterSession) Stop() HWCounters { return HWCounters{} }
