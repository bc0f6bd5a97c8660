package sf

import "github.com/zeromicro/go-zero/core/syncx"

// SingleFlight collapses concurrent calls sharing a key into one execution.
type SingleFlight struct {
	sf syncx.SingleFlight
}

func NewSingleFlight() *SingleFlight {
	return &SingleFlight{sf: syncx.NewSingleFlight()}
}

func (s *SingleFlight) Do(key string, fn func() (any, error)) (any, error) {
	return s.sf.Do(key, fn)
}

// DoEx also reports whether this caller ran fn itself.
func (s *SingleFlight) DoEx(key string, fn func() (any, error)) (any, bool, error) {
	return s.sf.DoEx(key, fn)
}
