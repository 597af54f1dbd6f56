package exchange

import "time"

type Option func(*Options)

type Options struct {
	Limit     int
	StartTime time.Time
	EndTime   time.Time
}

func WithLimit(limit int) Option {
	return func(o *Options) {
		o.Limit = limit
	}
}

func WithTimeRange(start, end time.Time) Option {
	return func(o *Options) {
		o.StartTime = start
		o.EndTime = end
	}
}

func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
