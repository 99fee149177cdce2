package dynamo

// Option is a functional option for configuring a [Client].
type Option func(*Options)

// Options holds Client configuration.
type Options struct {
	api API
}

func newOptions() *Options {
	return &Options{}
}

// WithAPI sets a custom [API] implementation. This is useful when a custom
// DynamoDB configuration is required, or for injecting mocks in tests.
func WithAPI(api API) Option {
	return func(o *Options) {
		o.api = api
	}
}
