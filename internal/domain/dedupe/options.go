package dedupe

// Option applies a configuration option to the place deduper.
type Option func(*placeDeduper)

// WithCapacity presizes the set; non-positive values keep the default.
func WithCapacity(capacity int) Option {
	return func(d *placeDeduper) {
		if capacity > 0 {
			d.capacity = capacity
		}
	}
}
