package metrics

// The no-op implementations below are what every option struct defaults to
// when no backend is supplied, so core code never checks for nil sinks.

type (
	nopCounter   struct{}
	nopGauge     struct{}
	nopHistogram struct{}
	nopTimer     struct{}
)

func (nopCounter) Inc()        {}
func (nopCounter) Add(float64) {}

func (nopGauge) Set(float64) {}
func (nopGauge) Inc()        {}
func (nopGauge) Dec()        {}
func (nopGauge) Add(float64) {}

func (nopHistogram) Observe(float64) {}

func (nopTimer) ObserveDuration() {}

// NopCounter returns a Counter that discards all increments.
func NopCounter() Counter { return nopCounter{} }

// NopGauge returns a Gauge that discards all updates.
func NopGauge() Gauge { return nopGauge{} }

// NopHistogram returns a Histogram that discards all observations.
func NopHistogram() Histogram { return nopHistogram{} }

// NopTimer returns a Timer that records nothing.
func NopTimer() Timer { return nopTimer{} }
