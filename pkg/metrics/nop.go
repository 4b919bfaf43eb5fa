package metrics

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordUpstream(string, string, float64, error) {}
func (Nop) RecordSourceStatus(string, string)             {}
func (Nop) RecordQuoteDecision(string, int)               {}
func (Nop) RecordEvent(string, string)                    {}
func (Nop) RecordError(string)                            {}
func (Nop) RecordLastSpot(string, float64)                {}
func (Nop) RecordLatency(string, float64)                 {}
