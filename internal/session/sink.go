package session

// Sink receives session telemetry. The InfluxDB client satisfies this;
// a nil sink passed to NewManager is replaced with a no-op.
type Sink interface {
	WriteSessionEvent(event string, userID int64)
	WriteValidationFailure(status int, transient bool)
	WriteSyncStep(step string, ok bool)
}

type nopSink struct{}

func (nopSink) WriteSessionEvent(string, int64)  {}
func (nopSink) WriteValidationFailure(int, bool) {}
func (nopSink) WriteSyncStep(string, bool)       {}
