package core

// Logger is implemented by services that can log and report app events.
// Extra args may carry an error, a map of extra data or a user.User; see
// services/logger for how they are dispatched.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
