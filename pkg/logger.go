package geometry

type Logger interface {
	Info(message string, module string)
	Error(string)
}

// Default logger discards everything; commands install a real one.
var logger Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Info(string, string) {}
func (nopLogger) Error(string)       {}

func SetLogger(l Logger) {
	logger = l
}
