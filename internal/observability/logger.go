package observability

import (
	"github.com/sirupsen/logrus"
)

// logrusLogger adapts a logrus entry to the Logger interface.
type logrusLogger struct {
	entry *logrus.Entry
}

func newLogrusLogger(config *Config, component string) Logger {
	base := logrus.New()
	base.SetOutput(config.LogOutput)

	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	if config.Environment == "development" {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{})
	}

	return &logrusLogger{
		entry: base.WithFields(logrus.Fields{
			"service":   config.ServiceName,
			"component": component,
		}),
	}
}

func (l *logrusLogger) Debug(msg string, fields ...interface{}) {
	l.withKV(fields).Debug(msg)
}

func (l *logrusLogger) Info(msg string, fields ...interface{}) {
	l.withKV(fields).Info(msg)
}

func (l *logrusLogger) Warn(msg string, fields ...interface{}) {
	l.withKV(fields).Warn(msg)
}

func (l *logrusLogger) Error(msg string, fields ...interface{}) {
	l.withKV(fields).Error(msg)
}

func (l *logrusLogger) WithFields(fields Fields) Logger {
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// withKV converts alternating key/value pairs into logrus fields. A trailing
// key without a value is logged under "field".
func (l *logrusLogger) withKV(kv []interface{}) *logrus.Entry {
	if len(kv) == 0 {
		return l.entry
	}
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	if len(kv)%2 != 0 {
		fields["field"] = kv[len(kv)-1]
	}
	return l.entry.WithFields(fields)
}
