package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger логгер сервиса поверх logrus с printf-интерфейсом
type Logger struct {
	entry *logrus.Entry
	out   io.Closer
}

// New создает логгер, пишущий в файл (или stdout, если путь пустой или "stdout")
func New(file, level string) (*Logger, error) {
	log := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)

	log.SetFormatter(jsonFormatter())

	var closer io.Closer
	if file == "" || file == "stdout" {
		log.SetOutput(os.Stdout)
	} else {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", file, err)
		}
		log.SetOutput(f)
		closer = f
	}

	return &Logger{entry: logrus.NewEntry(log), out: closer}, nil
}

// NewWriter создает логгер уровня info, пишущий JSON в w
func NewWriter(w io.Writer) *Logger {
	log := logrus.New()
	log.SetFormatter(jsonFormatter())
	log.SetOutput(w)
	return &Logger{entry: logrus.NewEntry(log)}
}

func jsonFormatter() *logrus.JSONFormatter {
	return &logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	}
}

// NewNop создает логгер, который ничего не пишет (для тестов)
func NewNop() *Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Logger{entry: logrus.NewEntry(log)}
}

// With возвращает логгер с дополнительным полем (например, component)
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithFields возвращает логгер с набором структурированных полей
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *Logger) Debug(format string, v ...interface{}) {
	l.entry.Debugf(format, v...)
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.entry.Infof(format, v...)
}

func (l *Logger) Warn(format string, v ...interface{}) {
	l.entry.Warnf(format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.entry.Errorf(format, v...)
}

// Fatal пишет сообщение и завершает процесс
func (l *Logger) Fatal(format string, v ...interface{}) {
	l.entry.Fatalf(format, v...)
}

// Close закрывает файл логов, если он был открыт
func (l *Logger) Close() error {
	if l.out == nil {
		return nil
	}
	return l.out.Close()
}
