package logger

import (
	"io"
	"os"

	"bakery-system/internal/config"

	"github.com/sirupsen/logrus"
)

// Logger оборачивает logrus для единообразного структурированного логирования
type Logger struct {
	*logrus.Logger
}

// New создает логгер согласно конфигурации
func New(cfg *config.LoggerConfig) *Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	var output io.Writer = os.Stdout
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.WithError(err).Warn("Failed to open log file, falling back to stdout")
		} else {
			output = file
		}
	}
	log.SetOutput(output)

	return &Logger{Logger: log}
}

// WithField добавляет одно поле к записи
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithFields добавляет набор полей к записи
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields(fields))
}

// WithError добавляет ошибку к записи
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}
