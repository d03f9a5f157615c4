package logger

import (
	"io"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

type envConfig struct {
	LogLevel uint32 `default:"4" split_words:"true"`
	NoColor  bool   `split_words:"true"`
}

// New builds the process logger. ZIGBOT_LOG_LEVEL (logrus level, 4 = info)
// and ZIGBOT_NO_COLOR tune it.
func New() (*logrus.Logger, error) {
	var cfg envConfig
	if err := envconfig.Process("ZIGBOT", &cfg); err != nil {
		return nil, err
	}
	return NewWithOutput(os.Stdout, logrus.Level(cfg.LogLevel), !cfg.NoColor), nil
}

func NewWithOutput(out io.Writer, level logrus.Level, colors bool) *logrus.Logger {
	return &logrus.Logger{
		Out: out,
		Formatter: &prefixed.TextFormatter{
			FullTimestamp:   true,
			ForceFormatting: true,
			ForceColors:     colors,
			DisableColors:   !colors,
		},
		Hooks: make(logrus.LevelHooks),
		Level: level,
	}
}

// Discard is a logger for tests.
func Discard() *logrus.Logger {
	return NewWithOutput(io.Discard, logrus.PanicLevel, false)
}
