package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

/*
Config 描述日志输出方式。

	FileLevel 写入文件的最低级别；
	ConsoleLevel 写入控制台的最低级别；
	FileDir 日志文件目录，为空时不写文件，文件按天切分；
	DisableConsole 关闭控制台输出。
*/
type Config struct {
	FileLevel      logrus.Level
	ConsoleLevel   logrus.Level
	FileDir        string
	DisableConsole bool
}

var (
	globalLock    sync.Mutex
	globalConfig  = Config{FileLevel: logrus.DebugLevel, ConsoleLevel: logrus.InfoLevel}
	globalFile    io.Writer
	defaultLogger *logrus.Logger
)

// SetDefaultConfig replaces the process-wide logging config. Loggers created earlier keep the old sinks.
func SetDefaultConfig(config *Config) {
	globalLock.Lock()
	defer globalLock.Unlock()

	globalConfig = *config
	globalFile = nil

	if len(config.FileDir) != 0 {
		file, err := openDailyFile(config.FileDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file in [%s] fail: %v\n", config.FileDir, err)
		} else {
			globalFile = file
		}
	}

	defaultLogger = newLogger(&globalConfig, globalFile)
}

func GenerateTestConfig(t testing.TB) *Config {
	t.Helper()
	return &Config{
		FileLevel:      logrus.DebugLevel,
		ConsoleLevel:   logrus.DebugLevel,
		FileDir:        "",
		DisableConsole: false,
	}
}

func NewLogger() *logrus.Logger {
	globalLock.Lock()
	defer globalLock.Unlock()

	return newLogger(&globalConfig, globalFile)
}

// Default returns the shared logger, creating it from the current config on first use.
func Default() *logrus.Logger {
	globalLock.Lock()
	defer globalLock.Unlock()

	if defaultLogger == nil {
		defaultLogger = newLogger(&globalConfig, globalFile)
	}
	return defaultLogger
}

func newLogger(config *Config, file io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	maxLevel := logrus.PanicLevel

	if !config.DisableConsole {
		logger.AddHook(&levelHook{
			writer:    os.Stderr,
			levels:    levelsUpTo(config.ConsoleLevel),
			formatter: &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339},
		})
		maxLevel = config.ConsoleLevel
	}

	if file != nil {
		logger.AddHook(&levelHook{
			writer:    file,
			levels:    levelsUpTo(config.FileLevel),
			formatter: &logrus.JSONFormatter{TimestampFormat: time.RFC3339},
		})
		if config.FileLevel > maxLevel {
			maxLevel = config.FileLevel
		}
	}

	logger.SetLevel(maxLevel)
	return logger
}

func openDailyFile(dir string) (io.Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	w := &dailyFile{dir: dir, now: time.Now}
	if err := w.rotate(w.now()); err != nil {
		return nil, err
	}
	return w, nil
}

// dailyFile writes to <dir>/<yyyy-mm-dd>.log and switches file when the date changes.
type dailyFile struct {
	mu   sync.Mutex
	dir  string
	now  func() time.Time
	day  string
	file *os.File
}

func (w *dailyFile) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if now := w.now(); now.Format("2006-01-02") != w.day {
		if err := w.rotate(now); err != nil {
			return 0, err
		}
	}
	return w.file.Write(p)
}

func (w *dailyFile) rotate(now time.Time) error {
	day := now.Format("2006-01-02")
	file, err := os.OpenFile(filepath.Join(w.dir, day+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if w.file != nil {
		_ = w.file.Close()
	}
	w.day = day
	w.file = file
	return nil
}

func levelsUpTo(max logrus.Level) []logrus.Level {
	ret := make([]logrus.Level, 0, len(logrus.AllLevels))
	for _, level := range logrus.AllLevels {
		if level <= max {
			ret = append(ret, level)
		}
	}
	return ret
}

type levelHook struct {
	mu        sync.Mutex
	writer    io.Writer
	levels    []logrus.Level
	formatter logrus.Formatter
}

func (h *levelHook) Levels() []logrus.Level {
	return h.levels
}

func (h *levelHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err = h.writer.Write(line)
	return err
}
