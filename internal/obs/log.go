package obs

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level orders log entries by severity.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int32(l))
}

// ParseLevel maps a configured level name to a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("obs: unknown log level %q", name)
}

var (
	loggerOnce sync.Once
	logger     *log.Logger
	minLevel   atomic.Int32
)

func init() {
	minLevel.Store(int32(LevelInfo))
}

// Logger returns the shared structured logger. It writes to stderr so that
// command output on stdout stays machine readable.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stderr, "", 0)
	})
	return logger
}

// SetLevel drops entries below the named level from then on.
func SetLevel(name string) error {
	l, err := ParseLevel(name)
	if err != nil {
		return err
	}
	minLevel.Store(int32(l))
	return nil
}

// Enabled reports whether entries at l are written.
func Enabled(l Level) bool {
	return int32(l) >= minLevel.Load()
}

// Log emits one JSON line with ts, level, msg and the given fields.
func Log(l Level, msg string, fields map[string]any) {
	if !Enabled(l) {
		return
	}
	entry := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		entry[k] = v
	}
	entry["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["level"] = l.String()
	entry["msg"] = msg
	WriteEntry(entry)
}

// WriteEntry marshals a prepared entry as a single log line.
func WriteEntry(entry map[string]any) {
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"level":"error","msg":"log marshal failed"}`)
		return
	}
	Logger().Println(string(data))
}
