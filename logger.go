package webserv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"text/template"
	"time"
)

// loggerLevel is the severity of a Logger entry.
type loggerLevel uint8

// logger levels.
const (
	lvlDebug loggerLevel = iota
	lvlInfo
	lvlWarn
	lvlError
	lvlFatal
)

var loggerLevelNames = []string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

// defaultLoggerFormat produces one JSON object per line; it mirrors the
// teacher's template-driven JSON header shape.
const defaultLoggerFormat = `{"time":"{{.time_rfc3339}}","level":"{{.level}}"}`

// Logger is the structured JSON logging sink. Every request completion and
// every configuration or socket error is reported through it (spec.md §7).
type Logger struct {
	Enabled bool
	Format  string
	Output  io.Writer

	template   *template.Template
	bufferPool *sync.Pool
	mutex      sync.Mutex
}

// NewLogger returns a pointer of a new instance of the `Logger`, writing
// JSON lines to stdout by default.
func NewLogger() *Logger {
	return newLogger()
}

// newLogger returns a pointer of a new instance of the `Logger`, writing
// JSON lines to stdout by default.
func newLogger() *Logger {
	return &Logger{
		Enabled: true,
		Format:  defaultLoggerFormat,
		Output:  os.Stdout,
		bufferPool: &sync.Pool{
			New: func() interface{} { return bytes.NewBuffer(make([]byte, 0, 256)) },
		},
	}
}

// Debugf logs a DEBUG-level entry.
func (l *Logger) Debugf(format string, args ...interface{}) { l.log(lvlDebug, format, args...) }

// Infof logs an INFO-level entry.
func (l *Logger) Infof(format string, args ...interface{}) { l.log(lvlInfo, format, args...) }

// Warnf logs a WARN-level entry.
func (l *Logger) Warnf(format string, args ...interface{}) { l.log(lvlWarn, format, args...) }

// Errorf logs an ERROR-level entry.
func (l *Logger) Errorf(format string, args ...interface{}) { l.log(lvlError, format, args...) }

// Fatalf logs a FATAL-level entry and exits the process.
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.log(lvlFatal, format, args...)
	os.Exit(1)
}

// Errorj logs an ERROR-level entry whose fields come from m, merged into the
// formatted JSON header rather than appended as a "message" string.
func (l *Logger) Errorj(m map[string]interface{}) { l.logj(lvlError, m) }

// Infoj logs an INFO-level entry whose fields come from m.
func (l *Logger) Infoj(m map[string]interface{}) { l.logj(lvlInfo, m) }

// LogRequest records one access-log entry: the standard per-request fields
// spec.md §7 requires a sink to receive for every completed request.
func (l *Logger) LogRequest(req *Request, status int, remoteAddr string, duration time.Duration) {
	l.Infoj(map[string]interface{}{
		"remote_addr": remoteAddr,
		"method":      methodOrDash(req),
		"path":        pathOrDash(req),
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	})
}

func methodOrDash(req *Request) string {
	if req == nil {
		return "-"
	}
	return req.Method
}

func pathOrDash(req *Request) string {
	if req == nil {
		return "-"
	}
	return req.URIPath
}

func (l *Logger) log(lvl loggerLevel, format string, args ...interface{}) {
	l.logj(lvl, map[string]interface{}{"message": fmt.Sprintf(format, args...)})
}

func (l *Logger) logj(lvl loggerLevel, fields map[string]interface{}) {
	if !l.Enabled {
		return
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.template == nil {
		l.template = template.Must(template.New("logger").Parse(l.Format))
	}

	buf := l.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		l.bufferPool.Put(buf)
	}()

	data := map[string]interface{}{
		"time_rfc3339": time.Now().Format(time.RFC3339),
		"level":        loggerLevelNames[lvl],
	}

	if err := l.template.Execute(buf, data); err != nil {
		return
	}

	header := map[string]interface{}{}
	if err := json.Unmarshal(buf.Bytes(), &header); err != nil {
		return
	}
	for k, v := range fields {
		header[k] = v
	}

	line, err := json.Marshal(header)
	if err != nil {
		return
	}

	buf.Reset()
	buf.Write(line)
	buf.WriteByte('\n')
	l.Output.Write(buf.Bytes())
}
