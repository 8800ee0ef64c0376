// Package logs holds the per-action log file and the public location where
// users can read it.
package logs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// ActionsLogsDir is the directory under the log root holding one file per action
const ActionsLogsDir = "ActionsLogs"

// File is the log of one action
type File struct {
	Path   string
	Logger *zap.Logger
	f      *os.File
}

// Path returns <root>/ActionsLogs/<id>.log
func Path(root, id string) string {
	return filepath.Join(root, ActionsLogsDir, id+".log")
}

// NewFile creates the log file of action id and a debug level logger writing
// `<ISO-8601 timestamp> Action_<id> - <message>` lines into it
func NewFile(root, id string) (*File, error) {
	path := Path(root, id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	enc := singleLine{zapcore.NewConsoleEncoder(EncoderConfig())}
	core := zapcore.NewCore(enc, zapcore.AddSync(f), zapcore.DebugLevel)
	return &File{
		Path:   path,
		Logger: zap.New(core).Named("Action_" + id),
		f:      f,
	}, nil
}

// EncoderConfig is the layout of action logs. Levels are not printed.
func EncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		NameKey:          "logger",
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeName:       func(name string, enc zapcore.PrimitiveArrayEncoder) { enc.AppendString(name + " -") },
		ConsoleSeparator: " ",
	}
}

var lineBreaks = strings.NewReplacer("\r\n", `\r\n`, "\r", `\r`, "\n", `\n`)

// singleLine escapes line breaks in messages so each record stays on one line.
// Fields are already escaped by the console encoder.
type singleLine struct {
	zapcore.Encoder
}

func (e singleLine) Clone() zapcore.Encoder {
	return singleLine{e.Encoder.Clone()}
}

func (e singleLine) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	ent.Message = lineBreaks.Replace(ent.Message)
	return e.Encoder.EncodeEntry(ent, fields)
}

// Content reads everything written so far
func (l *File) Content() ([]byte, error) {
	_ = l.Logger.Sync()
	return os.ReadFile(l.Path)
}

// Close flushes the logger and closes the file
func (l *File) Close() error {
	_ = l.Logger.Sync()
	return l.f.Close()
}
