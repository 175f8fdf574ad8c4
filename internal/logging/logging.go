package logging

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gelfVersion = "1.1"
	dialTimeout = 5 * time.Second
)

type Config struct {
	Level string
	// Addr and Port locate a GELF TCP collector. When either is empty the
	// logger writes to Output instead.
	Addr string
	Port string
	// Output receives console logs, defaults to os.Stdout.
	Output io.Writer
}

type Logger struct {
	*zap.Logger

	conn net.Conn
}

// Remote reports whether records are shipped to a GELF collector.
func (l *Logger) Remote() bool {
	return l.conn != nil
}

func (l *Logger) Close() error {
	_ = l.Logger.Sync()
	if l.conn != nil {
		return l.conn.Close()
	}
	return nil
}

// New builds a logger from cfg. An unreachable collector is not an error:
// the logger falls back to console output and records a warning.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	if cfg.Addr == "" || cfg.Port == "" {
		return &Logger{Logger: console(cfg.Output, level)}, nil
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		l := console(cfg.Output, level)
		l.Warn("invalid GELF port, logging to console", zap.String("port", cfg.Port))
		return &Logger{Logger: l}, nil
	}

	addr := net.JoinHostPort(cfg.Addr, cfg.Port)
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		l := console(cfg.Output, level)
		l.Warn("GELF collector unreachable, logging to console",
			zap.String("addr", addr),
			zap.Error(err),
		)
		return &Logger{Logger: l}, nil
	}

	host, _ := os.Hostname()
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(gelfEncoderConfig()),
		zapcore.Lock(zapcore.AddSync(conn)),
		level,
	).With([]zapcore.Field{
		zap.String("version", gelfVersion),
		zap.String("host", host),
	})

	l := zap.New(
		gelfCore{Core: core},
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	return &Logger{Logger: l, conn: conn}, nil
}

func console(w io.Writer, level zapcore.Level) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(zapcore.AddSync(w)),
		level,
	)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

func gelfEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:     "short_message",
		LevelKey:       "level",
		TimeKey:        "timestamp",
		NameKey:        "_logger",
		CallerKey:      "_caller",
		StacktraceKey:  "full_message",
		LineEnding:     "\x00",
		EncodeLevel:    syslogLevelEncoder,
		EncodeTime:     zapcore.EpochTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func syslogLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendInt(syslogLevel(l))
}

func syslogLevel(l zapcore.Level) int {
	switch l {
	case zapcore.DebugLevel:
		return 7
	case zapcore.InfoLevel:
		return 6
	case zapcore.WarnLevel:
		return 4
	case zapcore.ErrorLevel:
		return 3
	default:
		return 2
	}
}

// gelfCore prefixes additional fields with an underscore as GELF requires.
type gelfCore struct {
	zapcore.Core
}

func (c gelfCore) With(fields []zapcore.Field) zapcore.Core {
	return gelfCore{Core: c.Core.With(additional(fields))}
}

func (c gelfCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c gelfCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(ent, additional(fields))
}

func additional(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		out[i] = f
		out[i].Key = fieldName(f.Key)
	}
	return out
}

func fieldName(key string) string {
	// _id is reserved by GELF
	if key == "id" {
		return "_id_"
	}
	if strings.HasPrefix(key, "_") {
		return key
	}
	return fmt.Sprintf("_%s", key)
}
