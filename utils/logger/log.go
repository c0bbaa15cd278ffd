package logger

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	root   *zap.SugaredLogger
	atom   zap.AtomicLevel
)

func InitLogger() {
	atom = zap.NewAtomicLevel()
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.RFC3339TimeEncoder

	logger = zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		atom,
	))
	root = logger.Sugar()
}

func Sync() {
	if logger == nil {
		return
	}
	_ = logger.Sync()
}

func NewLogger(name string) *zap.SugaredLogger {
	if root == nil {
		return zap.NewNop().Sugar().Named(name)
	}
	return root.Named(name)
}

func SetDebug(enable bool) {
	if enable {
		atom.SetLevel(zap.DebugLevel)
		return
	}
	atom.SetLevel(zap.InfoLevel)
}

func CostLog(log *zap.SugaredLogger, msg string) func() {
	start := time.Now()
	return func() {
		log.Debugw(msg, "cost", time.Since(start).String())
	}
}
