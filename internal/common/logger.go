package common

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	arborcommon "github.com/ternarybob/arbor/common"
	"github.com/ternarybob/arbor/models"
)

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.RWMutex
)

// GetLogger returns the global logger instance. If InitLogger hasn't run
// yet it falls back to a console-only logger so early startup code never
// sees a nil logger.
func GetLogger() arbor.ILogger {
	loggerMutex.RLock()
	if globalLogger != nil {
		loggerMutex.RUnlock()
		return globalLogger
	}
	loggerMutex.RUnlock()

	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(createWriterConfig(nil, models.LogWriterTypeConsole, ""))
		globalLogger.Warn().Msg("using fallback logger - InitLogger should be called during startup")
	}
	return globalLogger
}

// InitLogger stores the provided logger as the global singleton.
func InitLogger(logger arbor.ILogger) {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	globalLogger = logger
}

// SetupLogger configures and initializes the global logger from config,
// wiring console/file/memory writers the way cmd/indexsvc needs them.
func SetupLogger(config *Config) arbor.ILogger {
	logger := arbor.NewLogger()

	execPath, err := os.Executable()
	if err != nil {
		logger = logger.WithConsoleWriter(createWriterConfig(config, models.LogWriterTypeConsole, ""))
		logger.Warn().Err(err).Msg("failed to resolve executable path - using console logging only")
	} else {
		execDir := filepath.Dir(execPath)
		logsDir := filepath.Join(execDir, "logs")

		hasFileOutput, hasStdoutOutput := false, false
		for _, output := range config.Logging.Output {
			switch output {
			case "file":
				hasFileOutput = true
			case "stdout", "console":
				hasStdoutOutput = true
			}
		}

		if hasFileOutput {
			if err := os.MkdirAll(logsDir, 0755); err != nil {
				tmp := logger.WithConsoleWriter(createWriterConfig(config, models.LogWriterTypeConsole, ""))
				tmp.Warn().Err(err).Str("logs_dir", logsDir).Msg("failed to create logs directory")
			} else {
				logFile := filepath.Join(logsDir, "biostudies-index.log")
				logger = logger.WithFileWriter(createWriterConfig(config, models.LogWriterTypeFile, logFile))
			}
		}

		if hasStdoutOutput {
			logger = logger.WithConsoleWriter(createWriterConfig(config, models.LogWriterTypeConsole, ""))
		}

		if !hasFileOutput && !hasStdoutOutput {
			logger = logger.WithConsoleWriter(createWriterConfig(config, models.LogWriterTypeConsole, ""))
			logger.Warn().Strs("configured_outputs", config.Logging.Output).Msg("no visible log outputs configured - falling back to console")
		}
	}

	logger = logger.WithMemoryWriter(createWriterConfig(config, models.LogWriterTypeMemory, ""))
	logger = logger.WithLevelFromString(config.Logging.Level)

	InitLogger(logger)
	return logger
}

func createWriterConfig(config *Config, writerType models.LogWriterType, filename string) models.WriterConfiguration {
	timeFormat := "15:04:05.000"
	if config != nil && config.Logging.TimeFormat != "" {
		timeFormat = config.Logging.TimeFormat
	}
	return models.WriterConfiguration{
		Type:             writerType,
		FileName:         filename,
		TimeFormat:       timeFormat,
		DisableTimestamp: false,
		MaxSize:          100 * 1024 * 1024,
		MaxBackups:       3,
	}
}

// Stop flushes any remaining context logs before application shutdown.
func Stop() {
	arborcommon.Stop()
}
