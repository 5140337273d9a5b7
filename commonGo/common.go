package commonGo

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/multiversx/mx-chain-logger-go/file"
)

const (
	logFileLifeSpanInSec = 86400 // 24h
	logFileLifeSpanInMB  = 1024  // 1GB
)

// FileLoggingHandler will handle log file rotation and closing
type FileLoggingHandler interface {
	ChangeFileLifeSpan(newDuration time.Duration, newSizeInMB uint64) error
	Close() error
	IsInterfaceNil() bool
}

// ArgsFileLogger holds the arguments needed to attach a file logger
type ArgsFileLogger struct {
	DefaultLogsPath string
	LogFilePrefix   string
	SaveLogFile     bool
	WorkingDir      string
}

// AttachFileLogger attaches, if required, a rotating log file. Returns a nil handler when no log file is saved
func AttachFileLogger(log logger.Logger, args ArgsFileLogger) (FileLoggingHandler, error) {
	err := logger.SetDisplayByteSlice(logger.ToHex)
	log.LogIfError(err)

	if !args.SaveLogFile {
		return nil, nil
	}

	argsFileLogging := file.ArgsFileLogging{
		WorkingDir:      args.WorkingDir,
		DefaultLogsPath: args.DefaultLogsPath,
		LogFilePrefix:   args.LogFilePrefix,
	}
	logFile, err := file.NewFileLogging(argsFileLogging)
	if err != nil {
		return nil, fmt.Errorf("%w creating a log file", err)
	}

	err = logFile.ChangeFileLifeSpan(time.Second*logFileLifeSpanInSec, logFileLifeSpanInMB)
	if err != nil {
		_ = logFile.Close()
		return nil, err
	}

	return logFile, nil
}

// ReadEnvFile loads the .env file and fills the values of the provided map. Keys listed in optional may stay empty
func ReadEnvFile(envFile string, m map[string]string, optional ...string) error {
	err := godotenv.Load(envFile)
	if err != nil {
		return err
	}

	optionalKeys := make(map[string]struct{}, len(optional))
	for _, key := range optional {
		optionalKeys[key] = struct{}{}
	}

	for k := range m {
		val := os.Getenv(k)
		_, isOptional := optionalKeys[k]
		if len(val) == 0 && !isOptional {
			return fmt.Errorf("%s is not set in the .env file", k)
		}

		m[k] = val
	}

	return nil
}

// CronJobStarter is able to start a go routine that periodically calls the provided handler. The handler is called
// once right away, then after every timeToCall. The go routine ends when the context is done
func CronJobStarter(ctx context.Context, handler func(ctx context.Context), timeToCall time.Duration) {
	go func() {
		timer := time.NewTimer(timeToCall)
		defer timer.Stop()

		handler(ctx)

		for {
			select {
			case <-timer.C:
				handler(ctx)
				timer.Reset(timeToCall)
			case <-ctx.Done():
				return
			}
		}
	}()
}
