package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/iulianpascalau/crosschain-analytics/commonGo"
	"github.com/iulianpascalau/crosschain-analytics/services/watcher/config"
	"github.com/iulianpascalau/crosschain-analytics/services/watcher/factory"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/urfave/cli"
)

const (
	defaultLogsPath = "logs"
	logFilePrefix   = "watcher"
	configFile      = "config.toml"
	envFile         = ".env"
	envRPCURL       = "DESTINATION_RPC_URL"
)

// appVersion should be populated at build time using ldflags
// Usage examples:
// Linux/macOS:
//
//	go build -v -ldflags="-X main.appVersion=$(git describe --all | cut -c7-32)
var appVersion = "undefined"
var fileLogging commonGo.FileLoggingHandler

var (
	helpTemplate = `NAME:
   {{.Name}} - {{.Usage}}
USAGE:
   {{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}
   {{if len .Authors}}
AUTHOR:
   {{range .Authors}}{{ . }}{{end}}
   {{end}}{{if .Commands}}
GLOBAL OPTIONS:
   {{range .VisibleFlags}}{{.}}
   {{end}}
VERSION:
   {{.Version}}
   {{end}}
`

	log = logger.GetOrCreate("main")

	// logLevel defines the logger level
	logLevel = cli.StringFlag{
		Name: "log-level",
		Usage: "This flag specifies the logger `level(s)`. It can contain multiple comma-separated value. For example" +
			", if set to *:INFO the logs for all packages will have the INFO level. However, if set to *:INFO,engine:DEBUG" +
			" the logs for all packages will have the INFO level, excepting the engine package which will receive a DEBUG" +
			" log level.",
		Value: "*:" + logger.LogInfo.String(),
	}
	// logFile is used when the log output needs to be logged in a file
	logSaveFile = cli.BoolFlag{
		Name:  "log-save",
		Usage: "Boolean option for enabling log saving. If set, it will automatically save all the logs into a file.",
	}
	// workingDirectory defines a flag for the path for the working directory.
	workingDirectory = cli.StringFlag{
		Name:  "working-directory",
		Usage: "This flag specifies the `directory` holding the config, the .env file and the logs.",
		Value: "",
	}

	envFileContents = map[string]string{
		envRPCURL: "",
	}
)

func main() {
	app := cli.NewApp()
	cli.AppHelpTemplate = helpTemplate
	app.Name = "Cross-chain counter event watcher"
	app.Version = fmt.Sprintf("%s/%s/%s-%s", appVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	app.Usage = "This is the entry point for starting the watcher that reports the counter contract events to the analytics service"
	app.Flags = []cli.Flag{
		logLevel,
		logSaveFile,
		workingDirectory,
	}
	app.Authors = []cli.Author{
		{
			Name:  "Iulian Pascalau",
			Email: "iulian.pascalau@gmail.com",
		},
	}

	app.Action = run

	defer func() {
		if !check.IfNil(fileLogging) {
			_ = fileLogging.Close()
		}
	}()

	err := app.Run(os.Args)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	saveLogFile := ctx.GlobalBool(logSaveFile.Name)
	workingDir := ctx.GlobalString(workingDirectory.Name)

	err := logger.SetLogLevel(ctx.GlobalString(logLevel.Name))
	if err != nil {
		return err
	}

	fileLogging, err = commonGo.AttachFileLogger(log, commonGo.ArgsFileLogger{
		DefaultLogsPath: defaultLogsPath,
		LogFilePrefix:   logFilePrefix,
		SaveLogFile:     saveLogFile,
		WorkingDir:      workingDir,
	})
	if err != nil {
		return err
	}

	log.Info("Starting watcher", "version", appVersion, "pid", os.Getpid())

	err = commonGo.ReadEnvFile(filepath.Join(workingDir, envFile), envFileContents)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(filepath.Join(workingDir, configFile))
	if err != nil {
		return err
	}

	components, err := factory.NewComponentsHandler(envFileContents[envRPCURL], *cfg)
	if err != nil {
		return err
	}

	components.Start()

	log.Info("Watcher started", "chain", cfg.ChainID, "contract", cfg.ContractAddress,
		"report endpoint", cfg.ReportEndpoint)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	<-sigs

	log.Info("Application closing, calling Close on all subcomponents...")

	components.Close()

	return nil
}
