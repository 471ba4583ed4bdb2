package main

import (
	"github.com/vantagecomms/vantage/backend/internal/server"
	"github.com/vantagecomms/vantage/backend/internal/util"
	"github.com/vantagecomms/vantage/backend/pkg/logger"
	"github.com/vantagecomms/vantage/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
