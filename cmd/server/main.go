package main

import (
	"kgqa/internal/server"
	"kgqa/internal/util"
	"kgqa/pkg/logger"
	"kgqa/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	logger.Init(console.New(console.Params{
		Debug: debug,
	}))

	server.Init()
}
