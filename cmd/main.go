package main

import (
	"os"

	"github.com/chinmaym07/parsec-cloud/cmd/apps"
	"github.com/chinmaym07/parsec-cloud/utils/logger"
)

func main() {
	logger.InitLogger()
	defer logger.Sync()

	if err := apps.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
