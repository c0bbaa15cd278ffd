package config

import (
	"path"

	"github.com/chinmaym07/parsec-cloud/config"
)

const (
	defaultLocalDataDir = "data"
)

func localConfigFilePath(local string) string {
	return path.Join(local, config.DefaultConfigBase)
}

func localDataDirPath(local string) string {
	return path.Join(local, defaultLocalDataDir)
}
