package config

import (
	"os"
	"path"
)

const (
	DefaultConfigBase   = "parsec.conf"
	defaultWorkDir      = ".parsec"
	defaultSysLocalPath = "/var/lib/parsec"
)

func LocalUserPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return defaultSysLocalPath
	}
	return path.Join(homeDir, defaultWorkDir)
}
