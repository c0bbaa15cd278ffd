package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chinmaym07/parsec-cloud/config"
	"github.com/chinmaym07/parsec-cloud/utils"
)

var (
	realmID  string
	deviceID string
	endpoint string
)

func init() {
	initCmd.Flags().StringVar(&realmID, "realm", "", "workspace realm id, a new one is generated if empty")
	initCmd.Flags().StringVar(&deviceID, "device", "", "local device id")
	initCmd.Flags().StringVar(&endpoint, "endpoint", "", "server endpoint")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "generate local configuration",
	Run: func(cmd *cobra.Command, args []string) {
		initDefaultConfig()
	},
}

func initDefaultConfig() {
	fmt.Printf("Workspace: %s\n", WorkSpace)
	if err := utils.Mkdir(WorkSpace); err != nil {
		fmt.Printf("init workspace failed: %s\n", err.Error())
		return
	}

	conf, err := config.DefaultConfig(localDataDirPath(WorkSpace))
	if err != nil {
		fmt.Printf("init workspace data dir failed: %s\n", err.Error())
		return
	}
	if realmID != "" {
		conf.Workspace.RealmID = realmID
	}
	if deviceID != "" {
		conf.Workspace.DeviceID = deviceID
	}
	if endpoint != "" {
		conf.Remote.Endpoint = endpoint
	}
	if err = config.Verify(&conf); err != nil {
		fmt.Printf("invalid config: %s\n", err.Error())
		return
	}
	fmt.Printf("Workspace Database File: %s\n", conf.Meta.Path)

	configPath := localConfigFilePath(WorkSpace)
	fmt.Printf("Workspace Config: %s\n", configPath)
	raw, _ := json.MarshalIndent(conf, "", "    ")
	if err := os.WriteFile(configPath, raw, 0600); err != nil {
		fmt.Printf("wirteback config file failed: %s\n", err.Error())
		return
	}
	fmt.Println("Generate local configuration succeed")
}
