package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chinmaym07/parsec-cloud/config"
)

var WorkSpace string

func init() {
	RunCmd.AddCommand(initCmd)
	RunCmd.PersistentFlags().StringVar(&WorkSpace, "workspace", config.LocalUserPath(), "parsec workspace")
}

var RunCmd = &cobra.Command{
	Use:   "config",
	Short: "parsec config management",
	Run: func(cmd *cobra.Command, args []string) {
		configPath := localConfigFilePath(WorkSpace)
		fmt.Printf("Workspace Config: %s\n\n", configPath)

		raw, err := os.ReadFile(configPath)
		if err != nil {
			fmt.Printf("read config failed: %s\n", err.Error())
			fmt.Println("Generate local configuration with 'parsec config init'")
			return
		}

		cfg := config.Config{}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			fmt.Printf("load config failed: %s\n", err.Error())
			return
		}
		if err := config.Verify(&cfg); err != nil {
			fmt.Printf("invalid config: %s\n", err.Error())
			return
		}

		// the realm key stays on disk
		cfg.Remote.SecretKey = "******"
		raw, err = json.MarshalIndent(cfg, "", "    ")
		if err != nil {
			fmt.Printf("marshal config failed: %s\n", err.Error())
			return
		}
		fmt.Println(string(raw))
	},
}
