package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/awalters-dev/courier/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a courier project",
	Long: `Initialize a courier project in the current directory.

This creates:
  - request.yaml           - Example request definition
  - .courier.config.json   - Configuration file

Examples:
  courier init
  courier init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, ".courier.config.json")
	requestFile := filepath.Join(cwd, "request.yaml")

	if !forceInit {
		for _, f := range []string{configFile, requestFile} {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("file already exists: %s (use --force to overwrite)", f)
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.Headers = map[string]string{
		"Accept": "application/json",
	}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	requestContent := `# Values like ${API_TOKEN} expand from --var overrides, then the environment.
method: GET
url: https://httpbin.org/get
headers:
  - name: Accept
    value: application/json
  - name: Authorization
    value: Bearer ${API_TOKEN}
`

	if err := os.WriteFile(requestFile, []byte(requestContent), 0644); err != nil {
		return fmt.Errorf("failed to create request file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", requestFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\ncourier project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'courier send -f request.yaml' to send the example request.\n")

	return nil
}
