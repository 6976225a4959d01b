// goibniu/cmd/goibniu/main.go

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/dahlem/goibniu/pkg/apicompliance"
	"github.com/dahlem/goibniu/pkg/compliance"
	"github.com/dahlem/goibniu/pkg/logging"
	"github.com/dahlem/goibniu/pkg/report"
)

// Config represents the application configuration
type Config struct {
	Root        string
	ADRDir      string
	ContractDir string
	LogLevel    string
	LogOutput   string
	Format      string
}

func main() {
	code, err := run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Msg("goibniu failed")
	}
	os.Exit(code)
}

// run executes one subcommand and returns the process exit code: 0 when all
// reports pass, 1 when any report fails, 2 on usage errors.
func run(args []string) (int, error) {
	if len(args) < 2 {
		printUsage()
		return 2, nil
	}
	command := args[1]

	config, err := parseConfig(args[2:])
	if err != nil {
		return 2, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := logging.ConfigureLogger(config.LogLevel, config.LogOutput); err != nil {
		return 2, fmt.Errorf("failed to configure logger: %w", err)
	}

	var rep *report.Report
	switch command {
	case "check":
		rep, err = compliance.CheckRepo(config.Root, config.ADRDir)
	case "check-api":
		rep, err = apicompliance.CheckRepo(config.Root, config.ContractDir)
	case "check-all":
		var ruleRep, apiRep *report.Report
		ruleRep, err = compliance.CheckRepo(config.Root, config.ADRDir)
		if err == nil {
			apiRep, err = apicompliance.CheckRepo(config.Root, config.ContractDir)
		}
		if err == nil {
			rep = report.Merge(ruleRep, apiRep)
		}
	default:
		printUsage()
		return 2, nil
	}
	if err != nil {
		return 2, err
	}

	if err := emit(rep, config.Format); err != nil {
		return 2, err
	}
	if rep.Fail {
		return 1, nil
	}
	return 0, nil
}

func parseConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("goibniu", flag.ContinueOnError)
	configFile := fs.String("config", "", "Path to configuration file")
	root := fs.String("root", "", "Repository root to scan")
	adrDir := fs.String("adr", "", "Directory containing decision documents")
	contractDir := fs.String("contracts", "", "Directory containing contract documents")
	format := fs.String("format", "", "Report format (text or json)")
	logLevel := fs.String("log-level", "", "Log level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	viper.SetConfigType("yaml")
	viper.SetDefault("paths.root", ".")
	viper.SetDefault("paths.adr_dir", "docs/adr")
	viper.SetDefault("paths.contract_dir", ".ai-context/contracts")
	viper.SetDefault("logging.level", "warn")
	viper.SetDefault("logging.output", "console")
	viper.SetDefault("report.format", "text")

	if *configFile == "" {
		viper.SetConfigName("goibniu_config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.goibniu")
		viper.AddConfigPath("/etc/goibniu")
	} else {
		viper.SetConfigFile(*configFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || *configFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("No configuration file found, using defaults")
	}

	config := &Config{
		Root:        viper.GetString("paths.root"),
		ADRDir:      viper.GetString("paths.adr_dir"),
		ContractDir: viper.GetString("paths.contract_dir"),
		LogLevel:    viper.GetString("logging.level"),
		LogOutput:   viper.GetString("logging.output"),
		Format:      viper.GetString("report.format"),
	}

	// Flags override file and default configuration.
	if *root != "" {
		config.Root = *root
	}
	if *adrDir != "" {
		config.ADRDir = *adrDir
	}
	if *contractDir != "" {
		config.ContractDir = *contractDir
	}
	if *format != "" {
		config.Format = *format
	}
	if *logLevel != "" {
		config.LogLevel = *logLevel
	}
	return config, nil
}

func emit(rep *report.Report, format string) error {
	switch format {
	case "json":
		out, err := rep.JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	case "", "text":
		return rep.WriteText(os.Stdout)
	default:
		return fmt.Errorf("unknown report format '%s'", format)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: goibniu <command> [flags]

Commands:
  check       Check the source tree against decision-document rules
  check-api   Check outbound HTTP calls against contract documents
  check-all   Run both checks and merge the reports

Flags:
  -config     Path to configuration file
  -root       Repository root to scan (default ".")
  -adr        Decision document directory (default "docs/adr")
  -contracts  Contract document directory (default ".ai-context/contracts")
  -format     Report format: text or json (default "text")
  -log-level  Log level (default "warn")`)
}
