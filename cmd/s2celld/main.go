// Command s2celld serves cell ids, coverings and union lookups over HTTP.
package main

import (
	"context"
	goflag "flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "S2CELLD"

var conf = viper.New()

var rootCmd = &cobra.Command{
	Use:   "s2celld",
	Short: "HTTP service for spherical cell ids and region coverings",
	Long: `
s2celld converts coordinates to cell ids, covers caps with bounded sets of
cells and answers membership queries against an encoded cell union loaded
from a file or an s3 bucket.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(conf)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, cfg)
	},
}

func init() {
	f := rootCmd.Flags()
	f.String("addr", ":8080", "Address to listen on.")
	f.String("union_uri", "",
		"Encoded cell union served by /v1/union. A path, file:// or s3:// URI. Empty disables it.")
	f.Bool("union_normalize", false, "Normalize the union after loading it.")
	f.Int64("cache_max_cells", 1<<20, "Total number of cells kept in the covering cache.")
	f.Int("max_cells_limit", 1000, "Largest max_cells a client may request.")
	f.String("config", "",
		"Configuration file. Takes precedence over default values, but is "+
			"overridden by environment variables and flags.")
	if err := conf.BindPFlags(f); err != nil {
		glog.Fatalf("binding flags: %v", err)
	}
	conf.SetEnvPrefix(envPrefix)
	conf.AutomaticEnv()

	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)

	cobra.OnInitialize(func() {
		cfg := conf.GetString("config")
		if cfg == "" {
			return
		}
		conf.SetConfigFile(cfg)
		if err := conf.ReadInConfig(); err != nil {
			glog.Fatalf("reading config %s: %v", cfg, err)
		}
	})
}

func main() {
	// glog flags are parsed by cobra through the pflag set; mark the go
	// flag set as parsed so glog does not complain.
	_ = goflag.CommandLine.Parse(nil)
	defer glog.Flush()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
