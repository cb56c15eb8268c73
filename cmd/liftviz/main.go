// liftviz serves and inspects animated powerlifting stick figures: forward
// kinematics, joint torque estimates and keyframed lift cycles.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teslashibe/liftviz/internal/config"
	"github.com/teslashibe/liftviz/internal/log"
	"github.com/teslashibe/liftviz/pkg/animation"
	"github.com/teslashibe/liftviz/pkg/skeleton"
)

var version = "dev"

// app carries state shared by subcommands.
type app struct {
	v          *viper.Viper
	configPath string
	cfg        *config.Config
}

func main() {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "liftviz",
		Short:         "Powerlifting stick-figure kinematics and animation",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ./liftviz.yaml or ~/.liftviz/liftviz.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("skeleton-dir", "", "directory of custom lift definitions (*.yaml)")
	a.v.BindPFlag("log.level", pf.Lookup("log-level"))
	a.v.BindPFlag("skeleton.custom_dir", pf.Lookup("skeleton-dir"))

	root.AddCommand(
		a.serveCmd(),
		a.liftsCmd(),
		a.simulateCmd(),
		a.watchCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) load() error {
	if err := config.Read(a.v, a.configPath); err != nil {
		return err
	}
	cfg, err := config.Decode(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	log.Init(cfg.Log.Level)
	if used := a.v.ConfigFileUsed(); used != "" {
		log.Debug("config loaded", "file", used)
	}
	return nil
}

// registries builds the skeleton and motion-profile registries, including
// any custom definitions.
func (a *app) registries() (*skeleton.Registry, *animation.Registry, error) {
	skeletons, err := skeleton.NewBuiltInRegistry()
	if err != nil {
		return nil, nil, err
	}
	if dir := a.cfg.Skeleton.CustomDir; dir != "" {
		if err := skeletons.LoadCustomDir(dir); err != nil {
			return nil, nil, err
		}
	}

	profiles, err := animation.NewBuiltInRegistry()
	if err != nil {
		return nil, nil, err
	}
	return skeletons, profiles, nil
}
