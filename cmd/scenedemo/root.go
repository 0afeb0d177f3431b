package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/scenechanger/common"
	"github.com/milk9111/scenechanger/config"
	"github.com/milk9111/scenechanger/host"
	"github.com/milk9111/scenechanger/logging"
	"github.com/milk9111/scenechanger/scenes"
	"github.com/milk9111/scenechanger/transition"
	"github.com/spf13/cobra"
)

// Version is set at build time
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "scenedemo",
	Short: "Scene transition demo",
	Long: `scenedemo changes between the scenes listed in a manifest, running each
scene's cleanup and setup tasks behind a loading screen.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the demo window, or tour every scene with --headless",
	RunE:  runDemo,
}

var scenesCmd = &cobra.Command{
	Use:   "scenes",
	Short: "List the scenes in the manifest",
	RunE:  listScenes,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "scenedemo", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default ./scenedemo.yaml)")
	runCmd.Flags().String("scene", "", "scene to load first")
	runCmd.Flags().Bool("headless", false, "run without a window, visiting every scene once")

	rootCmd.AddCommand(runCmd, scenesCmd, versionCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Path: cfg.Log.Path})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	app, err := host.New(cfg, logger.Logger)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		if err := app.ServeMonitor(ctx); err != nil {
			logger.Error().Err(err).Msg("monitor stopped")
		}
	}()

	scene, _ := cmd.Flags().GetString("scene")
	headless, _ := cmd.Flags().GetBool("headless")
	if headless {
		return runHeadless(ctx, app, transition.ContentID(scene))
	}

	if err := app.Start(transition.ContentID(scene)); err != nil {
		return err
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(common.BaseWidth, common.BaseHeight)
	ebiten.SetWindowTitle("scenedemo")
	ebiten.SetTPS(cfg.TPS)

	err = ebiten.RunGame(NewGame(app, logger.Component("game")))
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// runHeadless visits first, then every other scene in manifest order.
func runHeadless(ctx context.Context, app *host.App, first transition.ContentID) error {
	ids := app.Registry.IDs()
	if first == "" {
		first = transition.ContentID(app.Config.InitialScene)
	}
	if first == "" {
		first = app.Registry.Initial()
	}
	tour := []transition.ContentID{first}
	for _, id := range ids {
		if id != first {
			tour = append(tour, id)
		}
	}

	ticker := time.NewTicker(time.Second / time.Duration(app.Config.TPS))
	defer ticker.Stop()
	if err := app.Tour(ctx, ticker.C, tour); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	fmt.Print(app.Trace.String())
	return nil
}

func listScenes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := scenes.LoadManifest(scenes.Assets{Dir: cfg.AssetsDir}, cfg.Manifest)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, sc := range m.Scenes {
		marker := " "
		if sc.ID == m.Initial {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %-12s level=%-14s cleanup=[%s] setup=[%s]\n",
			marker, sc.ID, sc.Level, taskNames(sc.Cleanup), taskNames(sc.Setup))
	}
	return nil
}

func taskNames(tasks []scenes.TaskSpec) string {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}
