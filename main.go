// Package main is the presenter CLI: hands-free slide control by swipe and
// voice.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"handsfree-presenter/clients/presentation_host"
	"handsfree-presenter/command_detection"
	"handsfree-presenter/config"
	"handsfree-presenter/cue_index"
	"handsfree-presenter/logger"
	"handsfree-presenter/slideshow"
)

var (
	configFile string
	logLevel   string
	logFile    string
	slideCount int
	version    = "0.1.0"

	cfg     *config.Config
	fileSys = afero.NewOsFs()
)

// rootCmd runs a show by default
var rootCmd = &cobra.Command{
	Use:   "presenter",
	Short: "Hands-free slide control by swipe and voice",
	Long: `Presenter drives a slide show from skeletal tracking and speech.
Swipe to move between slides, say "powerpoint next", or just speak the cue
written for the current step.`,
	Run: runShow,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Follow the presentation host and drive its shows",
	Run:   runShow,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the motion sensor and microphone can be reached",
	Run:   runCheck,
}

var cuesCmd = &cobra.Command{
	Use:   "cues",
	Short: "Edit the spoken cues of a presentation",
}

var cuesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cues per slide",
	Args:  cobra.NoArgs,
	Run:   runCuesList,
}

var cuesSetCmd = &cobra.Command{
	Use:   "set <slide> <step> <phrase...>",
	Short: "Set the cue of a slide step",
	Args:  cobra.MinimumNArgs(3),
	Run:   runCuesSet,
}

var cuesRemoveCmd = &cobra.Command{
	Use:   "remove <slide>",
	Short: "Remove every cue of a slide",
	Args:  cobra.ExactArgs(1),
	Run:   runCuesRemove,
}

var cuesGrammarCmd = &cobra.Command{
	Use:   "grammar",
	Short: "Print the phrases the speech detector listens for",
	Args:  cobra.NoArgs,
	Run:   runCuesGrammar,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("presenter v%s\n", version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file [default: ./presenter.yaml]")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")

	cuesGrammarCmd.Flags().IntVar(&slideCount, "slides", 0, "Number of slides in the show")

	cuesCmd.AddCommand(cuesListCmd, cuesSetCmd, cuesRemoveCmd, cuesGrammarCmd)
	rootCmd.AddCommand(runCmd, checkCmd, cuesCmd, versionCmd)

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	var err error

	cfg, err = config.Load(fileSys, configFile, rootCmd.PersistentFlags())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Configure(cfg.Log.Level, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
}

func loadCues() cue_index.Interface {
	cues, err := cue_index.Load(fileSys, cfg.Cues.File)
	if err != nil {
		logger.Fatal("Failed to load cues", "file", cfg.Cues.File, "error", err)
	}

	return cues
}

func runShow(_ *cobra.Command, _ []string) {
	logger.Info("Starting presenter", "version", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cues := loadCues()

	host, err := presentation_host.New(&presentation_host.Config{URL: cfg.Host.URL})
	if err != nil {
		logger.Fatal("Failed to create host client", "error", err)
	}

	controller, err := slideshow.New(&slideshow.Config{Host: host})
	if err != nil {
		logger.Fatal("Failed to create controller", "error", err)
	}

	// a missing speech model was reported, the show runs on gestures alone
	release, _ := registerDetectors(controller, cues, slideshow.ShowMode)
	defer release()

	if err := host.Connect(ctx); err != nil {
		logger.Fatal("Failed to reach the presentation host", "error", err)
	}
	defer host.Close()

	if err := controller.Run(ctx, host.Events()); err != nil {
		logger.Error("Presenter stopped", "error", err)
		return
	}

	logger.Info("Presenter stopped")
}

func runCheck(_ *cobra.Command, _ []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	controller, err := slideshow.New(&slideshow.Config{Host: offlineHost{}})
	if err != nil {
		logger.Fatal("Failed to create controller", "error", err)
	}

	release, speechErr := registerDetectors(controller, loadCues(), slideshow.SetupMode)
	err = errors.Join(speechErr, controller.CheckSensors(ctx))
	release()

	if err != nil {
		logger.Fatal("Sensor check failed", "error", err)
	}

	logger.Info("All sensors ready")
}

func runCuesList(_ *cobra.Command, _ []string) {
	cues := loadCues()

	for _, slide := range cues.Slides() {
		for step, cue := range cues.Cues(slide) {
			fmt.Printf("%d\t%d\t%s\n", slide, step, cue)
		}
	}
}

func runCuesSet(_ *cobra.Command, args []string) {
	slide, err := strconv.Atoi(args[0])
	if err != nil {
		logger.Fatal("Slide must be a number", "slide", args[0])
	}

	step, err := strconv.Atoi(args[1])
	if err != nil {
		logger.Fatal("Step must be a number", "step", args[1])
	}

	cues := loadCues()

	if err := cues.Set(slide, step, strings.Join(args[2:], " ")); err != nil {
		logger.Fatal("Failed to set cue", "error", err)
	}

	saveCues(cues)
}

func runCuesRemove(_ *cobra.Command, args []string) {
	slide, err := strconv.Atoi(args[0])
	if err != nil {
		logger.Fatal("Slide must be a number", "slide", args[0])
	}

	cues := loadCues()
	cues.Remove(slide)
	saveCues(cues)
}

func runCuesGrammar(_ *cobra.Command, _ []string) {
	g := command_detection.BuildGrammar(cfg.Speech.WakeWord, slideCount, loadCues().FlattenAll())

	for _, phrase := range g.Phrases() {
		fmt.Println(phrase)
	}
}

func saveCues(cues cue_index.Interface) {
	if err := cues.Save(fileSys, cfg.Cues.File); err != nil {
		logger.Fatal("Failed to save cues", "file", cfg.Cues.File, "error", err)
	}

	logger.Info("Cues saved", "file", cfg.Cues.File)
}
