package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/On-Jun9/YearReel/internal/audio"
	"github.com/On-Jun9/YearReel/internal/config"
	"github.com/On-Jun9/YearReel/internal/pipeline"
)

var (
	appVersion = "0.1.0"

	cfgFile    string
	source     string
	projectDir string
	targetYear int
	includeExt []string
	hashFP     bool
	noKenBurns bool
	noCaption  bool
	withAudio  bool
	logFile    string
	logJSON    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "yearreel",
	Short: "Build a yearly recap video from a folder of photos and videos",
	Long: `YearReel scans a media folder, assigns each file to a day of the target
year using filename/metadata date heuristics, and drives ffmpeg to stitch
per-day clips into per-month videos and a final recap, resuming from
checkpoints and reusing cached clips on rerun.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole pipeline: assign then render",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(func(p *pipeline.Pipeline) error {
			_, err := p.Run(cmd.Context())
			return err
		})
	},
}

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Scan media and build the day assignment and reports only",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(func(p *pipeline.Pipeline) error {
			_, err := p.AssignOnly()
			return err
		})
	},
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render videos from the existing day assignment only",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(func(p *pipeline.Pipeline) error {
			_, err := p.RenderOnly(cmd.Context())
			return err
		})
	},
}

var regenCmd = &cobra.Command{
	Use:   "regen <month> [month...]",
	Short: "Invalidate finished months and re-render them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var months []int
		for _, arg := range args {
			m, err := strconv.Atoi(arg)
			if err != nil || m < 1 || m > 12 {
				return fmt.Errorf("invalid month %q (want 1-12)", arg)
			}
			months = append(months, m)
		}

		return withPipeline(func(p *pipeline.Pipeline) error {
			if err := p.Checkpoint().InvalidateMonths(months); err != nil {
				return err
			}
			_, err := p.RenderOnly(cmd.Context())
			return err
		})
	},
}

var fetchAudioCmd = &cobra.Command{
	Use:   "fetch-audio",
	Short: "Download the per-month soundtrack tracks from the URLs file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dl := audio.NewDownloader(cfg.Binaries.YtDlp, cfg.AudioDir())
		if !dl.Available() {
			return fmt.Errorf("%s not found on PATH", cfg.Binaries.YtDlp)
		}

		failed, err := dl.DownloadAll(cfg.Audio.URLsFile)
		if err != nil {
			return err
		}
		for _, fe := range failed {
			fmt.Fprintf(os.Stderr, "failed: %s: %s\n", fe.Path, fe.Err)
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d download(s) failed", len(failed))
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(appVersion)
	},
}

func init() {
	rootCmd.AddCommand(runCmd, assignCmd, renderCmd, regenCmd, fetchAudioCmd, versionCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file path")
	pf.StringVarP(&source, "source", "s", "", "media source directory")
	pf.StringVarP(&projectDir, "project-dir", "p", "", "project directory for artifacts and output")
	pf.IntVarP(&targetYear, "year", "y", 0, "target year (default: current year)")
	pf.StringSliceVarP(&includeExt, "include-ext", "e", nil, "file extensions to include")
	pf.BoolVar(&hashFP, "hash-fingerprint", false, "include a content hash in file fingerprints")
	pf.BoolVar(&noKenBurns, "no-ken-burns", false, "disable the zoom effect on photos")
	pf.BoolVar(&noCaption, "no-caption", false, "disable the date overlay on clips")
	pf.BoolVar(&withAudio, "audio", false, "mux the per-month soundtrack onto the final video")
	pf.StringVar(&logFile, "log-file", "", "log file path")
	pf.BoolVar(&logJSON, "log-json", false, "write JSON log lines")
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	if source != "" {
		cfg.Source = source
	}
	if projectDir != "" {
		cfg.ProjectDir = projectDir
	}
	if targetYear != 0 {
		cfg.TargetYear = targetYear
	}
	if len(includeExt) > 0 {
		cfg.IncludeExtensions = includeExt
	}
	if hashFP {
		cfg.HashFingerprint = true
	}
	if noKenBurns {
		cfg.Ken.Enabled = false
	}
	if noCaption {
		cfg.Caption.Enabled = false
	}
	if withAudio {
		cfg.Audio.Enabled = true
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if logJSON {
		cfg.LogJSON = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func withPipeline(fn func(p *pipeline.Pipeline) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer p.Close()

	return fn(p)
}
