package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every knob for a recap project. A project directory keeps all
// derived artifacts (assignment, checkpoint, cache, reports, rendered videos)
// next to each other so a run can resume from any of them.
type Config struct {
	Source     string `yaml:"source" json:"source"`
	ProjectDir string `yaml:"project_dir" json:"project_dir"`
	TargetYear int    `yaml:"target_year" json:"target_year"`

	IncludeExtensions []string `yaml:"include_extensions" json:"include_extensions"`
	HashFingerprint   bool     `yaml:"hash_fingerprint" json:"hash_fingerprint"`

	Video    VideoSettings    `yaml:"video" json:"video"`
	Ken      KenBurns         `yaml:"ken_burns" json:"ken_burns"`
	Caption  DateCaption      `yaml:"date_caption" json:"date_caption"`
	Audio    AudioSettings    `yaml:"audio" json:"audio"`
	Duration ClipDurations    `yaml:"durations" json:"durations"`
	Binaries ExternalBinaries `yaml:"binaries" json:"binaries"`

	// MonthNames are used for separator cards and month video filenames.
	MonthNames [12]string `yaml:"month_names" json:"month_names"`

	LogFile string `yaml:"log_file" json:"log_file"`
	LogJSON bool   `yaml:"log_json" json:"log_json"`
}

// VideoSettings mirrors the fixed encoder parameters every clip is
// normalized to before concatenation.
type VideoSettings struct {
	Width       int    `yaml:"width" json:"width"`
	Height      int    `yaml:"height" json:"height"`
	FPS         int    `yaml:"fps" json:"fps"`
	Codec       string `yaml:"codec" json:"codec"`
	CRF         int    `yaml:"crf" json:"crf"`
	Preset      string `yaml:"preset" json:"preset"`
	PixelFormat string `yaml:"pixel_format" json:"pixel_format"`
}

// KenBurns controls the slow zoom applied to still photos.
type KenBurns struct {
	Enabled   bool    `yaml:"enabled" json:"enabled"`
	ZoomStart float64 `yaml:"zoom_start" json:"zoom_start"`
	ZoomEnd   float64 `yaml:"zoom_end" json:"zoom_end"`
}

// DateCaption controls the date overlay burned into each clip.
type DateCaption struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	FontSize int    `yaml:"font_size" json:"font_size"`
	Color    string `yaml:"color" json:"color"`
	Position string `yaml:"position" json:"position"`
	Margin   int    `yaml:"margin" json:"margin"`
}

// AudioSettings controls the per-month soundtrack.
type AudioSettings struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	URLsFile string `yaml:"urls_file" json:"urls_file"`
}

// ClipDurations are the per-kind clip lengths in seconds.
type ClipDurations struct {
	Photo     float64 `yaml:"photo" json:"photo"`
	Video     float64 `yaml:"video" json:"video"`
	GIF       float64 `yaml:"gif" json:"gif"`
	Separator float64 `yaml:"separator" json:"separator"`
	Fade      float64 `yaml:"fade" json:"fade"`
}

// ExternalBinaries names the subprocess collaborators.
type ExternalBinaries struct {
	FFmpeg  string `yaml:"ffmpeg" json:"ffmpeg"`
	FFprobe string `yaml:"ffprobe" json:"ffprobe"`
	YtDlp   string `yaml:"yt_dlp" json:"yt_dlp"`
}

func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	projectDir := filepath.Join(homeDir, ".yearreel")

	return &Config{
		ProjectDir: projectDir,
		TargetYear: time.Now().Year(),
		IncludeExtensions: []string{
			"jpg", "jpeg", "png", "heic", "gif",
			"mp4", "mov", "avi", "mkv",
		},
		HashFingerprint: false,
		Video: VideoSettings{
			Width:       1920,
			Height:      1080,
			FPS:         30,
			Codec:       "libx264",
			CRF:         23,
			Preset:      "medium",
			PixelFormat: "yuv420p",
		},
		Ken: KenBurns{
			Enabled:   true,
			ZoomStart: 1.0,
			ZoomEnd:   1.10,
		},
		Caption: DateCaption{
			Enabled:  true,
			FontSize: 24,
			Color:    "white@0.7",
			Position: "bottom_right",
			Margin:   20,
		},
		Audio: AudioSettings{
			Enabled:  false,
			URLsFile: "urls.txt",
		},
		Duration: ClipDurations{
			Photo:     0.8,
			Video:     1.25,
			GIF:       1.25,
			Separator: 1.0,
			Fade:      0.3,
		},
		Binaries: ExternalBinaries{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
			YtDlp:   "yt-dlp",
		},
		MonthNames: [12]string{
			"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December",
		},
		LogFile: filepath.Join(projectDir, "yearreel.log"),
		LogJSON: false,
	}
}

func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Source == "" {
		return &ValidationError{Field: "source", Message: "source path is required"}
	}
	if c.TargetYear < 2000 || c.TargetYear > 2100 {
		return &ValidationError{Field: "target_year", Message: "target year out of range"}
	}
	if c.ProjectDir == "" {
		homeDir, _ := os.UserHomeDir()
		c.ProjectDir = filepath.Join(homeDir, ".yearreel")
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.ProjectDir, "yearreel.log")
	}
	if c.Video.FPS < 1 {
		c.Video.FPS = 30
	}
	if c.Duration.Photo <= 0 {
		c.Duration.Photo = 0.8
	}
	if c.Duration.Video <= 0 {
		c.Duration.Video = 1.25
	}
	if c.Duration.Separator <= 0 {
		c.Duration.Separator = 1.0
	}
	return nil
}

// Derived artifact paths. Everything lives under the project directory.

func (c *Config) AssignmentFile() string { return filepath.Join(c.ProjectDir, "media_assignment.json") }
func (c *Config) ScanStateFile() string  { return filepath.Join(c.ProjectDir, "media_scan_cache.json") }
func (c *Config) CheckpointFile() string { return filepath.Join(c.ProjectDir, "checkpoint.json") }
func (c *Config) ProcessedDir() string   { return filepath.Join(c.ProjectDir, "processed") }
func (c *Config) TempDir() string        { return filepath.Join(c.ProjectDir, "temp") }
func (c *Config) OutputDir() string      { return filepath.Join(c.ProjectDir, "output") }
func (c *Config) AudioDir() string       { return filepath.Join(c.ProjectDir, "audio") }
func (c *Config) VisualReportFile() string {
	return filepath.Join(c.ProjectDir, "report_visual.txt")
}
func (c *Config) CSVReportFile() string {
	return filepath.Join(c.ProjectDir, "report_detailed.csv")
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
