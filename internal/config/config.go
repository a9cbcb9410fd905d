// Package config provides converter configuration with support for
// command-line flags, environment variables, and .env files.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/listenupapp/tafcue/internal/validation"
)

// DefaultToniesDBURL is the published V2 metadata database.
const DefaultToniesDBURL = "https://raw.githubusercontent.com/toniebox-reverse-engineering/tonies-json/release/toniesV2.json"

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Paths     PathsConfig
	Container ContainerConfig
	Reconcile ReconcileConfig
	Silence   SilenceConfig
	Transcode TranscodeConfig
	Metadata  MetadataConfig
	Batch     BatchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `env:"ENV" validate:"oneof=development staging production"`
	LogLevel    string `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
}

// PathsConfig holds input and output locations.
type PathsConfig struct {
	SourceDir string `env:"SOURCE_DIR" validate:"required"`
	OutputDir string `env:"OUTPUT_DIR" validate:"required"`
	Recursive bool   `env:"RECURSIVE"`
	// CachePath is the badger directory for probe results (default: {output}/.cache)
	CachePath string `env:"CACHE_PATH"`
}

// ContainerConfig describes the TAF layout.
type ContainerConfig struct {
	HeaderSize int `env:"HEADER_SIZE" validate:"gt=2"`
	// ChapterTag is the byte that introduces the chapter list field.
	ChapterTag uint8 `env:"CHAPTER_TAG"`
	SampleRate int   `env:"SAMPLE_RATE" validate:"gt=0"`
	// MaxBackwardPages bounds the walk from a marker to the nearest indexed page.
	MaxBackwardPages int `env:"MAX_BACKWARD_PAGES" validate:"gte=0"`
}

// ReconcileConfig tunes how theoretical times snap to silence.
type ReconcileConfig struct {
	SyncWindow time.Duration `env:"SYNC_WINDOW" validate:"gte=0"`
	PregapMin  time.Duration `env:"PREGAP_MIN" validate:"gte=0"`
}

// SilenceConfig configures the silence probe.
type SilenceConfig struct {
	Enabled      bool          `env:"SILENCE_ENABLED"`
	NoiseFloorDB float64       `env:"NOISE_FLOOR_DB" validate:"lte=0"`
	MinSilence   time.Duration `env:"MIN_SILENCE" validate:"gt=0"`
	Timeout      time.Duration `env:"PROBE_TIMEOUT" validate:"gt=0"`
}

// TranscodeConfig holds MP3 encoding configuration.
type TranscodeConfig struct {
	Enabled bool `env:"TRANSCODE_ENABLED"`
	// FFmpegPath overrides auto-detection of ffmpeg location (default: auto-detect)
	FFmpegPath string `env:"FFMPEG_PATH"`
	// Quality is the libmp3lame VBR quality, 0 (best) to 9.
	Quality int `env:"MP3_QUALITY" validate:"gte=0,lte=9"`
}

// MetadataConfig holds metadata database and artwork configuration.
type MetadataConfig struct {
	ToniesJSON    string `env:"TONIES_JSON"`
	DBURL         string `env:"TONIES_DB_URL" validate:"omitempty,url"`
	Download      bool   `env:"DB_DOWNLOAD"`
	CoversEnabled bool   `env:"COVERS_ENABLED"`
	ScrapeEnabled bool   `env:"SCRAPE_ENABLED"`
}

// BatchConfig holds worker pool and report configuration.
type BatchConfig struct {
	Workers      int    `env:"WORKERS" validate:"gt=0,lte=64"`
	OutputFormat string `env:"OUTPUT_FORMAT" validate:"oneof=yaml json"`
	Jukebox      bool   `env:"JUKEBOX"`
}

// switchFlags are boolean settings that may be given without a value.
var switchFlags = map[string]bool{
	"RECURSIVE":         true,
	"SILENCE_ENABLED":   true,
	"TRANSCODE_ENABLED": true,
	"DB_DOWNLOAD":       true,
	"COVERS_ENABLED":    true,
	"SCRAPE_ENABLED":    true,
	"JUKEBOX":           true,
}

// Flags holds the raw command-line values. Empty means "not given".
type Flags struct {
	EnvFile string

	values map[string]*string
}

// flagSpecs maps flag names to the environment keys they override.
var flagSpecs = []struct {
	name, env, usage string
}{
	{"env", "ENV", "Environment (development, staging, production)"},
	{"log-level", "LOG_LEVEL", "Log level (debug, info, warn, error)"},
	{"source", "SOURCE_DIR", "Directory containing .taf files (default: .)"},
	{"output", "OUTPUT_DIR", "Directory for mp3, cue and cover files (default: mp3_converted)"},
	{"recursive", "RECURSIVE", "Descend into subdirectories (default: false)"},
	{"cache-path", "CACHE_PATH", "Probe cache directory (default: {output}/.cache)"},
	{"header-size", "HEADER_SIZE", "Size of the TAF header in bytes (default: 4096)"},
	{"chapter-tag", "CHAPTER_TAG", "Tag byte of the chapter list field (default: 0x22)"},
	{"sample-rate", "SAMPLE_RATE", "Granule sample rate (default: 48000)"},
	{"max-backward-pages", "MAX_BACKWARD_PAGES", "Backward search bound for page lookups (default: 100)"},
	{"sync-window", "SYNC_WINDOW", "Max distance between chapter and silence (default: 30s)"},
	{"pregap-min", "PREGAP_MIN", "Min silence length that yields an INDEX 00 (default: 500ms)"},
	{"silence", "SILENCE_ENABLED", "Detect silence to correct chapter times (default: true)"},
	{"noise-floor", "NOISE_FLOOR_DB", "Silence threshold in dB (default: -40)"},
	{"min-silence", "MIN_SILENCE", "Minimum silence duration (default: 500ms)"},
	{"probe-timeout", "PROBE_TIMEOUT", "Timeout for one silence probe (default: 60s)"},
	{"transcode", "TRANSCODE_ENABLED", "Create mp3 files (default: true)"},
	{"ffmpeg-path", "FFMPEG_PATH", "Path to ffmpeg binary (default: auto-detect)"},
	{"mp3-quality", "MP3_QUALITY", "libmp3lame VBR quality 0-9 (default: 2)"},
	{"tonies-json", "TONIES_JSON", "Local metadata database (default: tonies.json)"},
	{"db-url", "TONIES_DB_URL", "Remote metadata database URL"},
	{"download-db", "DB_DOWNLOAD", "Download the metadata database before converting (default: false)"},
	{"covers", "COVERS_ENABLED", "Download cover images (default: true)"},
	{"scrape", "SCRAPE_ENABLED", "Scrape product pages for descriptions (default: false)"},
	{"workers", "WORKERS", "Files converted in parallel (default: 2)"},
	{"format", "OUTPUT_FORMAT", "Summary format: yaml or json (default: yaml)"},
	{"jukebox", "JUKEBOX", "Write jukebox.json after converting (default: false)"},
}

// RegisterFlags defines all configuration flags on fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{values: make(map[string]*string, len(flagSpecs))}
	for _, fd := range flagSpecs {
		f.values[fd.env] = fs.String(fd.name, "", fd.usage)
		if switchFlags[fd.env] {
			// Allow "--recursive" as well as "--recursive=false".
			fs.Lookup(fd.name).NoOptDefVal = "true"
		}
	}
	fs.StringVar(&f.EnvFile, "env-file", ".env", "Path to .env file")
	return f
}

// Set overrides a value by environment key, as if the flag had been given.
func (f *Flags) Set(envKey, value string) {
	if f.values == nil {
		f.values = make(map[string]*string)
	}
	v := value
	f.values[envKey] = &v
}

func (f *Flags) get(envKey string) string {
	if f == nil || f.values == nil {
		return ""
	}
	if v, ok := f.values[envKey]; ok && v != nil {
		return *v
	}
	return ""
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(f *Flags) (*Config, error) {
	if f == nil {
		f = &Flags{}
	}
	envFile := f.EnvFile
	if envFile == "" {
		envFile = ".env"
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(f.get("ENV"), "ENV", "development"),
			LogLevel:    strings.ToLower(getConfigValue(f.get("LOG_LEVEL"), "LOG_LEVEL", "info")),
		},
		Paths: PathsConfig{
			SourceDir: getConfigValue(f.get("SOURCE_DIR"), "SOURCE_DIR", "."),
			OutputDir: getConfigValue(f.get("OUTPUT_DIR"), "OUTPUT_DIR", "mp3_converted"),
			Recursive: getBoolConfigValue(f.get("RECURSIVE"), "RECURSIVE", false),
			CachePath: getConfigValue(f.get("CACHE_PATH"), "CACHE_PATH", ""),
		},
		Container: ContainerConfig{
			HeaderSize:       getIntConfigValue(f.get("HEADER_SIZE"), "HEADER_SIZE", 4096),
			SampleRate:       getIntConfigValue(f.get("SAMPLE_RATE"), "SAMPLE_RATE", 48000),
			MaxBackwardPages: getIntConfigValue(f.get("MAX_BACKWARD_PAGES"), "MAX_BACKWARD_PAGES", 100),
		},
		Silence: SilenceConfig{
			Enabled: getBoolConfigValue(f.get("SILENCE_ENABLED"), "SILENCE_ENABLED", true),
		},
		Transcode: TranscodeConfig{
			Enabled:    getBoolConfigValue(f.get("TRANSCODE_ENABLED"), "TRANSCODE_ENABLED", true),
			FFmpegPath: getConfigValue(f.get("FFMPEG_PATH"), "FFMPEG_PATH", ""),
			Quality:    getIntConfigValue(f.get("MP3_QUALITY"), "MP3_QUALITY", 2),
		},
		Metadata: MetadataConfig{
			ToniesJSON:    getConfigValue(f.get("TONIES_JSON"), "TONIES_JSON", "tonies.json"),
			DBURL:         getConfigValue(f.get("TONIES_DB_URL"), "TONIES_DB_URL", DefaultToniesDBURL),
			Download:      getBoolConfigValue(f.get("DB_DOWNLOAD"), "DB_DOWNLOAD", false),
			CoversEnabled: getBoolConfigValue(f.get("COVERS_ENABLED"), "COVERS_ENABLED", true),
			ScrapeEnabled: getBoolConfigValue(f.get("SCRAPE_ENABLED"), "SCRAPE_ENABLED", false),
		},
		Batch: BatchConfig{
			Workers:      getIntConfigValue(f.get("WORKERS"), "WORKERS", 2),
			OutputFormat: strings.ToLower(getConfigValue(f.get("OUTPUT_FORMAT"), "OUTPUT_FORMAT", "yaml")),
			Jukebox:      getBoolConfigValue(f.get("JUKEBOX"), "JUKEBOX", false),
		},
	}

	tagStr := getConfigValue(f.get("CHAPTER_TAG"), "CHAPTER_TAG", "0x22")
	tag, err := strconv.ParseUint(tagStr, 0, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid chapter tag %q: %w", tagStr, err)
	}
	cfg.Container.ChapterTag = uint8(tag)

	noiseStr := getConfigValue(f.get("NOISE_FLOOR_DB"), "NOISE_FLOOR_DB", "-40")
	noise, err := strconv.ParseFloat(strings.TrimSuffix(strings.ToLower(noiseStr), "db"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid noise floor %q: %w", noiseStr, err)
	}
	cfg.Silence.NoiseFloorDB = noise

	durations := []struct {
		flagValue, envKey, def string
		dst                    *time.Duration
	}{
		{f.get("SYNC_WINDOW"), "SYNC_WINDOW", "30s", &cfg.Reconcile.SyncWindow},
		{f.get("PREGAP_MIN"), "PREGAP_MIN", "500ms", &cfg.Reconcile.PregapMin},
		{f.get("MIN_SILENCE"), "MIN_SILENCE", "500ms", &cfg.Silence.MinSilence},
		{f.get("PROBE_TIMEOUT"), "PROBE_TIMEOUT", "60s", &cfg.Silence.Timeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", strings.ToLower(d.envKey), raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all config values are present and in range.
func (c *Config) Validate() error {
	v := validation.New()
	sections := []any{
		c.App, c.Paths, c.Container, c.Reconcile,
		c.Silence, c.Transcode, c.Metadata, c.Batch,
	}
	for _, s := range sections {
		if err := v.Validate(s); err != nil {
			return err
		}
	}
	return nil
}

// expandPaths makes all configured paths absolute and derives the cache path.
func (c *Config) expandPaths() error {
	var err error
	if c.Paths.SourceDir, err = expandPath(c.Paths.SourceDir, "."); err != nil {
		return err
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir, "mp3_converted"); err != nil {
		return err
	}
	if c.Paths.CachePath, err = expandPath(c.Paths.CachePath, filepath.Join(c.Paths.OutputDir, ".cache")); err != nil {
		return err
	}
	if c.Metadata.ToniesJSON != "" {
		if c.Metadata.ToniesJSON, err = expandPath(c.Metadata.ToniesJSON, ""); err != nil {
			return err
		}
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		path = defaultPath
	}
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
