package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/statcan/zonetool/internal/branding"
	"go.yaml.in/yaml/v3"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Keys understood by zonetool. Nested keys map to env vars with "_", e.g.
// repo.owner → ZONETOOL_REPO_OWNER.
const (
	KeyDockerfile        = "dockerfile"
	KeyRepoOwner         = "repo.owner"
	KeyRepoName          = "repo.name"
	KeyRepoDir           = "repo.dir"
	KeyGitUsername       = "git.username"
	KeyGitEmail          = "git.email"
	KeyGitRemote         = "git.remote"
	KeyBaseBranch        = "branch.base"
	KeyBatchBranch       = "branch.batch"
	KeyOpenVSXURL        = "registry.openvsx_url"
	KeyGitHubAPIURL      = "registry.github_api_url"
	KeyRegistryTimeout   = "registry.timeout"
	KeyRegistryCacheSize = "registry.cache_size"
	KeyGitHubToken       = "github.token"
	KeyCheckpointRoot    = "checkpoints.root"
	KeyCheckpointFanout  = "checkpoints.fanout"
	KeyCheckpointContent = "checkpoints.content_root"
	KeyCPUMin            = "resources.cpu_min"
	KeyCPUMax            = "resources.cpu_max"
	KeyRAMMin            = "resources.ram_min"
	KeyRAMMax            = "resources.ram_max"
)

func setDefaults() {
	owner, name, _ := strings.Cut(branding.GitHubRepo(), "/")
	viper.SetDefault(KeyDockerfile, "images/mid/Dockerfile")
	viper.SetDefault(KeyRepoOwner, owner)
	viper.SetDefault(KeyRepoName, name)
	viper.SetDefault(KeyRepoDir, ".")
	viper.SetDefault(KeyGitUsername, "extension-updater-bot")
	viper.SetDefault(KeyGitEmail, "extension-updater-bot@users.noreply.github.com")
	viper.SetDefault(KeyGitRemote, "origin")
	viper.SetDefault(KeyBaseBranch, "master")
	viper.SetDefault(KeyBatchBranch, "update-vscode-extensions")
	viper.SetDefault(KeyOpenVSXURL, "https://open-vsx.org/api")
	viper.SetDefault(KeyGitHubAPIURL, "https://api.github.com")
	viper.SetDefault(KeyRegistryTimeout, "30s")
	viper.SetDefault(KeyRegistryCacheSize, 256)
	viper.SetDefault(KeyCheckpointRoot, "/opt/checkpoints")
	viper.SetDefault(KeyCheckpointFanout, 2)
	viper.SetDefault(KeyCheckpointContent, ".")
	viper.SetDefault(KeyCPUMin, 0.1)
	viper.SetDefault(KeyCPUMax, 14)
	viper.SetDefault(KeyRAMMin, 1)
	viper.SetDefault(KeyRAMMax, 48)
}

// Dir returns the path to the zonetool config directory (~/.zonetool/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the default config file.
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

var loadedFile string

// Load initializes Viper from defaults, a .env file in the working
// directory, the config file and the environment, in increasing priority.
// An empty path selects FilePath(). A missing file is not an error.
func Load(path string) error {
	viper.Reset()
	setDefaults()

	// Existing environment variables win over .env entries.
	_ = godotenv.Load()

	if path == "" {
		path = FilePath()
	}
	loadedFile = path

	viper.SetConfigFile(path)
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return nil
}

// LoadedFile returns the config file path chosen by the last Load.
func LoadedFile() string {
	if loadedFile == "" {
		return FilePath()
	}
	return loadedFile
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// GetInt returns an integer config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetFloat returns a float config value.
func GetFloat(key string) float64 {
	return viper.GetFloat64(key)
}

// GetDuration returns a duration config value such as "30s".
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GitHubToken returns GITHUB_TOKEN, falling back to the github.token key.
func GitHubToken() string {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token
	}
	return viper.GetString(KeyGitHubToken)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	configFile := LoadedFile()
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	viper.Set(key, scalar(value))

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// scalar decodes value as a YAML scalar so numbers and booleans keep their
// type in the written file. Anything else stays a string.
func scalar(value string) interface{} {
	var v interface{}
	if err := yaml.Unmarshal([]byte(value), &v); err != nil {
		return value
	}
	switch v.(type) {
	case int, float64, bool:
		return v
	default:
		return value
	}
}
