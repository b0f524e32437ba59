package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./soundscout.db" {
			t.Errorf("expected database path ./soundscout.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Credentials.Gemini.Model != "gemini-2.5-flash" {
			t.Errorf("expected gemini model gemini-2.5-flash, got %s", config.Credentials.Gemini.Model)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if len(config.Credentials.Spotify.Scopes) != 2 {
			t.Errorf("expected 2 spotify scopes, got %v", config.Credentials.Spotify.Scopes)
		}

		if config.Search.Policy != "fast" {
			t.Errorf("expected search policy fast, got %s", config.Search.Policy)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig keeps defaults for missing keys", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
port = 8080

[credentials.spotify]
client_id = "test_client_id"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.Credentials.Spotify.TokenURL != "https://accounts.spotify.com/api/token" {
			t.Errorf("expected default token url, got %s", config.Credentials.Spotify.TokenURL)
		}
	})

	t.Run("SaveConfig round trip", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		config := DefaultConfig()
		config.Credentials.Spotify.ClientID = "saved-client"
		config.Search.Policy = "alphabetical"
		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("SaveConfig() error = %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if loaded.Credentials.Spotify.ClientID != "saved-client" || loaded.Search.Policy != "alphabetical" {
			t.Errorf("unexpected config after round trip: %+v", loaded)
		}
	})

	t.Run("SaveConfig bad path", func(t *testing.T) {
		if err := SaveConfig(filepath.Join(t.TempDir(), "missing", "config.toml"), DefaultConfig()); err == nil {
			t.Error("expected error for missing directory")
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "env-key")
		t.Setenv("SPOTIFY_CLIENT_ID", "env-client")
		t.Setenv("SOUNDSCOUT_LOG_LEVEL", "debug")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Credentials.Gemini.APIKey != "env-key" {
			t.Errorf("expected api key from env, got %q", config.Credentials.Gemini.APIKey)
		}
		if config.Credentials.Spotify.ClientID != "env-client" {
			t.Errorf("expected client id from env, got %q", config.Credentials.Spotify.ClientID)
		}
		if config.Log.Level != "debug" {
			t.Errorf("expected log level debug, got %q", config.Log.Level)
		}
	})

	t.Run("LoadEnv", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("SOUNDSCOUT_TEST_VALUE=from-dotenv\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("SOUNDSCOUT_TEST_VALUE") })

		if err := LoadEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("LoadEnv() error = %v", err)
		}
		if got := os.Getenv("SOUNDSCOUT_TEST_VALUE"); got != "from-dotenv" {
			t.Errorf("expected value from dotenv, got %q", got)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()

		if err := config.Validate("gemini"); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials for gemini, got %v", err)
		}
		if err := config.Validate("spotify"); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials for placeholder client id, got %v", err)
		}

		config.Credentials.Gemini.APIKey = "k"
		config.Credentials.Spotify.ClientID = "real"
		if err := config.Validate("gemini"); err != nil {
			t.Errorf("unexpected gemini error: %v", err)
		}
		if err := config.Validate("spotify"); err != nil {
			t.Errorf("unexpected spotify error: %v", err)
		}
		if err := config.Validate("tidal"); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
