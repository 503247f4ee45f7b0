package server

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"campusdesk/internal/testutil"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "campusdesk.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFileAndEnvOverlay(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: "127.0.0.1:9000"
  base_path: "api/v2/"
  read_timeout: 3s
database:
  driver: postgres
  dsn: "postgres://file"
  migrate: false
auth:
  jwt_secret: "file-secret-file-secret-file-secret"
login_limit:
  max_failures: 3
`)
	t.Setenv("CAMPUSDESK_DB_DSN", "postgres://env")
	t.Setenv("CAMPUSDESK_REDIS_ADDR", "127.0.0.1:6379")

	cfg, err := LoadConfig(path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.Server.Addr, "127.0.0.1:9000")
	testutil.AssertEqual(t, cfg.Server.BasePath, "/api/v2")
	testutil.AssertEqual(t, cfg.Server.ReadTimeout, 3*time.Second)
	testutil.AssertEqual(t, cfg.Server.WriteTimeout, defaultWriteTimeout)
	testutil.AssertEqual(t, cfg.Database.DSN, "postgres://env")
	testutil.AssertFalse(t, *cfg.Database.Migrate, "migrate should stay disabled")
	testutil.AssertEqual(t, cfg.Redis.Addr, "127.0.0.1:6379")
	testutil.AssertEqual(t, cfg.LoginLimit.MaxFailures, 3)
	testutil.AssertEqual(t, cfg.LoginLimit.Window, defaultLoginWindow)
	testutil.AssertEqual(t, cfg.Auth.TokenTTL, 7*24*time.Hour)
}

func TestLoadConfigEnvOnly(t *testing.T) {
	t.Setenv("CAMPUSDESK_JWT_SECRET", strings.Repeat("e", 32))
	t.Setenv("CAMPUSDESK_ADDR", ":8088")

	cfg, err := LoadConfig("")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.Server.Addr, ":8088")
	testutil.AssertEqual(t, cfg.Database.Driver, "sqlite")
	testutil.AssertEqual(t, cfg.Database.DSN, "campusdesk.db")
	testutil.AssertTrue(t, *cfg.Database.Migrate, "migrate defaults to true")
	testutil.AssertEqual(t, cfg.Server.BasePath, "/api/v1")
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"missing secret": func(c *Config) { c.Auth.JWTSecret = "" },
		"short secret":   func(c *Config) { c.Auth.JWTSecret = "short" },
		"bad driver":     func(c *Config) { c.Database.Driver = "oracle" },
		"empty dsn":      func(c *Config) { c.Database.Driver = "mysql"; c.Database.DSN = "" },
		"bcrypt cost":    func(c *Config) { c.Auth.BcryptCost = 99 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(cfg)
			testutil.AssertTrue(t, cfg.Validate() != nil, "expected validation error")
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	testutil.AssertTrue(t, err != nil, "expected read error")
}
