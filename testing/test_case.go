package testing

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/galaplate/fixtures/config"
	"github.com/galaplate/fixtures/database"
	"github.com/galaplate/fixtures/database/foreignkey"
	"github.com/galaplate/fixtures/database/operation"
	"github.com/galaplate/fixtures/env"
	"github.com/galaplate/fixtures/logger"
	"github.com/stretchr/testify/suite"
)

type TestConfig struct {
	EnvFile    string
	ConfigPath string
	// URL overrides fixtures.url and FIXTURES_URL.
	URL string
	// ForeignKeys overrides the fixtures.foreign_keys settings.
	ForeignKeys     *foreignkey.Settings
	LogLevel        string
	CustomBootstrap func(*TestCase)
}

// TestCase opens a pinned connection per test and brackets seeded fixtures
// with the configured foreign key managers.
type TestCase struct {
	suite.Suite
	Conn        *database.Connection
	Settings    foreignkey.Settings
	Managers    []foreignkey.Manager
	Config      *TestConfig
	projectRoot string
}

func DefaultTestConfig() *TestConfig {
	return &TestConfig{
		EnvFile:    ".env.testing",
		ConfigPath: "./config",
		LogLevel:   "silent",
	}
}

func NewTestCase(opts ...func(*TestConfig)) *TestCase {
	cfg := DefaultTestConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	return &TestCase{Config: cfg}
}

func (tc *TestCase) SetupTest() {
	if tc.Config == nil {
		tc.Config = DefaultTestConfig()
	}

	tc.ensureProjectRoot()
	tc.loadEnvironment()
	cfg := tc.loadConfig()
	tc.loadSettings(cfg)
	tc.connect(cfg)

	if tc.Config.CustomBootstrap != nil {
		tc.Config.CustomBootstrap(tc)
	}
}

func (tc *TestCase) ensureProjectRoot() {
	if tc.projectRoot != "" {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		log.Panicf("Failed to get current directory: %v", err)
	}

	// Walk up to the directory holding go.mod
	projectRoot := cwd
	for i := 0; i <= 10; i++ {
		if _, err := os.Stat(filepath.Join(projectRoot, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(projectRoot)
		if parent == projectRoot {
			projectRoot = cwd
			break
		}
		projectRoot = parent
	}

	tc.projectRoot = projectRoot
}

func (tc *TestCase) loadEnvironment() {
	if tc.Config.EnvFile == "" {
		return
	}

	cwd, _ := os.Getwd()
	possiblePaths := []string{
		filepath.Join(cwd, tc.Config.EnvFile),
		filepath.Join(tc.projectRoot, "tests", tc.Config.EnvFile),
		filepath.Join(tc.projectRoot, tc.Config.EnvFile),
	}

	for _, envPath := range possiblePaths {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := env.Load(envPath); err != nil {
			log.Printf("Warning: Error loading env file %s: %v", envPath, err)
			continue
		}
		return
	}
}

func (tc *TestCase) loadConfig() *config.Manager {
	if tc.Config.ConfigPath == "" {
		return config.NewManager()
	}

	path := tc.Config.ConfigPath
	if !filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			path = filepath.Join(tc.projectRoot, path)
		}
	}

	cfg, err := config.FromDir(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.NewManager()
	}
	tc.Require().NoError(err, "load config from %s", path)
	return cfg
}

func (tc *TestCase) loadSettings(cfg *config.Manager) {
	if tc.Config.ForeignKeys != nil {
		tc.Settings = *tc.Config.ForeignKeys
	} else {
		settings, err := foreignkey.LoadSettings(cfg)
		tc.Require().NoError(err)
		tc.Settings = settings
	}

	managers, err := foreignkey.NewManagers(tc.Settings)
	tc.Require().NoError(err)
	tc.Managers = managers
}

func (tc *TestCase) connect(cfg *config.Manager) {
	url := tc.Config.URL
	if url == "" {
		url = cfg.GetString("fixtures.url")
	}
	if url == "" {
		url = env.Get("FIXTURES_URL")
	}
	tc.Require().NotEmpty(url, "no database url: set TestConfig.URL, fixtures.url or FIXTURES_URL")

	conn, err := foreignkey.Open(url, database.WithLogLevel(tc.Config.LogLevel))
	tc.Require().NoError(err, "open %s", database.Redact(url))
	tc.Conn = conn

	logger.Debug("test connection opened", map[string]any{
		"url":      database.Redact(url),
		"managers": tc.Settings.Managers,
	})
}

// Seed runs payload with every configured manager disabled around it.
func (tc *TestCase) Seed(payload operation.Operation) error {
	return operation.Build(payload, tc.Managers...).Execute(context.Background(), tc.Conn)
}

// SeedSQL is Seed for a batch of statements.
func (tc *TestCase) SeedSQL(statements ...string) error {
	return tc.Seed(operation.Exec(statements...))
}

func (tc *TestCase) TearDownTest() {
	if tc.Conn != nil {
		tc.Conn.Close()
		tc.Conn = nil
	}
}

func (tc *TestCase) GetConn() *database.Connection {
	return tc.Conn
}

func (tc *TestCase) GetProjectRoot() string {
	return tc.projectRoot
}
