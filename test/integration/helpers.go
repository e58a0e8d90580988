// +build integration

package integration

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	APIEndpoint  string
	APIKey       string
	Username     string
	Password     string
	Organisation string
	MapiPath     string
	Verbose      bool
}

// LoadTestConfig loads configuration from environment variables.
// The MAPI_TEST_ prefix keeps these out of the binary's own MAPI_
// environment namespace, so the CLI under test never picks them up.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		APIEndpoint:  os.Getenv("MAPI_TEST_ENDPOINT"),
		APIKey:       os.Getenv("MAPI_TEST_API_KEY"),
		Username:     os.Getenv("MAPI_TEST_USERNAME"),
		Password:     os.Getenv("MAPI_TEST_PASSWORD"),
		Organisation: os.Getenv("MAPI_TEST_ORGANISATION"),
		MapiPath:     getMapiPath(),
		Verbose:      os.Getenv("MAPI_TEST_VERBOSE") == "true",
	}
}

// getMapiPath determines the path to the mapi binary
func getMapiPath() string {
	if path := os.Getenv("MAPI_BINARY_PATH"); path != "" {
		return path
	}

	// Try common locations
	candidates := []string{
		"../../mapi",
		"./mapi",
		"../mapi",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "mapi" // Fallback to PATH
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	if config.APIEndpoint == "" {
		t.Skip("MAPI_TEST_ENDPOINT not set, skipping integration test")
	}

	if _, err := os.Stat(config.MapiPath); os.IsNotExist(err) {
		t.Skipf("mapi binary not found at %s, skipping integration test", config.MapiPath)
	}
}

// CommandRunner provides utilities for running mapi commands
type CommandRunner struct {
	config     *TestConfig
	configPath string
	t          *testing.T
}

// NewCommandRunner creates a new command runner. Every invocation is
// pinned to a per-test config file so tests never touch ~/.mapi.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{
		config:     config,
		configPath: filepath.Join(t.TempDir(), "config.yml"),
		t:          t,
	}
}

// Run executes a mapi command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	fullArgs := append([]string{"--config", runner.configPath}, args...)
	cmd := exec.Command(runner.config.MapiPath, fullArgs...)
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.MapiPath, strings.Join(fullArgs, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// RunWithInput executes a mapi command with stdin input
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	fullArgs := append([]string{"--config", runner.configPath}, args...)
	cmd := exec.Command(runner.config.MapiPath, fullArgs...)
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.Stdin = strings.NewReader(input)

	if runner.config.Verbose {
		runner.t.Logf("Running with input: %s %s", runner.config.MapiPath, strings.Join(fullArgs, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// LoginWithKey logs in with the deployment API key
func (runner *CommandRunner) LoginWithKey() error {
	_, stderr, err := runner.Run("login",
		"--api", runner.config.APIEndpoint,
		"--api-key", runner.config.APIKey)
	if err != nil {
		return fmt.Errorf("failed to log in with API key: %s", stderr)
	}
	return nil
}

// LoginWithPassword logs in with management credentials
func (runner *CommandRunner) LoginWithPassword() error {
	args := []string{"login",
		"--api", runner.config.APIEndpoint,
		"--username", runner.config.Username,
		"--password", runner.config.Password}
	if runner.config.Organisation != "" {
		args = append(args, "--organisation", runner.config.Organisation)
	}

	_, stderr, err := runner.Run(args...)
	if err != nil {
		return fmt.Errorf("failed to log in with credentials: %s", stderr)
	}
	return nil
}

// AssertJSONOutput verifies command output is valid JSON
func AssertJSONOutput(t *testing.T, output string) {
	// Basic JSON validation
	output = strings.TrimSpace(output)
	if !strings.HasPrefix(output, "{") && !strings.HasPrefix(output, "[") {
		t.Errorf("Output does not appear to be JSON: %s", output)
	}
}

// AssertYAMLOutput verifies command output is valid YAML
func AssertYAMLOutput(t *testing.T, output string) {
	// Basic YAML validation
	output = strings.TrimSpace(output)
	if strings.Contains(output, "---") || strings.Contains(output, ":") {
		return // Looks like YAML
	}
	t.Errorf("Output does not appear to be YAML: %s", output)
}
