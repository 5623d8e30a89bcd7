package main

import (
	"bytes"
	"database/sql"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Yocrita/Yocrify/internal/repositories"
	"github.com/Yocrita/Yocrify/internal/shared"
	tu "github.com/Yocrita/Yocrify/internal/testing"
	"golang.org/x/oauth2"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			service := &tu.MockLibraryService{}

			runner := NewRunner(RunnerOpts{
				Config:  config,
				Logger:  logger,
				Output:  output,
				Service: service,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.service != service {
				t.Error("expected service to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("libraryService", func(t *testing.T) {
		t.Run("returns injected service", func(t *testing.T) {
			service := &tu.MockLibraryService{}
			runner := NewRunner(RunnerOpts{Service: service})

			got, err := runner.libraryService("user1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != service {
				t.Error("expected injected service to be returned")
			}
		})

		t.Run("builds spotify service over stored credentials", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{DB: setupTestDB(t)})

			got, err := runner.libraryService("user1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got.Name() != "Spotify" {
				t.Errorf("expected Spotify service, got %s", got.Name())
			}
		})
	})

	t.Run("resolveUser", func(t *testing.T) {
		t.Run("explicit flag wins", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{DB: setupTestDB(t)})

			userID, err := runner.resolveUser("flagged")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if userID != "flagged" {
				t.Errorf("expected flagged, got %s", userID)
			}
		})

		t.Run("falls back to last authenticated user", func(t *testing.T) {
			db := setupTestDB(t)
			repo := repositories.NewTokenRepository(db)
			token := &oauth2.Token{AccessToken: "access", Expiry: time.Now().Add(time.Hour)}
			if err := repo.Save("stored-user", token); err != nil {
				t.Fatalf("failed to save token: %v", err)
			}

			runner := NewRunner(RunnerOpts{DB: db})

			userID, err := runner.resolveUser("")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if userID != "stored-user" {
				t.Errorf("expected stored-user, got %s", userID)
			}
		})

		t.Run("no stored users", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{DB: setupTestDB(t)})

			_, err := runner.resolveUser("")
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes formatted text", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s\n", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if output.String() != "hello world\n" {
				t.Errorf("expected hello world, got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writePlain("hello"); err == nil {
				t.Fatal("expected error from failing writer")
			}
		})
	})
}
