// Command gymtrack-export downloads a full backup from a running GymTrack
// server, or restores one. Export writes the JSON document to a file or
// stdout; restore posts it back and the server applies it to the signed-in
// user's data.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/claude/gymtrack/internal/models"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "GymTrack server URL (e.g. https://gymtrack.tail1234.ts.net)")
	out := flag.String("out", "", "write the backup to this file instead of stdout")
	restore := flag.String("restore", "", "path to a backup file to upload instead of exporting")
	apiKey := flag.String("api-key", os.Getenv("GYMTRACK_API_KEY"), "API key for restore (or GYMTRACK_API_KEY)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("gymtrack-export", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: gymtrack-export -server <URL> [-out backup.json]\n")
		fmt.Fprintf(os.Stderr, "       gymtrack-export -server <URL> -restore backup.json -api-key <key>\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	*serverURL = strings.TrimRight(*serverURL, "/")

	client := &http.Client{Timeout: 60 * time.Second}

	var err error
	if *restore != "" {
		err = runRestore(client, *serverURL, *restore, *apiKey, log)
	} else {
		err = runExport(client, *serverURL, *out, log)
	}
	if err != nil {
		log.Error("failed", "error", err)
		os.Exit(1)
	}
}

func runExport(client *http.Client, serverURL, out string, log *slog.Logger) error {
	resp, err := client.Get(serverURL + "/api/v1/export")
	if err != nil {
		return fmt.Errorf("requesting export: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading export body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// Sanity-check before writing anything to disk
	doc, err := models.ParseBackup(body)
	if err != nil {
		return fmt.Errorf("validating export: %w", err)
	}

	if out == "" {
		if _, err := os.Stdout.Write(body); err != nil {
			return fmt.Errorf("writing stdout: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(out, body, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	log.Info("backup written",
		"path", out,
		"exercises", len(doc.Exercises),
		"routine_days", len(doc.Routine),
		"sessions", len(doc.History),
	)
	return nil
}

func runRestore(client *http.Client, serverURL, path, apiKey string, log *slog.Logger) error {
	if apiKey == "" {
		return fmt.Errorf("restore requires -api-key or GYMTRACK_API_KEY")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	// Reject malformed documents locally before touching the server
	doc, err := models.ParseBackup(data)
	if err != nil {
		return fmt.Errorf("validating %s: %w", path, err)
	}
	log.Info("uploading backup",
		"path", path,
		"exercises", len(doc.Exercises),
		"routine_days", len(doc.Routine),
		"sessions", len(doc.History),
	)

	req, err := http.NewRequest(http.MethodPost, serverURL+"/api/v1/import", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("uploading backup: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	log.Info("backup restored")
	return nil
}
