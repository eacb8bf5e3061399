// telemetry_export reads a session stored by the SQL recorder and writes it
// as a JSON document, gzip compressed by default.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gorm.io/gorm"

	"github.com/OCAP2/telemetry-bridge/internal/config"
	"github.com/OCAP2/telemetry-bridge/internal/database"
	"github.com/OCAP2/telemetry-bridge/internal/recorder"
	sqlrecorder "github.com/OCAP2/telemetry-bridge/internal/recorder/sql"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var (
		configDir string
		session   string
		outPath   string
		list      bool
		plain     bool
	)

	flagSet := pflag.NewFlagSet("telemetry_export", pflag.ContinueOnError)
	flagSet.SetOutput(stdout)
	flagSet.StringVar(&configDir, "config-dir", ".", "directory holding telemetry_bridge.cfg.json")
	flagSet.StringVar(&session, "session", "latest", "session id to export")
	flagSet.StringVarP(&outPath, "out", "o", "", "output file (default: <session id>.json.gz, - for stdout)")
	flagSet.BoolVar(&list, "list", false, "list stored sessions and exit")
	flagSet.BoolVar(&plain, "no-gzip", false, "write plain JSON")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := config.Load(configDir); err != nil && !errors.Is(err, config.ErrNotFound) {
		return err
	}
	db, err := openRecording(configDir, config.GetRecorderConfig())
	if err != nil {
		return err
	}
	defer database.Close(db)

	sessions, err := sqlrecorder.ListSessions(db)
	if err != nil {
		return err
	}
	if list {
		for _, s := range sessions {
			fmt.Fprintf(stdout, "%s\t%s\t%s %s\n", s.ID, s.StartedAt.UTC().Format("2006-01-02 15:04:05"), s.GameID, s.GameVersion)
		}
		return nil
	}

	if session == "latest" {
		if len(sessions) == 0 {
			return sqlrecorder.ErrSessionNotFound
		}
		session = sessions[0].ID
	}
	rec, err := sqlrecorder.LoadRecording(db, session)
	if err != nil {
		return err
	}

	var w io.Writer = stdout
	if outPath != "-" {
		if outPath == "" {
			outPath = session + ".json"
			if !plain {
				outPath += ".gz"
			}
		}
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := WriteExport(w, BuildExport(rec), !plain); err != nil {
		return err
	}
	if outPath != "-" {
		fmt.Fprintf(stdout, "Exported %d frames and %d events of session %s to %s\n",
			len(rec.Frames), len(rec.Events), session, outPath)
	}
	return nil
}

// openRecording opens the database the SQL recorder writes to.
func openRecording(configDir string, cfg config.RecorderConfig) (*gorm.DB, error) {
	switch strings.ToLower(cfg.Type) {
	case recorder.TypeSQLite:
		path := config.ResolvePath(configDir, cfg.SQLite.Path)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("no recording database: %w", err)
		}
		return database.OpenSQLite(path)
	case recorder.TypePostgres:
		return database.OpenPostgres(cfg.Postgres)
	default:
		return nil, fmt.Errorf("recorder type %q does not store sessions in a database", cfg.Type)
	}
}
