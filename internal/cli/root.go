// Package cli implements the huginnctl operator commands.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"huginn/internal/archive"
	"huginn/internal/config"
	"huginn/internal/contextutil"
	"huginn/internal/ingest"
	"huginn/internal/logging"
	"huginn/internal/objectstore"
	"huginn/internal/storage"
)

// app holds the state shared by subcommands for a single invocation.
type app struct {
	dbPath    string
	uploadDir string
	verbose   bool

	cfg    *config.Config
	db     *sql.DB
	notes  *storage.NoteRepo
	logger *slog.Logger
	closer io.Closer
}

// NewRootCommand builds the huginnctl command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "huginnctl",
		Short: "Operate a huginn note archive",
		Long: `huginnctl ingests note archives and queries the full-text index
of a huginn database directly, without going through the HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&a.dbPath, "db", "d", "", "Database path (default: $DB_PATH or ./huginn.db)")
	root.PersistentFlags().StringVarP(&a.uploadDir, "upload-dir", "u", "", "Extraction root (default: $UPLOAD_DIR or ./uploads)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log at debug level")

	root.AddCommand(
		newIngestCommand(a),
		newSearchCommand(a),
		newDeleteCommand(a),
		newStatsCommand(a),
	)
	return root
}

// Execute runs the root command against os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// open loads configuration and opens the database. Callers must defer close.
func (a *app) open(cmd *cobra.Command) (context.Context, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	if a.uploadDir != "" {
		cfg.UploadDir = a.uploadDir
	}
	if a.verbose {
		cfg.LogLevel = slog.LevelDebug
	}
	a.cfg = cfg

	// Logs go to stderr so command output stays machine readable.
	a.logger, a.closer = logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
		Stdout: cmd.ErrOrStderr(),
	})

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		_ = a.closer.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		_ = a.closer.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	a.db = db
	a.notes = storage.NewNoteRepo(db)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return contextutil.WithLogger(ctx, a.logger), nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
	if a.closer != nil {
		_ = a.closer.Close()
		a.closer = nil
	}
}

// pipeline wires the ingestion pipeline, mirroring payloads when configured.
func (a *app) pipeline(ctx context.Context) (*ingest.Pipeline, error) {
	var mirror ingest.Mirror
	if a.cfg.MirrorEnabled() {
		m, err := objectstore.NewMirror(ctx, objectstore.Options{
			Endpoint:  a.cfg.MinIOEndpoint,
			AccessKey: a.cfg.MinIOAccessKey,
			SecretKey: a.cfg.MinIOSecretKey,
			Bucket:    a.cfg.MinIOBucket,
			UseSSL:    a.cfg.MinIOUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to object storage: %w", err)
		}
		mirror = m
	}

	extractor := archive.NewExtractor(a.cfg.UploadDir, a.cfg.MaxExtractBytes)
	return ingest.NewPipeline(extractor, a.notes, mirror, a.cfg.IngestTimeout), nil
}
