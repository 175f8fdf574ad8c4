package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/turbolytics/shop-extractor/internal"
	"github.com/turbolytics/shop-extractor/internal/api"
	"github.com/turbolytics/shop-extractor/internal/archiver"
	"github.com/turbolytics/shop-extractor/internal/cmd/kbc"
	"github.com/turbolytics/shop-extractor/internal/config"
	lcsv "github.com/turbolytics/shop-extractor/internal/csv"
	"github.com/turbolytics/shop-extractor/internal/extractor"
	"github.com/turbolytics/shop-extractor/internal/local"
	"github.com/turbolytics/shop-extractor/internal/s3"
)

func newRunCommand() *cobra.Command {
	var v *viper.Viper

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Extracts the products of every configured shop into a CSV table",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			c, logger, err := kbc.Setup(v, cmd.OutOrStdout(), "run")
			if err != nil {
				return err
			}
			defer logger.Close()

			runID := uuid.Must(uuid.NewUUID()).String()
			l := logger.Named("run").With(zap.String("run_id", runID))

			if err := run(ctx, l, v.GetString("datadir"), runID, c.Parameters); err != nil {
				l.Error("run failed", zap.Error(err))
				return err
			}
			return nil
		},
	}

	v = kbc.NewViper(cmd)
	return cmd
}

func run(ctx context.Context, l *zap.Logger, dataDir, runID string, params config.Parameters) error {
	l.Info("starting extraction",
		zap.Int("shops", len(params.Shops)),
		zap.Duration("interbatch_sleep", params.InterbatchSleep()),
		zap.Int("max_fails_per_call", params.MaxFails()),
	)

	resultsPath := kbc.ResultsPath(dataDir)
	w, err := lcsv.Create(resultsPath, params.ColumnNames, lcsv.WithLogger(l))
	if err != nil {
		return err
	}
	defer w.Close()

	e := extractor.New(
		extractor.WithLogger(l),
		extractor.WithFetcher(api.New(params.APIURL, api.WithLogger(l.Named("api")))),
		extractor.WithSink(w),
		extractor.WithShops(params.Shops),
		extractor.WithDelay(params.InterbatchSleep()),
		extractor.WithMaxFailsPerCall(params.MaxFails()),
		extractor.WithRunID(runID),
		extractor.WithSource(params.APIURL),
	)

	cat, err := e.Run(ctx)
	l.Info("extraction finished", zap.Object("catalog", cat))
	if err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	if params.Archive == nil {
		return nil
	}

	repository, err := newRepository(params.Archive, l)
	if err != nil {
		return err
	}
	a := archiver.New(
		archiver.WithLogger(l.Named("archiver")),
		archiver.WithRepository(repository),
		archiver.WithFormat(params.Archive.Format),
	)
	return a.Archive(ctx, resultsPath, params.ColumnNames, cat)
}

func newRepository(a *config.Archive, l *zap.Logger) (internal.Repository, error) {
	switch a.Type {
	case "local":
		return local.New(a.Local.Path, local.WithLogger(l)), nil
	case "s3":
		return s3.New(
			s3.WithLogger(l),
			s3.WithRegion(a.S3.Region),
			s3.WithBucket(a.S3.Bucket),
			s3.WithEndpoint(a.S3.Endpoint),
			s3.WithPrefix(a.S3.Prefix),
			s3.WithForcePathStyle(a.S3.ForcePathStyle),
		)
	default:
		return nil, fmt.Errorf("unknown repository type: %s", a.Type)
	}
}
