package fixtures

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/turbolytics/shop-extractor/internal/fixtures"
)

// Options returns the fixture server options serving products for each
// client id. Client ids get distinct, stable product sets.
func Options(clientIDs []string, products, pageSize int) []fixtures.Option {
	opts := []fixtures.Option{fixtures.WithPageSize(pageSize)}
	for i, id := range clientIDs {
		opts = append(opts, fixtures.WithShop(id, fixtures.Products(int64(i+1), products)))
	}
	return opts
}

func newServeCommand() *cobra.Command {
	var addr string
	var clientIDs []string
	var products int
	var pageSize int

	var cmd = &cobra.Command{
		Use:   "serve",
		Short: "Serves a fake product listing API for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger, _ := zap.NewDevelopment()
			defer logger.Sync()
			l := logger.Named("fixtures.serve")

			opts := append(Options(clientIDs, products, pageSize), fixtures.WithLogger(l))
			s := fixtures.New(opts...)

			srv := &http.Server{
				Addr:    addr,
				Handler: s.Routes(),
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()

			l.Info("Starting server",
				zap.String("address", addr),
				zap.Strings("client_ids", clientIDs),
				zap.Int("products", products),
				zap.Int("page_size", pageSize),
			)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Address to listen on")
	cmd.Flags().StringSliceVar(&clientIDs, "client-id", []string{"test"}, "Client ids to serve products for")
	cmd.Flags().IntVar(&products, "products", 25, "Number of products per client id")
	cmd.Flags().IntVar(&pageSize, "page-size", 10, "Number of products per page")

	return cmd
}
