package schema

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/turbolytics/shop-extractor/internal"
	"github.com/turbolytics/shop-extractor/internal/api"
	"github.com/turbolytics/shop-extractor/internal/cmd/kbc"
)

var ErrNoShops = errors.New("no shops configured")

type columns struct {
	ColumnNames []string `yaml:"column_names"`
}

// Columns lists the keys of records in first-seen order followed by the
// annotation columns not already present.
func Columns(records []*internal.Record) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	for _, r := range records {
		if r == nil {
			continue
		}
		for _, f := range r.Fields() {
			add(f)
		}
	}
	for _, f := range internal.AnnotationFields {
		add(f)
	}
	return out
}

func newGenerateCommand() *cobra.Command {
	var v *viper.Viper

	var cmd = &cobra.Command{
		Use:   "generate",
		Short: "Generates column_names from the first page of the first configured shop",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, logger, err := kbc.Setup(v, cmd.ErrOrStderr(), "schema.generate")
			if err != nil {
				return err
			}
			defer logger.Close()
			l := logger.Named("schema.generate")

			params := c.Parameters
			if len(params.Shops) == 0 {
				return ErrNoShops
			}
			shop := params.Shops[0]
			l.Info("fetching sample page", zap.Object("shop", shop))

			client := api.New(params.APIURL, api.WithLogger(l))
			page, err := client.FetchPage(cmd.Context(), shop.ClientID, 1)
			if err != nil {
				l.Error("fetching sample page", zap.Error(err))
				return err
			}

			bs, err := yaml.Marshal(columns{ColumnNames: Columns(page.Data)})
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), string(bs))
			return nil
		},
	}

	v = kbc.NewViper(cmd)
	return cmd
}
