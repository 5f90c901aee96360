package cli

import (
	"fmt"
	"os"

	"silicon-lab-service/internal/app"
	"silicon-lab-service/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewExportCmd writes a classroom's roster as CSV, to stdout or a file.
// Useful when the teacher wants results without going through the dashboard.
func NewExportCmd(configPath *string) *cobra.Command {
	var output string
	var sortField string

	cmd := &cobra.Command{
		Use:   "export <classroom-code>",
		Short: "Export a classroom roster as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Redis.Addr == "" {
				return fmt.Errorf("export needs a redis-backed store; set redis.addr in config")
			}
			redisClient := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer redisClient.Close()

			service := buildService(cfg, redisClient, nil)
			roster, err := service.Roster(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			app.SortRoster(roster, sortField, true)

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return app.WriteRosterCSV(out, roster)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write CSV to file instead of stdout")
	cmd.Flags().StringVar(&sortField, "sort", "points", "sort column: points or exp")
	return cmd
}
