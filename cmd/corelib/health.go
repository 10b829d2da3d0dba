package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/astrolabe-oss/corelib/cmd/corelib/internal"
	"github.com/astrolabe-oss/corelib/internal/platdb"
)

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check connectivity to Neo4j",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConnection(cmd.Context(), func(conn *platdb.Connection) error {
				status := conn.Health(cmd.Context())

				var err error
				if a.format == internal.FormatText {
					err = a.formatter(cmd).PrintTable(
						[]string{"component", "state", "latency", "message"},
						[][]string{{"neo4j", status.State.String(), status.Latency.Round(time.Millisecond).String(), status.Message}},
					)
				} else {
					err = a.formatter(cmd).PrintData(status)
				}
				if err != nil {
					return err
				}

				if !status.IsHealthy() {
					return internal.NewCLIError(internal.ExitDatabaseError,
						fmt.Sprintf("neo4j is %s: %s", status.State, status.Message))
				}
				return nil
			})
		},
	}
}

func newConstraintsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "constraints",
		Short: "Create the uniqueness constraints declared by the schema",
		Long: `Create a uniqueness constraint for every unique attribute of every vertex
kind. Existing constraints are left in place, so the command can be rerun.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store *platdb.Store) error {
				if err := store.EnsureConstraints(cmd.Context()); err != nil {
					return err
				}
				return a.formatter(cmd).PrintSuccess("uniqueness constraints are in place")
			})
		},
	}
}
