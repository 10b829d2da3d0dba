package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/astrolabe-oss/corelib/cmd/corelib/internal"
	"github.com/astrolabe-oss/corelib/internal/platdb"
	"github.com/astrolabe-oss/corelib/internal/schema"
)

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <kind> <key=value>...",
		Short: "Show the first vertex matching every attribute",
		Long: `Show the first vertex of a kind whose attributes equal every given value.
"key=" matches vertices where the attribute is unset.`,
		Example: `  corelib get Compute address=10.0.0.1
  corelib get Application name=checkout -o json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := schema.ParseKind(args[0])
			if err != nil {
				return err
			}
			attrs, err := parseAttributes(args[1:])
			if err != nil {
				return err
			}

			return a.withStore(cmd.Context(), func(store *platdb.Store) error {
				v, err := store.FindOneByAttributes(cmd.Context(), kind, attrs)
				if err != nil {
					return err
				}
				return a.formatter(cmd).PrintData(vertexView(v))
			})
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <kind>",
		Short: "List every vertex of a kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := schema.ParseKind(args[0])
			if err != nil {
				return err
			}

			return a.withStore(cmd.Context(), func(store *platdb.Store) error {
				vs, err := store.List(cmd.Context(), kind)
				if err != nil {
					return err
				}
				return a.formatter(cmd).PrintData(vertexViews(vs))
			})
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "create <kind> <key=value>...",
		Short:   "Create a new vertex",
		Example: `  corelib create Application name=checkout`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := schema.ParseKind(args[0])
			if err != nil {
				return err
			}
			attrs, err := parseAttributes(args[1:])
			if err != nil {
				return err
			}
			v, err := schema.Decode(kind, attrs)
			if err != nil {
				return err
			}

			return a.withStore(cmd.Context(), func(store *platdb.Store) error {
				created, err := store.Create(cmd.Context(), v)
				if err != nil {
					return err
				}
				return a.formatter(cmd).PrintData(vertexView(created))
			})
		},
	}
}

func newUpdateCmd(a *app) *cobra.Command {
	var match, set []string

	cmd := &cobra.Command{
		Use:   "update <kind> --match key=value... --set key=value...",
		Short: "Update the first vertex matching every attribute",
		Long: `Update the first vertex of a kind matching every --match attribute with the
--set attributes. "--set key=" clears an attribute. Attributes the kind does
not declare are ignored.`,
		Example: `  corelib update Compute --match address=10.0.0.1 --set address=10.0.0.9`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := schema.ParseKind(args[0])
			if err != nil {
				return err
			}
			matchAttrs, err := parseAttributes(match)
			if err != nil {
				return err
			}
			setAttrs, err := parseAttributes(set)
			if err != nil {
				return err
			}

			return a.withStore(cmd.Context(), func(store *platdb.Store) error {
				v, err := store.UpdateByAttributes(cmd.Context(), kind, matchAttrs, setAttrs)
				if err != nil {
					return err
				}
				if v == nil {
					return internal.NewCLIError(internal.ExitNotFound,
						fmt.Sprintf("no %s matches %s", kind, describeAttributes(matchAttrs)))
				}
				return a.formatter(cmd).PrintData(vertexView(v))
			})
		},
	}

	cmd.Flags().StringArrayVarP(&match, "match", "m", nil, "Attribute the vertex must have (key=value, repeatable)")
	cmd.Flags().StringArrayVarP(&set, "set", "s", nil, "Attribute to write (key=value, repeatable)")
	_ = cmd.MarkFlagRequired("match")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <kind> <key=value>...",
		Short: "Delete the first vertex matching every attribute",
		Long: `Delete the first vertex of a kind matching every attribute, together with
its relationships.`,
		Example: `  corelib delete Application name=checkout`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := schema.ParseKind(args[0])
			if err != nil {
				return err
			}
			attrs, err := parseAttributes(args[1:])
			if err != nil {
				return err
			}

			return a.withStore(cmd.Context(), func(store *platdb.Store) error {
				deleted, err := store.DeleteByAttributes(cmd.Context(), kind, attrs)
				if err != nil {
					return err
				}
				if !deleted {
					return internal.NewCLIError(internal.ExitNotFound,
						fmt.Sprintf("no %s matches %s", kind, describeAttributes(attrs)))
				}
				return a.formatter(cmd).PrintSuccess(
					fmt.Sprintf("deleted %s matching %s", kind, describeAttributes(attrs)))
			})
		},
	}
}

func newUpsertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upsert <kind> <key=value>...",
		Short: "Create or update a vertex identified by address or dns_names",
		Long: `Create a Resource or TrafficController, or merge the attributes into the
existing vertex with the same address or, failing that, an overlapping
dns name. dns_names takes a comma separated list.`,
		Example: `  corelib upsert Resource address=10.0.0.5 dns_names=db.internal,db
  corelib upsert TrafficController dns_names=lb.example.com name=edge`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := schema.ParseKind(args[0])
			if err != nil {
				return err
			}
			attrs, err := parseAttributes(args[1:])
			if err != nil {
				return err
			}

			return a.withStore(cmd.Context(), func(store *platdb.Store) error {
				vs, err := store.CreateOrUpdate(cmd.Context(), kind, attrs)
				if err != nil {
					return err
				}
				return a.formatter(cmd).PrintData(vertexViews(vs))
			})
		},
	}
}
