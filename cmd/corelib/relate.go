package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/astrolabe-oss/corelib/internal/platdb"
	"github.com/astrolabe-oss/corelib/internal/schema"
	"github.com/astrolabe-oss/corelib/internal/types"
)

func newRelateCmd(a *app) *cobra.Command {
	var from, to, props []string

	cmd := &cobra.Command{
		Use:   "relate <kind> <field> --from key=value... --to key=value...",
		Short: "Connect two vertices through a relationship field",
		Long: `Connect the first vertex matching --from to the first vertex matching --to
through a relationship field of <kind>. The --to vertex must be of the kind
the field points at. The edge direction follows the field declaration.`,
		Example: `  corelib relate Compute applications --from address=10.0.0.1 --to name=checkout
  corelib relate Application calls --from name=checkout --to name=payments --prop protocol=http`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := schema.ParseKind(args[0])
			if err != nil {
				return err
			}
			ks, err := schema.Lookup(kind)
			if err != nil {
				return err
			}
			field := args[1]
			rel, ok := ks.Relationship(field)
			if !ok {
				return types.WrapError(types.UNKNOWN_RELATIONSHIP,
					fmt.Sprintf("%s has no relationship %q", kind, field), schema.ErrUnknownRelation)
			}

			fromAttrs, err := parseAttributes(from)
			if err != nil {
				return err
			}
			toAttrs, err := parseAttributes(to)
			if err != nil {
				return err
			}
			propAttrs, err := parseAttributes(props)
			if err != nil {
				return err
			}

			return a.withStore(cmd.Context(), func(store *platdb.Store) error {
				v, err := store.FindOneByAttributes(cmd.Context(), kind, fromAttrs)
				if err != nil {
					return err
				}
				other, err := store.FindOneByAttributes(cmd.Context(), rel.Target, toAttrs)
				if err != nil {
					return err
				}
				if err := store.Relate(cmd.Context(), v, field, other, propAttrs); err != nil {
					return err
				}
				return a.formatter(cmd).PrintSuccess(fmt.Sprintf("related %s %s -[%s]- %s %s",
					kind, v.ElementID(), rel.Type, rel.Target, other.ElementID()))
			})
		},
	}

	cmd.Flags().StringArrayVar(&from, "from", nil, "Attribute of the source vertex (key=value, repeatable)")
	cmd.Flags().StringArrayVar(&to, "to", nil, "Attribute of the target vertex (key=value, repeatable)")
	cmd.Flags().StringArrayVar(&props, "prop", nil, "Relationship property (key=value, repeatable)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
