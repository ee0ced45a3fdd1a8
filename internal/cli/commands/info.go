package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/queryconsole/pkg/core"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// InfoOptions holds options for the info command.
type InfoOptions struct {
	Format string
}

// NewInfoCommand creates the info command.
func NewInfoCommand() *cobra.Command {
	opts := &InfoOptions{}

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Describe the persistence units",
		Long: `List the configured persistence units with their managed entities and
named queries, as the console sees them.`,
		Example: `  queryconsole info
  queryconsole info --format yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			b, err := cc.OpenBackend(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			info, err := b.Service.GetInfo(cmd.Context())
			if err != nil {
				return err
			}
			return renderInfo(cmd.OutOrStdout(), info, opts.Format)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "text", "Output format: text, json, yaml")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// infoDocument is the yaml shape of the catalog.
type infoDocument struct {
	PersistenceUnits []infoUnit `yaml:"persistence_units"`
}

type infoUnit struct {
	Name         string            `yaml:"name"`
	Datasource   string            `yaml:"datasource,omitempty"`
	Entities     []infoEntity      `yaml:"entities"`
	NamedQueries map[string]string `yaml:"named_queries,omitempty"`
}

type infoEntity struct {
	Name      string `yaml:"name"`
	Table     string `yaml:"table,omitempty"`
	ClassName string `yaml:"class_name,omitempty"`
}

func renderInfo(w io.Writer, info *core.DevInfo, format string) error {
	switch format {
	case "json":
		return renderJSON(w, info)
	case "yaml":
		doc := infoDocument{PersistenceUnits: []infoUnit{}}
		for _, pu := range info.PersistenceUnits {
			u := infoUnit{Name: pu.Name, Datasource: pu.Datasource, Entities: []infoEntity{}}
			for _, e := range pu.ManagedEntities {
				u.Entities = append(u.Entities, infoEntity{Name: e.Name, Table: e.TableName, ClassName: e.ClassName})
			}
			if len(pu.NamedQueries) > 0 {
				u.NamedQueries = make(map[string]string, len(pu.NamedQueries))
				for _, q := range pu.NamedQueries {
					u.NamedQueries[q.Name] = q.Query
				}
			}
			doc.PersistenceUnits = append(doc.PersistenceUnits, u)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		return renderInfoText(w, info)
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

func renderInfoText(w io.Writer, info *core.DevInfo) error {
	_, _ = fmt.Fprintf(w, "%d persistence units, %d entity types, %d named queries\n",
		info.NumberOfPersistenceUnits(), info.NumberOfEntities(), info.NumberOfNamedQueries())

	for _, pu := range info.PersistenceUnits {
		_, _ = fmt.Fprintln(w)
		title := pu.Name
		if pu.Datasource != "" {
			title = fmt.Sprintf("%s (datasource %s)", pu.Name, pu.Datasource)
		}

		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.SetTitle(title)
		t.AppendHeader(table.Row{"Entity", "Table", "Class"})
		for _, e := range pu.ManagedEntities {
			t.AppendRow(table.Row{e.Name, e.TableName, e.ClassName})
		}
		t.Render()

		for _, q := range pu.NamedQueries {
			_, _ = fmt.Fprintf(w, "  %s: %s\n", q.Name, q.Query)
		}
	}
	return nil
}
