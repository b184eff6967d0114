package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/japaniel/versegen/pkg/db"
	"github.com/japaniel/versegen/pkg/stanza"
)

func newPoemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poem",
		Short: "Compose a poem in a named form",
		RunE:  runPoem,
	}
	cmd.Flags().String("form", "quatrain", "poem form (see `versegen forms`)")
	cmd.Flags().Bool("save", false, "store the poem in the database")
	cmd.Flags().Bool("checked-forward", false, "build rhyming lines forward with a reachability check")
	return cmd
}

func runPoem(cmd *cobra.Command, args []string) error {
	formName, _ := cmd.Flags().GetString("form")
	save, _ := cmd.Flags().GetBool("save")
	checked, _ := cmd.Flags().GetBool("checked-forward")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	forms, err := stanza.LoadForms(a.cfg.Forms)
	if err != nil {
		return err
	}
	form, err := stanza.Find(forms, formName)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	m, err := a.loadModel(ctx)
	if err != nil {
		return err
	}
	rnd := a.newRand()
	s, ix, err := a.searcher(ctx, m, rnd)
	if err != nil {
		return err
	}

	c := stanza.NewComposer(s, m, ix, rnd)
	c.MaxAttempts = a.cfg.MaxAttempts
	c.CheckedForward = checked
	c.Logger = a.logger

	poem, err := c.Compose(ctx, form)
	if err != nil {
		return err
	}
	text := poem.Text()
	fmt.Fprintln(a.out, text)

	if save {
		id, err := db.SavePoem(a.conn, form.Name, a.cfg.Corpus, text)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "\nSaved as %s\n", id)
	}
	return nil
}

func newPoemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poems",
		Short: "List saved poems, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			poems, err := db.ListPoems(a.conn, limit)
			if err != nil {
				return err
			}
			for _, p := range poems {
				fmt.Fprintf(a.out, "%s  %s  %s  %s\n%s\n\n", p.ID, p.Form, p.Corpus, p.CreatedAt.Format("2006-01-02 15:04"), p.Body)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "number of poems to show")
	return cmd
}

func newFormsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forms",
		Short: "List available poem forms",
		RunE: func(cmd *cobra.Command, args []string) error {
			forms, err := stanza.LoadForms(viper.GetString("forms"))
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSCHEME\tLINES\tDESCRIPTION")
			for _, f := range forms {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", f.Name, f.Scheme(), len(f.Lines), strings.TrimSpace(f.Description))
			}
			return tw.Flush()
		},
	}
}
