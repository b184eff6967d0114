package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/japaniel/versegen/pkg/db"
	"github.com/japaniel/versegen/pkg/phonetic"
)

func newImportDictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-dict [path]",
		Short: "Load a CMU pronouncing dictionary into the database",
		Long:  "Import-dict parses a CMU dictionary file, downloading it first if it is missing, and stores every pronunciation so later runs need not parse the file.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				viper.Set("dict", args[0])
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := phonetic.EnsureDictionary(cmd.Context(), a.cfg.Dict, a.logger); err != nil {
				return fmt.Errorf("ensure dictionary: %w", err)
			}
			fmt.Fprintf(a.out, "Loading dictionary from %s...\n", a.cfg.Dict)
			d, err := phonetic.Load(a.cfg.Dict)
			if err != nil {
				return fmt.Errorf("load dictionary: %w", err)
			}
			fmt.Fprintf(a.out, "Loaded %d words. Importing...\n", d.Len())

			n, err := db.ImportPronunciations(a.conn, d, a.logger)
			if err != nil {
				return fmt.Errorf("import pronunciations: %w", err)
			}
			fmt.Fprintf(a.out, "Imported %d pronunciations.\n", n)
			return nil
		},
	}
}
