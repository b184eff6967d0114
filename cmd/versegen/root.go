package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/japaniel/versegen/internal/config"
)

// newRootCmd assembles the command tree. Flags are bound to viper keys so
// they override config files and VERSEGEN_* variables.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "versegen",
		Short:         "Metered, rhyming verse from word adjacency models",
		Long:          "versegen learns which words follow which from a text corpus and searches that model for lines that fit a stress pattern and rhyme.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			return config.Init(cfgFile)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default ./versegen.yaml or ./versegen.toml)")
	pf.String("db", "versegen.db", "SQLite path or libsql URL")
	pf.String("store", config.StoreSQLite, "model store: sqlite, libsql or redis")
	pf.String("redis-url", "redis://localhost:6379/0", "Redis URL for the redis store")
	pf.String("corpus", "default", "corpus name models are stored under")
	pf.StringSlice("corpus-paths", nil, "corpus files, directories or URLs")
	pf.String("dict", "cmudict.dict", "CMU pronouncing dictionary path")
	pf.String("strategy", "single", "search strategy: single or backtrack")
	pf.Int("max-attempts", 50, "whole-poem attempts before giving up")
	pf.Uint64("rand-seed", 0, "random seed for shuffling (0 = time based)")
	pf.Int("workers", 4, "tokenizer workers")
	pf.Int("batch-size", 50, "documents per write transaction")
	pf.String("forms", "", "TOML file with poem forms (default built-in)")
	pf.BoolP("verbose", "v", false, "log search steps")

	for key, flag := range map[string]string{
		"db":           "db",
		"store":        "store",
		"redis_url":    "redis-url",
		"corpus":       "corpus",
		"corpus_paths": "corpus-paths",
		"dict":         "dict",
		"strategy":     "strategy",
		"max_attempts": "max-attempts",
		"seed":         "rand-seed",
		"workers":      "workers",
		"batch_size":   "batch-size",
		"forms":        "forms",
		"verbose":      "verbose",
	} {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newBuildCmd(),
		newImportDictCmd(),
		newLineCmd(),
		newPoemCmd(),
		newPoemsCmd(),
		newFormsCmd(),
	)
	return root
}
