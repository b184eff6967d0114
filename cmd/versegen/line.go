package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/japaniel/versegen/pkg/search"
	"github.com/japaniel/versegen/pkg/verse"
)

func newLineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "line",
		Short: "Generate one line",
		Long: "Line grows a line from --seed until it fills --meter. --backward makes the seed the last word; " +
			"--from-rhyme ends the line in a rhyme of the seed; --rhyme keeps only forward paths that can end in a rhyme of the given word.",
		RunE: runLine,
	}
	f := cmd.Flags()
	f.String("seed", "", "seed word (required)")
	f.String("meter", string(verse.IambicPentameter), "stress pattern over 0 and 1")
	f.Bool("backward", false, "build the line backward, ending with the seed")
	f.Bool("from-rhyme", false, "end the line with a rhyme of the seed")
	f.String("rhyme", "", "require the line to end in a rhyme of this word")
	_ = cmd.MarkFlagRequired("seed")
	return cmd
}

func runLine(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	seed, _ := f.GetString("seed")
	rawMeter, _ := f.GetString("meter")
	backward, _ := f.GetBool("backward")
	fromRhyme, _ := f.GetBool("from-rhyme")
	rhymeTarget, _ := f.GetString("rhyme")

	m, err := verse.ParseMeter(rawMeter)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	mod, err := a.loadModel(ctx)
	if err != nil {
		return err
	}
	s, _, err := a.searcher(ctx, mod, a.newRand())
	if err != nil {
		return err
	}

	line, err := s.GenerateLine(search.Request{
		Seed:        seed,
		Meter:       m,
		Reverse:     backward,
		FromRhyme:   fromRhyme,
		RhymeTarget: rhymeTarget,
	})
	if err != nil {
		if verse.IsRetryable(err) {
			return fmt.Errorf("%w (try another seed or --strategy backtrack)", err)
		}
		return err
	}
	fmt.Fprintln(a.out, line.Text())
	if a.cfg.Verbose {
		fmt.Fprintf(a.out, "  stress: %s\n", line.Stress())
	}
	return nil
}
