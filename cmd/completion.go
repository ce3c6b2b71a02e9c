package cmd

import (
	"flag"

	"github.com/etnz/pricedb/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// boolFlag is implemented by the flag values that take no argument.
type boolFlag interface {
	IsBoolFlag() bool
}

// Completion describes the command line for shell completion, derived from the subcommands' flags.
func Completion() *complete.Command {
	root := &complete.Command{Sub: make(map[string]*complete.Command)}
	for _, c := range Commands {
		fs := flag.NewFlagSet(c.Command.Name(), flag.ContinueOnError)
		c.Command.SetFlags(fs)

		sub := &complete.Command{Flags: make(map[string]complete.Predictor)}
		fs.VisitAll(func(f *flag.Flag) {
			switch {
			case f.Name == "market":
				sub.Flags[f.Name] = predict.Set(Markets)
			case isBool(f):
				sub.Flags[f.Name] = predict.Nothing
			default:
				sub.Flags[f.Name] = predict.Something
			}
		})
		switch c.Command.Name() {
		case "update", "prices", "clean":
			sub.Args = predict.Files("*.jsonl")
		case "topic":
			if topics, err := docs.GetAllTopics(); err == nil {
				sub.Args = predict.Set(topics)
			}
		}
		root.Sub[c.Command.Name()] = sub
	}
	return root
}

func isBool(f *flag.Flag) bool {
	b, ok := f.Value.(boolFlag)
	return ok && b.IsBoolFlag()
}
