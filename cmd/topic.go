package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/pricedb/docs"
	"github.com/google/subcommands"
)

// topicCmd prints the embedded documentation.
type topicCmd struct {
	list bool
	raw  bool
}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "read the documentation" }
func (*topicCmd) Usage() string {
	return `pdbupdate topic [flags] [<topic>...]

  Shows the documentation topics, the index when none is named. "*" shows them all.
`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.list, "list", false, "list the topic names")
	f.BoolVar(&c.raw, "raw", false, "print the markdown source instead of rendering it")
}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.list {
		topics, err := docs.GetAllTopics()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Println(strings.Join(topics, "\n"))
		return subcommands.ExitSuccess
	}

	topics := f.Args()
	if len(topics) == 0 {
		topics = []string{"readme"}
	}
	md, err := docs.GetTopics(topics...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.raw {
		fmt.Print(md)
	} else {
		printMarkdown(md)
	}
	return subcommands.ExitSuccess
}
