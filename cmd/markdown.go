package cmd

import (
	"fmt"
	"log"

	"github.com/charmbracelet/glamour"
)

// printMarkdown renders md for the terminal, or prints it as is when it cannot.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		log.Printf("warning cannot render markdown: %v", err)
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		log.Printf("warning cannot render markdown: %v", err)
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
