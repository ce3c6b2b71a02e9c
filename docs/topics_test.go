package docs

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Fenced block info strings executed by TestScenarios.
const (
	bashSetup    = "bash setup"   // starts a scenario in a new directory
	bashRun      = "bash run"     // its output is checked by the next console check
	consoleCheck = "console check"
	bashCheck    = "bash check" // must exit with 0
)

// TestTopics checks that docs/readme.md lists exactly the topics there are.
func TestTopics(t *testing.T) {
	index, err := os.ReadFile("readme.md")
	if err != nil {
		t.Fatal(err)
	}
	var listed []string
	for _, m := range regexp.MustCompile(`(?m)^\*\s+([^:]+):`).FindAllSubmatch(index, -1) {
		topic := strings.TrimSpace(string(m[1]))
		listed = append(listed, topic)
		if _, err := GetTopic(topic); err != nil {
			t.Errorf("readme.md lists %q: %v", topic, err)
		}
	}

	topics, err := GetAllTopics()
	if err != nil {
		t.Fatal(err)
	}
	for _, topic := range topics {
		if !slices.Contains(listed, topic) {
			t.Errorf("topic %q is not listed in docs/readme.md", topic)
		}
	}
}

func TestGetTopics(t *testing.T) {
	all, err := GetTopic("*")
	if err != nil {
		t.Fatalf("GetTopic(*) unexpected error: %v", err)
	}
	for _, title := range []string{"# Updating prices", "# The JSONL ledger", "# Quote sources", "# GnuCash books"} {
		if !strings.Contains(all, title) {
			t.Errorf("GetTopic(*) misses %q", title)
		}
	}
	if _, err := GetTopics("update", "nope"); err == nil {
		t.Error("GetTopics() expected an error for an unknown topic")
	}
}

// TestScenarios runs the scenarios of the documentation against the built command.
func TestScenarios(t *testing.T) {
	files, err := filepath.Glob("*.md")
	if err != nil {
		t.Fatal(err)
	}
	files = append(files, "../README.md")

	bin := buildPdbupdate(t)
	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			blocks := parseBlocks(t, file)
			if len(blocks) == 0 {
				return
			}
			env := append(os.Environ(),
				fmt.Sprintf("PATH=%s%c%s", bin, os.PathListSeparator, os.Getenv("PATH")),
				// Scenarios never reach the network with real keys.
				"EODHD_API_KEY=", "COINGECKO_API_KEY=")
			s := scenario{env: env, dir: t.TempDir()}
			for _, b := range blocks {
				s.run(t, b)
			}
		})
	}
}

// block is a fenced code block to execute.
type block struct {
	kind    string
	content string
	pos     string // file:line, for messages
}

// buildPdbupdate builds the command and returns the directory it is in.
func buildPdbupdate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	out, err := exec.Command("go", "build", "-o", filepath.Join(dir, "pdbupdate"), "../pdbupdate/").CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build pdbupdate: %v\n%s", err, out)
	}
	return dir
}

// parseBlocks returns the executable blocks of a markdown file, in order.
func parseBlocks(t *testing.T, file string) []block {
	t.Helper()
	src, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read %s: %v", file, err)
	}
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var blocks []block
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !entering || !ok || fcb.Info == nil {
			return ast.WalkContinue, nil
		}
		info := fcb.Info.Segment.Value(src)
		switch kind := string(info); kind {
		case bashSetup, bashRun, consoleCheck, bashCheck:
			var content strings.Builder
			lines := fcb.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				content.Write(seg.Value(src))
			}
			line := bytes.Count(src[:fcb.Info.Segment.Start], []byte("\n")) + 1
			blocks = append(blocks, block{kind, content.String(), fmt.Sprintf("%s:%d", file, line)})
		}
		return ast.WalkContinue, nil
	})
	return blocks
}

// scenario executes the blocks of a file one after the other.
type scenario struct {
	env    []string
	dir    string
	output string // of the last bash run
}

func (s *scenario) run(t *testing.T, b block) {
	t.Helper()
	if b.kind == consoleCheck {
		if got, want := strings.TrimSpace(s.output), strings.TrimSpace(b.content); got != want {
			t.Errorf("%s: output mismatch:\ngot:\n\n%s\n\nwant:\n\n%s\n\ngot :%q\nwant:%q", b.pos, got, want, got, want)
		}
		return
	}
	if b.kind == bashSetup {
		s.dir = t.TempDir()
	}

	cmd := exec.Command("bash", "-c", "set -e; "+b.content)
	cmd.Dir, cmd.Env = s.dir, s.env
	out, err := cmd.CombinedOutput()
	if b.kind == bashRun {
		s.output = string(out)
	}
	if err == nil {
		return
	}
	if b.kind == bashCheck {
		t.Errorf("%s: check failed: %v\n%s", b.pos, err, out)
		return
	}
	t.Fatalf("%s: %s failed: %v\n%s", b.pos, b.kind, err, out)
}
