package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
)

// VisualizeCmd implements the 'visualize' command.
type VisualizeCmd struct {
	Format string `short:"f" help:"Output format: text, mermaid" default:"text" enum:"text,mermaid"`
}

// Run executes the visualize command.
func (cmd *VisualizeCmd) Run(_ *Global, _ *CLI) error {
	passes := markdown.NewTransformer(config.Default().Markdown).Passes()
	return VisualizePasses(os.Stdout, passes, cmd.Format)
}

// VisualizePasses writes the pass chain to w in the given format.
func VisualizePasses(w io.Writer, passes []markdown.Pass, format string) error {
	var sb strings.Builder
	switch format {
	case "", "text":
		sb.WriteString("Markdown Pass Chain\n")
		sb.WriteString("===================\n\n")
		for i, p := range passes {
			prefix := "├──"
			if i == len(passes)-1 {
				prefix = "└──"
			}
			fmt.Fprintf(&sb, "%s %d. [%s] %s\n", prefix, i+1, p.Name, p.Description)
		}
		fmt.Fprintf(&sb, "\nTotal: %d passes\n", len(passes))
	case "mermaid":
		sb.WriteString("```mermaid\n")
		sb.WriteString("graph LR\n")
		sb.WriteString("    parse([parse])\n")
		prev := "parse"
		for i, p := range passes {
			id := fmt.Sprintf("p%d", i+1)
			fmt.Fprintf(&sb, "    %s[\"%s\"]\n", id, p.Name)
			fmt.Fprintf(&sb, "    %s --> %s\n", prev, id)
			prev = id
		}
		sb.WriteString("    html([render html])\n")
		fmt.Fprintf(&sb, "    %s --> html\n", prev)
		sb.WriteString("```\n")
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
