package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/atotto/clipboard"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/reqlab/reqlab/pkg/cli/internal/output"
	"github.com/reqlab/reqlab/pkg/snippet"
)

var snippetFlags struct {
	req       requestFlags
	target    string
	fromCurl  string
	copy      bool
	highlight bool
	style     string
}

var snippetCmd = &cobra.Command{
	Use:   "snippet [URL]",
	Short: "Generate a code snippet for a request",
	Long: `Generate code that sends a request. The request comes from the curl-like
flags, a request file, or an existing cURL command (--curl).`,
	Example: `  reqlab snippet --target python -X POST -d '{"name":"Ada"}' https://api.example.com/users
  reqlab snippet --target go --curl "curl 'https://api.example.com/users' -H 'Accept: application/json'"
  pbpaste | reqlab snippet -t fetch --curl - --copy`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSnippet,
}

var snippetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snippet targets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		infos := targetInfos()
		return printResult(w, infos, func() {
			title := cases.Title(language.English)
			tw := output.Table(w)
			fmt.Fprintln(tw, "TARGET\tLABEL\tLANGUAGE")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Target, info.Label, title.String(info.Language))
			}
			_ = tw.Flush()
		})
	},
}

type targetInfo struct {
	Target   string `json:"target"`
	Label    string `json:"label"`
	Language string `json:"language"`
}

func targetInfos() []targetInfo {
	gens := snippet.List()
	infos := make([]targetInfo, 0, len(gens))
	for _, g := range gens {
		infos = append(infos, targetInfo{Target: g.Target().String(), Label: g.Label(), Language: g.Language()})
	}
	return infos
}

func runSnippet(cmd *cobra.Command, args []string) error {
	f := &snippetFlags

	gen := snippet.Get(snippet.Target(strings.ToLower(f.target)))
	if gen == nil {
		return unknownTargetError(f.target)
	}

	req, err := resolveRequest(cmd.InOrStdin(), &f.req, f.fromCurl, args)
	if err != nil {
		return err
	}
	code := gen.Generate(req)

	if err := writeCode(cmd.OutOrStdout(), code, gen.Language(), f.highlight, f.style); err != nil {
		return err
	}
	if f.copy {
		if err := clipboard.WriteAll(code); err != nil {
			output.Warn(cmd.ErrOrStderr(), "could not copy to clipboard: %v", err)
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), "Copied to clipboard")
		}
	}
	return nil
}

// writeCode prints code, highlighted for a terminal when asked.
func writeCode(w io.Writer, code, lang string, highlight bool, style string) error {
	if !highlight {
		_, err := fmt.Fprintln(w, code)
		return err
	}
	if err := quick.Highlight(w, code+"\n", lang, "terminal256", style); err != nil {
		return fmt.Errorf("highlight: %w", err)
	}
	return nil
}

// unknownTargetError lists the valid targets and suggests the closest one.
func unknownTargetError(name string) error {
	var names []string
	for _, t := range snippet.Targets() {
		names = append(names, t.String())
	}

	hint := ""
	if s := suggestTarget(name, names); s != "" {
		hint = fmt.Sprintf(" (did you mean %q?)", s)
	}
	return fmt.Errorf("%w: %q%s; available: %s",
		snippet.ErrUnknownTarget, name, hint, strings.Join(names, ", "))
}

// suggestTarget returns the best fuzzy match for name, or "".
func suggestTarget(name string, names []string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}

func init() {
	f := &snippetFlags
	fs := snippetCmd.Flags()
	f.req.register(fs)
	fs.StringVarP(&f.target, "target", "t", string(snippet.TargetCurl), "Snippet target (see 'reqlab snippet list')")
	fs.StringVar(&f.fromCurl, "curl", "", "Build the request from a cURL command ('-' reads stdin)")
	fs.BoolVar(&f.copy, "copy", false, "Also copy the snippet to the clipboard")
	fs.BoolVar(&f.highlight, "highlight", false, "Syntax-highlight the output for a terminal")
	fs.StringVar(&f.style, "style", "monokai", "Highlight style")

	snippetCmd.AddCommand(snippetListCmd)
	rootCmd.AddCommand(snippetCmd)
}
