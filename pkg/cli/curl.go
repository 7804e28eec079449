package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reqlab/reqlab/pkg/cli/internal/output"
	"github.com/reqlab/reqlab/pkg/curl"
)

var (
	formatFlags requestFlags
	parseYAML   bool
	checkQuiet  bool
)

var curlCmd = &cobra.Command{
	Use:   "curl",
	Short: "Convert between requests and cURL commands",
}

var curlFormatCmd = &cobra.Command{
	Use:   "format [URL]",
	Short: "Print a request as a cURL command",
	Example: `  reqlab curl format https://api.example.com/users
  reqlab curl format -X POST -H 'Content-Type: application/json' -d '{"name":"Ada"}' https://api.example.com/users
  reqlab curl format -f request.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := resolveRequest(cmd.InOrStdin(), &formatFlags, "", args)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), curl.Format(req))
		return nil
	},
}

var curlParseCmd = &cobra.Command{
	Use:   "parse [COMMAND | -]",
	Short: "Extract a request from a cURL command",
	Long: `Extract method, URL, headers and body from a cURL command given as
arguments or on stdin. The request is printed as JSON, or YAML with --yaml.`,
	Example: `  reqlab curl parse "curl -X POST 'https://api.example.com/users' -d '{}'"
  pbpaste | reqlab curl parse --yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readText(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		req, err := curl.Import(text)
		if err != nil {
			return err
		}
		if parseYAML {
			return output.YAML(cmd.OutOrStdout(), req)
		}
		return output.JSON(cmd.OutOrStdout(), req)
	},
}

var curlCheckCmd = &cobra.Command{
	Use:   "check [TEXT | -]",
	Short: "Exit non-zero unless the input looks like a cURL command",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readText(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		if !curl.LooksLikeCurl(text) {
			return ErrNotCurl
		}
		if !checkQuiet {
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
		}
		return nil
	},
}

var curlPrettifyCmd = &cobra.Command{
	Use:   "prettify [COMMAND | -]",
	Short: "Put each flag of a cURL command on its own line",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readText(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		if !curl.LooksLikeCurl(text) {
			return ErrNotCurl
		}
		fmt.Fprintln(cmd.OutOrStdout(), curl.Prettify(text))
		return nil
	},
}

func init() {
	formatFlags.register(curlFormatCmd.Flags())
	curlParseCmd.Flags().BoolVar(&parseYAML, "yaml", false, "Print the request as YAML")
	curlCheckCmd.Flags().BoolVarP(&checkQuiet, "quiet", "q", false, "Only set the exit status")

	curlCmd.AddCommand(curlFormatCmd, curlParseCmd, curlCheckCmd, curlPrettifyCmd)
	rootCmd.AddCommand(curlCmd)
}
