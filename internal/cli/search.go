package cli

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nugetfetch/pkg/integrations/nuget"
)

// searchCommand creates the search command.
func (c *CLI) searchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <word> [words...]",
		Short: "Search for packages by any words",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return c.runQuery(cmd, query, func(client *nuget.Client) (*nuget.QueryResponse, error) {
				return client.Search(cmd.Context(), args...)
			})
		},
	}
}

// infoCommand creates the info command.
func (c *CLI) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <packageId>",
		Short: "Show package info for an exact package id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runQuery(cmd, args[0], func(client *nuget.Client) (*nuget.QueryResponse, error) {
				return client.FetchPackageInfo(cmd.Context(), args[0])
			})
		},
	}
}

func (c *CLI) runQuery(cmd *cobra.Command, query string, run func(*nuget.Client) (*nuget.QueryResponse, error)) error {
	ctx := cmd.Context()

	client, closeClient, err := c.newClient(ctx)
	if err != nil {
		return err
	}
	defer closeClient()

	var spinner *Spinner
	if isTerminal(c.Err) {
		spinner = newSpinner(ctx, c.Err, "Searching "+client.Registry().URL)
		spinner.Start()
	}

	var resp *nuget.QueryResponse
	err = c.withRetries(ctx, func() error {
		var err error
		resp, err = run(client)
		return err
	})
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	printQueryResults(c.Out, query, resp)
	return nil
}

// printQueryResults prints one block per hit, separated by blank lines.
func printQueryResults(w io.Writer, query string, resp *nuget.QueryResponse) {
	if resp == nil || len(resp.Data) == 0 {
		fmt.Fprintln(w, StyleError.Render("No results for "+query))
		return
	}
	for i, item := range resp.Data {
		if i > 0 {
			fmt.Fprintln(w)
		}
		printPackage(w, item)
	}
}

func printPackage(w io.Writer, item nuget.QueryResultItem) {
	fmt.Fprintln(w, StyleTitle.Render(item.PackageID))
	printKeyValue(w, "version", StyleValue.Render(item.Version))
	printKeyValue(w, "downloads", StyleNumber.Render(fmt.Sprint(item.TotalDownloads)))
	printKeyValue(w, "tags", strings.Join(item.Tags, ","))
	printKeyValue(w, "url", StyleLink.Render(item.ProjectURL))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "    "+item.Title)
	fmt.Fprintln(w, "    "+StyleDim.Render("-----"))
	fmt.Fprintln(w, formatSummary(item.Description, 4))
}

var lineBreakTag = regexp.MustCompile(`<br\s*/?>`)

// formatSummary strips HTML line breaks and carriage returns from text and
// re-indents every line by indent spaces.
func formatSummary(text string, indent int) string {
	text = strings.ReplaceAll(text, "\r", "")
	text = lineBreakTag.ReplaceAllString(text, "")
	pre := strings.Repeat(" ", indent)

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = pre + strings.TrimSpace(l)
	}
	return strings.Join(lines, "\n")
}
