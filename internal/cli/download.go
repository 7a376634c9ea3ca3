package cli

import (
	"strings"

	"github.com/spf13/cobra"

	nferrors "github.com/matzehuels/nugetfetch/pkg/errors"
	"github.com/matzehuels/nugetfetch/pkg/integrations/nuget"
)

type downloadOptions struct {
	output  string
	version string
}

// downloadCommand creates the download command.
func (c *CLI) downloadCommand() *cobra.Command {
	var opts downloadOptions

	cmd := &cobra.Command{
		Use:   "download <packageId>",
		Short: "Download a package and unpack it",
		Long: `Download a package and unpack it into <output>/<id>.<version>/, next to the raw .nupkg.

The package id may carry a version (Foo.Bar.1.2.3) or be a package URL
(pkg:nuget/Foo.Bar@1.2.3). Without a version the registry's current version
is used. An existing directory for the same id and version is replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("output") {
				opts.output = c.Settings.Output
			}
			return c.runDownload(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", ".", "base folder for output: packages get their own container folders")
	cmd.Flags().StringVar(&opts.version, "version", "", "package version (overrides a version in the id)")

	return cmd
}

func (c *CLI) runDownload(cmd *cobra.Command, token string, opts downloadOptions) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	id, err := parseTarget(token, opts.version)
	if err != nil {
		return err
	}

	client, closeClient, err := c.newClient(ctx, nuget.WithProgress(progressBar(c.Err, "downloading")))
	if err != nil {
		return err
	}
	defer closeClient()
	client.AddLogger(func(msg string) {
		if strings.HasPrefix(msg, "WARN: ") {
			printWarning(c.Err, "%s", strings.TrimPrefix(msg, "WARN: "))
			return
		}
		printInfo(c.Err, "%s", msg)
	})

	prog := newProgress(logger)
	var res *nuget.DownloadResult
	err = c.withRetries(ctx, func() error {
		var err error
		res, err = client.DownloadPackage(ctx, id, opts.output)
		return err
	})
	if err != nil {
		return err
	}

	if res == nil {
		printError(c.Out, "package not found: %s", id)
		return nil
	}

	prog.done("Downloaded " + res.FullName)
	printSuccess(c.Out, "%s downloaded to %s", res.FullName, res.FullPath)
	printFile(c.Out, res.ArchivePath)
	if n := len(res.Warnings); n > 0 {
		printWarning(c.Out, "%d archive entries skipped", n)
	}
	return nil
}

// parseTarget reads the package argument. An explicit version replaces any
// version carried by the token.
func parseTarget(token, version string) (nuget.PackageIdentifier, error) {
	id, err := nuget.ParseIdentifier(token)
	if err != nil {
		return id, err
	}
	if version == "" {
		return id, nil
	}
	if err := nferrors.ValidateVersion(version); err != nil {
		return id, err
	}
	id.Version = version
	return id, nil
}
