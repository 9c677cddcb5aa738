package main

import (
	"fmt"
	"path/filepath"

	"github.com/c360studio/diagen/catalog"
	"github.com/c360studio/diagen/fragment"
	"github.com/c360studio/diagen/pipeline"
	"github.com/c360studio/diagen/watch"
	"github.com/spf13/cobra"
)

// stringFlag returns the flag value when it was set on the command line and
// the configured value otherwise.
func stringFlag(cmd *cobra.Command, name, configured string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return configured
}

func transformCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Transform Mermaid class diagrams into YAML fragments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.writeMetrics()

			opts := a.transformOptions(cmd)
			report, err := a.pipeline.Transform(cmd.Context(), opts)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d fragment files for %d classes to %s\n",
				len(report.Files), report.Classes, opts.Output)
			return nil
		},
	}

	cmd.Flags().StringP("input", "i", "", "Diagram file or directory (default from paths.diagrams)")
	cmd.Flags().StringP("output", "o", "", "Fragment directory (default from paths.fragments)")
	cmd.Flags().StringP("skipnamespace", "n", "", "Part of the namespace to skip for the output directory")

	return cmd
}

func (a *app) transformOptions(cmd *cobra.Command) pipeline.TransformOptions {
	return pipeline.TransformOptions{
		Input:         stringFlag(cmd, "input", a.cfg.Paths.Diagrams),
		Output:        stringFlag(cmd, "output", a.cfg.Paths.Fragments),
		SkipNamespace: stringFlag(cmd, "skipnamespace", a.cfg.Transform.SkipNamespace),
	}
}

func generateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate source files from YAML fragments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.writeMetrics()

			opts, err := a.generateOptions(cmd, "input")
			if err != nil {
				return err
			}
			report, err := a.pipeline.Generate(cmd.Context(), opts)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Generated %d files for %d classes in %s\n",
				len(report.Files), report.Classes, opts.Output)
			return nil
		},
	}

	cmd.Flags().StringP("input", "i", "", "Fragment directory (default from paths.fragments)")
	addGenerateFlags(cmd)

	return cmd
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Output code directory (default from paths.output)")
	cmd.Flags().StringP("templates", "t", "", "Template directory (default from paths.templates)")
	cmd.Flags().String("builtin", "", "Use a built-in template catalog instead of a template directory")
	cmd.Flags().String("identity", "", "How fragments are grouped: name or qualified (default from merge.identity)")
}

// generateOptions reads the generate flags. inputFlag names the flag that
// holds the fragment directory.
func (a *app) generateOptions(cmd *cobra.Command, inputFlag string) (pipeline.GenerateOptions, error) {
	identity, err := fragment.ParseIdentity(stringFlag(cmd, "identity", a.cfg.Merge.Identity))
	if err != nil {
		return pipeline.GenerateOptions{}, err
	}
	builtin, _ := cmd.Flags().GetString("builtin")

	return pipeline.GenerateOptions{
		Input:     stringFlag(cmd, inputFlag, a.cfg.Paths.Fragments),
		Output:    stringFlag(cmd, "output", a.cfg.Paths.Output),
		Templates: stringFlag(cmd, "templates", a.cfg.Paths.Templates),
		Builtin:   builtin,
		Identity:  identity,
	}, nil
}

func watchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch diagrams and fragments, then regenerate automatically",
		Long: `Watch diagram sources and the fragment tree.

A diagram change runs transform and then generate. A fragment change runs
generate. Failed runs are retried with exponential backoff.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			transform := pipeline.TransformOptions{
				Input:         stringFlag(cmd, "diagrams", a.cfg.Paths.Diagrams),
				Output:        stringFlag(cmd, "fragments", a.cfg.Paths.Fragments),
				SkipNamespace: stringFlag(cmd, "skipnamespace", a.cfg.Transform.SkipNamespace),
			}
			generate, err := a.generateOptions(cmd, "fragments")
			if err != nil {
				return err
			}

			runner := watch.NewRunner(a.pipeline, watch.Options{
				Transform:  transform,
				Generate:   generate,
				Debounce:   a.cfg.Watch.Debounce,
				Retries:    a.cfg.Watch.Retries,
				RetryDelay: a.cfg.Watch.RetryDelay,
				OnRun: func(*pipeline.Report, error) {
					a.writeMetrics()
				},
			}, a.logger)
			return runner.Run(cmd.Context())
		},
	}

	cmd.Flags().StringP("diagrams", "m", "", "Diagram file or directory (default from paths.diagrams)")
	cmd.Flags().StringP("fragments", "y", "", "Fragment directory (default from paths.fragments)")
	cmd.Flags().StringP("skipnamespace", "n", "", "Part of the namespace to skip for the output directory")
	addGenerateFlags(cmd)

	return cmd
}

func listLanguagesCmd() *cobra.Command {
	var templates string

	cmd := &cobra.Command{
		Use:   "list-languages",
		Short: "List available languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			languages := catalog.Builtin()
			if templates != "" {
				cat, err := catalog.LoadDir(templates)
				if err != nil {
					return err
				}
				languages = cat.Languages()
			}

			fmt.Fprintln(out, "Available languages:")
			for _, lang := range languages {
				fmt.Fprintln(out, lang)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&templates, "templates", "t", "", "List the languages of a template directory instead of the built-in ones")

	return cmd
}

func initializeCmd(a *app) *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "initialize",
		Short: "Copy a built-in template catalog into a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := stringFlag(cmd, "directory", a.cfg.Paths.Templates)
			written, err := catalog.CopyBuiltin(language, dir)
			if err != nil {
				return fmt.Errorf("initialize %s: %w", language, err)
			}

			out := cmd.OutOrStdout()
			for _, path := range written {
				fmt.Fprintln(out, filepath.ToSlash(path))
			}
			fmt.Fprintf(out, "Copied templates for %s to %s\n", language, dir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "The language to initialize")
	cmd.Flags().StringP("directory", "d", "", "Template directory (default from paths.templates)")
	_ = cmd.MarkFlagRequired("language")

	return cmd
}
