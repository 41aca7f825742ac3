package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"book-workshop-api/internal/application/export"
)

func newBooksCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "List, delete and export saved books",
	}
	cmd.AddCommand(newBooksListCmd(env), newBooksDeleteCmd(env), newBooksExportCmd(env))
	return cmd
}

func newBooksListCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := newBookService(env.cfg).List(cmd.Context(), env.cred)
			if err != nil {
				return err
			}
			if len(books) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No books")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tCHAPTERS\tILLUSTRATIONS")
			for _, b := range books {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", b.ID, b.Title, len(b.Chapters), len(b.Illustrations))
			}
			return w.Flush()
		},
	}
}

func newBooksDeleteCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <book-id>",
		Short: "Delete a saved book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newBookService(env.cfg).Delete(cmd.Context(), env.cred, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted book %s\n", args[0])
			return nil
		},
	}
}

func newBooksExportCmd(env *cliEnv) *cobra.Command {
	var (
		format  string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export <book-id>",
		Short: "Export a saved book as Markdown or HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			book, err := newBookService(env.cfg).Get(cmd.Context(), env.cred, args[0])
			if err != nil {
				return err
			}
			if book == nil {
				return fmt.Errorf("book %s not found", args[0])
			}

			data, err := export.Render(book, f)
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported book %s to %s\n", args[0], outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "md", "Export format: md or html")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write to file instead of stdout")
	return cmd
}
