package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"biblioteca-backend/internal/loanform"
	"biblioteca-backend/internal/loans"
	"biblioteca-backend/internal/platform/config"
	"biblioteca-backend/internal/platform/logging"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

// setup loads the config (defaults when the file is absent) and builds the logger.
func (o *rootOptions) setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := logging.New(cfg.Mode, cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "biblio",
		Short:         "Book-loan request form for the school library",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "path to config.yaml")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newServeCmd(opts),
		newSubmitCmd(opts),
		newLoansCmd(opts),
	)
	return root
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func newSubmitCmd(opts *rootOptions) *cobra.Command {
	var req loanform.LoanRequest
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Fill and submit one loan request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			a, err := newApp(cmd.Context(), cfg, logger, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			return runSubmit(cmd.Context(), a, req, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.StudentName, "name", "", "student full name")
	f.StringVar(&req.StudentID, "id", "", "student id (4-20 of A-Z a-z 0-9 . _ -)")
	f.StringVar(&req.BookID, "book", "", "catalog book id")
	f.StringVar(&req.LoanDate, "loan-date", "", "loan date (YYYY-MM-DD)")
	f.StringVar(&req.ReturnDate, "return-date", "", "return date (YYYY-MM-DD)")
	return cmd
}

// runSubmit prints the stored record, or the field errors and a blockedError.
func runSubmit(ctx context.Context, a *app, req loanform.LoanRequest, stdout, stderr io.Writer) error {
	out, err := loanform.SubmitRequest(ctx, a.doc, req)
	if err != nil {
		return err
	}
	if !out.Accepted() {
		fmt.Fprintln(stderr, renderFieldErrors(out.Fields))
		return &blockedError{fields: out.Fields}
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Record)
}

func renderFieldErrors(fields map[string]string) string {
	ids := make([]string, 0, len(fields))
	for id := range fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Campo", "Mensaje")
	for _, id := range ids {
		t.Row(id, fields[id])
	}
	return t.String()
}

const (
	formatTable = "table"
	formatCSV   = "csv"
)

func newLoansCmd(opts *rootOptions) *cobra.Command {
	var format, encoding string
	cmd := &cobra.Command{
		Use:   "loans",
		Short: "Print the stored loan log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			a, err := newApp(cmd.Context(), cfg, logger, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			return runLoans(cmd.Context(), a, format, encoding, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&format, "format", formatTable, "table | csv")
	cmd.Flags().StringVar(&encoding, "encoding", loans.EncodingUTF8, "csv encoding: utf-8 | windows-1252")
	return cmd
}

func runLoans(ctx context.Context, a *app, format, encoding string, w io.Writer) error {
	switch format {
	case formatCSV:
		return loans.NewService(a.log).ExportCSV(ctx, w, encoding)
	case formatTable:
		records, err := a.log.Read(ctx)
		if err != nil {
			// 壊れていても空として表示は続ける
			a.logger.Warn("loan log unreadable", zap.Error(err))
		}
		_, err = fmt.Fprintln(w, loans.RenderTable(loans.FlattenAll(records)))
		return err
	default:
		return fmt.Errorf("unknown format %q (want %s or %s)", format, formatTable, formatCSV)
	}
}
