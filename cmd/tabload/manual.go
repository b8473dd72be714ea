package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tabload/internal/core"
)

func newManualCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "manual <database> <table>",
		Short: "Enter rows interactively, one field at a time",
		Long: `Manual prompts for every input column of the table, re-asking until the
value fits the column's type, then inserts and commits the row. Press Esc or
Ctrl-D, or answer "n", to finish; a summary is written either way.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.manual(cmd.Context(), args[0], args[1])
		},
	}
}

func (a *app) manual(ctx context.Context, database, table string) error {
	conn, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer conn.Close(context.WithoutCancel(ctx))

	m := a.newRunMetrics()
	opts := a.ingestOptions(nil)
	if m != nil {
		opts.Observer = m
	}

	session, err := core.NewIngestor(conn, opts).BeginManual(ctx, database, table)
	if err != nil {
		if m != nil {
			m.ObserveRun(core.RunManual, nil)
		}
		return err
	}

	model := newEntryModel(ctx, session, fmt.Sprintf("Entering rows for %s.%s", database, table))
	_, runErr := tea.NewProgram(model, a.programOptions(ctx)...).Run()
	if errors.Is(runErr, tea.ErrInterrupted) || errors.Is(runErr, tea.ErrProgramKilled) {
		runErr = nil
	}
	for _, line := range model.history {
		fmt.Fprintln(a.out, line)
	}

	rep := session.Finish()
	if m != nil {
		m.ObserveRun(core.RunManual, rep)
		defer a.pushMetrics(context.WithoutCancel(ctx), m)
	}
	if werr := a.finishRun(rep); werr != nil {
		return errors.Join(runErr, werr)
	}
	return runErr
}

// programOptions reads keys from the app's input. Piped input runs without
// a renderer and ends the session at end of input.
func (a *app) programOptions(ctx context.Context) []tea.ProgramOption {
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(a.out)}
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(f.Fd()) {
		return append(opts, tea.WithInput(f))
	}
	return append(opts,
		tea.WithInput(io.MultiReader(a.in, strings.NewReader("\x04"))),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)
}
