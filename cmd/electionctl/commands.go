// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/quickly-elect/db"
	"github.com/danielhkuo/quickly-elect/election"
	"github.com/danielhkuo/quickly-elect/store"
)

type opener func() (*sql.DB, error)

func newRootCmd() *cobra.Command {
	var dbType, dbURL string

	rootCmd := &cobra.Command{
		Use:          "electionctl",
		Short:        "Inspect quickly-elect elections",
		SilenceUsage: true,
	}

	dbTypeDefault := os.Getenv("DATABASE_TYPE")
	if dbTypeDefault == "" {
		dbTypeDefault = db.TypeSQLite
	}
	rootCmd.PersistentFlags().StringVarP(&dbURL, "database-url", "d", os.Getenv("DATABASE_URL"), "sqlite path or postgres URL (DATABASE_URL)")
	rootCmd.PersistentFlags().StringVarP(&dbType, "database-type", "t", dbTypeDefault, "sqlite or postgres (DATABASE_TYPE)")

	open := func() (*sql.DB, error) {
		if dbURL == "" {
			return nil, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
		return db.Open(dbType, dbURL)
	}

	rootCmd.AddCommand(
		newInitSchemaCmd(open),
		newListCmd(open),
		newStatusCmd(open),
		newCandidatesCmd(open),
		newResultsCmd(open),
		newEventsCmd(open),
	)
	return rootCmd
}

func newInitSchemaCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "init-schema",
		Short: "Create the tables if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := open()
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := db.CreateSchema(conn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema ready")
			return nil
		},
	}
}

func newListCmd(open opener) *cobra.Command {
	var phaseName string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List elections, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var only *election.Phase
			if phaseName != "" {
				p, err := election.ParsePhase(phaseName)
				if err != nil {
					return err
				}
				only = &p
			}

			conn, err := open()
			if err != nil {
				return err
			}
			defer conn.Close()

			elections, err := store.NewRepository(conn).List(cmd.Context())
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tTITLE\tPHASE\tVOTERS\tCANDIDATES\tUPDATED")
			for _, e := range elections {
				if only != nil && election.Phase(e.WorkflowStatus) != *only {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
					e.ID, e.Title, e.Phase, e.VoterCount, e.CandidateCount, humanize.Time(e.UpdatedAt))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&phaseName, "phase", "p", "", "only list elections in this phase, e.g. VotingSessionStarted")
	return cmd
}

func newStatusCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "status <election-id>",
		Short: "Show the workflow status of an election",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := open()
			if err != nil {
				return err
			}
			defer conn.Close()

			wf, e, err := store.NewRepository(conn).Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Election:\t%s (%s)\n", e.Title, e.ID)
			fmt.Fprintf(tw, "Administrator:\t%s\n", wf.Admin())
			fmt.Fprintf(tw, "Phase:\t%s (%d)\n", wf.Phase(), wf.WorkflowStatus())
			fmt.Fprintf(tw, "Voters:\t%s\n", humanize.Comma(int64(wf.VotersCount())))
			fmt.Fprintf(tw, "Candidates:\t%s\n", humanize.Comma(int64(wf.CandidatesCount())))
			fmt.Fprintf(tw, "Self-registration:\t%t\n", wf.Options().CandidateSelfRegistration)
			fmt.Fprintf(tw, "Version:\t%d\n", e.Version)
			fmt.Fprintf(tw, "Created:\t%s\n", humanize.Time(e.CreatedAt))
			fmt.Fprintf(tw, "Updated:\t%s\n", humanize.Time(e.UpdatedAt))
			return tw.Flush()
		},
	}
}

func newCandidatesCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "candidates <election-id>",
		Short: "List candidates in registration order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := open()
			if err != nil {
				return err
			}
			defer conn.Close()

			wf, _, err := store.NewRepository(conn).Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			// Counts are sealed until the tally, as in the API
			tallied := wf.Phase() == election.TallyComplete

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "#\tID\tDESCRIPTION\tVOTES")
			for _, c := range wf.Candidates() {
				votes := "sealed"
				if tallied {
					votes = humanize.Comma(int64(c.VoteCount))
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.Position+1, c.ID, c.Description, votes)
			}
			return tw.Flush()
		},
	}
}

func newResultsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "results <election-id>",
		Short: "Show the tallied result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := open()
			if err != nil {
				return err
			}
			defer conn.Close()

			wf, _, err := store.NewRepository(conn).Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			result, err := wf.Result()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !result.HasWinner() {
				fmt.Fprintln(out, "No candidates were registered")
				return nil
			}

			fmt.Fprintf(out, "Winner: %s (%s votes of %s)\n", result.WinnerID,
				humanize.Comma(int64(result.WinnerVoteCount)), humanize.Comma(int64(result.TotalVotes)))
			if len(result.Tied) > 0 {
				fmt.Fprintf(out, "Tied: %s (earliest registered wins)\n", strings.Join(result.Tied, ", "))
			}

			tw := newTable(out)
			fmt.Fprintln(tw, "ID\tVOTES\tSHARE")
			for _, c := range result.Candidates {
				share := 0.0
				if result.TotalVotes > 0 {
					share = 100 * float64(c.VoteCount) / float64(result.TotalVotes)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s%%\n", c.ID, humanize.Comma(int64(c.VoteCount)), humanize.FtoaWithDigits(share, 1))
			}
			return tw.Flush()
		},
	}
}

func newEventsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "events <election-id>",
		Short: "Print the event journal of an election",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := open()
			if err != nil {
				return err
			}
			defer conn.Close()

			events, err := store.NewRepository(conn).Events(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "SEQ\tKIND\tACTOR\tSUBJECT\tPHASE\tWHEN")
			for _, ev := range events {
				phase := election.Phase(ev.PhaseTo).String()
				if ev.PhaseFrom != ev.PhaseTo {
					phase = election.Phase(ev.PhaseFrom).String() + " -> " + phase
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
					ev.Seq, ev.Kind, ev.Actor, ev.Subject, phase, humanize.Time(ev.CreatedAt))
			}
			return tw.Flush()
		},
	}
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
