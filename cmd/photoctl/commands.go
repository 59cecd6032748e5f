package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/leca/photo-editor/internal/imageproc"
	"github.com/leca/photo-editor/internal/model"
	"github.com/leca/photo-editor/internal/quota"
	"github.com/spf13/cobra"
)

func newActionsCommand() *cobra.Command {
	var family string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List the edit action catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actions := imageproc.Catalog()
			if family != "" {
				switch f := imageproc.Family(family); f {
				case imageproc.FamilyFilter, imageproc.FamilyCrop, imageproc.FamilyEnhance:
					actions = imageproc.Actions(f)
				default:
					return fmt.Errorf("unknown family %q (want filter, crop or enhance)", family)
				}
			}
			if asJSON {
				return writeJSON(cmd, actions)
			}
			rows := make([][]string, 0, len(actions))
			for _, a := range actions {
				rows = append(rows, []string{a.Tag, a.Label, string(a.Family)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Tag", "Label", "Family"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().StringVar(&family, "family", "", "Only list one family (filter, crop, enhance)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newApplyCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "apply <action> <input> <output>",
		Short: "Apply one action to a local image file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, in, out := args[0], args[1], args[2]
			data, err := os.ReadFile(in)
			if err != nil {
				return err
			}
			policy := imageproc.PassThrough
			if strict {
				policy = imageproc.Strict
			}
			result, err := imageproc.New(imageproc.WithUnknownActionPolicy(policy)).Apply(data, action)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, result, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: wrote %d bytes to %s\n", action, len(result), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on actions outside the catalog")
	return cmd
}

func newQuotaCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "quota <user-id>",
		Short: "Show a user's daily allowance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			ledger, err := ctx.ensureLedger()
			if err != nil {
				return err
			}
			st, err := ledger.Status(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, st)
			}
			expiry := "-"
			if st.User.PremiumExpiry != nil {
				expiry = st.User.PremiumExpiry.String()
			}
			rows := [][]string{
				{"User", strconv.FormatInt(st.User.UserID, 10)},
				{"Today", st.Today.String()},
				{"Premium", strconv.FormatBool(st.Premium)},
				{"Premium expiry", expiry},
				{"Used today", strconv.Itoa(st.UsedToday)},
				{"Remaining", strconv.Itoa(st.Remaining)},
				{"Total edits", strconv.Itoa(st.User.TotalEdits)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newGrantCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "grant <user-id>",
		Short: "Grant premium to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			ledger, err := ctx.ensureLedger()
			if err != nil {
				return err
			}
			if days == 0 {
				days = ctx.cfg.PremiumDays
			}
			expiry, err := ledger.GrantPremium(cmd.Context(), userID, days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d is premium until %s\n", userID, expiry)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Premium duration in days (defaults to PHOTO_PREMIUM_DAYS)")
	return cmd
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history <user-id>",
		Short: "List a user's recent edits, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			ledger, err := ctx.ensureLedger()
			if err != nil {
				return err
			}
			events, err := ledger.History(cmd.Context(), userID, limit)
			if err != nil {
				return err
			}
			if asJSON {
				if events == nil {
					events = []*model.EditEvent{}
				}
				return writeJSON(cmd, events)
			}
			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No edits recorded.")
				return nil
			}
			rows := make([][]string, 0, len(events))
			for _, e := range events {
				rows = append(rows, []string{e.Day.String(), e.Category, e.Tag, e.CreatedAt.Format("15:04:05")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Day", "Category", "Tag", "Time"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of edits to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newUsersCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List known users with today's allowance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := ctx.ensureLedger()
			if err != nil {
				return err
			}
			ids, err := ledger.Users(cmd.Context())
			if err != nil {
				return err
			}
			statuses := make([]*quota.Status, 0, len(ids))
			for _, id := range ids {
				st, err := ledger.Status(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("user %d: %w", id, err)
				}
				statuses = append(statuses, st)
			}
			if asJSON {
				return writeJSON(cmd, statuses)
			}
			if len(statuses) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No users recorded.")
				return nil
			}
			rows := make([][]string, 0, len(statuses))
			for _, st := range statuses {
				rows = append(rows, []string{
					strconv.FormatInt(st.User.UserID, 10),
					strconv.FormatBool(st.Premium),
					strconv.Itoa(st.Remaining),
					strconv.Itoa(st.User.TotalEdits),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"User", "Premium", "Remaining", "Total edits"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate usage counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := ctx.ensureLedger()
			if err != nil {
				return err
			}
			st, err := ledger.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, st)
			}
			rows := [][]string{
				{"Users", strconv.Itoa(st.TotalUsers)},
				{"Premium users", strconv.Itoa(st.PremiumUsers)},
				{"Edits (all time)", strconv.Itoa(st.TotalEdits)},
				{"Edits (today)", strconv.Itoa(st.TodayEdits)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Counter", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return id, nil
}
