package main

import (
	"bytes"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/internal/excel"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List study profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		users, err := e.users.GetAll(cmd.Context())
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No profiles yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tName\tCareer\tCreated")
		fmt.Fprintln(w, "--\t----\t------\t-------")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.CareerID, time.UnixMilli(u.CreatedAt).Format("2006-01-02"))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if repo, ok := e.store.(*database.PlanStateRepository); ok {
			count, err := repo.CountPlanStates(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("\n%d of %d profiles have stored plans\n", count, len(users))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <user id>",
	Short: "Show level, XP and totals of the current plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		p, profile, err := e.planner(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer p.Close()

		plan := p.CurrentPlan()
		progress := p.Progress()
		st := p.Stats()
		fmt.Printf("📊 %s · %s\n", profile.Name, plan.Name)
		fmt.Println("-------------")
		fmt.Printf("Rank:        %s (%s)\n", progress.RankName, progress.Career.Label)
		fmt.Printf("Level:       %d (%d XP, %d%% to next)\n", progress.Level, progress.XP, progress.ProgressToNext)
		fmt.Printf("Streak:      %d days, %d ice\n", plan.Streak, plan.Inventory.Ice)
		fmt.Printf("Study time:  %.1f min\n", st.TotalTime)
		fmt.Printf("Questions:   %d/%d (%d%%)\n", st.CorrectQuestions, st.TotalQuestions, st.Accuracy())
		fmt.Printf("Lessons:     %d/%d\n", st.CompletedLessons, st.TotalLessons)
		fmt.Printf("Due:         %d\n", st.DueRevisions)
		return nil
	},
}

var dueCmd = &cobra.Command{
	Use:   "due <user id>",
	Short: "List revisions due across every plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		p, _, err := e.planner(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer p.Close()

		due := p.AllDueRevisions()
		if len(due) == 0 {
			fmt.Println("✅ No revisions due.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Subject\tLesson\tDue")
		for _, it := range due {
			fmt.Fprintf(w, "%s\t%s\t%s\n", it.SubjectName, it.Title, it.DueAt.Local().Format("2006-01-02"))
		}
		return w.Flush()
	},
}

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <user id>",
	Short: "Write the JSON backup of a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		p, _, err := e.planner(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer p.Close()

		data, err := p.Export()
		if err != nil {
			return err
		}
		return writeOutput(exportOutput, data)
	},
}

var importCmd = &cobra.Command{
	Use:   "import <user id> <backup.json>",
	Short: "Replace the plans of a profile with a JSON backup",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		p, _, err := e.planner(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer p.Close()

		if err := p.Import(cmd.Context(), data); err != nil {
			return err
		}
		fmt.Printf("✅ Restored %d plans.\n", len(p.State().Plans))
		return nil
	},
}

var importLessonsCmd = &cobra.Command{
	Use:   "import-lessons <user id> <file.xlsx|file.csv>",
	Short: "Add subjects and lessons from a spreadsheet to the current plan",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		p, _, err := e.planner(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer p.Close()

		cfg := excel.DefaultImportConfig()
		cfg.FilePath = args[1]
		result, err := excel.ImportLessons(cmd.Context(), cfg, p)
		if err != nil {
			return err
		}
		fmt.Printf("📥 %d rows, %d subjects and %d lessons created, %d skipped\n",
			result.TotalProcessed, result.SubjectsCreated, result.Created, result.Skipped)
		for _, msg := range result.Errors {
			fmt.Println("⚠️", msg)
		}
		return nil
	},
}

var reportOutput string

var reportCmd = &cobra.Command{
	Use:   "report <user id>",
	Short: "Write the spreadsheet report of a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		p, _, err := e.planner(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer p.Close()

		var buf bytes.Buffer
		if err := excel.ExportReport(p.State(), &buf); err != nil {
			return err
		}
		if reportOutput == "" {
			reportOutput = fmt.Sprintf("study-report-%s.xlsx", args[0])
		}
		return writeOutput(reportOutput, buf.Bytes())
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <user id>",
	Short: "Delete a profile and its plans",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		if err := e.users.Delete(ctx, args[0]); err != nil {
			return err
		}
		if err := e.store.DeletePlanState(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("🗑 Profile %s deleted.\n", args[0])
		return nil
	},
}

// writeOutput writes data to path, or stdout when path is empty or "-"
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✅ Written to %s\n", path)
	return nil
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "output file (default study-report-<id>.xlsx)")

	rootCmd.AddCommand(usersCmd, statsCmd, dueCmd, exportCmd, importCmd, importLessonsCmd, reportCmd, deleteCmd)
}
