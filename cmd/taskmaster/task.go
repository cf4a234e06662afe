package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fentz26/taskmaster/internal/controlplane"
	"github.com/fentz26/taskmaster/internal/csvfile"
	"github.com/fentz26/taskmaster/internal/task"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage the task catalog",
}

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new task",
	Long: `Add a task. Schedule fields are pipe-delimited lists of values and ranges:

  --days-of-week  1-5        Monday to Friday (1=Mon ... 7=Sun, * = every day)
  --days-of-month 1|15       the 1st and 15th
  --days-of-year  06-15      every June 15th (recurring) or 2030-06-15 (one-off)
  --times         09:00|17:30

Only one of the day fields may be given. Times alone mean "today".`,
	Args: cobra.NoArgs,
	RunE: runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE:  runTaskList,
}

var taskSearchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Find tasks whose name contains term",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskSearch,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete [task-id]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDelete,
}

var taskExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every task as YAML or CSV",
	Args:  cobra.NoArgs,
	RunE:  runTaskExport,
}

var taskImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Add tasks from a YAML or CSV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskImport,
}

var (
	newTask      task.Input
	exportFormat string
	exportOut    string
	importFormat string
)

// taskDocument is the YAML import/export layout.
type taskDocument struct {
	Tasks []task.Input `yaml:"tasks"`
}

func init() {
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskSearchCmd, taskShowCmd, taskDeleteCmd, taskExportCmd, taskImportCmd)

	f := taskAddCmd.Flags()
	f.StringVar(&newTask.Name, "name", "", "Task name (required)")
	f.StringVar(&newTask.URL, "url", "", "Link included in the reminder")
	f.BoolVar(&newTask.Recurring, "recurring", false, "Repeat on the schedule instead of firing once")
	f.StringVar(&newTask.ActiveFrom, "from", "", "First active date, YYYY-MM-DD (recurring only)")
	f.StringVar(&newTask.ActiveUntil, "until", "", "Last active date, YYYY-MM-DD (recurring only)")
	f.StringVar(&newTask.DaysOfYear, "days-of-year", "", "MM-DD or YYYY-MM-DD values")
	f.StringVar(&newTask.DaysOfMonth, "days-of-month", "", "Day numbers 1-31")
	f.StringVar(&newTask.DaysOfWeek, "days-of-week", "", "Weekday numbers 1-7")
	f.StringVar(&newTask.TimesOfDay, "times", "", "HH:MM values")
	taskAddCmd.MarkFlagRequired("name")

	taskExportCmd.Flags().StringVar(&exportFormat, "format", "yaml", "Output format: yaml or csv")
	taskExportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout; required for csv)")

	taskImportCmd.Flags().StringVar(&importFormat, "format", "", "Input format: yaml or csv (default from extension)")
}

// withService opens the configured backend for the length of fn.
func withService(fn func(*controlplane.Service) error) error {
	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(b.service(nil))
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	return withService(func(svc *controlplane.Service) error {
		view, err := svc.CreateTask(newTask)
		if err != nil {
			return err
		}
		fmt.Printf("Created task: %s\n", view.ID)
		fmt.Printf("Schedule:     %s\n", view.Schedule)
		return nil
	})
}

func runTaskList(cmd *cobra.Command, args []string) error {
	return withService(func(svc *controlplane.Service) error {
		views, err := svc.ListTasks()
		if err != nil {
			return err
		}
		return printTasks(os.Stdout, views)
	})
}

func runTaskSearch(cmd *cobra.Command, args []string) error {
	return withService(func(svc *controlplane.Service) error {
		views, err := svc.SearchTasks(args[0])
		if err != nil {
			return err
		}
		return printTasks(os.Stdout, views)
	})
}

func printTasks(out io.Writer, views []controlplane.TaskView) error {
	if len(views) == 0 {
		fmt.Fprintln(out, "No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSCHEDULE\tLAST REMINDED")
	for _, v := range views {
		schedule := v.Schedule
		if v.Invalid != "" {
			schedule = "INVALID: " + v.Invalid
		}
		last := "never"
		if !v.LastReminded.IsZero() {
			last = v.LastReminded.Format(csvfile.LastRemindedLayout)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.ID, truncate(v.Name, 40), schedule, last)
	}
	return w.Flush()
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	return withService(func(svc *controlplane.Service) error {
		v, err := svc.GetTask(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("ID:            %s\n", v.ID)
		fmt.Printf("Name:          %s\n", v.Name)
		if v.URL != "" {
			fmt.Printf("URL:           %s\n", v.URL)
		}
		fmt.Printf("Recurring:     %t\n", v.Recurring)
		if v.Invalid != "" {
			fmt.Printf("Invalid:       %s\n", v.Invalid)
		} else {
			fmt.Printf("Schedule:      %s\n", v.Schedule)
		}
		printField("Active from", v.ActiveFrom)
		printField("Active until", v.ActiveUntil)
		printField("Days of year", v.DaysOfYear)
		printField("Days of month", v.DaysOfMonth)
		printField("Days of week", v.DaysOfWeek)
		printField("Times of day", v.TimesOfDay)
		if v.LastReminded.IsZero() {
			fmt.Printf("Last reminded: never\n")
		} else {
			fmt.Printf("Last reminded: %s\n", v.LastReminded.Format(csvfile.LastRemindedLayout))
		}
		return nil
	})
}

func printField(label, value string) {
	if value != "" {
		fmt.Printf("%-15s%s\n", label+":", value)
	}
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	return withService(func(svc *controlplane.Service) error {
		if err := svc.DeleteTask(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted task %s\n", args[0])
		return nil
	})
}

func runTaskExport(cmd *cobra.Command, args []string) error {
	return withService(func(svc *controlplane.Service) error {
		views, err := svc.ListTasks()
		if err != nil {
			return err
		}
		inputs := make([]task.Input, len(views))
		for i, v := range views {
			inputs[i] = v.Input
		}

		switch strings.ToLower(exportFormat) {
		case "csv":
			if exportOut == "" {
				return errors.New("--out is required for csv export")
			}
			if err := csvfile.New(exportOut).Replace(inputs); err != nil {
				return err
			}
		case "yaml", "yml":
			data, err := yaml.Marshal(taskDocument{Tasks: inputs})
			if err != nil {
				return fmt.Errorf("marshal tasks: %w", err)
			}
			if exportOut == "" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(exportOut, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
		default:
			return fmt.Errorf("unknown format %q, must be: yaml or csv", exportFormat)
		}
		fmt.Fprintf(os.Stderr, "Exported %d task(s) to %s\n", len(inputs), exportOut)
		return nil
	})
}

func runTaskImport(cmd *cobra.Command, args []string) error {
	inputs, err := readImport(args[0], importFormat)
	if err != nil {
		return err
	}

	return withService(func(svc *controlplane.Service) error {
		var failed int
		for _, in := range inputs {
			in.ID = ""
			view, err := svc.CreateTask(in)
			if err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "skip %q: %v\n", in.Name, err)
				continue
			}
			fmt.Printf("Imported %s (%s)\n", view.Name, view.Schedule)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d task(s) not imported", failed, len(inputs))
		}
		return nil
	})
}

// readImport reads tasks from path. format defaults from the file extension.
func readImport(path, format string) ([]task.Input, error) {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}

	switch format {
	case "csv":
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("open import file: %w", err)
		}
		return csvfile.New(path).ListTasks()
	case "yaml", "yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read import file: %w", err)
		}
		var doc taskDocument
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse import file: %w", err)
		}
		return doc.Tasks, nil
	default:
		return nil, fmt.Errorf("unknown format %q, must be: yaml or csv", format)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
