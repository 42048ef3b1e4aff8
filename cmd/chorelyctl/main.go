// Command chorelyctl administers a chorely database directly: it creates
// households, people and tasks, and runs the chore engine from the shell.
package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/database"
	"github.com/dukerupert/chorely/internal/logging"
	"github.com/dukerupert/chorely/internal/recurrence"
	"github.com/dukerupert/chorely/internal/store"
)

var Version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, time.Now); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes one command line and closes the database afterwards, whether
// or not the command succeeded.
func run(args []string, out io.Writer, now func() time.Time) error {
	rootCmd, a := newRootCmd(out, now)
	rootCmd.SetArgs(args)
	defer a.close()
	return rootCmd.Execute()
}

// app holds what every subcommand needs once the database is open.
type app struct {
	out    io.Writer
	now    func() time.Time
	logger *slog.Logger
	db     *sql.DB

	households *store.HouseholdStore
	people     *store.PersonStore
	tasks      *store.TaskStore
	instances  *store.InstanceStore
	marks      *store.BlackMarkStore

	classifier   *chore.Classifier
	materializer *chore.Materializer
	processor    *chore.Processor
	assembler    *chore.Assembler
	admin        *chore.Tasks
}

func newRootCmd(out io.Writer, now func() time.Time) (*cobra.Command, *app) {
	a := &app{out: out, now: now}
	var dbPath, timezone, logLevel string

	rootCmd := &cobra.Command{
		Use:           "chorelyctl",
		Short:         "Administer a chorely household database",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(timezone)
			if err != nil {
				return fmt.Errorf("timezone: %w", err)
			}
			return a.open(dbPath, loc, logLevel)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", envOr("CHORELY_DB_PATH", "chorely.db"), "Path to the SQLite database")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", envOr("CHORELY_TIMEZONE", "Local"), "Household time zone (IANA name)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(householdCmd(a))
	rootCmd.AddCommand(personCmd(a))
	rootCmd.AddCommand(taskCmd(a))
	rootCmd.AddCommand(materializeCmd(a))
	rootCmd.AddCommand(dashboardCmd(a))
	rootCmd.AddCommand(completeCmd(a))
	rootCmd.AddCommand(marksCmd(a))
	return rootCmd, a
}

func (a *app) open(dbPath string, loc *time.Location, logLevel string) error {
	a.logger = logging.New(os.Stderr, logLevel, "text")
	db, err := database.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.db = db

	a.households = store.NewHouseholdStore(db)
	a.people = store.NewPersonStore(db)
	a.tasks = store.NewTaskStore(db)
	a.instances = store.NewInstanceStore(db)
	a.marks = store.NewBlackMarkStore(db)

	a.classifier = chore.NewClassifier(loc)
	a.materializer = chore.NewMaterializer(a.instances, a.logger)
	a.processor = chore.NewProcessor(a.tasks, a.instances, a.people, a.materializer, a.classifier, a.logger)
	a.assembler = chore.NewAssembler(a.tasks, a.instances, a.people, a.marks, a.materializer, a.classifier, a.logger)
	a.admin = chore.NewTasks(a.tasks, a.people, a.logger)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDay(flag, s string) (recurrence.Day, error) {
	d, err := recurrence.ParseDay(s)
	if err != nil {
		return recurrence.Day{}, fmt.Errorf("--%s: want YYYY-MM-DD: %w", flag, err)
	}
	return d, nil
}

// parseOptionalDay returns nil for an empty flag value.
func parseOptionalDay(flag, s string) (*recurrence.Day, error) {
	if s == "" {
		return nil, nil
	}
	d, err := parseDay(flag, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
