package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pulsehq/pulse/core/config"
	"github.com/pulsehq/pulse/core/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo data into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed()
	},
}

func init() {
	seedCmd.Flags().StringVarP(&configPath, "config", "c", "pulse.yaml", "path to the configuration file")
	rootCmd.AddCommand(seedCmd)
}

func runSeed() error {
	manager := config.NewManager(configPath)
	if err := manager.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ds, err := store.NewSQLiteStore(store.SQLiteConfig{Path: manager.Get().Database.Path})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer ds.Close()

	ctx := context.Background()

	employees := []*store.Employee{
		{ID: "e-admin", UserID: "admin@pulsehq.dev", Name: "Dana Whitfield", Email: "admin@pulsehq.dev", Department: "HR", Salary: 140000},
		{ID: "e-mgr", UserID: "mgr@pulsehq.dev", Name: "Blake Morgan", Email: "mgr@pulsehq.dev", Department: "Engineering", Salary: 155000},
		{ID: "e-1", UserID: "avery@pulsehq.dev", Name: "Avery Quinn", Email: "avery@pulsehq.dev", Department: "Engineering", ManagerID: "e-mgr", Salary: 98000},
		{ID: "e-2", UserID: "casey@pulsehq.dev", Name: "Casey Lin", Email: "casey@pulsehq.dev", Department: "Sales", ManagerID: "e-mgr", Salary: 84000},
	}
	for _, e := range employees {
		e.StartDate = time.Now().AddDate(-1, 0, 0)
		if err := ds.Employees().Create(ctx, e); err != nil {
			return fmt.Errorf("seed employee %s: %w", e.Name, err)
		}
	}

	if err := ds.PTO().Create(ctx, &store.PTORequest{
		ID: "1", EmployeeID: "e-1", Days: 3,
		StartDate: time.Now().AddDate(0, 0, 14),
		EndDate:   time.Now().AddDate(0, 0, 17),
		Note:      "Long weekend",
	}); err != nil {
		return fmt.Errorf("seed pto: %w", err)
	}

	candidates := []*store.Candidate{
		{ID: uuid.New().String(), Name: "Jordan Reyes", Email: "jordan@example.com", Stage: "SCREENING"},
		{ID: uuid.New().String(), Name: "Sam Okafor", Email: "sam@example.com", Stage: "APPLIED"},
	}
	for _, c := range candidates {
		if err := ds.Candidates().Create(ctx, c); err != nil {
			return fmt.Errorf("seed candidate %s: %w", c.Name, err)
		}
	}

	tools := []*store.Tool{
		{ID: "t-laptop", Name: "laptop", Available: 5},
		{ID: "t-monitor", Name: "monitor", Available: 8},
		{ID: "t-badge", Name: "badge", Available: 20},
	}
	for _, t := range tools {
		if err := ds.Tools().Create(ctx, t); err != nil {
			return fmt.Errorf("seed tool %s: %w", t.Name, err)
		}
	}

	policies := []*store.Policy{
		{ID: uuid.New().String(), Title: "Time Off", Summary: "Employees accrue 25 days of PTO per year. Requests need manager approval."},
		{ID: uuid.New().String(), Title: "Remote Work", Summary: "Up to three remote days per week with manager sign-off."},
		{ID: uuid.New().String(), Title: "Equipment", Summary: "Equipment is assigned per person and must be returned on offboarding."},
	}
	for _, p := range policies {
		if err := ds.Policies().Create(ctx, p); err != nil {
			return fmt.Errorf("seed policy %s: %w", p.Title, err)
		}
	}

	for _, e := range employees[2:] {
		if err := ds.Documents().Create(ctx, &store.Document{
			ID:         uuid.New().String(),
			EmployeeID: e.ID,
			Title:      "Onboarding Checklist",
		}); err != nil {
			return fmt.Errorf("seed document: %w", err)
		}
	}

	fmt.Println("demo data loaded")
	return nil
}
