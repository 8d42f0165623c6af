// Command studyctl inspects and maintains the study profiles stored by the
// bot: listing users, printing stats, backups and spreadsheet reports.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/studybot/internal/config"
	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/internal/gamification"
	"github.com/example/studybot/internal/planner"
	"github.com/example/studybot/pkg/models"
)

var rootCmd = &cobra.Command{
	Use:   "studyctl",
	Short: "Maintenance tool for the study tracker bot",
	Long: `studyctl reads the same configuration as the bot (.env and
environment variables) and works directly on its database.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

// env is the opened storage shared by the commands
type env struct {
	cfg        *config.Config
	users      *database.UserRepository
	store      database.PlanStore
	careers    *gamification.Careers
	closeStore func() error
}

func openEnv() (*env, error) {
	cfg := config.Load()
	err := database.Connect(database.Config{
		Driver:  cfg.DatabaseDriver,
		URL:     cfg.DatabaseURL,
		DataDir: cfg.DataDir,
	})
	if err != nil {
		return nil, fmt.Errorf("database error: %v", err)
	}

	store, closeStore, err := database.OpenPlanStore(cfg.StorageBackend, cfg.RedisURL)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("storage error: %v", err)
	}

	careers := gamification.DefaultCareers()
	if cfg.CareersFile != "" {
		if careers, err = gamification.LoadCareers(cfg.CareersFile); err != nil {
			closeStore()
			database.Close()
			return nil, err
		}
	}

	return &env{
		cfg:        cfg,
		users:      database.NewUserRepository(),
		store:      store,
		careers:    careers,
		closeStore: closeStore,
	}, nil
}

func (e *env) Close() {
	e.closeStore()
	database.Close()
}

// planner loads the plans of an existing profile
func (e *env) planner(ctx context.Context, userID string) (*planner.Planner, *models.UserProfile, error) {
	profile, err := e.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if profile == nil {
		return nil, nil, fmt.Errorf("no profile with id %s", userID)
	}
	p := planner.New(profile.ID, e.store, planner.Options{Careers: e.careers})
	p.Load(ctx, profile.CareerID)
	return p, profile, nil
}
