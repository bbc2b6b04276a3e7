package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talvik/intervu/internal/logger"
	"github.com/talvik/intervu/internal/store"
)

const (
	PromptBack    = "back"
	PromptInspect = "Inspect"
	PromptDelete  = "Delete"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Browse and manage stored interview sessions",
	Run: func(cmd *cobra.Command, _ []string) {
		sessions(cmd)
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

// sessions is an interactive admin loop over the session store.
func sessions(_ *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config.Database == nil || config.Database.URL == "" {
		logger.Fatal(
			"a database is required to browse sessions",
			zap.String("hint", "set DATABASE_URL environment variable or the 'database.url' key in the configuration file"),
		)
	}

	st, cleanup, err := newStore(ctx, config.Database, logger)
	if err != nil {
		logger.Fatal("building the session store", zap.Error(err))
	}
	defer cleanup()

	for {
		records, err := st.List(ctx)
		if err != nil {
			logger.Fatal("listing sessions", zap.Error(err))
		}

		if len(records) == 0 {
			logger.Info("exiting", zap.String("reason", "no stored sessions"))
			return
		}

		items := make([]string, 0, len(records)+1)
		for _, r := range records {
			items = append(items, sessionLabel(r))
		}

		sessionPrompt := promptui.Select{
			Label: "Choose a session and press ENTER",
			Items: append(items, PromptBack),
		}

		_, selected, err := sessionPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if selected == PromptBack {
			return
		}

		id := strings.Split(selected, " ")[0]
		if err := handleSession(ctx, st, id, logger); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func sessionLabel(r *store.Record) string {
	status := "pending"
	switch {
	case r.Report != nil:
		status = fmt.Sprintf("scored %d/100", r.Report.Score)
	case r.Context != nil:
		status = "incomplete"
	}

	name := "?"
	if r.Context != nil {
		name = r.Context.CandidateName
	}

	return fmt.Sprintf("%s %s / %s / %s", r.ID, name, status, r.CreatedAt.Format("2006-01-02 15:04"))
}

func handleSession(ctx context.Context, st store.Store, id string, log *zap.Logger) error {
	actionPrompt := promptui.Select{
		Label: "Action",
		Items: []string{PromptInspect, PromptDelete, PromptBack},
	}

	_, action, err := actionPrompt.Run()
	if err != nil {
		return err
	}

	switch action {
	case PromptBack:
		return nil
	case PromptInspect:
		record, err := st.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("loading session %s: %w", id, err)
		}

		// do not bother error since the record came from the store
		pretty, _ := json.MarshalIndent(record, "", "  ")
		fmt.Println(string(pretty))
		return nil
	case PromptDelete:
		if err := st.Delete(ctx, id); err != nil {
			return fmt.Errorf("deleting session %s: %w", id, err)
		}

		log.Info("deleted session", zap.String(logger.FieldSession, id))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}
