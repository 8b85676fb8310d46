package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/terra-clan/interview-engine/internal/ai"
	"github.com/terra-clan/interview-engine/internal/auth"
	"github.com/terra-clan/interview-engine/internal/config"
	"github.com/terra-clan/interview-engine/internal/interview"
	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/storage"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative commands against the configured database",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		return createAdmin(email, password)
	},
}

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print evaluation statistics",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withManager(printStats)
	},
}

var adminInterviewsCmd = &cobra.Command{
	Use:   "interviews",
	Short: "List all interviews, newest first",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withManager(printInterviews)
	},
}

func init() {
	adminCreateCmd.Flags().StringP("email", "e", "", "admin email address")
	adminCreateCmd.Flags().StringP("password", "p", "", "admin password (prompted when empty)")
	adminCreateCmd.MarkFlagRequired("email")

	adminCmd.AddCommand(adminCreateCmd, adminStatsCmd, adminInterviewsCmd)
	rootCmd.AddCommand(adminCmd)
}

// openAdminRepository opens the persistent store. The in-memory store is
// rejected since nothing written to it would survive the command.
func openAdminRepository(ctx context.Context) (*config.Config, storage.Repository, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.DSN == "" {
		return nil, nil, errors.New("DATABASE_DSN is required")
	}

	repo, err := openRepository(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, repo, nil
}

func createAdmin(email, password string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg, repo, err := openAdminRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	if password == "" {
		prompt := promptui.Prompt{
			Label: "Password",
			Mask:  '*',
			Validate: func(input string) error {
				if len(input) < auth.MinPasswordLength {
					return fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
				}
				return nil
			},
		}
		if password, err = prompt.Run(); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	authService, err := auth.NewService(repo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	user, err := authService.CreateAdmin(ctx, email, password)
	if err != nil {
		return err
	}

	color.Green("Admin %s created (id %d)", user.Email, user.ID)
	return nil
}

func withManager(fn func(context.Context, interview.Manager) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg, repo, err := openAdminRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	// Reporting never generates questions, so the offline interviewer is
	// enough
	interviewer := ai.NewDeterministic(loadQuestionBank(cfg.QuestionBank))
	return fn(ctx, interview.NewManager(repo, interviewer, nil))
}

func printStats(ctx context.Context, m interview.Manager) error {
	stats, err := m.ComputeStats(ctx)
	if err != nil {
		return err
	}

	color.Cyan("\n=== Interview statistics ===")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Evaluated", "Recommended", "Maybe", "Rejected", "Avg score"})
	table.Append([]string{
		strconv.Itoa(stats.Total),
		recommendationColor(models.RecommendHire)(strconv.Itoa(stats.Recommended)),
		recommendationColor(models.RecommendMaybe)(strconv.Itoa(stats.Maybe)),
		recommendationColor(models.RecommendNo)(strconv.Itoa(stats.Rejected)),
		strconv.FormatFloat(stats.AvgScore, 'f', 1, 64),
	})
	table.Render()
	return nil
}

func printInterviews(ctx context.Context, m interview.Manager) error {
	records, err := m.ListInterviews(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		color.Yellow("No interviews yet")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Candidate", "Email", "Role", "Status", "Score", "Recommendation", "Created"})
	for _, rec := range records {
		table.Append(interviewRow(rec))
	}
	table.Render()
	return nil
}

func interviewRow(rec *models.InterviewRecord) []string {
	var name, email, role string
	if rec.Candidate != nil {
		name, email, role = rec.Candidate.Name, rec.Candidate.Email, rec.Candidate.JobRole
	}

	score, recommendation := "-", "-"
	if rec.Evaluation != nil {
		score = strconv.Itoa(rec.Evaluation.OverallScore)
		recommendation = recommendationColor(rec.Evaluation.Recommendation)(string(rec.Evaluation.Recommendation))
	}

	return []string{
		strconv.FormatInt(rec.Interview.ID, 10),
		name,
		email,
		role,
		string(rec.Interview.Status),
		score,
		recommendation,
		rec.Interview.CreatedAt.Format(time.DateTime),
	}
}

func recommendationColor(r models.Recommendation) func(a ...any) string {
	switch r {
	case models.RecommendHire:
		return color.New(color.FgGreen).SprintFunc()
	case models.RecommendMaybe:
		return color.New(color.FgYellow).SprintFunc()
	case models.RecommendNo:
		return color.New(color.FgRed).SprintFunc()
	}
	return fmt.Sprint
}
