package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opscart/hardware-explorer/pkg/explorer"
	"github.com/opscart/hardware-explorer/pkg/guidance"
	"github.com/opscart/hardware-explorer/pkg/models"
	"github.com/opscart/hardware-explorer/pkg/output"
	"github.com/opscart/hardware-explorer/pkg/reporter"
)

func runJira(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := setup(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	if dryRun {
		return printCandidates(s.plan.Jira.Candidates())
	}

	g, err := guidance.NewJiraGuidance(s.plan.Jira, s.plan.Thresholds, nil, s.logger)
	if err != nil {
		return fmt.Errorf("invalid jira plan: %w", err)
	}
	return s.explore(ctx, "jira-"+s.plan.Workload.Label, g)
}

func runDatabase(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := setup(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	jira := s.plan.Database.Jira
	if len(jira) == 0 {
		cached, err := s.cachedResults(ctx)
		if err != nil {
			return err
		}
		jira = guidance.BestByApdex(cached, s.plan.Thresholds, s.plan.Database.JiraCount)
		if len(jira) == 0 {
			return fmt.Errorf("no cached jira result of %s meets the thresholds, run the jira exploration first", s.plan.Workload.Label)
		}
		s.logger.Info("pairing databases with the best jira hardware", zap.Stringers("jira", jira))
	}

	plan := guidance.DatabasePlan{Jira: jira, InstanceTypes: s.plan.Database.InstanceTypes}
	if dryRun {
		return printCandidates(plan.Candidates())
	}

	g, err := guidance.NewDatabaseGuidance(plan, s.plan.Thresholds, nil, s.logger)
	if err != nil {
		return fmt.Errorf("invalid database plan: %w", err)
	}
	return s.explore(ctx, "database-"+s.plan.Workload.Label, g)
}

// explore runs guidance to completion and displays whatever was collected,
// including the partial results of an aborted exploration
func (s *session) explore(ctx context.Context, task string, g guidance.Guidance) error {
	exp, err := s.explorer(ctx, task)
	if err != nil {
		return err
	}

	handler, err := output.NewHandler(outputFormat, os.Stdout)
	if err != nil {
		return err
	}

	results, exploreErr := exp.Explore(ctx, s.plan.Workload, g, s.plan.Repeats)

	var abort *explorer.AbortError
	if errors.As(exploreErr, &abort) {
		s.logger.Error("exploration aborted",
			zap.Stringer("hardware", abort.Hardware),
			zap.Int("explored", len(results)),
			zap.Error(abort.Err))
	}

	if err := s.display(ctx, handler, results); err != nil {
		return errors.Join(exploreErr, err)
	}
	if reportOutput != "" {
		if err := s.render(ctx, results, reportOutput); err != nil {
			return errors.Join(exploreErr, err)
		}
	}
	return exploreErr
}

func (s *session) display(ctx context.Context, handler output.Handler, results []models.ExplorationResult) error {
	if err := handler.DisplayResults(ctx, s.rec.AssessAll(results)); err != nil {
		return err
	}
	recommendations, err := s.rec.Recommend(ctx, results)
	if err != nil {
		return fmt.Errorf("failed to rank recommendations: %w", err)
	}
	return handler.DisplayRecommendations(ctx, recommendations)
}

func (s *session) render(ctx context.Context, results []models.ExplorationResult, path string) error {
	rep := reporter.New(reporter.ReportFormat(strings.ToLower(reportFormat)), s.rec)
	if err := rep.Render(ctx, results, s.plan.Workload.Label, path); err != nil {
		return err
	}
	s.logger.Info("report generated", zap.String("path", path))
	return nil
}

func printCandidates(candidates []models.Hardware) error {
	fmt.Printf("[DRY-RUN] %d candidates in exploration order, guidance stops each axis early on diminishing returns\n", len(candidates))
	for i, hw := range candidates {
		fmt.Printf("%3d. %s\n", i+1, hw)
	}
	return nil
}
