// Command simulate runs simulated learners against the scheduler and prints
// how often each question came up and where it ended.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/question"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/infrastructure/logging"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/simulation"
)

func main() {
	cfg := simulation.DefaultConfig()
	flag.IntVar(&cfg.Questions, "questions", cfg.Questions, "deck size")
	flag.IntVar(&cfg.Rounds, "rounds", cfg.Rounds, "questions answered per learner")
	flag.IntVar(&cfg.Learners, "learners", cfg.Learners, "number of simulated learners")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "learners simulated in parallel")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	flag.Float64Var(&cfg.LearnRate, "learn-rate", cfg.LearnRate, "how fast learners pick up an answer after seeing it (0..1)")
	logLevel := flag.String("log-level", "warn", "debug, info, warn or error")
	flag.Parse()

	logger, err := logging.New(os.Stderr, "text", *logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := simulation.Run(ctx, cfg, logger)
	if err != nil {
		logger.Error("simulation failed", "error", err)
		os.Exit(1)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "learner\tcorrect\t")
	for l := question.MinLevel; l <= question.MaxLevel; l++ {
		fmt.Fprintf(tw, "level %d\t", l)
	}
	fmt.Fprintln(tw)

	reviews := make([]int, cfg.Questions)
	for _, r := range results {
		fmt.Fprintf(tw, "%d\t%d/%d\t", r.Learner, r.Correct, cfg.Rounds)
		for l := question.MinLevel; l <= question.MaxLevel; l++ {
			fmt.Fprintf(tw, "%d\t", r.LevelCounts[l])
		}
		fmt.Fprintln(tw)
		for i, n := range r.Reviews {
			reviews[i] += n
		}
	}
	tw.Flush()

	fmt.Println()
	fmt.Println("reviews per question (hardest first):")
	for i, n := range reviews {
		fmt.Printf("  Q%-3d %d\n", i+1, n)
	}
}
