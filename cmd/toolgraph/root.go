package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// sampleQuestions are asked when no question is given.
var sampleQuestions = []string{
	"Quelle est la météo à Paris?",
	"Combien font 15 * 32 + 48?",
	"Qui a écrit Les Misérables?",
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var (
		question  string
		visualize bool
		outDir    string
	)

	cmd := &cobra.Command{
		Use:   "toolgraph",
		Short: "Answer questions with a tool-using agent",
		Long: `toolgraph reasons about a question, picks a tool (weather lookup,
calculator or a direct answer), runs it and composes the final answer.

Without --question it runs a small battery of sample questions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.close()
			p := newPrinter(cmd.OutOrStdout())
			if visualize {
				return runVisualize(cmd.Context(), p, outDir)
			}

			questions := sampleQuestions
			if strings.TrimSpace(question) != "" {
				questions = []string{question}
			}
			return a.ask(cmd.Context(), p, questions)
		},
	}

	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	cmd.Flags().StringVarP(&question, "question", "q", "", "question to answer")
	cmd.Flags().BoolVar(&visualize, "visualize", false, "print the graph and write agent_workflow.{dot,mmd,png}")
	cmd.Flags().StringVar(&outDir, "out-dir", ".", "directory for --visualize output")

	cmd.AddCommand(newServeCmd(a), newJournalCmd(a))
	return cmd
}

// ask answers each question in turn. Every question is attempted; the
// failures are returned together.
func (a *app) ask(ctx context.Context, p *printer, questions []string) error {
	ag, _, err := a.newAgent(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for i, q := range questions {
		if i > 0 {
			p.line("")
		}
		p.heading("Question: " + q)

		res, err := ag.Ask(ctx, q)
		if err != nil {
			p.warn("Error: " + err.Error())
			errs = append(errs, fmt.Errorf("%q: %w", q, err))
			continue
		}
		if res.State.Failed() {
			p.warn("Completed with errors: " + res.State.ErrorMessage.Or(""))
		}
		p.answer(res.Answer)
		p.line("run: %s", res.RunID)
	}
	return errors.Join(errs...)
}
