package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/optinet/optinet/internal/service"
	"github.com/optinet/optinet/pkg/model"
	"github.com/optinet/optinet/pkg/writer"
)

var (
	runExpr     string
	runFile     string
	runGasLimit uint64
	runJobUUID  string
	runOutput   string
)

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Reduce a lambda calculus program to normal form",
	Long: `Parse a program, reduce it to normal form under a gas budget, and print
the result along with the per-rule rewrite-step histogram.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	binName := BinName()
	runCmd.Example = fmt.Sprintf(`  # Reduce an inline expression
  %s run -e "((λx: x) λy: y)"

  # Reduce a program read from a file
  %s run -i ./identity.lc --gas 100000`, binName, binName)

	runCmd.Flags().StringVarP(&runExpr, "expr", "e", "", "Program source, given inline")
	runCmd.Flags().StringVarP(&runFile, "input", "i", "", "Program source, read from a file")
	runCmd.Flags().Uint64Var(&runGasLimit, "gas", 1_000_000, "Gas limit (maximum rewrite steps)")
	runCmd.Flags().StringVar(&runJobUUID, "uuid", "", "Job UUID (auto-generated if empty)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Write the result as JSON to this path (.gz for gzipped)")
}

func runRun(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	program, err := readProgramSource(runExpr, runFile)
	if err != nil {
		return err
	}

	jobUUID := runJobUUID
	if jobUUID == "" {
		jobUUID = uuid.NewString()
	}

	svc := service.NewReductionService(GetConfig(), nil, nil, log)

	resp, err := svc.Reduce(context.Background(), &model.ReductionRequest{
		JobUUID:  jobUUID,
		Program:  program,
		GasLimit: runGasLimit,
	})
	if err != nil {
		return fmt.Errorf("reduction failed: %w", err)
	}

	printReductionResult(resp)

	if runOutput != "" {
		if err := writer.NewPrettyJSONWriter[*model.ReductionResponse]().WriteToFile(resp, runOutput); err != nil {
			return fmt.Errorf("failed to write result file: %w", err)
		}
		log.Info("Result written to %s", runOutput)
	}

	if resp.Status == model.JobStatusFailed {
		os.Exit(1)
	}
	return nil
}

// readProgramSource resolves the program text from an inline expression or
// a file, preferring the inline expression when both are given.
func readProgramSource(expr, file string) (string, error) {
	if expr != "" {
		return expr, nil
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("one of --expr or --input is required")
}

func printReductionResult(resp *model.ReductionResponse) {
	log := GetLogger()
	log.Info("=== Reduction Result ===")
	log.Info("Job UUID: %s", resp.JobUUID)
	log.Info("Status:   %s", resp.Status)
	if resp.Status == model.JobStatusFailed {
		log.Info("Error:    %s", resp.Error)
		return
	}
	log.Info("Normal form: %s", resp.NormalForm)
	log.Info("")
	log.Info("=== Rewrite Steps ===")
	log.Info("APP-LAM:             %d", resp.Stats.AppLam)
	log.Info("APP-PAR:             %d", resp.Stats.AppPar)
	log.Info("LET-LAM:             %d", resp.Stats.LetLam)
	log.Info("LET-PAR (annihilate): %d", resp.Stats.LetParAnnihilate)
	log.Info("LET-PAR (commute):    %d", resp.Stats.LetParCommute)
	log.Info("LET-CTR:             %d", resp.Stats.LetCtr)
	log.Info("Total:               %d", resp.Stats.Total())
}
