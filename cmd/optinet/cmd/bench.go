package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/optinet/optinet/internal/service"
	"github.com/optinet/optinet/pkg/model"
	"github.com/optinet/optinet/pkg/parallel"
)

var (
	benchExpr      string
	benchFile      string
	benchGasLimits string
	benchSuite     bool
)

// suitePrograms are the built-in demo programs `bench --suite` sweeps:
// a plain beta step, self-application through a duplicator, a fan
// application, and a Church-numeral doubling counted with constructor
// applications.
var suitePrograms = []struct {
	name    string
	program string
}{
	{"identity_applied_to_k", "(λx: x λa: λb: a)"},
	{"dup_identity_self_apply", "!0<a b> = λx: x; (a b)"},
	{"apply_fan_of_identities", "(&0<λx: x λx: x> λk: k)"},
	{"church_double_one", "(((λn: λs: λz: !2<n0 n1> = n; !3<s2 s3> = s; ((n0 s2) ((n1 s3) z)) (λn: λs: λz: !1<s0 s1> = s; (s0 ((n s1) z)) λs: λz: z)) λx: $1:1{x}) $0:0{})"},
}

// benchCmd represents the bench command.
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Check that a program converges to the same normal form across gas budgets",
	Long: `Reduce a program independently under each of a list of gas limits and
report whether every limit at or above the first one that reaches a fixpoint
agrees on the normalized result. A mismatch indicates an optimality bug:
genuinely optimal reduction must not depend on how much gas it was given,
only on whether it was given enough.`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	binName := BinName()
	benchCmd.Example = fmt.Sprintf(`  # Check convergence across three gas budgets
  %s bench -e "((λx: x) λy: y)" --gas 100,1000,10000`, binName)

	benchCmd.Flags().StringVarP(&benchExpr, "expr", "e", "", "Program source, given inline")
	benchCmd.Flags().StringVarP(&benchFile, "input", "i", "", "Program source, read from a file")
	benchCmd.Flags().StringVar(&benchGasLimits, "gas", "1000,10000,100000", "Comma-separated gas limits to compare")
	benchCmd.Flags().BoolVar(&benchSuite, "suite", false, "Run the built-in demo suite concurrently instead of a single program")
}

func runBench(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	if benchSuite {
		return runBenchSuite(cmd.Context())
	}

	program, err := readProgramSource(benchExpr, benchFile)
	if err != nil {
		return err
	}

	gasLimits, err := parseGasLimits(benchGasLimits)
	if err != nil {
		return err
	}

	result, err := service.CheckConvergence(context.Background(), program, gasLimits)
	if err != nil {
		return fmt.Errorf("convergence check failed: %w", err)
	}

	log.Info("=== Convergence Report ===")
	for i, gas := range result.GasLimits {
		log.Info("  gas=%-10d normal_form=%s", gas, result.NormalForms[i])
	}
	log.Info("")
	if result.Convergent {
		log.Info("Convergent: all gas budgets reaching a normal form agree.")
		return nil
	}

	log.Info("Convergent: false — normal forms disagree across gas budgets")
	os.Exit(1)
	return nil
}

// runBenchSuite reduces every built-in demo program concurrently, one
// heap per program, and reports each normal form with its rewrite
// count.
func runBenchSuite(ctx context.Context) error {
	log := GetLogger()
	if ctx == nil {
		ctx = context.Background()
	}

	var mu sync.Mutex
	lines := make(map[string]string, len(suitePrograms))

	succeeded, err := parallel.ForEach(ctx, suitePrograms, parallel.DefaultPoolConfig(),
		func(ctx context.Context, entry struct{ name, program string }) error {
			svc := service.NewReductionService(GetConfig(), nil, nil, log)
			resp, err := svc.Reduce(ctx, &model.ReductionRequest{
				JobUUID:  entry.name,
				Program:  entry.program,
				GasLimit: 10_000_000,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", entry.name, err)
			}
			if resp.Status != model.JobStatusSucceeded {
				return fmt.Errorf("%s: finished with status %s: %s", entry.name, resp.Status, resp.Error)
			}
			mu.Lock()
			lines[entry.name] = fmt.Sprintf("%-28s rewrites=%-6d normal_form=%s",
				entry.name, resp.Stats.Total(), resp.NormalForm)
			mu.Unlock()
			return nil
		})

	log.Info("=== Suite Report ===")
	for _, entry := range suitePrograms {
		if line, ok := lines[entry.name]; ok {
			log.Info("  %s", line)
		}
	}
	log.Info("%d/%d programs reduced", succeeded, len(suitePrograms))
	if err != nil {
		return err
	}
	return nil
}

func parseGasLimits(s string) ([]uint64, error) {
	parts := strings.Split(s, ",")
	limits := make([]uint64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid gas limit %q: %w", p, err)
		}
		limits = append(limits, n)
	}
	if len(limits) == 0 {
		return nil, fmt.Errorf("at least one gas limit is required")
	}
	return limits, nil
}
