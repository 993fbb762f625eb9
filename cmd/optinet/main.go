// Command optinet is the CLI front end for the optimal reduction engine,
// offering one-shot reduction (run), convergence benchmarking (bench),
// and the long-running reduction service (serve).
package main

import "github.com/optinet/optinet/cmd/optinet/cmd"

func main() {
	cmd.Execute()
}
