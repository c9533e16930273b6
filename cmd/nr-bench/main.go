// Command nr-bench runs one or more noderep workload scenarios described by
// a JSONC scenario file and reports throughput for each.
package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/flatcombine/noderep/examples/counter"
	"github.com/flatcombine/noderep/examples/hashset"
	"github.com/flatcombine/noderep/examples/stack"
	"github.com/flatcombine/noderep/internal/affinity"
	"github.com/flatcombine/noderep/internal/benchconfig"
	"github.com/flatcombine/noderep/internal/resultsfile"
	"github.com/flatcombine/noderep/pkg/noderep"
)

func main() {
	var (
		scenarioPath = flag.StringP("scenarios", "s", "", "path to a JSONC scenario file")
		outPath      = flag.StringP("out", "o", "", "path to write JSON results to (default: stdout only)")
	)

	flag.Parse()

	if *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "nr-bench: --scenarios is required")
		os.Exit(2)
	}

	file, err := benchconfig.Load(*scenarioPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "nr-bench:", err)
		os.Exit(1)
	}

	var results []resultsfile.Result

	for _, sc := range file.Scenarios {
		ops, seconds := runScenario(sc)
		opsPerUs := float64(ops) / seconds / 1e6

		fmt.Printf("%-20s ops=%-10d elapsed=%-12.3f %.2f ops/us\n", sc.Name, ops, seconds, opsPerUs)

		results = append(results, resultsfile.Result{
			Scenario: sc.Name,
			Ops:      ops,
			Seconds:  seconds,
			OpsPerUs: opsPerUs,
		})
	}

	if *outPath != "" {
		if err := resultsfile.Write(*outPath, results); err != nil {
			fmt.Fprintln(os.Stderr, "nr-bench:", err)
			os.Exit(1)
		}
	}
}

func runScenario(sc benchconfig.Scenario) (ops int, seconds float64) {
	logBytes := sc.LogBytes
	if logBytes == 0 {
		logBytes = noderep.DefaultLogBytes
	}

	start := time.Now()

	switch sc.Workload {
	case benchconfig.WorkloadCounter:
		ops = runCounterScenario(sc, logBytes)
	case benchconfig.WorkloadStack:
		ops = runStackScenario(sc, logBytes)
	case benchconfig.WorkloadHashset:
		ops = runHashsetScenario(sc, logBytes)
	default:
		fmt.Fprintf(os.Stderr, "nr-bench: unknown workload %q\n", sc.Workload)
		os.Exit(1)
	}

	return ops, time.Since(start).Seconds()
}

func pinIfRequested(sc benchconfig.Scenario, core int) func() {
	if !sc.PinCores {
		return func() {}
	}

	pin, err := affinity.PinCurrentThread(core)
	if err != nil {
		return func() {}
	}

	return pin.Unpin
}

func runCounterScenario(sc benchconfig.Scenario, logBytes int) int {
	log := noderep.NewLog[counter.IncOp](logBytes, 0)

	var wg sync.WaitGroup

	core := 0

	for r := 0; r < sc.Replicas; r++ {
		rep, err := noderep.NewReplica[counter.ReadOp, counter.IncOp, int](counter.New(), log)
		if err != nil {
			fmt.Fprintln(os.Stderr, "nr-bench:", err)
			os.Exit(1)
		}

		for i := 0; i < sc.ThreadsPerReplica; i++ {
			wg.Add(1)

			myCore := core
			core++

			go func() {
				defer wg.Done()

				unpin := pinIfRequested(sc, myCore)
				defer unpin()

				tok, err := rep.Register()
				if err != nil {
					fmt.Fprintln(os.Stderr, "nr-bench:", err)
					return
				}

				for j := 0; j < sc.OpsPerThread; j++ {
					rep.ExecuteMut(counter.IncOp{}, tok)
				}
			}()
		}
	}

	wg.Wait()

	return sc.Replicas * sc.ThreadsPerReplica * sc.OpsPerThread
}

func runStackScenario(sc benchconfig.Scenario, logBytes int) int {
	log := noderep.NewLog[stack.WriteOp](logBytes, 0)

	var wg sync.WaitGroup

	for r := 0; r < sc.Replicas; r++ {
		rep, err := noderep.NewReplica[stack.ReadOp, stack.WriteOp, stack.Response](stack.New(), log)
		if err != nil {
			fmt.Fprintln(os.Stderr, "nr-bench:", err)
			os.Exit(1)
		}

		for i := 0; i < sc.ThreadsPerReplica; i++ {
			wg.Add(1)

			go func() {
				defer wg.Done()

				tok, err := rep.Register()
				if err != nil {
					fmt.Fprintln(os.Stderr, "nr-bench:", err)
					return
				}

				for j := 0; j < sc.OpsPerThread; j++ {
					rep.ExecuteMut(stack.Push(j), tok)
				}
			}()
		}
	}

	wg.Wait()

	return sc.Replicas * sc.ThreadsPerReplica * sc.OpsPerThread
}

func runHashsetScenario(sc benchconfig.Scenario, logBytes int) int {
	log := noderep.NewLog[hashset.InsertOp](logBytes, 0)

	var wg sync.WaitGroup

	for r := 0; r < sc.Replicas; r++ {
		rep, err := noderep.NewReplica[hashset.ContainsOp, hashset.InsertOp, bool](hashset.New(), log)
		if err != nil {
			fmt.Fprintln(os.Stderr, "nr-bench:", err)
			os.Exit(1)
		}

		for i := 0; i < sc.ThreadsPerReplica; i++ {
			wg.Add(1)

			go func() {
				defer wg.Done()

				tok, err := rep.Register()
				if err != nil {
					fmt.Fprintln(os.Stderr, "nr-bench:", err)
					return
				}

				for j := 0; j < sc.OpsPerThread; j++ {
					rep.ExecuteMut(hashset.InsertOp{Value: j}, tok)
				}
			}()
		}
	}

	wg.Wait()

	return sc.Replicas * sc.ThreadsPerReplica * sc.OpsPerThread
}
