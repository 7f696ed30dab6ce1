package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"normasim/src/misc"
	"normasim/src/norma"
	"normasim/src/simulator"
)

var version = "0.1.0"

func main() {
	root_cmd := &cobra.Command{
		Use:   "normasim",
		Short: "Pipelined fixed-point online kernel learning simulator",
	}

	root_cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the simulator version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})

	root_cmd.AddCommand(&cobra.Command{
		Use:   "run <config.yaml>",
		Short: "Run a scenario described by a YAML config",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			config_loader := new(misc.ConfigLoader)
			config_loader.Init(args[0])

			config_validator := new(misc.ConfigValidator)
			config_validator.Init(config_loader)
			config_validator.Validate()

			simulator_ := new(simulator.Simulator)
			simulator_.Init(config_loader.Config())

			for !simulator_.IsFinished() {
				simulator_.Cycle()
			}

			simulator_.Dump()
			simulator_.Fini()
		},
	})

	root_cmd.AddCommand(&cobra.Command{
		Use:   "schedule <dictionary_size> <stages>",
		Short: "Print the derived SumR register schedule for a geometry",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			dictionary_size, err := strconv.Atoi(args[0])
			if err != nil {
				panic(err)
			}
			stages, err := strconv.Atoi(args[1])
			if err != nil {
				panic(err)
			}

			schedule, err := norma.ReductionSchedule(dictionary_size, stages)
			if err != nil {
				panic(err)
			}

			for level, registered := range schedule {
				marker := "pass"
				if registered {
					marker = "reg"
				}
				fmt.Printf("level %d: %s\n", level, marker)
			}
		},
	})

	if err := root_cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
