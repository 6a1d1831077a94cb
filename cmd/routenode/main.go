// Command routenode starts one routing-protocol node: it parses its
// positional arguments, binds a loopback UDP socket, and runs either the
// Distance-Vector or Link-State engine until the process is terminated, per
// spec §6.1.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/amhuang/routing-protocols/internal/dv"
	"github.com/amhuang/routing-protocols/internal/node"
	"github.com/amhuang/routing-protocols/internal/transport"
)

const usage = "Usage: routenode <dv|ls> <r|p> <update-interval> <local-port> <neighbor1-port> <cost-1> [<neighbor2-port> <cost-2> ...] [last] [<cost-change>]"

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Println(usage)
		fmt.Println(err)
		os.Exit(1)
	}

	tr, err := transport.ListenUDP(cfg.LocalPort)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer tr.Close()

	n := node.New(cfg, tr, os.Stdout)
	n.Run(context.Background())
}

func parseArgs(args []string) (node.Config, error) {
	var cfg node.Config
	if len(args) < 4 {
		return cfg, fmt.Errorf("not enough arguments")
	}

	algo, ok := node.ParseAlgorithm(args[0])
	if !ok {
		return cfg, fmt.Errorf("algorithm must be %q or %q", "dv", "ls")
	}
	cfg.Algorithm = algo

	switch args[1] {
	case "r":
		cfg.Mode = dv.ModeRegular
	case "p":
		if algo == node.AlgoLS {
			return cfg, fmt.Errorf("the link-state algorithm can only be run in regular mode, %q", "r")
		}
		cfg.Mode = dv.ModePoisoned
	default:
		return cfg, fmt.Errorf("mode must be %q (regular) or %q (poisoned reverse)", "r", "p")
	}

	interval, err := strconv.Atoi(args[2])
	if err != nil || interval <= 0 {
		return cfg, fmt.Errorf("update-interval must be a positive integer")
	}
	cfg.UpdateInterval = time.Duration(interval) * time.Second

	localPort, err := strconv.Atoi(args[3])
	if err != nil {
		return cfg, fmt.Errorf("local-port must be an integer")
	}
	if err := validatePort(localPort); err != nil {
		return cfg, err
	}
	cfg.LocalPort = localPort

	neighbors := make(map[int]float64)
	i := 4
	for i < len(args) && args[i] != "last" {
		if i+1 >= len(args) {
			return cfg, fmt.Errorf("neighbor %s is missing its cost", args[i])
		}
		port, err := strconv.Atoi(args[i])
		if err != nil {
			return cfg, fmt.Errorf("neighbor port must be an integer")
		}
		if err := validatePort(port); err != nil {
			return cfg, err
		}
		cost, err := strconv.Atoi(args[i+1])
		if err != nil || cost < 0 {
			return cfg, fmt.Errorf("neighbor cost must be a non-negative integer")
		}
		neighbors[port] = float64(cost)
		i += 2
	}
	if len(neighbors) == 0 {
		return cfg, fmt.Errorf("at least one neighbor-port/cost pair is required")
	}
	cfg.Neighbors = neighbors

	if i < len(args) && args[i] == "last" {
		cfg.Last = true
		i++
	}
	if i < len(args) {
		costChange, err := strconv.Atoi(args[i])
		if err != nil {
			return cfg, fmt.Errorf("cost-change must be an integer")
		}
		if !cfg.Last {
			return cfg, fmt.Errorf("cost-change is only meaningful when %q is present", "last")
		}
		cfg.HasCostChange = true
		cfg.CostChange = float64(costChange)
		i++
	}
	if i != len(args) {
		return cfg, fmt.Errorf("unexpected trailing arguments")
	}

	return cfg, nil
}

func validatePort(port int) error {
	if port < 1024 || port > 65535 {
		return fmt.Errorf("port %d out of range [1024, 65535]", port)
	}
	return nil
}
