package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/irobf"
	"github.com/wippyai/irobf/policy"
)

// Environment variables consulted when the matching flag is absent.
const (
	envConfig = "IROBF_CONFIG"
	envRules  = "IROBF_RULES"
)

// policyFlags are the flags shared by every command that resolves policy.
type policyFlags struct {
	levels     map[policy.Kind]*uint32
	enable     []string
	configPath string
	rulesPath  string
	seed       uint64
	master     bool
}

func addPolicyFlags(cmd *cobra.Command) *policyFlags {
	pf := &policyFlags{levels: make(map[policy.Kind]*uint32)}
	fs := cmd.Flags()
	fs.BoolVar(&pf.master, "irobf", false, "turn obfuscation on even if nothing is enabled")
	fs.StringSliceVar(&pf.enable, "enable", nil, "enable transforms globally (repeatable, comma separated)")
	fs.StringVar(&pf.configPath, "config", "", "global config file, JSON or YAML (env "+envConfig+")")
	fs.StringVar(&pf.rulesPath, "rules", "", "function match rule file (env "+envRules+")")
	fs.Uint64Var(&pf.seed, "seed", 0, "seed for reproducible output")
	for _, k := range policy.Kinds() {
		v := new(uint32)
		pf.levels[k] = v
		fs.Uint32Var(v, "level-"+k.String(), 0, "level of "+k.Description()+", overrides the config file")
	}
	return pf
}

// options converts the flags to irobf.Options. Levels and the seed are
// only set when given on the command line, so the config file keeps
// control otherwise.
func (pf *policyFlags) options(cmd *cobra.Command) (irobf.Options, error) {
	opts := irobf.Options{
		Master:     pf.master,
		ConfigPath: pf.configPath,
		RulesPath:  pf.rulesPath,
	}
	if !cmd.Flags().Changed("config") {
		opts.ConfigPath = os.Getenv(envConfig)
	}
	if !cmd.Flags().Changed("rules") {
		opts.RulesPath = os.Getenv(envRules)
	}

	for _, name := range pf.enable {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		k, ok := policy.ParseKind(name)
		if !ok {
			return opts, fmt.Errorf("unknown transform %q", name)
		}
		opts.Enable = append(opts.Enable, k)
	}

	for k, v := range pf.levels {
		if cmd.Flags().Changed("level-" + k.String()) {
			if opts.Levels == nil {
				opts.Levels = make(map[policy.Kind]uint32)
			}
			opts.Levels[k] = *v
		}
	}

	if cmd.Flags().Changed("seed") {
		seed := pf.seed
		opts.Seed = &seed
	}
	return opts, nil
}
