package main

import (
	"time"

	"github.com/spf13/cobra"
)

const (
	FlagConfig      = "config"
	FlagProfile     = "profile"
	FlagMetrics     = "metrics"
	FlagOutput      = "output"
	FlagShowSecrets = "show-secrets"
	FlagTTL         = "ttl"
	FlagHost        = "host"
	FlagKeyName     = "key-name"
	FlagKey         = "key"
	FlagFormat      = "format"
	FlagPretty      = "pretty"
)

const (
	OutputText = "text"
	OutputJSON = "json"
)

var shortFlags = map[string]string{
	FlagConfig:  "c",
	FlagProfile: "p",
	FlagOutput:  "o",
	FlagFormat:  "f",
}

func addStringFlag(cmd *cobra.Command, flagName string, p *string, defaultValue, usage string) {
	if short, ok := shortFlags[flagName]; ok {
		cmd.Flags().StringVarP(p, flagName, short, defaultValue, usage)
	} else {
		cmd.Flags().StringVar(p, flagName, defaultValue, usage)
	}
}

func addPersistentStringFlag(cmd *cobra.Command, flagName string, p *string, defaultValue, usage string) {
	if short, ok := shortFlags[flagName]; ok {
		cmd.PersistentFlags().StringVarP(p, flagName, short, defaultValue, usage)
	} else {
		cmd.PersistentFlags().StringVar(p, flagName, defaultValue, usage)
	}
}

func addBoolFlag(cmd *cobra.Command, flagName string, p *bool, defaultValue bool, usage string) {
	if short, ok := shortFlags[flagName]; ok {
		cmd.Flags().BoolVarP(p, flagName, short, defaultValue, usage)
	} else {
		cmd.Flags().BoolVar(p, flagName, defaultValue, usage)
	}
}

func addDurationFlag(cmd *cobra.Command, flagName string, p *time.Duration, defaultValue time.Duration, usage string) {
	cmd.Flags().DurationVar(p, flagName, defaultValue, usage)
}
