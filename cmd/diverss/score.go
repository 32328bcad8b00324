package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tenlabs01/Diverss/internal/allocation"
	"github.com/tenlabs01/Diverss/internal/models"
)

type profileFlags struct {
	name    string
	age     float64
	risk    string
	horizon string
}

func (p *profileFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&p.age, "age", math.NaN(), "Investor age (default 30)")
	cmd.Flags().StringVar(&p.risk, "risk", "", "Conservative, Moderate or Aggressive")
	cmd.Flags().StringVar(&p.horizon, "horizon", "", `"< 3 years", "3-7 years", "7-15 years" or "15+ years"`)
}

func (p *profileFlags) profile() models.Profile {
	return models.Profile{
		Name:         p.name,
		Age:          p.age,
		RiskAppetite: models.RiskAppetite(p.risk),
		Horizon:      models.Horizon(p.horizon),
	}
}

func newScoreCmd() *cobra.Command {
	var (
		profile profileFlags
		alloc   map[string]string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score an allocation for risk and diversification",
		Long: `Score an allocation for risk and diversification. Weights are percentages:
each is capped to 0-100 before the set is rescaled to sum to 100.`,
		Example: `  diverss score --alloc stocks=60,bonds=30,gold=10 --risk Aggressive --age 28
  diverss score --alloc stocks=45,mutualFunds=25,cash=10 --horizon "3-7 years"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := parseAllocation(alloc)
			if err != nil {
				return err
			}
			scorer := allocation.NewScorer(allocation.DefaultTables())
			return printJSON(cmd.OutOrStdout(), scorer.Score(profile.profile(), raw))
		},
	}
	profile.register(cmd)
	cmd.Flags().StringVar(&profile.name, "name", "", "Investor name")
	cmd.Flags().StringToStringVar(&alloc, "alloc", nil, "Percentage weight per asset class, each capped at 100, e.g. stocks=60,bonds=40")
	_ = cmd.MarkFlagRequired("alloc")
	return cmd
}

func newSuggestCmd() *cobra.Command {
	var profile profileFlags

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest a model allocation for a profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved := allocation.ResolveProfile(profile.profile())
			scorer := allocation.NewScorer(allocation.DefaultTables())
			return printJSON(cmd.OutOrStdout(), scorer.Suggest(resolved.RiskAppetite, resolved.Horizon, resolved.Age))
		},
	}
	profile.register(cmd)
	return cmd
}

func parseAllocation(values map[string]string) (models.Allocation, error) {
	alloc := models.NewAllocation()
	for key, raw := range values {
		class := models.AssetClass(key)
		if !class.IsValid() {
			return nil, fmt.Errorf("unknown asset class %q", key)
		}
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amount for %s: %w", key, err)
		}
		alloc[class] = amount
	}
	return alloc, nil
}
