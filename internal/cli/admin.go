package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSweepCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire overdue holds now (admin)",
		Long:  "Runs one expire sweep on the server. Suitable for cron when the in-process sweeper is disabled.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := o.client()
			if err != nil {
				return err
			}
			ctx, cancel := o.context()
			defer cancel()

			result, err := c.Sweep(ctx)
			if err != nil {
				return err
			}
			if o.isJSON() {
				return printJSON(o.out, result)
			}
			fmt.Fprintf(o.out, "Expired: %d  Skipped: %d  Failed: %d\n", result.Expired, result.Skipped, len(result.Failed))
			for _, f := range result.Failed {
				fmt.Fprintf(o.out, "  %s: %s\n", f.HoldID, f.Error)
			}
			return nil
		},
	}
}

func newConfigCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change hold settings (admin)",
	}
	cmd.AddCommand(newConfigShowCmd(o), newConfigSetCmd(o))
	return cmd
}

func newConfigShowCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the hold settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := o.client()
			if err != nil {
				return err
			}
			ctx, cancel := o.context()
			defer cancel()

			cfg, err := c.GetConfig(ctx)
			if err != nil {
				return err
			}
			if o.isJSON() {
				return printJSON(o.out, cfg)
			}
			printConfig(o.out, cfg)
			return nil
		},
	}
}

func newConfigSetCmd(o *options) *cobra.Command {
	var duration, maxExtends, extendBefore int

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change hold settings",
		Long:  "Changes the hold settings. Unspecified values keep their current setting; all three are stored together.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("duration-hours") && !flags.Changed("max-extends") && !flags.Changed("extend-before-hours") {
				return fmt.Errorf("nothing to change, pass at least one of --duration-hours, --max-extends, --extend-before-hours")
			}

			c, _, err := o.client()
			if err != nil {
				return err
			}
			ctx, cancel := o.context()
			defer cancel()

			cfg, err := c.GetConfig(ctx)
			if err != nil {
				return err
			}
			if flags.Changed("duration-hours") {
				cfg.DurationHours = duration
			}
			if flags.Changed("max-extends") {
				cfg.MaxExtends = maxExtends
			}
			if flags.Changed("extend-before-hours") {
				cfg.ExtendBeforeHours = extendBefore
			}
			cfg.MaxCustomDurationHours = 0

			updated, err := c.UpdateConfig(ctx, *cfg)
			if err != nil {
				return err
			}
			if o.isJSON() {
				return printJSON(o.out, updated)
			}
			printConfig(o.out, updated)
			return nil
		},
	}

	cmd.Flags().IntVar(&duration, "duration-hours", 0, "default hold duration in hours")
	cmd.Flags().IntVar(&maxExtends, "max-extends", 0, "maximum extensions per hold")
	cmd.Flags().IntVar(&extendBefore, "extend-before-hours", 0, "hours before expiry when extending opens")
	return cmd
}
