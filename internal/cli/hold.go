package cli

import (
	"strings"

	"brokerage/pkg/model"

	"github.com/spf13/cobra"
)

func newHoldCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hold",
		Short: "Place and manage holds",
	}

	cmd.AddCommand(
		newHoldCreateCmd(o),
		newHoldExtendCmd(o),
		newHoldCancelCmd(o),
		newHoldShowCmd(o),
		newHoldListCmd(o),
	)
	return cmd
}

func newHoldCreateCmd(o *options) *cobra.Command {
	var reason string
	var hours int

	cmd := &cobra.Command{
		Use:   "create <propertyId>",
		Short: "Hold a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dto := model.CreatePropertyHoldDto{PropertyID: args[0]}
			if reason != "" {
				dto.Reason = &reason
			}
			if cmd.Flags().Changed("hours") {
				dto.CustomDurationHours = &hours
			}

			c, _, err := o.client()
			if err != nil {
				return err
			}
			ctx, cancel := o.context()
			defer cancel()

			hold, err := c.CreateHold(ctx, dto)
			if err != nil {
				return err
			}
			return o.printHold(hold)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "why the property is held")
	cmd.Flags().IntVar(&hours, "hours", 0, "custom hold duration in hours")
	return cmd
}

func newHoldExtendCmd(o *options) *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "extend <holdId>",
		Short: "Extend a hold that is about to expire",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dto model.ExtendPropertyHoldDto
			if cmd.Flags().Changed("hours") {
				dto.CustomDurationHours = &hours
			}

			c, _, err := o.client()
			if err != nil {
				return err
			}
			ctx, cancel := o.context()
			defer cancel()

			hold, err := c.ExtendHold(ctx, args[0], dto)
			if err != nil {
				return err
			}
			return o.printHold(hold)
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 0, "custom extension in hours")
	return cmd
}

func newHoldCancelCmd(o *options) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "cancel <holdId>",
		Short: "Release a hold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dto model.CancelPropertyHoldDto
			if reason != "" {
				dto.Reason = &reason
			}

			c, _, err := o.client()
			if err != nil {
				return err
			}
			ctx, cancel := o.context()
			defer cancel()

			hold, err := c.CancelHold(ctx, args[0], dto)
			if err != nil {
				return err
			}
			return o.printHold(hold)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "cancellation reason")
	return cmd
}

func newHoldShowCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <holdId>",
		Short: "Show one hold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := o.client()
			if err != nil {
				return err
			}
			ctx, cancel := o.context()
			defer cancel()

			hold, err := c.GetHold(ctx, args[0])
			if err != nil {
				return err
			}
			return o.printHold(hold)
		},
	}
}

func newHoldListCmd(o *options) *cobra.Command {
	var filter model.HoldFilter
	var status string
	var limit int
	var offset int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List holds",
		Long:  "List holds. Collaborators only see their own; admins may filter by --ctv.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Status = model.HoldStatus(strings.ToUpper(status))

			c, _, err := o.client()
			if err != nil {
				return err
			}
			ctx, cancel := o.context()
			defer cancel()

			page, err := c.ListHolds(ctx, filter, limit, offset)
			if err != nil {
				return err
			}
			if o.isJSON() {
				return printJSON(o.out, page.Holds)
			}
			return printHoldTable(o.out, page)
		},
	}

	cmd.Flags().StringVar(&filter.CtvID, "ctv", "", "filter by collaborator (admin only)")
	cmd.Flags().StringVar(&filter.PropertyID, "property", "", "filter by property")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	cmd.Flags().Int64Var(&offset, "offset", 0, "page offset")
	return cmd
}

func newCheckCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check <propertyId>",
		Short: "Check whether a property is held",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := o.client()
			if err != nil {
				return err
			}
			ctx, cancel := o.context()
			defer cancel()

			resp, err := c.CheckHold(ctx, args[0])
			if err != nil {
				return err
			}
			if o.isJSON() {
				return printJSON(o.out, resp)
			}
			printCheck(o.out, args[0], resp)
			return nil
		},
	}
}

func (o *options) printHold(hold *model.PropertyHold) error {
	if o.isJSON() {
		return printJSON(o.out, hold)
	}
	printHoldSummary(o.out, hold)
	return nil
}
