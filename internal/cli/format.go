package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"brokerage/internal/holds/policy"
	"brokerage/pkg/model"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

func printHoldSummary(w io.Writer, h *model.PropertyHold) {
	fmt.Fprintf(w, "Hold %s\n", h.ID)
	fmt.Fprintf(w, "  Property:  %s\n", h.PropertyID)
	fmt.Fprintf(w, "  Holder:    %s\n", h.CtvID)
	fmt.Fprintf(w, "  Status:    %s\n", h.Status)
	fmt.Fprintf(w, "  Until:     %s\n", formatTime(h.HoldUntil))
	fmt.Fprintf(w, "  Extended:  %d\n", h.ExtendCount)
	if h.Reason != nil {
		fmt.Fprintf(w, "  Reason:    %s\n", *h.Reason)
	}
	if h.CancelledBy != nil {
		fmt.Fprintf(w, "  Cancelled: by %s", *h.CancelledBy)
		if h.CancelledReason != nil {
			fmt.Fprintf(w, " (%s)", *h.CancelledReason)
		}
		fmt.Fprintln(w)
	}
}

func printHoldTable(w io.Writer, page *HoldPage) error {
	if len(page.Holds) == 0 {
		fmt.Fprintln(w, "No holds found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROPERTY\tHOLDER\tSTATUS\tUNTIL\tEXT")
	for _, h := range page.Holds {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", h.ID, h.PropertyID, h.CtvID, h.Status, formatTime(h.HoldUntil), h.ExtendCount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	shown := int64(len(page.Holds))
	if page.Offset+shown < page.TotalCount {
		fmt.Fprintf(w, "\nShowing %d-%d of %d\n", page.Offset+1, page.Offset+shown, page.TotalCount)
	}
	return nil
}

func printCheck(w io.Writer, propertyID string, r *model.CheckPropertyHoldResponse) {
	if !r.IsHeld {
		fmt.Fprintf(w, "%s is not held. You can hold it.\n", propertyID)
		return
	}

	holder := "another collaborator"
	if r.HoldBy != nil {
		holder = *r.HoldBy
	}
	fmt.Fprintf(w, "%s is held by %s", propertyID, holder)
	if r.HoldUntil != nil {
		fmt.Fprintf(w, " until %s", formatTime(*r.HoldUntil))
	}
	fmt.Fprintln(w, ".")
	if r.MyActiveHold != nil {
		fmt.Fprintf(w, "It is your hold (%s, extended %d times).\n", r.MyActiveHold.ID, r.MyActiveHold.ExtendCount)
	}
}

func printConfig(w io.Writer, cfg *policy.HoldConfig) {
	fmt.Fprintf(w, "Duration:       %dh\n", cfg.DurationHours)
	fmt.Fprintf(w, "Max extends:    %d\n", cfg.MaxExtends)
	fmt.Fprintf(w, "Extend window:  %dh before expiry\n", cfg.ExtendBeforeHours)
	if cfg.MaxCustomDurationHours > 0 {
		fmt.Fprintf(w, "Custom cap:     %dh\n", cfg.MaxCustomDurationHours)
	}
}
