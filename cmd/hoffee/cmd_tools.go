package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hoffee-app/hoffee/app/loyalty"
	"github.com/hoffee-app/hoffee/app/qr"
	"github.com/hoffee-app/hoffee/pkg/auth"
)

// hoffee pin <pin> — generate the bcrypt hash for STAFF_PIN_HASH.
var pinCmd = &cobra.Command{
	Use:   "pin <pin>",
	Short: "Hash a terminal PIN for the STAFF_PIN_HASH setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPin(args[0])
		if err != nil {
			return fmt.Errorf("hash pin: %w", err)
		}
		fmt.Println(hash)
		return nil
	},
}

// hoffee qr <user-id> [origin] — print the deep link a user's QR encodes.
var qrCmd = &cobra.Command{
	Use:   "qr <user-id> [origin]",
	Short: "Print the QR deep link for a user id",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid user id %q", args[0])
		}

		origin := "https://hoffee.app"
		if len(args) == 2 {
			origin = args[1]
		}
		fmt.Println(qr.BuildLink(origin, id))
		return nil
	},
}

// hoffee levels — print the loyalty tier table.
var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Print the loyalty level table",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "POINTS\tLEVEL\t")
		for _, l := range loyalty.Levels() {
			fmt.Fprintf(w, "%d\t%s %s\t\n", l.PointsRequired, l.Icon, l.Name)
		}
		return w.Flush()
	},
}
