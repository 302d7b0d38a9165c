package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pfrederiksen/him-waste/internal/waste"
)

// DryRunNotifier prints what would be sent without actually posting
type DryRunNotifier struct {
	out io.Writer
	now func() time.Time
}

// NewDryRunNotifier creates a new dry-run notifier writing to out (stdout when nil)
func NewDryRunNotifier(out io.Writer) *DryRunNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunNotifier{out: out, now: time.Now}
}

// Notify prints the reminders that would be sent
func (n *DryRunNotifier) Notify(_ context.Context, collections []waste.Collection) error {
	today := n.now()
	for i, col := range collections {
		msg := formatReminder(col, today)
		fmt.Fprintf(n.out, "--- Reminder %d/%d ---\n", i+1, len(collections))
		fmt.Fprintln(n.out, msg)
	}
	return nil
}
