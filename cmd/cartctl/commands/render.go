package commands

import (
	"fmt"
	"io"

	"github.com/PocketPalCo/voicecart/internal/core/session"
)

// renderCart writes the cart the way the assistant reads it back to the customer.
func renderCart(w io.Writer, snap session.Snapshot, symbol string) {
	if len(snap.Items) == 0 {
		fmt.Fprintln(w, "Your cart is empty.")
	} else {
		fmt.Fprintln(w, "Here's what's in your cart:")
		for _, item := range snap.Items {
			fmt.Fprintf(w, "- %d %s(s) of %s (%s%d each = %s%d)\n",
				item.Quantity, item.Unit, item.Name, symbol, item.Price, symbol, item.Subtotal())
		}
		fmt.Fprintf(w, "\nTotal: %s%d\n", symbol, snap.Total)
	}

	if snap.Order.Placed {
		if snap.Order.OrderID != "" {
			fmt.Fprintf(w, "Order placed (ID: %s)\n", snap.Order.OrderID)
		} else {
			fmt.Fprintln(w, "Order placed")
		}
	}
}
