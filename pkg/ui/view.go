// Package ui holds the interactive console: a view that prompts and renders,
// and a controller that drives the menu loop against the order service.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"flooring/pkg/domain/model"
)

const orderDatePrompt = "Enter the order date (MM-DD-YYYY): "

type View struct {
	in  *bufio.Scanner
	out io.Writer
	eof bool
}

func NewView(in io.Reader, out io.Writer) *View {
	return &View{in: bufio.NewScanner(in), out: out}
}

func (v *View) readLine() string {
	if v.in.Scan() {
		return strings.TrimSpace(v.in.Text())
	}
	v.eof = true
	return ""
}

// EOF reports whether input is exhausted. Once true, every prompt returns an
// empty string immediately; callers must stop re-prompting.
func (v *View) EOF() bool { return v.eof }

func (v *View) prompt(question string) string {
	fmt.Fprint(v.out, question)
	return v.readLine()
}

// DisplayMenu renders the main menu and returns the chosen option, 0 when the
// input is not a number.
func (v *View) DisplayMenu() int {
	fmt.Fprintln(v.out)
	fmt.Fprintln(v.out, "* * * * * * * * * * * * * * * * * * * * * *")
	fmt.Fprintln(v.out, "*              <<Flooring Program>>")
	fmt.Fprintln(v.out, "*  1. Display Orders")
	fmt.Fprintln(v.out, "*  2. Add an Order")
	fmt.Fprintln(v.out, "*  3. Edit an Order")
	fmt.Fprintln(v.out, "*  4. Remove an Order")
	fmt.Fprintln(v.out, "*  5. Export All Data")
	fmt.Fprintln(v.out, "*  6. Quit")
	fmt.Fprintln(v.out, "* * * * * * * * * * * * * * * * * * * * * *")
	choice, err := strconv.Atoi(v.prompt("Please select an option: "))
	if err != nil {
		return 0
	}
	return choice
}

func (v *View) AskDate() string {
	return v.prompt(orderDatePrompt)
}

// AskName prompts for a customer name. A non-empty previous value is shown
// and kept when the user enters nothing.
func (v *View) AskName(previous string) string {
	if previous != "" {
		return v.prompt(fmt.Sprintf("Enter customer name (%s): ", previous))
	}
	return v.prompt("Enter customer name: ")
}

func (v *View) AskState(previous string) string {
	if previous != "" {
		return v.prompt(fmt.Sprintf("Enter state (%s): ", previous))
	}
	return v.prompt("Enter state: ")
}

func (v *View) AskProductType(products []model.Product, previous string) string {
	v.DisplayProducts(products)
	if previous != "" {
		return v.prompt(fmt.Sprintf("Enter product type (%s): ", previous))
	}
	return v.prompt("Enter product type: ")
}

func (v *View) AskArea(previous string) string {
	if previous != "" {
		return v.prompt(fmt.Sprintf("Enter area in square feet, 100 minimum (%s): ", previous))
	}
	return v.prompt("Enter area in square feet, 100 minimum: ")
}

func (v *View) AskOrderNumber() string {
	return v.prompt("Enter the order number: ")
}

// Confirm asks a y/n question until it gets an answer. Exhausted input
// counts as "no".
func (v *View) Confirm(action string) bool {
	for {
		switch v.prompt(fmt.Sprintf("Would you like to %s this order? (y/n): ", action)) {
		case "y", "Y":
			return true
		case "n", "N":
			return false
		}
		if v.eof {
			return false
		}
		fmt.Fprintln(v.out, "Please answer y or n")
	}
}

func (v *View) DisplayOrder(order model.Order) {
	fmt.Fprintln(v.out)
	if order.Number != 0 {
		fmt.Fprintf(v.out, "Order #%d\n", order.Number)
	}
	fmt.Fprintf(v.out, "Date: %s\n", order.Date.Format("01-02-2006"))
	fmt.Fprintf(v.out, "Customer: %s\n", order.CustomerName)
	fmt.Fprintf(v.out, "State: %s (tax rate %s%%)\n", order.State, order.TaxRate.StringFixed(2))
	fmt.Fprintf(v.out, "Product: %s (%s material, %s labor per sq ft)\n",
		order.ProductType, order.CostPerSquareFoot.StringFixed(2), order.LaborCostPerSquareFoot.StringFixed(2))
	fmt.Fprintf(v.out, "Area: %s sq ft\n", order.Area.StringFixed(2))
	fmt.Fprintf(v.out, "Material cost: %s\n", order.MaterialCost().StringFixed(2))
	fmt.Fprintf(v.out, "Labor cost: %s\n", order.LaborCost().StringFixed(2))
	fmt.Fprintf(v.out, "Tax: %s\n", order.Tax().StringFixed(2))
	fmt.Fprintf(v.out, "Total: %s\n", order.Total().StringFixed(2))
}

func (v *View) DisplayOrders(orders []model.Order) {
	fmt.Fprintln(v.out)
	fmt.Fprintf(v.out, "%-8s %-24s %-16s %-12s %10s %12s\n",
		"Order#", "Customer", "State", "Product", "Area", "Total")
	for _, order := range orders {
		fmt.Fprintf(v.out, "%-8d %-24s %-16s %-12s %10s %12s\n",
			order.Number, order.CustomerName, order.State, order.ProductType,
			order.Area.StringFixed(2), order.Total().StringFixed(2))
	}
}

func (v *View) DisplayProducts(products []model.Product) {
	sorted := make([]model.Product, len(products))
	copy(sorted, products)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Type < sorted[j].Type })
	fmt.Fprintln(v.out, "\nAvailable products (cost/labor per sq ft):")
	for _, product := range sorted {
		fmt.Fprintf(v.out, "  %-12s %8s %8s\n",
			product.Type, product.CostPerSquareFoot.StringFixed(2), product.LaborCostPerSquareFoot.StringFixed(2))
	}
}

func (v *View) DisplayError(err error) {
	fmt.Fprintf(v.out, "ERROR: %v\n", err)
}

func (v *View) DisplayMessage(message string) {
	fmt.Fprintln(v.out, message)
}
