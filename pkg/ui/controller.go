package ui

import (
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"flooring/pkg/domain/model"
	"flooring/pkg/domain/service"
)

type Controller struct {
	service service.OrderService
	view    *View
}

func NewController(svc service.OrderService, view *View) *Controller {
	return &Controller{service: svc, view: view}
}

const menuQuit = 6

// Run loads the reference data and processes menu selections until the user
// quits. A failed initial load ends the session: without the catalog and tax
// table no order can be created. The order-number counter is persisted on the
// way out. Exhausted input (Ctrl-D, or a redirected stdin running dry) is
// treated as quitting, counter save included.
func (c *Controller) Run() error {
	if err := c.service.LoadData(); err != nil {
		c.view.DisplayError(err)
		return err
	}
	for {
		choice := c.view.DisplayMenu()
		if c.view.EOF() {
			choice = menuQuit
		}
		switch choice {
		case 1:
			c.displayOrders()
		case 2:
			c.addOrder()
		case 3:
			c.editOrder()
		case 4:
			c.deleteOrder()
		case 5:
			c.exportOrders()
		case menuQuit:
			if err := c.service.SaveOrderNumber(); err != nil {
				c.view.DisplayError(err)
			}
			c.view.DisplayMessage("Goodbye!")
			return nil
		default:
			c.view.DisplayMessage("Unknown command")
		}
	}
}

func (c *Controller) displayOrders() {
	date, ok := c.askExistingDate()
	if !ok {
		return
	}
	orders, err := c.service.Orders(date)
	if err != nil {
		c.view.DisplayError(err)
		return
	}
	c.view.DisplayOrders(orders)
}

func (c *Controller) addOrder() {
	date, ok := c.askFutureDate()
	if !ok {
		return
	}
	name, ok := c.askName("")
	if !ok {
		return
	}
	tax, ok := c.askState("")
	if !ok {
		return
	}
	product, ok := c.askProductType("")
	if !ok {
		return
	}
	area, ok := c.askArea("")
	if !ok {
		return
	}

	order := c.service.CreateOrder(date, name, tax, product, area)
	c.view.DisplayOrder(order)
	if !c.view.Confirm("place") {
		return
	}
	if err := c.service.SaveOrder(&order); err != nil {
		c.view.DisplayError(err)
		return
	}
	c.view.DisplayMessage("Order saved!")
}

func (c *Controller) editOrder() {
	order, ok := c.findOrder()
	if !ok {
		return
	}
	name, ok := c.askName(order.CustomerName)
	if !ok {
		return
	}
	tax, ok := c.askState(order.State)
	if !ok {
		return
	}
	product, ok := c.askProductType(order.ProductType)
	if !ok {
		return
	}
	area, ok := c.askArea(order.Area.StringFixed(2))
	if !ok {
		return
	}

	updated := c.service.UpdateOrder(order, name, tax, product, area)
	c.view.DisplayOrder(updated)
	if !c.view.Confirm("edit") {
		return
	}
	if err := c.service.EditOrder(order.Date, order.Number, updated); err != nil {
		c.view.DisplayError(err)
		return
	}
	c.view.DisplayMessage("Order edited!")
}

func (c *Controller) deleteOrder() {
	order, ok := c.findOrder()
	if !ok {
		return
	}
	c.view.DisplayOrder(order)
	if !c.view.Confirm("remove") {
		return
	}
	if _, err := c.service.DeleteOrder(order.Date, order.Number); err != nil {
		c.view.DisplayError(err)
		return
	}
	c.view.DisplayMessage("Order removed!")
}

func (c *Controller) exportOrders() {
	if err := c.service.ExportOrders(); err != nil {
		c.view.DisplayError(err)
		return
	}
	c.view.DisplayMessage("All orders exported!")
}

// findOrder asks for a date and an order number and fetches the order.
func (c *Controller) findOrder() (model.Order, bool) {
	date, ok := c.askExistingDate()
	if !ok {
		return model.Order{}, false
	}
	number, ok := c.askOrderNumber()
	if !ok {
		return model.Order{}, false
	}
	order, err := c.service.Order(date, number)
	if err != nil {
		c.view.DisplayError(err)
		return model.Order{}, false
	}
	return order, true
}

// askExistingDate accepts any well-formed date; the lookup decides whether
// orders exist for it.
func (c *Controller) askExistingDate() (time.Time, bool) {
	date, err := c.service.ParseDate(c.view.AskDate())
	if err != nil {
		c.view.DisplayError(err)
		return time.Time{}, false
	}
	return date, true
}

// askFutureDate re-prompts until the user enters a valid future date, or
// reports false once input is exhausted.
func (c *Controller) askFutureDate() (time.Time, bool) {
	for {
		raw := c.view.AskDate()
		if c.view.EOF() {
			return time.Time{}, false
		}
		date, err := c.service.ValidateDate(raw)
		if err != nil {
			c.view.DisplayError(err)
			continue
		}
		return date, true
	}
}

// The ask helpers below re-prompt until the input validates and report false
// on exhausted input. An empty input keeps the previous value when one is
// shown (edit flow).

func (c *Controller) askName(previous string) (string, bool) {
	for {
		name := c.view.AskName(previous)
		if c.view.EOF() {
			return "", false
		}
		if name == "" && previous != "" {
			return previous, true
		}
		if err := c.service.ValidateName(name); err != nil {
			c.view.DisplayError(err)
			continue
		}
		return name, true
	}
}

func (c *Controller) askState(previous string) (model.Tax, bool) {
	for {
		stateName := c.view.AskState(previous)
		if c.view.EOF() {
			return model.Tax{}, false
		}
		if stateName == "" && previous != "" {
			stateName = previous
		}
		tax, err := c.service.ValidateState(stateName)
		if err != nil {
			c.view.DisplayError(err)
			continue
		}
		return tax, true
	}
}

func (c *Controller) askProductType(previous string) (model.Product, bool) {
	for {
		productType := c.view.AskProductType(c.service.Products(), previous)
		if c.view.EOF() {
			return model.Product{}, false
		}
		if productType == "" && previous != "" {
			productType = previous
		}
		product, err := c.service.ValidateProductType(productType)
		if err != nil {
			c.view.DisplayError(err)
			continue
		}
		return product, true
	}
}

func (c *Controller) askArea(previous string) (decimal.Decimal, bool) {
	for {
		raw := c.view.AskArea(previous)
		if c.view.EOF() {
			return decimal.Decimal{}, false
		}
		if raw == "" && previous != "" {
			raw = previous
		}
		area, err := c.service.ValidateArea(raw)
		if err != nil {
			c.view.DisplayError(err)
			continue
		}
		return area, true
	}
}

func (c *Controller) askOrderNumber() (int, bool) {
	number, err := parseOrderNumber(c.view.AskOrderNumber())
	if err != nil {
		c.view.DisplayError(err)
		return 0, false
	}
	return number, true
}

func parseOrderNumber(raw string) (int, error) {
	number, err := strconv.Atoi(raw)
	if err != nil || number < 1 {
		return 0, errors.New("order number must be a positive integer")
	}
	return number, nil
}
