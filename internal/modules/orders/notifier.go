package orders

import (
	"context"
	"fmt"
	"log"

	"farmcon/internal/models"
	"farmcon/internal/realtime"
	emailSvc "farmcon/pkg/email"
)

// ContactDirectory resolves a user id to the profile the notifier needs.
// users.Repository satisfies it.
type ContactDirectory interface {
	FindByID(ctx context.Context, userID string) (*models.User, error)
}

// Publisher pushes realtime events; realtime.Hub satisfies it.
type Publisher interface {
	Publish(userID string, ev realtime.Event)
}

// Notifier tells sellers about new paid orders and customers about delivery
// progress, over email and the realtime socket. Both channels are
// best-effort: a notification failure never fails the triggering operation.
type Notifier struct {
	emailer      emailSvc.Sender // may be nil when email is not configured
	templates    *emailSvc.TemplateManager
	directory    ContactDirectory
	hub          Publisher
	clientOrigin string
}

func NewNotifier(
	emailer emailSvc.Sender,
	templates *emailSvc.TemplateManager,
	directory ContactDirectory,
	hub Publisher,
	clientOrigin string,
) *Notifier {
	return &Notifier{
		emailer:      emailer,
		templates:    templates,
		directory:    directory,
		hub:          hub,
		clientOrigin: clientOrigin,
	}
}

// NotifySellerOrder pushes an order_created event to the seller and sends the
// new-order email in the background so checkout latency is unaffected.
func (n *Notifier) NotifySellerOrder(order *models.Order, itemCount int) {
	n.hub.Publish(order.SellerID, realtime.Event{
		Type: realtime.EventOrderCreated,
		Payload: map[string]interface{}{
			"order_id":     order.ID,
			"total_amount": order.TotalAmount,
			"item_count":   itemCount,
		},
	})

	if n.emailer == nil {
		return
	}
	go func() {
		ctx := context.Background()
		seller, err := n.directory.FindByID(ctx, order.SellerID)
		if err != nil {
			log.Printf("notifier: resolve seller %s: %v", order.SellerID, err)
			return
		}

		html, err := n.templates.GenerateOrderNotificationHTML(emailSvc.OrderNotificationData{
			SellerName: seller.Name,
			OrderID:    order.ID,
			ItemCount:  itemCount,
			Total:      formatMinor(order.TotalAmount),
			Link:       fmt.Sprintf("%s/seller/orders/%s", n.clientOrigin, order.ID),
		})
		if err != nil {
			log.Printf("notifier: render order email: %v", err)
			return
		}

		plain := fmt.Sprintf("Order %s with %d item(s) has been paid, total %s. Visit %s/seller/orders/%s",
			order.ID, itemCount, formatMinor(order.TotalAmount), n.clientOrigin, order.ID)
		if err := n.emailer.SendEmail(ctx, seller.Email, "You have a new order", plain, html); err != nil {
			log.Printf("notifier: send order email to %s: %v", seller.Email, err)
		}
	}()
}

// NotifyDeliveryUpdate pushes a delivery_status event to the customer and,
// for delivered packages, sends the wrap-up email.
func (n *Notifier) NotifyDeliveryUpdate(customerID string, delivery *models.Delivery) {
	n.hub.Publish(customerID, realtime.Event{
		Type: realtime.EventDeliveryStatus,
		Payload: map[string]interface{}{
			"delivery_id":     delivery.ID,
			"order_id":        delivery.OrderID,
			"status":          delivery.Status,
			"tracking_number": delivery.TrackingNumber,
		},
	})

	if n.emailer == nil || delivery.Status != models.DeliveryDelivered {
		return
	}
	go func() {
		ctx := context.Background()
		customer, err := n.directory.FindByID(ctx, customerID)
		if err != nil {
			log.Printf("notifier: resolve customer %s: %v", customerID, err)
			return
		}

		html, err := n.templates.GenerateDeliveryUpdateHTML(emailSvc.DeliveryUpdateData{
			CustomerName:   customer.Name,
			TrackingNumber: delivery.TrackingNumber,
			Status:         string(delivery.Status),
			Link:           fmt.Sprintf("%s/track/%s", n.clientOrigin, delivery.TrackingNumber),
		})
		if err != nil {
			log.Printf("notifier: render delivery email: %v", err)
			return
		}

		plain := fmt.Sprintf("Your delivery %s is now %s.", delivery.TrackingNumber, delivery.Status)
		if err := n.emailer.SendEmail(ctx, customer.Email, "Delivery update", plain, html); err != nil {
			log.Printf("notifier: send delivery email to %s: %v", customer.Email, err)
		}
	}()
}

// formatMinor renders a minor-unit amount as a decimal string, e.g. 12345 -> "123.45".
func formatMinor(amount int64) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}
