package email

import (
	"bytes"
	"html/template"
)

// TemplateManager holds the parsed email templates.
type TemplateManager struct {
	orderNotifTmpl     *template.Template
	deliveryUpdateTmpl *template.Template
}

// NewTemplateManager parses all email templates at startup.
func NewTemplateManager() (*TemplateManager, error) {
	orderTmpl, err := template.New("orderNotification").Parse(orderNotificationTemplate)
	if err != nil {
		return nil, err
	}
	deliveryTmpl, err := template.New("deliveryUpdate").Parse(deliveryUpdateTemplate)
	if err != nil {
		return nil, err
	}
	return &TemplateManager{
		orderNotifTmpl:     orderTmpl,
		deliveryUpdateTmpl: deliveryTmpl,
	}, nil
}

// OrderNotificationData fills the new-order email sent to a seller.
type OrderNotificationData struct {
	SellerName string
	OrderID    string
	ItemCount  int
	Total      string
	Link       string
}

// DeliveryUpdateData fills the delivery-status email sent to a customer.
type DeliveryUpdateData struct {
	CustomerName   string
	TrackingNumber string
	Status         string
	Link           string
}

func (tm *TemplateManager) GenerateOrderNotificationHTML(data OrderNotificationData) (string, error) {
	var body bytes.Buffer
	if err := tm.orderNotifTmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

func (tm *TemplateManager) GenerateDeliveryUpdateHTML(data DeliveryUpdateData) (string, error) {
	var body bytes.Buffer
	if err := tm.deliveryUpdateTmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

// --- HTML Template Definitions ---

const orderNotificationTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>You Have a New Order</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>New order received, {{.SellerName}}!</h2>
	<p>Order <strong>{{.OrderID}}</strong> with {{.ItemCount}} item(s) has been paid, total {{.Total}}.</p>
	<p><a href="{{.Link}}">View the order</a> to start preparing it for pickup.</p>
</body>
</html>
`

const deliveryUpdateTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Delivery Update</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Hello {{.CustomerName}},</h2>
	<p>Your delivery <strong>{{.TrackingNumber}}</strong> is now <strong>{{.Status}}</strong>.</p>
	<p><a href="{{.Link}}">Track it live</a>.</p>
</body>
</html>
`
