package mailer

import (
	"fmt"
	"strings"

	"github.com/tajdo/backend/internal/model"
)

// formatCHF はセント単位の金額を "CHF 123.45" 形式に整形する。
func formatCHF(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%sCHF %d.%02d", sign, cents/100, cents%100)
}

// layout は全メール共通のHTMLレイアウトを組み立てる。
func layout(heading, subheading, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: 'Inter', Arial, sans-serif; color: #333; line-height: 1.6; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background-color: #F5F0EB; padding: 30px; text-align: center; }
.header h1 { color: #2C2C2C; margin: 0; font-size: 28px; }
.content { padding: 30px 20px; }
.order-info { background-color: #F5F0EB; padding: 20px; margin: 20px 0; }
.order-info p { margin: 8px 0; }
.footer { text-align: center; padding: 20px; color: #666; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
<div class="header"><h1>TAJDO</h1><p style="margin: 10px 0 0 0; color: #666;">%s</p></div>
<div class="content">%s</div>
<div class="footer"><p>TAJDO &middot; Handcrafted with care</p></div>
</div>
</body>
</html>`, subheading, fmt.Sprintf("<h2>%s</h2>%s", heading, body))
}

// orderInfoBlock は注文サマリーのHTMLブロックを組み立てる。
func orderInfoBlock(order *model.Order) string {
	var b strings.Builder
	b.WriteString(`<div class="order-info">`)
	fmt.Fprintf(&b, "<p><strong>Order number:</strong> %s</p>", order.OrderNumber)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "<p>%s &times; %d &mdash; %s</p>", item.ProductName, item.Quantity, formatCHF(item.TotalCents))
	}
	fmt.Fprintf(&b, "<p><strong>Total:</strong> %s (incl. VAT %s)</p>", formatCHF(order.TotalCents), formatCHF(order.TaxCents))
	b.WriteString(`</div>`)
	return b.String()
}

// OrderConfirmation は注文確認メールの件名と本文を返す。
func OrderConfirmation(order *model.Order, user *model.User) (subject, html string) {
	subject = fmt.Sprintf("Order Confirmation - %s", order.OrderNumber)
	body := fmt.Sprintf("<p>Hi %s,</p><p>Thank you for your purchase! We are preparing your order.</p>%s<p>30%% of your order total supports animal rescue work.</p>",
		user.FullName, orderInfoBlock(order))
	return subject, layout("Thank you for your order", "Order confirmed", body)
}

// OrderShipped は発送通知メールの件名と本文を返す。
func OrderShipped(order *model.Order, user *model.User, trackingNumber string) (subject, html string) {
	subject = fmt.Sprintf("Your order %s is on its way", order.OrderNumber)
	tracking := ""
	if trackingNumber != "" {
		tracking = fmt.Sprintf("<p><strong>Tracking number:</strong> %s</p>", trackingNumber)
	}
	body := fmt.Sprintf("<p>Hi %s,</p><p>Great news! Your order %s has been shipped.</p>%s%s",
		user.FullName, order.OrderNumber, tracking, orderInfoBlock(order))
	return subject, layout("Order shipped", "On its way to you", body)
}

// OrderDelivered は配達完了メールの件名と本文を返す。
func OrderDelivered(order *model.Order, user *model.User) (subject, html string) {
	subject = fmt.Sprintf("Your order %s has arrived", order.OrderNumber)
	body := fmt.Sprintf("<p>Hi %s,</p><p>Your order %s has arrived! We hope you love your new items.</p>",
		user.FullName, order.OrderNumber)
	return subject, layout("Order delivered", "Enjoy your new items", body)
}

// OrderCancelled はキャンセル通知メールの件名と本文を返す。
func OrderCancelled(order *model.Order, user *model.User) (subject, html string) {
	subject = fmt.Sprintf("Your order %s has been cancelled", order.OrderNumber)
	body := fmt.Sprintf("<p>Hi %s,</p><p>Your order %s has been cancelled. If you have questions, please contact us.</p>",
		user.FullName, order.OrderNumber)
	return subject, layout("Order cancelled", "We're sorry to see this", body)
}

// OrderRefunded は返金通知メールの件名と本文を返す。
func OrderRefunded(order *model.Order, user *model.User) (subject, html string) {
	subject = fmt.Sprintf("Refund processed for order %s", order.OrderNumber)
	body := fmt.Sprintf("<p>Hi %s,</p><p>A refund of %s has been processed for your order %s.</p>",
		user.FullName, formatCHF(order.TotalCents), order.OrderNumber)
	return subject, layout("Refund processed", "Your refund is on the way", body)
}
