package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/flicky/rabbit-store-api/internal/model"
)

const confirmationSubject = "You have successfully placed your order"

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto;">
  <h2 style="color: #333;">You have successfully placed your order</h2>
  <p>Hi {{.User.Name}},</p>
  <p>Thank you for your purchase. Your order has been received and is now being processed.</p>

  <h3>Shipping Address:</h3>
  <p>
    {{with .Order.ShippingAddress}}{{.FirstName}} {{.LastName}}<br/>
    {{.Address}}, {{.City}}<br/>
    {{.PostalCode}}, {{.Country}}<br/>
    Phone: {{.Phone}}{{end}}
  </p>

  <h3>Order Details:</h3>
  <table style="width: 100%; border-collapse: collapse;">
  {{- range .Order.Items}}
    <tr style="border-bottom: 1px solid #eee;">
      <td style="padding: 10px;"><img src="{{.Image}}" alt="{{.Name}}" width="80" style="border-radius: 5px;"></td>
      <td style="padding: 10px;">
        {{.Name}}<br/>
        {{if .Size}}Size: {{.Size}}<br/>{{end}}{{if .Color}}Color: {{.Color}}<br/>{{end}}
        Quantity: {{.Quantity}}<br/>
        Price: ${{.Price.StringFixed 2}}
      </td>
    </tr>
  {{- end}}
  </table>
  {{if .Order.CouponCode}}
  <p style="text-align: right;">Coupon {{.Order.CouponCode}}: -${{.Order.DiscountAmount.StringFixed 2}}</p>
  {{- end}}
  <h3 style="text-align: right;">Total: ${{.Order.TotalPrice.StringFixed 2}}</h3>

  <p>We'll notify you again when your order has shipped.</p>
  <p>{{.StoreName}}</p>
</div>
`))

// OrderConfirmation renders the e-mail sent after an order is placed.
func OrderConfirmation(storeName string, order *model.Order, user *model.User) (Message, error) {
	var buf bytes.Buffer
	err := confirmationTmpl.Execute(&buf, struct {
		StoreName string
		Order     *model.Order
		User      *model.User
	}{storeName, order, user})
	if err != nil {
		return Message{}, fmt.Errorf("render confirmation: %w", err)
	}
	return Message{To: user.Email, Subject: confirmationSubject, HTML: buf.String()}, nil
}
