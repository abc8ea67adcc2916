package delivery

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/coreybb/couponbook/models"
)

const dateLayout = "January 2, 2006 at 03:04 PM"

const cardStyle = "background-color: #f5f5f5; padding: 15px; margin: 15px 0; border-radius: 5px;"

// contentPolicy lets coupon and suggestion bodies keep basic formatting.
// Titles and names are always escaped.
var contentPolicy = bluemonday.UGCPolicy()

var messageTemplates = template.Must(template.New("messages").Funcs(template.FuncMap{
	"date":  formatDate,
	"style": func() template.CSS { return template.CSS(cardStyle) },
	"rich":  func(s string) template.HTML { return template.HTML(contentPolicy.Sanitize(s)) },
}).Parse(`
{{define "coupon_card"}}<div style="{{style}}">
  <h4>{{.Coupon.Title}}</h4>
  <p>{{rich .Coupon.Content}}</p>
  {{- with .Date}}
  <p>Scheduled for: {{date .}}</p>
  {{- end}}
</div>{{end}}

{{define "coupon_created"}}<h3>New Coupon Created For You!</h3>
<p>Hello {{.Recipient.FirstName}},</p>
<p>{{.Actor.FullName}} has created a new coupon for you:</p>
{{template "coupon_card" .}}
<p>Log in to your Simple Coupon Book to view and manage your coupons!</p>{{end}}

{{define "coupon_scheduled_user"}}<h3>Your Coupon Has Been Scheduled</h3>
<p>Hello {{.Recipient.FirstName}},</p>
<p>Your coupon "{{.Coupon.Title}}" has been scheduled.</p>
{{template "coupon_card" .}}{{end}}

{{define "coupon_scheduled_admin"}}<h3>Coupon Scheduled</h3>
<p>Hello {{.Recipient.FirstName}},</p>
<p>{{.Actor.FullName}} has scheduled their coupon "{{.Coupon.Title}}".</p>
{{template "coupon_card" .}}{{end}}

{{define "coupon_redeemed_user"}}<h3>Your Coupon is Now Active!</h3>
<p>Hello {{.Recipient.FirstName}},</p>
<p>Your coupon "{{.Coupon.Title}}" is now active and ready to be used.</p>
{{template "coupon_card" .}}{{end}}

{{define "coupon_redeemed_admin"}}<h3>Coupon Activated</h3>
<p>Hello {{.Recipient.FirstName}},</p>
<p>{{.Actor.FullName}} has activated their coupon "{{.Coupon.Title}}".</p>
{{template "coupon_card" .}}{{end}}

{{define "suggestion_created"}}<h3>New Suggestion Received</h3>
<p>Hello {{.Recipient.FirstName}},</p>
<p>A new suggestion has been submitted by {{.Actor.FullName}}:</p>
<div style="{{style}}">
  <p>{{rich .Suggestion.Content}}</p>
  <p><small>Submitted on: {{date .Suggestion.CreatedAt}}</small></p>
</div>
<p>Log in to your Simple Coupon Book to review all suggestions.</p>{{end}}
`))

type messageData struct {
	Recipient  models.User
	Actor      models.User
	Coupon     models.Coupon
	Date       *time.Time
	Suggestion models.Suggestion
}

func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format(dateLayout)
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format(dateLayout)
	}
	return fmt.Sprint(v)
}

func render(name, subject string, data messageData) (Notice, error) {
	var buf bytes.Buffer
	if err := messageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return Notice{}, fmt.Errorf("failed to render %s notice: %w", name, err)
	}
	return Notice{Address: data.Recipient.Email, Subject: subject, Body: buf.String()}, nil
}

// CouponCreated tells user that admin issued coupon to them.
func CouponCreated(user, admin models.User, coupon models.Coupon) (Notice, error) {
	return render("coupon_created", "New coupon: "+coupon.Title, messageData{
		Recipient: user, Actor: admin, Coupon: coupon,
	})
}

// CouponScheduled builds the notices for the coupon's user and its admin.
func CouponScheduled(user, admin models.User, coupon models.Coupon) (toUser, toAdmin Notice, err error) {
	data := messageData{Recipient: user, Actor: admin, Coupon: coupon, Date: coupon.ScheduledDate}
	if toUser, err = render("coupon_scheduled_user", "Coupon scheduled: "+coupon.Title, data); err != nil {
		return Notice{}, Notice{}, err
	}
	data.Recipient, data.Actor = admin, user
	if toAdmin, err = render("coupon_scheduled_admin", "Coupon scheduled: "+coupon.Title, data); err != nil {
		return Notice{}, Notice{}, err
	}
	return toUser, toAdmin, nil
}

// CouponRedeemed builds the activation notices. date is the date passed to
// the redeem call, if any.
func CouponRedeemed(user, admin models.User, coupon models.Coupon, date *time.Time) (toUser, toAdmin Notice, err error) {
	data := messageData{Recipient: user, Actor: admin, Coupon: coupon, Date: date}
	if toUser, err = render("coupon_redeemed_user", "Coupon activated: "+coupon.Title, data); err != nil {
		return Notice{}, Notice{}, err
	}
	data.Recipient, data.Actor = admin, user
	if toAdmin, err = render("coupon_redeemed_admin", "Coupon activated: "+coupon.Title, data); err != nil {
		return Notice{}, Notice{}, err
	}
	return toUser, toAdmin, nil
}

// SuggestionCreated tells one admin about a new suggestion by author.
func SuggestionCreated(admin, author models.User, s models.Suggestion) (Notice, error) {
	return render("suggestion_created", "New suggestion received", messageData{
		Recipient: admin, Actor: author, Suggestion: s,
	})
}
