package templates

// MagicLinkContext feeds the monthly-code email. MagicURL opens the access
// page with the email and code prefilled.
type MagicLinkContext struct {
	Code     string
	TTLDays  int
	MagicURL string
}

const magicLinkHTML = `<div style="font-family:system-ui,-apple-system,Segoe UI,Roboto,Arial,sans-serif;line-height:1.5;color:#111">
  <h2>Here&rsquo;s your code</h2>
  <p><strong style="font-size:18px;letter-spacing:1px">{{.Code}}</strong> (valid for {{.TTLDays}} days)</p>
  <p>Click to unlock and start your document:</p>
  <p>
    <a href="{{.MagicURL}}"
       style="background:#111;color:#fff;padding:10px 16px;border-radius:8px;text-decoration:none;display:inline-block">
       Open Hard Hat AI
    </a>
  </p>
  <p style="margin-top:12px">If the button doesn&rsquo;t work, copy this link:</p>
  <p style="word-break:break-all">{{.MagicURL}}</p>
</div>`

const magicLinkText = `Your access code: {{.Code}} (valid for {{.TTLDays}} days)

Open this link to unlock and start your document:
{{.MagicURL}}`

var MagicLinkTemplate = MustTemplate[MagicLinkContext]("magic_link", magicLinkHTML, magicLinkText)
