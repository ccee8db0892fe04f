package templates

// AccessCodeContext feeds the post-purchase email that carries a single-use
// access code.
type AccessCodeContext struct {
	Product     string
	Code        string
	ExpiryLabel string
	AccessURL   string
}

const accessCodeHTML = `<div style="font-family:system-ui,-apple-system,Segoe UI,Roboto,Helvetica,Arial; background:#0b0b0b; color:#fff; padding:24px;">
  <div style="max-width:560px; margin:0 auto; background:rgba(255,255,255,.04); border:1px solid rgba(255,255,255,.1); border-radius:16px; padding:20px;">
    <h1 style="margin:0 0 8px 0; font-size:22px; line-height:1.3;">Thanks, your purchase is confirmed</h1>
    <p style="margin:0 0 16px 0; color:rgba(255,255,255,.75);">
      You recently purchased <b>{{.Product}}</b>. Use the access code below to submit your request.
    </p>

    <div style="margin:16px 0; padding:14px 16px; background:rgba(255,255,255,.05); border:1px solid rgba(255,255,255,.1); border-radius:12px;">
      <div style="font-size:12px; color:rgba(255,255,255,.6);">Access code</div>
      <div style="margin-top:6px; font-size:28px; font-weight:800; letter-spacing:2px; color:#fff;">{{.Code}}</div>
    </div>

    <p style="margin:10px 0 0 0; color:rgba(255,255,255,.75);">
      Expires on <b>{{.ExpiryLabel}}</b>. Codes are single-use.
    </p>

    <div style="margin-top:20px;">
      <a href="{{.AccessURL}}" style="display:inline-block; background:#fff; color:#000; text-decoration:none; padding:10px 14px; border-radius:10px; font-weight:600;">
        Open Access Page
      </a>
    </div>

    <p style="margin:18px 0 0 0; font-size:12px; color:rgba(255,255,255,.55);">
      Tip: If you don&rsquo;t see the email in your inbox, check Spam/Promotions.
    </p>
  </div>
</div>`

const accessCodeText = `Thanks, your purchase of {{.Product}} is confirmed.

Access code: {{.Code}}
Expires on {{.ExpiryLabel}}. Codes are single-use.

Open the access page to continue: {{.AccessURL}}`

var AccessCodeTemplate = MustTemplate[AccessCodeContext]("access_code", accessCodeHTML, accessCodeText)
