package notifier

import (
	"html/template"
	texttemplate "text/template"
)

type templateData struct {
	Name      string
	Link      string
	ExpiresIn string
}

var verificationHTML = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <h2>Hi {{.Name}},</h2>
  <p>Thanks for signing up for Landlordy.</p>
  <p>Click the link below to verify your email address and activate your account:</p>
  <p><a href="{{.Link}}">Verify account</a></p>
  <p>Or copy this link into your browser:</p>
  <p style="word-break: break-all;">{{.Link}}</p>
  <p><strong>This link is valid for {{.ExpiresIn}}.</strong></p>
  <p>If you did not create this account, you can ignore this email.</p>
  <p>Landlordy Team</p>
</body>
</html>`))

var verificationText = texttemplate.Must(texttemplate.New("verification").Parse(`Hi {{.Name}},

Thanks for signing up for Landlordy. Open the link below to verify your account:

{{.Link}}

This link is valid for {{.ExpiresIn}}.

If you did not create this account, you can ignore this email.
`))

var passwordResetHTML = template.Must(template.New("password_reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <h2>Hi {{.Name}},</h2>
  <p>We received a request to reset the password for your account.</p>
  <p>If you made this request, click the link below to choose a new password:</p>
  <p><a href="{{.Link}}">Reset password</a></p>
  <p style="word-break: break-all;">{{.Link}}</p>
  <p><strong>This link is valid for {{.ExpiresIn}}.</strong></p>
  <p>If you did not request a password reset, you can ignore this email. Your account remains secure.</p>
  <p>Landlordy Team</p>
</body>
</html>`))

var passwordResetText = texttemplate.Must(texttemplate.New("password_reset").Parse(`Hi {{.Name}},

We received a request to reset the password for your account. Open the link below to choose a new password:

{{.Link}}

This link is valid for {{.ExpiresIn}}.

If you did not request a password reset, you can ignore this email.
`))
