package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// Templates are embedded rather than read from disk so the binary is
// self-contained. Links carry the raw one-time token; the stored value is
// matched by equality on redemption.

var inviteTmpl = template.Must(template.New("invite").Parse(`
<p>Hi {{.Name}},</p>
<p>{{.OrgName}} has invited you to join EvacDesk as an administrator.</p>
<p><a href="{{.Link}}">Accept your invitation</a> to set a password and activate your account.</p>
<p>This invitation expires in 7 days.</p>
`))

var resetTmpl = template.Must(template.New("reset").Parse(`
<p>Hi {{.Name}},</p>
<p>We received a request to reset your EvacDesk password.</p>
<p><a href="{{.Link}}">Reset your password</a>. This link expires in 1 hour.</p>
<p>If you did not request this, you can ignore this email.</p>
`))

type inviteData struct {
	Name    string
	OrgName string
	Link    string
}

type resetData struct {
	Name string
	Link string
}

// RenderInvite builds the invite email for a pending admin.
func RenderInvite(name, orgName, baseURL, rawToken string) (subject, html string, err error) {
	var body bytes.Buffer
	err = inviteTmpl.Execute(&body, inviteData{
		Name:    name,
		OrgName: orgName,
		Link:    fmt.Sprintf("%s/accept-invite?token=%s", baseURL, rawToken),
	})
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("You're invited to join %s on EvacDesk", orgName), body.String(), nil
}

// RenderPasswordReset builds the password-reset email.
func RenderPasswordReset(name, baseURL, rawToken string) (subject, html string, err error) {
	var body bytes.Buffer
	err = resetTmpl.Execute(&body, resetData{
		Name: name,
		Link: fmt.Sprintf("%s/reset-password?token=%s", baseURL, rawToken),
	})
	if err != nil {
		return "", "", err
	}
	return "Reset your EvacDesk password", body.String(), nil
}
