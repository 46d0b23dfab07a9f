package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var inviteTemplate = template.Must(template.New("invite").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Invite to {{.TenantName}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.4; margin: 0; padding: 24px; background-color: #f5f5f5;">
<div style="max-width: 520px; margin: 0 auto; background: #ffffff; border-radius: 8px; padding: 32px;">
<h2 style="margin: 0 0 16px;">Invite to {{.TenantName}}</h2>
<p>You have been invited with role: <b>{{.Role}}</b>.</p>
{{if .AccessEnds}}<p>Your access is licensed from {{.AccessStarts}} until {{.AccessEnds}}.</p>{{end}}
<p>Click this link to set your password and activate your access:</p>
<p>
<a href="{{.InviteURL}}" style="display:inline-block;padding:10px 14px;background:#111;color:#fff;text-decoration:none;border-radius:8px">Accept Invite</a>
</p>
<p style="color:#666;font-size:12px">This invite expires on {{.ExpiresAt}}. If you didn't expect it, you can ignore this email.</p>
<hr />
<p style="font-size:12px;color:#666">Or copy/paste this URL:<br /><code>{{.InviteURL}}</code></p>
</div>
</body>
</html>`))

// InviteData holds template data for the invite email
type InviteData struct {
	TenantName   string
	Role         string
	InviteURL    string
	AccessStarts string
	AccessEnds   string
	ExpiresAt    string
}

const dateLayout = "2006-01-02"

// FormatDate renders an optional date for email bodies
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

// RenderInviteEmail renders the invite subject with HTML and text bodies
func RenderInviteEmail(data InviteData) (subject, html, text string, err error) {
	var buf bytes.Buffer
	if err := inviteTemplate.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("render invite template: %w", err)
	}

	subject = fmt.Sprintf("You're invited to %s", data.TenantName)
	text = fmt.Sprintf("Invite to %s\n\nYou have been invited with role: %s.\n\nSet your password and activate your access: %s\n\nThis invite expires on %s.",
		data.TenantName, data.Role, data.InviteURL, data.ExpiresAt)
	return subject, buf.String(), text, nil
}
