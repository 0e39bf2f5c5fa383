package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

var (
	verifyTmpl = template.Must(template.New("verify").Parse(`
<h2>Welcome to Talknet, {{.Name}}!</h2>
<p>Confirm your email address to activate your account.</p>
<p><a href="{{.Link}}">Verify my account</a></p>
<p>This link expires in {{.Expires}}.</p>
`))

	resetTmpl = template.Must(template.New("reset").Parse(`
<h3>Password reset requested</h3>
<p>Hi {{.Name}}, we received a request to reset the password for your account.</p>
<p><a href="{{.Link}}">Reset my password</a></p>
<p>This link expires in {{.Expires}}. If you did not request this change, you can ignore this email.</p>
`))
)

type linkData struct {
	Name    string
	Link    string
	Expires string
}

func render(t *template.Template, data linkData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// firstName is the greeting used in templates.
func firstName(fullname string) string {
	if f := strings.Fields(fullname); len(f) > 0 {
		return f[0]
	}
	return "there"
}

// VerificationEmail links to GET {baseURL}/verify/{token}.
func VerificationEmail(baseURL, to, fullname, token, expires string) (Email, error) {
	html, err := render(verifyTmpl, linkData{
		Name:    firstName(fullname),
		Link:    strings.TrimRight(baseURL, "/") + "/verify/" + token,
		Expires: expires,
	})
	if err != nil {
		return Email{}, err
	}
	return newEmail(to, "Verify your Talknet account", html), nil
}

// ResetEmail links to {baseURL}/reset/{token}.
func ResetEmail(baseURL, to, fullname, token, expires string) (Email, error) {
	html, err := render(resetTmpl, linkData{
		Name:    firstName(fullname),
		Link:    strings.TrimRight(baseURL, "/") + "/reset/" + token,
		Expires: expires,
	})
	if err != nil {
		return Email{}, err
	}
	return newEmail(to, "Reset your Talknet password", html), nil
}
