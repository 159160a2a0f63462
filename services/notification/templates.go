package notification

import (
	"bytes"
	"fmt"
	"text/template"

	"mindhaven/models"
	"mindhaven/services/identity"
)

type messageTemplate struct {
	title *template.Template
	body  *template.Template
}

func mustTemplate(key models.TemplateKey, title, body string) messageTemplate {
	return messageTemplate{
		title: template.Must(template.New(string(key) + ".title").Option("missingkey=zero").Parse(title)),
		body:  template.Must(template.New(string(key) + ".body").Option("missingkey=zero").Parse(body)),
	}
}

var templates = map[models.TemplateKey]messageTemplate{
	models.TemplateBookingRequested: mustTemplate(models.TemplateBookingRequested,
		"New session request",
		"{{.counterpart}} requested a {{.modality}} session on {{.date}} at {{.start}}."),
	models.TemplateBookingConfirmed: mustTemplate(models.TemplateBookingConfirmed,
		"Session confirmed",
		"Your {{.modality}} session with {{.counterpart}} on {{.date}} at {{.start}}-{{.end}} is confirmed."+
			"{{if .meetingLink}} Join: {{.meetingLink}}{{end}}{{if .meetingPassword}} (password {{.meetingPassword}}){{end}}"),
	models.TemplateBookingCancelled: mustTemplate(models.TemplateBookingCancelled,
		"Session cancelled",
		"Your session with {{.counterpart}} on {{.date}} at {{.start}} was cancelled{{if .reason}}: {{.reason}}{{end}}."),
	models.TemplateBookingCompleted: mustTemplate(models.TemplateBookingCompleted,
		"Session completed",
		"Your session with {{.counterpart}} on {{.date}} is complete."),
	models.TemplateBookingRescheduled: mustTemplate(models.TemplateBookingRescheduled,
		"Session rescheduled",
		"Your session with {{.counterpart}} was moved to {{.date}} at {{.start}}-{{.end}}{{if .reason}} ({{.reason}}){{end}}."),
	models.TemplateBookingReminder: mustTemplate(models.TemplateBookingReminder,
		"Upcoming session",
		"Reminder: your {{.modality}} session with {{.counterpart}} starts at {{.start}} on {{.date}}."+
			"{{if .meetingLink}} Join: {{.meetingLink}}{{end}}"),
	models.TemplateBookingExpired: mustTemplate(models.TemplateBookingExpired,
		"Session request expired",
		"The session with {{.counterpart}} on {{.date}} at {{.start}} was not accepted before session time."),
}

// Compose renders a template for one recipient from masked parameters.
func Compose(recipientID string, key models.TemplateKey, params identity.Params) (models.NotificationMessage, error) {
	tpl, ok := templates[key]
	if !ok {
		return models.NotificationMessage{}, fmt.Errorf("unknown notification template %q", key)
	}

	values := params.Values()
	var title, body bytes.Buffer
	if err := tpl.title.Execute(&title, values); err != nil {
		return models.NotificationMessage{}, fmt.Errorf("render %s title: %w", key, err)
	}
	if err := tpl.body.Execute(&body, values); err != nil {
		return models.NotificationMessage{}, fmt.Errorf("render %s body: %w", key, err)
	}

	values["template"] = string(key)
	return models.NotificationMessage{
		RecipientID: recipientID,
		Template:    key,
		Title:       title.String(),
		Body:        body.String(),
		Data:        values,
	}, nil
}
