package mailer

import "embed"

const (
	FromName                = "Reviewhub"
	maxRetries              = 3
	StewardAssignedTemplate = "steward_assigned.tmpl"
	StewardRevokedTemplate  = "steward_revoked.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) error
}
