package issue

import (
	"bytes"
	"text/template"
)

const (
	titleTemplate  = `Unresolved TODO in {{.FileName}}:{{.LineNumber}}`
	headerTemplate = "File: {{.FilePath}}\nLine: {{.LineNumber}}\n\n```\n{{.CommentBlock}}\n```"
)

var complaintTemplates = []string{
	`This has been sitting here since {{.BlameDate}}...a little unprofessional don't you think?`,
	`I don't get it, {{.BlameUserName}} added this {{.TimeSinceBlameDate}} ago!`,
	`Why was {{.BlameUserName}} allowed to leave this here?`,
	`We've had no traction on this since {{.BlameDate}}.`,
	`I thought {{.FileName}} was in {{.BlameUserName}}'s hands?`,
	`It's been {{.TimeSinceBlameDate}}.`,
}

var emphasisTemplates = []string{
	`Seriously.`,
	`Is there ever going to be any progress on this?`,
	`I'm confused as to why this is still a TODO...`,
	`Couldn't you just go ahead and implement this?`,
	`I find it pretty hilarious that this continues to go unresolved.`,
	`Will there be resolution on this in the project's lifetime?`,
	`I think I speak for many when I say that the lack of update on this is non-trivially detrimental.`,
	`How can we expect to have full-featured release when the code itself is fragmented and incomplete?`,
}

var (
	title      *template.Template
	header     *template.Template
	complaints []*template.Template
	emphases   []*template.Template
)

func init() {
	title = parse("title", titleTemplate)
	header = parse("header", headerTemplate)
	for _, text := range complaintTemplates {
		complaints = append(complaints, parse("complaint", text))
	}
	for _, text := range emphasisTemplates {
		emphases = append(emphases, parse("emphasis", text))
	}
}

// parse compiles a template that fails on any key missing from the data.
func parse(name, text string) *template.Template {
	return template.Must(template.New(name).Option("missingkey=error").Parse(text))
}

func render(tmpl *template.Template, data map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
