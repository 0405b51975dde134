package rfp

import (
	"bytes"
	"text/template"
	"time"

	"github.com/dimasprabowo/procurement-management/internal"
	"github.com/dimasprabowo/procurement-management/internal/indent"
)

const documentTemplate = `REQUEST FOR PROPOSAL
RFP Number: {{.RFPNumber}}
Issued: {{.IssuedAt}}

Issuing Organization:
{{.CompanyName}}
{{.CompanyAddress}}
Contact: {{.ContactEmail}}

Requested Item: {{.Asset}}
Quantity: {{.Quantity}}
{{- if .Remarks}}
Remarks: {{.Remarks}}
{{- end}}

Suppliers are invited to submit proposals for the item above. Quote the RFP
number on all correspondence.
`

// Renderer produces the plain-text RFP document sent to suppliers.
type Renderer struct {
	cfg  internal.RFPConfig
	tmpl *template.Template
}

func NewRenderer(cfg internal.RFPConfig) *Renderer {
	return &Renderer{
		cfg:  cfg,
		tmpl: template.Must(template.New("rfp").Parse(documentTemplate)),
	}
}

func (r *Renderer) RenderRFP(ind *indent.Indent) (string, error) {
	rfpNumber := ""
	if ind.RFPNumber != nil {
		rfpNumber = *ind.RFPNumber
	}

	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, map[string]interface{}{
		"RFPNumber":      rfpNumber,
		"IssuedAt":       time.Now().Format("2 January 2006"),
		"CompanyName":    r.cfg.CompanyName,
		"CompanyAddress": r.cfg.CompanyAddress,
		"ContactEmail":   r.cfg.ContactEmail,
		"Asset":          ind.Asset,
		"Quantity":       ind.Quantity,
		"Remarks":        ind.Remarks,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
