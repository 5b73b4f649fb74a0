package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"wallet-ledger-go/internal/models"

	"gopkg.in/yaml.v2"
)

const defaultSubject = "Your {{.TransactionType}} was Successful"

const defaultBody = `<html>
<body style="font-family: Arial, sans-serif;">
  <h2>Hello {{.UserName}},</h2>
  <p>Your {{.TransactionType}} was completed successfully.</p>
  <table>
    <tr><td><strong>Amount:</strong></td><td>{{.Amount}}</td></tr>
    <tr><td><strong>New balance:</strong></td><td>{{.NewBalance}}</td></tr>
    <tr><td><strong>Description:</strong></td><td>{{.Description}}</td></tr>
  </table>
  <p>Thank you for using our wallet.</p>
</body>
</html>`

// TemplateConfig is one subject/body pair as written in the templates file
type TemplateConfig struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// TemplatesConfig is the layout of EMAIL_TEMPLATES_FILE
type TemplatesConfig struct {
	Default TemplateConfig            `yaml:"default"`
	Types   map[string]TemplateConfig `yaml:"types"`
}

type compiled struct {
	subject *template.Template
	body    *template.Template
}

// Templates renders notification subjects and HTML bodies per transaction type
type Templates struct {
	fallback compiled
	byType   map[string]compiled
}

func DefaultTemplates() *Templates {
	templates, err := NewTemplates(TemplatesConfig{})
	if err != nil {
		panic(err)
	}
	return templates
}

func NewTemplates(config TemplatesConfig) (*Templates, error) {
	if config.Default.Subject == "" {
		config.Default.Subject = defaultSubject
	}
	if config.Default.Body == "" {
		config.Default.Body = defaultBody
	}

	fallback, err := compile("default", config.Default)
	if err != nil {
		return nil, err
	}

	templates := &Templates{fallback: fallback, byType: map[string]compiled{}}
	for txType, tc := range config.Types {
		if tc.Subject == "" {
			tc.Subject = config.Default.Subject
		}
		if tc.Body == "" {
			tc.Body = config.Default.Body
		}
		c, err := compile(txType, tc)
		if err != nil {
			return nil, err
		}
		templates.byType[txType] = c
	}
	return templates, nil
}

// LoadTemplates reads a YAML templates file. Relative paths resolve against
// the working directory.
func LoadTemplates(templatesFile string) (*Templates, error) {
	path := templatesFile
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, templatesFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", templatesFile, err)
	}

	var config TemplatesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", templatesFile, err)
	}
	return NewTemplates(config)
}

// Render returns the subject and HTML body for params
func (t *Templates) Render(params models.EmailNotification) (string, string, error) {
	c, ok := t.byType[params.TransactionType]
	if !ok {
		c = t.fallback
	}

	var subject, body bytes.Buffer
	if err := c.subject.Execute(&subject, params); err != nil {
		return "", "", fmt.Errorf("failed to render subject: %w", err)
	}
	if err := c.body.Execute(&body, params); err != nil {
		return "", "", fmt.Errorf("failed to render body: %w", err)
	}
	return strings.TrimSpace(subject.String()), body.String(), nil
}

func compile(name string, tc TemplateConfig) (compiled, error) {
	subject, err := template.New(name + "-subject").Parse(tc.Subject)
	if err != nil {
		return compiled{}, fmt.Errorf("template %s has invalid subject: %w", name, err)
	}
	body, err := template.New(name + "-body").Parse(tc.Body)
	if err != nil {
		return compiled{}, fmt.Errorf("template %s has invalid body: %w", name, err)
	}
	return compiled{subject: subject, body: body}, nil
}
