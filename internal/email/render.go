package email

import (
	"bytes"
	"fmt"
	htemplate "html/template"
	"os"
)

// Render carga el template HTML desde el path resuelto por el template
// store y lo ejecuta con los datos del job.
func Render(templatePath string, data map[string]string) (string, error) {
	b, err := os.ReadFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("email: read template %s: %w", templatePath, err)
	}
	t, err := htemplate.New("email").Parse(string(b))
	if err != nil {
		return "", fmt.Errorf("email: parse template %s: %w", templatePath, err)
	}
	var out bytes.Buffer
	if err := t.Execute(&out, data); err != nil {
		return "", fmt.Errorf("email: render template %s: %w", templatePath, err)
	}
	return out.String(), nil
}
