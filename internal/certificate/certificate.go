// Package certificate renders the completion certificate for a finished playthrough.
package certificate

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
	"unicode"

	"github.com/tatianab/ghg-game/internal/models"
)

//go:embed certificate.tmpl
var certificateText string

var tmpl = template.Must(template.New("certificate").Parse(certificateText))

// Certificate is everything printed on the certificate.
type Certificate struct {
	Player    string
	FinalYear int
	Outcome   models.FinalOutcome
	Date      time.Time
}

// Render returns the certificate text.
func (c Certificate) Render() (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, c); err != nil {
		return "", fmt.Errorf("render certificate: %w", err)
	}
	return buf.String(), nil
}

// WriteFile renders the certificate into dir as <player>_certificate.txt and
// returns the path written.
func (c Certificate) WriteFile(dir string) (string, error) {
	text, err := c.Render()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create certificate dir: %w", err)
	}
	path := filepath.Join(dir, FileName(c.Player))
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("write certificate: %w", err)
	}
	return path, nil
}

// FileName is the certificate file name for player, with anything that is not
// a letter, digit, dash or underscore replaced.
func FileName(player string) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, strings.TrimSpace(player))
	if name == "" {
		name = "player"
	}
	return name + "_certificate.txt"
}
