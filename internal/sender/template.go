package sender

import (
	"github.com/osteele/liquid"
)

// BodyTemplate renders email bodies with Liquid so senders can personalize
// per recipient.
type BodyTemplate struct {
	engine *liquid.Engine
}

// NewBodyTemplate creates a template renderer
func NewBodyTemplate() *BodyTemplate {
	return &BodyTemplate{engine: liquid.NewEngine()}
}

// Render renders src with the given bindings
func (b *BodyTemplate) Render(src string, bindings map[string]interface{}) (string, error) {
	return b.engine.ParseAndRenderString(src, bindings)
}

// DefaultBindings returns the variables available to every email body
func DefaultBindings(recipient, subject string) map[string]interface{} {
	return map[string]interface{}{
		"recipient": recipient,
		"subject":   subject,
	}
}
