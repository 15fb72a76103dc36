package booking

import (
	"fmt"
	"strings"
)

// ContactMessage is a contact form submission relayed to the operator.
type ContactMessage struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Message string `json:"message" validate:"required,max=4000"`
}

func (c ContactMessage) normalized() ContactMessage {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Message = strings.TrimSpace(c.Message)
	return c
}

// Text is the operator-facing rendering of the submission.
func (c ContactMessage) Text() string {
	return fmt.Sprintf("New Contact Form Submission\n\nName: %s\nEmail: %s\nMessage: %s", c.Name, c.Email, c.Message)
}
