// Package mail builds the mail hand-off links for exports and backups.
// Nothing is sent from the server: the links open a draft in the user's
// mail client or in the webmail compose page.
package mail

import (
	"fmt"
	"strings"
)

// ComposeBaseURL is the webmail compose page.
const ComposeBaseURL = "https://mail.google.com/mail/"

// Transport selects how a draft is handed to the user.
type Transport string

const (
	TransportMailto  Transport = "mailto"
	TransportWebmail Transport = "webmail"
)

func (t Transport) IsValid() bool {
	return t == TransportMailto || t == TransportWebmail
}

// Message is a mail draft.
type Message struct {
	To      string
	Subject string
	Body    string
}

// MailtoURL returns a mailto: URI with the subject and body encoded.
func (m Message) MailtoURL() string {
	return fmt.Sprintf("mailto:%s?subject=%s&body=%s",
		m.To, EncodeComponent(m.Subject), EncodeComponent(m.Body))
}

// ComposeURL returns the webmail compose page URL for the draft.
func (m Message) ComposeURL() string {
	return fmt.Sprintf("%s?view=cm&fs=1&to=%s&su=%s&body=%s",
		ComposeBaseURL, EncodeComponent(m.To), EncodeComponent(m.Subject), EncodeComponent(m.Body))
}

// Link returns the URL for the chosen transport. Unknown transports fall
// back to mailto.
func (m Message) Link(t Transport) string {
	if t == TransportWebmail {
		return m.ComposeURL()
	}
	return m.MailtoURL()
}

const upperhex = "0123456789ABCDEF"

// EncodeComponent percent-encodes s the way browsers encode a URI
// component: letters, digits and -_.!~*'() are kept, everything else is
// escaped byte by byte from its UTF-8 form. Spaces become %20.
func EncodeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
