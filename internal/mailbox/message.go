// Package mailbox reads NAV report mail from a local drop directory.
package mailbox

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"

	"github.com/JonMunkholm/navsync/internal/sheet"
)

// Attachment is one spreadsheet carried by a message.
type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Message is a parsed mail with its spreadsheet attachments.
//
// Key identifies the message across syncs: the Message-ID header when
// present, otherwise a digest of the raw bytes.
type Message struct {
	Key         string
	Subject     string
	From        string
	Date        time.Time
	Attachments []Attachment
}

// ParseMessage decodes a MIME message. Attachments that are not
// spreadsheets are dropped; a message without any is still returned.
func ParseMessage(raw []byte) (Message, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return Message{}, fmt.Errorf("parse message: %w", err)
	}

	msg := Message{
		Key:     messageKey(env.GetHeader("Message-ID"), raw),
		Subject: strings.TrimSpace(env.GetHeader("Subject")),
		From:    strings.TrimSpace(env.GetHeader("From")),
	}
	if d, err := env.Date(); err == nil {
		msg.Date = d
	}

	parts := make([]*enmime.Part, 0, len(env.Attachments)+len(env.Inlines))
	parts = append(parts, env.Attachments...)
	parts = append(parts, env.Inlines...)
	for _, p := range parts {
		if !sheet.IsSpreadsheet(p.FileName) || len(p.Content) == 0 {
			continue
		}
		msg.Attachments = append(msg.Attachments, Attachment{
			FileName:    p.FileName,
			ContentType: p.ContentType,
			Data:        p.Content,
		})
	}
	return msg, nil
}

func messageKey(messageID string, raw []byte) string {
	id := strings.Trim(strings.TrimSpace(messageID), "<>")
	if id != "" {
		return id
	}
	sum := sha256.Sum256(raw)
	return "sha256:" + hex.EncodeToString(sum[:])
}
