// ABOUTME: Email payload normalizer - flattens raw Gmail MIME trees into stable records
// ABOUTME: Header extraction, base64url body decoding, recursive part walking, thread assembly

package gmail

import (
	"encoding/base64"
	"strings"

	"google.golang.org/api/gmail/v1"
)

// extractedHeaders is the fixed set of header names the normalizer surfaces.
// Matching is case-insensitive; anything else is dropped.
var extractedHeaders = map[string]bool{
	"from":    true,
	"to":      true,
	"subject": true,
	"date":    true,
	"cc":      true,
	"bcc":     true,
}

// extractHeaders projects a message's header list onto the allow-list.
// Values pass through exactly as the API provided them - no whitespace
// normalization and no RFC 2047 decoding. If a header recurs, the last
// occurrence wins. Missing headers are simply missing keys.
func extractHeaders(headers []*gmail.MessagePartHeader) map[string]string {
	fields := make(map[string]string, len(extractedHeaders))
	for _, h := range headers {
		if h == nil {
			continue
		}
		name := strings.ToLower(h.Name)
		if extractedHeaders[name] {
			fields[name] = h.Value
		}
	}
	return fields
}

// decodeBody decodes a base64url body blob into text. Gmail strips trailing
// padding, so it is restored first: padding = 4 - len mod 4, skipped when the
// length is already a multiple of 4. Invalid UTF-8 in the decoded bytes is
// replaced rather than rejected. ok is false only for undecodable base64.
func decodeBody(data string) (text string, ok bool) {
	if data == "" {
		return "", true
	}

	if padding := 4 - len(data)%4; padding != 4 {
		data += strings.Repeat("=", padding)
	}

	raw, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		return "", false
	}

	return strings.ToValidUTF8(string(raw), "�"), true
}

// bodyContent is the merged result of walking a message's part tree
type bodyContent struct {
	plain         string
	html          string
	hasAttachment bool
}

// walkParts traverses the part tree depth-first in pre-order, decoding and
// classifying each part by its declared MIME type. When several parts declare
// the same text type, the last one visited wins. Children are always walked,
// whatever the parent's type; sibling order is the input order. The documented
// format is a tree, but identity of visited parts is tracked so a degenerate
// payload with shared or cyclic structure still terminates.
func walkParts(root *gmail.MessagePart) bodyContent {
	var content bodyContent
	visited := make(map[*gmail.MessagePart]bool)

	var walk func(part *gmail.MessagePart)
	walk = func(part *gmail.MessagePart) {
		if part == nil || visited[part] {
			return
		}
		visited[part] = true

		hasData := part.Body != nil && part.Body.Data != ""

		switch part.MimeType {
		case "text/plain":
			if hasData {
				// A corrupt blob contributes nothing; it must not clobber
				// text collected from an earlier part.
				if text, ok := decodeBody(part.Body.Data); ok {
					content.plain = text
				}
			}
		case "text/html":
			if hasData {
				if text, ok := decodeBody(part.Body.Data); ok {
					content.html = text
				}
			}
		default:
			if isAttachmentPart(part) {
				content.hasAttachment = true
			}
		}

		for _, child := range part.Parts {
			walk(child)
		}
	}
	walk(root)

	return content
}

// isAttachmentPart reports whether a part signals attachment presence: any
// non-multipart part outside the two text types that carries body data, an
// attachment reference, or a declared filename.
func isAttachmentPart(part *gmail.MessagePart) bool {
	if strings.HasPrefix(part.MimeType, "multipart/") {
		return false
	}
	if part.Filename != "" {
		return true
	}
	if part.Body == nil {
		return false
	}
	return part.Body.Data != "" || part.Body.AttachmentId != ""
}

// FormatMessage produces the normalized record for one raw Gmail message.
// It is pure: identical input always yields identical output. Absent optional
// fields default - labelIds to an empty list, all string fields to "".
func FormatMessage(msg *gmail.Message) *NormalizedMessage {
	out := &NormalizedMessage{
		LabelIDs: []string{},
	}
	if msg == nil {
		return out
	}

	out.ID = msg.Id
	out.ThreadID = msg.ThreadId
	out.Snippet = msg.Snippet
	if len(msg.LabelIds) > 0 {
		out.LabelIDs = append(out.LabelIDs, msg.LabelIds...)
	}

	if msg.Payload != nil {
		fields := extractHeaders(msg.Payload.Headers)
		out.From = fields["from"]
		out.To = fields["to"]
		out.Cc = fields["cc"]
		out.Subject = fields["subject"]
		out.Date = fields["date"]

		content := walkParts(msg.Payload)
		out.BodyPlain = content.plain
		out.BodyHTML = content.html
		out.HasAttachments = content.hasAttachment
	}

	return out
}

// FormatThread normalizes every message of a thread in place in the order the
// source delivered them - Gmail already orders by arrival and the normalizer
// never re-sorts. Thread-level summary fields (subject, participants, date
// range) are derived from the already-normalized messages without re-decoding
// anything. An absent or empty message list is not an error.
func FormatThread(thread *gmail.Thread) *NormalizedThread {
	out := &NormalizedThread{
		Participants: []string{},
		Messages:     []*NormalizedMessage{},
	}
	if thread == nil {
		return out
	}

	out.ThreadID = thread.Id

	seen := make(map[string]bool)
	for _, raw := range thread.Messages {
		msg := FormatMessage(raw)
		out.Messages = append(out.Messages, msg)

		for _, header := range []string{msg.From, msg.To, msg.Cc} {
			for _, addr := range splitAddressList(header) {
				if !seen[addr] {
					seen[addr] = true
					out.Participants = append(out.Participants, addr)
				}
			}
		}
	}

	out.MessageCount = len(out.Messages)
	if out.MessageCount > 0 {
		out.Subject = out.Messages[0].Subject
		out.DateRange = &DateRange{
			First: out.Messages[0].Date,
			Last:  out.Messages[out.MessageCount-1].Date,
		}
	}

	return out
}

// splitAddressList splits a raw address header into bare email addresses.
// "Alice Example <alice@example.com>, bob@example.com" yields the two
// addresses without display names.
func splitAddressList(header string) []string {
	if header == "" {
		return nil
	}

	parts := strings.Split(header, ",")
	addrs := make([]string, 0, len(parts))
	for _, part := range parts {
		addr := strings.TrimSpace(part)
		if idx := strings.Index(addr, "<"); idx != -1 {
			if end := strings.Index(addr[idx:], ">"); end != -1 {
				addr = strings.TrimSpace(addr[idx+1 : idx+end])
			}
		}
		if addr != "" {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}
