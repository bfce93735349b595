package dto

import "fmt"

// WebhookPayload is the inbound Teams webhook body. All fields are optional;
// the handler substitutes sentinels for anything missing.
type WebhookPayload struct {
	From *struct {
		Name string `json:"name"`
	} `json:"from"`
	Timestamp   string              `json:"timestamp"`
	Text        string              `json:"text"`
	Attachments []WebhookAttachment `json:"attachments"`
}

type WebhookAttachment struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// WebhookResponse is the message envelope Teams expects back
type WebhookResponse struct {
	Type        string           `json:"type"`
	Attachments []CardAttachment `json:"attachments"`
}

type CardAttachment struct {
	ContentType string       `json:"contentType"`
	Content     AdaptiveCard `json:"content"`
}

// AdaptiveCard is the acknowledgment card rendered in the channel
type AdaptiveCard struct {
	Type    string        `json:"type"`
	Version string        `json:"version"`
	Body    []CardElement `json:"body"`
	Actions []CardAction  `json:"actions"`
	Schema  string        `json:"$schema"`
}

type CardElement struct {
	Type   string     `json:"type"`
	Text   string     `json:"text,omitempty"`
	Weight string     `json:"weight,omitempty"`
	Size   string     `json:"size,omitempty"`
	Color  string     `json:"color,omitempty"`
	Wrap   bool       `json:"wrap,omitempty"`
	Facts  []CardFact `json:"facts,omitempty"`
}

type CardFact struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

type CardAction struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

const (
	cardSchema      = "http://adaptivecards.io/schemas/adaptive-card.json"
	cardContentType = "application/vnd.microsoft.card.adaptive"
)

// NewAcknowledgmentResponse builds the success card referencing the message id
// so the dashboard can look up details.
func NewAcknowledgmentResponse(sender, timestamp string, messageID int64, status, baseURL string) WebhookResponse {
	card := AdaptiveCard{
		Type:    "AdaptiveCard",
		Version: "1.5",
		Body: []CardElement{
			{Type: "TextBlock", Text: "Build Request Processed", Weight: "Bolder", Size: "Medium"},
			{Type: "FactSet", Facts: []CardFact{
				{Title: "Sender", Value: sender},
				{Title: "Time", Value: timestamp},
				{Title: "Build ID", Value: fmt.Sprintf("%d", messageID)},
				{Title: "Status", Value: status},
			}},
		},
		Actions: []CardAction{
			{Type: "Action.OpenUrl", Title: "View Details", URL: fmt.Sprintf("%s/command/%d", baseURL, messageID)},
		},
		Schema: cardSchema,
	}
	return wrapCard(card)
}

// NewErrorResponse builds the failure card. messageID may be nil when the
// failure happened before a message was persisted.
func NewErrorResponse(message string, messageID *int64, baseURL string) WebhookResponse {
	card := AdaptiveCard{
		Type:    "AdaptiveCard",
		Version: "1.5",
		Body: []CardElement{
			{Type: "TextBlock", Text: "Error Processing Build Request", Weight: "Bolder", Size: "Medium", Color: "Attention"},
			{Type: "TextBlock", Text: fmt.Sprintf("Failed to process webhook: %s", message), Wrap: true},
		},
		Actions: []CardAction{},
		Schema:  cardSchema,
	}
	if messageID != nil {
		card.Actions = append(card.Actions, CardAction{
			Type:  "Action.OpenUrl",
			Title: "View Details",
			URL:   fmt.Sprintf("%s/command/%d", baseURL, *messageID),
		})
	}
	return wrapCard(card)
}

func wrapCard(card AdaptiveCard) WebhookResponse {
	return WebhookResponse{
		Type: "message",
		Attachments: []CardAttachment{
			{ContentType: cardContentType, Content: card},
		},
	}
}
