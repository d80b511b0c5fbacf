package alerting

import (
	"strings"

	"RapidSafe/internal/models"
	"RapidSafe/pkg/i18n"
)

// MessageBuilder renders the text sent to each contact.
type MessageBuilder struct {
	tr      *i18n.I18nSupport
	baseURL string
}

func NewMessageBuilder(tr *i18n.I18nSupport, trackingBaseURL string) *MessageBuilder {
	return &MessageBuilder{tr: tr, baseURL: strings.TrimRight(trackingBaseURL, "/")}
}

// TrackingLink is the public page that follows the alert's location.
func (m *MessageBuilder) TrackingLink(alertID string) string {
	return m.baseURL + "/track/" + alertID
}

// Build picks the duress or SOS wording by trigger method. Every body
// carries the tracking link.
func (m *MessageBuilder) Build(lang, triggerMethod, sender, alertID string) string {
	if sender == "" {
		sender = m.tr.T(lang, i18n.MsgAnonSender, nil)
	}
	key := i18n.MsgSOSAlert
	if triggerMethod == models.TriggerDuressPin {
		key = i18n.MsgDuressAlert
	}
	return m.tr.T(lang, key, map[string]interface{}{
		"Sender": sender,
		"Link":   m.TrackingLink(alertID),
	})
}
