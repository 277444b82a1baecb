package bot

const (
	ActivityMessage            = "message"
	ActivityConversationUpdate = "conversationUpdate"

	LayoutCarousel = "carousel"
)

type ChannelAccount struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type ConversationAccount struct {
	ID string `json:"id"`
}

// Activity is an inbound event from a channel.
type Activity struct {
	Type         string              `json:"type"`
	ID           string              `json:"id,omitempty"`
	Text         string              `json:"text,omitempty"`
	Locale       string              `json:"locale,omitempty"`
	From         ChannelAccount      `json:"from"`
	Recipient    ChannelAccount      `json:"recipient"`
	Conversation ConversationAccount `json:"conversation"`
	MembersAdded []ChannelAccount    `json:"membersAdded,omitempty"`
}

// Card is a hero card shown in a carousel.
type Card struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Reply is an outbound message. Rendering of cards is up to the channel.
type Reply struct {
	Text             string `json:"text,omitempty"`
	Speak            string `json:"speak,omitempty"`
	AttachmentLayout string `json:"attachmentLayout,omitempty"`
	Attachments      []Card `json:"attachments,omitempty"`
}
