package model

import "time"

// Message is one notification created for a milestone transition. It exists
// even when recipient resolution yields nobody, so the transition stays
// auditable.
type Message struct {
	ID                 int       `json:"id"`
	ProjectMilestoneID int       `json:"project_milestone_id"`
	Text               string    `json:"text"`
	CreatedAt          time.Time `json:"created_at"`
}

// MessageRecipient is the per-recipient read state of a message. Read is nil
// until the recipient opens it.
type MessageRecipient struct {
	ID          int        `json:"id"`
	MessageID   int        `json:"message_id"`
	RecipientID int        `json:"recipient_id"`
	Read        *time.Time `json:"read"`
}

// MessageView is a message joined with its recipient row and project, flat
// enough for display layers.
type MessageView struct {
	RecipientRowID int        `json:"recipient_row_id"`
	MessageID      int        `json:"message_id"`
	ProjectID      int        `json:"project_id"`
	ProjectCode    string     `json:"project_code"`
	ProjectName    string     `json:"project_name"`
	Text           string     `json:"text"`
	CreatedAt      time.Time  `json:"created_at"`
	Read           *time.Time `json:"read"`
}

// MessageRecord is the plain display record produced by get_messages_dict.
type MessageRecord struct {
	RecipientRowID int    `json:"id"`
	MessageID      int    `json:"message_id"`
	ProjectID      int    `json:"project_id"`
	ProjectCode    string `json:"project_code"`
	ProjectName    string `json:"project_name"`
	URL            string `json:"url"`
	Text           string `json:"text"`
	Unread         bool   `json:"unread"`
}

// MessagesDict flattens message views into display records. The URL points at
// the project detail page of the outer surface.
func MessagesDict(views []MessageView) []MessageRecord {
	records := make([]MessageRecord, 0, len(views))
	for _, v := range views {
		records = append(records, MessageRecord{
			RecipientRowID: v.RecipientRowID,
			MessageID:      v.MessageID,
			ProjectID:      v.ProjectID,
			ProjectCode:    v.ProjectCode,
			ProjectName:    v.ProjectName,
			URL:            "/projects/" + v.ProjectCode,
			Text:           v.Text,
			Unread:         v.Read == nil,
		})
	}
	return records
}
