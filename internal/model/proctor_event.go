package model

// FullscreenEvent 监考事件流水，违规计数的审计依据
// swagger:model FullscreenEvent
type FullscreenEvent struct {
	BaseModel
	ParticipantID uint   `gorm:"index;type:bigint unsigned" json:"participantId"`
	EventType     string `gorm:"size:20;not null" json:"eventType"` // exit, return, tab_switch
	// 客户端生成的事件标识，用于网络重试去重，可为空
	EventID string `gorm:"size:64" json:"eventId,omitempty"`
}

func (FullscreenEvent) TableName() string {
	return "fullscreen_events"
}

// NewFullscreenEvent 客户端未提供 eventID 时补一个服务端标识，
// 保证每条流水都可追溯
func NewFullscreenEvent(participantID uint, eventType, eventID string) *FullscreenEvent {
	if eventID == "" {
		eventID = GenerateUUID()
	}
	return &FullscreenEvent{
		ParticipantID: participantID,
		EventType:     eventType,
		EventID:       eventID,
	}
}
