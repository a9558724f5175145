package dto

// Per-type job input payloads. Each is validated at creation time
// before any credits are reserved.

type LogoPayload struct {
	BusinessName string `json:"business_name" validate:"required"`
	Industry     string `json:"industry"`
	Style        string `json:"style"`
}

type ProductPayload struct {
	Niche          string `json:"niche" validate:"required"`
	TargetAudience string `json:"target_audience"`
}

type CharacterPayload struct {
	Name      string `json:"name" validate:"required"`
	Archetype string `json:"archetype"`
	Setting   string `json:"setting"`
}

type CampaignPayload struct {
	Goal         string `json:"goal" validate:"required"`
	Platform     string `json:"platform"`
	DurationDays int    `json:"duration_days" validate:"gte=0,lte=30"`
}

type TTSPayload struct {
	Text    string `json:"text" validate:"required"`
	VoiceID string `json:"voice_id"`
}

type VideoPayload struct {
	Topic    string `json:"topic" validate:"required"`
	Script   string `json:"script"`
	VoiceID  string `json:"voice_id"`
	AvatarID string `json:"avatar_id"`
}
