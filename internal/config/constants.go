package config

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

type JobType string

const (
	JobTypeLogo      JobType = "logo"
	JobTypeProduct   JobType = "product"
	JobTypeCharacter JobType = "character"
	JobTypeCampaign  JobType = "campaign"
	JobTypeTTS       JobType = "tts"
	JobTypeVideo     JobType = "video"
	JobTypeGeneric   JobType = "generic"
)

var AllowedJobTypes = []JobType{
	JobTypeLogo,
	JobTypeProduct,
	JobTypeCharacter,
	JobTypeCampaign,
	JobTypeTTS,
	JobTypeVideo,
	JobTypeGeneric,
}

// Fixed credit costs per job type. TTS is excluded: its cost scales
// with input text length (see CreditsForTTS).
var CreditCosts = map[JobType]int{
	JobTypeLogo:      10,
	JobTypeProduct:   5,
	JobTypeCharacter: 8,
	JobTypeCampaign:  15,
	JobTypeVideo:     20,
	JobTypeGeneric:   1,
}

// CreditsForTTS charges one credit per started 100 characters.
func CreditsForTTS(textLength int) int {
	if textLength <= 0 {
		return 1
	}
	return (textLength + 99) / 100
}

// Ledger entry types.
const (
	LedgerEntryCharge = "charge"
	LedgerEntryRefund = "refund"
	LedgerEntryGrant  = "grant"
)
