package job

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/ozlabs/forge/common"
	"github.com/ozlabs/forge/internal/config"
	"github.com/ozlabs/forge/internal/dto"
)

var validate = validator.New()

func decodePayload[T any](raw json.RawMessage) (*T, error) {
	var payload T
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, common.NewValidationError(map[string][]string{
			"input_data": {"invalid json: " + err.Error()},
		})
	}

	if err := validate.Struct(&payload); err != nil {
		fields := map[string][]string{}
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, e := range verrs {
				fields[e.Field()] = append(fields[e.Field()], "failed "+e.Tag())
			}
		}
		return nil, common.NewValidationError(fields)
	}

	return &payload, nil
}

// requiredCredits validates the type-specific payload and returns the
// credit amount the job reserves. TTS cost scales with text length,
// everything else is a flat per-type price.
func requiredCredits(jobType config.JobType, raw json.RawMessage) (int, error) {
	switch jobType {
	case config.JobTypeLogo:
		if _, err := decodePayload[dto.LogoPayload](raw); err != nil {
			return 0, err
		}
	case config.JobTypeProduct:
		if _, err := decodePayload[dto.ProductPayload](raw); err != nil {
			return 0, err
		}
	case config.JobTypeCharacter:
		if _, err := decodePayload[dto.CharacterPayload](raw); err != nil {
			return 0, err
		}
	case config.JobTypeCampaign:
		if _, err := decodePayload[dto.CampaignPayload](raw); err != nil {
			return 0, err
		}
	case config.JobTypeVideo:
		if _, err := decodePayload[dto.VideoPayload](raw); err != nil {
			return 0, err
		}
	case config.JobTypeTTS:
		payload, err := decodePayload[dto.TTSPayload](raw)
		if err != nil {
			return 0, err
		}
		return config.CreditsForTTS(len(payload.Text)), nil
	case config.JobTypeGeneric:
		// Free-form payload, no schema to enforce.
		if !json.Valid(raw) {
			return 0, common.NewValidationError(map[string][]string{
				"input_data": {"invalid json"},
			})
		}
	}

	return config.CreditCosts[jobType], nil
}
