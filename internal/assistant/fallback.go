package assistant

import "fmt"

// Hand-authored advisory content served when the model is unavailable
// or its response cannot be parsed. Keyed off simple profile
// heuristics so the output is still personalized.

func fallbackRecommendations(p Profile) []Recommendation {
	var recs []Recommendation

	if len(p.ConnectedPlatforms) == 0 {
		recs = append(recs, Recommendation{
			Priority:    "critical",
			Category:    "platforms",
			Title:       "Connect your first platform",
			Description: "Nothing can be published or monetized until at least one platform is connected.",
			ActionSteps: []string{
				"Open platform settings",
				"Connect the platform where your audience already is",
				"Verify the connection with a test post",
			},
			EstimatedRevenue: "unblocks all revenue",
			TimeToImplement:  "10 minutes",
			Difficulty:       "easy",
		})
	}

	if p.ContentCount == 0 {
		recs = append(recs, Recommendation{
			Priority:    "high",
			Category:    "content",
			Title:       "Create your first piece of content",
			Description: "Accounts with at least one published piece in the first week retain far better.",
			ActionSteps: []string{
				"Pick one format you can finish today",
				"Generate a draft with the content tools",
				"Publish and note what resonates",
			},
			EstimatedRevenue: "foundational",
			TimeToImplement:  "1 hour",
			Difficulty:       "easy",
		})
	}

	if p.Credits < 10 {
		recs = append(recs, Recommendation{
			Priority:    "medium",
			Category:    "account",
			Title:       "Top up your credits",
			Description: fmt.Sprintf("You have %d credits left, not enough for most generation jobs.", p.Credits),
			ActionSteps: []string{
				"Review the per-job credit costs",
				"Top up before starting a batch of work",
			},
			EstimatedRevenue: "n/a",
			TimeToImplement:  "5 minutes",
			Difficulty:       "easy",
		})
	}

	recs = append(recs, Recommendation{
		Priority:    "medium",
		Category:    "growth",
		Title:       "Publish on a consistent schedule",
		Description: "A predictable cadence outperforms sporadic bursts for audience growth.",
		ActionSteps: []string{
			"Choose a sustainable weekly cadence",
			"Batch-produce content ahead of schedule",
			"Review performance every two weeks",
		},
		EstimatedRevenue: "compounding",
		TimeToImplement:  "ongoing",
		Difficulty:       "medium",
	})

	return recs
}

func fallbackStrategy(p Profile) *Strategy {
	if len(p.ConnectedPlatforms) == 0 {
		return &Strategy{
			Summary:       "Get connected first: everything else depends on having at least one live platform.",
			FocusAreas:    []string{"platform setup", "first content piece"},
			NextMilestone: "First platform connected and first piece published",
		}
	}
	if p.ContentCount < 10 {
		return &Strategy{
			Summary:       "Build a content base on your connected platforms before optimizing for revenue.",
			FocusAreas:    []string{"consistent publishing", "format experiments"},
			NextMilestone: "10 published pieces",
		}
	}
	return &Strategy{
		Summary:       "You have a working base. Shift focus from volume to monetization and doubling down on what performs.",
		FocusAreas:    []string{"monetization", "top-performer analysis", "audience retention"},
		NextMilestone: "First recurring revenue stream",
	}
}

func fallbackAnalysis(content string) *ContentAnalysis {
	score := 50
	var strengths, improvements []string

	if len(content) >= 200 {
		score += 20
		strengths = append(strengths, "substantial length")
	} else {
		improvements = append(improvements, "expand the content, it is quite short")
	}
	if len(content) > 0 && len(content) <= 2000 {
		score += 10
		strengths = append(strengths, "digestible size")
	} else if len(content) > 2000 {
		improvements = append(improvements, "consider splitting into shorter pieces")
	}

	return &ContentAnalysis{
		Score:        score,
		Strengths:    strengths,
		Improvements: improvements,
		Summary:      "Automated baseline analysis; detailed review was unavailable.",
	}
}
