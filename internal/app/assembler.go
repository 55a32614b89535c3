package app

import (
	"math/rand"

	"framequiz-service/internal/domain"
)

// maxFramesPerRound caps the multi-frame mode.
const maxFramesPerRound = 4

// pickFrames chooses which frame refs a round shows. Frames arrive ranked by
// quality from the catalog; they are reshuffled with the build's random
// source so repeated games over the same title vary by seed.
func pickFrames(frames []string, mode domain.Mode, rng *rand.Rand) []string {
	if len(frames) == 0 {
		return nil
	}
	shuffled := append([]string(nil), frames...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if mode == domain.ModeFourFramesOneTitle {
		if len(shuffled) > maxFramesPerRound {
			shuffled = shuffled[:maxFramesPerRound]
		}
		return shuffled
	}
	return shuffled[:1]
}

// assembleOptions builds the shuffled option list for one round and returns
// the index of the correct option after shuffling.
func assembleOptions(correct domain.Title, distractors []domain.Title, rng *rand.Rand) ([]domain.Option, int) {
	options := make([]domain.Option, 0, len(distractors)+1)
	options = append(options, toOption(correct))
	for _, d := range distractors {
		options = append(options, toOption(d))
	}

	rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	correctIndex := 0
	for i, opt := range options {
		if opt.TitleID == correct.ID {
			correctIndex = i
			break
		}
	}
	return options, correctIndex
}

func toOption(t domain.Title) domain.Option {
	return domain.Option{
		TitleID:        t.ID,
		Title:          t.Title,
		TitleLocalized: t.TitleLocalized,
	}
}
