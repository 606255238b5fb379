package cmd

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/jbrukh/bayesian"
	"github.com/jtsay362/csv2iif"
	"github.com/jtsay362/csv2iif/csv2iif/iif"
)

// trainSplitClassifier learns payee-name words against split accounts from
// an existing IIF file, and returns a predictor for new transactions.
// Predictions are only used when the score gap indicates high confidence;
// otherwise the caller's offset account applies.
func trainSplitClassifier(filename string) (func(*csv2iif.Transaction) string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	file, err := iif.NewDecoder(f).Decode()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	type sample struct {
		words   []string
		account string
	}
	var samples []sample
	uniqueAccounts := make(map[string]bool)
	for _, b := range file.Blocks {
		transactions, err := iif.DeserializeTransactions(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		for _, t := range transactions {
			words := strings.Fields(t.Tr.Name)
			if len(words) == 0 {
				continue
			}
			for _, s := range t.Splits {
				if s.Account == "" {
					continue
				}
				uniqueAccounts[s.Account] = true
				samples = append(samples, sample{words: words, account: s.Account})
			}
		}
	}

	if len(uniqueAccounts) < 2 {
		return nil, fmt.Errorf("%s: need at least two distinct split accounts to train on", filename)
	}

	classes := make([]bayesian.Class, 0, len(uniqueAccounts))
	for name := range uniqueAccounts {
		classes = append(classes, bayesian.Class(name))
	}
	classifier := bayesian.NewClassifier(classes...)
	for _, s := range samples {
		classifier.Learn(s.words, bayesian.Class(s.account))
	}

	return func(tx *csv2iif.Transaction) string {
		words := strings.Fields(tx.Name)
		if len(words) == 0 {
			return ""
		}

		// Find the highest and second highest scores
		highScore1 := math.Inf(-1)
		highScore2 := math.Inf(-1)
		matchIdx := 0
		scores, _, _ := classifier.LogScores(words)
		for j, score := range scores {
			if score > highScore1 {
				highScore2 = highScore1
				highScore1 = score
				matchIdx = j
			}
		}
		// A gap over 10 between the top two scores indicates a high
		// confidence match
		if highScore1-highScore2 > 10 {
			return string(classifier.Classes[matchIdx])
		}
		return ""
	}, nil
}
